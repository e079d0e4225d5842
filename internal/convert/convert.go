package convert

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/thywilljoshua/rxtable/internal/publish"
)

// Build runs extraction, parsing and rendering for one prescription without
// touching any storage.
func Build(ctx context.Context, pdfPath, userID string, cfg Config) (Plan, error) {
	key, err := publish.Key(userID)
	if err != nil {
		return Plan{}, err
	}
	if cfg.Extractor == nil {
		cfg.Extractor = FitzExtractor{}
	}
	text, err := cfg.Extractor.Text(ctx, pdfPath)
	if err != nil {
		return Plan{}, err
	}
	cfg.Logger.Debug().Str("pdf", pdfPath).Int("chars", len(text)).Msg("extracted text")
	return buildFromText(ctx, text, userID, key, cfg)
}

func buildFromText(ctx context.Context, text, userID, key string, cfg Config) (Plan, error) {
	records := ParsePrescription(text)
	if len(records) == 0 && cfg.Enhancer != nil && strings.TrimSpace(text) != "" {
		meds, err := cfg.Enhancer.ExtractMedications(ctx, text)
		if err != nil {
			cfg.Logger.Warn().Err(err).Msg("AI extraction failed, keeping empty table")
		} else {
			records = fromMedications(meds)
			cfg.Logger.Info().Int("records", len(records)).Msg("records recovered by AI")
		}
	}
	cfg.Logger.Info().Str("user", userID).Int("records", len(records)).Msg("parsed prescription")

	img := RenderTable(records, cfg.Face)
	data, err := EncodePNG(img)
	if err != nil {
		return Plan{}, fmt.Errorf("encode table: %w", err)
	}
	return Plan{UserID: userID, Key: key, Records: records, Image: img, PNG: data}, nil
}

// Publish stores the image and then points the user's record at it. A failed
// store never reaches the user record.
func Publish(ctx context.Context, plan Plan, pub publish.Publisher) (string, error) {
	if pub == nil {
		return "", errors.New("no publisher configured")
	}
	url, err := pub.Store(ctx, plan.PNG, plan.Key)
	if err != nil {
		return "", err
	}
	if err := pub.RecordAssociation(ctx, plan.UserID, url); err != nil {
		return "", err
	}
	return url, nil
}

// Run processes pdfPath for userID end to end.
func Run(ctx context.Context, pdfPath, userID string, pub publish.Publisher, cfg Config) (Result, error) {
	plan, err := Build(ctx, pdfPath, userID, cfg)
	if err != nil {
		return Result{}, err
	}
	url, err := Publish(ctx, plan, pub)
	if err != nil {
		return Result{}, err
	}
	cfg.Logger.Info().Str("user", userID).Str("url", url).Msg("prescription table published")
	return plan.result(url), nil
}

func (p Plan) result(url string) Result {
	b := p.Image.Bounds()
	return Result{
		UserID:  p.UserID,
		Key:     p.Key,
		URL:     url,
		Records: p.Records,
		Width:   b.Dx(),
		Height:  b.Dy(),
	}
}
