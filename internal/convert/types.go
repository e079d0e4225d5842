package convert

import (
	"image"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"

	"github.com/thywilljoshua/rxtable/internal/ai"
)

// Record is one medication block parsed out of a prescription.
type Record struct {
	Name           string   `json:"name"`
	Dosage         string   `json:"dosage"`
	SuggestedTimes []string `json:"suggested_times"`
}

// Plan is everything a run produces before anything is published.
type Plan struct {
	UserID  string
	Key     string
	Records []Record
	Image   *image.RGBA
	PNG     []byte
}

type Result struct {
	UserID  string   `json:"user_id"`
	Key     string   `json:"key"`
	URL     string   `json:"image_url"`
	Records []Record `json:"records"`
	Width   int      `json:"width"`
	Height  int      `json:"height"`
}

type Config struct {
	Extractor Extractor
	Face      font.Face
	Enhancer  ai.Enhancer
	Logger    zerolog.Logger
}

// Alias from the ai package for convenience
type Medication = ai.Medication
