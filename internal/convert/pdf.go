package convert

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/gen2brain/go-fitz"
	rpdf "rsc.io/pdf"
)

// Extractor turns a paginated document into one string holding the text of
// every page in page order, with nothing inserted between pages.
type Extractor interface {
	Text(ctx context.Context, path string) (string, error)
	TextFromBytes(ctx context.Context, data []byte) (string, error)
}

const memorySource = "<memory>"

// DocumentReadError reports a document that could not be opened or decoded.
type DocumentReadError struct {
	Source string
	Err    error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("read document %s: %v", e.Source, e.Err)
}

func (e *DocumentReadError) Unwrap() error { return e.Err }

// NewExtractor returns the extractor registered under name: "fitz" (MuPDF) or
// "pure" (rsc.io/pdf). An empty name selects fitz.
func NewExtractor(name string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fitz", "mupdf":
		return FitzExtractor{}, nil
	case "pure", "rsc":
		return PureExtractor{}, nil
	}
	return nil, fmt.Errorf("unknown extractor %q (want fitz|pure)", name)
}

// FitzExtractor reads text through MuPDF.
type FitzExtractor struct{}

func (FitzExtractor) Text(ctx context.Context, path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", &DocumentReadError{Source: path, Err: err}
	}
	defer doc.Close()
	return fitzText(ctx, path, doc)
}

func (FitzExtractor) TextFromBytes(ctx context.Context, data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", &DocumentReadError{Source: memorySource, Err: err}
	}
	defer doc.Close()
	return fitzText(ctx, memorySource, doc)
}

func fitzText(ctx context.Context, src string, doc *fitz.Document) (string, error) {
	var b strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		t, err := doc.Text(i)
		if err != nil {
			return "", &DocumentReadError{Source: src, Err: fmt.Errorf("page %d: %w", i+1, err)}
		}
		b.WriteString(t)
	}
	return b.String(), nil
}

// PureExtractor reads text with rsc.io/pdf and needs no cgo. Lines are rebuilt
// from positioned glyphs, so spacing is approximate.
type PureExtractor struct{}

func (PureExtractor) Text(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &DocumentReadError{Source: path, Err: err}
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return "", &DocumentReadError{Source: path, Err: err}
	}
	doc, err := rpdf.NewReader(f, st.Size())
	if err != nil {
		return "", &DocumentReadError{Source: path, Err: err}
	}
	return pureText(ctx, path, doc)
}

func (PureExtractor) TextFromBytes(ctx context.Context, data []byte) (string, error) {
	doc, err := rpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &DocumentReadError{Source: memorySource, Err: err}
	}
	return pureText(ctx, memorySource, doc)
}

func pureText(ctx context.Context, src string, doc *rpdf.Reader) (string, error) {
	var b strings.Builder
	for i := 1; i <= doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		runs, err := pageRuns(doc.Page(i))
		if err != nil {
			return "", &DocumentReadError{Source: src, Err: fmt.Errorf("page %d: %w", i, err)}
		}
		b.WriteString(joinRuns(runs))
	}
	return b.String(), nil
}

// pageRuns recovers from the panics rsc.io/pdf raises on malformed streams.
func pageRuns(p rpdf.Page) (runs []rpdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()
	if p.V.IsNull() {
		return nil, fmt.Errorf("missing page object")
	}
	return p.Content().Text, nil
}

// joinRuns groups glyphs sharing a baseline into lines, top to bottom, and
// ends every line with a newline. rsc.io/pdf drops space glyphs, so a
// horizontal gap wider than a fifth of the font size becomes a space.
func joinRuns(runs []rpdf.Text) string {
	if len(runs) == 0 {
		return ""
	}
	type line struct {
		y    float64
		size float64
		runs []rpdf.Text
	}
	var lines []*line
	for _, r := range runs {
		var cur *line
		for _, l := range lines {
			tol := math.Max(l.size, r.FontSize) / 2
			if math.Abs(l.y-r.Y) <= tol {
				cur = l
				break
			}
		}
		if cur == nil {
			cur = &line{y: r.Y, size: r.FontSize}
			lines = append(lines, cur)
		}
		cur.runs = append(cur.runs, r)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	var b strings.Builder
	for _, l := range lines {
		sort.SliceStable(l.runs, func(i, j int) bool { return l.runs[i].X < l.runs[j].X })
		end := l.runs[0].X
		for k, r := range l.runs {
			if k > 0 && r.X-end > r.FontSize*0.2 {
				b.WriteByte(' ')
			}
			b.WriteString(r.S)
			end = r.X + r.W
		}
		b.WriteByte('\n')
	}
	return b.String()
}
