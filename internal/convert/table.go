package convert

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	TableWidth   = 700
	HeaderHeight = 50
	RowHeight    = 60

	DefaultFontSize = 24
)

var (
	HeaderColor = color.RGBA{R: 0, G: 150, B: 136, A: 255}
	RowPalette  = [...]color.RGBA{
		{R: 239, G: 154, B: 154, A: 255},
		{R: 129, G: 212, B: 250, A: 255},
		{R: 165, G: 214, B: 167, A: 255},
	}
	tableHeaders = []string{"Medication", "Dosage", "Suggested Times"}
)

// TableSize is the canvas size for n records.
func TableSize(n int) (width, height int) {
	return TableWidth, HeaderHeight + RowHeight*n
}

// RowColor is the background of row i.
func RowColor(i int) color.RGBA { return RowPalette[i%len(RowPalette)] }

// RenderTable draws a header band and one row per record. A nil face falls
// back to the built-in bitmap font.
func RenderTable(records []Record, face font.Face) *image.RGBA {
	if face == nil {
		face = basicfont.Face7x13
	}
	w, h := TableSize(len(records))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(img, img.Bounds(), color.White)

	colW := w / len(tableHeaders)
	fill(img, image.Rect(0, 0, w, HeaderHeight), HeaderColor)
	for i, hdr := range tableHeaders {
		drawText(img, face, 10+i*colW, 15, hdr, color.White)
	}

	for i, r := range records {
		y := HeaderHeight + i*RowHeight
		fill(img, image.Rect(0, y, w, y+RowHeight), RowColor(i))
		drawText(img, face, 10, y+10, r.Name, color.Black)
		drawText(img, face, colW, y+10, r.Dosage, color.Black)
		drawText(img, face, 2*colW, y+10, strings.Join(r.SuggestedTimes, ", "), color.Black)
	}
	return img
}

func fill(dst draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

// drawText places s with its top edge at top; font.Drawer works on baselines.
func drawText(dst draw.Image, face font.Face, x, top int, s string, c color.Color) {
	if s == "" {
		return
	}
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, top+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

// LoadFace opens a scalable font at size points (72 DPI, so points are
// pixels). An empty path uses the embedded Go Regular font. A font that
// cannot be read or parsed degrades to the built-in 7x13 face.
func LoadFace(path string, size float64, log zerolog.Logger) font.Face {
	if size <= 0 {
		size = DefaultFontSize
	}
	data := goregular.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("font", path).Msg("font unavailable, using basic font")
			return basicfont.Face7x13
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		log.Warn().Err(err).Str("font", path).Msg("font unreadable, using basic font")
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Warn().Err(err).Str("font", path).Msg("font face failed, using basic font")
		return basicfont.Face7x13
	}
	return face
}

// EncodePNG returns the lossless PNG encoding of img.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
