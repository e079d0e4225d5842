package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rpdf "rsc.io/pdf"
)

// buildPDF writes a minimal PDF with one Helvetica text line per entry,
// 14pt apart, starting near the top of each page.
func buildPDF(pages ...[]string) []byte {
	var objs []string
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	widths := strings.TrimSpace(strings.Repeat("500 ", 126-32+1))
	objs = append(objs,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /FirstChar 32 /LastChar 126 /Widths ["+widths+"] >>",
	)
	for i, lines := range pages {
		var content strings.Builder
		for j, ln := range lines {
			fmt.Fprintf(&content, "BT /F1 12 Tf 72 %d Td (%s) Tj ET\n", 720-14*j, ln)
		}
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		)
	}

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return b.Bytes()
}

func writePDF(t *testing.T, pages ...[]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	require.NoError(t, os.WriteFile(path, buildPDF(pages...), 0o644))
	return path
}

func TestNewExtractor(t *testing.T) {
	e, err := NewExtractor("")
	require.NoError(t, err)
	assert.IsType(t, FitzExtractor{}, e)

	e, err = NewExtractor("Pure")
	require.NoError(t, err)
	assert.IsType(t, PureExtractor{}, e)

	_, err = NewExtractor("tesseract")
	assert.Error(t, err)
}

func TestPureExtractorPageOrder(t *testing.T) {
	path := writePDF(t, []string{"Page one", "Dosage: 5mg"}, []string{"Page two"})
	ctx := context.Background()

	text, err := PureExtractor{}.Text(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Page one\nDosage: 5mg\nPage two\n", text)

	again, err := PureExtractor{}.Text(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, text, again)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fromBytes, err := PureExtractor{}.TextFromBytes(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, text, fromBytes)
}

func TestFitzExtractorPageOrder(t *testing.T) {
	path := writePDF(t, []string{"Page one"}, []string{"Page two"})
	ctx := context.Background()

	text, err := FitzExtractor{}.Text(ctx, path)
	require.NoError(t, err)
	first := strings.Index(text, "Page one")
	second := strings.Index(text, "Page two")
	require.GreaterOrEqual(t, first, 0)
	assert.Greater(t, second, first)

	again, err := FitzExtractor{}.Text(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, text, again)
}

func TestExtractorsReportDocumentReadError(t *testing.T) {
	ctx := context.Background()
	missing := filepath.Join(t.TempDir(), "missing.pdf")
	garbage := []byte("this is not a pdf")

	for name, ext := range map[string]Extractor{"fitz": FitzExtractor{}, "pure": PureExtractor{}} {
		t.Run(name, func(t *testing.T) {
			_, err := ext.Text(ctx, missing)
			var dre *DocumentReadError
			require.True(t, errors.As(err, &dre), "got %v", err)
			assert.Equal(t, missing, dre.Source)

			_, err = ext.TextFromBytes(ctx, garbage)
			assert.True(t, errors.As(err, &dre), "got %v", err)
		})
	}
}

func TestPureExtractorCancelled(t *testing.T) {
	path := writePDF(t, []string{"Page one"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := PureExtractor{}.Text(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJoinRuns(t *testing.T) {
	glyphs := func(s string, x, y float64) []rpdf.Text {
		var out []rpdf.Text
		for _, r := range s {
			if r != ' ' {
				out = append(out, rpdf.Text{FontSize: 10, X: x, Y: y, W: 5, S: string(r)})
			}
			x += 5
		}
		return out
	}
	var runs []rpdf.Text
	runs = append(runs, glyphs("Dosage: 1", 50, 680)...)
	runs = append(runs, glyphs("Name: A b", 50, 700)...)
	// slight baseline jitter stays on the same line
	runs = append(runs, rpdf.Text{FontSize: 10, X: 95, Y: 701, W: 5, S: "c"})

	assert.Equal(t, "Name: A bc\nDosage: 1\n", joinRuns(runs))
	assert.Equal(t, "", joinRuns(nil))
}
