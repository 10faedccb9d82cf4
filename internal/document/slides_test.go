package document

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const slideXMLHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
	`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">` +
	`<p:cSld><p:spTree>`

const slideXMLFooter = `</p:spTree></p:cSld></p:sld>`

func shapeXML(paragraphs ...string) string {
	var b strings.Builder
	b.WriteString(`<p:sp><p:txBody>`)
	for _, p := range paragraphs {
		fmt.Fprintf(&b, `<a:p><a:r><a:t>%s</a:t></a:r></a:p>`, p)
	}
	b.WriteString(`</p:txBody></p:sp>`)
	return b.String()
}

// writeDeck builds a minimal .pptx on disk with one XML body per slide.
func writeDeck(t *testing.T, slides map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deck.pptx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, body := range slides {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(slideXMLHeader + body + slideXMLFooter))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

// fakeCorrector marks each correction and records the inputs.
type fakeCorrector struct {
	calls []string
	err   error
}

func (f *fakeCorrector) Correct(_ context.Context, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.calls = append(f.calls, text)
	return "corrected:" + text, nil
}

func TestExtractSlides(t *testing.T) {
	path := writeDeck(t, map[string]string{
		"ppt/slides/slide1.xml": shapeXML("Kandidat One", "Data Enginer") + shapeXML("Skils: SQL"),
		"ppt/slides/slide2.xml": shapeXML("Expirience"),
	})

	corrector := &fakeCorrector{}
	got, err := ExtractSlides(context.Background(), path, corrector)
	require.NoError(t, err)

	want := "corrected:Kandidat One\nData Enginer\ncorrected:Skils: SQL\n\ncorrected:Expirience"
	assert.Equal(t, want, got)
	assert.Equal(t, []string{"Kandidat One\nData Enginer", "Skils: SQL", "Expirience"}, corrector.calls)
}

func TestExtractSlidesNumericOrder(t *testing.T) {
	path := writeDeck(t, map[string]string{
		"ppt/slides/slide10.xml": shapeXML("tenth"),
		"ppt/slides/slide2.xml":  shapeXML("second"),
		"ppt/slides/slide1.xml":  shapeXML("first"),
	})

	got, err := ExtractSlides(context.Background(), path, &fakeCorrector{})
	require.NoError(t, err)
	assert.Equal(t, "corrected:first\n\ncorrected:second\n\ncorrected:tenth", got)
}

func TestExtractSlidesSkipsEmptyShapes(t *testing.T) {
	path := writeDeck(t, map[string]string{
		"ppt/slides/slide1.xml": shapeXML("   ") + shapeXML("real text"),
	})

	corrector := &fakeCorrector{}
	got, err := ExtractSlides(context.Background(), path, corrector)
	require.NoError(t, err)
	assert.Equal(t, "corrected:real text", got)
	assert.Len(t, corrector.calls, 1)
}

func TestExtractSlidesCorrectorFailureAborts(t *testing.T) {
	path := writeDeck(t, map[string]string{
		"ppt/slides/slide1.xml": shapeXML("anything"),
	})

	boom := errors.New("endpoint down")
	_, err := ExtractSlides(context.Background(), path, &fakeCorrector{err: boom})

	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, path, extractionErr.Path)
}

func TestExtractSlidesMissingFile(t *testing.T) {
	_, err := ExtractSlides(context.Background(), filepath.Join(t.TempDir(), "nope.pptx"), &fakeCorrector{})

	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
}

func TestExtractSlidesNoSlides(t *testing.T) {
	path := writeDeck(t, map[string]string{"docProps/app.xml": ""})

	_, err := ExtractSlides(context.Background(), path, &fakeCorrector{})
	require.Error(t, err)
}
