package document

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// ExtractSlides reads a .pptx file and returns its text: slides in
// deck order, shapes in document order, every non-empty shape text
// passed through the corrector. Shape texts are joined with newlines
// per slide and slides with a blank line. Any failure aborts the whole
// extraction with an ExtractionError.
func ExtractSlides(ctx context.Context, pptxPath string, corrector Corrector) (string, error) {
	archive, err := zip.OpenReader(pptxPath)
	if err != nil {
		return "", &ExtractionError{Path: pptxPath, Err: err}
	}
	defer archive.Close()

	slides := slideFiles(archive)
	if len(slides) == 0 {
		return "", &ExtractionError{Path: pptxPath, Err: fmt.Errorf("no slides found")}
	}

	var deck []string
	for _, file := range slides {
		shapes, err := shapeTexts(file)
		if err != nil {
			return "", &ExtractionError{Path: pptxPath, Err: err}
		}

		var slideText []string
		for _, text := range shapes {
			if text == "" {
				continue
			}
			corrected, err := corrector.Correct(ctx, text)
			if err != nil {
				return "", &ExtractionError{Path: pptxPath, Err: err}
			}
			slideText = append(slideText, corrected)
		}
		if len(slideText) > 0 {
			deck = append(deck, strings.Join(slideText, "\n"))
		}
	}

	return strings.Join(deck, "\n\n"), nil
}

// slideFiles returns the slide entries sorted by slide number, not
// lexically, so slide10 follows slide9.
func slideFiles(archive *zip.ReadCloser) []*zip.File {
	type numbered struct {
		n    int
		file *zip.File
	}
	var slides []numbered
	for _, file := range archive.File {
		m := slidePattern.FindStringSubmatch(path.Clean(file.Name))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, numbered{n: n, file: file})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	files := make([]*zip.File, len(slides))
	for i, s := range slides {
		files[i] = s.file
	}
	return files
}

// shapeTexts walks one slide's XML and returns the trimmed text of
// each shape (<p:sp>) in document order. Within a shape, paragraphs
// (<a:p>) are joined with newlines and runs (<a:t>) concatenated.
func shapeTexts(file *zip.File) ([]string, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var (
		texts      []string
		paragraphs []string
		current    strings.Builder
		shapeDepth int
		inText     bool
	)

	decoder := xml.NewDecoder(rc)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed slide XML in %s: %w", file.Name, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "sp":
				shapeDepth++
				paragraphs = nil
			case "p":
				if shapeDepth > 0 {
					current.Reset()
				}
			case "t":
				inText = shapeDepth > 0
			}

		case xml.CharData:
			if inText {
				current.Write(el)
			}

		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				if shapeDepth > 0 {
					paragraphs = append(paragraphs, current.String())
					current.Reset()
				}
			case "sp":
				if shapeDepth > 0 {
					shapeDepth--
					texts = append(texts, strings.TrimSpace(strings.Join(paragraphs, "\n")))
					paragraphs = nil
				}
			}
		}
	}

	return texts, nil
}
