// Package document pulls plain text out of slide-deck files and
// reconstructs tables from PDF documents.
package document

import (
	"context"
	"fmt"

	"github.com/davfen/cvdesk/internal/llm"
	"github.com/davfen/cvdesk/internal/prompts"
)

// ExtractionError wraps any failure while reading or parsing a
// document. Extraction is all-or-nothing: no partial text survives.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// Corrector cleans up a fragment of extracted text.
type Corrector interface {
	Correct(ctx context.Context, text string) (string, error)
}

// LLMCorrector runs text through a spelling/grammar completion.
type LLMCorrector struct {
	completer llm.Completer
}

// NewCorrector builds a corrector over the given completer.
func NewCorrector(completer llm.Completer) *LLMCorrector {
	return &LLMCorrector{completer: completer}
}

// Correct asks the completion endpoint for the corrected text.
func (c *LLMCorrector) Correct(ctx context.Context, text string) (string, error) {
	return c.completer.Complete(ctx, prompts.Correction(text))
}

// Extractor bundles slide and table extraction behind one value so
// callers can be handed a fake in tests.
type Extractor struct {
	corrector Corrector
}

// NewExtractor builds an extractor correcting slide text with
// corrector.
func NewExtractor(corrector Corrector) *Extractor {
	return &Extractor{corrector: corrector}
}

// Slides extracts corrected slide text from a .pptx file.
func (e *Extractor) Slides(ctx context.Context, path string) (string, error) {
	return ExtractSlides(ctx, path, e.corrector)
}

// Tables reconstructs the tables of a PDF file.
func (e *Extractor) Tables(path string) ([]Table, error) {
	return ExtractTables(path)
}
