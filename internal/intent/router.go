// Package intent classifies free-text messages against a fixed,
// ordered keyword table and dispatches to the matching document
// handler, falling back to a plain completion.
package intent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/davfen/cvdesk/internal/batch"
	"github.com/davfen/cvdesk/internal/document"
	"github.com/davfen/cvdesk/internal/files"
	"github.com/davfen/cvdesk/internal/llm"
	"github.com/davfen/cvdesk/internal/prompts"
)

// Guidance strings returned when a handler needs an upload that is
// not there. These are instructions to the user, not errors.
const (
	GuidanceUploadCV    = "Please upload a CV file first."
	GuidanceUploadBatch = "Please upload at least one CV file first."
	GuidanceUploadPDF   = "Please upload a PDF file containing tables first."
	NoTablesFound       = "No tables found in the uploaded PDF."
)

// Extractor is the document-reading capability the handlers use.
type Extractor interface {
	Slides(ctx context.Context, path string) (string, error)
	Tables(path string) ([]document.Table, error)
}

// BatchProcessor runs directory-wide CV reviews.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, dir string, listings map[string]string) (batch.Results, map[string]string, error)
	SaveReport(results batch.Results) (string, error)
}

// Router owns the keyword table and the handlers behind it.
type Router struct {
	completer  llm.Completer
	extractor  Extractor
	batcher    BatchProcessor
	slot       *files.UploadSlot
	outputsDir string
	logger     *slog.Logger
	routes     []route
}

type route struct {
	keyword string
	handle  func(ctx context.Context, lowered string) string
}

// NewRouter wires the dispatch table. Table order is load-bearing:
// the first keyword found as a substring of the lower-cased message
// wins, so reordering entries changes behavior.
func NewRouter(completer llm.Completer, extractor Extractor, batcher BatchProcessor, slot *files.UploadSlot, outputsDir string, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		completer:  completer,
		extractor:  extractor,
		batcher:    batcher,
		slot:       slot,
		outputsDir: outputsDir,
		logger:     logger,
	}
	r.routes = []route{
		{"create listing", r.handleListingCreation},
		{"job listing", r.handleListingCreation},
		{"review", r.handleCVReview},
		{"resume", r.handleCVReview},
		{"process cv batch", r.handleBatchProcessing},
		{"batch process", r.handleBatchProcessing},
		{"spell", r.handleTextCorrection},
		{"grammar", r.handleTextCorrection},
		{"correct", r.handleTextCorrection},
		{"table analysis", r.handleTableAnalysis},
		{"analyze table", r.handleTableAnalysis},
	}
	return r
}

// Route classifies message and runs the selected handler. Handlers
// recover downstream failures into user-visible text; only the
// generic fallback can surface an error, and the caller shows that
// like any other reply.
func (r *Router) Route(ctx context.Context, message string) (string, error) {
	lowered := strings.ToLower(message)
	for _, rt := range r.routes {
		if strings.Contains(lowered, rt.keyword) {
			r.logger.Debug("intent matched", "keyword", rt.keyword)
			return rt.handle(ctx, lowered), nil
		}
	}

	r.logger.Debug("no intent matched, generic completion")
	return r.completer.Complete(ctx, message)
}

func (r *Router) handleListingCreation(ctx context.Context, lowered string) string {
	kind := prompts.KindGeneric
	if strings.Contains(lowered, "senior") || strings.Contains(lowered, "experienced") {
		kind = prompts.KindSenior
	}

	listing, err := r.completer.Complete(ctx, prompts.Listing(kind))
	if err != nil {
		r.logger.Error("listing creation failed", "error", err)
		return fmt.Sprintf("Error creating the listing: %v", err)
	}
	return listing
}

func (r *Router) handleCVReview(ctx context.Context, _ string) string {
	path, ok := r.slot.Peek()
	if !ok {
		return GuidanceUploadCV
	}

	cvText, err := r.extractor.Slides(ctx, path)
	if err != nil {
		r.logger.Error("CV extraction failed", "file", path, "error", err)
		return fmt.Sprintf("Error processing the CV: %v", err)
	}
	// The upload is consumed once its text is out, even if the
	// review below fails.
	r.slot.Clear()

	listing, err := r.completer.Complete(ctx, prompts.Listing(prompts.KindGeneric))
	if err != nil {
		r.logger.Error("listing for review failed", "error", err)
		return fmt.Sprintf("Error processing the CV: %v", err)
	}

	verdict, err := r.completer.Complete(ctx, prompts.Review(cvText, listing))
	if err != nil {
		r.logger.Error("CV review failed", "error", err)
		return fmt.Sprintf("Error processing the CV: %v", err)
	}
	return verdict
}

func (r *Router) handleBatchProcessing(ctx context.Context, _ string) string {
	path, ok := r.slot.Peek()
	if !ok {
		return GuidanceUploadBatch
	}

	// The slot stays set after a batch run; only single-document
	// handlers consume it.
	results, _, err := r.batcher.ProcessBatch(ctx, filepath.Dir(path), nil)
	if err != nil {
		r.logger.Error("batch processing failed", "error", err)
		return fmt.Sprintf("Error in batch processing: %v", err)
	}

	message, err := r.batcher.SaveReport(results)
	if err != nil {
		r.logger.Error("batch report failed", "error", err)
		return fmt.Sprintf("Error in batch processing: %v", err)
	}
	return message
}

func (r *Router) handleTextCorrection(ctx context.Context, _ string) string {
	path, ok := r.slot.Peek()
	if !ok {
		return GuidanceUploadCV
	}

	cvText, err := r.extractor.Slides(ctx, path)
	if err != nil {
		r.logger.Error("CV extraction failed", "file", path, "error", err)
		return fmt.Sprintf("Error processing the CV: %v", err)
	}
	r.slot.Clear()

	corrected, err := r.completer.Complete(ctx, prompts.Correction(cvText))
	if err != nil {
		r.logger.Error("text correction failed", "error", err)
		return fmt.Sprintf("Error processing the CV: %v", err)
	}

	r.saveCorrected(path, corrected)
	return corrected
}

// saveCorrected writes the corrected text next to the other generated
// artifacts. Best-effort: the user already has the text on screen.
func (r *Router) saveCorrected(uploadPath, corrected string) {
	if err := os.MkdirAll(r.outputsDir, 0755); err != nil {
		r.logger.Error("failed to create outputs directory", "error", err)
		return
	}

	name := "gen_" + files.OriginalName(uploadPath) + ".txt"
	if err := os.WriteFile(filepath.Join(r.outputsDir, name), []byte(corrected), 0644); err != nil {
		r.logger.Error("failed to save corrected text", "file", name, "error", err)
	}
}

func (r *Router) handleTableAnalysis(ctx context.Context, _ string) string {
	path, ok := r.slot.Peek()
	if !ok {
		return GuidanceUploadPDF
	}

	tables, err := r.extractor.Tables(path)
	if err != nil {
		r.logger.Error("table extraction failed", "file", path, "error", err)
		return fmt.Sprintf("Error analyzing tables: %v", err)
	}
	if len(tables) == 0 {
		return NoTablesFound
	}

	analysis, err := r.completer.Complete(ctx, prompts.TableAnalysis(document.RenderAll(tables)))
	if err != nil {
		r.logger.Error("table analysis failed", "error", err)
		return fmt.Sprintf("Error analyzing tables: %v", err)
	}
	return analysis
}
