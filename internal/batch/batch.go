// Package batch reviews every slide-deck CV in a directory against a
// set of requirement listings and persists a report.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/davfen/cvdesk/internal/document"
	"github.com/davfen/cvdesk/internal/llm"
	"github.com/davfen/cvdesk/internal/prompts"
)

// ErrNoDocuments means the directory held nothing reviewable.
var ErrNoDocuments = errors.New("no valid CV files found in directory")

// listingsFileName, when present in the batch directory, supplies the
// listings (name -> text) instead of the generated defaults.
const listingsFileName = "listings.yaml"

// Results maps document id -> listing name -> verdict.
type Results map[string]map[string]string

// Reviewer composes extraction, prompt assembly and completion.
type Reviewer struct {
	completer  llm.Completer
	corrector  document.Corrector
	resultsDir string
	logger     *slog.Logger
}

// NewReviewer builds a reviewer writing reports into resultsDir.
func NewReviewer(completer llm.Completer, corrector document.Corrector, resultsDir string, logger *slog.Logger) *Reviewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reviewer{
		completer:  completer,
		corrector:  corrector,
		resultsDir: resultsDir,
		logger:     logger,
	}
}

type candidate struct {
	name string
	path string
}

// ProcessBatch reviews every eligible document in dir against every
// listing. When listings is empty a default set is synthesized. Text
// is extracted once per document, not once per document-listing pair.
func (r *Reviewer) ProcessBatch(ctx context.Context, dir string, listings map[string]string) (Results, map[string]string, error) {
	docs, err := eligibleDocuments(dir)
	if err != nil {
		return nil, nil, err
	}
	if len(docs) == 0 {
		r.logger.Warn("no reviewable documents", "dir", dir)
		return nil, nil, ErrNoDocuments
	}

	if len(listings) == 0 {
		listings = r.loadListingsFile(dir)
	}
	if len(listings) == 0 {
		listings, err = r.defaultListings(ctx, dir)
		if err != nil {
			return nil, nil, err
		}
	}

	results := make(Results, len(docs))
	for _, doc := range docs {
		r.logger.Debug("processing document", "file", doc.name)
		cvText, err := document.ExtractSlides(ctx, doc.path, r.corrector)
		if err != nil {
			return nil, nil, err
		}

		results[doc.name] = make(map[string]string, len(listings))
		for listingName, listingText := range listings {
			verdict, err := r.completer.Complete(ctx, prompts.Review(cvText, listingText))
			if err != nil {
				return nil, nil, fmt.Errorf("review of %s against %s failed: %w", doc.name, listingName, err)
			}
			results[doc.name][listingName] = verdict
		}
	}

	return results, listings, nil
}

// eligibleDocuments lists the .pptx files in dir, skipping artifacts
// of earlier correction runs.
func eligibleDocuments(dir string) ([]candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch directory: %w", err)
	}

	var docs []candidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".pptx") || strings.HasPrefix(name, "corrected_") {
			continue
		}
		docs = append(docs, candidate{name: name, path: filepath.Join(dir, name)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].name < docs[j].name })
	return docs, nil
}

// loadListingsFile reads an optional listings.yaml from the batch
// directory. Any problem just means no custom listings.
func (r *Reviewer) loadListingsFile(dir string) map[string]string {
	raw, err := os.ReadFile(filepath.Join(dir, listingsFileName))
	if err != nil {
		return nil
	}

	var listings map[string]string
	if err := yaml.Unmarshal(raw, &listings); err != nil {
		r.logger.Warn("ignoring unparseable listings file", "dir", dir, "error", err)
		return nil
	}
	r.logger.Info("using listings file", "dir", dir, "count", len(listings))
	return listings
}

// defaultListings generates a generic and a senior listing, plus a
// best-effort listing derived from the first PDF in the directory when
// its tables extract cleanly. The PDF step never aborts the batch.
func (r *Reviewer) defaultListings(ctx context.Context, dir string) (map[string]string, error) {
	generic, err := r.completer.Complete(ctx, prompts.Listing(prompts.KindGeneric))
	if err != nil {
		return nil, fmt.Errorf("failed to create generic listing: %w", err)
	}
	senior, err := r.completer.Complete(ctx, prompts.Listing(prompts.KindSenior))
	if err != nil {
		return nil, fmt.Errorf("failed to create senior listing: %w", err)
	}

	listings := map[string]string{
		"generic":            generic,
		"highly_experienced": senior,
	}

	if pdfListing, ok := r.listingFromPDF(ctx, dir); ok {
		listings["pdf_based"] = pdfListing
	}
	return listings, nil
}

func (r *Reviewer) listingFromPDF(ctx context.Context, dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}

	var pdfs []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			pdfs = append(pdfs, e.Name())
		}
	}
	if len(pdfs) == 0 {
		return "", false
	}
	sort.Strings(pdfs)

	tables, err := document.ExtractTables(filepath.Join(dir, pdfs[0]))
	if err != nil {
		r.logger.Error("failed to extract tables for listing", "file", pdfs[0], "error", err)
		return "", false
	}
	if len(tables) == 0 {
		return "", false
	}

	listing, err := r.completer.Complete(ctx, prompts.TableAnalysis(document.RenderAll(tables)))
	if err != nil {
		r.logger.Error("failed to analyze tables for listing", "file", pdfs[0], "error", err)
		return "", false
	}
	return listing, true
}

// SaveReport renders results and writes them to the results directory
// under a timestamped name. It returns the user-facing completion
// message naming the report file.
func (r *Reviewer) SaveReport(results Results) (string, error) {
	if err := os.MkdirAll(r.resultsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	name := fmt.Sprintf("batch_results_%s.txt", time.Now().Format("20060102_150405"))
	path := filepath.Join(r.resultsDir, name)
	if err := os.WriteFile(path, []byte(Render(results)), 0644); err != nil {
		return "", fmt.Errorf("failed to save batch results: %w", err)
	}

	r.logger.Info("batch report saved", "file", path)
	return fmt.Sprintf("Batch processing completed. Results saved to %s", name), nil
}

// Render produces the report text: one "## <document>" section per
// document with a "- <listing>: <verdict>" bullet per listing, both in
// sorted order so reports are stable.
func Render(results Results) string {
	var b strings.Builder
	b.WriteString("Batch Processing Results:\n\n")

	docs := make([]string, 0, len(results))
	for doc := range results {
		docs = append(docs, doc)
	}
	sort.Strings(docs)

	for _, doc := range docs {
		fmt.Fprintf(&b, "## %s\n", doc)

		names := make([]string, 0, len(results[doc]))
		for name := range results[doc] {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			fmt.Fprintf(&b, "- %s: %s\n", name, results[doc][name])
		}
		b.WriteString("\n")
	}
	return b.String()
}
