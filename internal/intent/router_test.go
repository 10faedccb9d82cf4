package intent

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davfen/cvdesk/internal/batch"
	"github.com/davfen/cvdesk/internal/document"
	"github.com/davfen/cvdesk/internal/files"
)

type scriptedCompleter struct {
	prompts []string
	replies []string
	err     error
}

func (s *scriptedCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "reply", nil
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

type fakeExtractor struct {
	slidesText string
	slidesErr  error
	tables     []document.Table
	tablesErr  error
	slideCalls int
}

func (f *fakeExtractor) Slides(_ context.Context, _ string) (string, error) {
	f.slideCalls++
	return f.slidesText, f.slidesErr
}

func (f *fakeExtractor) Tables(_ string) ([]document.Table, error) {
	return f.tables, f.tablesErr
}

type fakeBatcher struct {
	dir        string
	processErr error
	reportMsg  string
}

func (f *fakeBatcher) ProcessBatch(_ context.Context, dir string, _ map[string]string) (batch.Results, map[string]string, error) {
	f.dir = dir
	if f.processErr != nil {
		return nil, nil, f.processErr
	}
	return batch.Results{"cv.pptx": {"generic": "Accept"}}, nil, nil
}

func (f *fakeBatcher) SaveReport(batch.Results) (string, error) {
	return f.reportMsg, nil
}

type routerFixture struct {
	router    *Router
	completer *scriptedCompleter
	extractor *fakeExtractor
	batcher   *fakeBatcher
	slot      *files.UploadSlot
	outputs   string
}

func newFixture(t *testing.T) *routerFixture {
	t.Helper()
	f := &routerFixture{
		completer: &scriptedCompleter{},
		extractor: &fakeExtractor{slidesText: "extracted text"},
		batcher:   &fakeBatcher{reportMsg: "Batch processing completed. Results saved to batch_results_x.txt"},
		slot:      &files.UploadSlot{},
		outputs:   filepath.Join(t.TempDir(), "outputs"),
	}
	f.router = NewRouter(f.completer, f.extractor, f.batcher, f.slot, f.outputs, nil)
	return f
}

func (f *routerFixture) route(t *testing.T, msg string) string {
	t.Helper()
	got, err := f.router.Route(context.Background(), msg)
	require.NoError(t, err)
	return got
}

func TestFirstMatchRouting(t *testing.T) {
	f := newFixture(t)

	// "review" wins on a review/resume message even with an empty
	// slot: the guidance string proves the CV handler was selected
	// and no completion call was made.
	got := f.route(t, "please review my resume")
	assert.Equal(t, GuidanceUploadCV, got)
	assert.Empty(t, f.completer.prompts)

	// A batch message carries no review/resume token and selects
	// batch processing, not single review.
	got = f.route(t, "batch process all my cvs")
	assert.Equal(t, GuidanceUploadBatch, got)
}

func TestRoutingIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, GuidanceUploadCV, f.route(t, "REVIEW my CV please"))
}

func TestGenericFallback(t *testing.T) {
	f := newFixture(t)
	f.completer.replies = []string{"a joke"}

	got := f.route(t, "tell me something funny")
	assert.Equal(t, "a joke", got)
	require.Len(t, f.completer.prompts, 1)
	assert.Equal(t, "tell me something funny", f.completer.prompts[0])
}

func TestGenericFallbackSurfacesError(t *testing.T) {
	f := newFixture(t)
	f.completer.err = errors.New("endpoint down")

	_, err := f.router.Route(context.Background(), "tell me something funny")
	require.Error(t, err)
}

func TestListingCreationKinds(t *testing.T) {
	f := newFixture(t)

	f.route(t, "create listing please")
	require.Len(t, f.completer.prompts, 1)
	assert.Contains(t, f.completer.prompts[0], "generic data engineer")

	f.route(t, "I need a job listing for a senior role")
	require.Len(t, f.completer.prompts, 2)
	assert.Contains(t, f.completer.prompts[1], "highly experienced (senior) data engineer")
}

func TestCVReviewFlow(t *testing.T) {
	f := newFixture(t)
	f.slot.Set("/store/cv.pptx")
	f.completer.replies = []string{"the listing", "Accept: strong CV"}

	got := f.route(t, "review this cv")
	assert.Equal(t, "Accept: strong CV", got)

	require.Len(t, f.completer.prompts, 2)
	assert.Contains(t, f.completer.prompts[0], "Create a request listing")
	assert.Contains(t, f.completer.prompts[1], "---extracted text---")
	assert.Contains(t, f.completer.prompts[1], "---the listing---")

	_, ok := f.slot.Peek()
	assert.False(t, ok, "slot should be consumed after extraction")
}

func TestCVReviewSlotClearedEvenWhenCompletionFails(t *testing.T) {
	f := newFixture(t)
	f.slot.Set("/store/cv.pptx")
	f.completer.err = errors.New("remote fault")

	got := f.route(t, "review this cv")
	assert.Contains(t, got, "Error processing the CV:")

	_, ok := f.slot.Peek()
	assert.False(t, ok, "extraction succeeded, so the upload is consumed")
}

func TestCVReviewExtractionFailureKeepsSlot(t *testing.T) {
	f := newFixture(t)
	f.slot.Set("/store/cv.pptx")
	f.extractor.slidesErr = errors.New("unreadable deck")

	got := f.route(t, "review this cv")
	assert.Contains(t, got, "Error processing the CV:")
	assert.Empty(t, f.completer.prompts)

	_, ok := f.slot.Peek()
	assert.True(t, ok, "failed extraction must not consume the upload")
}

func TestTextCorrectionFlow(t *testing.T) {
	f := newFixture(t)
	f.slot.Set("/store/28082026_140322_ab1cd_cv.pptx")
	f.completer.replies = []string{"Corrected CV text"}

	got := f.route(t, "fix the spelling mistakes")
	assert.Equal(t, "Corrected CV text", got)

	_, ok := f.slot.Peek()
	assert.False(t, ok)

	raw, err := os.ReadFile(filepath.Join(f.outputs, "gen_cv.pptx.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Corrected CV text", string(raw))
}

func TestBatchProcessingFlow(t *testing.T) {
	f := newFixture(t)
	f.slot.Set("/uploads/batchdir/cv.pptx")

	got := f.route(t, "process cv batch now")
	assert.Contains(t, got, "Batch processing completed")
	assert.Equal(t, "/uploads/batchdir", f.batcher.dir)

	// Batch never consumes the slot.
	_, ok := f.slot.Peek()
	assert.True(t, ok)
}

func TestBatchProcessingError(t *testing.T) {
	f := newFixture(t)
	f.slot.Set("/uploads/dir/cv.pptx")
	f.batcher.processErr = batch.ErrNoDocuments

	got := f.route(t, "batch process everything")
	assert.True(t, strings.HasPrefix(got, "Error in batch processing:"), got)
}

func TestTableAnalysisFlow(t *testing.T) {
	f := newFixture(t)
	f.slot.Set("/store/tables.pdf")
	f.extractor.tables = []document.Table{{Header: []string{"Skill", "Level"}, Rows: [][]string{{"SQL", "must"}}}}
	f.completer.replies = []string{"must: SQL"}

	got := f.route(t, "run a table analysis")
	assert.Equal(t, "must: SQL", got)
	require.Len(t, f.completer.prompts, 1)
	assert.Contains(t, f.completer.prompts[0], "Table 1:\nSkill | Level")

	// Table analysis leaves the slot alone.
	_, ok := f.slot.Peek()
	assert.True(t, ok)
}

func TestTableAnalysisNoTables(t *testing.T) {
	f := newFixture(t)
	f.slot.Set("/store/empty.pdf")

	got := f.route(t, "analyze table data")
	assert.Equal(t, NoTablesFound, got)
	assert.Empty(t, f.completer.prompts)
}

func TestTableAnalysisGuidance(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, GuidanceUploadPDF, f.route(t, "table analysis please"))
}
