// Package prompts renders the task-specific prompt strings. Builders
// are pure: same input, byte-identical output, no I/O.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"
)

// Listing kinds understood by the listing template.
const (
	KindGeneric = "generic"
	KindSenior  = "highly experienced (senior)"
)

//go:embed listing.md
var listingTemplate string

//go:embed review.md
var reviewTemplate string

//go:embed correction.md
var correctionTemplate string

//go:embed table_analysis.md
var tableAnalysisTemplate string

// Listing requests a must/should requirements listing for the given
// kind of role.
func Listing(kind string) string {
	return fmt.Sprintf(strings.TrimSpace(listingTemplate), kind)
}

// Review requests an Accept/Deny verdict for a CV against a listing.
func Review(cvText, listing string) string {
	return fmt.Sprintf(strings.TrimSpace(reviewTemplate), cvText, listing)
}

// Correction requests corrected text only, unchanged when the input is
// already correct or empty.
func Correction(text string) string {
	return fmt.Sprintf(strings.TrimSpace(correctionTemplate), text)
}

// TableAnalysis joins pre-rendered tables under "Table N:" labels and
// requests the same must/should listing format as Listing.
func TableAnalysis(tables []string) string {
	labeled := make([]string, len(tables))
	for i, table := range tables {
		labeled[i] = fmt.Sprintf("Table %d:\n%s", i+1, table)
	}
	return fmt.Sprintf(strings.TrimSpace(tableAnalysisTemplate), strings.Join(labeled, "\n\n"))
}
