// Package clipping distills extracted pages into the daily clipping: pages
// are batched into context-sized chunks, each chunk is sent to an
// OpenAI-compatible model with a fixed instruction template, and the
// structured replies are parsed into typed items.
package clipping

import (
	"fmt"
	"sort"
	"strings"
)

// maxSummaryChars is the character budget for one item's summary; longer
// replies are truncated with an ellipsis.
const maxSummaryChars = 150

// Item is one distilled clipping entry.
type Item struct {
	Page    int    `json:"page"`
	Subject string `json:"subject"`
	Summary string `json:"summary"`
}

// Result is the complete clipping for one edition.
type Result struct {
	SummaryText string
	Items       []Item
	Chunks      int
	Model       string
}

// sortItems orders items by ascending page number. The sort is stable so
// the within-chunk reply order survives across chunk boundaries; duplicates
// are not merged.
func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Page < items[j].Page
	})
}

// formatSummary renders the final human-readable clipping text.
func formatSummary(items []Item) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, fmt.Sprintf("Página %d | %s | %s", it.Page, it.Subject, it.Summary))
	}
	return strings.Join(lines, "\n\n")
}
