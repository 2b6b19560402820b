package clipping

import (
	"strconv"
	"strings"
)

// parseResponse extracts clipping items from a raw model reply, one line
// at a time. A line qualifies as an item only when it carries the page
// marker and at least two pipe-delimited segments after it. Anything else
// is silently skipped: the format is deliberately lenient and relies on
// the model honoring the template, not on schema validation.
func parseResponse(response string) []Item {
	var items []Item

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "---") {
			continue
		}
		if !strings.Contains(line, "|") || !strings.Contains(line, "Página") {
			continue
		}

		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}

		page := digitsToInt(parts[0])
		subject := strings.TrimSpace(parts[1])
		summary := strings.TrimSpace(strings.Join(parts[2:], "|"))
		summary = truncateSummary(summary)

		items = append(items, Item{Page: page, Subject: subject, Summary: summary})
	}

	return items
}

// truncateSummary enforces the character budget: anything longer than 150
// characters becomes exactly 150, ellipsis included.
func truncateSummary(s string) string {
	runes := []rune(s)
	if len(runes) <= maxSummaryChars {
		return s
	}
	return string(runes[:maxSummaryChars-3]) + "..."
}

// digitsToInt collects every digit character in s; no digits yields zero.
func digitsToInt(s string) int {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return n
}
