package clipping

import "github.com/lfpaiva/jornal-agent/internal/extract"

// maxChunkChars bounds the page text packed into one model request, to
// stay inside the provider's context window.
const maxChunkChars = 30000

// chunkPages groups pages into character-budgeted batches, preserving page
// order. A single oversized page still gets its own chunk rather than
// being split.
func chunkPages(pages []extract.Page, maxChars int) [][]extract.Page {
	var chunks [][]extract.Page
	var current []extract.Page
	size := 0

	for _, page := range pages {
		pageSize := len(page.Text)
		if size+pageSize > maxChars && len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
			size = 0
		}
		current = append(current, page)
		size += pageSize
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
