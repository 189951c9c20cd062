package extract

import (
	"strings"
)

// DefaultChunkChars is the per-chunk character budget for external
// service calls, leaving headroom for the system prompt and response.
const DefaultChunkChars = 6000

// chunkOverlap carries a little trailing context into the next chunk so
// a task split across a boundary is still visible to one of them.
const chunkOverlap = 200

// ChunkText splits text into chunks of at most maxChars characters,
// preferring paragraph boundaries so a thought is not cut mid-sentence.
func ChunkText(text string, maxChars int) []string {
	if text == "" {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	pos := 0
	for pos < len(text) {
		end := pos + maxChars
		if end > len(text) {
			end = len(text)
		}

		chunk := text[pos:end]

		// Prefer a paragraph break in the last third of the chunk.
		if end < len(text) {
			searchStart := len(chunk) * 2 / 3
			if idx := strings.LastIndex(chunk[searchStart:], "\n\n"); idx != -1 {
				actualIdx := searchStart + idx
				chunk = chunk[:actualIdx]
				end = pos + actualIdx
			}
		}

		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(text) {
			break
		}
		// The overlap must never stall the scan when the budget is tiny.
		next := end - chunkOverlap
		if next <= pos {
			next = end
		}
		pos = next
	}

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}
