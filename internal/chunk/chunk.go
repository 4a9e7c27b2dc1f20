// Package chunk splits documents into pieces small enough to embed.
// The strategy is pluggable: Window is the default, Paragraphs reproduces
// the legacy blank-line split for callers that pre-structured their text.
package chunk

import (
	"strings"
	"unicode"
)

// Chunker splits a document into orderly chunks. Whitespace-only input
// yields no chunks.
type Chunker interface {
	Split(text string) []string
}

// Paragraphs splits on blank lines. MaxChunks caps the output when
// positive; zero means unlimited.
type Paragraphs struct {
	MaxChunks int
}

// Split implements Chunker.
func (p Paragraphs) Split(text string) []string {
	var chunks []string
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, part)
		if p.MaxChunks > 0 && len(chunks) == p.MaxChunks {
			break
		}
	}
	return chunks
}

// Window emits chunks of at most Size runes with Overlap runes carried over
// between consecutive chunks. Cuts prefer word boundaries: a chunk is
// trimmed back to the last space inside it unless that would drop more than
// half the window (unbroken runs of text are cut mid-word instead of
// producing empty chunks). Overlap must be at most half of Size so the next
// chunk always starts after the previous one; larger values are clamped.
type Window struct {
	Size    int
	Overlap int
}

// Split implements Chunker.
func (w Window) Split(text string) []string {
	size := w.Size
	if size <= 0 {
		size = 1200
	}
	overlap := w.Overlap
	if overlap < 0 {
		overlap = 0
	}
	// A boundary cut keeps at least half the window, so any overlap beyond
	// that could move the next start at or before the previous one.
	if overlap > size/2 {
		overlap = size / 2
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutAtSpace(runes, start, end)
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, piece)
		}

		if end == len(runes) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}

// cutAtSpace moves end back to the last space in (start, end], keeping at
// least half the window.
func cutAtSpace(runes []rune, start, end int) int {
	min := start + (end-start)/2
	for i := end; i > min; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return end
}
