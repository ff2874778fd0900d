// Package chunker splits raw document text into overlapping passages
// suitable for embedding.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultChunkSize is the default target passage size in bytes.
const DefaultChunkSize = 1200

// DefaultChunkOverlap is the default overlap between consecutive passages.
const DefaultChunkOverlap = 150

// Splitter splits text into fixed-size passages with overlap, preferring
// paragraph and sentence boundaries over hard cuts. Splitting is a pure
// function of the input text: the same text always yields the same
// passage sequence.
type Splitter struct {
	size    int
	overlap int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the target passage size in bytes.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.size = size
		}
	}
}

// WithOverlap sets the overlap between passages in bytes.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a new splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't swallow forward progress
	if s.overlap >= s.size {
		s.overlap = s.size / 4
	}

	return s
}

// Split returns the ordered passage texts for the given document text.
// Whitespace-only input yields no passages.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	n := len(text)
	passages := make([]string, 0, n/(s.size-s.overlap)+1)

	start := 0
	for start < n {
		end := start + s.size
		if end >= n {
			passages = append(passages, text[start:])
			break
		}

		cut := s.cutPoint(text, start, end)
		passages = append(passages, text[start:cut])

		next := cut - s.overlap
		for next > start && !utf8.RuneStart(text[next]) {
			next--
		}
		if next <= start {
			next = cut
		}
		start = next
	}

	return passages
}

// cutPoint picks where to end the passage starting at start. It prefers
// the last paragraph break in the second half of the window, then the
// last sentence end, and falls back to a hard cut at a rune boundary.
func (s *Splitter) cutPoint(text string, start, end int) int {
	lo := start + s.size/2

	if idx := strings.LastIndex(text[lo:end], "\n\n"); idx >= 0 {
		return lo + idx + 2
	}

	for i := end - 1; i >= lo; i-- {
		switch text[i] {
		case '.', '!', '?', '\n':
			return i + 1
		}
	}

	// Hard cut: back off to a rune boundary so no character is split
	for end > lo && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}
