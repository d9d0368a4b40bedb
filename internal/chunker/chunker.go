// Package chunker splits raw document text into overlapping fixed-size
// chunks for embedding and indexing.
package chunker

import (
	"fmt"
	"strings"
)

// Defaults match the upstream document pipeline: 1000-character chunks with
// 200 characters of overlap between neighbors.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Splitter produces overlapping character chunks. Splitting is rune-based so
// multi-byte text never breaks mid-character.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New creates a splitter. Zero values select the defaults; overlap must be
// smaller than the chunk size.
func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("overlap %d must be smaller than chunk size %d", overlap, chunkSize)
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split cuts text into chunks of at most chunkSize runes, each sharing
// overlap runes with its predecessor. Whitespace-only input yields nil.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= s.chunkSize {
		return []string{text}
	}

	step := s.chunkSize - s.overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := string(runes[start:end])
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
