// Package chunker splits raw document text into bounded-size passages on
// paragraph boundaries. Paragraph atomicity takes priority over the size
// bound: a single paragraph longer than the limit becomes its own oversized
// passage rather than being split mid-paragraph.
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxChunkSize is deliberately small: the corpus is dominated by
	// Cyrillic regulatory text, and multi-byte alphabets tokenize expensively
	// on the embedding side.
	DefaultMaxChunkSize = 100

	// DefaultMinChunkLength drops noise fragments such as page headers and
	// footers.
	DefaultMinChunkLength = 50
)

// Chunker accumulates paragraphs greedily into passages of at most
// maxChunkSize characters and discards passages shorter than minChunkLength.
// Sizes are counted in runes, not bytes.
type Chunker struct {
	maxChunkSize   int
	minChunkLength int
}

// New creates a Chunker. Non-positive arguments fall back to the defaults.
func New(maxChunkSize, minChunkLength int) *Chunker {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}
	if minChunkLength <= 0 {
		minChunkLength = DefaultMinChunkLength
	}
	return &Chunker{
		maxChunkSize:   maxChunkSize,
		minChunkLength: minChunkLength,
	}
}

// MaxChunkSize returns the configured passage size bound.
func (c *Chunker) MaxChunkSize() int { return c.maxChunkSize }

// MinChunkLength returns the configured minimum passage length.
func (c *Chunker) MinChunkLength() int { return c.minChunkLength }

// Chunk splits text into passages. Paragraphs (blank-line separated) are
// appended to the current passage until the next one would push it past the
// size bound; the passage is then closed and the paragraph starts a new one.
// Passages whose trimmed length falls below the minimum are dropped.
func (c *Chunker) Chunk(text string) []string {
	var passages []string
	var current string

	for _, paragraph := range strings.Split(text, "\n\n") {
		if utf8.RuneCountInString(current)+utf8.RuneCountInString(paragraph) > c.maxChunkSize && current != "" {
			passages = append(passages, strings.TrimSpace(current))
			current = paragraph
		} else {
			if current != "" {
				current += "\n\n"
			}
			current += paragraph
		}
	}

	if current != "" {
		passages = append(passages, strings.TrimSpace(current))
	}

	filtered := passages[:0]
	for _, p := range passages {
		if utf8.RuneCountInString(p) > c.minChunkLength {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
