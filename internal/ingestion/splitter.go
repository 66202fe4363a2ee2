package ingestion

import (
	"strings"
	"unicode/utf8"
)

// defaultSeparators is the separator hierarchy tried in order: paragraph
// breaks first, then line breaks, then words, then raw characters.
var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// Splitter splits text into overlapping chunks, preferring to break at
// paragraph and line boundaries and only falling back to word or character
// boundaries when a piece is still too large.
type Splitter struct {
	// chunkSize is the maximum number of bytes per chunk.
	chunkSize int

	// chunkOverlap is the number of bytes carried over between consecutive chunks.
	chunkOverlap int
}

// NewSplitter constructs a Splitter. Non-positive size defaults to 1000 and
// negative overlap to 0; an overlap at or above the size is clamped to a
// tenth of the size so progress is always made.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 10
	}
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Split breaks text into chunks of at most chunkSize bytes. Whitespace-only
// chunks are dropped; empty input yields nil.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, defaultSeparators)
}

// split recursively splits text using the first separator that appears in it,
// merging the resulting pieces back into chunks and recursing with the
// remaining separators for any piece that is still too large.
func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var remaining []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			remaining = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = hardSplit(text, s.chunkSize)
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks []string
	var fitting []string
	for _, piece := range pieces {
		if len(piece) < s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		// Flush the accumulated small pieces before handling the oversized one.
		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting, sep)...)
			fitting = nil
		}
		if len(remaining) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, remaining)...)
		}
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting, sep)...)
	}

	return chunks
}

// merge joins consecutive pieces (with sep between them) into chunks no
// larger than chunkSize, sliding a window so that about chunkOverlap bytes
// repeat between consecutive chunks.
func (s *Splitter) merge(pieces []string, sep string) []string {
	var chunks []string
	var window []string
	total := 0

	flush := func() {
		joined := strings.TrimSpace(strings.Join(window, sep))
		if joined != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, piece := range pieces {
		projected := total + len(piece)
		if len(window) > 0 {
			projected += len(sep)
		}
		if projected > s.chunkSize && len(window) > 0 {
			flush()
			// Drop leading pieces until the retained tail fits the overlap
			// budget and leaves room for the incoming piece.
			for total > s.chunkOverlap ||
				(total+len(piece)+len(window)*len(sep) > s.chunkSize && total > 0) {
				total -= len(window[0])
				if len(window) > 1 {
					total -= len(sep)
				}
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += len(piece)
		if len(window) > 1 {
			total += len(sep)
		}
	}
	flush()

	return chunks
}

// hardSplit cuts text into windows of at most size bytes, stepping back at
// most to the previous rune boundary so multi-byte characters stay intact.
func hardSplit(text string, size int) []string {
	var out []string
	for len(text) > size {
		cut := size
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		if cut == 0 {
			cut = size
		}
		out = append(out, text[:cut])
		text = text[cut:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
