package chunker

import (
	"iter"
	"strings"
	"unicode/utf8"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// Span is the byte range [Start, End) of a chunk within its text.
type Span struct {
	Start int
	End   int
}

// separators in order of preference. A chunk ends just after the separator.
var separators = []string{"\n\n", ". ", "! ", "? ", "\n", " "}

// Validate checks the chunking parameters.
func Validate(maxSize, overlap int) error {
	return domain.ChunkingSettings{Size: maxSize, Overlap: overlap}.Validate()
}

// Spans returns the chunk boundaries of text. Consecutive spans share
// exactly overlap bytes unless that would split a multi-byte rune, in which
// case the overlap grows to the previous rune boundary.
//
// The sequence is lazy and may be ranged over any number of times; each
// iteration starts again from the beginning of text. Empty text yields nothing.
func Spans(text string, maxSize, overlap int) (iter.Seq2[int, Span], error) {
	if err := Validate(maxSize, overlap); err != nil {
		return nil, err
	}
	return func(yield func(int, Span) bool) {
		if text == "" {
			return
		}
		start := 0
		for i := 0; ; i++ {
			end := nextEnd(text, start, maxSize, overlap)
			if !yield(i, Span{Start: start, End: end}) || end == len(text) {
				return
			}
			start = nextStart(text, start, end, overlap)
		}
	}, nil
}

// Split returns the chunks of text as strings; see Spans.
func Split(text string, maxSize, overlap int) (iter.Seq2[int, string], error) {
	spans, err := Spans(text, maxSize, overlap)
	if err != nil {
		return nil, err
	}
	return func(yield func(int, string) bool) {
		for i, s := range spans {
			if !yield(i, text[s.Start:s.End]) {
				return
			}
		}
	}, nil
}

// Chunks collects Split into a slice.
func Chunks(text string, maxSize, overlap int) ([]string, error) {
	seq, err := Split(text, maxSize, overlap)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range seq {
		out = append(out, c)
	}
	return out, nil
}

// nextEnd picks where the chunk starting at start ends. It prefers the
// latest separator in the last quarter of the window and falls back to a
// hard cut at maxSize.
func nextEnd(text string, start, maxSize, overlap int) int {
	limit := start + maxSize
	if limit >= len(text) {
		return len(text)
	}

	for limit > start && !utf8.RuneStart(text[limit]) {
		limit--
	}
	if limit <= start+overlap {
		// Window too small to hold a rune beyond the overlap.
		limit = start + maxSize
		for limit < len(text) && !utf8.RuneStart(text[limit]) {
			limit++
		}
		return limit
	}

	floor := max(limit-maxSize/4, start+overlap+1)
	if floor >= limit {
		return limit
	}
	window := text[floor:limit]
	for _, sep := range separators {
		if i := strings.LastIndex(window, sep); i >= 0 {
			return floor + i + len(sep)
		}
	}
	return limit
}

// nextStart steps back overlap bytes from end, staying on a rune boundary.
func nextStart(text string, start, end, overlap int) int {
	s := end - overlap
	for s > start && !utf8.RuneStart(text[s]) {
		s--
	}
	if s <= start {
		s = end - overlap
		for s < end && !utf8.RuneStart(text[s]) {
			s++
		}
	}
	return s
}
