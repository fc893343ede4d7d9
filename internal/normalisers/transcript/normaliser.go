// Package transcript cleans raw video transcripts before chunking.
package transcript

import (
	"regexp"
	"strings"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	// "12.34 - text", "7.00 – text", "0.00 | text" at the start of a line.
	// The fraction is required so "200-day" and "3 - 1" stay content.
	timestampPrefix = regexp.MustCompile(`(?m)^[ \t]*\d+\.\d+[ \t]*[-–:|][ \t]*`)

	// "[01:02:03]" or "[02:03]" anywhere in the text.
	bracketStamp = regexp.MustCompile(`\[(?:\d{1,2}:)?\d{1,2}:\d{2}(?:\.\d+)?\]`)

	whitespace = regexp.MustCompile(`\s+`)
)

// Normaliser strips timestamps and collapses whitespace.
type Normaliser struct {
	bracketStamps bool
}

// Option configures the normaliser.
type Option func(*Normaliser)

// WithBracketStamps also removes bracketed clock stamps such as "[00:01:02]".
func WithBracketStamps() Option {
	return func(n *Normaliser) {
		n.bracketStamps = true
	}
}

// New creates a new transcript normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Name returns the normaliser name.
func (n *Normaliser) Name() string {
	return "transcript"
}

// Normalise removes leading timestamp prefixes from every line, collapses
// all whitespace runs (newlines included) to a single space and trims the
// result. It never fails; empty input yields an empty string.
func (n *Normaliser) Normalise(text string) string {
	if text == "" {
		return ""
	}
	text = timestampPrefix.ReplaceAllString(text, "")
	if n.bracketStamps {
		text = bracketStamp.ReplaceAllString(text, " ")
	}
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Clean is Normalise with default options.
func Clean(text string) string {
	return New().Normalise(text)
}
