package services

import (
	"strings"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

// SkipPredicate reports whether a source should be left out of ingestion.
// It sees only metadata, so it can run before any transcript is read.
type SkipPredicate func(domain.SourceMetadata) bool

// TitleContains matches titles containing any of the words, ignoring case.
// Blank words are ignored; with no words it never matches.
func TitleContains(words ...string) SkipPredicate {
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			lowered = append(lowered, w)
		}
	}
	return func(meta domain.SourceMetadata) bool {
		title := strings.ToLower(meta.Title)
		for _, w := range lowered {
			if strings.Contains(title, w) {
				return true
			}
		}
		return false
	}
}

// IngestFilter builds the skip predicate configured by settings.
func IngestFilter(s domain.IngestSettings) SkipPredicate {
	preds := []SkipPredicate{TitleContains(s.SkipTitleWords...)}
	if !s.PublishedAfter.IsZero() {
		preds = append(preds, PublishedBefore(s.PublishedAfter))
	}
	return AnyOf(preds...)
}

// PublishedBefore matches sources published before t.
// Sources with an unknown publish date are kept.
func PublishedBefore(t time.Time) SkipPredicate {
	return func(meta domain.SourceMetadata) bool {
		return !meta.PublishedAt.IsZero() && meta.PublishedAt.Before(t)
	}
}

// AnyOf matches when any of the predicates match. Nil predicates are ignored.
func AnyOf(preds ...SkipPredicate) SkipPredicate {
	return func(meta domain.SourceMetadata) bool {
		for _, p := range preds {
			if p != nil && p(meta) {
				return true
			}
		}
		return false
	}
}
