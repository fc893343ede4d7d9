package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
)

func TestTitleContains(t *testing.T) {
	skip := TitleContains("live", " ", "AMA")

	tests := []struct {
		title string
		want  bool
	}{
		{"LIVE trading session", true},
		{"Deliverable spreads", true},
		{"Weekly ama", true},
		{"Iron condor basics", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, skip(domain.SourceMetadata{Title: tt.title}))
		})
	}
}

func TestTitleContains_NoWords(t *testing.T) {
	assert.False(t, TitleContains()(domain.SourceMetadata{Title: "live"}))
	assert.False(t, TitleContains("", "  ")(domain.SourceMetadata{Title: "live"}))
}

func TestPublishedBefore(t *testing.T) {
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	skip := PublishedBefore(cutoff)

	assert.True(t, skip(domain.SourceMetadata{PublishedAt: cutoff.Add(-time.Hour)}))
	assert.False(t, skip(domain.SourceMetadata{PublishedAt: cutoff}))
	assert.False(t, skip(domain.SourceMetadata{PublishedAt: cutoff.Add(time.Hour)}))
	assert.False(t, skip(domain.SourceMetadata{}))
}

func TestAnyOf(t *testing.T) {
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	skip := AnyOf(nil, TitleContains("live"), PublishedBefore(cutoff))

	assert.True(t, skip(domain.SourceMetadata{Title: "Live"}))
	assert.True(t, skip(domain.SourceMetadata{Title: "Old", PublishedAt: cutoff.AddDate(-1, 0, 0)}))
	assert.False(t, skip(domain.SourceMetadata{Title: "New", PublishedAt: cutoff.AddDate(1, 0, 0)}))
	assert.False(t, AnyOf()(domain.SourceMetadata{Title: "live"}))
}

func TestIngestFilter(t *testing.T) {
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	old := domain.SourceMetadata{Title: "Old", PublishedAt: cutoff.AddDate(0, -1, 0)}

	skip := IngestFilter(domain.IngestSettings{SkipTitleWords: []string{"live"}})
	assert.True(t, skip(domain.SourceMetadata{Title: "Live Q&A"}))
	assert.False(t, skip(old))

	skip = IngestFilter(domain.IngestSettings{SkipTitleWords: []string{"live"}, PublishedAfter: cutoff})
	assert.True(t, skip(old))
	assert.False(t, skip(domain.SourceMetadata{Title: "Undated"}))
}
