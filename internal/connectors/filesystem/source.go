// Package filesystem reads transcript files from a local directory.
//
// Files are named "<videoID>_<title>.txt", the layout written by the
// transcript download step. The id becomes the source id and the rest of
// the name a fallback title.
package filesystem

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.TranscriptSource = (*Source)(nil)

// TranscriptExt is the extension of transcript files.
const TranscriptExt = ".txt"

// youtubeIDLen is the length of a YouTube video id.
const youtubeIDLen = 11

// Source yields transcripts from a directory or an explicit file list.
type Source struct {
	dir     string
	paths   []string
	catalog driven.VideoCatalog
	settle  time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WithCatalog enriches file metadata with titles and publish dates from
// the video catalog. Lookup failures fall back to file metadata.
func WithCatalog(c driven.VideoCatalog) Option {
	return func(s *Source) {
		s.catalog = c
	}
}

// New creates a source over every transcript file in dir.
func New(dir string, opts ...Option) *Source {
	s := &Source{dir: dir, settle: defaultSettle}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFiles creates a source over the given files, in order.
func NewFiles(paths []string, opts ...Option) *Source {
	s := New("", opts...)
	s.paths = slices.Clone(paths)
	return s
}

// Name returns the directory, or "files" for an explicit list.
func (s *Source) Name() string {
	if s.paths != nil {
		return "files"
	}
	return s.dir
}

// Dir returns the watched directory.
func (s *Source) Dir() string {
	return s.dir
}

// Files returns the transcript paths, sorted. Hidden files are skipped.
func (s *Source) Files() ([]string, error) {
	if s.paths != nil {
		return slices.Clone(s.paths), nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read transcripts dir: %w", domain.ErrStorage, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !isTranscript(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(s.dir, e.Name()))
	}
	slices.Sort(files)
	return files, nil
}

// Sources yields every transcript. Catalog metadata is fetched once for
// all files before the first yield.
func (s *Source) Sources(ctx context.Context) iter.Seq2[domain.Source, error] {
	return func(yield func(domain.Source, error) bool) {
		files, err := s.Files()
		if err != nil {
			yield(domain.Source{}, err)
			return
		}

		enriched := s.lookup(ctx, files)

		for _, path := range files {
			if err := ctx.Err(); err != nil {
				yield(domain.Source{}, err)
				return
			}
			src, err := Read(path)
			if err != nil {
				yield(domain.Source{}, err)
				return
			}
			if meta, ok := enriched[src.ID]; ok {
				src.Metadata = merge(src.Metadata, meta)
			}
			if !yield(src, nil) {
				return
			}
		}
	}
}

// lookup asks the catalog for metadata of every file id.
func (s *Source) lookup(ctx context.Context, files []string) map[string]domain.SourceMetadata {
	if s.catalog == nil || len(files) == 0 {
		return nil
	}
	ids := make([]string, 0, len(files))
	for _, f := range files {
		id, _ := ParseFileName(filepath.Base(f))
		ids = append(ids, id)
	}
	meta, err := s.catalog.Videos(ctx, ids)
	if err != nil {
		logger.Warn("video metadata lookup failed, using file names: %v", err)
		return nil
	}
	return meta
}

// Read loads one transcript file.
func Read(path string) (domain.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Source{}, fmt.Errorf("%w: read %s: %w", domain.ErrStorage, path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return domain.Source{}, fmt.Errorf("%w: stat %s: %w", domain.ErrStorage, path, err)
	}

	id, title := ParseFileName(filepath.Base(path))
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return domain.Source{
		ID:   id,
		Text: string(data),
		Metadata: domain.SourceMetadata{
			Title:       title,
			PublishedAt: info.ModTime().UTC(),
			URI:         "file://" + abs,
		},
	}, nil
}

// ParseFileName splits "<videoID>_<title>.txt" into id and title.
// Underscores in the title become spaces. YouTube ids may themselves
// contain underscores, so an 11-character id prefix is preferred.
func ParseFileName(name string) (id, title string) {
	base := strings.TrimSuffix(name, filepath.Ext(name))

	switch {
	case len(base) > youtubeIDLen && base[youtubeIDLen] == '_' && isVideoID(base[:youtubeIDLen]):
		id, title = base[:youtubeIDLen], base[youtubeIDLen+1:]
	case strings.Contains(base, "_"):
		id, title, _ = strings.Cut(base, "_")
	default:
		return base, ""
	}

	title = strings.Join(strings.Fields(strings.ReplaceAll(title, "_", " ")), " ")
	return id, title
}

// FileName builds the transcript file name for a video, keeping letters,
// digits, spaces and "-_()" from the title and at most 50 characters.
func FileName(id, title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', strings.ContainsRune(" -_()", r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	safe := b.String()
	if len(safe) > 50 {
		safe = safe[:50]
	}
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return id + TranscriptExt
	}
	return id + "_" + safe + TranscriptExt
}

func isVideoID(s string) bool {
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func isTranscript(name string) bool {
	return !strings.HasPrefix(name, ".") && strings.EqualFold(filepath.Ext(name), TranscriptExt)
}

// merge prefers catalog values and keeps file values where the catalog is empty.
func merge(file, catalog domain.SourceMetadata) domain.SourceMetadata {
	out := file
	if catalog.Title != "" {
		out.Title = catalog.Title
	}
	if !catalog.PublishedAt.IsZero() {
		out.PublishedAt = catalog.PublishedAt
	}
	if catalog.Description != "" {
		out.Description = catalog.Description
	}
	if catalog.URI != "" {
		out.Extra = map[string]string{"transcript_file": file.URI}
		for k, v := range catalog.Extra {
			out.Extra[k] = v
		}
		out.URI = catalog.URI
	}
	return out
}
