package filesystem

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
)

// defaultSettle is how long a file must go without writes before it is read.
const defaultSettle = 500 * time.Millisecond

// WithSettle sets how long a file must be quiet before Watch reads it.
func WithSettle(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.settle = d
		}
	}
}

// Watch reports transcripts created or rewritten in the directory until ctx
// is cancelled. Each file is read once it has stopped changing and is
// enriched from the catalog when one is set. The channel is closed when
// watching stops.
func (s *Source) Watch(ctx context.Context) (<-chan domain.Source, error) {
	if s.dir == "" {
		return nil, fmt.Errorf("%w: watch needs a directory", domain.ErrInvalidInput)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", s.dir, err)
	}

	out := make(chan domain.Source)
	go s.watchLoop(ctx, watcher, out)
	return out, nil
}

func (s *Source) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, out chan<- domain.Source) {
	defer close(out)
	defer watcher.Close()

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(s.settle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if path, ok := s.handleFsEvent(event); ok {
				pending[path] = time.Now()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watch %s: %v", s.dir, err)

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < s.settle {
					continue
				}
				delete(pending, path)

				src, err := Read(path)
				if err != nil {
					logger.Warn("skipping %s: %v", path, err)
					continue
				}
				if meta, ok := s.lookup(ctx, []string{path})[src.ID]; ok {
					src.Metadata = merge(src.Metadata, meta)
				}
				select {
				case out <- src:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// handleFsEvent returns the path of a transcript that was created or
// written. Removals, renames and other files are ignored.
func (s *Source) handleFsEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if !isTranscript(filepath.Base(event.Name)) {
		return "", false
	}
	logger.Debug("transcript changed: %s", event.Name)
	return event.Name, true
}
