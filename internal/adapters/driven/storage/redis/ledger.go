// Package redis provides a dedup ledger backed by Redis for deployments that
// run more than one ingestion process. Sources are claimed with SET NX so two
// runs never embed the same source at once.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
)

// DefaultClaimTTL bounds how long a crashed run can hold a source.
const DefaultClaimTTL = 15 * time.Minute

// Ensure Ledger implements the interfaces.
var (
	_ driven.DedupLedger   = (*Ledger)(nil)
	_ driven.SourceClaimer = (*Ledger)(nil)
)

// releaseScript deletes the claim only if this run still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Ledger stores entries in a hash at <prefix>:processed and claims at
// <prefix>:claim:<source id>.
type Ledger struct {
	rdb      *redis.Client
	prefix   string
	claimTTL time.Duration
}

// Option configures the ledger.
type Option func(*Ledger)

// WithPrefix sets the key prefix. Defaults to the collection name.
// An empty prefix is ignored.
func WithPrefix(prefix string) Option {
	return func(l *Ledger) {
		if prefix != "" {
			l.prefix = prefix
		}
	}
}

// WithClaimTTL sets how long a claim lasts without release.
func WithClaimTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		l.claimTTL = ttl
	}
}

// Open parses url, connects and verifies the connection with a PING.
func Open(ctx context.Context, url string, opts ...Option) (*Ledger, error) {
	if url == "" {
		return nil, domain.NewConfigurationError("ledger.redis_url", "required for the redis ledger backend")
	}
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, domain.NewConfigurationError("ledger.redis_url", err.Error())
	}
	rdb := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%w: redis ping failed: %w", domain.ErrStorage, err)
	}
	return New(rdb, opts...), nil
}

// New wraps an existing client.
func New(rdb *redis.Client, opts ...Option) *Ledger {
	l := &Ledger{
		rdb:      rdb,
		prefix:   domain.DefaultCollection,
		claimTTL: DefaultClaimTTL,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) processedKey() string {
	return l.prefix + ":processed"
}

func (l *Ledger) claimKey(sourceID string) string {
	return l.prefix + ":claim:" + sourceID
}

// IsProcessed checks the processed hash.
func (l *Ledger) IsProcessed(ctx context.Context, sourceID string) (bool, error) {
	ok, err := l.rdb.HExists(ctx, l.processedKey(), sourceID).Result()
	if err != nil {
		return false, fmt.Errorf("%w: read ledger: %w", domain.ErrStorage, err)
	}
	return ok, nil
}

// MarkProcessed writes the entry to the processed hash.
func (l *Ledger) MarkProcessed(ctx context.Context, entry domain.LedgerEntry) error {
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal ledger entry: %w", err)
	}
	if err := l.rdb.HSet(ctx, l.processedKey(), entry.SourceID, data).Err(); err != nil {
		return fmt.Errorf("%w: mark %s processed: %w", domain.ErrStorage, entry.SourceID, err)
	}
	return nil
}

// Forget removes the entry.
func (l *Ledger) Forget(ctx context.Context, sourceID string) error {
	n, err := l.rdb.HDel(ctx, l.processedKey(), sourceID).Result()
	if err != nil {
		return fmt.Errorf("%w: forget %s: %w", domain.ErrStorage, sourceID, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List returns all entries ordered by source id.
func (l *Ledger) List(ctx context.Context) ([]domain.LedgerEntry, error) {
	all, err := l.rdb.HGetAll(ctx, l.processedKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list ledger: %w", domain.ErrStorage, err)
	}
	entries := make([]domain.LedgerEntry, 0, len(all))
	for id, raw := range all {
		var e domain.LedgerEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("%w: decode entry %s: %w", domain.ErrStorage, id, err)
		}
		e.SourceID = id
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SourceID < entries[j].SourceID })
	return entries, nil
}

// Claim takes an exclusive, expiring hold on the source.
func (l *Ledger) Claim(ctx context.Context, sourceID string) (func(), error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.claimKey(sourceID), token, l.claimTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: claim %s: %w", domain.ErrStorage, sourceID, err)
	}
	if !ok {
		return nil, domain.ErrAlreadyClaimed
	}
	return func() {
		// Release on a fresh context so a cancelled run still frees the claim.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := releaseScript.Run(ctx, l.rdb, []string{l.claimKey(sourceID)}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			logger.Warn("redis: release claim on %s: %v", sourceID, err)
		}
	}, nil
}

// Close closes the client.
func (l *Ledger) Close() error {
	return l.rdb.Close()
}
