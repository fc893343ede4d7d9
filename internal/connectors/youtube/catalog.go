// Package youtube looks up channel videos and video metadata through the
// YouTube Data API v3. It authenticates with an API key.
package youtube

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/s7ventures/trading-nlp-pipeline/internal/adapters/driven/resilient"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/domain"
	"github.com/s7ventures/trading-nlp-pipeline/internal/core/ports/driven"
	"github.com/s7ventures/trading-nlp-pipeline/internal/logger"
)

// Ensure Catalog implements the interface.
var _ driven.VideoCatalog = (*Catalog)(nil)

// pageSize is the largest page the API returns.
const pageSize = 50

// rateLimitBackoff is applied after a 429 when no Retry-After header is sent.
const rateLimitBackoff = 5 * time.Second

// WatchURL returns the public URL of a video.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// Catalog implements driven.VideoCatalog.
type Catalog struct {
	service *yt.Service
	limiter *RateLimiter
	policy  resilient.Policy
}

type config struct {
	endpoint   string
	httpClient *http.Client
	rateLimit  RateLimitConfig
	policy     resilient.Policy
}

// Option configures a Catalog.
type Option func(*config)

// WithEndpoint points the client at a different API root.
func WithEndpoint(url string) Option {
	return func(c *config) { c.endpoint = url }
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) { c.httpClient = client }
}

// WithRateLimit overrides DefaultRateLimit.
func WithRateLimit(cfg RateLimitConfig) Option {
	return func(c *config) { c.rateLimit = cfg }
}

// WithRetryPolicy overrides the retry schedule for transient failures.
func WithRetryPolicy(p resilient.Policy) Option {
	return func(c *config) { c.policy = p }
}

// New creates a catalog authenticated with apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Catalog, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.NewConfigurationError("youtube.api_key", "not set")
	}

	cfg := config{rateLimit: DefaultRateLimit, policy: resilient.DefaultPolicy()}
	for _, opt := range opts {
		opt(&cfg)
	}

	clientOpts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if cfg.endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.endpoint))
	}
	if cfg.httpClient != nil {
		clientOpts = append(clientOpts, option.WithHTTPClient(cfg.httpClient))
	}

	service, err := yt.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &Catalog{
		service: service,
		limiter: NewRateLimiter(cfg.rateLimit),
		policy:  cfg.policy,
	}, nil
}

// ChannelVideos lists up to max videos of a channel, newest first.
// Sources carry metadata only; Text is empty.
func (c *Catalog) ChannelVideos(ctx context.Context, channelID string, max int) ([]domain.Source, error) {
	if strings.TrimSpace(channelID) == "" {
		return nil, fmt.Errorf("%w: channel id is required", domain.ErrInvalidInput)
	}
	if max <= 0 {
		return nil, nil
	}

	var (
		videos    []domain.Source
		pageToken string
	)
	for len(videos) < max {
		call := c.service.Search.List([]string{"snippet"}).
			ChannelId(channelID).
			Order("date").
			Type("video").
			MaxResults(int64(min(pageSize, max-len(videos))))
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := request(ctx, c, "search", func(ctx context.Context) (*yt.SearchListResponse, error) {
			return call.Context(ctx).Do()
		})
		if err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
				continue
			}
			videos = append(videos, domain.Source{
				ID: item.Id.VideoId,
				Metadata: metadata(item.Id.VideoId, item.Snippet.Title,
					item.Snippet.Description, item.Snippet.PublishedAt),
			})
			if len(videos) == max {
				break
			}
		}

		logger.Debug("youtube: %d videos listed for %s", len(videos), channelID)
		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	return videos, nil
}

// Videos returns metadata for the given ids. Ids the API does not know
// are absent from the result.
func (c *Catalog) Videos(ctx context.Context, ids []string) (map[string]domain.SourceMetadata, error) {
	out := make(map[string]domain.SourceMetadata, len(ids))

	for start := 0; start < len(ids); start += pageSize {
		batch := ids[start:min(start+pageSize, len(ids))]
		call := c.service.Videos.List([]string{"snippet"}).Id(batch...).MaxResults(pageSize)

		resp, err := request(ctx, c, "videos", func(ctx context.Context) (*yt.VideoListResponse, error) {
			return call.Context(ctx).Do()
		})
		if err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			if item.Snippet == nil {
				continue
			}
			out[item.Id] = metadata(item.Id, item.Snippet.Title, item.Snippet.Description, item.Snippet.PublishedAt)
		}
	}

	return out, nil
}

// request runs one API request through the rate limiter and retry policy.
func request[T any](ctx context.Context, c *Catalog, op string, do func(context.Context) (T, error)) (T, error) {
	return resilient.Do(ctx, c.policy, "youtube "+op, func(ctx context.Context) (T, error) {
		var zero T
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, err
		}
		res, err := do(ctx)
		if err != nil {
			if IsRateLimited(err) {
				c.limiter.Backoff(retryAfter(err))
			}
			return zero, WrapError(op, err)
		}
		return res, nil
	})
}

func metadata(id, title, description, publishedAt string) domain.SourceMetadata {
	meta := domain.SourceMetadata{
		Title:       title,
		Description: description,
		URI:         WatchURL(id),
	}
	if t, err := time.Parse(time.RFC3339, publishedAt); err == nil {
		meta.PublishedAt = t.UTC()
	}
	return meta
}
