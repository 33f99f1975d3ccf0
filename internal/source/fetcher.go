// Package source retrieves the Lumes feed with conditional requests so a
// poll cycle only does work when the remote file actually changed.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/geraldbaeck/luftguete/internal/lumes"
)

var (
	ErrFetchRequest     = errors.New("error requesting source feed")
	ErrUnexpectedStatus = errors.New("unexpected status from source feed")
)

// Result is the outcome of one conditional fetch. When Modified is false
// the remote file still matches the last ingested ETag and Body/ETag are
// empty.
type Result struct {
	Modified bool
	Body     string
	ETag     string
}

// Config carries the fetcher settings from the config file.
type Config struct {
	URL       string
	UserAgent string
	Timeout   time.Duration

	// MinInterval is a politeness floor between hits on the remote
	// server, independent of the cron cadence.
	MinInterval time.Duration
}

// Fetcher issues conditional GETs against the feed URL. A circuit breaker
// stops hammering the source while it is failing; the next closed-state
// cycle retries naturally.
type Fetcher struct {
	cfg     Config
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
	logger  *logrus.Logger
}

func NewFetcher(cfg Config, logger *logrus.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &Fetcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "lumes-feed",
			Timeout: 2 * cfg.Timeout,
		}),
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// Fetch performs one conditional GET. A non-empty etag is sent as
// If-None-Match; an empty etag always fetches. The body is decoded from
// ISO-8859-1 before it is returned.
func (f *Fetcher) Fetch(ctx context.Context, etag string) (*Result, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchRequest, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	res, err := f.breaker.Execute(func() (interface{}, error) {
		return f.fetchOnce(ctx, etag)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrFetchRequest)
		}
		return nil, err
	}
	return res.(*Result), nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, etag string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchRequest, err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchRequest, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetchRequest, err)
		}
		body, err := lumes.DecodeLatin1(raw)
		if err != nil {
			return nil, err
		}
		return &Result{
			Modified: true,
			Body:     body,
			ETag:     resp.Header.Get("ETag"),
		}, nil

	case http.StatusNotModified:
		f.logger.WithField("etag", etag).Debug("Feed unchanged, ETag still matches")
		return &Result{Modified: false}, nil

	default:
		return nil, fmt.Errorf("%w: got %d", ErrUnexpectedStatus, resp.StatusCode)
	}
}
