// Package badgeapi is the HTTP client for the third-party badge API.
//
// Contract:
//
//	GET {base}/v2/text/badges?user=<id>
//	200 → eligibility body
//	404 → user unknown; body decoded permissively (usually empty)
//	any other status or transport error → fetch failure
//
// The client throttles outbound calls with a token bucket, bounds each call
// with a timeout, caps response bodies at 1 MiB, and traces every fetch.
package badgeapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-profile-badges/internal/domain"
)

const (
	// DefaultBaseURL is the public badge API.
	DefaultBaseURL = "https://api.obamabot.me"
	// DefaultTimeout bounds a single fetch.
	DefaultTimeout = 10 * time.Second

	badgesPath   = "/v2/text/badges"
	maxBodyBytes = 1 << 20
	userAgent    = "go-profile-badges/1"
)

// Client fetches badge eligibility. It implements badges.Fetcher and is safe
// for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	tracer  trace.Tracer
	log     zerolog.Logger
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithRateLimit throttles outbound requests to rps with the given burst.
// rps <= 0 disables throttling.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient validates baseURL and returns a Client.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	c := &Client{
		baseURL: base,
		http:    &http.Client{Timeout: DefaultTimeout},
		tracer:  otel.Tracer("github.com/tbourn/go-profile-badges/internal/badgeapi"),
		log:     log.With().Str("component", "badgeapi").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchEligibility returns the user's record for 200 and 404 responses.
// Other statuses yield a *StatusError; transport failures are wrapped.
func (c *Client) FetchEligibility(ctx context.Context, userID string) (*domain.BadgeEligibility, error) {
	ctx, span := c.tracer.Start(ctx, "badgeapi.FetchEligibility",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("badge.user_id", userID)),
	)
	defer span.End()

	elig, status, err := c.do(ctx, userID)
	if status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	c.log.Debug().Str("user_id", userID).Int("status", status).Msg("badges fetched")
	return elig, nil
}

func (c *Client) do(ctx context.Context, userID string) (*domain.BadgeEligibility, int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("badgeapi: throttle: %w", err)
		}
	}

	endpoint := c.baseURL + badgesPath + "?" + url.Values{"user": {userID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("badgeapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("badgeapi: fetch user %s: %w", userID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNotFound:
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, resp.StatusCode, &StatusError{UserID: userID, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("badgeapi: read body for user %s: %w", userID, err)
	}
	return Decode(body), resp.StatusCode, nil
}
