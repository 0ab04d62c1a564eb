// Package crawler fetches product listings and benchmark tables from HTML pages.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/logging"
)

// PagePlaceholder is replaced with the 1-based page number in source URLs
const PagePlaceholder = "{page}"

var errPageNotFound = errors.New("page not found")

// Config holds the HTTP settings shared by both fetchers
type Config struct {
	UserAgent         string
	Timeout           time.Duration
	MaxPages          int
	RequestsPerSecond float64
	Burst             int
	MaxAttempts       int
	RetryBackoff      time.Duration
}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = "PCSite/1.0"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxPages <= 0 {
		c.MaxPages = 1
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 1
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 500 * time.Millisecond
	}
	return c
}

// client downloads and parses pages under a shared rate limit
type client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	cfg         Config
}

func newClient(cfg Config) *client {
	cfg = cfg.withDefaults()
	return &client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cfg:         cfg,
	}
}

// getDocument fetches one page, retrying transient failures with a growing pause
func (c *client) getDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	log := logging.FromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, time.Duration(attempt-1)*c.cfg.RetryBackoff); err != nil {
				return nil, err
			}
		}
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		body, err := c.get(ctx, pageURL)
		if errors.Is(err, errPageNotFound) {
			return nil, err
		}
		if err != nil {
			log.Debug().Err(err).Str("url", pageURL).Int("attempt", attempt).Msg("page fetch failed")
			lastErr = err
			continue
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", pageURL, err)
		}
		return doc, nil
	}
	return nil, lastErr
}

func (c *client) get(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", errPageNotFound, pageURL)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, pageURL)
	}
	return body, nil
}

// pages walks the paginated source URL until fn reports an empty page or the page
// limit is reached. Failed pages are logged, skipped and returned joined.
func (c *client) pages(ctx context.Context, category domain.Category, source string, fn func(*goquery.Document, *url.URL) int) error {
	log := logging.FromContext(ctx).With().Str("category", string(category)).Logger()

	maxPages := c.cfg.MaxPages
	if !strings.Contains(source, PagePlaceholder) {
		maxPages = 1
	}

	var errs []error
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		pageURL := strings.ReplaceAll(source, PagePlaceholder, strconv.Itoa(page))
		base, err := url.Parse(pageURL)
		if err != nil {
			return fmt.Errorf("%w: source url: %v", domain.ErrCollaboratorFailure, err)
		}

		doc, err := c.getDocument(ctx, pageURL)
		if err != nil {
			log.Warn().Err(err).Int("page", page).Msg("skipping page")
			errs = append(errs, fmt.Errorf("page %d: %w", page, err))
			continue
		}

		n := fn(doc, base)
		log.Debug().Int("page", page).Int("items", n).Msg("page parsed")
		if n == 0 {
			break
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrCollaboratorFailure, errors.Join(errs...))
	}
	return nil
}

// ParseNumber keeps the digits of s, so "750,000원" becomes 750000.
// Text without digits yields 0.
func ParseNumber(s string) int64 {
	var n int64
	seen := false
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n = n*10 + int64(r-'0')
			seen = true
			continue
		}
		// stop at a decimal separator once digits were read
		if r == '.' && seen {
			break
		}
	}
	return n
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
