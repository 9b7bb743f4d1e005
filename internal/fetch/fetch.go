package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hyperifyio/langprof/internal/cache"
	"github.com/hyperifyio/langprof/internal/robots"
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 32 << 20

// ErrDisallowed is returned when robots.txt forbids fetching a URL.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// StatusError reports a non-success HTTP status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d %s", e.URL, e.Status, http.StatusText(e.Status))
}

// Client wraps http.Client and provides timeouts, limited retry on transient
// errors, optional politeness (robots.txt and per-host pacing) and an optional
// on-disk response cache. A Client is safe for concurrent use.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each attempt.
	PerRequestTimeout time.Duration
	// MaxBodyBytes caps the body read. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Cache stores bodies and validators for conditional revalidation.
	Cache *cache.HTTPCache
	// BypassCache fetches fresh (no conditional headers) but still saves.
	BypassCache bool
	// Robots, when set, gates every URL through robots.txt.
	Robots *robots.Manager
	// HostInterval is the minimum spacing between requests to one host.
	// Zero disables pacing.
	HostInterval time.Duration

	// RedirectMaxHops caps redirect following. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests. Zero means unlimited.
	MaxConcurrent int

	limiter     chan struct{}
	limiterOnce sync.Once

	hostMu       sync.Mutex
	hostLimiters map[string]*rate.Limiter
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get issues a GET and returns the body and the declared Content-Type.
// Any 2xx status is a success; everything else is a *StatusError.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) || u.Host == "" {
		return nil, "", fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	if c.Robots != nil {
		ok, _, err := c.Robots.Allowed(ctx, rawURL)
		if err == nil && !ok {
			return nil, "", fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		c.SetCrawlDelay(u.Host, c.Robots.CrawlDelay(ctx, rawURL))
	}

	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := c.pace(ctx, u.Host); err != nil {
			return nil, "", err
		}
		res, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil && res.status == http.StatusNotModified && c.Cache != nil {
			if body, contentType, ok := c.loadCached(ctx, rawURL); ok {
				return body, contentType, nil
			}
			// The stored copy is gone. Refetch without validators; this
			// request does not use up an attempt.
			etag, lastMod = "", ""
			res, err = c.tryOnce(ctx, rawURL, "", "")
			if err == nil && res.status == http.StatusNotModified {
				err = fmt.Errorf("cached body missing for %s", rawURL)
			}
		}
		if err == nil {
			if c.Cache != nil {
				_ = c.Cache.Save(ctx, rawURL, res.contentType, res.etag, res.lastModified, res.body)
			}
			return res.body, res.contentType, nil
		}
		if !isTransient(err) || i == attempts-1 {
			return nil, "", err
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return nil, "", ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	if lastErr == nil {
		lastErr = errors.New("unknown error")
	}
	return nil, "", lastErr
}

func (c *Client) loadCached(ctx context.Context, rawURL string) ([]byte, string, bool) {
	meta, err := c.Cache.LoadMeta(ctx, rawURL)
	if err != nil {
		return nil, "", false
	}
	body, err := c.Cache.LoadBody(ctx, rawURL)
	if err != nil {
		return nil, "", false
	}
	return body, meta.ContentType, true
}

type response struct {
	body         []byte
	contentType  string
	etag         string
	lastModified string
	status       int
}

func (c *Client) tryOnce(ctx context.Context, rawURL, etag, lastMod string) (response, error) {
	c.acquire()
	defer c.release()

	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return response{status: resp.StatusCode}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return response{status: resp.StatusCode}, &StatusError{URL: rawURL, Status: resp.StatusCode}
	}

	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return response{}, fmt.Errorf("read body: %w", err)
	}
	return response{
		body:         b,
		contentType:  resp.Header.Get("Content-Type"),
		etag:         resp.Header.Get("ETag"),
		lastModified: resp.Header.Get("Last-Modified"),
		status:       resp.StatusCode,
	}, nil
}

// pace blocks until the host's limiter admits another request. The interval
// grows to the robots.txt Crawl-delay when that is longer.
func (c *Client) pace(ctx context.Context, host string) error {
	c.hostMu.Lock()
	lim, ok := c.hostLimiters[host]
	if !ok {
		if c.HostInterval <= 0 {
			c.hostMu.Unlock()
			return nil
		}
		if c.hostLimiters == nil {
			c.hostLimiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(rate.Every(c.HostInterval), 1)
		c.hostLimiters[host] = lim
	}
	c.hostMu.Unlock()
	return lim.Wait(ctx)
}

// SetCrawlDelay widens the pacing interval for a host, e.g. from robots.txt.
func (c *Client) SetCrawlDelay(host string, d time.Duration) {
	if d <= 0 || d <= c.HostInterval {
		return
	}
	c.hostMu.Lock()
	defer c.hostMu.Unlock()
	if c.hostLimiters == nil {
		c.hostLimiters = make(map[string]*rate.Limiter)
	}
	if lim, ok := c.hostLimiters[host]; ok {
		lim.SetLimit(rate.Every(d))
		return
	}
	c.hostLimiters[host] = rate.NewLimiter(rate.Every(d), 1)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 500 && se.Status <= 599
	}
	return false
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func (c *Client) acquire() {
	if c.MaxConcurrent <= 0 {
		return
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	c.limiter <- struct{}{}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
