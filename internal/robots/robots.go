package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/hyperifyio/langprof/internal/cache"
)

// Source reports where a robots decision came from.
type Source int

const (
	SourceNetwork Source = iota
	SourceMemory
	SourceCache304
)

// Manager fetches, caches and evaluates robots.txt per scheme+host. The zero
// value is usable; set HTTPClient and UserAgent for real crawls.
type Manager struct {
	HTTPClient  *http.Client
	Cache       *cache.HTTPCache
	UserAgent   string
	EntryExpiry time.Duration

	mu  sync.Mutex
	mem map[string]memEntry
	now func() time.Time
}

type memEntry struct {
	data   *robotstxt.RobotsData
	expiry time.Time
}

// maxRobotsBytes bounds how much of a robots.txt we read.
const maxRobotsBytes = 512 * 1024

// RobotsURL returns the robots.txt location for the host of pageURL.
func RobotsURL(pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) || u.Host == "" {
		return "", fmt.Errorf("unsupported url: %q", pageURL)
	}
	return u.Scheme + "://" + u.Host + "/robots.txt", nil
}

// Allowed reports whether pageURL may be fetched by the manager's user agent.
// A robots.txt that cannot be retrieved is treated by robotstxt semantics:
// 4xx allows everything, 5xx disallows everything. Transport errors are
// returned to the caller, which decides whether to fail open.
func (m *Manager) Allowed(ctx context.Context, pageURL string) (bool, Source, error) {
	robotsURL, err := RobotsURL(pageURL)
	if err != nil {
		return false, SourceNetwork, err
	}
	data, src, err := m.get(ctx, robotsURL)
	if err != nil {
		return true, src, err
	}
	u, _ := url.Parse(pageURL)
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, m.agentToken()), src, nil
}

// CrawlDelay returns the Crawl-delay declared for the manager's agent, or 0.
func (m *Manager) CrawlDelay(ctx context.Context, pageURL string) time.Duration {
	robotsURL, err := RobotsURL(pageURL)
	if err != nil {
		return 0
	}
	data, _, err := m.get(ctx, robotsURL)
	if err != nil || data == nil {
		return 0
	}
	if g := data.FindGroup(m.agentToken()); g != nil {
		return g.CrawlDelay
	}
	return 0
}

// agentToken reduces "langprof/1.0 (+url)" to "langprof" for group matching.
func (m *Manager) agentToken() string {
	ua := strings.TrimSpace(m.UserAgent)
	if ua == "" {
		return "*"
	}
	if i := strings.IndexAny(ua, "/ "); i > 0 {
		ua = ua[:i]
	}
	return ua
}

func (m *Manager) get(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, Source, error) {
	m.mu.Lock()
	if m.now == nil {
		m.now = time.Now
	}
	if m.mem == nil {
		m.mem = make(map[string]memEntry)
	}
	if ent, ok := m.mem[robotsURL]; ok && m.now().Before(ent.expiry) {
		m.mu.Unlock()
		return ent.data, SourceMemory, nil
	}
	m.mu.Unlock()

	var etag, lastMod string
	if m.Cache != nil {
		if meta, err := m.Cache.LoadMeta(ctx, robotsURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, SourceNetwork, fmt.Errorf("new request: %w", err)
	}
	if m.UserAgent != "" {
		req.Header.Set("User-Agent", m.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}
	client := m.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, SourceNetwork, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && m.Cache != nil {
		body, err := m.Cache.LoadBody(ctx, robotsURL)
		if err != nil {
			return nil, SourceCache304, fmt.Errorf("load cached robots: %w", err)
		}
		data, err := robotstxt.FromBytes(body)
		if err != nil {
			return nil, SourceCache304, fmt.Errorf("parse cached robots: %w", err)
		}
		m.storeMem(robotsURL, data)
		return data, SourceCache304, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsBytes))
	if err != nil {
		return nil, SourceNetwork, fmt.Errorf("read robots: %w", err)
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, SourceNetwork, fmt.Errorf("parse robots: %w", err)
	}
	if m.Cache != nil && resp.StatusCode == http.StatusOK {
		_ = m.Cache.Save(ctx, robotsURL, "text/plain", resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), body)
	}
	m.storeMem(robotsURL, data)
	return data, SourceNetwork, nil
}

func (m *Manager) storeMem(key string, data *robotstxt.RobotsData) {
	exp := m.EntryExpiry
	if exp <= 0 {
		exp = 30 * time.Minute
	}
	m.mu.Lock()
	m.mem[key] = memEntry{data: data, expiry: m.now().Add(exp)}
	m.mu.Unlock()
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
