// Package crawl fills a language corpus cache from a list of URLs.
package crawl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/langprof/internal/budget"
	"github.com/hyperifyio/langprof/internal/extract"
	"github.com/hyperifyio/langprof/internal/rules"
)

// DefaultBudgetMB is the corpus size budget used when none is configured.
const DefaultBudgetMB = 3

// Fetcher retrieves a URL and returns its body and declared content type.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, string, error)
}

// Extractor turns a fetched resource into plain text.
type Extractor interface {
	Extract(ctx context.Context, res extract.Resource) (string, error)
}

// Cleaner transforms extracted text before it is stored.
type Cleaner interface {
	Apply(text string) string
}

// MalformedURLError describes a URL list line that is not an absolute URL.
type MalformedURLError struct {
	Line int
	Raw  string
	Err  error
}

func (e *MalformedURLError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d: malformed url %q: %v", e.Line, e.Raw, e.Err)
	}
	return fmt.Sprintf("line %d: malformed url %q", e.Line, e.Raw)
}

func (e *MalformedURLError) Unwrap() error { return e.Err }

// Result summarizes one crawl.
type Result struct {
	// URLsAttempted counts well-formed URLs that were fetched or tried.
	URLsAttempted int
	// BytesWritten is the character count of all stored text.
	BytesWritten int64
	Malformed    int
	Failed       int
	// Exceeded is set when the crawl stopped because of the budget.
	Exceeded bool
	Duration time.Duration
}

// Crawler runs URLs sequentially through fetch, extraction and cleaning.
type Crawler struct {
	Fetcher   Fetcher
	Extractor Extractor
	Cleaner   Cleaner
	Logger    *zerolog.Logger
}

func (c *Crawler) logger() *zerolog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return &log.Logger
}

// ParseURL parses one trimmed URL list entry. Scheme and host are required.
func ParseURL(line string) (*url.URL, error) {
	u, err := url.Parse(line)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("not an absolute url")
	}
	return u, nil
}

// Crawl reads urlListPath and writes one line per attempted URL to
// corpusPath, stopping once more than maxMegabytes MiB of text were stored.
// Only failures to read the list or write the corpus are returned; per-URL
// failures are logged and stored as blank lines. The corpus is written to a
// temporary file and only replaces corpusPath when the crawl completes.
func (c *Crawler) Crawl(ctx context.Context, urlListPath, corpusPath string, maxMegabytes int) (Result, error) {
	start := time.Now()
	var res Result
	in, err := os.Open(urlListPath)
	if err != nil {
		return res, fmt.Errorf("open url list: %w", err)
	}
	defer in.Close()
	out, err := os.CreateTemp(filepath.Dir(corpusPath), filepath.Base(corpusPath)+".*.tmp")
	if err != nil {
		return res, fmt.Errorf("create corpus: %w", err)
	}
	tmp := out.Name()
	w := bufio.NewWriter(out)
	res, err = c.run(ctx, bufio.NewReader(in), w, budget.NewBytes(maxMegabytes))
	if ferr := w.Flush(); err == nil && ferr != nil {
		err = fmt.Errorf("write corpus: %w", ferr)
	}
	if cerr := out.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close corpus: %w", cerr)
	}
	if err == nil {
		if rerr := os.Rename(tmp, corpusPath); rerr != nil {
			err = fmt.Errorf("replace corpus: %w", rerr)
		}
	}
	if err != nil {
		_ = os.Remove(tmp)
	}
	res.Duration = time.Since(start)
	return res, err
}

func (c *Crawler) run(ctx context.Context, in *bufio.Reader, w io.Writer, b *budget.Bytes) (Result, error) {
	var res Result
	lg := c.logger()
	lineNo := 0
	for {
		if b.Exceeded() {
			res.Exceeded = true
			lg.Info().Int64("bytes", b.Used()).Int64("limit", b.Limit()).Msg("crawl budget reached")
			break
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		raw, rerr := in.ReadString('\n')
		if rerr != nil && rerr != io.EOF {
			return res, fmt.Errorf("read url list: %w", rerr)
		}
		if raw == "" && rerr == io.EOF {
			break
		}
		lineNo++
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if rerr == io.EOF {
				break
			}
			continue
		}
		u, perr := ParseURL(trimmed)
		if perr != nil {
			res.Malformed++
			lg.Warn().Err(&MalformedURLError{Line: lineNo, Raw: trimmed, Err: perr}).Msg("skipping url")
		} else {
			res.URLsAttempted++
			text, ferr := c.fetchText(ctx, u.String())
			if ferr != nil {
				res.Failed++
				lg.Warn().Err(ferr).Str("url", u.String()).Msg("fetch failed")
				text = ""
			} else {
				n := b.AddText(text)
				res.BytesWritten += int64(n)
				lg.Info().Int("chars", n).Str("url", u.String()).Msg("fetched")
			}
			if _, err := io.WriteString(w, text+"\n"); err != nil {
				return res, fmt.Errorf("write corpus: %w", err)
			}
		}
		if rerr == io.EOF {
			break
		}
	}
	return res, nil
}

func (c *Crawler) fetchText(ctx context.Context, rawURL string) (string, error) {
	body, contentType, err := c.Fetcher.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	text, err := c.Extractor.Extract(ctx, extract.Resource{URL: rawURL, ContentType: contentType, Body: body})
	if err != nil {
		return "", err
	}
	text = rules.CollapseWhitespace(text)
	if c.Cleaner != nil {
		text = c.Cleaner.Apply(text)
	}
	return text, nil
}
