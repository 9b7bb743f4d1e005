package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperifyio/langprof/internal/budget"
	"github.com/hyperifyio/langprof/internal/extract"
	"github.com/hyperifyio/langprof/internal/fetch"
	"github.com/hyperifyio/langprof/internal/rules"
)

type fakeFetcher struct {
	calls  []string
	bodies map[string]string
	fail   map[string]error
}

func (f *fakeFetcher) Get(_ context.Context, rawURL string) ([]byte, string, error) {
	f.calls = append(f.calls, rawURL)
	if err := f.fail[rawURL]; err != nil {
		return nil, "", err
	}
	if b, ok := f.bodies[rawURL]; ok {
		return []byte(b), "text/plain; charset=utf-8", nil
	}
	return []byte("default body"), "text/plain", nil
}

// cancelingFetcher serves one page, then cancels the crawl.
type cancelingFetcher struct {
	cancel context.CancelFunc
	calls  int
}

func (f *cancelingFetcher) Get(_ context.Context, _ string) ([]byte, string, error) {
	f.calls++
	if f.calls == 1 {
		f.cancel()
	}
	return []byte("partial page"), "text/plain", nil
}

func newCrawler(f Fetcher, c Cleaner) *Crawler {
	nop := zerolog.Nop()
	return &Crawler{Fetcher: f, Extractor: extract.NewRegistry(), Cleaner: c, Logger: &nop}
}

func writeList(t *testing.T, lines ...string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	list := filepath.Join(dir, "xx.urls")
	require.NoError(t, os.WriteFile(list, []byte(strings.Join(lines, "\n")), 0o644))
	return list, filepath.Join(dir, "xx.strings")
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
}

func TestCrawl_StopsAfterBudgetExceeded(t *testing.T) {
	chunk := strings.Repeat("a", 700*1024)
	f := &fakeFetcher{bodies: map[string]string{}}
	var urls []string
	for i := 0; i < 5; i++ {
		u := fmt.Sprintf("http://example.test/%d", i)
		urls = append(urls, u)
		f.bodies[u] = chunk
	}
	list, corpus := writeList(t, urls...)
	res, err := newCrawler(f, nil).Crawl(context.Background(), list, corpus, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, res.URLsAttempted)
	assert.True(t, res.Exceeded)
	assert.Len(t, f.calls, 2)
	assert.Equal(t, int64(2*700*1024), res.BytesWritten)
	// the overshoot is bounded by the last fetch
	assert.LessOrEqual(t, res.BytesWritten, int64(budget.MiB)+int64(len(chunk)))
	assert.Len(t, readLines(t, corpus), 2)
}

func TestCrawl_SkipsCommentsBlanksAndMalformed(t *testing.T) {
	f := &fakeFetcher{}
	list, corpus := writeList(t,
		"# heading",
		"",
		"   ",
		"not a url",
		"http://example.test/one",
		"  # indented comment",
		"/relative/path",
		"http://example.test/two",
	)
	res, err := newCrawler(f, nil).Crawl(context.Background(), list, corpus, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"http://example.test/one", "http://example.test/two"}, f.calls)
	assert.Equal(t, 2, res.URLsAttempted)
	assert.Equal(t, 2, res.Malformed)
	assert.False(t, res.Exceeded)
	assert.Equal(t, []string{"default body", "default body"}, readLines(t, corpus))
}

func TestCrawl_FailureWritesBlankLine(t *testing.T) {
	f := &fakeFetcher{
		bodies: map[string]string{"http://example.test/a": "alpha", "http://example.test/c": "gamma"},
		fail:   map[string]error{"http://example.test/b": errors.New("connection refused")},
	}
	list, corpus := writeList(t, "http://example.test/a", "http://example.test/b", "http://example.test/c")
	res, err := newCrawler(f, nil).Crawl(context.Background(), list, corpus, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.URLsAttempted)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, int64(len("alpha")+len("gamma")), res.BytesWritten)
	assert.Equal(t, []string{"alpha", "", "gamma"}, readLines(t, corpus))
}

func TestCrawl_CollapsesWhitespaceAndCleans(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{
		"http://example.test/": "The  cat\n\nsat,\ton 12 mats.",
	}}
	chain := rules.Standard("", "", rules.NewStopwordSet([]string{"the"}))
	list, corpus := writeList(t, "http://example.test/")
	_, err := newCrawler(f, chain).Crawl(context.Background(), list, corpus, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"  cat sat  on   mats "}, readLines(t, corpus))
}

func TestCrawl_ExtractionFailureIsBlank(t *testing.T) {
	f := &fakeFetcher{bodies: map[string]string{"http://example.test/empty": "   "}}
	list, corpus := writeList(t, "http://example.test/empty", "http://example.test/ok")
	res, err := newCrawler(f, nil).Crawl(context.Background(), list, corpus, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []string{"", "default body"}, readLines(t, corpus))
}

func TestCrawl_MissingList(t *testing.T) {
	dir := t.TempDir()
	_, err := newCrawler(&fakeFetcher{}, nil).Crawl(context.Background(), filepath.Join(dir, "none.urls"), filepath.Join(dir, "x.strings"), 3)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "x.strings"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCrawl_UnwritableCorpus(t *testing.T) {
	list, _ := writeList(t, "http://example.test/")
	_, err := newCrawler(&fakeFetcher{}, nil).Crawl(context.Background(), list, filepath.Join(t.TempDir(), "no", "such", "x.strings"), 3)
	assert.Error(t, err)
}

func TestCrawl_Canceled(t *testing.T) {
	f := &fakeFetcher{}
	list, corpus := writeList(t, "http://example.test/a", "http://example.test/b")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newCrawler(f, nil).Crawl(ctx, list, corpus, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.calls)
	_, statErr := os.Stat(corpus)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCrawl_CanceledKeepsPreviousCorpus(t *testing.T) {
	f := &cancelingFetcher{}
	list, corpus := writeList(t, "http://example.test/a", "http://example.test/b", "http://example.test/c")
	require.NoError(t, os.WriteFile(corpus, []byte("previous corpus\n"), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	_, err := newCrawler(f, nil).Crawl(ctx, list, corpus, 3)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"previous corpus"}, readLines(t, corpus))

	entries, err := os.ReadDir(filepath.Dir(corpus))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temporary corpus left behind")
	}
}

func TestCrawl_ReplacesCorpusOnSuccess(t *testing.T) {
	list, corpus := writeList(t, "http://example.test/")
	require.NoError(t, os.WriteFile(corpus, []byte("stale\n"), 0o644))
	_, err := newCrawler(&fakeFetcher{}, nil).Crawl(context.Background(), list, corpus, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"default body"}, readLines(t, corpus))
}

func TestCrawl_HTTPEndToEnd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><body><nav>Menu Home</nav><main><p>Katten satt på matta i 2024.</p></main><footer>Copyright</footer></body></html>`)
	})
	mux.HandleFunc("/notes.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "Hunden og katten!")
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := &fetch.Client{UserAgent: "langprof-test", PerRequestTimeout: 5 * time.Second}
	chain := rules.Standard("å", "", rules.NewStopwordSet([]string{"i"}))
	list, corpus := writeList(t, srv.URL+"/page", srv.URL+"/gone", srv.URL+"/notes.txt")
	res, err := newCrawler(client, chain).Crawl(context.Background(), list, corpus, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, res.URLsAttempted)
	assert.Equal(t, 1, res.Failed)

	lines := readLines(t, corpus)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Katten satt på matta")
	assert.NotContains(t, lines[0], "2024")
	assert.Equal(t, "", lines[1])
	// no å in the text, dropped by the must-contain filter
	assert.Equal(t, "", lines[2])
}

func TestParseURL(t *testing.T) {
	_, err := ParseURL("https://example.com/x?y=1")
	assert.NoError(t, err)
	for _, bad := range []string{"example.com", "/path", "http://", "::"} {
		_, err := ParseURL(bad)
		assert.Error(t, err, bad)
	}
}
