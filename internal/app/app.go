package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/langprof/internal/cache"
	"github.com/hyperifyio/langprof/internal/crawl"
	"github.com/hyperifyio/langprof/internal/extract"
	"github.com/hyperifyio/langprof/internal/fetch"
	"github.com/hyperifyio/langprof/internal/langdir"
	"github.com/hyperifyio/langprof/internal/profile"
	"github.com/hyperifyio/langprof/internal/robots"
	"github.com/hyperifyio/langprof/internal/rules"
)

// ErrNoLanguages is returned by Run when no language codes were given.
var ErrNoLanguages = errors.New("no language profiles given")

// App drives profile builds for a batch of languages. Language builds share
// only the fetch client and its caches, which are safe for concurrent use.
type App struct {
	cfg        Config
	runID      string
	httpClient *http.Client
	httpCache  *cache.HTTPCache
	fetcher    crawl.Fetcher
	extractor  crawl.Extractor
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	a := &App{
		cfg:        cfg,
		runID:      uuid.NewString(),
		httpClient: newCrawlHTTPClient(cfg.Parallel),
		extractor:  extract.NewRegistry(),
	}
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge)
			if err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				log.Info().Int("removed", n).Dur("maxAge", cfg.CacheMaxAge).Msg("purged stale cache entries")
			}
		}
		a.httpCache = &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}
	client := &fetch.Client{
		HTTPClient:        a.httpClient,
		UserAgent:         cfg.UserAgent,
		MaxAttempts:       cfg.MaxAttempts,
		PerRequestTimeout: cfg.Timeout,
		Cache:             a.httpCache,
		HostInterval:      cfg.HostInterval,
	}
	if cfg.Robots {
		client.Robots = &robots.Manager{HTTPClient: a.httpClient, Cache: a.httpCache, UserAgent: cfg.UserAgent}
	}
	a.fetcher = client
	log.Debug().Str("run_id", a.runID).Str("root", cfg.Root).Bool("robots", cfg.Robots).Str("cache", cfg.CacheDir).Msg("app initialized")
	return a, nil
}

// RunID identifies this batch in logs and reports.
func (a *App) RunID() string { return a.runID }

func (a *App) Close() {
	if a.httpClient != nil {
		a.httpClient.CloseIdleConnections()
	}
}

// Run cleans (when configured) and builds every configured language. A
// failing language is recorded in the summary and never stops the others.
// The returned error is non-nil only for ErrNoLanguages or cancellation.
func (a *App) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: a.runID, Root: a.cfg.Root, Started: time.Now()}
	langs := a.cfg.Languages
	if len(langs) == 0 {
		return sum, ErrNoLanguages
	}
	if a.cfg.Clean {
		sum.Cleaned = a.Clean(langs)
	}

	results := make([]LanguageResult, len(langs))
	limit := a.cfg.Parallel
	if limit <= 0 {
		limit = 1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i, code := range langs {
		i, code := i, code
		g.Go(func() error {
			results[i] = a.BuildLanguage(ctx, code)
			return nil
		})
	}
	_ = g.Wait()
	sum.Results = results
	sum.Duration = time.Since(sum.Started)
	log.Info().Str("run_id", a.runID).Int("written", sum.Written()).Int("skipped", sum.Skipped()).Dur("took", sum.Duration).Msg("batch complete")
	return sum, ctx.Err()
}

// Clean removes the corpus cache of each language and returns the codes
// whose cache was removed.
func (a *App) Clean(codes []string) []string {
	var removed []string
	for _, code := range codes {
		d, err := langdir.New(a.cfg.Root, code)
		if err != nil {
			log.Error().Err(err).Str("lang", code).Msg("cannot clean")
			continue
		}
		ok, err := d.Clean()
		switch {
		case err != nil:
			log.Error().Err(err).Str("lang", code).Msg("clean failed")
		case ok:
			log.Info().Str("lang", code).Str("file", d.CorpusPath()).Msg("removed corpus cache")
			removed = append(removed, code)
		default:
			log.Info().Str("lang", code).Msg("no corpus cache to remove")
		}
	}
	return removed
}

// BuildLanguage runs one language from Init to Written, or to Skipped at the
// first failing step.
func (a *App) BuildLanguage(ctx context.Context, code string) LanguageResult {
	start := time.Now()
	lg := log.With().Str("lang", code).Str("run_id", a.runID).Logger()
	res := LanguageResult{Code: code, State: StateInit, Reached: StateInit}
	skip := func(err error) LanguageResult {
		res.Reached = res.State
		res.State = StateSkipped
		res.Err = err
		res.Duration = time.Since(start)
		lg.Error().Err(err).Stringer("state", res.Reached).Msg("skipping language")
		return res
	}

	d, err := langdir.New(a.cfg.Root, code)
	if err != nil {
		return skip(fmt.Errorf("%w: %w", ErrInvalidLanguage, err))
	}
	if !langdir.KnownISO(code) {
		res.UnknownISO = true
		lg.Warn().Msg("not a known ISO 639 language code")
	}
	if !d.Exists() {
		return skip(fmt.Errorf("%w: directory %s does not exist", ErrMissingInput, d.Path()))
	}

	chain, err := a.loadChain(d, lg)
	if err != nil {
		return skip(fmt.Errorf("%w: %w", ErrConfigLoad, err))
	}
	res.State = StateConfigLoaded

	if d.CacheValid(a.cfg.MinCacheBytes) {
		res.CorpusReused = true
		lg.Info().Str("file", d.CorpusPath()).Msg("using existing corpus cache instead of crawling")
	} else {
		if !d.HasURLs() {
			return skip(fmt.Errorf("%w: neither %s nor %s usable", ErrMissingInput, d.CorpusPath(), d.URLsPath()))
		}
		cr := &crawl.Crawler{Fetcher: a.fetcher, Extractor: a.extractor, Cleaner: chain, Logger: &lg}
		cres, err := cr.Crawl(ctx, d.URLsPath(), d.CorpusPath(), a.cfg.BudgetMB)
		res.Crawl = &cres
		if err != nil {
			return skip(fmt.Errorf("%w: %w", ErrCrawl, err))
		}
		lg.Info().
			Int("urls", cres.URLsAttempted).
			Int("failed", cres.Failed).
			Int("malformed", cres.Malformed).
			Int64("chars", cres.BytesWritten).
			Bool("budgetReached", cres.Exceeded).
			Dur("took", cres.Duration).
			Msg("crawl complete")
	}
	size := d.CacheSize()
	if size < 0 {
		return skip(fmt.Errorf("%w: could not find or generate %s", ErrMissingInput, d.CorpusPath()))
	}
	res.CorpusBytes = size
	if sum, err := fileSHA256Hex(d.CorpusPath()); err == nil {
		res.CorpusSHA256 = sum
	} else {
		lg.Warn().Err(err).Msg("corpus digest failed")
	}
	res.State = StateCorpusReady

	p, err := profile.NewBuilder(a.cfg.MinFrequency).Build(ctx, d.CorpusPath(), code)
	if err != nil {
		return skip(fmt.Errorf("%w: %w", ErrProfileBuild, err))
	}
	res.NGrams = len(p.Freq)
	res.State = StateProfileBuilt

	if err := profile.Write(p, d.ProfilePath()); err != nil {
		return skip(fmt.Errorf("%w: %w", ErrWrite, err))
	}
	res.State = StateWritten
	res.Reached = StateWritten
	res.ProfilePath = d.ProfilePath()
	res.Duration = time.Since(start)
	lg.Info().Str("file", res.ProfilePath).Int("ngrams", res.NGrams).Dur("took", res.Duration).Msg("profile written")
	return res
}

func (a *App) loadChain(d langdir.Dir, lg zerolog.Logger) (*rules.Chain, error) {
	pc, err := langdir.LoadConfig(d.PropertiesPath())
	if err != nil {
		return nil, err
	}
	words, err := langdir.LoadStopwords(d.StopwordsPath())
	if err != nil {
		return nil, err
	}
	chain := rules.Standard(pc.MustContainChars, pc.MustNotContainChars, rules.NewStopwordSet(words)).WithLogger(lg)
	lg.Debug().Int("stopwords", len(words)).Strs("rules", chain.Names()).Msg("config loaded")
	return chain, nil
}
