package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/langprof/internal/app"
	"github.com/hyperifyio/langprof/internal/report"
)

type options struct {
	configPath string
	envFile    string

	clean         bool
	root          string
	budgetMB      int
	minFreq       int
	minCacheBytes int64
	parallel      int
	timeout       time.Duration
	attempts      int
	userAgent     string
	cacheDir      string
	cacheMaxAge   time.Duration
	cacheClear    bool
	robots        bool
	hostInterval  time.Duration
	reportPath    string
	verbose       bool
	logFormat     string
}

// exitError carries a process exit code out of cobra's RunE.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func newRootCmd(opts *options) *cobra.Command {
	defaults := app.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "langprof [flags] <lang>...",
		Short: "Build n-gram language profiles",
		Long: `langprof builds a character n-gram frequency profile for each language code.

For each code it reads <root>/<code>/. An existing <code>.strings corpus of at
least --min-cache-bytes is reused; otherwise the URLs listed in <code>.urls are
crawled, cleaned with the rules from <code>.properties and stopwords.txt, and
stored as the new corpus. The finished profile is written to <root>/<code>/<code>.`,
		Version:       app.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Config file (YAML, JSON or TOML)")
	f.StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before reading LANGPROF_* variables")
	f.BoolVarP(&opts.clean, "clean", "c", false, "Delete the corpus cache of each language before building")
	f.StringVar(&opts.root, "root", defaults.Root, "Directory holding one subdirectory per language")
	f.IntVar(&opts.budgetMB, "budget-mb", defaults.BudgetMB, "Crawl budget per language in MiB of text")
	f.IntVar(&opts.minFreq, "min-freq", defaults.MinFrequency, "Drop n-grams seen fewer times than this")
	f.Int64Var(&opts.minCacheBytes, "min-cache-bytes", defaults.MinCacheBytes, "Reuse an existing corpus cache from this size")
	f.IntVar(&opts.parallel, "parallel", defaults.Parallel, "Languages built concurrently")
	f.DurationVar(&opts.timeout, "timeout", defaults.Timeout, "Per-request fetch timeout")
	f.IntVar(&opts.attempts, "attempts", defaults.MaxAttempts, "Fetch attempts per URL including the first")
	f.StringVar(&opts.userAgent, "user-agent", defaults.UserAgent, "User-Agent for crawl requests")
	f.StringVar(&opts.cacheDir, "cache.dir", "", "HTTP response cache directory (empty disables)")
	f.DurationVar(&opts.cacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this before the run; 0 disables")
	f.BoolVar(&opts.cacheClear, "cache.clear", false, "Clear the HTTP cache before the run")
	f.BoolVar(&opts.robots, "robots", false, "Honor robots.txt")
	f.DurationVar(&opts.hostInterval, "host-interval", 0, "Minimum spacing between requests to one host")
	f.StringVar(&opts.reportPath, "report", "", "Write a run summary (.md or .pdf)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")
	f.StringVar(&opts.logFormat, "log-format", defaults.LogFormat, "Log format: console or json")
	return cmd
}

// resolveConfig layers defaults, config file, environment and explicitly set
// flags, in increasing precedence.
func resolveConfig(cmd *cobra.Command, opts *options, args []string) (app.Config, error) {
	cfg := app.DefaultConfig()
	if err := app.LoadEnvFiles(opts.envFile); err != nil {
		return cfg, fmt.Errorf("load env file: %w", err)
	}
	if opts.configPath != "" {
		fc, err := app.LoadConfigFile(opts.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config %s: %w", opts.configPath, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}
	set("clean", func() { cfg.Clean = opts.clean })
	set("root", func() { cfg.Root = opts.root })
	set("budget-mb", func() { cfg.BudgetMB = opts.budgetMB })
	set("min-freq", func() { cfg.MinFrequency = opts.minFreq })
	set("min-cache-bytes", func() { cfg.MinCacheBytes = opts.minCacheBytes })
	set("parallel", func() { cfg.Parallel = opts.parallel })
	set("timeout", func() { cfg.Timeout = opts.timeout })
	set("attempts", func() { cfg.MaxAttempts = opts.attempts })
	set("user-agent", func() { cfg.UserAgent = opts.userAgent })
	set("cache.dir", func() { cfg.CacheDir = opts.cacheDir })
	set("cache.maxAge", func() { cfg.CacheMaxAge = opts.cacheMaxAge })
	set("cache.clear", func() { cfg.CacheClear = opts.cacheClear })
	set("robots", func() { cfg.Robots = opts.robots })
	set("host-interval", func() { cfg.HostInterval = opts.hostInterval })
	set("report", func() { cfg.ReportPath = opts.reportPath })
	set("verbose", func() { cfg.Verbose = opts.verbose })
	set("log-format", func() { cfg.LogFormat = opts.logFormat })

	if len(args) > 0 {
		cfg.Languages = append([]string{}, args...)
	}
	return cfg, app.ValidateConfig(cfg)
}

func run(cmd *cobra.Command, opts *options, args []string) error {
	cfg, err := resolveConfig(cmd, opts, args)
	setupLogging(cfg.Verbose, cfg.LogFormat)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	if len(cfg.Languages) == 0 {
		return &exitError{code: exitUsage, err: app.ErrNoLanguages}
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	defer a.Close()

	sum, err := a.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return &exitError{code: exitConfig, err: err}
	}
	if p := strings.TrimSpace(cfg.ReportPath); p != "" {
		if rerr := report.Write(p, sum); rerr != nil {
			log.Error().Err(rerr).Str("file", p).Msg("writing report failed")
		} else {
			log.Info().Str("file", p).Msg("report written")
		}
	}
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	if sum.AllSkipped() {
		return &exitError{code: exitAllSkipped, err: fmt.Errorf("all %d languages skipped", len(sum.Results))}
	}
	return nil
}

// execute runs the root command and maps its error to an exit code.
func execute(ctx context.Context, args []string) int {
	cmd := newRootCmd(&options{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.code == exitUsage {
			log.Error().Msg("No language profiles given as arguments, exiting")
		} else {
			log.Error().Err(ee.err).Msg("langprof failed")
		}
		return ee.code
	}
	// flag parsing and other cobra errors
	fmt.Fprintln(os.Stderr, "Error:", err)
	return exitUsage
}
