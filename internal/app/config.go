package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hyperifyio/langprof/internal/crawl"
	"github.com/hyperifyio/langprof/internal/langdir"
	"github.com/hyperifyio/langprof/internal/profile"
)

// Config holds runtime configuration for one batch of language builds.
type Config struct {
	// Root is the directory holding one subdirectory per language.
	Root      string
	Languages []string
	// Clean removes corpus caches before building.
	Clean bool

	// Profile building
	BudgetMB      int   `validate:"gt=0"`
	MinFrequency  int   `validate:"gt=0"`
	MinCacheBytes int64 `validate:"gte=0"`
	Parallel      int   `validate:"gte=0"`

	// Fetching
	Timeout      time.Duration `validate:"gte=0s"`
	MaxAttempts  int           `validate:"gte=0"`
	UserAgent    string
	Robots       bool
	HostInterval time.Duration `validate:"gte=0s"`

	// HTTP response cache; disabled when CacheDir is empty.
	CacheDir         string
	CacheMaxAge      time.Duration `validate:"gte=0s"`
	CacheClear       bool
	CacheStrictPerms bool

	// Output
	ReportPath string
	Verbose    bool
	LogFormat  string `validate:"omitempty,oneof=console json"`
}

var configValidator = validator.New()

// DefaultUserAgent identifies crawl requests.
func DefaultUserAgent() string {
	return "langprof/" + BuildVersion + " (+https://github.com/hyperifyio/langprof)"
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Root:          ".",
		BudgetMB:      crawl.DefaultBudgetMB,
		MinFrequency:  profile.DefaultMinFrequency,
		MinCacheBytes: langdir.MinCacheBytes,
		Parallel:      1,
		Timeout:       30 * time.Second,
		MaxAttempts:   1,
		UserAgent:     DefaultUserAgent(),
		LogFormat:     "console",
	}
}

// ValidateConfig rejects settings that cannot produce a build.
func ValidateConfig(cfg Config) error {
	if trim(cfg.Root) == "" {
		return errors.New("config: root directory is required")
	}
	if err := configValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config: %s fails %s%s, got %v", fe.Field(), fe.Tag(), paramSuffix(fe.Param()), fe.Value())
		}
		return fmt.Errorf("config: %w", err)
	}
	if p := trim(cfg.ReportPath); p != "" {
		if !strings.HasSuffix(p, ".md") && !strings.HasSuffix(p, ".pdf") {
			return fmt.Errorf("config: report path %q must end in .md or .pdf", p)
		}
	}
	return nil
}

func paramSuffix(p string) string {
	if p == "" {
		return ""
	}
	return "=" + p
}

func trim(s string) string { return strings.TrimSpace(s) }
