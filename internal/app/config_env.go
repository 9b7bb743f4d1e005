package app

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnvOverrides.
const EnvPrefix = "LANGPROF_"

// LoadEnvFiles loads dotenv files into the process environment. Missing
// files are skipped and variables already set are not replaced.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnvOverrides overrides cfg fields with LANGPROF_* variables that are
// set. Malformed numbers and durations are ignored.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	get := func(key string) string { return strings.TrimSpace(os.Getenv(EnvPrefix + key)) }
	setInt := func(dst *int, key string) {
		if n, err := strconv.Atoi(get(key)); err == nil {
			*dst = n
		}
	}
	setDuration := func(dst *time.Duration, key string) {
		if d, err := time.ParseDuration(get(key)); err == nil {
			*dst = d
		}
	}
	setBool := func(dst *bool, key string) {
		switch strings.ToLower(get(key)) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}

	if v := get("ROOT"); v != "" {
		cfg.Root = v
	}
	if v := get("LANGUAGES"); v != "" {
		cfg.Languages = SplitLanguages(v)
	}
	setInt(&cfg.BudgetMB, "BUDGET_MB")
	setInt(&cfg.MinFrequency, "MIN_FREQ")
	if n, err := strconv.ParseInt(get("MIN_CACHE_BYTES"), 10, 64); err == nil {
		cfg.MinCacheBytes = n
	}
	setInt(&cfg.Parallel, "PARALLEL")
	setDuration(&cfg.Timeout, "TIMEOUT")
	setInt(&cfg.MaxAttempts, "ATTEMPTS")
	if v := get("USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	setBool(&cfg.Robots, "ROBOTS")
	setDuration(&cfg.HostInterval, "HOST_INTERVAL")
	if v := get("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	if v := get("REPORT"); v != "" {
		cfg.ReportPath = v
	}
	setBool(&cfg.Verbose, "VERBOSE")
	if v := get("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

// SplitLanguages splits a comma or whitespace separated list of codes.
func SplitLanguages(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' || r == '\n' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
