package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v3"
)

// Duration decodes Go duration strings ("30s", "1h") from YAML, JSON and
// TOML alike.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
	Root      string   `yaml:"root" json:"root" toml:"root"`
	Languages []string `yaml:"languages" json:"languages" toml:"languages"`

	Profile struct {
		BudgetMB      int   `yaml:"budgetMB" json:"budgetMB" toml:"budgetMB"`
		MinFrequency  int   `yaml:"minFrequency" json:"minFrequency" toml:"minFrequency"`
		MinCacheBytes int64 `yaml:"minCacheBytes" json:"minCacheBytes" toml:"minCacheBytes"`
		Parallel      int   `yaml:"parallel" json:"parallel" toml:"parallel"`
	} `yaml:"profile" json:"profile" toml:"profile"`

	Fetch struct {
		Timeout      Duration `yaml:"timeout" json:"timeout" toml:"timeout"`
		Attempts     int      `yaml:"attempts" json:"attempts" toml:"attempts"`
		UserAgent    string   `yaml:"userAgent" json:"userAgent" toml:"userAgent"`
		Robots       bool     `yaml:"robots" json:"robots" toml:"robots"`
		HostInterval Duration `yaml:"hostInterval" json:"hostInterval" toml:"hostInterval"`
	} `yaml:"fetch" json:"fetch" toml:"fetch"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir" toml:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge" toml:"maxAge"`
		Clear       bool     `yaml:"clear" json:"clear" toml:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms" toml:"strictPerms"`
	} `yaml:"cache" json:"cache" toml:"cache"`

	Report    string `yaml:"report" json:"report" toml:"report"`
	Verbose   bool   `yaml:"verbose" json:"verbose" toml:"verbose"`
	LogFormat string `yaml:"logFormat" json:"logFormat" toml:"logFormat"`
}

// LoadConfigFile reads YAML, JSON or TOML into FileConfig, chosen by file
// extension.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse toml: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. Zero values in
// the file leave cfg untouched.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if fc.Root != "" {
		cfg.Root = fc.Root
	}
	if len(fc.Languages) > 0 {
		cfg.Languages = append([]string{}, fc.Languages...)
	}

	if fc.Profile.BudgetMB > 0 {
		cfg.BudgetMB = fc.Profile.BudgetMB
	}
	if fc.Profile.MinFrequency > 0 {
		cfg.MinFrequency = fc.Profile.MinFrequency
	}
	if fc.Profile.MinCacheBytes > 0 {
		cfg.MinCacheBytes = fc.Profile.MinCacheBytes
	}
	if fc.Profile.Parallel > 0 {
		cfg.Parallel = fc.Profile.Parallel
	}

	if fc.Fetch.Timeout > 0 {
		cfg.Timeout = time.Duration(fc.Fetch.Timeout)
	}
	if fc.Fetch.Attempts > 0 {
		cfg.MaxAttempts = fc.Fetch.Attempts
	}
	if fc.Fetch.UserAgent != "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}
	if fc.Fetch.Robots {
		cfg.Robots = true
	}
	if fc.Fetch.HostInterval > 0 {
		cfg.HostInterval = time.Duration(fc.Fetch.HostInterval)
	}

	if fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = time.Duration(fc.Cache.MaxAge)
	}
	if fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if fc.Report != "" {
		cfg.ReportPath = fc.Report
	}
	if fc.Verbose {
		cfg.Verbose = true
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
}
