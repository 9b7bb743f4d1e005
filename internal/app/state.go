package app

import (
	"time"

	"github.com/hyperifyio/langprof/internal/crawl"
)

// State is a step of one language build.
type State int

const (
	StateInit State = iota
	StateConfigLoaded
	StateCorpusReady
	StateProfileBuilt
	StateWritten
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateConfigLoaded:
		return "config-loaded"
	case StateCorpusReady:
		return "corpus-ready"
	case StateProfileBuilt:
		return "profile-built"
	case StateWritten:
		return "written"
	case StateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// LanguageResult records how far one language build got.
type LanguageResult struct {
	Code  string
	State State
	// Reached is the last state before the build was skipped, or the final
	// state on success.
	Reached      State
	UnknownISO   bool
	CorpusReused bool
	CorpusBytes  int64
	// CorpusSHA256 identifies the exact corpus the profile was built from.
	CorpusSHA256 string
	Crawl        *crawl.Result
	NGrams       int
	ProfilePath  string
	Err          error
	Duration     time.Duration
}

// Skipped reports whether the language produced no profile.
func (r LanguageResult) Skipped() bool { return r.State == StateSkipped }

// Summary describes one batch run.
type Summary struct {
	RunID    string
	Root     string
	Started  time.Time
	Duration time.Duration
	Cleaned  []string
	Results  []LanguageResult
}

// Written counts languages whose profile was persisted.
func (s Summary) Written() int {
	n := 0
	for _, r := range s.Results {
		if r.State == StateWritten {
			n++
		}
	}
	return n
}

// Skipped counts languages that produced no profile.
func (s Summary) Skipped() int { return len(s.Results) - s.Written() }

// AllSkipped reports whether a non-empty batch produced nothing.
func (s Summary) AllSkipped() bool { return len(s.Results) > 0 && s.Written() == 0 }
