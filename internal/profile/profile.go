// Package profile turns a cleaned corpus into an n-gram frequency profile
// and persists it.
package profile

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/langprof/internal/ngram"
)

// DefaultMinFrequency is the count below which n-grams are discarded.
const DefaultMinFrequency = 5

var (
	// ErrEmptyCorpus means the corpus held no non-blank lines.
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrNoNgrams means no n-gram reached the minimum frequency.
	ErrNoNgrams = errors.New("no n-grams above minimum frequency")
)

// ProfileBuildError reports why a profile could not be built for a language.
type ProfileBuildError struct {
	Lang string
	Err  error
}

func (e *ProfileBuildError) Error() string {
	return fmt.Sprintf("build profile %q: %v", e.Lang, e.Err)
}

func (e *ProfileBuildError) Unwrap() error { return e.Err }

// Profile is the persisted n-gram model of one language.
type Profile struct {
	Name string         `json:"name"`
	Freq map[string]int `json:"freq"`
	// NWords holds the total count of kept grams per gram length, starting
	// at length 1.
	NWords []int `json:"n_words"`
}

// Builder aggregates corpus text into a Profile.
type Builder struct {
	Extractor    ngram.Extractor
	MinFrequency int
}

// NewBuilder returns a builder using the standard extractor and minFreq,
// or DefaultMinFrequency when minFreq is not positive.
func NewBuilder(minFreq int) *Builder {
	if minFreq <= 0 {
		minFreq = DefaultMinFrequency
	}
	return &Builder{Extractor: ngram.Standard(), MinFrequency: minFreq}
}

var (
	urlRe   = regexp.MustCompile(`(?i)\b(?:https?|ftp)://\S+|\bwww\.\S+`)
	emailRe = regexp.MustCompile(`[\p{L}\p{N}._%+-]+@[\p{L}\p{N}.-]+\.\p{L}{2,}`)
)

// PrepareText normalizes corpus text before n-gram extraction.
func PrepareText(s string) string {
	s = norm.NFC.String(s)
	s = urlRe.ReplaceAllLiteralString(s, " ")
	s = emailRe.ReplaceAllLiteralString(s, " ")
	return s
}

// ReadCorpus reads a corpus file and joins its trimmed non-blank lines with
// single spaces.
func ReadCorpus(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	r := bufio.NewReaderSize(f, 64<<10)
	var b strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		line, rerr := r.ReadString('\n')
		if t := strings.TrimSpace(line); t != "" {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(t)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", rerr
		}
	}
	return b.String(), nil
}

// Build reads the corpus at corpusPath and returns the profile for lang.
// All failures are returned as *ProfileBuildError.
func (b *Builder) Build(ctx context.Context, corpusPath, lang string) (*Profile, error) {
	text, err := ReadCorpus(ctx, corpusPath)
	if err != nil {
		return nil, &ProfileBuildError{Lang: lang, Err: err}
	}
	if text == "" {
		return nil, &ProfileBuildError{Lang: lang, Err: ErrEmptyCorpus}
	}
	p := b.FromText(lang, PrepareText(text))
	if len(p.Freq) == 0 {
		return nil, &ProfileBuildError{Lang: lang, Err: ErrNoNgrams}
	}
	log.Debug().Str("lang", lang).Int("chars", len(text)).Int("ngrams", len(p.Freq)).Msg("profile built")
	return p, nil
}

// FromText counts the n-grams of text and applies the frequency cutoff.
func (b *Builder) FromText(lang, text string) *Profile {
	counts := make(map[string]int)
	b.Extractor.Count(text, counts)
	p := &Profile{Name: lang, Freq: make(map[string]int), NWords: make([]int, b.Extractor.MaxLength)}
	for gram, n := range counts {
		if n < b.MinFrequency {
			continue
		}
		p.Freq[gram] = n
		if l := len([]rune(gram)); l >= 1 && l <= len(p.NWords) {
			p.NWords[l-1] += n
		}
	}
	return p
}

// Top returns up to n grams ordered by descending count, then by gram.
func (p *Profile) Top(n int) []string {
	grams := make([]string, 0, len(p.Freq))
	for g := range p.Freq {
		grams = append(grams, g)
	}
	sort.Slice(grams, func(i, j int) bool {
		ci, cj := p.Freq[grams[i]], p.Freq[grams[j]]
		if ci != cj {
			return ci > cj
		}
		return grams[i] < grams[j]
	})
	if n >= 0 && len(grams) > n {
		grams = grams[:n]
	}
	return grams
}

// Write stores p as JSON at path. The file is replaced atomically so a
// failed write never leaves a partial profile behind.
func Write(p *Profile, path string) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// Read loads a profile written by Write.
func Read(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}
	return &p, nil
}
