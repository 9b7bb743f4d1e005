package langdir

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/magiconair/properties"
)

// ProfileConfig holds the per-language cleaning settings.
type ProfileConfig struct {
	MustContainChars    string
	MustNotContainChars string
	// Props keeps every key of the properties file.
	Props map[string]string
}

const (
	keyMustContain    = "mustContainChars"
	keyMustNotContain = "mustNotContainChars"
)

// LoadConfig reads a .properties file. A missing file yields an empty
// config.
func LoadConfig(path string) (ProfileConfig, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return ProfileConfig{Props: map[string]string{}}, nil
	}
	if err != nil {
		return ProfileConfig{}, err
	}
	defer f.Close()
	props, err := ParseProperties(f)
	if err != nil {
		return ProfileConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return ProfileConfig{
		MustContainChars:    props[keyMustContain],
		MustNotContainChars: props[keyMustNotContain],
		Props:               props,
	}, nil
}

// ParseProperties reads Java properties syntax: '#' and '!' comments,
// '=', ':' or whitespace separators, backslash continuation and escapes.
// ${key} references are kept literally.
func ParseProperties(r io.Reader) (map[string]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadBytes(b)
	if err != nil {
		return nil, err
	}
	return p.Map(), nil
}

// LoadStopwords reads one stopword per line, trimmed and lower-cased.
// Blank lines are skipped and a missing file yields no stopwords.
func LoadStopwords(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		w := strings.ToLower(strings.TrimSpace(sc.Text()))
		if w == "" {
			continue
		}
		words = append(words, w)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
