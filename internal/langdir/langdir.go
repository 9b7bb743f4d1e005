// Package langdir owns the on-disk layout of one language profile directory
// and loading of its configuration files.
package langdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"golang.org/x/text/language"
)

// MinCacheBytes is the size from which an existing corpus cache is reused.
const MinCacheBytes = 10000

// ErrInvalidCode is returned for codes that cannot name a directory.
var ErrInvalidCode = errors.New("invalid language code")

var codeRe = regexp.MustCompile(`^\w+$`)

// ValidateCode checks that code is a plain word usable as a file name stem.
func ValidateCode(code string) error {
	if !codeRe.MatchString(code) {
		return fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	return nil
}

// KnownISO reports whether code is a known ISO 639 language code.
func KnownISO(code string) bool {
	_, err := language.ParseBase(code)
	return err == nil
}

// Dir is the directory of one language below a profiles root.
type Dir struct {
	Root string
	Code string
}

// New validates code and returns its directory handle.
func New(root, code string) (Dir, error) {
	if err := ValidateCode(code); err != nil {
		return Dir{}, err
	}
	if root == "" {
		root = "."
	}
	return Dir{Root: root, Code: code}, nil
}

func (d Dir) Path() string { return filepath.Join(d.Root, d.Code) }
func (d Dir) file(suffix string) string { return filepath.Join(d.Path(), d.Code+suffix) }
func (d Dir) PropertiesPath() string { return d.file(".properties") }
func (d Dir) URLsPath() string { return d.file(".urls") }
func (d Dir) CorpusPath() string { return d.file(".strings") }
func (d Dir) ProfilePath() string { return d.file("") }
func (d Dir) StopwordsPath() string { return filepath.Join(d.Path(), "stopwords.txt") }

// Exists reports whether the language directory is present.
func (d Dir) Exists() bool {
	fi, err := os.Stat(d.Path())
	return err == nil && fi.IsDir()
}

// HasURLs reports whether the URL list exists.
func (d Dir) HasURLs() bool {
	fi, err := os.Stat(d.URLsPath())
	return err == nil && !fi.IsDir()
}

// CacheSize returns the corpus cache size, or -1 when it does not exist.
func (d Dir) CacheSize() int64 {
	fi, err := os.Stat(d.CorpusPath())
	if err != nil || fi.IsDir() {
		return -1
	}
	return fi.Size()
}

// CacheValid reports whether the corpus cache exists and holds at least
// minBytes bytes.
func (d Dir) CacheValid(minBytes int64) bool {
	size := d.CacheSize()
	return size >= 0 && size >= minBytes
}

// Clean removes the corpus cache and nothing else. It reports whether a file
// was removed; a missing cache is not an error.
func (d Dir) Clean() (bool, error) {
	err := os.Remove(d.CorpusPath())
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
