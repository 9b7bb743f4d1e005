package langdir

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDir(t *testing.T, code string, files map[string]string) Dir {
	t.Helper()
	root := t.TempDir()
	d, err := New(root, code)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(d.Path(), 0o755))
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(d.Path(), name), []byte(content), 0o644))
	}
	return d
}

func TestValidateCode(t *testing.T) {
	for _, ok := range []string{"nb", "en", "zh_tw", "x1"} {
		assert.NoError(t, ValidateCode(ok), ok)
	}
	for _, bad := range []string{"", "nb-NO", "../etc", "a b", "de/"} {
		assert.ErrorIs(t, ValidateCode(bad), ErrInvalidCode, bad)
	}
}

func TestKnownISO(t *testing.T) {
	assert.True(t, KnownISO("nb"))
	assert.True(t, KnownISO("de"))
	assert.False(t, KnownISO("1234"))
	assert.False(t, KnownISO("zz_top"))
}

func TestPaths(t *testing.T) {
	d, err := New("/profiles", "sv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/profiles", "sv", "sv.properties"), d.PropertiesPath())
	assert.Equal(t, filepath.Join("/profiles", "sv", "sv.urls"), d.URLsPath())
	assert.Equal(t, filepath.Join("/profiles", "sv", "sv.strings"), d.CorpusPath())
	assert.Equal(t, filepath.Join("/profiles", "sv", "sv"), d.ProfilePath())
	assert.Equal(t, filepath.Join("/profiles", "sv", "stopwords.txt"), d.StopwordsPath())

	d, err = New("", "sv")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("sv", "sv.strings"), d.CorpusPath())

	_, err = New("/profiles", "../sv")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestCacheValid(t *testing.T) {
	d := setupDir(t, "fi", map[string]string{"fi.strings": strings.Repeat("a", MinCacheBytes)})
	assert.True(t, d.CacheValid(MinCacheBytes))
	assert.False(t, d.CacheValid(MinCacheBytes+1))

	empty := setupDir(t, "fi", nil)
	assert.False(t, empty.CacheValid(0))
	assert.Equal(t, int64(-1), empty.CacheSize())
	assert.True(t, empty.Exists())
	assert.False(t, empty.HasURLs())
}

func TestClean_OnlyRemovesCorpus(t *testing.T) {
	d := setupDir(t, "da", map[string]string{
		"da.strings":    "corpus",
		"da.properties": "mustContainChars=æøå",
		"da.urls":       "https://example.dk/",
		"stopwords.txt": "og\n",
		"da":            "{}",
	})
	removed, err := d.Clean()
	require.NoError(t, err)
	assert.True(t, removed)
	for _, name := range []string{"da.properties", "da.urls", "stopwords.txt", "da"} {
		_, err := os.Stat(filepath.Join(d.Path(), name))
		assert.NoError(t, err, name)
	}
	_, err = os.Stat(d.CorpusPath())
	assert.True(t, os.IsNotExist(err))

	removed, err = d.Clean()
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestParseProperties(t *testing.T) {
	src := strings.Join([]string{
		"# comment",
		"! also comment",
		"",
		"mustContainChars = æøå",
		"mustNotContainChars:äö",
		"spaced   value here",
		"escaped\\ key=a\\tb",
		"unicode=\\u00e6\\u00F8",
		"multi = one, \\",
		"    two",
		"empty=",
		"   lead=trim",
		"literal=${mustContainChars}",
	}, "\n")
	props, err := ParseProperties(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"mustContainChars":    "æøå",
		"mustNotContainChars": "äö",
		"spaced":              "value here",
		"escaped key":         "a\tb",
		"unicode":             "æø",
		"multi":               "one, two",
		"empty":               "",
		"lead":                "trim",
		"literal":             "${mustContainChars}",
	}, props)
}

func TestParseProperties_BadEscape(t *testing.T) {
	_, err := ParseProperties(strings.NewReader("k=\\u12"))
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	d := setupDir(t, "nb", map[string]string{"nb.properties": "mustContainChars=æøå\nmustNotContainChars=äö\nextra=1\n"})
	cfg, err := LoadConfig(d.PropertiesPath())
	require.NoError(t, err)
	assert.Equal(t, "æøå", cfg.MustContainChars)
	assert.Equal(t, "äö", cfg.MustNotContainChars)
	assert.Equal(t, "1", cfg.Props["extra"])
}

func TestLoadConfig_MissingIsEmpty(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.properties"))
	require.NoError(t, err)
	assert.Empty(t, cfg.MustContainChars)
	assert.Empty(t, cfg.MustNotContainChars)
}

func TestLoadConfig_Unreadable(t *testing.T) {
	// a directory in place of the file cannot be read
	d := setupDir(t, "nb", nil)
	require.NoError(t, os.Mkdir(d.PropertiesPath(), 0o755))
	_, err := LoadConfig(d.PropertiesPath())
	assert.Error(t, err)
}

func TestLoadStopwords(t *testing.T) {
	d := setupDir(t, "en", map[string]string{"stopwords.txt": "The\n\n  and \nOF\n"})
	words, err := LoadStopwords(d.StopwordsPath())
	require.NoError(t, err)
	assert.Equal(t, []string{"the", "and", "of"}, words)

	words, err = LoadStopwords(filepath.Join(t.TempDir(), "stopwords.txt"))
	require.NoError(t, err)
	assert.Empty(t, words)
}
