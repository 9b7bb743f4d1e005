// Package rules implements the ordered text-cleaning chain applied to every
// fetched document before it is added to a language corpus.
package rules

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
)

// Rule is one text transformation. Apply must be a pure function of its
// input and the rule's own fields.
type Rule interface {
	Name() string
	Apply(text string) string
}

// Chain applies rules in order, each on the previous rule's output.
type Chain struct {
	rules  []Rule
	logger zerolog.Logger
}

// New returns a chain of the given rules. Nil rules are dropped.
func New(rs ...Rule) *Chain {
	c := &Chain{logger: log.Logger}
	for _, r := range rs {
		if r != nil {
			c.rules = append(c.rules, r)
		}
	}
	return c
}

// Standard builds the fixed profile-cleaning order: containment filters on
// the raw text, then punctuation, digit runs and stopwords.
func Standard(mustContain, mustNotContain string, stopwords StopwordSet) *Chain {
	return New(
		MustContain{Chars: mustContain},
		MustNotContain{Chars: mustNotContain},
		Punctuation{},
		DigitRuns{},
		Stopwords{Set: stopwords},
	)
}

// WithLogger returns the chain logging per-rule size changes to l.
func (c *Chain) WithLogger(l zerolog.Logger) *Chain {
	c.logger = l
	return c
}

// Names lists the rules in application order.
func (c *Chain) Names() []string {
	out := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		out = append(out, r.Name())
	}
	return out
}

// Apply runs every rule over text.
func (c *Chain) Apply(text string) string {
	for _, r := range c.rules {
		before := len(text)
		text = r.Apply(text)
		c.logger.Debug().Str("rule", r.Name()).Int("before", before).Int("after", len(text)).Msg("applied rule")
	}
	return text
}

// MustContain drops the whole text unless at least one of Chars occurs in
// it. An empty Chars disables the rule.
type MustContain struct{ Chars string }

func (MustContain) Name() string { return "mustContainChars" }

func (r MustContain) Apply(text string) string {
	if r.Chars == "" || strings.ContainsAny(text, r.Chars) {
		return text
	}
	return ""
}

// MustNotContain drops the whole text if any of Chars occurs in it. An empty
// Chars disables the rule.
type MustNotContain struct{ Chars string }

func (MustNotContain) Name() string { return "mustNotContainChars" }

func (r MustNotContain) Apply(text string) string {
	if r.Chars != "" && strings.ContainsAny(text, r.Chars) {
		return ""
	}
	return text
}

// punctRe matches Unicode punctuation plus the ASCII symbols that POSIX
// counts as punctuation ($, +, <, =, >, ^, `, |, ~).
var punctRe = regexp.MustCompile(`[\p{P}[:punct:]]`)

// Punctuation replaces every punctuation character with one space.
type Punctuation struct{}

func (Punctuation) Name() string { return "punctuation" }

func (Punctuation) Apply(text string) string {
	if text == "" {
		return text
	}
	return punctRe.ReplaceAllLiteralString(text, " ")
}

// DigitRuns replaces each standalone run of decimal digits with one space.
// Digits glued to letters, as in "mp3" or "3d", are kept.
type DigitRuns struct{}

func (DigitRuns) Name() string { return "digits" }

func (DigitRuns) Apply(text string) string {
	return replaceWords(text, func(word string) bool {
		for _, r := range word {
			if !unicode.IsDigit(r) {
				return false
			}
		}
		return true
	})
}

// StopwordSet holds case-folded stopwords for one language.
type StopwordSet map[string]struct{}

// NewStopwordSet folds and stores words, skipping blanks. An entry holding
// several words is stored as a phrase with single spaces between them.
func NewStopwordSet(words []string) StopwordSet {
	fold := cases.Fold()
	set := make(StopwordSet, len(words))
	for _, w := range words {
		w = strings.Join(strings.Fields(w), " ")
		if w == "" {
			continue
		}
		set[fold.String(w)] = struct{}{}
	}
	return set
}

// phrases returns the multi-word entries split into words, longest first.
func (s StopwordSet) phrases() [][]string {
	var out [][]string
	for w := range s {
		if strings.Contains(w, " ") {
			out = append(out, strings.Split(w, " "))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return strings.Join(out[i], " ") < strings.Join(out[j], " ")
	})
	return out
}

// Contains reports whether word matches a stopword, ignoring case.
func (s StopwordSet) Contains(word string) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[cases.Fold().String(word)]
	return ok
}

// Stopwords replaces every whole-word, case-insensitive stopword match with
// one space. Phrase entries match words separated only by whitespace and are
// replaced before single words.
type Stopwords struct{ Set StopwordSet }

func (Stopwords) Name() string { return "stopwords" }

func (r Stopwords) Apply(text string) string {
	if len(r.Set) == 0 {
		return text
	}
	fold := cases.Fold()
	if ps := r.Set.phrases(); len(ps) > 0 {
		text = replacePhrases(text, ps, fold)
	}
	return replaceWords(text, func(word string) bool {
		_, ok := r.Set[fold.String(word)]
		return ok
	})
}

type wordSpan struct {
	start, end int
	folded     string
}

func wordSpans(text string, fold cases.Caser) []wordSpan {
	var spans []wordSpan
	start := -1
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			spans = append(spans, wordSpan{start, i, fold.String(text[start:i])})
			start = -1
		}
	}
	if start >= 0 {
		spans = append(spans, wordSpan{start, len(text), fold.String(text[start:])})
	}
	return spans
}

// replacePhrases replaces each leftmost occurrence of a phrase with a single
// space. Words of a phrase may only be separated by whitespace.
func replacePhrases(text string, phrases [][]string, fold cases.Caser) string {
	spans := wordSpans(text, fold)
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for i := 0; i < len(spans); {
		n := matchPhrase(text, spans[i:], phrases)
		if n == 0 {
			i++
			continue
		}
		b.WriteString(text[last:spans[i].start])
		b.WriteByte(' ')
		last = spans[i+n-1].end
		i += n
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// matchPhrase returns the word count of the first phrase that starts at
// spans[0], or 0.
func matchPhrase(text string, spans []wordSpan, phrases [][]string) int {
next:
	for _, p := range phrases {
		if len(p) > len(spans) {
			continue
		}
		for j, w := range p {
			if spans[j].folded != w {
				continue next
			}
			if j > 0 && strings.TrimFunc(text[spans[j-1].end:spans[j].start], unicode.IsSpace) != "" {
				continue next
			}
		}
		return len(p)
	}
	return 0
}

// isWordRune mirrors regex word-boundary semantics extended to Unicode.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// replaceWords replaces each maximal run of word runes for which match
// returns true with a single space and copies everything else unchanged.
func replaceWords(text string, match func(word string) bool) string {
	if text == "" {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	start := -1
	flush := func(end int) {
		word := text[start:end]
		if match(word) {
			b.WriteByte(' ')
		} else {
			b.WriteString(word)
		}
		start = -1
	}
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			flush(i)
		}
		b.WriteRune(r)
	}
	if start >= 0 {
		flush(len(text))
	}
	return b.String()
}

// CollapseWhitespace replaces every run of Unicode whitespace with a single
// space. Leading and trailing runs are collapsed, not trimmed.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
			continue
		}
		b.WriteRune(r)
		lastSpace = false
	}
	return b.String()
}
