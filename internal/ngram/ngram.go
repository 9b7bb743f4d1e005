// Package ngram extracts and counts character n-grams.
package ngram

import (
	"strings"
	"unicode"
)

// Filter reports whether a gram should be counted.
type Filter func(gram []rune) bool

// StandardFilter drops 1-grams that are a space and 3-grams whose middle
// rune is a space. Everything else is kept.
func StandardFilter(gram []rune) bool {
	switch len(gram) {
	case 1:
		return gram[0] != ' '
	case 3:
		return gram[1] != ' '
	default:
		return true
	}
}

// Extractor produces character n-grams of lengths MinLength..MaxLength.
type Extractor struct {
	MinLength int
	MaxLength int
	// Padding is placed at both ends of the text unless already present.
	// Zero disables padding.
	Padding rune
	Filter  Filter
}

// Standard returns the extractor used for language profiles: 1..3 grams,
// space padding and StandardFilter.
func Standard() Extractor {
	return Extractor{MinLength: 1, MaxLength: 3, Padding: ' ', Filter: StandardFilter}
}

// Lengths reports how many gram lengths the extractor produces.
func (e Extractor) Lengths() int {
	if e.MaxLength < e.MinLength || e.MinLength < 1 {
		return 0
	}
	return e.MaxLength - e.MinLength + 1
}

func (e Extractor) prepare(text string) []rune {
	text = strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
	if text == "" {
		return nil
	}
	runes := []rune(text)
	if e.Padding == 0 {
		return runes
	}
	if runes[0] != e.Padding {
		runes = append([]rune{e.Padding}, runes...)
	}
	if runes[len(runes)-1] != e.Padding {
		runes = append(runes, e.Padding)
	}
	return runes
}

// Count adds the grams of text into counts and returns how many grams were
// added.
func (e Extractor) Count(text string, counts map[string]int) int {
	runes := e.prepare(text)
	added := 0
	for n := e.MinLength; n >= 1 && n <= e.MaxLength; n++ {
		for i := 0; i+n <= len(runes); i++ {
			gram := runes[i : i+n]
			if e.Filter != nil && !e.Filter(gram) {
				continue
			}
			counts[string(gram)]++
			added++
		}
	}
	return added
}

// Grams returns the grams of text in extraction order, shortest first.
func (e Extractor) Grams(text string) []string {
	runes := e.prepare(text)
	var out []string
	for n := e.MinLength; n >= 1 && n <= e.MaxLength; n++ {
		for i := 0; i+n <= len(runes); i++ {
			gram := runes[i : i+n]
			if e.Filter != nil && !e.Filter(gram) {
				continue
			}
			out = append(out, string(gram))
		}
	}
	return out
}
