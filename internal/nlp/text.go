// Package nlp holds the text pipeline shared by classifier training and
// inference: case folding, tokenization, stemming and n-gram features.
package nlp

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalize returns the case-folded form of raw message text.
// A cases.Caser is stateful, so one is created per call.
func Normalize(text string) string {
	return cases.Fold().String(text)
}

// DisplayName title-cases a normalized key for use in a reply
func DisplayName(key string) string {
	return cases.Title(language.English).String(key)
}

// IsBlank reports whether text has no non-space characters
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Tokenize splits normalized text into maximal runs of letters and digits.
// Punctuation and whitespace separate tokens and are discarded.
func Tokenize(text string) []string {
	return strings.FieldsFunc(Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Stem reduces every token to its English stem
func Stem(tokens []string) []string {
	stems := make([]string, len(tokens))
	for i, tok := range tokens {
		stems[i] = english.Stem(tok, true)
	}
	return stems
}

// Features returns the unigram..maxN n-grams of the stemmed tokens of text.
// Higher orders are only produced when the token count permits.
func Features(text string, maxN int) []string {
	return NGrams(Stem(Tokenize(text)), maxN)
}

// NGrams joins adjacent stems with a single space for every order 1..maxN
func NGrams(stems []string, maxN int) []string {
	if maxN < 1 {
		maxN = 1
	}

	features := make([]string, 0, len(stems)*maxN)
	for n := 1; n <= maxN; n++ {
		for i := 0; i+n <= len(stems); i++ {
			features = append(features, strings.Join(stems[i:i+n], " "))
		}
	}
	return features
}
