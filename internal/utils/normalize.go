package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldAccents strips combining marks: "calefacción" -> "calefaccion".
func FoldAccents(s string) string {
	// transform.Chain is stateful, build one per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeTerm maps a feature name onto its vocabulary form.
// "Aire acondicionado" and "aire-acondicionado" both become "aire_acondicionado".
func NormalizeTerm(term string) string {
	s := strings.ToLower(FoldAccents(strings.TrimSpace(term)))

	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if r == ' ' || r == '-' || r == '_' || r == '\t' {
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
			}
			lastUnderscore = true
			continue
		}
		b.WriteRune(r)
		lastUnderscore = false
	}

	return strings.TrimSuffix(b.String(), "_")
}

// FuzzyMatchKeyword reports whether any keyword occurs in text as a whole word
// or phrase, ignoring case and accents
func FuzzyMatchKeyword(text string, keywords ...string) bool {
	padded := " " + wordsOnly(text) + " "
	for _, kw := range keywords {
		k := wordsOnly(kw)
		if k == "" {
			continue
		}
		if strings.Contains(padded, " "+k+" ") {
			return true
		}
	}
	return false
}

// wordsOnly lowercases, folds accents and collapses punctuation into single spaces
func wordsOnly(s string) string {
	s = strings.ToLower(FoldAccents(s))
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
