package textutil

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// stopWords are excluded from keyword overlap so that articles and
// filler words never count as message-match evidence.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "but": {}, "by": {}, "for": {}, "from": {}, "get": {},
	"has": {}, "have": {}, "here": {}, "how": {}, "i": {}, "in": {},
	"is": {}, "it": {}, "its": {}, "more": {}, "my": {}, "no": {},
	"not": {}, "now": {}, "of": {}, "on": {}, "or": {}, "our": {},
	"so": {}, "that": {}, "the": {}, "their": {}, "them": {},
	"there": {}, "this": {}, "to": {}, "up": {}, "was": {}, "we": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "will": {},
	"with": {}, "you": {}, "your": {},
}

// Tokenize lowercases s, splits it on non-letter/non-digit runes, and
// drops stop words and single-character tokens.
func Tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, ok := stopWords[f]; ok {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// TokenSet returns the distinct tokens of s.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range Tokenize(s) {
		set[t] = struct{}{}
	}
	return set
}

// OverlapRatio computes |source ∩ target| / |source| over token sets,
// counting near-matches (Levenshtein distance <= 2 for tokens of at
// least 5 characters) as hits so that plural/verb-form drift between a
// CTA and the landing headline still registers.
func OverlapRatio(source, target string) float64 {
	src := TokenSet(source)
	if len(src) == 0 {
		return 0
	}
	dst := TokenSet(target)

	matched := 0
	for s := range src {
		if _, ok := dst[s]; ok {
			matched++
			continue
		}
		if len(s) < 5 {
			continue
		}
		for d := range dst {
			if len(d) >= 5 && levenshtein.ComputeDistance(s, d) <= 2 {
				matched++
				break
			}
		}
	}

	return float64(matched) / float64(len(src))
}

// ContainsAny reports whether the lowercased text contains at least one
// of the given keywords, and returns how many distinct keywords hit.
func ContainsAny(text string, keywords []string) (bool, int) {
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits > 0, hits
}

// KeywordDensity returns hits-per-hundred-tokens for the given keyword
// list, used as a proxy for how strongly a page leans on a theme.
func KeywordDensity(text string, keywords []string) float64 {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	kwSet := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kwSet[kw] = struct{}{}
	}

	hits := 0
	for _, t := range tokens {
		if _, ok := kwSet[t]; ok {
			hits++
		}
	}

	return float64(hits) / float64(len(tokens)) * 100
}
