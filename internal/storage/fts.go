package storage

import (
	"regexp"
	"strings"
)

// ftsTermPattern matches the word runs the unicode61 tokenizer would index
var ftsTermPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Terms splits free text into FTS5-safe word terms, dropping punctuation
// and anything FTS5 would read as syntax (quotes, parentheses, operators).
func Terms(text string) []string {
	return ftsTermPattern.FindAllString(text, -1)
}

// QuoteTerm wraps a term in double quotes so FTS5 treats it as a literal
// string rather than as a keyword such as OR, NOT or NEAR.
func QuoteTerm(term string) string {
	return `"` + strings.ReplaceAll(term, `"`, `""`) + `"`
}

// MatchAny builds a MATCH expression that matches rows containing any term
func MatchAny(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		quoted = append(quoted, QuoteTerm(t))
	}
	return strings.Join(quoted, " OR ")
}

// MatchPrefix builds a MATCH expression requiring every term, with the last
// term matched as a prefix. Returns "" when there are no terms.
func MatchPrefix(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		quoted = append(quoted, QuoteTerm(t))
	}
	if len(quoted) == 0 {
		return ""
	}
	quoted[len(quoted)-1] += "*"
	return strings.Join(quoted, " ")
}

// SanitizeFTSQuery turns arbitrary user text into an OR query over its terms
func SanitizeFTSQuery(query string) string {
	return MatchAny(Terms(query))
}
