package store

import (
	"regexp"
	"strings"
	"unicode"
)

// tokenRegex matches alphanumeric sequences, underscores included for the
// initial split.
var tokenRegex = regexp.MustCompile(`[a-zA-Z0-9_]+`)

// DefaultStopWords are filtered out of indexed lines and queries.
var DefaultStopWords = []string{
	"a", "an", "and", "at", "be", "by", "for", "from", "in", "is",
	"of", "on", "or", "the", "to", "was", "with",
}

var defaultStopWords = BuildStopWordMap(DefaultStopWords)

// TokenizeLine splits a log line into lowercase search tokens. Identifiers
// in camelCase or snake_case are split into their words, and stop words are
// dropped.
func TokenizeLine(text string) []string {
	var tokens []string
	for _, word := range tokenRegex.FindAllString(text, -1) {
		for _, t := range SplitIdentifier(word) {
			lower := strings.ToLower(t)
			if _, stop := defaultStopWords[lower]; !stop {
				tokens = append(tokens, lower)
			}
		}
	}
	return tokens
}

// SplitIdentifier splits camelCase and snake_case identifiers.
func SplitIdentifier(token string) []string {
	if !strings.Contains(token, "_") {
		return SplitCamelCase(token)
	}
	var result []string
	for _, part := range strings.Split(token, "_") {
		if part != "" {
			result = append(result, SplitCamelCase(part)...)
		}
	}
	return result
}

// SplitCamelCase splits camelCase and PascalCase identifiers.
// Examples:
//   - "connectionReset" -> ["connection", "Reset"]
//   - "HTTPError" -> ["HTTP", "Error"]
//   - "parseHTTPRequest" -> ["parse", "HTTP", "Request"]
func SplitCamelCase(s string) []string {
	if s == "" {
		return []string{}
	}

	var result []string
	var current strings.Builder

	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevIsLower := unicode.IsLower(runes[i-1])
			nextIsLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			// Split before an uppercase letter ending a lowercase run or
			// starting a word after an acronym.
			if (prevIsLower || nextIsLower) && current.Len() > 0 {
				result = append(result, current.String())
				current.Reset()
			}
		}
		current.WriteRune(r)
	}

	if current.Len() > 0 {
		result = append(result, current.String())
	}
	return result
}

// BuildStopWordMap converts a slice of stop words to a map for efficient lookup.
func BuildStopWordMap(stopWords []string) map[string]struct{} {
	m := make(map[string]struct{}, len(stopWords))
	for _, word := range stopWords {
		m[strings.ToLower(word)] = struct{}{}
	}
	return m
}
