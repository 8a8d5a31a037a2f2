package soql

import (
	"regexp"
	"strings"
)

// Patterns that indicate an attempt to break out of the FIND {...} quoting in
// a SOSL search. A closing brace followed by a SOSL clause keyword, or a
// quote character followed by a boolean operator, both suggest the term is
// trying to smuggle in query structure.
var soslBreakoutPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"brace_breakout", regexp.MustCompile(`(?i)\}\s*(RETURNING|IN|LIMIT)\b`)},
	{"quote_operator", regexp.MustCompile(`(?i)['"]\s*(OR|AND|UNION)\b`)},
}

const minSearchTermLength = 2

// Characters reserved by the SOSL FIND grammar. Each is escaped with a
// backslash before the term is embedded in a search.
var soslEscaper = strings.NewReplacer(
	`\`, `\\`,
	`?`, `\?`,
	`&`, `\&`,
	`|`, `\|`,
	`!`, `\!`,
	`{`, `\{`,
	`}`, `\}`,
	`[`, `\[`,
	`]`, `\]`,
	`(`, `\(`,
	`)`, `\)`,
	`^`, `\^`,
	`~`, `\~`,
	`*`, `\*`,
	`:`, `\:`,
	`"`, `\"`,
	`'`, `\'`,
	`+`, `\+`,
	`-`, `\-`,
)

// DetectSearchInjection returns the security issues found in a raw SOSL
// search term. An empty result means the term is safe to embed.
func DetectSearchInjection(term string) []string {
	var issues []string
	for _, p := range soslBreakoutPatterns {
		if p.re.MatchString(term) {
			issues = append(issues, "SOSL injection pattern detected: "+p.name)
		}
	}
	return issues
}

// ValidateSearchTerm checks a search term for basic shape problems and
// injection markers. It returns every issue found rather than stopping at
// the first.
func ValidateSearchTerm(term string) []string {
	var issues []string
	if len(strings.TrimSpace(term)) < minSearchTermLength {
		issues = append(issues, "Search term must be at least 2 characters")
	}
	issues = append(issues, DetectSearchInjection(term)...)
	return issues
}

// EscapeSearchTerm backslash-escapes SOSL reserved characters so the term can
// be embedded inside FIND {...} as a literal.
func EscapeSearchTerm(term string) string {
	return soslEscaper.Replace(term)
}
