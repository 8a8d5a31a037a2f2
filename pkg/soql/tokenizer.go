// Package soql implements heuristic analysis of SOQL query text: component
// extraction, syntax and security checks, complexity scoring, cost estimation,
// and synthetic execution plans. It is deliberately not a parser; the rules
// operate on string patterns and their results are approximations, not
// guarantees of server-side acceptance.
package soql

import (
	"regexp"
	"strconv"
	"strings"
)

// Clause-splitting patterns shared by the extractor and both rule sets.
var (
	selectListRe = regexp.MustCompile(`(?is)\bSELECT\s+(.*?)\s+FROM\b`)
	fromRe       = regexp.MustCompile(`(?i)\bFROM\s+([A-Za-z_]\w*)`)
	whereRe      = regexp.MustCompile(`(?is)\bWHERE\s+(.*?)(?:\s+ORDER\s+BY\b|\s+GROUP\s+BY\b|\s+LIMIT\b|$)`)
	orderByRe    = regexp.MustCompile(`(?is)\bORDER\s+BY\s+(.*?)(?:\s+LIMIT\b|$)`)
	limitRe      = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)

	whereKeywordRe   = regexp.MustCompile(`(?i)\bWHERE\b`)
	orderByKeywordRe = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
	groupByKeywordRe = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)
	havingKeywordRe  = regexp.MustCompile(`(?i)\bHAVING\b`)
	limitKeywordRe   = regexp.MustCompile(`(?i)\bLIMIT\b`)

	// Non-recursive by design: a subquery containing a nested parenthesized
	// expression is cut off at the first closing paren. The nesting-depth
	// security check uses a separate character walk instead.
	subqueryRe = regexp.MustCompile(`(?i)\(\s*SELECT[^)]+\)`)

	identifierRe = regexp.MustCompile(`^[A-Za-z_][\w.]*$`)
)

// clauses is the result of one tokenizer pass over a query string.
type clauses struct {
	raw        string
	flattened  string // raw with subquery spans removed
	selectBody string
	whereBody  string
	orderBody  string
	subqueries []string
	objects    []string
	limit      *int
	hasWhere   bool
	hasOrderBy bool
	hasGroupBy bool
	hasHaving  bool
	hasLimit   bool
}

// splitClauses slices a query into clause bodies. It never fails; malformed
// input produces a best-effort partial split that the rule sets then flag.
func splitClauses(query string) clauses {
	c := clauses{raw: query}

	for _, m := range subqueryRe.FindAllString(query, -1) {
		inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(m, "("), ")"))
		c.subqueries = append(c.subqueries, inner)
	}
	c.flattened = subqueryRe.ReplaceAllString(query, "")

	for _, m := range fromRe.FindAllStringSubmatch(query, -1) {
		c.objects = append(c.objects, m[1])
	}

	if m := selectListRe.FindStringSubmatch(c.flattened); m != nil {
		c.selectBody = strings.TrimSpace(m[1])
	}
	if m := whereRe.FindStringSubmatch(c.flattened); m != nil {
		c.whereBody = strings.TrimSpace(m[1])
	}
	if m := orderByRe.FindStringSubmatch(c.flattened); m != nil {
		c.orderBody = strings.TrimSpace(m[1])
	}
	if m := limitRe.FindStringSubmatch(query); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			c.limit = &n
		}
	}

	c.hasWhere = whereKeywordRe.MatchString(query)
	c.hasOrderBy = orderByKeywordRe.MatchString(query)
	c.hasGroupBy = groupByKeywordRe.MatchString(query)
	c.hasHaving = havingKeywordRe.MatchString(query)
	c.hasLimit = limitKeywordRe.MatchString(query)

	return c
}

// splitFieldList breaks a SELECT body into trimmed, non-empty segments.
func splitFieldList(body string) []string {
	var out []string
	for _, part := range strings.Split(body, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// lastSegment collapses a relationship-qualified name to its final segment,
// e.g. Account.Owner.Name -> Name.
func lastSegment(field string) string {
	if i := strings.LastIndex(field, "."); i >= 0 {
		return field[i+1:]
	}
	return field
}

// identifierTokens splits a clause body on anything that is not part of an
// identifier and returns the tokens that look like bare identifiers.
func identifierTokens(body string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			tok := cur.String()
			if identifierRe.MatchString(tok) {
				tokens = append(tokens, tok)
			}
			cur.Reset()
		}
	}
	for _, r := range body {
		switch {
		case r == '\'':
			inQuote = !inQuote
			flush()
		case inQuote:
			// quoted literals never yield identifiers
		case r == '_' || r == '.' || r == ':' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// maxSelectNesting walks the query counting the depth of parenthesized
// SELECTs. Only parens immediately (after whitespace) followed by the SELECT
// keyword contribute to depth.
func maxSelectNesting(query string) int {
	maxDepth, depth := 0, 0
	var stack []bool
	inQuote := false

	for i := 0; i < len(query); i++ {
		ch := query[i]
		if ch == '\'' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		switch ch {
		case '(':
			isSelect := startsWithSelect(query[i+1:])
			stack = append(stack, isSelect)
			if isSelect {
				depth++
				if depth > maxDepth {
					maxDepth = depth
				}
			}
		case ')':
			if n := len(stack); n > 0 {
				if stack[n-1] {
					depth--
				}
				stack = stack[:n-1]
			}
		}
	}
	return maxDepth
}

// startsWithSelect reports whether s begins, after optional whitespace, with
// the SELECT keyword.
func startsWithSelect(s string) bool {
	j := 0
	for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
		j++
	}
	if len(s)-j < len("SELECT") {
		return false
	}
	if !strings.EqualFold(s[j:j+6], "SELECT") {
		return false
	}
	rest := s[j+6:]
	return rest == "" || !isWordByte(rest[0])
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// balancedParens reports whether parentheses outside string literals balance.
func balancedParens(query string) bool {
	count := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		switch query[i] {
		case '\'':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				count++
			}
		case ')':
			if !inQuote {
				count--
				if count < 0 {
					return false
				}
			}
		}
	}
	return count == 0
}
