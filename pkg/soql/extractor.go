package soql

import (
	"strings"

	"github.com/atlasfield/soqlgate/pkg/models"
)

// Stoplist of SQL keywords excluded from WHERE/ORDER BY field extraction.
var fieldStopwords = map[string]bool{
	"AND":   true,
	"OR":    true,
	"NOT":   true,
	"IN":    true,
	"LIKE":  true,
	"NULL":  true,
	"TRUE":  true,
	"FALSE": true,
	"ASC":   true,
	"DESC":  true,
	"NULLS": true,
	"FIRST": true,
	"LAST":  true,
}

// ExtractComponents tokenizes a query string into its logical parts. It is a
// pure function over the query text: no schema validation happens here, and
// malformed input yields a best-effort partial extraction rather than an
// error.
func ExtractComponents(query string) models.QueryComponents {
	c := splitClauses(query)

	comp := models.QueryComponents{
		Objects:    c.objects,
		Subqueries: c.subqueries,
		LimitValue: c.limit,
		HasWhere:   c.hasWhere,
		HasOrderBy: c.hasOrderBy,
		HasLimit:   c.hasLimit,
		HasGroupBy: c.hasGroupBy,
		HasHaving:  c.hasHaving,
	}

	for _, part := range splitFieldList(c.selectBody) {
		if part == "*" {
			comp.Fields = []string{"*"}
			break
		}
		if strings.ContainsAny(part, "()") {
			// aggregate or leftover subquery punctuation; not a bare field
			continue
		}
		comp.Fields = append(comp.Fields, lastSegment(part))
	}

	comp.WhereFields = filterIdentifiers(identifierTokens(c.whereBody))

	for _, part := range splitFieldList(c.orderBody) {
		toks := filterIdentifiers(identifierTokens(part))
		if len(toks) > 0 {
			comp.OrderByFields = append(comp.OrderByFields, toks[0])
		}
	}

	return comp
}

// filterIdentifiers drops stopword keywords from a token sequence.
func filterIdentifiers(tokens []string) []string {
	var out []string
	for _, tok := range tokens {
		if fieldStopwords[strings.ToUpper(tok)] {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// QueryType classifies a query by its leading keyword.
func QueryType(query string) string {
	trimmed := strings.TrimSpace(query)
	first := trimmed
	if i := strings.IndexAny(trimmed, " \t\n\r"); i >= 0 {
		first = trimmed[:i]
	}
	switch strings.ToUpper(first) {
	case "SELECT":
		return "SELECT"
	case "UPDATE":
		return "UPDATE"
	case "DELETE":
		return "DELETE"
	case "INSERT":
		return "INSERT"
	default:
		return "UNKNOWN"
	}
}
