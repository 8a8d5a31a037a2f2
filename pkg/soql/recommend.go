package soql

import (
	"regexp"

	"github.com/atlasfield/soqlgate/pkg/models"
)

// Advisory strings emitted by the validate_soql recommendation set.
const (
	recAvoidSelectStar    = "Avoid SELECT * for better performance"
	recAddLimit           = "Consider adding LIMIT clause"
	recIndexWhereFields   = "Consider indexing frequently queried fields"
	recOptimizeSubqueries = "Consider optimizing subqueries or using relationships"
)

// relativeDateRe matches SOQL relative date literals that tend to produce
// large scans when unbounded.
var relativeDateRe = regexp.MustCompile(`(?i)\b(?:LAST_N_DAYS|LAST_N_MONTHS|THIS_YEAR|LAST_YEAR|THIS_MONTH|LAST_MONTH|TODAY|YESTERDAY)\b`)

// buildRecommendations derives the advisory list for validate_soql. Each rule
// fires independently; the output order follows the rule order here.
func buildRecommendations(query string, comp models.QueryComponents) []string {
	var recs []string

	if hasSelectStar(comp.Fields) {
		recs = append(recs, recAvoidSelectStar)
	}
	if !comp.HasLimit && (relativeDateRe.MatchString(query) || len(comp.WhereFields) > 3) {
		recs = append(recs, recAddLimit)
	}
	if len(comp.WhereFields) > 5 {
		recs = append(recs, recIndexWhereFields)
	}
	if len(comp.Subqueries) > 2 {
		recs = append(recs, recOptimizeSubqueries)
	}

	return recs
}

func hasSelectStar(fields []string) bool {
	for _, f := range fields {
		if f == "*" {
			return true
		}
	}
	return false
}
