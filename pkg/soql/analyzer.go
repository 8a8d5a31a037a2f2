package soql

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/atlasfield/soqlgate/pkg/models"
)

// Syntax error and security issue labels. Tests assert on membership, but the
// rule tables below are evaluated in a fixed order so results stay
// deterministic.
const (
	issueMissingSelect     = "Query must start with SELECT"
	issueMissingFrom       = "Missing FROM clause"
	issueInvalidFieldList  = "Invalid field list syntax"
	issueMissingComma      = "Missing comma in field list"
	issueUnbalancedParens  = "Unbalanced parentheses"
	issueIncompleteWhere   = "Incomplete WHERE clause"
	issueIncompleteOrderBy = "Incomplete ORDER BY clause"

	issueUnion            = "UNION statement detected"
	issueMultiStatement   = "Multiple statements detected"
	issueExcessiveNesting = "Excessive subquery nesting"
)

// Maximum allowed depth of parenthesized SELECTs.
const maxSubqueryNesting = 2

var (
	leadingSelectRe   = regexp.MustCompile(`(?i)^\s*SELECT\b`)
	fromKeywordRe     = regexp.MustCompile(`(?i)\bFROM\b`)
	doubleCommaRe     = regexp.MustCompile(`,\s*,`)
	commaBeforeFromRe = regexp.MustCompile(`(?i),\s*FROM\b`)
	danglingWhereRe   = regexp.MustCompile(`(?i)\bWHERE\s*(?:$|ORDER\s+BY\b|GROUP\s+BY\b|LIMIT\b)`)
	danglingOrderByRe = regexp.MustCompile(`(?i)\bORDER\s+BY\s*$`)
	unionRe           = regexp.MustCompile(`(?i)\bUNION\b`)
	adjacentWordsRe   = regexp.MustCompile(`^\w+\s+\w+`)
	functionShapeRe   = regexp.MustCompile(`\w+\s*\(`)
)

// Dangerous function names flagged when immediately followed by an opening
// paren.
var dangerousFunctions = []struct {
	name string
	re   *regexp.Regexp
}{
	{"EVAL", regexp.MustCompile(`(?i)\bEVAL\s*\(`)},
	{"EXEC", regexp.MustCompile(`(?i)\bEXEC\s*\(`)},
	{"EXECUTE", regexp.MustCompile(`(?i)\bEXECUTE\s*\(`)},
	{"SCRIPT", regexp.MustCompile(`(?i)\bSCRIPT\s*\(`)},
}

// syntaxRule pairs a predicate with the error label it produces. The rules
// run against both the raw query and the tokenized clauses because some
// checks (parens, dangling clauses) need the unprocessed string.
type syntaxRule struct {
	name  string
	label string
	check func(query string, c clauses) bool
}

var syntaxRules = []syntaxRule{
	{
		name:  "leading_select",
		label: issueMissingSelect,
		check: func(query string, _ clauses) bool {
			return !leadingSelectRe.MatchString(query)
		},
	},
	{
		name:  "missing_from",
		label: issueMissingFrom,
		check: func(query string, _ clauses) bool {
			return !fromKeywordRe.MatchString(query)
		},
	},
	{
		name:  "invalid_field_list",
		label: issueInvalidFieldList,
		check: func(query string, _ clauses) bool {
			return doubleCommaRe.MatchString(query) || commaBeforeFromRe.MatchString(query)
		},
	},
	{
		name:  "missing_comma",
		label: issueMissingComma,
		check: func(_ string, c clauses) bool {
			for _, part := range splitFieldList(c.selectBody) {
				if adjacentWordsRe.MatchString(part) && !functionShapeRe.MatchString(part) {
					return true
				}
			}
			return false
		},
	},
	{
		name:  "unbalanced_parens",
		label: issueUnbalancedParens,
		check: func(query string, _ clauses) bool {
			return !balancedParens(query)
		},
	},
	{
		name:  "incomplete_where",
		label: issueIncompleteWhere,
		check: func(query string, c clauses) bool {
			return c.hasWhere && danglingWhereRe.MatchString(strings.TrimSpace(query))
		},
	},
	{
		name:  "incomplete_order_by",
		label: issueIncompleteOrderBy,
		check: func(query string, c clauses) bool {
			return c.hasOrderBy && danglingOrderByRe.MatchString(strings.TrimSpace(query))
		},
	},
}

// securityCheck produces zero or more issue labels for a query. Checks that
// can fire per-match (dangerous functions) return one label per hit.
type securityCheck struct {
	name  string
	check func(query string, c clauses) []string
}

var securityChecks = []securityCheck{
	{
		name: "union",
		check: func(query string, _ clauses) []string {
			if unionRe.MatchString(query) {
				return []string{issueUnion}
			}
			return nil
		},
	},
	{
		name: "multi_statement",
		check: func(query string, _ clauses) []string {
			statements := 0
			for _, part := range strings.Split(query, ";") {
				if strings.TrimSpace(part) != "" {
					statements++
				}
			}
			if statements > 1 {
				return []string{issueMultiStatement}
			}
			return nil
		},
	},
	{
		name: "dangerous_functions",
		check: func(query string, _ clauses) []string {
			var issues []string
			for _, fn := range dangerousFunctions {
				if fn.re.MatchString(query) {
					issues = append(issues, fmt.Sprintf("Dangerous function detected: %s", fn.name))
				}
			}
			return issues
		},
	},
	{
		name: "nesting_depth",
		check: func(query string, _ clauses) []string {
			if maxSelectNesting(query) > maxSubqueryNesting {
				return []string{issueExcessiveNesting}
			}
			return nil
		},
	},
}

// Analyzer runs the validate_soql rule set over query text.
type Analyzer struct{}

// NewAnalyzer creates a query analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// DetectSyntaxErrors evaluates the syntax rule table in order and returns
// every matching error label.
func (a *Analyzer) DetectSyntaxErrors(query string) []string {
	c := splitClauses(query)
	var errs []string
	for _, rule := range syntaxRules {
		if rule.check(query, c) {
			errs = append(errs, rule.label)
		}
	}
	return errs
}

// DetectSecurityIssues evaluates the security checks in order and returns
// every issue label.
func (a *Analyzer) DetectSecurityIssues(query string) []string {
	c := splitClauses(query)
	var issues []string
	for _, chk := range securityChecks {
		issues = append(issues, chk.check(query, c)...)
	}
	return issues
}

// Analyze produces the full validate_soql analysis for a query. It is a pure
// function of the query text and always returns a result; invalid queries are
// reported through IsValid and the error lists rather than an error return.
func (a *Analyzer) Analyze(query string) *models.AnalysisResult {
	comp := ExtractComponents(query)
	securityIssues := a.DetectSecurityIssues(query)
	syntaxErrors := a.DetectSyntaxErrors(query)

	result := &models.AnalysisResult{
		Query:           query,
		IsValid:         len(securityIssues) == 0 && len(syntaxErrors) == 0,
		QueryType:       QueryType(query),
		Objects:         comp.Objects,
		Fields:          comp.Fields,
		HasWhereClause:  comp.HasWhere,
		WhereFields:     comp.WhereFields,
		HasOrderBy:      comp.HasOrderBy,
		OrderByFields:   comp.OrderByFields,
		HasLimit:        comp.HasLimit,
		LimitValue:      comp.LimitValue,
		SecurityIssues:  securityIssues,
		SyntaxErrors:    syntaxErrors,
		Complexity:      scoreComplexity(query, comp),
		Recommendations: buildRecommendations(query, comp),
	}
	return result
}

// Complexity level thresholds over the weighted score.
func complexityLevel(score int) string {
	switch {
	case score > 10:
		return "very complex"
	case score > 5:
		return "complex"
	case score > 2:
		return "moderate"
	default:
		return "simple"
	}
}

var joinKeywordRe = regexp.MustCompile(`(?i)\bJOIN\b`)

// scoreComplexity computes the weighted complexity score from component
// counts. SOQL has no JOIN syntax, but the join term is tracked anyway for
// explicit relationship queries.
func scoreComplexity(query string, comp models.QueryComponents) models.Complexity {
	factors := models.ComplexityFactors{
		FieldCount:          len(comp.Fields),
		ObjectCount:         len(comp.Objects),
		SubqueryCount:       len(comp.Subqueries),
		JoinCount:           len(joinKeywordRe.FindAllString(query, -1)),
		WhereConditionCount: len(comp.WhereFields),
	}

	raw := float64(factors.FieldCount)*0.1 +
		float64(factors.ObjectCount)*0.5 +
		float64(factors.SubqueryCount)*2 +
		float64(factors.JoinCount)*1.5 +
		float64(factors.WhereConditionCount)*0.2

	score := int(math.Round(math.Max(1, raw)))

	return models.Complexity{
		Score:   score,
		Level:   complexityLevel(score),
		Factors: factors,
	}
}
