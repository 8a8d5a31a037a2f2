package soql

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/atlasfield/soqlgate/pkg/models"
)

// Selectivity discounts applied per WHERE field. Id filters are assumed
// near-unique, date filters narrow, type/status filters moderately selective.
const (
	selectivityFloor      = 0.001
	idFieldDiscount       = 0.001
	dateFieldDiscount     = 0.1
	typeFieldDiscount     = 0.2
	defaultFieldDiscount  = 0.3
	unfilteredSelectivity = 0.5
)

// Cost score thresholds mapping the integer score to LOW/MEDIUM/HIGH.
const (
	costScoreLowMax    = 1
	costScoreMediumMax = 3
)

// Relative date literals with a numeric span large enough to defeat the date
// discount.
var (
	lastNDaysRe   = regexp.MustCompile(`(?i)\bLAST_N_DAYS\s*:\s*(\d+)`)
	lastNMonthsRe = regexp.MustCompile(`(?i)\bLAST_N_MONTHS\s*:\s*(\d+)`)
)

const (
	largeDateRangeDays   = 300
	largeDateRangeMonths = 20
)

// Planner synthesizes performance analyses and execution plans for queries.
// It shares the tokenizer with the Analyzer but runs its own, deliberately
// separate validation rule set; the two tables overlap without being
// identical and are kept apart on purpose.
type Planner struct {
	analyzer *Analyzer
}

// NewPlanner creates a query planner.
func NewPlanner() *Planner {
	return &Planner{analyzer: NewAnalyzer()}
}

// ValidateQuery runs the planner-side validation checks in order and returns
// every matching error label. Unlike the analyzer's syntax table it has no
// field-list comma heuristics.
func (p *Planner) ValidateQuery(query string) []string {
	var errs []string
	if !leadingSelectRe.MatchString(query) {
		errs = append(errs, issueMissingSelect)
	}
	if !fromKeywordRe.MatchString(query) {
		errs = append(errs, issueMissingFrom)
	}
	if !balancedParens(query) {
		errs = append(errs, issueUnbalancedParens)
	}
	if whereKeywordRe.MatchString(query) && danglingWhereRe.MatchString(strings.TrimSpace(query)) {
		errs = append(errs, issueIncompleteWhere)
	}
	return errs
}

// Explain produces the full explain_query_plan analysis for a query. The
// metadata map carries per-object estimates keyed by object name; objects
// missing from the map fall back to default heuristics, so a single unknown
// object degrades the estimate rather than failing the analysis. Explain is a
// pure function of the query text and the supplied metadata.
func (p *Planner) Explain(query string, meta map[string]models.ObjectMetadata) *models.PerformanceAnalysis {
	base := p.analyzer.Analyze(query)
	comp := ExtractComponents(query)

	perf := p.estimatePerformance(query, comp, meta)
	plan := buildExecutionPlan(comp, perf)

	result := &models.PerformanceAnalysis{
		AnalysisResult: *base,
		Performance:    perf,
		ExecutionPlan:  plan,
		Subqueries:     p.analyzeSubqueries(comp.Subqueries, meta),
		Warnings:       buildWarnings(query, comp, perf),
	}
	// The planner carries its own advisory set keyed off index membership,
	// replacing the validate-side recommendations.
	result.Recommendations = p.planRecommendations(comp, perf)

	return result
}

// analyzeSubqueries runs the estimator over each captured subquery. Capture
// is non-recursive, so a deeply nested subquery analyzes only its outermost
// slice.
func (p *Planner) analyzeSubqueries(subqueries []string, meta map[string]models.ObjectMetadata) []models.SubqueryAnalysis {
	var out []models.SubqueryAnalysis
	for _, sub := range subqueries {
		comp := ExtractComponents(sub)
		perf := p.estimatePerformance(sub, comp, meta)
		plan := buildExecutionPlan(comp, perf)
		out = append(out, models.SubqueryAnalysis{
			Query:         sub,
			Objects:       comp.Objects,
			Fields:        comp.Fields,
			Performance:   &perf,
			ExecutionPlan: &plan,
		})
	}
	return out
}

// estimatePerformance computes selectivity, cost, and row estimates for one
// query from its components and per-object metadata.
func (p *Planner) estimatePerformance(query string, comp models.QueryComponents, meta map[string]models.ObjectMetadata) models.Performance {
	objectMeta := func(name string) models.ObjectMetadata {
		if m, ok := meta[name]; ok {
			return m
		}
		return DefaultObjectMetadata(name)
	}

	fieldIndexed := func(field string) bool {
		for _, obj := range comp.Objects {
			if m := objectMeta(obj); m.HasIndexedField(field) {
				return true
			}
		}
		return false
	}

	selectivity := estimateSelectivity(comp)

	var indexedFields []string
	for _, f := range comp.WhereFields {
		if fieldIndexed(f) {
			indexedFields = append(indexedFields, f)
		}
	}

	sortingCost := models.CostNone
	sortIndexed := true
	if comp.HasOrderBy {
		for _, f := range comp.OrderByFields {
			if !fieldIndexed(f) {
				sortIndexed = false
				break
			}
		}
		if sortIndexed {
			sortingCost = models.CostLow
		} else {
			sortingCost = models.CostMedium
		}
	}

	total := 0
	for _, obj := range comp.Objects {
		total += objectMeta(obj).RecordCount
	}
	afterFilter := int(math.Ceil(float64(total) * selectivity))
	final := afterFilter
	if comp.HasLimit && comp.LimitValue != nil && *comp.LimitValue < afterFilter {
		final = *comp.LimitValue
	}

	score := costScore(query, comp, selectivity, len(indexedFields) > 0, sortIndexed)

	scanType := models.ScanTypeTable
	if len(indexedFields) > 0 {
		scanType = models.ScanTypeIndex
	}

	return models.Performance{
		EstimatedCost: costLevel(score),
		Selectivity:   selectivity,
		IndexedFields: indexedFields,
		SortingCost:   sortingCost,
		HasSubqueries: len(comp.Subqueries) > 0,
		EstimatedRows: models.RowEstimates{
			Total:       total,
			AfterFilter: afterFilter,
			Final:       final,
		},
		ScanType: scanType,
	}
}

// estimateSelectivity applies the per-field discount chain, or the
// unfiltered/limit heuristic when the query has no WHERE fields.
func estimateSelectivity(comp models.QueryComponents) float64 {
	if len(comp.WhereFields) == 0 {
		if comp.HasLimit && comp.LimitValue != nil {
			return math.Min(0.1, float64(*comp.LimitValue)/10000)
		}
		return unfilteredSelectivity
	}

	s := 1.0
	for _, f := range comp.WhereFields {
		switch {
		case f == "Id":
			s *= idFieldDiscount
		case strings.Contains(f, "Date"):
			s *= dateFieldDiscount
		case f == "Type" || f == "Status":
			s *= typeFieldDiscount
		default:
			s *= defaultFieldDiscount
		}
	}
	if s < selectivityFloor {
		s = selectivityFloor
	}
	return s
}

// costScore sums the integer cost components for a query.
func costScore(query string, comp models.QueryComponents, selectivity float64, hasIndexedFilter, sortIndexed bool) int {
	score := 0

	if !hasIndexedFilter {
		score++
	}

	if len(comp.WhereFields) > 0 {
		switch {
		case selectivity > 0.5:
			score += 3
		case selectivity > 0.1:
			score++
		}
	}

	if comp.HasOrderBy && !sortIndexed {
		score += 2
	}

	score += 2 * len(comp.Subqueries)

	if hasSelectStar(comp.Fields) || len(comp.Fields) > 10 {
		score++
	}

	if hasDateWhereField(comp) && hasLargeDateRange(query) {
		score += 3
	}

	if !comp.HasLimit && len(comp.WhereFields) == 0 &&
		(hasSelectStar(comp.Fields) || len(comp.Fields) > 5) {
		score++
	}

	return score
}

func costLevel(score int) string {
	switch {
	case score <= costScoreLowMax:
		return models.CostLow
	case score <= costScoreMediumMax:
		return models.CostMedium
	default:
		return models.CostHigh
	}
}

func hasDateWhereField(comp models.QueryComponents) bool {
	for _, f := range comp.WhereFields {
		if strings.Contains(f, "Date") {
			return true
		}
	}
	return false
}

// hasLargeDateRange reports whether the query carries a relative date literal
// whose span exceeds the large-range thresholds.
func hasLargeDateRange(query string) bool {
	if m := lastNDaysRe.FindStringSubmatch(query); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= largeDateRangeDays {
			return true
		}
	}
	if m := lastNMonthsRe.FindStringSubmatch(query); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= largeDateRangeMonths {
			return true
		}
	}
	return false
}

// planRecommendations is the planner-side advisory set, keyed off indexed
// field membership per WHERE and ORDER BY field.
func (p *Planner) planRecommendations(comp models.QueryComponents, perf models.Performance) []string {
	var recs []string

	indexed := make(map[string]bool, len(perf.IndexedFields))
	for _, f := range perf.IndexedFields {
		indexed[f] = true
	}

	for _, f := range comp.WhereFields {
		if !indexed[f] {
			recs = append(recs, fmt.Sprintf("Consider filtering on an indexed field instead of '%s'", f))
		}
	}
	if comp.HasOrderBy && perf.SortingCost == models.CostMedium {
		for _, f := range comp.OrderByFields {
			recs = append(recs, fmt.Sprintf("Consider sorting by an indexed field instead of '%s'", f))
		}
	}
	if hasSelectStar(comp.Fields) {
		recs = append(recs, recAvoidSelectStar)
	}
	if !comp.HasLimit {
		recs = append(recs, recAddLimit)
	}

	return recs
}

// buildWarnings flags conditions that make a query risky to run as written.
func buildWarnings(query string, comp models.QueryComponents, perf models.Performance) []string {
	var warnings []string

	if perf.EstimatedCost == models.CostHigh {
		warnings = append(warnings, "Estimated cost is HIGH; expect slow execution on large datasets")
	}
	if !comp.HasWhere && !comp.HasLimit {
		warnings = append(warnings, "Unbounded query: no WHERE clause and no LIMIT")
	}
	if hasLargeDateRange(query) {
		warnings = append(warnings, "Large relative date range may scan many rows")
	}
	if perf.ScanType == models.ScanTypeTable && perf.EstimatedRows.Total > defaultRecordCount {
		warnings = append(warnings, "Full table scan over a large object")
	}

	return warnings
}
