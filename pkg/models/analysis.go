// Package models provides data structures used throughout the Salesforce MCP gateway.
package models

// QueryComponents holds the facts extracted from one SOQL query string.
// Extraction is purely textual; nothing here is checked against a live schema.
type QueryComponents struct {
	Objects       []string `json:"objects"`
	Fields        []string `json:"fields"`
	WhereFields   []string `json:"whereFields"`
	OrderByFields []string `json:"orderByFields"`
	LimitValue    *int     `json:"limitValue,omitempty"`
	Subqueries    []string `json:"subqueries"`
	HasWhere      bool     `json:"hasWhere"`
	HasOrderBy    bool     `json:"hasOrderBy"`
	HasLimit      bool     `json:"hasLimit"`
	HasGroupBy    bool     `json:"hasGroupBy"`
	HasHaving     bool     `json:"hasHaving"`
}

// ComplexityFactors breaks down the inputs to the complexity score.
type ComplexityFactors struct {
	FieldCount          int `json:"fieldCount"`
	ObjectCount         int `json:"objectCount"`
	SubqueryCount       int `json:"subqueryCount"`
	JoinCount           int `json:"joinCount"`
	WhereConditionCount int `json:"whereConditionCount"`
}

// Complexity is the scored complexity of a query.
type Complexity struct {
	Score   int               `json:"score"`
	Level   string            `json:"level"` // simple, moderate, complex, very complex
	Factors ComplexityFactors `json:"factors"`
}

// AnalysisResult is the output contract of the validate_soql tool.
type AnalysisResult struct {
	Query           string     `json:"query"`
	IsValid         bool       `json:"isValid"`
	QueryType       string     `json:"queryType"`
	Objects         []string   `json:"objects"`
	Fields          []string   `json:"fields"`
	HasWhereClause  bool       `json:"hasWhereClause"`
	WhereFields     []string   `json:"whereFields"`
	HasOrderBy      bool       `json:"hasOrderBy"`
	OrderByFields   []string   `json:"orderByFields"`
	HasLimit        bool       `json:"hasLimit"`
	LimitValue      *int       `json:"limitValue,omitempty"`
	SecurityIssues  []string   `json:"securityIssues"`
	SyntaxErrors    []string   `json:"syntaxErrors"`
	Complexity      Complexity `json:"complexity"`
	Recommendations []string   `json:"recommendations"`
}

// Cost labels used in performance estimates and plan steps.
const (
	CostLow    = "LOW"
	CostMedium = "MEDIUM"
	CostHigh   = "HIGH"
	CostNone   = "NONE"
)

// Scan types reported in performance estimates.
const (
	ScanTypeIndex = "INDEX_SCAN"
	ScanTypeTable = "TABLE_SCAN"
)

// RowEstimates carries the cascading row counts for a query.
type RowEstimates struct {
	Total       int `json:"total"`
	AfterFilter int `json:"afterFilter"`
	Final       int `json:"final"`
}

// Performance is the cost estimate attached to an explain_query_plan result.
type Performance struct {
	EstimatedCost string       `json:"estimatedCost"` // LOW, MEDIUM, HIGH
	Selectivity   float64      `json:"selectivity"`
	IndexedFields []string     `json:"indexedFields"`
	SortingCost   string       `json:"sortingCost"` // NONE, LOW, MEDIUM
	HasSubqueries bool         `json:"hasSubqueries"`
	EstimatedRows RowEstimates `json:"estimatedRows"`
	ScanType      string       `json:"scanType"` // INDEX_SCAN, TABLE_SCAN
}

// PlanStep is one logical operation in a synthesized execution plan.
type PlanStep struct {
	Step          int    `json:"step"`
	Operation     string `json:"operation"` // FILTER, SORT, LIMIT, SELECT
	Description   string `json:"description"`
	EstimatedRows int    `json:"estimatedRows"`
	Cost          string `json:"cost"`
}

// ExecutionPlan is the ordered step list implied by a query.
type ExecutionPlan struct {
	Steps         []PlanStep `json:"steps"`
	EstimatedRows int        `json:"estimatedRows"`
	TotalSteps    int        `json:"totalSteps"`
}

// SubqueryAnalysis is the per-subquery slice of a performance analysis.
type SubqueryAnalysis struct {
	Query         string         `json:"query"`
	Objects       []string       `json:"objects"`
	Fields        []string       `json:"fields"`
	Performance   *Performance   `json:"performance,omitempty"`
	ExecutionPlan *ExecutionPlan `json:"executionPlan,omitempty"`
}

// PerformanceAnalysis is the output contract of the explain_query_plan tool.
// It is a superset of AnalysisResult.
type PerformanceAnalysis struct {
	AnalysisResult
	Performance   Performance        `json:"performance"`
	ExecutionPlan ExecutionPlan      `json:"executionPlan"`
	Subqueries    []SubqueryAnalysis `json:"subqueries"`
	Warnings      []string           `json:"warnings"`
}

// ValidationFailure is returned by explain_query_plan when the query does not
// pass basic validation; no plan is synthesized in that case.
type ValidationFailure struct {
	Query   string   `json:"query"`
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
	Message string   `json:"message"`
}

// ObjectMetadata is the per-object estimate consumed by the cost estimator.
// It is derived from a describe call, or from heuristic defaults when the
// describe fails.
type ObjectMetadata struct {
	Name          string   `json:"name"`
	RecordCount   int      `json:"recordCount"`
	IndexedFields []string `json:"indexedFields"`
	CustomFields  []string `json:"customFields"`
}

// HasIndexedField reports whether the given field is assumed indexed.
func (m *ObjectMetadata) HasIndexedField(field string) bool {
	for _, f := range m.IndexedFields {
		if f == field {
			return true
		}
	}
	return false
}
