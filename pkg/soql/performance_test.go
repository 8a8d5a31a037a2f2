package soql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasfield/soqlgate/pkg/models"
)

func defaultMeta(objects ...string) map[string]models.ObjectMetadata {
	meta := make(map[string]models.ObjectMetadata, len(objects))
	for _, obj := range objects {
		meta[obj] = DefaultObjectMetadata(obj)
	}
	return meta
}

func TestPlannerValidateQuery(t *testing.T) {
	p := NewPlanner()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "valid",
			query: "SELECT Id FROM Account WHERE Status = 'Active'",
			want:  nil,
		},
		{
			name:  "missing select",
			query: "DELETE FROM Account",
			want:  []string{issueMissingSelect},
		},
		{
			name:  "missing from",
			query: "SELECT Id, Name",
			want:  []string{issueMissingFrom},
		},
		{
			name:  "unbalanced parens",
			query: "SELECT Id FROM Account WHERE (Status = 'x'",
			want:  []string{issueUnbalancedParens},
		},
		{
			name:  "dangling where",
			query: "SELECT Id FROM Account WHERE",
			want:  []string{issueIncompleteWhere},
		},
		{
			// the planner table has no field-list comma heuristics
			name:  "missing comma passes here",
			query: "SELECT Id Name FROM Account",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ValidateQuery(tt.query))
		})
	}
}

func TestEstimateSelectivity(t *testing.T) {
	limit := func(n int) *int { return &n }

	tests := []struct {
		name string
		comp models.QueryComponents
		want float64
	}{
		{
			name: "no where no limit",
			comp: models.QueryComponents{},
			want: 0.5,
		},
		{
			name: "no where small limit",
			comp: models.QueryComponents{HasLimit: true, LimitValue: limit(100)},
			want: 0.01,
		},
		{
			name: "no where large limit capped",
			comp: models.QueryComponents{HasLimit: true, LimitValue: limit(5000)},
			want: 0.1,
		},
		{
			name: "id filter",
			comp: models.QueryComponents{WhereFields: []string{"Id"}},
			want: 0.001,
		},
		{
			name: "date filter",
			comp: models.QueryComponents{WhereFields: []string{"CreatedDate"}},
			want: 0.1,
		},
		{
			name: "type and status",
			comp: models.QueryComponents{WhereFields: []string{"Type", "Status"}},
			want: 0.04,
		},
		{
			name: "floored",
			comp: models.QueryComponents{WhereFields: []string{"Id", "Name"}},
			want: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, estimateSelectivity(tt.comp), 1e-9)
		})
	}
}

func TestExplainIndexedIdFilter(t *testing.T) {
	p := NewPlanner()
	result := p.Explain("SELECT Id, Name FROM Account WHERE Id = '001000000000AAA'", defaultMeta("Account"))

	require.NotNil(t, result)
	assert.True(t, result.IsValid)

	perf := result.Performance
	assert.Equal(t, models.CostLow, perf.EstimatedCost)
	assert.InDelta(t, 0.001, perf.Selectivity, 1e-9)
	assert.Equal(t, []string{"Id"}, perf.IndexedFields)
	assert.Equal(t, models.CostNone, perf.SortingCost)
	assert.Equal(t, models.ScanTypeIndex, perf.ScanType)
	assert.Equal(t, 50000, perf.EstimatedRows.Total)
	assert.Equal(t, 50, perf.EstimatedRows.AfterFilter)
	assert.Equal(t, 50, perf.EstimatedRows.Final)

	plan := result.ExecutionPlan
	require.Equal(t, 2, plan.TotalSteps)
	assert.Equal(t, 1, plan.Steps[0].Step)
	assert.Equal(t, "FILTER", plan.Steps[0].Operation)
	assert.Equal(t, models.CostLow, plan.Steps[0].Cost)
	assert.Equal(t, 2, plan.Steps[1].Step)
	assert.Equal(t, "SELECT", plan.Steps[1].Operation)
	assert.Equal(t, 50, plan.EstimatedRows)
}

func TestExplainUnboundedSelectStar(t *testing.T) {
	p := NewPlanner()
	result := p.Explain("SELECT * FROM Contact", defaultMeta("Contact"))

	perf := result.Performance
	assert.Equal(t, models.CostMedium, perf.EstimatedCost)
	assert.InDelta(t, 0.5, perf.Selectivity, 1e-9)
	assert.Empty(t, perf.IndexedFields)
	assert.Equal(t, models.ScanTypeTable, perf.ScanType)
	assert.Equal(t, 100000, perf.EstimatedRows.Total)
	assert.Equal(t, 50000, perf.EstimatedRows.AfterFilter)

	assert.Contains(t, result.Warnings, "Unbounded query: no WHERE clause and no LIMIT")
	assert.Contains(t, result.Warnings, "Full table scan over a large object")
	assert.Contains(t, result.Recommendations, recAvoidSelectStar)
	assert.Contains(t, result.Recommendations, recAddLimit)
}

func TestExplainLimitOnlyPlan(t *testing.T) {
	p := NewPlanner()
	result := p.Explain("SELECT Id FROM Account LIMIT 10", defaultMeta("Account"))

	perf := result.Performance
	// selectivity min(0.1, 10/10000) applied to 50000 rows
	assert.InDelta(t, 0.001, perf.Selectivity, 1e-9)
	assert.Equal(t, 50, perf.EstimatedRows.AfterFilter)
	assert.Equal(t, 10, perf.EstimatedRows.Final)

	plan := result.ExecutionPlan
	require.Equal(t, 2, plan.TotalSteps)
	assert.Equal(t, "LIMIT", plan.Steps[0].Operation)
	assert.Equal(t, 10, plan.Steps[0].EstimatedRows)
	assert.Equal(t, models.CostLow, plan.Steps[0].Cost)
	assert.Equal(t, "SELECT", plan.Steps[1].Operation)
	assert.Equal(t, 10, plan.Steps[1].EstimatedRows)
}

func TestExplainUnindexedSort(t *testing.T) {
	p := NewPlanner()
	result := p.Explain("SELECT Id FROM Account ORDER BY CustomField__c", defaultMeta("Account"))

	perf := result.Performance
	assert.Equal(t, models.CostMedium, perf.SortingCost)
	assert.Equal(t, models.CostMedium, perf.EstimatedCost)
	assert.Contains(t, result.Recommendations,
		"Consider sorting by an indexed field instead of 'CustomField__c'")

	plan := result.ExecutionPlan
	require.Equal(t, 2, plan.TotalSteps)
	assert.Equal(t, "SORT", plan.Steps[0].Operation)
	assert.Equal(t, models.CostMedium, plan.Steps[0].Cost)
}

func TestExplainIndexedSort(t *testing.T) {
	p := NewPlanner()
	meta := map[string]models.ObjectMetadata{
		"Account": {
			Name:          "Account",
			RecordCount:   50000,
			IndexedFields: []string{"Id", "Name"},
		},
	}
	result := p.Explain("SELECT Id FROM Account ORDER BY Name", meta)

	assert.Equal(t, models.CostLow, result.Performance.SortingCost)
	assert.NotContains(t, result.Recommendations,
		"Consider sorting by an indexed field instead of 'Name'")
}

func TestExplainSubqueries(t *testing.T) {
	p := NewPlanner()
	query := "SELECT Id, (SELECT LastName FROM Contacts) FROM Account WHERE Id != null"
	result := p.Explain(query, defaultMeta("Account", "Contacts"))

	assert.True(t, result.Performance.HasSubqueries)
	require.Len(t, result.Subqueries, 1)

	sub := result.Subqueries[0]
	assert.Equal(t, "SELECT LastName FROM Contacts", sub.Query)
	assert.Equal(t, []string{"Contacts"}, sub.Objects)
	require.NotNil(t, sub.Performance)
	require.NotNil(t, sub.ExecutionPlan)
	assert.Equal(t, 10000, sub.Performance.EstimatedRows.Total)
}

func TestExplainLargeDateRange(t *testing.T) {
	p := NewPlanner()
	query := "SELECT Id FROM Opportunity WHERE CloseDate > LAST_N_DAYS:365"
	result := p.Explain(query, defaultMeta("Opportunity"))

	assert.Equal(t, models.CostHigh, result.Performance.EstimatedCost)
	assert.Contains(t, result.Warnings, "Large relative date range may scan many rows")
}

func TestExplainUnknownObjectDegrades(t *testing.T) {
	p := NewPlanner()
	result := p.Explain("SELECT Id FROM Widget__c", map[string]models.ObjectMetadata{})

	// unknown objects fall back to default heuristics instead of failing
	assert.Equal(t, defaultRecordCount, result.Performance.EstimatedRows.Total)
}

func TestExplainDeterministic(t *testing.T) {
	p := NewPlanner()
	query := "SELECT Id, Name FROM Account WHERE Status = 'Active' ORDER BY Name LIMIT 10"
	meta := defaultMeta("Account")

	first := p.Explain(query, meta)
	second := p.Explain(query, meta)
	assert.Equal(t, first, second)
}

func TestHasLargeDateRange(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT Id FROM Account WHERE CreatedDate > LAST_N_DAYS:365", true},
		{"SELECT Id FROM Account WHERE CreatedDate > LAST_N_DAYS:30", false},
		{"SELECT Id FROM Account WHERE CreatedDate > LAST_N_MONTHS:24", true},
		{"SELECT Id FROM Account WHERE CreatedDate > LAST_N_MONTHS:6", false},
		{"SELECT Id FROM Account", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hasLargeDateRange(tt.query), "query: %q", tt.query)
	}
}

func TestBuildObjectMetadata(t *testing.T) {
	describe := &models.SObjectDescribe{
		Name: "Account",
		Fields: []models.FieldDescribe{
			{Name: "Id", Type: "id"},
			{Name: "Name", Type: "string"},
			{Name: "OwnerId", Type: "reference"},
			{Name: "External_Key__c", Type: "string", Unique: true, Custom: true},
			{Name: "Description", Type: "textarea", Custom: true},
		},
	}

	meta := BuildObjectMetadata(describe)
	assert.Equal(t, "Account", meta.Name)
	assert.Equal(t, 50000, meta.RecordCount)
	assert.Equal(t, []string{"Id", "Name", "OwnerId", "External_Key__c"}, meta.IndexedFields)
	assert.Equal(t, []string{"External_Key__c", "Description"}, meta.CustomFields)
	assert.True(t, meta.HasIndexedField("Name"))
	assert.False(t, meta.HasIndexedField("Description"))
}

func TestDefaultObjectMetadata(t *testing.T) {
	meta := DefaultObjectMetadata("Widget__c")
	assert.Equal(t, defaultRecordCount, meta.RecordCount)
	assert.Equal(t, []string{"Id"}, meta.IndexedFields)

	known := DefaultObjectMetadata("Lead")
	assert.Equal(t, 75000, known.RecordCount)
}
