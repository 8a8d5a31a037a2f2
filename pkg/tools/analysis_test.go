package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwerrors "github.com/atlasfield/soqlgate/pkg/errors"
	"github.com/atlasfield/soqlgate/pkg/models"
)

func TestValidateSOQLReturnsAnalysis(t *testing.T) {
	client := &fakeClient{describes: map[string]*models.SObjectDescribe{"Account": accountDescribe()}}
	r := newTestRegistry(client)

	res, err := r.handleValidateSOQL(context.Background(), callReq(t, `{"query":"SELECT Id, Name FROM Account"}`))
	require.NoError(t, err)

	var result models.AnalysisResult
	resultJSON(t, res, &result)
	assert.True(t, result.IsValid)
	assert.Equal(t, "SELECT", result.QueryType)
	assert.Equal(t, []string{"Account"}, result.Objects)
	assert.Equal(t, []string{"Id", "Name"}, result.Fields)
	assert.Equal(t, 1, result.Complexity.Score)
	assert.Equal(t, "simple", result.Complexity.Level)
}

func TestValidateSOQLInvalidQueryIsData(t *testing.T) {
	client := &fakeClient{}
	r := newTestRegistry(client)

	res, err := r.handleValidateSOQL(context.Background(),
		callReq(t, `{"query":"SELECT Id FROM Account UNION SELECT Id FROM User"}`))
	require.NoError(t, err, "validation failure is a result, not an error")

	var result models.AnalysisResult
	resultJSON(t, res, &result)
	assert.False(t, result.IsValid)
	assert.Contains(t, result.SecurityIssues, "UNION statement detected")
}

func TestValidateSOQLParamErrors(t *testing.T) {
	r := newTestRegistry(&fakeClient{})

	tests := []struct {
		name string
		args string
	}{
		{name: "missing query", args: `{}`},
		{name: "short query", args: `{"query":"hi"}`},
		{name: "wrong type", args: `{"query":42}`},
		{name: "malformed json", args: `{"query":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.handleValidateSOQL(context.Background(), callReq(t, tt.args))
			require.Error(t, err)
			assert.Equal(t, gwerrors.CodeInvalidParams, gwerrors.GetCode(err))
		})
	}
}

func TestValidateSOQLRequiresConnection(t *testing.T) {
	r := newTestRegistry(nil)

	_, err := r.handleValidateSOQL(context.Background(), callReq(t, `{"query":"SELECT Id FROM Account"}`))
	require.Error(t, err)
	assert.Equal(t, gwerrors.CodeConnectionFailed, gwerrors.GetCode(err))
}

func TestExplainQueryPlanIndexedFilter(t *testing.T) {
	client := &fakeClient{describes: map[string]*models.SObjectDescribe{"Account": accountDescribe()}}
	r := newTestRegistry(client)

	res, err := r.handleExplainQueryPlan(context.Background(),
		callReq(t, `{"query":"SELECT Id, Name FROM Account WHERE Id = '001000000000000'"}`))
	require.NoError(t, err)

	var result models.PerformanceAnalysis
	resultJSON(t, res, &result)
	assert.Contains(t, result.Performance.IndexedFields, "Id")
	assert.Equal(t, models.CostLow, result.Performance.EstimatedCost)
	assert.Equal(t, models.ScanTypeIndex, result.Performance.ScanType)
	assert.Equal(t, 50000, result.Performance.EstimatedRows.Total)
}

func TestExplainQueryPlanValidationFailure(t *testing.T) {
	client := &fakeClient{}
	r := newTestRegistry(client)

	res, err := r.handleExplainQueryPlan(context.Background(), callReq(t, `{"query":"DELETE FROM Account"}`))
	require.NoError(t, err)

	var failure models.ValidationFailure
	resultJSON(t, res, &failure)
	assert.False(t, failure.IsValid)
	assert.NotEmpty(t, failure.Errors)
	assert.NotEmpty(t, failure.Message)
}

func TestExplainQueryPlanDescribeFailureDegrades(t *testing.T) {
	client := &fakeClient{describeErr: gwerrors.New(gwerrors.CodeMetadataFailed, "describe blew up")}
	r := newTestRegistry(client)

	res, err := r.handleExplainQueryPlan(context.Background(),
		callReq(t, `{"query":"SELECT Id FROM CustomThing__c WHERE Id = '001000000000000'"}`))
	require.NoError(t, err, "metadata failure degrades to heuristic defaults")

	var result models.PerformanceAnalysis
	resultJSON(t, res, &result)
	assert.Equal(t, 10000, result.Performance.EstimatedRows.Total)
	assert.Contains(t, result.Performance.IndexedFields, "Id")
}

func TestExplainQueryPlanSubqueries(t *testing.T) {
	client := &fakeClient{describes: map[string]*models.SObjectDescribe{"Account": accountDescribe()}}
	r := newTestRegistry(client)

	res, err := r.handleExplainQueryPlan(context.Background(),
		callReq(t, `{"query":"SELECT Id, (SELECT Id FROM Contacts) FROM Account"}`))
	require.NoError(t, err)

	var result models.PerformanceAnalysis
	resultJSON(t, res, &result)
	assert.True(t, result.Performance.HasSubqueries)
	assert.Len(t, result.Subqueries, 1)
}

func TestObjectMetadataDeduplicatesDescribes(t *testing.T) {
	client := &fakeClient{describes: map[string]*models.SObjectDescribe{"Account": accountDescribe()}}
	r := newTestRegistry(client)

	meta := r.objectMetadata(context.Background(), []string{"Account", "Account", "Account"})
	assert.Len(t, meta, 1)
	assert.Equal(t, 1, client.describeCalls)
}
