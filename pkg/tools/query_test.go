package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwerrors "github.com/atlasfield/soqlgate/pkg/errors"
	"github.com/atlasfield/soqlgate/pkg/models"
	"github.com/atlasfield/soqlgate/pkg/sanitize"
)

func accountRecord(id, name string, extra map[string]interface{}) models.Record {
	rec := models.Record{
		"attributes": map[string]interface{}{"type": "Account", "url": "/services/data/v60.0/sobjects/Account/" + id},
		"Id":         id,
		"Name":       name,
	}
	for k, v := range extra {
		rec[k] = v
	}
	return rec
}

func TestSOQLQueryReturnsSanitizedRecords(t *testing.T) {
	client := &fakeClient{
		describes: map[string]*models.SObjectDescribe{"Account": accountDescribe()},
		records: []models.Record{
			accountRecord("001000000000001", "Acme", map[string]interface{}{
				"SSN__c":    "123-45-6789",
				"Salary__c": "90000",
			}),
		},
	}
	r := newTestRegistry(client)

	res, err := r.handleSOQLQuery(context.Background(), callReq(t, `{"query":"SELECT Id, Name FROM Account"}`))
	require.NoError(t, err)

	var resp queryResponse
	resultJSON(t, res, &resp)
	assert.Equal(t, 1, resp.TotalSize)
	assert.False(t, resp.Truncated)
	require.Len(t, resp.Records, 1)
	assert.Equal(t, "***-**-****", resp.Records[0]["SSN__c"])
	assert.NotContains(t, resp.Records[0], "Salary__c", "inaccessible field must be dropped")
	assert.Equal(t, "SELECT Id, Name FROM Account", client.lastQuery)
}

func TestSOQLQueryRejectsSecurityIssues(t *testing.T) {
	client := &fakeClient{}
	r := newTestRegistry(client)

	_, err := r.handleSOQLQuery(context.Background(),
		callReq(t, `{"query":"SELECT Id FROM Account UNION SELECT Id FROM User"}`))
	require.Error(t, err)
	assert.Equal(t, gwerrors.CodeInvalidParams, gwerrors.GetCode(err))
	assert.Empty(t, client.lastQuery, "rejected query must never reach the org")
}

func TestSOQLQueryTruncatesToMaxRows(t *testing.T) {
	records := make([]models.Record, 5)
	for i := range records {
		records[i] = accountRecord("001000000000001", "Acme", nil)
	}
	client := &fakeClient{
		describes: map[string]*models.SObjectDescribe{"Account": accountDescribe()},
		records:   records,
	}
	r := NewRegistry(client, sanitize.NewPipeline(client, testLogger{}), nil, testLogger{}, 3)

	res, err := r.handleSOQLQuery(context.Background(), callReq(t, `{"query":"SELECT Id FROM Account"}`))
	require.NoError(t, err)

	var resp queryResponse
	resultJSON(t, res, &resp)
	assert.Equal(t, 3, resp.TotalSize)
	assert.True(t, resp.Truncated)
}

func TestSOQLQueryPropagatesQueryFailure(t *testing.T) {
	client := &fakeClient{queryErr: gwerrors.New(gwerrors.CodeQueryFailed, "MALFORMED_QUERY")}
	r := newTestRegistry(client)

	_, err := r.handleSOQLQuery(context.Background(), callReq(t, `{"query":"SELECT Id FROM Account"}`))
	require.Error(t, err)
	assert.Equal(t, gwerrors.CodeQueryFailed, gwerrors.GetCode(err))
}

func TestSOQLQueryRequiresConnection(t *testing.T) {
	r := newTestRegistry(nil)

	_, err := r.handleSOQLQuery(context.Background(), callReq(t, `{"query":"SELECT Id FROM Account"}`))
	require.Error(t, err)
	assert.Equal(t, gwerrors.CodeConnectionFailed, gwerrors.GetCode(err))
}
