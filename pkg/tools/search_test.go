package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwerrors "github.com/atlasfield/soqlgate/pkg/errors"
	"github.com/atlasfield/soqlgate/pkg/models"
)

func TestSOSLSearchBuildsFindClause(t *testing.T) {
	client := &fakeClient{
		describes: map[string]*models.SObjectDescribe{"Account": accountDescribe()},
		searchRecords: []models.Record{
			accountRecord("001000000000001", "Acme", nil),
		},
	}
	r := newTestRegistry(client)

	res, err := r.handleSOSLSearch(context.Background(),
		callReq(t, `{"searchTerm":"Acme","objects":["Account"],"limit":5}`))
	require.NoError(t, err)

	assert.Equal(t, "FIND {Acme} IN ALL FIELDS RETURNING Account(Id, Name) LIMIT 5", client.lastSearch)

	var resp searchResponse
	resultJSON(t, res, &resp)
	assert.Equal(t, "Acme", resp.SearchTerm)
	assert.Equal(t, 1, resp.TotalSize)
}

func TestSOSLSearchDefaults(t *testing.T) {
	client := &fakeClient{}
	r := newTestRegistry(client)

	_, err := r.handleSOSLSearch(context.Background(), callReq(t, `{"searchTerm":"Acme"}`))
	require.NoError(t, err)
	assert.Equal(t,
		"FIND {Acme} IN ALL FIELDS RETURNING Account(Id, Name), Contact(Id, Name), Lead(Id, Name), Opportunity(Id, Name) LIMIT 20",
		client.lastSearch)
}

func TestSOSLSearchEscapesReservedCharacters(t *testing.T) {
	client := &fakeClient{}
	r := newTestRegistry(client)

	_, err := r.handleSOSLSearch(context.Background(),
		callReq(t, `{"searchTerm":"Acme (west)","objects":["Account"]}`))
	require.NoError(t, err)
	assert.Contains(t, client.lastSearch, `Acme \(west\)`)
}

func TestSOSLSearchRejectsInjection(t *testing.T) {
	client := &fakeClient{}
	r := newTestRegistry(client)

	tests := []struct {
		name string
		term string
	}{
		{name: "brace breakout", term: "acme} RETURNING User(Password__c)"},
		{name: "quote operator", term: "acme' OR Name LIKE '%"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.handleSOSLSearch(context.Background(),
				callReq(t, `{"searchTerm":`+marshalString(tt.term)+`,"objects":["Account"]}`))
			require.Error(t, err)
			assert.Equal(t, gwerrors.CodeInvalidParams, gwerrors.GetCode(err))
			assert.Empty(t, client.lastSearch)
		})
	}
}

func TestSOSLSearchRejectsShortTerm(t *testing.T) {
	r := newTestRegistry(&fakeClient{})

	_, err := r.handleSOSLSearch(context.Background(), callReq(t, `{"searchTerm":"a"}`))
	require.Error(t, err)
	assert.Equal(t, gwerrors.CodeInvalidParams, gwerrors.GetCode(err))
}

func TestSOSLSearchRejectsBadObjectName(t *testing.T) {
	r := newTestRegistry(&fakeClient{})

	_, err := r.handleSOSLSearch(context.Background(),
		callReq(t, `{"searchTerm":"Acme","objects":["Account) LIMIT 1 RETURNING User("]}`))
	require.Error(t, err)
	assert.Equal(t, gwerrors.CodeInvalidParams, gwerrors.GetCode(err))
}

func TestSanitizeMixedPreservesOrder(t *testing.T) {
	inaccessible := false
	contact := &models.SObjectDescribe{
		Name: "Contact",
		Fields: []models.FieldDescribe{
			{Name: "Id", Type: "id"},
			{Name: "Name", Type: "string"},
			{Name: "Secret__c", Type: "string", Accessible: &inaccessible},
		},
	}
	client := &fakeClient{describes: map[string]*models.SObjectDescribe{
		"Account": accountDescribe(),
		"Contact": contact,
	}}
	r := newTestRegistry(client)

	records := []models.Record{
		accountRecord("001000000000001", "Acme", nil),
		{
			"attributes": map[string]interface{}{"type": "Contact"},
			"Id":         "003000000000001",
			"Name":       "Jo Smith",
			"Secret__c":  "hidden",
		},
		accountRecord("001000000000002", "Globex", nil),
	}

	out := r.sanitizeMixed(context.Background(), records)
	require.Len(t, out, 3)
	assert.Equal(t, "Acme", out[0]["Name"])
	assert.Equal(t, "Jo Smith", out[1]["Name"])
	assert.NotContains(t, out[1], "Secret__c")
	assert.Equal(t, "Globex", out[2]["Name"])
	// one describe per object type, not per record
	assert.Equal(t, 2, client.describeCalls)
}

// marshalString quotes a string as a JSON literal for request bodies.
func marshalString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
