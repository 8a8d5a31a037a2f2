package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gwerrors "github.com/atlasfield/soqlgate/pkg/errors"
	"github.com/atlasfield/soqlgate/pkg/models"
)

func TestDescribeObject(t *testing.T) {
	client := &fakeClient{describes: map[string]*models.SObjectDescribe{"Account": accountDescribe()}}
	r := newTestRegistry(client)

	res, err := r.handleDescribeObject(context.Background(), callReq(t, `{"objectName":"Account"}`))
	require.NoError(t, err)

	var describe models.SObjectDescribe
	resultJSON(t, res, &describe)
	assert.Equal(t, "Account", describe.Name)
	assert.NotEmpty(t, describe.Fields)
}

func TestDescribeObjectNotFound(t *testing.T) {
	client := &fakeClient{describes: map[string]*models.SObjectDescribe{}}
	r := newTestRegistry(client)

	_, err := r.handleDescribeObject(context.Background(), callReq(t, `{"objectName":"Nope__c"}`))
	require.Error(t, err)
	assert.Equal(t, gwerrors.CodeNotFound, gwerrors.GetCode(err))
}

func TestListObjectsFilters(t *testing.T) {
	client := &fakeClient{global: []models.GlobalSObject{
		{Name: "Account", Queryable: true},
		{Name: "Invoice__c", Custom: true, Queryable: true},
		{Name: "AccountHistory", Queryable: false},
	}}
	r := newTestRegistry(client)

	tests := []struct {
		name string
		args string
		want []string
	}{
		{name: "all", args: `{}`, want: []string{"Account", "Invoice__c", "AccountHistory"}},
		{name: "custom", args: `{"filter":"custom"}`, want: []string{"Invoice__c"}},
		{name: "standard", args: `{"filter":"standard"}`, want: []string{"Account", "AccountHistory"}},
		{name: "queryable only", args: `{"queryableOnly":true}`, want: []string{"Account", "Invoice__c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.handleListObjects(context.Background(), callReq(t, tt.args))
			require.NoError(t, err)

			var resp struct {
				TotalSize int                    `json:"totalSize"`
				Objects   []models.GlobalSObject `json:"objects"`
			}
			resultJSON(t, res, &resp)
			names := make([]string, len(resp.Objects))
			for i, obj := range resp.Objects {
				names[i] = obj.Name
			}
			assert.Equal(t, tt.want, names)
			assert.Equal(t, len(tt.want), resp.TotalSize)
		})
	}
}

func TestListObjectsRejectsUnknownFilter(t *testing.T) {
	r := newTestRegistry(&fakeClient{})

	_, err := r.handleListObjects(context.Background(), callReq(t, `{"filter":"bogus"}`))
	require.Error(t, err)
	assert.Equal(t, gwerrors.CodeInvalidParams, gwerrors.GetCode(err))
}

func TestGetPicklistValues(t *testing.T) {
	client := &fakeClient{describes: map[string]*models.SObjectDescribe{"Account": accountDescribe()}}
	r := newTestRegistry(client)

	res, err := r.handleGetPicklistValues(context.Background(),
		callReq(t, `{"objectName":"Account","fieldName":"Industry"}`))
	require.NoError(t, err)

	var resp struct {
		ObjectName string                 `json:"objectName"`
		FieldName  string                 `json:"fieldName"`
		Values     []models.PicklistValue `json:"values"`
	}
	resultJSON(t, res, &resp)
	assert.Equal(t, "Account", resp.ObjectName)
	assert.Equal(t, "Industry", resp.FieldName)
	require.Len(t, resp.Values, 2)
	assert.Equal(t, "Technology", resp.Values[0].Label)
}

func TestGetPicklistValuesMasksLabels(t *testing.T) {
	describe := accountDescribe()
	for i := range describe.Fields {
		if describe.Fields[i].Name == "Industry" {
			describe.Fields[i].PicklistValues = []models.PicklistValue{
				{Label: "SSN 123-45-6789", Value: "leaky", Active: true},
			}
		}
	}
	client := &fakeClient{describes: map[string]*models.SObjectDescribe{"Account": describe}}
	r := newTestRegistry(client)

	res, err := r.handleGetPicklistValues(context.Background(),
		callReq(t, `{"objectName":"Account","fieldName":"Industry"}`))
	require.NoError(t, err)

	var resp struct {
		Values []models.PicklistValue `json:"values"`
	}
	resultJSON(t, res, &resp)
	require.Len(t, resp.Values, 1)
	assert.Equal(t, "SSN ***-**-****", resp.Values[0].Label)
	assert.Equal(t, "leaky", resp.Values[0].Value, "values are not labels; left intact")
}

func TestGetPicklistValuesFieldErrors(t *testing.T) {
	client := &fakeClient{describes: map[string]*models.SObjectDescribe{"Account": accountDescribe()}}
	r := newTestRegistry(client)

	_, err := r.handleGetPicklistValues(context.Background(),
		callReq(t, `{"objectName":"Account","fieldName":"Nope__c"}`))
	require.Error(t, err)
	assert.Equal(t, gwerrors.CodeNotFound, gwerrors.GetCode(err))

	_, err = r.handleGetPicklistValues(context.Background(),
		callReq(t, `{"objectName":"Account","fieldName":"Name"}`))
	require.Error(t, err)
	assert.Equal(t, gwerrors.CodeInvalidParams, gwerrors.GetCode(err))
}

func TestDescribeLayout(t *testing.T) {
	client := &fakeClient{
		describes: map[string]*models.SObjectDescribe{"Account": accountDescribe()},
		layouts: []models.LayoutDescribe{
			{ID: "00h000000000001", Name: "Account Layout", Sections: []models.LayoutSection{
				{Heading: "Details", Columns: 2, FieldNames: []string{"Name", "Industry"}},
			}},
		},
	}
	r := newTestRegistry(client)

	res, err := r.handleDescribeLayout(context.Background(), callReq(t, `{"objectName":"Account"}`))
	require.NoError(t, err)

	var resp struct {
		ObjectName string                  `json:"objectName"`
		Layouts    []models.LayoutDescribe `json:"layouts"`
	}
	resultJSON(t, res, &resp)
	assert.Equal(t, "Account", resp.ObjectName)
	require.Len(t, resp.Layouts, 1)
	assert.Equal(t, "Account Layout", resp.Layouts[0].Name)
}
