package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atlasfield/soqlgate/pkg/errors"
	"github.com/atlasfield/soqlgate/pkg/models"
)

var getRecordTool = &mcp.Tool{
	Name:        "get_record",
	Description: "Retrieve a single record by ID. The record is sanitized before it is returned.",
	InputSchema: objectSchema([]string{"objectName", "recordId"}, map[string]*jsonschema.Schema{
		"objectName": {
			Type:        "string",
			Description: "Object API name",
		},
		"recordId": {
			Type:        "string",
			Description: "15- or 18-character record ID",
		},
		"fields": {
			Type:        "array",
			Description: "Field API names to fetch; defaults to all accessible fields",
			Items:       &jsonschema.Schema{Type: "string"},
		},
	}),
}

var getRecentItemsTool = &mcp.Tool{
	Name:        "get_recent_items",
	Description: "List the records most recently viewed by the connected user.",
	InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{
		"limit": {
			Type:        "integer",
			Description: "Maximum items to return; defaults to 10, capped at 200",
		},
	}),
}

type getRecordParams struct {
	ObjectName string   `json:"objectName"`
	RecordID   string   `json:"recordId"`
	Fields     []string `json:"fields,omitempty"`
}

type recentItemsParams struct {
	Limit int `json:"limit,omitempty"`
}

func (r *Registry) handleGetRecord(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p getRecordParams
	if err := parseArgs(req, &p); err != nil {
		return nil, err
	}
	name, err := requireSObjectName("objectName", p.ObjectName)
	if err != nil {
		return nil, err
	}
	if !recordIDRe.MatchString(p.RecordID) {
		return nil, errors.New(errors.CodeInvalidParams, "recordId must be a 15- or 18-character Salesforce ID").
			WithDetail("recordId", p.RecordID)
	}
	for _, f := range p.Fields {
		if _, err := requireSObjectName("field", f); err != nil {
			return nil, err
		}
	}
	if err := r.requireClient(); err != nil {
		return nil, err
	}

	record, err := r.client.GetRecord(ctx, name, p.RecordID, p.Fields)
	if err != nil {
		return nil, err
	}

	sanitized := r.pipeline.SanitizeRecords(ctx, name, []models.Record{record})
	r.recordSanitized(getRecordTool.Name, 1)

	return textResult(map[string]interface{}{
		"objectName": name,
		"recordId":   p.RecordID,
		"record":     sanitized[0],
	})
}

func (r *Registry) handleGetRecentItems(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := recentItemsParams{Limit: 10}
	if len(req.Params.Arguments) > 0 {
		if err := parseArgs(req, &p); err != nil {
			return nil, err
		}
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Limit > maxRecentItems {
		p.Limit = maxRecentItems
	}
	if err := r.requireClient(); err != nil {
		return nil, err
	}

	items, err := r.client.RecentItems(ctx, p.Limit)
	if err != nil {
		return nil, err
	}
	return textResult(map[string]interface{}{
		"totalSize": len(items),
		"items":     items,
	})
}
