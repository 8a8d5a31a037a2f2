package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atlasfield/soqlgate/pkg/errors"
	"github.com/atlasfield/soqlgate/pkg/models"
)

var soqlQueryTool = &mcp.Tool{
	Name:        "soql_query",
	Description: "Execute a SOQL query against the connected org. Queries flagged by the security analyzer are rejected before execution; returned records are sanitized and the result set is bounded by the configured row limit.",
	InputSchema: objectSchema([]string{"query"}, map[string]*jsonschema.Schema{
		"query": {
			Type:        "string",
			Description: "SOQL query to execute (minimum 5 characters)",
		},
	}),
}

// queryResponse is the soql_query result payload.
type queryResponse struct {
	Query     string          `json:"query"`
	TotalSize int             `json:"totalSize"`
	Truncated bool            `json:"truncated"`
	Records   []models.Record `json:"records"`
}

func (r *Registry) handleSOQLQuery(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p queryParams
	if err := parseArgs(req, &p); err != nil {
		return nil, err
	}
	query, err := normalizeQuery(p.Query)
	if err != nil {
		return nil, err
	}
	if err := r.requireClient(); err != nil {
		return nil, err
	}

	// Security gate: injection markers never reach the org. Syntax is left
	// to Salesforce, which is the authority on acceptance.
	analysis := r.analyzer.Analyze(query)
	if len(analysis.SecurityIssues) > 0 {
		return nil, errors.New(errors.CodeInvalidParams, "query rejected by security analysis").
			WithDetail("securityIssues", analysis.SecurityIssues)
	}

	records, err := r.client.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	truncated := false
	if len(records) > r.maxRows {
		records = records[:r.maxRows]
		truncated = true
	}

	objectType := ""
	if len(analysis.Objects) > 0 {
		objectType = analysis.Objects[0]
	}
	records = r.pipeline.SanitizeRecords(ctx, objectType, records)
	r.recordSanitized(soqlQueryTool.Name, len(records))

	return textResult(queryResponse{
		Query:     query,
		TotalSize: len(records),
		Truncated: truncated,
		Records:   records,
	})
}
