package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atlasfield/soqlgate/pkg/errors"
	"github.com/atlasfield/soqlgate/pkg/models"
	"github.com/atlasfield/soqlgate/pkg/soql"
)

var soslSearchTool = &mcp.Tool{
	Name:        "sosl_search",
	Description: "Full-text search across objects using SOSL. The search term is checked for injection patterns and escaped before the FIND clause is built; returned records are sanitized.",
	InputSchema: objectSchema([]string{"searchTerm"}, map[string]*jsonschema.Schema{
		"searchTerm": {
			Type:        "string",
			Description: "Text to search for (minimum 2 characters)",
		},
		"objects": {
			Type:        "array",
			Description: "Object API names to search; defaults to Account, Contact, Lead, Opportunity",
			Items:       &jsonschema.Schema{Type: "string"},
		},
		"limit": {
			Type:        "integer",
			Description: "Maximum records per search; defaults to 20",
		},
	}),
}

type searchParams struct {
	SearchTerm string   `json:"searchTerm"`
	Objects    []string `json:"objects,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

// searchResponse is the sosl_search result payload.
type searchResponse struct {
	SearchTerm string          `json:"searchTerm"`
	TotalSize  int             `json:"totalSize"`
	Records    []models.Record `json:"records"`
}

func (r *Registry) handleSOSLSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p searchParams
	if err := parseArgs(req, &p); err != nil {
		return nil, err
	}

	term := strings.TrimSpace(p.SearchTerm)
	if issues := soql.ValidateSearchTerm(term); len(issues) > 0 {
		return nil, errors.New(errors.CodeInvalidParams, "invalid search term").
			WithDetail("issues", issues)
	}
	// Injection detection runs on the raw term; escaping would hide the
	// breakout markers it looks for.
	if issues := soql.DetectSearchInjection(term); len(issues) > 0 {
		return nil, errors.New(errors.CodeInvalidParams, "search term rejected by security analysis").
			WithDetail("securityIssues", issues)
	}

	source := p.Objects
	if len(source) == 0 {
		source = defaultSearchObjects
	}
	objects := make([]string, len(source))
	for i, obj := range source {
		name, err := requireSObjectName("object", obj)
		if err != nil {
			return nil, err
		}
		objects[i] = name
	}

	limit := p.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > r.maxRows {
		limit = r.maxRows
	}

	if err := r.requireClient(); err != nil {
		return nil, err
	}

	sosl := buildSearch(soql.EscapeSearchTerm(term), objects, limit)
	records, err := r.client.Search(ctx, sosl)
	if err != nil {
		return nil, err
	}

	records = r.sanitizeMixed(ctx, records)
	r.recordSanitized(soslSearchTool.Name, len(records))

	return textResult(searchResponse{
		SearchTerm: term,
		TotalSize:  len(records),
		Records:    records,
	})
}

// buildSearch assembles the FIND clause from an already-escaped term and a
// validated object list.
func buildSearch(escaped string, objects []string, limit int) string {
	returning := make([]string, len(objects))
	for i, obj := range objects {
		returning[i] = obj + "(Id, Name)"
	}
	return fmt.Sprintf("FIND {%s} IN ALL FIELDS RETURNING %s LIMIT %d",
		escaped, strings.Join(returning, ", "), limit)
}

// sanitizeMixed runs the sanitization pipeline over a record slice that may
// mix object types, grouping by type so each group needs one describe call,
// and preserving the original order.
func (r *Registry) sanitizeMixed(ctx context.Context, records []models.Record) []models.Record {
	groups := make(map[string][]int)
	for i, rec := range records {
		t := rec.ObjectType()
		groups[t] = append(groups[t], i)
	}

	out := make([]models.Record, len(records))
	for objectType, indexes := range groups {
		batch := make([]models.Record, len(indexes))
		for i, idx := range indexes {
			batch[i] = records[idx]
		}
		for i, rec := range r.pipeline.SanitizeRecords(ctx, objectType, batch) {
			out[indexes[i]] = rec
		}
	}
	return out
}
