package tools

import (
	"context"
	"strconv"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atlasfield/soqlgate/pkg/infrastructure/metrics"
	"github.com/atlasfield/soqlgate/pkg/models"
	"github.com/atlasfield/soqlgate/pkg/soql"
)

var validateSOQLTool = &mcp.Tool{
	Name:        "validate_soql",
	Description: "Validate a SOQL query for syntax errors and security issues, and report its structure, complexity, and optimization recommendations. Does not execute the query.",
	InputSchema: objectSchema([]string{"query"}, map[string]*jsonschema.Schema{
		"query": {
			Type:        "string",
			Description: "SOQL query to validate (minimum 5 characters)",
		},
	}),
}

var explainQueryPlanTool = &mcp.Tool{
	Name:        "explain_query_plan",
	Description: "Estimate the cost of a SOQL query and synthesize a logical execution plan with row estimates. Uses object describe metadata for selectivity and index heuristics; never executes the query.",
	InputSchema: objectSchema([]string{"query"}, map[string]*jsonschema.Schema{
		"query": {
			Type:        "string",
			Description: "SOQL query to analyze (minimum 5 characters)",
		},
	}),
}

type queryParams struct {
	Query string `json:"query"`
}

func (r *Registry) handleValidateSOQL(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	result := r.analyzer.Analyze(query)
	r.metrics.IncrementCounter(metrics.MetricAnalysisVerdicts,
		"tool", validateSOQLTool.Name, "valid", strconv.FormatBool(result.IsValid))
	return textResult(result)
}

func (r *Registry) handleExplainQueryPlan(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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

	// Basic validation failure is data, not an error: the client gets the
	// itemized errors instead of a synthesized plan.
	if errs := r.planner.ValidateQuery(query); len(errs) > 0 {
		r.metrics.IncrementCounter(metrics.MetricAnalysisVerdicts,
			"tool", explainQueryPlanTool.Name, "valid", "false")
		return textResult(models.ValidationFailure{
			Query:   query,
			IsValid: false,
			Errors:  errs,
			Message: "Query failed validation; no plan was generated",
		})
	}

	comp := soql.ExtractComponents(query)
	meta := r.objectMetadata(ctx, comp.Objects)
	r.metrics.IncrementCounter(metrics.MetricAnalysisVerdicts,
		"tool", explainQueryPlanTool.Name, "valid", "true")
	return textResult(r.planner.Explain(query, meta))
}

// objectMetadata fetches describe-derived estimation metadata for each
// referenced object. A failed describe degrades to the heuristic default for
// that object instead of failing the analysis.
func (r *Registry) objectMetadata(ctx context.Context, objects []string) map[string]models.ObjectMetadata {
	meta := make(map[string]models.ObjectMetadata, len(objects))
	for _, obj := range objects {
		if _, ok := meta[obj]; ok {
			continue
		}
		describe, err := r.client.DescribeSObject(ctx, obj)
		if err != nil {
			r.logger.Warn("describe failed, using default metadata", "object", obj, "error", err)
			meta[obj] = soql.DefaultObjectMetadata(obj)
			continue
		}
		meta[obj] = soql.BuildObjectMetadata(describe)
	}
	return meta
}
