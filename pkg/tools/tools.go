// Package tools exposes the gateway's Salesforce operations as MCP tools.
// Each tool parses its JSON arguments, runs the operation, and returns the
// JSON-serialized result as a single text content block. Tool failures are
// reported as error results carrying a ToolError code rather than protocol
// errors, so clients always receive a structured payload.
package tools

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atlasfield/soqlgate/pkg/errors"
	"github.com/atlasfield/soqlgate/pkg/infrastructure/metrics"
	"github.com/atlasfield/soqlgate/pkg/salesforce"
	"github.com/atlasfield/soqlgate/pkg/sanitize"
	"github.com/atlasfield/soqlgate/pkg/soql"
)

// Logger defines the logging interface used by the tool layer.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

const (
	// minQueryLength is the shortest accepted SOQL query string.
	minQueryLength = 5

	// defaultMaxRows bounds the records returned by query and search tools.
	defaultMaxRows = 2000

	// defaultSearchLimit applies when sosl_search gets no explicit limit.
	defaultSearchLimit = 20

	// maxRecentItems caps the get_recent_items limit parameter.
	maxRecentItems = 200
)

// defaultSearchObjects is the RETURNING list used when sosl_search is called
// without an explicit object list.
var defaultSearchObjects = []string{"Account", "Contact", "Lead", "Opportunity"}

// sobjectNameRe matches valid sobject and field API names. Search and
// metadata tools reject anything else before it reaches a SOSL/REST string.
var sobjectNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// recordIDRe matches 15- and 18-character Salesforce record IDs.
var recordIDRe = regexp.MustCompile(`^[a-zA-Z0-9]{15}([a-zA-Z0-9]{3})?$`)

// Registry owns the analysis core and the Salesforce collaborators, and
// registers one MCP tool per gateway operation.
type Registry struct {
	analyzer *soql.Analyzer
	planner  *soql.Planner
	client   salesforce.Client
	pipeline *sanitize.Pipeline
	metrics  metrics.Collector
	logger   Logger
	maxRows  int
}

// NewRegistry creates a tool registry. The client may be nil, in which case
// every tool that needs a live connection fails with CONNECTION_FAILED.
// maxRows bounds query/search result sizes; zero selects the default.
func NewRegistry(client salesforce.Client, pipeline *sanitize.Pipeline, collector metrics.Collector, logger Logger, maxRows int) *Registry {
	if collector == nil {
		collector = metrics.NewNoOpCollector()
	}
	if maxRows <= 0 {
		maxRows = defaultMaxRows
	}
	return &Registry{
		analyzer: soql.NewAnalyzer(),
		planner:  soql.NewPlanner(),
		client:   client,
		pipeline: pipeline,
		metrics:  collector,
		logger:   logger,
		maxRows:  maxRows,
	}
}

// toolDef pairs a tool definition with its handler.
type toolDef struct {
	tool    *mcp.Tool
	handler mcp.ToolHandler
}

// Register adds every gateway tool to the MCP server.
func (r *Registry) Register(server *mcp.Server) {
	for _, d := range r.tools() {
		server.AddTool(d.tool, r.instrument(d.tool.Name, d.handler))
	}
}

func (r *Registry) tools() []toolDef {
	return []toolDef{
		{validateSOQLTool, r.handleValidateSOQL},
		{explainQueryPlanTool, r.handleExplainQueryPlan},
		{soqlQueryTool, r.handleSOQLQuery},
		{soslSearchTool, r.handleSOSLSearch},
		{describeObjectTool, r.handleDescribeObject},
		{listObjectsTool, r.handleListObjects},
		{getRecordTool, r.handleGetRecord},
		{getOrgLimitsTool, r.handleGetOrgLimits},
		{getUserInfoTool, r.handleGetUserInfo},
		{getRecentItemsTool, r.handleGetRecentItems},
		{getPicklistValuesTool, r.handleGetPicklistValues},
		{describeLayoutTool, r.handleDescribeLayout},
	}
}

// instrument wraps a handler with invocation logging, call/error counters,
// a duration histogram, and conversion of ToolErrors into error results.
func (r *Registry) instrument(name string, h mcp.ToolHandler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		invocation := uuid.NewString()
		timer := r.metrics.StartTimer(metrics.MetricToolDuration)
		r.metrics.IncrementCounter(metrics.MetricToolCalls, "tool", name)

		res, err := h(ctx, req)
		elapsed := timer.Stop()
		r.metrics.RecordHistogram(metrics.MetricToolDuration, elapsed, "tool", name)

		if err != nil {
			toolErr := asToolError(err)
			r.metrics.IncrementCounter(metrics.MetricToolErrors, "tool", name, "code", toolErr.Code)
			r.logger.Warn("tool call failed",
				"tool", name,
				"invocation", invocation,
				"code", toolErr.Code,
				"error", toolErr.Message)
			return errorResult(toolErr)
		}

		r.logger.Debug("tool call completed",
			"tool", name,
			"invocation", invocation,
			"seconds", elapsed)
		return res, nil
	}
}

// asToolError normalizes any error into a ToolError; unexpected errors
// become INTERNAL_ERROR.
func asToolError(err error) *errors.ToolError {
	if toolErr, ok := errors.AsToolError(err); ok {
		return toolErr
	}
	return errors.Wrap(err, errors.CodeInternal, "unexpected tool failure")
}

// textResult serializes v as indented JSON in a single text content block.
func textResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode tool result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

// errorResult serializes a ToolError as an error-flagged text result so the
// client receives the code and details instead of a bare protocol error.
func errorResult(toolErr *errors.ToolError) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(map[string]interface{}{"error": toolErr}, "", "  ")
	if err != nil {
		data = []byte(`{"error":{"code":"INTERNAL_ERROR","message":"failed to encode error"}}`)
	}
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil
}

// parseArgs unmarshals the request arguments into out.
func parseArgs(req *mcp.CallToolRequest, out interface{}) error {
	if len(req.Params.Arguments) == 0 {
		return errors.New(errors.CodeInvalidParams, "missing tool arguments")
	}
	if err := json.Unmarshal(req.Params.Arguments, out); err != nil {
		return errors.Wrap(err, errors.CodeInvalidParams, "invalid tool arguments")
	}
	return nil
}

// requireClient fails fast when no Salesforce connection is configured.
func (r *Registry) requireClient() error {
	if r.client == nil {
		return errors.ErrNoConnection
	}
	return nil
}

// normalizeQuery trims and validates a query parameter before any analysis
// work begins.
func normalizeQuery(query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New(errors.CodeInvalidParams, "query is required")
	}
	if len(query) < minQueryLength {
		return "", errors.New(errors.CodeInvalidParams, "query must be at least 5 characters")
	}
	return query, nil
}

// requireSObjectName validates an sobject or field API name parameter.
func requireSObjectName(param, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New(errors.CodeInvalidParams, param+" is required")
	}
	if !sobjectNameRe.MatchString(value) {
		return "", errors.New(errors.CodeInvalidParams, "invalid "+param).
			WithDetail(param, value)
	}
	return value, nil
}

// recordSanitized counts records that went through the sanitization pipeline.
func (r *Registry) recordSanitized(tool string, n int) {
	for i := 0; i < n; i++ {
		r.metrics.IncrementCounter(metrics.MetricSanitizedRecords, "tool", tool)
	}
}

// objectSchema is a shorthand for the object input schemas the tools declare.
func objectSchema(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}
