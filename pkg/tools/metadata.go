package tools

import (
	"context"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/atlasfield/soqlgate/pkg/errors"
	"github.com/atlasfield/soqlgate/pkg/models"
)

var describeObjectTool = &mcp.Tool{
	Name:        "describe_object",
	Description: "Return the describe metadata for a single sobject: fields, types, picklists, and relationships.",
	InputSchema: objectSchema([]string{"objectName"}, map[string]*jsonschema.Schema{
		"objectName": {
			Type:        "string",
			Description: "Object API name, e.g. Account or Invoice__c",
		},
	}),
}

var listObjectsTool = &mcp.Tool{
	Name:        "list_objects",
	Description: "List the sobjects available in the org. Restricted objects are excluded.",
	InputSchema: objectSchema(nil, map[string]*jsonschema.Schema{
		"filter": {
			Type:        "string",
			Description: "Subset to return",
			Enum:        []any{"all", "standard", "custom"},
		},
		"queryableOnly": {
			Type:        "boolean",
			Description: "Only include objects that support SOQL queries",
		},
	}),
}

var getPicklistValuesTool = &mcp.Tool{
	Name:        "get_picklist_values",
	Description: "Return the picklist values for one field of an sobject. Labels are passed through the sanitization pipeline.",
	InputSchema: objectSchema([]string{"objectName", "fieldName"}, map[string]*jsonschema.Schema{
		"objectName": {
			Type:        "string",
			Description: "Object API name",
		},
		"fieldName": {
			Type:        "string",
			Description: "Picklist field API name",
		},
	}),
}

var describeLayoutTool = &mcp.Tool{
	Name:        "describe_layout",
	Description: "Return the page layouts defined for an sobject, trimmed to sections and field names.",
	InputSchema: objectSchema([]string{"objectName"}, map[string]*jsonschema.Schema{
		"objectName": {
			Type:        "string",
			Description: "Object API name",
		},
	}),
}

type objectNameParams struct {
	ObjectName string `json:"objectName"`
}

type listObjectsParams struct {
	Filter        string `json:"filter,omitempty"`
	QueryableOnly bool   `json:"queryableOnly,omitempty"`
}

type picklistParams struct {
	ObjectName string `json:"objectName"`
	FieldName  string `json:"fieldName"`
}

func (r *Registry) handleDescribeObject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p objectNameParams
	if err := parseArgs(req, &p); err != nil {
		return nil, err
	}
	name, err := requireSObjectName("objectName", p.ObjectName)
	if err != nil {
		return nil, err
	}
	if err := r.requireClient(); err != nil {
		return nil, err
	}

	describe, err := r.client.DescribeSObject(ctx, name)
	if err != nil {
		return nil, err
	}
	return textResult(describe)
}

func (r *Registry) handleListObjects(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := listObjectsParams{Filter: "all"}
	if len(req.Params.Arguments) > 0 {
		if err := parseArgs(req, &p); err != nil {
			return nil, err
		}
		if p.Filter == "" {
			p.Filter = "all"
		}
	}
	switch p.Filter {
	case "all", "standard", "custom":
	default:
		return nil, errors.New(errors.CodeInvalidParams, "filter must be one of all, standard, custom").
			WithDetail("filter", p.Filter)
	}
	if err := r.requireClient(); err != nil {
		return nil, err
	}

	all, err := r.client.DescribeGlobal(ctx)
	if err != nil {
		return nil, err
	}

	objects := make([]models.GlobalSObject, 0, len(all))
	for _, obj := range all {
		if p.Filter == "custom" && !obj.Custom {
			continue
		}
		if p.Filter == "standard" && obj.Custom {
			continue
		}
		if p.QueryableOnly && !obj.Queryable {
			continue
		}
		objects = append(objects, obj)
	}

	return textResult(map[string]interface{}{
		"totalSize": len(objects),
		"objects":   objects,
	})
}

func (r *Registry) handleGetPicklistValues(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p picklistParams
	if err := parseArgs(req, &p); err != nil {
		return nil, err
	}
	objectName, err := requireSObjectName("objectName", p.ObjectName)
	if err != nil {
		return nil, err
	}
	fieldName, err := requireSObjectName("fieldName", p.FieldName)
	if err != nil {
		return nil, err
	}
	if err := r.requireClient(); err != nil {
		return nil, err
	}

	describe, err := r.client.DescribeSObject(ctx, objectName)
	if err != nil {
		return nil, err
	}
	field := describe.Field(fieldName)
	if field == nil {
		return nil, errors.New(errors.CodeNotFound, "field not found on object").
			WithDetail("objectName", objectName).
			WithDetail("fieldName", fieldName)
	}
	if !strings.Contains(field.Type, "picklist") {
		return nil, errors.New(errors.CodeInvalidParams, "field is not a picklist").
			WithDetail("fieldName", fieldName).
			WithDetail("fieldType", field.Type)
	}

	labels := make([]string, len(field.PicklistValues))
	for i, v := range field.PicklistValues {
		labels[i] = v.Label
	}
	labels = r.pipeline.SanitizeValues(labels)

	values := make([]models.PicklistValue, len(field.PicklistValues))
	for i, v := range field.PicklistValues {
		v.Label = labels[i]
		values[i] = v
	}
	r.recordSanitized(getPicklistValuesTool.Name, len(values))

	return textResult(map[string]interface{}{
		"objectName": objectName,
		"fieldName":  fieldName,
		"fieldType":  field.Type,
		"values":     values,
	})
}

func (r *Registry) handleDescribeLayout(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p objectNameParams
	if err := parseArgs(req, &p); err != nil {
		return nil, err
	}
	name, err := requireSObjectName("objectName", p.ObjectName)
	if err != nil {
		return nil, err
	}
	if err := r.requireClient(); err != nil {
		return nil, err
	}

	layouts, err := r.client.DescribeLayouts(ctx, name)
	if err != nil {
		return nil, err
	}
	return textResult(map[string]interface{}{
		"objectName": name,
		"layouts":    layouts,
	})
}
