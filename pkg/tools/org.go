package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var getOrgLimitsTool = &mcp.Tool{
	Name:        "get_org_limits",
	Description: "Return the org's API limits with remaining allowances.",
	InputSchema: objectSchema(nil, nil),
}

var getUserInfoTool = &mcp.Tool{
	Name:        "get_user_info",
	Description: "Return identity details for the connected user and org.",
	InputSchema: objectSchema(nil, nil),
}

func (r *Registry) handleGetOrgLimits(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := r.requireClient(); err != nil {
		return nil, err
	}
	limits, err := r.client.OrgLimits(ctx)
	if err != nil {
		return nil, err
	}
	return textResult(limits)
}

func (r *Registry) handleGetUserInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := r.requireClient(); err != nil {
		return nil, err
	}
	info, err := r.client.UserInfo(ctx)
	if err != nil {
		return nil, err
	}
	return textResult(info)
}
