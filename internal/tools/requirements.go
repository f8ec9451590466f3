package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// registerListRequirements registers the list_requirements tool.
func (ts *ToolServer) registerListRequirements() error {
	tool := mcp.NewTool("list_requirements",
		mcp.WithDescription("List the items a company still has to provide, optionally filtered by status."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Company slug"),
		),
		mcp.WithString("status",
			mcp.Description("Only return requirements with this status"),
			mcp.Enum(types.RequirementStatuses...),
		),
	)

	return ts.server.AddTool(tool, ts.handleListRequirements)
}

func (ts *ToolServer) handleListRequirements(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	reqs, err := ts.store.ListRequirements(ctx, slug, req.GetString("status", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to list requirements: %w", err)
	}
	return listResult("requirements", reqs, len(reqs)), nil
}

// registerAddRequirement registers the add_requirement tool.
func (ts *ToolServer) registerAddRequirement() error {
	tool := mcp.NewTool("add_requirement",
		mcp.WithDescription("Record something a company needs to provide."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Company slug"),
		),
		mcp.WithString("item",
			mcp.Required(),
			mcp.Description("What is needed, e.g. 'Agent Handbook'"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status (default: needed)"),
			mcp.Enum(types.RequirementStatuses...),
		),
	)

	return ts.server.AddTool(tool, ts.handleAddRequirement)
}

func (ts *ToolServer) handleAddRequirement(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	r, err := ts.store.AddRequirement(ctx, slug, req.GetString("item", ""), req.GetString("status", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to add requirement: %w", err)
	}
	return r, nil
}

// registerUpdateRequirement registers the update_requirement tool.
func (ts *ToolServer) registerUpdateRequirement() error {
	tool := mcp.NewTool("update_requirement",
		mcp.WithDescription("Change a requirement's status. The item is matched case-insensitively as a substring of the requirement text; an ambiguous match lists the candidates."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Company slug"),
		),
		mcp.WithString("item",
			mcp.Required(),
			mcp.Description("Text identifying the requirement, e.g. 'handbook'"),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New status"),
			mcp.Enum(types.RequirementStatuses...),
		),
	)

	return ts.server.AddTool(tool, ts.handleUpdateRequirement)
}

func (ts *ToolServer) handleUpdateRequirement(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	r, err := ts.store.UpdateRequirement(ctx, slug, req.GetString("item", ""), req.GetString("status", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to update requirement: %w", err)
	}
	return r, nil
}
