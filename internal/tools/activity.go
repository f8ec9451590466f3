package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// registerLogActivity registers the log_activity tool.
func (ts *ToolServer) registerLogActivity() error {
	tool := mcp.NewTool("log_activity",
		mcp.WithDescription("Append an entry to a company's activity log."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Company slug"),
		),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Kind of activity"),
			mcp.Enum(types.ActivityTypes...),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("What happened"),
		),
	)

	return ts.server.AddTool(tool, ts.handleLogActivity)
}

func (ts *ToolServer) handleLogActivity(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	a, err := ts.store.LogActivity(ctx, slug, req.GetString("type", ""), req.GetString("description", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to log activity: %w", err)
	}
	return a, nil
}

// registerGetRecentActivity registers the get_recent_activity tool.
func (ts *ToolServer) registerGetRecentActivity() error {
	tool := mcp.NewTool("get_recent_activity",
		mcp.WithDescription("Get activity newest first. Without a slug, returns activity across the whole portfolio including system entries such as sent emails. Use slug \"platform\" for system entries only."),
		mcp.WithString("slug",
			mcp.Description("Company slug"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum entries to return (default 20, max 100)"),
			mcp.Min(1),
		),
	)

	return ts.server.AddTool(tool, ts.handleGetRecentActivity)
}

func (ts *ToolServer) handleGetRecentActivity(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	activity, err := ts.store.RecentActivity(ctx, req.GetString("slug", ""), req.GetInt("limit", 0))
	if err != nil {
		return nil, fmt.Errorf("failed to get recent activity: %w", err)
	}
	return listResult("activity", activity, len(activity)), nil
}
