package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/DAAIDev/AgentBoxDev/internal/store"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// registerListMilestones registers the list_milestones tool.
func (ts *ToolServer) registerListMilestones() error {
	tool := mcp.NewTool("list_milestones",
		mcp.WithDescription("List a company's milestones in display order."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Company slug"),
		),
	)

	return ts.server.AddTool(tool, ts.handleListMilestones)
}

func (ts *ToolServer) handleListMilestones(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	milestones, err := ts.store.ListMilestones(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to list milestones: %w", err)
	}
	return listResult("milestones", milestones, len(milestones)), nil
}

// registerAddMilestone registers the add_milestone tool.
func (ts *ToolServer) registerAddMilestone() error {
	tool := mcp.NewTool("add_milestone",
		mcp.WithDescription("Append a milestone to a company's plan. It is placed after the existing milestones."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Company slug"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Milestone title. Prefix with [FUTURE] to keep it out of project update emails."),
		),
		mcp.WithString("status",
			mcp.Description("Initial status (default: pending)"),
			mcp.Enum(types.MilestoneStatuses...),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date, YYYY-MM-DD"),
		),
		mcp.WithString("notes",
			mcp.Description("Free-form notes"),
		),
	)

	return ts.server.AddTool(tool, ts.handleAddMilestone)
}

func (ts *ToolServer) handleAddMilestone(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	milestone, err := ts.store.AddMilestone(ctx, slug, store.MilestoneInput{
		Title:   req.GetString("title", ""),
		Status:  req.GetString("status", ""),
		DueDate: req.GetString("due_date", ""),
		Notes:   req.GetString("notes", ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add milestone: %w", err)
	}
	return milestone, nil
}

// registerUpdateMilestone registers the update_milestone tool.
func (ts *ToolServer) registerUpdateMilestone() error {
	tool := mcp.NewTool("update_milestone",
		mcp.WithDescription("Update a milestone. Marking it done records the completion time."),
		mcp.WithString("milestone_id",
			mcp.Required(),
			mcp.Description("Milestone id"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum(types.MilestoneStatuses...),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("notes",
			mcp.Description("Replacement notes"),
		),
		mcp.WithString("due_date",
			mcp.Description("New due date, YYYY-MM-DD"),
		),
	)

	return ts.server.AddTool(tool, ts.handleUpdateMilestone)
}

func (ts *ToolServer) handleUpdateMilestone(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := req.RequireString("milestone_id")
	if err != nil {
		return nil, err
	}
	milestone, err := ts.store.UpdateMilestone(ctx, id, store.MilestonePatch{
		Title:   optString(req, "title"),
		Status:  optString(req, "status"),
		DueDate: optString(req, "due_date"),
		Notes:   optString(req, "notes"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update milestone: %w", err)
	}
	return milestone, nil
}

// registerDeleteMilestone registers the delete_milestone tool.
func (ts *ToolServer) registerDeleteMilestone() error {
	tool := mcp.NewTool("delete_milestone",
		mcp.WithDescription("Delete a milestone. The order of the remaining milestones is unchanged."),
		mcp.WithString("milestone_id",
			mcp.Required(),
			mcp.Description("Milestone id"),
		),
	)

	return ts.server.AddTool(tool, ts.handleDeleteMilestone)
}

func (ts *ToolServer) handleDeleteMilestone(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := req.RequireString("milestone_id")
	if err != nil {
		return nil, err
	}
	if err := ts.store.DeleteMilestone(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete milestone: %w", err)
	}
	return map[string]any{"deleted": true, "milestone_id": id}, nil
}
