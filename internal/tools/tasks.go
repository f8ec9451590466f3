package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/DAAIDev/AgentBoxDev/internal/store"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// registerListTasks registers the list_tasks tool.
func (ts *ToolServer) registerListTasks() error {
	tool := mcp.NewTool("list_tasks",
		mcp.WithDescription("List engineering tasks, highest priority first. All filters are optional."),
		mcp.WithString("status",
			mcp.Description("Only tasks with this status"),
			mcp.Enum(types.TaskStatuses...),
		),
		mcp.WithString("priority",
			mcp.Description("Only tasks with this priority"),
			mcp.Enum(types.Priorities...),
		),
		mcp.WithString("assigned_to",
			mcp.Description("Only tasks assigned to this person"),
		),
		mcp.WithString("slug",
			mcp.Description("Only tasks linked to this company"),
		),
	)

	return ts.server.AddTool(tool, ts.handleListTasks)
}

func (ts *ToolServer) handleListTasks(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	tasks, err := ts.store.ListTasks(ctx, store.TaskFilter{
		Status:     req.GetString("status", ""),
		Priority:   req.GetString("priority", ""),
		AssignedTo: req.GetString("assigned_to", ""),
		Slug:       req.GetString("slug", ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return listResult("tasks", tasks, len(tasks)), nil
}

// registerCreateTask registers the create_task tool.
func (ts *ToolServer) registerCreateTask() error {
	tool := mcp.NewTool("create_task",
		mcp.WithDescription("Create an engineering task, optionally linked to a company."),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short task title"),
		),
		mcp.WithString("description",
			mcp.Description("Details"),
		),
		mcp.WithString("assigned_to",
			mcp.Description("Person responsible"),
		),
		mcp.WithString("priority",
			mcp.Description("Priority (default: medium)"),
			mcp.Enum(types.Priorities...),
		),
		mcp.WithString("status",
			mcp.Description("Initial status (default: todo)"),
			mcp.Enum(types.TaskStatuses...),
		),
		mcp.WithArray("steps",
			mcp.Description("Ordered implementation steps"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date, YYYY-MM-DD"),
		),
		mcp.WithString("slug",
			mcp.Description("Company slug to link the task to"),
		),
	)

	return ts.server.AddTool(tool, ts.handleCreateTask)
}

func (ts *ToolServer) handleCreateTask(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	task, err := ts.store.CreateTask(ctx, store.TaskInput{
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
		AssignedTo:  req.GetString("assigned_to", ""),
		Priority:    req.GetString("priority", ""),
		Status:      req.GetString("status", ""),
		Steps:       optStrings(req, "steps"),
		DueDate:     req.GetString("due_date", ""),
		Slug:        req.GetString("slug", ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// registerUpdateTask registers the update_task tool.
func (ts *ToolServer) registerUpdateTask() error {
	tool := mcp.NewTool("update_task",
		mcp.WithDescription("Update an engineering task. Only the supplied fields change; marking it done records the completion time."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("assigned_to",
			mcp.Description("New assignee"),
		),
		mcp.WithString("priority",
			mcp.Description("New priority"),
			mcp.Enum(types.Priorities...),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum(types.TaskStatuses...),
		),
		mcp.WithArray("steps",
			mcp.Description("Replacement list of steps"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("due_date",
			mcp.Description("New due date, YYYY-MM-DD"),
		),
	)

	return ts.server.AddTool(tool, ts.handleUpdateTask)
}

func (ts *ToolServer) handleUpdateTask(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := req.RequireString("task_id")
	if err != nil {
		return nil, err
	}
	task, err := ts.store.UpdateTask(ctx, id, store.TaskPatch{
		Title:       optString(req, "title"),
		Description: optString(req, "description"),
		AssignedTo:  optString(req, "assigned_to"),
		Priority:    optString(req, "priority"),
		Status:      optString(req, "status"),
		Steps:       optStrings(req, "steps"),
		DueDate:     optString(req, "due_date"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

// registerDeleteTask registers the delete_task tool.
func (ts *ToolServer) registerDeleteTask() error {
	tool := mcp.NewTool("delete_task",
		mcp.WithDescription("Delete an engineering task."),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task id"),
		),
	)

	return ts.server.AddTool(tool, ts.handleDeleteTask)
}

func (ts *ToolServer) handleDeleteTask(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	id, err := req.RequireString("task_id")
	if err != nil {
		return nil, err
	}
	if err := ts.store.DeleteTask(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to delete task: %w", err)
	}
	return map[string]any{"deleted": true, "task_id": id}, nil
}
