package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/internal/store"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// registerListDeployments registers the list_deployments tool.
func (ts *ToolServer) registerListDeployments() error {
	tool := mcp.NewTool("list_deployments",
		mcp.WithDescription("List deployments with the status of their github, frontend, mcp_server and database components."),
	)

	return ts.server.AddTool(tool, ts.handleListDeployments)
}

func (ts *ToolServer) handleListDeployments(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
	deployments, err := ts.store.ListDeployments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	return listResult("deployments", deployments, len(deployments)), nil
}

// registerGetDeployment registers the get_deployment tool.
func (ts *ToolServer) registerGetDeployment() error {
	tool := mcp.NewTool("get_deployment",
		mcp.WithDescription("Get a deployment and its components."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Deployment slug"),
		),
	)

	return ts.server.AddTool(tool, ts.handleGetDeployment)
}

func (ts *ToolServer) handleGetDeployment(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	d, err := ts.store.GetDeployment(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}
	return d, nil
}

// componentURLArgs maps create_deployment arguments to component types.
var componentURLArgs = map[string]string{
	"github_url":     types.ComponentGitHub,
	"frontend_url":   types.ComponentFrontend,
	"mcp_server_url": types.ComponentMCPServer,
	"database_url":   types.ComponentDatabase,
}

// registerCreateDeployment registers the create_deployment tool.
func (ts *ToolServer) registerCreateDeployment() error {
	tool := mcp.NewTool("create_deployment",
		mcp.WithDescription("Register a deployment. Its slug is derived from the name and must be unique. Github, frontend, mcp_server and database components are always created; components without a URL are not_configured."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Deployment name, e.g. 'Acme Agent Box'"),
		),
		mcp.WithString("description",
			mcp.Description("What this deployment is"),
		),
		mcp.WithString("github_url",
			mcp.Description("Repository URL"),
		),
		mcp.WithString("frontend_url",
			mcp.Description("Frontend URL"),
		),
		mcp.WithString("mcp_server_url",
			mcp.Description("MCP server base URL; /health is probed"),
		),
		mcp.WithString("database_url",
			mcp.Description("Database health endpoint URL"),
		),
	)

	return ts.server.AddTool(tool, ts.handleCreateDeployment)
}

func (ts *ToolServer) handleCreateDeployment(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	urls := make(map[string]string)
	for arg, componentType := range componentURLArgs {
		if v := req.GetString(arg, ""); v != "" {
			urls[componentType] = v
		}
	}
	d, err := ts.store.CreateDeployment(ctx, store.DeploymentInput{
		Name:        req.GetString("name", ""),
		Description: req.GetString("description", ""),
		URLs:        urls,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create deployment: %w", err)
	}
	return d, nil
}

// registerUpdateDeployment registers the update_deployment tool.
func (ts *ToolServer) registerUpdateDeployment() error {
	tool := mcp.NewTool("update_deployment",
		mcp.WithDescription("Change a deployment's status or description."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Deployment slug"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum(types.DeploymentStatuses...),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
	)

	return ts.server.AddTool(tool, ts.handleUpdateDeployment)
}

func (ts *ToolServer) handleUpdateDeployment(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	d, err := ts.store.UpdateDeployment(ctx, slug, store.DeploymentPatch{
		Status:      optString(req, "status"),
		Description: optString(req, "description"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update deployment: %w", err)
	}
	return d, nil
}

// registerUpdateDeploymentComponent registers the update_deployment_component tool.
func (ts *ToolServer) registerUpdateDeploymentComponent() error {
	tool := mcp.NewTool("update_deployment_component",
		mcp.WithDescription("Update one component of a deployment. Config keys are merged into the existing config; a null value removes a key. An empty url marks the component not_configured."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Deployment slug"),
		),
		mcp.WithString("component_type",
			mcp.Required(),
			mcp.Description("Component to update"),
			mcp.Enum(types.ComponentTypes...),
		),
		mcp.WithString("url",
			mcp.Description("New URL"),
		),
		mcp.WithString("status",
			mcp.Description("Override the health status"),
			mcp.Enum(types.HealthStatuses...),
		),
		mcp.WithObject("config",
			mcp.Description("Config keys to merge"),
		),
	)

	return ts.server.AddTool(tool, ts.handleUpdateDeploymentComponent)
}

func (ts *ToolServer) handleUpdateDeploymentComponent(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	patch := store.ComponentPatch{
		URL:    optString(req, "url"),
		Status: optString(req, "status"),
	}
	if raw, ok := req.GetArguments()["config"]; ok && raw != nil {
		cfg, ok := raw.(map[string]any)
		if !ok {
			return nil, apperr.Validation("update_deployment_component", "config must be an object")
		}
		patch.Config = cfg
	}
	c, err := ts.store.UpdateComponent(ctx, slug, req.GetString("component_type", ""), patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update deployment component: %w", err)
	}
	return c, nil
}

// registerDeleteDeployment registers the delete_deployment tool.
func (ts *ToolServer) registerDeleteDeployment() error {
	tool := mcp.NewTool("delete_deployment",
		mcp.WithDescription("Delete a deployment and its components."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Deployment slug"),
		),
	)

	return ts.server.AddTool(tool, ts.handleDeleteDeployment)
}

func (ts *ToolServer) handleDeleteDeployment(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	if err := ts.store.DeleteDeployment(ctx, slug); err != nil {
		return nil, fmt.Errorf("failed to delete deployment: %w", err)
	}
	return map[string]any{"deleted": true, "slug": slug}, nil
}

// registerCheckDeploymentHealth registers the check_deployment_health tool.
func (ts *ToolServer) registerCheckDeploymentHealth() error {
	tool := mcp.NewTool("check_deployment_health",
		mcp.WithDescription("Probe every configured component of a deployment over HTTP and record the result. Slow (>5s) or non-2xx responses are degraded; failures are down."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Deployment slug"),
		),
	)

	return ts.server.AddTool(tool, ts.handleCheckDeploymentHealth)
}

func (ts *ToolServer) handleCheckDeploymentHealth(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	if ts.health == nil {
		return nil, apperr.Configuration("check_deployment_health", "health checker is not configured")
	}
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	report, err := ts.health.Check(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check deployment health: %w", err)
	}
	return report, nil
}
