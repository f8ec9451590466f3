package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/DAAIDev/AgentBoxDev/internal/store"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// registerListCompanies registers the list_companies tool.
func (ts *ToolServer) registerListCompanies() error {
	tool := mcp.NewTool("list_companies",
		mcp.WithDescription("List portfolio companies ordered by name. Returns slug, name, description, status and tools for each company."),
		mcp.WithString("status",
			mcp.Description("Only return companies with this status"),
			mcp.Enum(types.CompanyStatuses...),
		),
	)

	return ts.server.AddTool(tool, ts.handleListCompanies)
}

func (ts *ToolServer) handleListCompanies(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	companies, err := ts.store.ListCompanies(ctx, req.GetString("status", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return listResult("companies", companies, len(companies)), nil
}

// registerGetCompany registers the get_company tool.
func (ts *ToolServer) registerGetCompany() error {
	tool := mcp.NewTool("get_company",
		mcp.WithDescription("Get a company with its contacts, milestones, requirements, documents and most recent activity."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Company slug"),
		),
	)

	return ts.server.AddTool(tool, ts.handleGetCompany)
}

func (ts *ToolServer) handleGetCompany(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	detail, err := ts.store.GetCompanyDetail(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return detail, nil
}

// registerCreateCompany registers the create_company tool.
func (ts *ToolServer) registerCreateCompany() error {
	tool := mcp.NewTool("create_company",
		mcp.WithDescription("Add a company to the portfolio. The slug must be lowercase letters, digits and hyphens and must not already exist."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Unique slug, e.g. 'acme-health'"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Display name"),
		),
		mcp.WithString("description",
			mcp.Description("Short description of the company and engagement"),
		),
		mcp.WithString("status",
			mcp.Description("Engagement status (default: discovery)"),
			mcp.Enum(types.CompanyStatuses...),
		),
		mcp.WithArray("tools",
			mcp.Description("Names of the tools this company uses"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)

	return ts.server.AddTool(tool, ts.handleCreateCompany)
}

func (ts *ToolServer) handleCreateCompany(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	company, err := ts.store.CreateCompany(ctx, store.CompanyInput{
		Slug:        req.GetString("slug", ""),
		Name:        req.GetString("name", ""),
		Description: req.GetString("description", ""),
		Status:      req.GetString("status", ""),
		Tools:       optStrings(req, "tools"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return company, nil
}

// registerUpdateCompany registers the update_company tool.
func (ts *ToolServer) registerUpdateCompany() error {
	tool := mcp.NewTool("update_company",
		mcp.WithDescription("Update a company's name, description, status or tools. Only the supplied fields change."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Company slug"),
		),
		mcp.WithString("name",
			mcp.Description("New display name"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("status",
			mcp.Description("New engagement status"),
			mcp.Enum(types.CompanyStatuses...),
		),
		mcp.WithArray("tools",
			mcp.Description("Replacement list of tool names"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)

	return ts.server.AddTool(tool, ts.handleUpdateCompany)
}

func (ts *ToolServer) handleUpdateCompany(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	company, err := ts.store.UpdateCompany(ctx, slug, store.CompanyPatch{
		Name:        optString(req, "name"),
		Description: optString(req, "description"),
		Status:      optString(req, "status"),
		Tools:       optStrings(req, "tools"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update company: %w", err)
	}
	return company, nil
}

// registerDeleteCompany registers the delete_company tool.
func (ts *ToolServer) registerDeleteCompany() error {
	tool := mcp.NewTool("delete_company",
		mcp.WithDescription("Delete a company together with its contacts, milestones, requirements, documents and activity. Linked dev tasks are kept but unlinked."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Company slug"),
		),
	)

	return ts.server.AddTool(tool, ts.handleDeleteCompany)
}

func (ts *ToolServer) handleDeleteCompany(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	if err := ts.store.DeleteCompany(ctx, slug); err != nil {
		return nil, fmt.Errorf("failed to delete company: %w", err)
	}
	return map[string]any{"deleted": true, "slug": slug}, nil
}

// registerGetPortfolioSummary registers the get_portfolio_summary tool.
func (ts *ToolServer) registerGetPortfolioSummary() error {
	tool := mcp.NewTool("get_portfolio_summary",
		mcp.WithDescription("Summarize the portfolio: per-company milestone progress (percent done) and outstanding requirements, plus counts by status."),
	)

	return ts.server.AddTool(tool, ts.handleGetPortfolioSummary)
}

func (ts *ToolServer) handleGetPortfolioSummary(ctx context.Context, _ mcp.CallToolRequest) (any, error) {
	summary, err := ts.store.PortfolioSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build portfolio summary: %w", err)
	}
	return summary, nil
}
