package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/DAAIDev/AgentBoxDev/internal/store"
)

// registerListContacts registers the list_contacts tool.
func (ts *ToolServer) registerListContacts() error {
	tool := mcp.NewTool("list_contacts",
		mcp.WithDescription("List the people we work with at a company."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Company slug"),
		),
	)

	return ts.server.AddTool(tool, ts.handleListContacts)
}

func (ts *ToolServer) handleListContacts(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	contacts, err := ts.store.ListContacts(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return listResult("contacts", contacts, len(contacts)), nil
}

// registerAddContact registers the add_contact tool.
func (ts *ToolServer) registerAddContact() error {
	tool := mcp.NewTool("add_contact",
		mcp.WithDescription("Add a contact person to a company."),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("Company slug"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Full name"),
		),
		mcp.WithString("role",
			mcp.Description("Job title or role in the engagement"),
		),
		mcp.WithString("email",
			mcp.Description("Email address"),
		),
		mcp.WithString("phone",
			mcp.Description("Phone number"),
		),
	)

	return ts.server.AddTool(tool, ts.handleAddContact)
}

func (ts *ToolServer) handleAddContact(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return nil, err
	}
	contact, err := ts.store.AddContact(ctx, slug, store.ContactInput{
		Name:  req.GetString("name", ""),
		Role:  req.GetString("role", ""),
		Email: req.GetString("email", ""),
		Phone: req.GetString("phone", ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add contact: %w", err)
	}
	return contact, nil
}
