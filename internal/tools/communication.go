package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/internal/google"
	"github.com/DAAIDev/AgentBoxDev/internal/mail"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

const (
	defaultCalendarDays = 7
	maxCalendarDays     = 90
	defaultMaxResults   = 10
	maxMaxResults       = 50
)

func (ts *ToolServer) requireMailer(op string) error {
	if ts.mailer == nil {
		return apperr.Configuration(op, "outbound email is not configured: set GMAIL_USER and GMAIL_APP_PASSWORD")
	}
	return nil
}

func (ts *ToolServer) requireGoogle(op string) error {
	if ts.google == nil {
		return apperr.Configuration(op, "Google access is not configured: set GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REFRESH_TOKEN")
	}
	return nil
}

// logSent records an outbound email as a global activity entry.
func (ts *ToolServer) logSent(ctx context.Context, description string) error {
	if _, err := ts.store.LogActivity(ctx, "", types.ActivityEmail, description); err != nil {
		ts.logger.Error("email sent but activity was not recorded", zap.String("description", description), zap.Error(err))
		return fmt.Errorf("email sent but failed to record activity: %w", err)
	}
	return nil
}

func clamp(v, def, ceiling int) int {
	if v <= 0 {
		return def
	}
	if v > ceiling {
		return ceiling
	}
	return v
}

// registerSendProjectUpdate registers the send_project_update tool.
func (ts *ToolServer) registerSendProjectUpdate() error {
	tool := mcp.NewTool("send_project_update",
		mcp.WithDescription("Email a portfolio progress report with a progress bar per company. With include_details, each company's milestones (except those marked [FUTURE]) and outstanding requirements are listed. The send is recorded in the activity log."),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient address; separate several with commas"),
		),
		mcp.WithBoolean("include_details",
			mcp.Description("Include per-company milestones and requirements"),
		),
		mcp.WithString("subject",
			mcp.Description("Subject line (default: 'Portfolio update: <date>')"),
		),
	)

	return ts.server.AddTool(tool, ts.handleSendProjectUpdate)
}

func (ts *ToolServer) handleSendProjectUpdate(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	const op = "send_project_update"
	if err := ts.requireMailer(op); err != nil {
		return nil, err
	}
	to := recipients(req.GetString("to", ""))
	if len(to) == 0 {
		return nil, apperr.Validation(op, "at least one recipient is required")
	}
	includeDetails := req.GetBool("include_details", false)

	companies, err := ts.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}
	now := ts.now()
	data := buildReport(companies, includeDetails, now)
	html, text, err := renderReport(data)
	if err != nil {
		return nil, err
	}

	subject := req.GetString("subject", "")
	if subject == "" {
		subject = "Portfolio update: " + data.Date
	}
	if err := ts.mailer.Send(ctx, mail.Message{To: to, Subject: subject, HTML: html, Text: text}); err != nil {
		return nil, fmt.Errorf("failed to send project update: %w", err)
	}

	detail := "summary"
	if includeDetails {
		detail = "detailed"
	}
	if err := ts.logSent(ctx, fmt.Sprintf("Sent %s project update %q to %s", detail, subject, strings.Join(to, ", "))); err != nil {
		return nil, err
	}

	return map[string]any{
		"sent":            true,
		"to":              to,
		"subject":         subject,
		"companies":       len(data.Companies),
		"progress":        data.Progress,
		"include_details": includeDetails,
	}, nil
}

// registerSendEmail registers the send_email tool.
func (ts *ToolServer) registerSendEmail() error {
	tool := mcp.NewTool("send_email",
		mcp.WithDescription("Send an email from the portfolio account. The send is recorded in the activity log."),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient address; separate several with commas"),
		),
		mcp.WithString("subject",
			mcp.Required(),
			mcp.Description("Subject line"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Message body"),
		),
		mcp.WithBoolean("html",
			mcp.Description("Treat the body as HTML"),
		),
	)

	return ts.server.AddTool(tool, ts.handleSendEmail)
}

func (ts *ToolServer) handleSendEmail(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	const op = "send_email"
	if err := ts.requireMailer(op); err != nil {
		return nil, err
	}
	to := recipients(req.GetString("to", ""))
	if len(to) == 0 {
		return nil, apperr.Validation(op, "at least one recipient is required")
	}
	subject := req.GetString("subject", "")
	msg := mail.Message{To: to, Subject: subject}
	if req.GetBool("html", false) {
		msg.HTML = req.GetString("body", "")
	} else {
		msg.Text = req.GetString("body", "")
	}

	if err := ts.mailer.Send(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to send email: %w", err)
	}
	if err := ts.logSent(ctx, fmt.Sprintf("Sent email %q to %s", subject, strings.Join(to, ", "))); err != nil {
		return nil, err
	}
	return map[string]any{"sent": true, "to": to, "subject": subject}, nil
}

// registerGetCalendarEvents registers the get_calendar_events tool.
func (ts *ToolServer) registerGetCalendarEvents() error {
	tool := mcp.NewTool("get_calendar_events",
		mcp.WithDescription("List upcoming events on the primary calendar, starting now."),
		mcp.WithNumber("days_ahead",
			mcp.Description(fmt.Sprintf("How many days ahead to look (default %d, max %d)", defaultCalendarDays, maxCalendarDays)),
			mcp.Min(1),
		),
		mcp.WithNumber("max_results",
			mcp.Description(fmt.Sprintf("Maximum events (default %d, max %d)", defaultMaxResults, maxMaxResults)),
			mcp.Min(1),
		),
	)

	return ts.server.AddTool(tool, ts.handleGetCalendarEvents)
}

func (ts *ToolServer) handleGetCalendarEvents(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	if err := ts.requireGoogle("get_calendar_events"); err != nil {
		return nil, err
	}
	days := clamp(req.GetInt("days_ahead", 0), defaultCalendarDays, maxCalendarDays)
	limit := clamp(req.GetInt("max_results", 0), defaultMaxResults, maxMaxResults)

	events, err := ts.google.ListEvents(ctx, ts.now(), days, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	return listResult("events", events, len(events)), nil
}

// registerCreateCalendarEvent registers the create_calendar_event tool.
func (ts *ToolServer) registerCreateCalendarEvent() error {
	tool := mcp.NewTool("create_calendar_event",
		mcp.WithDescription("Create an event on the primary calendar and invite attendees."),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time, RFC 3339 (e.g. 2025-03-04T15:00:00-05:00)"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time, RFC 3339"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Location or meeting link"),
		),
		mcp.WithArray("attendees",
			mcp.Description("Attendee email addresses"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)

	return ts.server.AddTool(tool, ts.handleCreateCalendarEvent)
}

func (ts *ToolServer) handleCreateCalendarEvent(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	const op = "create_calendar_event"
	if err := ts.requireGoogle(op); err != nil {
		return nil, err
	}
	start, err := time.Parse(time.RFC3339, req.GetString("start", ""))
	if err != nil {
		return nil, apperr.Validation(op, "start must be an RFC 3339 time: %v", err)
	}
	end, err := time.Parse(time.RFC3339, req.GetString("end", ""))
	if err != nil {
		return nil, apperr.Validation(op, "end must be an RFC 3339 time: %v", err)
	}
	if !end.After(start) {
		return nil, apperr.Validation(op, "end must be after start")
	}

	event, err := ts.google.CreateEvent(ctx, google.EventInput{
		Summary:     req.GetString("summary", ""),
		Description: req.GetString("description", ""),
		Location:    req.GetString("location", ""),
		Start:       start,
		End:         end,
		Attendees:   optStrings(req, "attendees"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar event: %w", err)
	}
	return event, nil
}

// registerSearchEmails registers the search_emails tool.
func (ts *ToolServer) registerSearchEmails() error {
	tool := mcp.NewTool("search_emails",
		mcp.WithDescription("Search the mailbox with Gmail query syntax (e.g. 'from:ceo@acme.com newer_than:7d')."),
		mcp.WithString("query",
			mcp.Description("Gmail search query; empty lists the latest messages"),
		),
		mcp.WithNumber("max_results",
			mcp.Description(fmt.Sprintf("Maximum messages (default %d, max %d)", defaultMaxResults, maxMaxResults)),
			mcp.Min(1),
		),
	)

	return ts.server.AddTool(tool, ts.handleSearchEmails)
}

func (ts *ToolServer) handleSearchEmails(ctx context.Context, req mcp.CallToolRequest) (any, error) {
	if err := ts.requireGoogle("search_emails"); err != nil {
		return nil, err
	}
	limit := clamp(req.GetInt("max_results", 0), defaultMaxResults, maxMaxResults)
	messages, err := ts.google.SearchMessages(ctx, req.GetString("query", ""), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search email: %w", err)
	}
	return listResult("messages", messages, len(messages)), nil
}
