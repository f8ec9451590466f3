// Package tools provides the portfolio tool implementations.
package tools

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/DAAIDev/AgentBoxDev/internal/google"
	"github.com/DAAIDev/AgentBoxDev/internal/health"
	"github.com/DAAIDev/AgentBoxDev/internal/mail"
	mcpserver "github.com/DAAIDev/AgentBoxDev/internal/server"
	"github.com/DAAIDev/AgentBoxDev/internal/store"
)

// Mailer sends outbound email.
type Mailer interface {
	From() string
	Send(ctx context.Context, msg mail.Message) error
}

// Google reads and writes the connected calendar and mailbox.
type Google interface {
	ListEvents(ctx context.Context, from time.Time, days, maxResults int) ([]google.Event, error)
	CreateEvent(ctx context.Context, in google.EventInput) (*google.Event, error)
	SearchMessages(ctx context.Context, query string, maxResults int) ([]google.MessageSummary, error)
}

// Blobs reads stored document content.
type Blobs interface {
	Get(ctx context.Context, key string, limit int64) ([]byte, error)
	URL(key string) string
}

// HealthChecker probes a deployment's components.
type HealthChecker interface {
	Check(ctx context.Context, slug string) (*health.Report, error)
}

// Deps are the collaborators handed to the tool set. Mailer, Google,
// Blobs and Health may be left nil when not configured; the tools that
// need them then fail with a configuration error.
type Deps struct {
	Store      *store.Store
	Mailer     Mailer
	Google     Google
	Blobs      Blobs
	Health     HealthChecker
	HTTPClient *http.Client
	Logger     *zap.Logger
	Now        func() time.Time
}

// ToolServer holds the dependencies for tool handlers.
type ToolServer struct {
	server     *mcpserver.Server
	store      *store.Store
	mailer     Mailer
	google     Google
	blobs      Blobs
	health     HealthChecker
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time
}

// RegisterAll registers every tool with s in catalog order. The first
// registration failure is returned.
func RegisterAll(s *mcpserver.Server, deps Deps) error {
	ts := &ToolServer{
		server:     s,
		store:      deps.Store,
		mailer:     deps.Mailer,
		google:     deps.Google,
		blobs:      deps.Blobs,
		health:     deps.Health,
		httpClient: deps.HTTPClient,
		logger:     deps.Logger,
		now:        deps.Now,
	}
	if ts.httpClient == nil {
		ts.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if ts.logger == nil {
		ts.logger = zap.NewNop()
	}
	if ts.now == nil {
		ts.now = time.Now
	}

	registrations := []func() error{
		// Companies
		ts.registerListCompanies,
		ts.registerGetCompany,
		ts.registerCreateCompany,
		ts.registerUpdateCompany,
		ts.registerDeleteCompany,
		ts.registerGetPortfolioSummary,

		// Milestones
		ts.registerListMilestones,
		ts.registerAddMilestone,
		ts.registerUpdateMilestone,
		ts.registerDeleteMilestone,

		// Requirements
		ts.registerListRequirements,
		ts.registerAddRequirement,
		ts.registerUpdateRequirement,

		// Activity
		ts.registerLogActivity,
		ts.registerGetRecentActivity,

		// Contacts
		ts.registerListContacts,
		ts.registerAddContact,

		// Documents
		ts.registerListDocuments,
		ts.registerGetDocumentContent,

		// Dev tasks
		ts.registerListTasks,
		ts.registerCreateTask,
		ts.registerUpdateTask,
		ts.registerDeleteTask,

		// Deployments
		ts.registerListDeployments,
		ts.registerGetDeployment,
		ts.registerCreateDeployment,
		ts.registerUpdateDeployment,
		ts.registerUpdateDeploymentComponent,
		ts.registerDeleteDeployment,
		ts.registerCheckDeploymentHealth,

		// Communication
		ts.registerSendProjectUpdate,
		ts.registerSendEmail,
		ts.registerGetCalendarEvents,
		ts.registerCreateCalendarEvent,
		ts.registerSearchEmails,
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

// optString returns a pointer to the named string argument, or nil when
// the caller did not supply it.
func optString(req mcp.CallToolRequest, key string) *string {
	v, ok := req.GetArguments()[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// optStrings returns the named list argument, or nil when absent.
func optStrings(req mcp.CallToolRequest, key string) []string {
	if _, ok := req.GetArguments()[key]; !ok {
		return nil
	}
	return req.GetStringSlice(key, []string{})
}

// recipients splits a comma or semicolon separated address list.
func recipients(v string) []string {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func listResult(key string, items any, count int) map[string]any {
	return map[string]any{key: items, "count": count}
}
