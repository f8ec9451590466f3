package tools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/internal/google"
	"github.com/DAAIDev/AgentBoxDev/internal/health"
	"github.com/DAAIDev/AgentBoxDev/internal/mail"
	mcpserver "github.com/DAAIDev/AgentBoxDev/internal/server"
	"github.com/DAAIDev/AgentBoxDev/internal/store"
	"github.com/DAAIDev/AgentBoxDev/internal/store/storetest"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

var fixedNow = time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC)

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeMailer) From() string { return "portfolio@example.com" }

func (f *fakeMailer) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeGoogle struct {
	from    time.Time
	days    int
	max     int
	query   string
	created *google.EventInput
}

func (f *fakeGoogle) ListEvents(_ context.Context, from time.Time, days, maxResults int) ([]google.Event, error) {
	f.from, f.days, f.max = from, days, maxResults
	return []google.Event{{ID: "evt1", Summary: "Acme weekly", Start: "2025-03-05T15:00:00Z", End: "2025-03-05T15:30:00Z"}}, nil
}

func (f *fakeGoogle) CreateEvent(_ context.Context, in google.EventInput) (*google.Event, error) {
	f.created = &in
	return &google.Event{ID: "evt2", Summary: in.Summary, Start: in.Start.Format(time.RFC3339), End: in.End.Format(time.RFC3339)}, nil
}

func (f *fakeGoogle) SearchMessages(_ context.Context, query string, maxResults int) ([]google.MessageSummary, error) {
	f.query, f.max = query, maxResults
	return []google.MessageSummary{{ID: "m1", From: "ceo@acme.com", Subject: "Handbook"}}, nil
}

type fakeBlobs map[string][]byte

func (f fakeBlobs) Get(_ context.Context, key string, limit int64) ([]byte, error) {
	data, ok := f[key]
	if !ok {
		return nil, apperr.NotFound("get object", "object", key)
	}
	if int64(len(data)) > limit {
		data = data[:limit]
	}
	return data, nil
}

func (f fakeBlobs) URL(key string) string { return "https://files.example.com/documents/" + key }

type fakeHealth struct {
	slug string
}

func (f *fakeHealth) Check(_ context.Context, slug string) (*health.Report, error) {
	f.slug = slug
	return &health.Report{
		DeploymentSlug: slug,
		CheckedAt:      fixedNow,
		Results:        map[string]health.Result{types.ComponentFrontend: {Status: types.HealthHealthy}},
	}, nil
}

type harness struct {
	srv    *mcpserver.Server
	store  *store.Store
	mailer *fakeMailer
	google *fakeGoogle
	blobs  fakeBlobs
	health *fakeHealth
}

func newHarness(t *testing.T, mutate ...func(*Deps)) *harness {
	t.Helper()
	h := &harness{
		srv:    mcpserver.New(zaptest.NewLogger(t)),
		store:  storetest.New(t),
		mailer: &fakeMailer{},
		google: &fakeGoogle{},
		blobs:  fakeBlobs{},
		health: &fakeHealth{},
	}
	deps := Deps{
		Store:  h.store,
		Mailer: h.mailer,
		Google: h.google,
		Blobs:  h.blobs,
		Health: h.health,
		Logger: zaptest.NewLogger(t),
		Now:    func() time.Time { return fixedNow },
	}
	for _, m := range mutate {
		m(&deps)
	}
	require.NoError(t, RegisterAll(h.srv, deps))
	return h
}

func (h *harness) call(t *testing.T, name string, args map[string]any) (map[string]any, error) {
	t.Helper()
	out, err := h.srv.Call(context.Background(), name, args)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	return m, nil
}

func (h *harness) mustCall(t *testing.T, name string, args map[string]any) map[string]any {
	t.Helper()
	m, err := h.call(t, name, args)
	require.NoError(t, err, name)
	return m
}

func TestRegisterAllCatalog(t *testing.T) {
	h := newHarness(t)

	want := []string{
		"list_companies", "get_company", "create_company", "update_company", "delete_company", "get_portfolio_summary",
		"list_milestones", "add_milestone", "update_milestone", "delete_milestone",
		"list_requirements", "add_requirement", "update_requirement",
		"log_activity", "get_recent_activity",
		"list_contacts", "add_contact",
		"list_documents", "get_document_content",
		"list_tasks", "create_task", "update_task", "delete_task",
		"list_deployments", "get_deployment", "create_deployment", "update_deployment",
		"update_deployment_component", "delete_deployment", "check_deployment_health",
		"send_project_update", "send_email", "get_calendar_events", "create_calendar_event", "search_emails",
	}
	if diff := cmp.Diff(want, h.srv.Names()); diff != "" {
		t.Errorf("registered tools mismatch (-want +got):\n%s", diff)
	}

	for _, d := range h.srv.Descriptors() {
		assert.NotEmpty(t, d.Description, d.Name)
		assert.Equal(t, "object", d.InputSchema["type"], d.Name)
	}

	err := RegisterAll(h.srv, Deps{Store: h.store})
	assert.ErrorContains(t, err, "already registered")
}

func TestSlugLookupFailsBeforeMutation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.call(t, "add_milestone", map[string]any{"slug": "ghost", "title": "Kickoff"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Contains(t, err.Error(), "ghost")

	_, err = h.call(t, "add_contact", map[string]any{"slug": "ghost", "name": "Dana"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	tasks, err := h.store.ListTasks(ctx, store.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestSchemaRejectsBadArguments(t *testing.T) {
	h := newHarness(t)
	storetest.SeedCompany(t, h.store, "acme", "Acme")

	_, err := h.call(t, "add_milestone", map[string]any{"slug": "acme"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = h.call(t, "log_activity", map[string]any{"slug": "acme", "type": "tweet", "description": "x"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = h.call(t, "no_such_tool", nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCompanyTools(t *testing.T) {
	h := newHarness(t)

	created := h.mustCall(t, "create_company", map[string]any{
		"slug": "acme", "name": "Acme Health", "status": "pilot", "tools": []string{"crm", "ehr"},
	})
	assert.Equal(t, "acme", created["slug"])

	_, err := h.call(t, "create_company", map[string]any{"slug": "acme", "name": "Again"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	updated := h.mustCall(t, "update_company", map[string]any{"slug": "acme", "status": "deployed"})
	assert.Equal(t, "deployed", updated["status"])
	assert.Equal(t, "Acme Health", updated["name"])

	list := h.mustCall(t, "list_companies", map[string]any{"status": "deployed"})
	assert.EqualValues(t, 1, list["count"])

	h.mustCall(t, "delete_company", map[string]any{"slug": "acme"})
	_, err = h.call(t, "get_company", map[string]any{"slug": "acme"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMilestoneTools(t *testing.T) {
	h := newHarness(t)
	storetest.SeedCompany(t, h.store, "acme", "Acme")

	first := h.mustCall(t, "add_milestone", map[string]any{"slug": "acme", "title": "Kickoff"})
	second := h.mustCall(t, "add_milestone", map[string]any{"slug": "acme", "title": "Pilot"})
	assert.EqualValues(t, 0, first["order_index"])
	assert.EqualValues(t, 1, second["order_index"])
	assert.Nil(t, first["completed_at"])

	done := h.mustCall(t, "update_milestone", map[string]any{"milestone_id": first["id"], "status": "done"})
	require.NotNil(t, done["completed_at"])

	reopened := h.mustCall(t, "update_milestone", map[string]any{"milestone_id": first["id"], "status": "in_progress"})
	assert.Equal(t, done["completed_at"], reopened["completed_at"])
	assert.NotEqual(t, done["updated_at"], reopened["updated_at"])

	h.mustCall(t, "delete_milestone", map[string]any{"milestone_id": first["id"]})
	third := h.mustCall(t, "add_milestone", map[string]any{"slug": "acme", "title": "Rollout"})
	assert.EqualValues(t, 2, third["order_index"])
}

func TestUpdateRequirementBySubstring(t *testing.T) {
	h := newHarness(t)
	storetest.SeedCompany(t, h.store, "acme", "Acme")
	h.mustCall(t, "add_requirement", map[string]any{"slug": "acme", "item": "Agent Handbook"})
	h.mustCall(t, "add_requirement", map[string]any{"slug": "acme", "item": "Sample call recordings"})

	got := h.mustCall(t, "update_requirement", map[string]any{"slug": "acme", "item": "handbook", "status": "received"})
	assert.Equal(t, "Agent Handbook", got["item"])
	assert.Equal(t, "received", got["status"])

	_, err := h.call(t, "update_requirement", map[string]any{"slug": "acme", "item": "budget", "status": "received"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	outstanding := h.mustCall(t, "list_requirements", map[string]any{"slug": "acme", "status": "needed"})
	assert.EqualValues(t, 1, outstanding["count"])
}

func TestActivityTools(t *testing.T) {
	h := newHarness(t)
	storetest.SeedCompany(t, h.store, "acme", "Acme")

	h.mustCall(t, "log_activity", map[string]any{"slug": "acme", "type": "call", "description": "Intro call"})
	h.mustCall(t, "log_activity", map[string]any{"slug": "acme", "type": "note", "description": "Sent NDA"})

	got := h.mustCall(t, "get_recent_activity", map[string]any{"slug": "acme", "limit": 1})
	items := got["activity"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Sent NDA", items[0].(map[string]any)["description"])
}

func TestPortfolioSummaryZeroMilestones(t *testing.T) {
	h := newHarness(t)
	storetest.SeedCompany(t, h.store, "empty", "Empty Co")
	storetest.SeedCompany(t, h.store, "busy", "Busy Co")
	for _, title := range []string{"a", "b", "c"} {
		h.mustCall(t, "add_milestone", map[string]any{"slug": "busy", "title": title})
	}
	ms, err := h.store.ListMilestones(context.Background(), "busy")
	require.NoError(t, err)
	h.mustCall(t, "update_milestone", map[string]any{"milestone_id": ms[0].ID, "status": "done"})

	got := h.mustCall(t, "get_portfolio_summary", nil)
	progress := map[string]float64{}
	for _, c := range got["companies"].([]any) {
		row := c.(map[string]any)
		progress[row["slug"].(string)] = row["progress"].(float64)
	}
	assert.Equal(t, map[string]float64{"empty": 0, "busy": 33}, progress)
}

func TestTaskTools(t *testing.T) {
	h := newHarness(t)
	storetest.SeedCompany(t, h.store, "acme", "Acme")

	task := h.mustCall(t, "create_task", map[string]any{
		"title": "Wire CRM", "priority": "high", "slug": "acme", "steps": []string{"get keys", "map fields"},
	})
	assert.Equal(t, "todo", task["status"])
	assert.Equal(t, []any{"get keys", "map fields"}, task["steps"])

	done := h.mustCall(t, "update_task", map[string]any{"task_id": task["id"], "status": "done"})
	assert.NotNil(t, done["completed_at"])

	list := h.mustCall(t, "list_tasks", map[string]any{"status": "done"})
	assert.EqualValues(t, 1, list["count"])

	h.mustCall(t, "delete_task", map[string]any{"task_id": task["id"]})
	_, err := h.call(t, "update_task", map[string]any{"task_id": task["id"], "title": "x"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDocumentContent(t *testing.T) {
	notes := "# Kickoff notes\n\nAll good."
	long := strings.Repeat("é", MaxContentChars+10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notes.md":
			_, _ = w.Write([]byte(notes))
		case "/long.txt":
			_, _ = w.Write([]byte(long))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h := newHarness(t, func(d *Deps) { d.HTTPClient = srv.Client() })
	ctx := context.Background()
	storetest.SeedCompany(t, h.store, "acme", "Acme")

	md, err := h.store.CreateDocument(ctx, "acme", types.Document{Name: "notes.md", URL: srv.URL + "/notes.md"})
	require.NoError(t, err)
	exe, err := h.store.CreateDocument(ctx, "acme", types.Document{Name: "setup.exe", URL: srv.URL + "/setup.exe"})
	require.NoError(t, err)
	big, err := h.store.CreateDocument(ctx, "", types.Document{Name: "long.txt", URL: srv.URL + "/long.txt"})
	require.NoError(t, err)
	stored, err := h.store.CreateDocument(ctx, "acme", types.Document{Name: "plan.csv", StoragePath: "acme/1-plan.csv"})
	require.NoError(t, err)
	h.blobs["acme/1-plan.csv"] = []byte("week,goal\n1,kickoff\n")

	got := h.mustCall(t, "get_document_content", map[string]any{"document_id": md.ID})
	assert.Equal(t, notes, got["content"])
	assert.Equal(t, false, got["truncated"])

	got = h.mustCall(t, "get_document_content", map[string]any{"document_id": exe.ID})
	assert.Nil(t, got["content"])
	assert.Equal(t, srv.URL+"/setup.exe", got["url"])
	assert.Contains(t, got["note"], "not decoded")

	got = h.mustCall(t, "get_document_content", map[string]any{"document_id": big.ID})
	assert.Equal(t, true, got["truncated"])
	assert.True(t, strings.HasSuffix(got["content"].(string),
		"\n\n[... truncated: showing first 50000 of 50010 characters ...]"))

	got = h.mustCall(t, "get_document_content", map[string]any{"document_id": stored.ID})
	assert.Equal(t, "week,goal\n1,kickoff\n", got["content"])
	assert.Equal(t, "https://files.example.com/documents/acme/1-plan.csv", got["url"])

	platform := h.mustCall(t, "list_documents", map[string]any{"slug": store.PlatformSlug})
	assert.EqualValues(t, 1, platform["count"])
}

func TestTruncateText(t *testing.T) {
	s, cut, n := TruncateText("héllo", 5, false)
	assert.Equal(t, "héllo", s)
	assert.False(t, cut)
	assert.Equal(t, 5, n)

	s, cut, n = TruncateText("héllo wörld", 5, false)
	assert.True(t, cut)
	assert.Equal(t, 11, n)
	assert.Equal(t, "héllo\n\n[... truncated: showing first 5 of 11 characters ...]", s)

	s, cut, _ = TruncateText("héllo wörld", 5, true)
	assert.True(t, cut)
	assert.Equal(t, "héllo\n\n[... truncated: showing first 5 of more than 11 characters ...]", s)

	s, cut, _ = TruncateText("hé", 5, true)
	assert.True(t, cut)
	assert.Equal(t, "hé\n\n[... truncated: showing first 2 of more than 2 characters ...]", s)
}

func TestCapBytesKeepsWholeRunes(t *testing.T) {
	data, capped := capBytes([]byte("abc"), 3)
	assert.False(t, capped)
	assert.Equal(t, "abc", string(data))

	// "é" is two bytes; a cut after its first byte drops it.
	data, capped = capBytes([]byte("abé"), 3)
	assert.True(t, capped)
	assert.Equal(t, "ab", string(data))
}

func TestDocumentContentBeyondFetchCap(t *testing.T) {
	prev := maxFetchBytes
	maxFetchBytes = 60000
	t.Cleanup(func() { maxFetchBytes = prev })

	body := strings.Repeat("a", 70000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	h := newHarness(t, func(d *Deps) { d.HTTPClient = srv.Client() })
	ctx := context.Background()
	remote, err := h.store.CreateDocument(ctx, "", types.Document{Name: "huge.txt", URL: srv.URL + "/huge.txt"})
	require.NoError(t, err)
	stored, err := h.store.CreateDocument(ctx, "", types.Document{Name: "huge.log", StoragePath: "platform/huge.log"})
	require.NoError(t, err)
	h.blobs["platform/huge.log"] = []byte(body)

	for _, id := range []string{remote.ID, stored.ID} {
		got := h.mustCall(t, "get_document_content", map[string]any{"document_id": id})
		assert.Equal(t, true, got["truncated"])
		assert.Nil(t, got["length"])
		assert.True(t, strings.HasSuffix(got["content"].(string),
			"\n\n[... truncated: showing first 50000 of more than 60000 characters ...]"))
	}
}

func TestDeploymentTools(t *testing.T) {
	h := newHarness(t)

	d := h.mustCall(t, "create_deployment", map[string]any{
		"name": "My Cool App!!", "frontend_url": "https://app.example.com",
	})
	assert.Equal(t, "my-cool-app", d["slug"])
	components := d["components"].([]any)
	require.Len(t, components, 4)
	statuses := map[string]string{}
	for _, c := range components {
		row := c.(map[string]any)
		statuses[row["component_type"].(string)] = row["status"].(string)
	}
	assert.Equal(t, map[string]string{
		"github":     "not_configured",
		"frontend":   "unknown",
		"mcp_server": "not_configured",
		"database":   "not_configured",
	}, statuses)

	_, err := h.call(t, "create_deployment", map[string]any{"name": "my cool app"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	c := h.mustCall(t, "update_deployment_component", map[string]any{
		"slug": "my-cool-app", "component_type": "mcp_server",
		"url": "https://mcp.example.com", "config": map[string]any{"region": "us-east-1"},
	})
	assert.Equal(t, "unknown", c["status"])
	assert.Equal(t, map[string]any{"region": "us-east-1"}, c["config"])

	report := h.mustCall(t, "check_deployment_health", map[string]any{"slug": "my-cool-app"})
	assert.Equal(t, "my-cool-app", h.health.slug)
	assert.Equal(t, "my-cool-app", report["deployment_slug"])

	h.mustCall(t, "delete_deployment", map[string]any{"slug": "my-cool-app"})
	_, err = h.call(t, "get_deployment", map[string]any{"slug": "my-cool-app"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func seedReport(t *testing.T, h *harness) {
	t.Helper()
	storetest.SeedCompany(t, h.store, "acme", "Acme")
	h.mustCall(t, "add_milestone", map[string]any{"slug": "acme", "title": "Launch pilot", "status": "done"})
	h.mustCall(t, "add_milestone", map[string]any{"slug": "acme", "title": "[FUTURE] Expand to billing"})
	h.mustCall(t, "add_requirement", map[string]any{"slug": "acme", "item": "Agent Handbook"})
}

func TestSendProjectUpdateLogsOneActivity(t *testing.T) {
	for _, details := range []bool{true, false} {
		h := newHarness(t)
		seedReport(t, h)

		got := h.mustCall(t, "send_project_update", map[string]any{"to": "a@example.com, b@example.com", "include_details": details})
		assert.Equal(t, true, got["sent"])
		assert.EqualValues(t, 50, got["progress"])

		require.Len(t, h.mailer.sent, 1)
		msg := h.mailer.sent[0]
		assert.Equal(t, []string{"a@example.com", "b@example.com"}, msg.To)
		assert.Equal(t, "Portfolio update: March 4, 2025", msg.Subject)
		assert.Contains(t, msg.HTML, "width: 50%")
		assert.NotContains(t, msg.HTML, "Expand to billing")
		if details {
			assert.Contains(t, msg.HTML, "Launch pilot")
			assert.Contains(t, msg.HTML, "Agent Handbook")
		} else {
			assert.NotContains(t, msg.HTML, "Launch pilot")
		}

		global, err := h.store.GlobalActivity(context.Background(), 10)
		require.NoError(t, err)
		require.Len(t, global, 1)
		assert.Equal(t, types.ActivityEmail, global[0].Type)
		assert.Contains(t, global[0].Description, "a@example.com")
	}
}

func TestSendProjectUpdateFailureLogsNothing(t *testing.T) {
	h := newHarness(t)
	seedReport(t, h)
	h.mailer.err = apperr.Upstream("send email", errors.New("535 auth failed"), "smtp")

	_, err := h.call(t, "send_project_update", map[string]any{"to": "a@example.com"})
	assert.True(t, apperr.Is(err, apperr.KindUpstream))

	global, err := h.store.GlobalActivity(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, global)
}

func TestSendEmail(t *testing.T) {
	h := newHarness(t)
	h.mustCall(t, "send_email", map[string]any{"to": "ceo@acme.com", "subject": "Hi", "body": "<p>Hello</p>", "html": true})
	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "<p>Hello</p>", h.mailer.sent[0].HTML)
	assert.Empty(t, h.mailer.sent[0].Text)

	global, err := h.store.GlobalActivity(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, global, 1)
}

func TestUnconfiguredIntegrations(t *testing.T) {
	h := newHarness(t, func(d *Deps) {
		d.Mailer = nil
		d.Google = nil
		d.Health = nil
	})

	cases := map[string]map[string]any{
		"send_project_update":     {"to": "a@example.com"},
		"send_email":              {"to": "a@example.com", "subject": "s", "body": "b"},
		"get_calendar_events":     nil,
		"create_calendar_event":   {"summary": "s", "start": "2025-03-05T15:00:00Z", "end": "2025-03-05T16:00:00Z"},
		"search_emails":           nil,
		"check_deployment_health": {"slug": "x"},
	}
	for name, args := range cases {
		_, err := h.call(t, name, args)
		assert.True(t, apperr.Is(err, apperr.KindConfiguration), name)
	}
}

func TestCalendarTools(t *testing.T) {
	h := newHarness(t)

	got := h.mustCall(t, "get_calendar_events", nil)
	assert.EqualValues(t, 1, got["count"])
	assert.Equal(t, fixedNow, h.google.from)
	assert.Equal(t, defaultCalendarDays, h.google.days)
	assert.Equal(t, defaultMaxResults, h.google.max)

	h.mustCall(t, "get_calendar_events", map[string]any{"days_ahead": 365, "max_results": 5})
	assert.Equal(t, maxCalendarDays, h.google.days)
	assert.Equal(t, 5, h.google.max)

	_, err := h.call(t, "create_calendar_event", map[string]any{"summary": "Sync", "start": "tomorrow", "end": "2025-03-05T16:00:00Z"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = h.call(t, "create_calendar_event", map[string]any{"summary": "Sync", "start": "2025-03-05T16:00:00Z", "end": "2025-03-05T15:00:00Z"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	event := h.mustCall(t, "create_calendar_event", map[string]any{
		"summary": "Sync", "start": "2025-03-05T15:00:00Z", "end": "2025-03-05T16:00:00Z",
		"attendees": []string{"ceo@acme.com"},
	})
	assert.Equal(t, "evt2", event["id"])
	assert.Equal(t, []string{"ceo@acme.com"}, h.google.created.Attendees)

	h.mustCall(t, "search_emails", map[string]any{"query": "from:ceo@acme.com"})
	assert.Equal(t, "from:ceo@acme.com", h.google.query)
}
