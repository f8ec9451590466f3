package google

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "rt-123", r.Form.Get("refresh_token"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-456","token_type":"Bearer","expires_in":3600}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RefreshToken: "rt-123",
		TokenURL:     srv.URL + "/token",
		CalendarURL:  srv.URL + "/calendar",
		GmailURL:     srv.URL + "/gmail",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return c
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{ClientID: "id"}, nil)
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))
}

func TestListEvents(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /calendar/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-456", r.Header.Get("Authorization"))
		assert.Equal(t, "startTime", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "5", r.URL.Query().Get("maxResults"))
		w.Write([]byte(`{"items":[{"id":"e1","summary":"Acme sync","start":{"dateTime":"2025-03-03T10:00:00Z"},"end":{"dateTime":"2025-03-03T10:30:00Z"},"attendees":[{"email":"dana@acme.com"}]},{"id":"e2","summary":"Offsite","start":{"date":"2025-03-05"},"end":{"date":"2025-03-06"}}]}`))
	})
	c := newTestClient(t, mux)

	events, err := c.ListEvents(t.Context(), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 7, 5)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Acme sync", events[0].Summary)
	assert.Equal(t, []string{"dana@acme.com"}, events[0].Attendees)
	assert.Equal(t, "2025-03-05", events[1].Start)
}

func TestCreateEvent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /calendar/calendars/primary/events", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all", r.URL.Query().Get("sendUpdates"))
		var body apiEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Kickoff", body.Summary)
		assert.Equal(t, "2025-03-03T10:00:00Z", body.Start.DateTime)
		body.ID = "new-1"
		body.HTMLLink = "https://calendar.example/new-1"
		json.NewEncoder(w).Encode(body)
	})
	c := newTestClient(t, mux)

	start := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	ev, err := c.CreateEvent(t.Context(), EventInput{Summary: "Kickoff", Start: start, End: start.Add(time.Hour), Attendees: []string{"dana@acme.com"}})
	require.NoError(t, err)
	assert.Equal(t, "new-1", ev.ID)
	assert.Equal(t, "https://calendar.example/new-1", ev.Link)

	_, err = c.CreateEvent(t.Context(), EventInput{Summary: "Backwards", Start: start, End: start})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSearchMessages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "from:acme", r.URL.Query().Get("q"))
		w.Write([]byte(`{"messages":[{"id":"m1"}]}`))
	})
	mux.HandleFunc("GET /gmail/users/me/messages/m1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "metadata", r.URL.Query().Get("format"))
		w.Write([]byte(`{"id":"m1","snippet":"Contract attached","payload":{"headers":[{"name":"From","value":"Dana <dana@acme.com>"},{"name":"Subject","value":"Contract"},{"name":"Date","value":"Mon, 3 Mar 2025 10:00:00 +0000"}]}}`))
	})
	c := newTestClient(t, mux)

	msgs, err := c.SearchMessages(t.Context(), "from:acme", 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageSummary{
		ID:      "m1",
		From:    "Dana <dana@acme.com>",
		Subject: "Contract",
		Date:    "Mon, 3 Mar 2025 10:00:00 +0000",
		Snippet: "Contract attached",
	}, msgs[0])
}

func TestAPIErrorsAreUpstream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"insufficient scope"}}`))
	})
	c := newTestClient(t, mux)

	_, err := c.SearchMessages(t.Context(), "", 5)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.Contains(t, err.Error(), "insufficient scope")
}
