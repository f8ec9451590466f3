// Package google reads and creates Calendar events and searches Gmail
// through the REST APIs, authorized by an OAuth refresh token.
package google

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
)

const (
	defaultTokenURL    = "https://oauth2.googleapis.com/token"
	defaultCalendarURL = "https://www.googleapis.com/calendar/v3"
	defaultGmailURL    = "https://gmail.googleapis.com/gmail/v1"
)

// Scopes requested for the refresh token.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar",
	"https://www.googleapis.com/auth/gmail.readonly",
}

// Config holds OAuth credentials. The URL fields default to Google's
// production endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string

	TokenURL    string
	CalendarURL string
	GmailURL    string
	Timeout     time.Duration
}

// Client talks to Calendar and Gmail on behalf of one account.
type Client struct {
	http        *http.Client
	calendarURL string
	gmailURL    string
	logger      *zap.Logger
}

// Event is a calendar event. Start and End are RFC 3339 date-times, or
// dates for all-day events.
type Event struct {
	ID          string   `json:"id"`
	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location,omitempty"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Attendees   []string `json:"attendees,omitempty"`
	Link        string   `json:"link,omitempty"`
}

// EventInput is the payload for CreateEvent.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// MessageSummary is one Gmail search hit.
type MessageSummary struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

// New builds a client. Missing credentials are a configuration error.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, apperr.Configuration("google", "OAuth client id, client secret and refresh token are required")
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.CalendarURL == "" {
		cfg.CalendarURL = defaultCalendarURL
	}
	if cfg.GmailURL == "" {
		cfg.GmailURL = defaultGmailURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	oc := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL, AuthStyle: oauth2.AuthStyleInParams},
		Scopes:       Scopes,
	}
	httpClient := oc.Client(context.Background(), &oauth2.Token{RefreshToken: cfg.RefreshToken})
	httpClient.Timeout = cfg.Timeout

	return &Client{
		http:        httpClient,
		calendarURL: cfg.CalendarURL,
		gmailURL:    cfg.GmailURL,
		logger:      logger,
	}, nil
}

type apiEventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

func (t apiEventTime) String() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

type apiAttendee struct {
	Email string `json:"email"`
}

type apiEvent struct {
	ID          string        `json:"id,omitempty"`
	Summary     string        `json:"summary"`
	Description string        `json:"description,omitempty"`
	Location    string        `json:"location,omitempty"`
	HTMLLink    string        `json:"htmlLink,omitempty"`
	Start       apiEventTime  `json:"start"`
	End         apiEventTime  `json:"end"`
	Attendees   []apiAttendee `json:"attendees,omitempty"`
}

func (e apiEvent) toEvent() Event {
	ev := Event{
		ID:          e.ID,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Start:       e.Start.String(),
		End:         e.End.String(),
		Link:        e.HTMLLink,
	}
	for _, a := range e.Attendees {
		ev.Attendees = append(ev.Attendees, a.Email)
	}
	return ev
}

// ListEvents returns primary-calendar events starting between from and
// from+days, ordered by start time.
func (c *Client) ListEvents(ctx context.Context, from time.Time, days, maxResults int) ([]Event, error) {
	q := url.Values{}
	q.Set("timeMin", from.UTC().Format(time.RFC3339))
	q.Set("timeMax", from.AddDate(0, 0, days).UTC().Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")
	q.Set("maxResults", strconv.Itoa(maxResults))

	var resp struct {
		Items []apiEvent `json:"items"`
	}
	if err := c.do(ctx, "list calendar events", http.MethodGet, c.calendarURL+"/calendars/primary/events?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		events = append(events, item.toEvent())
	}
	return events, nil
}

// CreateEvent adds an event to the primary calendar and invites attendees.
func (c *Client) CreateEvent(ctx context.Context, in EventInput) (*Event, error) {
	const op = "create calendar event"
	if in.Summary == "" {
		return nil, apperr.Validation(op, "summary is required")
	}
	if !in.End.After(in.Start) {
		return nil, apperr.Validation(op, "end must be after start")
	}

	body := apiEvent{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start:       apiEventTime{DateTime: in.Start.Format(time.RFC3339)},
		End:         apiEventTime{DateTime: in.End.Format(time.RFC3339)},
	}
	for _, a := range in.Attendees {
		body.Attendees = append(body.Attendees, apiAttendee{Email: a})
	}

	target := c.calendarURL + "/calendars/primary/events"
	if len(in.Attendees) > 0 {
		target += "?sendUpdates=all"
	}
	var created apiEvent
	if err := c.do(ctx, op, http.MethodPost, target, body, &created); err != nil {
		return nil, err
	}
	ev := created.toEvent()
	return &ev, nil
}

// SearchMessages runs a Gmail search and fetches the headers of each hit.
func (c *Client) SearchMessages(ctx context.Context, query string, maxResults int) ([]MessageSummary, error) {
	const op = "search email"
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	q.Set("maxResults", strconv.Itoa(maxResults))

	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	if err := c.do(ctx, op, http.MethodGet, c.gmailURL+"/users/me/messages?"+q.Encode(), nil, &list); err != nil {
		return nil, err
	}

	out := make([]MessageSummary, 0, len(list.Messages))
	for _, m := range list.Messages {
		meta := url.Values{}
		meta.Set("format", "metadata")
		meta["metadataHeaders"] = []string{"From", "Subject", "Date"}

		var msg struct {
			ID      string `json:"id"`
			Snippet string `json:"snippet"`
			Payload struct {
				Headers []struct {
					Name  string `json:"name"`
					Value string `json:"value"`
				} `json:"headers"`
			} `json:"payload"`
		}
		if err := c.do(ctx, op, http.MethodGet, c.gmailURL+"/users/me/messages/"+url.PathEscape(m.ID)+"?"+meta.Encode(), nil, &msg); err != nil {
			return nil, err
		}
		summary := MessageSummary{ID: msg.ID, Snippet: msg.Snippet}
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				summary.From = h.Value
			case "Subject":
				summary.Subject = h.Value
			case "Date":
				summary.Date = h.Value
			}
		}
		out = append(out, summary)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return apperr.Validation(op, "failed to encode request: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return apperr.Validation(op, "failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("google api request failed", zap.String("op", op), zap.Error(err))
		return apperr.Upstream(op, err, "request failed")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return apperr.Upstream(op, err, "failed to read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.Unmarshal(payload, &apiErr)
		msg := apiErr.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return apperr.New(apperr.KindUpstream, op, "google api returned HTTP %d: %s", resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperr.Upstream(op, err, "failed to decode response")
	}
	return nil
}

// String identifies the client in logs.
func (c *Client) String() string {
	return fmt.Sprintf("google(calendar=%s, gmail=%s)", c.calendarURL, c.gmailURL)
}
