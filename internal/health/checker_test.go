package health

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DAAIDev/AgentBoxDev/internal/apperr"
	"github.com/DAAIDev/AgentBoxDev/internal/store"
	"github.com/DAAIDev/AgentBoxDev/internal/store/storetest"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

func statusServer(t *testing.T, code int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func slowServer(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProbeURL(t *testing.T) {
	assert.Equal(t, "https://mcp.example.com/health", ProbeURL(types.ComponentMCPServer, "https://mcp.example.com/"))
	assert.Equal(t, "https://mcp.example.com/health", ProbeURL(types.ComponentMCPServer, "https://mcp.example.com"))
	assert.Equal(t, "https://app.example.com/", ProbeURL(types.ComponentFrontend, "https://app.example.com/"))
}

func TestProbeTransportKeepsDefaults(t *testing.T) {
	tr := probeTransport()
	def := http.DefaultTransport.(*http.Transport)

	assert.NotNil(t, tr.Proxy)
	assert.NotNil(t, tr.DialContext)
	assert.Equal(t, def.TLSHandshakeTimeout, tr.TLSHandshakeTimeout)
	assert.Equal(t, def.MaxIdleConns, tr.MaxIdleConns)
	assert.True(t, tr.ForceAttemptHTTP2)
	require.NotNil(t, tr.TLSClientConfig)
	assert.Equal(t, uint16(tls.VersionTLS12), tr.TLSClientConfig.MinVersion)
	assert.NotSame(t, def, tr)
}

func TestCheckClassifiesEachComponent(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)

	healthy := statusServer(t, http.StatusOK)
	unavailable := statusServer(t, http.StatusServiceUnavailable)
	hanging := slowServer(t, 2*time.Second)

	_, err := s.CreateDeployment(ctx, store.DeploymentInput{
		Name: "My Cool App!!",
		URLs: map[string]string{
			types.ComponentFrontend:  healthy.URL,
			types.ComponentGitHub:    unavailable.URL,
			types.ComponentMCPServer: hanging.URL,
		},
	})
	require.NoError(t, err)

	c := NewChecker(s, zaptest.NewLogger(t), WithTimeout(200*time.Millisecond))
	report, err := c.Check(ctx, "my-cool-app")
	require.NoError(t, err)
	require.Len(t, report.Results, 4)
	assert.NotEmpty(t, report.DeploymentID)

	front := report.Results[types.ComponentFrontend]
	assert.Equal(t, types.HealthHealthy, front.Status)
	require.NotNil(t, front.ResponseTimeMS)
	assert.Empty(t, front.Error)

	gh := report.Results[types.ComponentGitHub]
	assert.Equal(t, types.HealthDegraded, gh.Status)
	assert.Equal(t, "HTTP 503", gh.Error)
	assert.Equal(t, http.StatusServiceUnavailable, gh.HTTPStatus)

	mcp := report.Results[types.ComponentMCPServer]
	assert.Equal(t, types.HealthDown, mcp.Status)
	assert.NotEmpty(t, mcp.Error)
	assert.Equal(t, hanging.URL+"/health", mcp.URL)

	db := report.Results[types.ComponentDatabase]
	assert.Equal(t, types.HealthNotConfigured, db.Status)
	assert.Empty(t, db.URL)
	assert.Nil(t, db.ResponseTimeMS)

	d, err := s.GetDeployment(ctx, "my-cool-app")
	require.NoError(t, err)
	for _, comp := range d.Components {
		assert.Equal(t, report.Results[comp.ComponentType].Status, comp.Status, comp.ComponentType)
		assert.NotNil(t, comp.LastChecked, comp.ComponentType)
	}
}

func TestProbeDegradesSlowResponses(t *testing.T) {
	srv := slowServer(t, 50*time.Millisecond)
	c := NewChecker(nil, nil, WithDegradedThreshold(10*time.Millisecond))

	res := c.Probe(context.Background(), types.ComponentFrontend, srv.URL)
	assert.Equal(t, types.HealthDegraded, res.Status)
	assert.Contains(t, res.Error, "slow response")
}

func TestProbeNetworkFailureIsDown(t *testing.T) {
	srv := statusServer(t, http.StatusOK)
	url := srv.URL
	srv.Close()

	c := NewChecker(nil, nil)
	res := c.Probe(context.Background(), types.ComponentFrontend, url)
	assert.Equal(t, types.HealthDown, res.Status)
	assert.NotEmpty(t, res.Error)
}

func TestMCPServerProbesHealthPath(t *testing.T) {
	var path atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path.Store(r.URL.Path)
	}))
	defer srv.Close()

	res := NewChecker(nil, nil).Probe(context.Background(), types.ComponentMCPServer, srv.URL+"/")
	assert.Equal(t, types.HealthHealthy, res.Status)
	assert.Equal(t, "/health", path.Load())
}

func TestCheckUnknownDeployment(t *testing.T) {
	s := storetest.New(t)
	_, err := NewChecker(s, nil).Check(context.Background(), "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

type failingRecorder struct {
	Store
}

func (failingRecorder) RecordHealth(context.Context, string, store.HealthRecord) error {
	return errors.New("disk full")
}

func TestPersistFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	_, err := s.CreateDeployment(ctx, store.DeploymentInput{Name: "svc"})
	require.NoError(t, err)

	report, err := NewChecker(failingRecorder{Store: s}, zaptest.NewLogger(t)).Check(ctx, "svc")
	require.NoError(t, err)
	require.Len(t, report.Results, 4)
	for _, r := range report.Results {
		assert.Equal(t, types.HealthNotConfigured, r.Status)
		assert.Equal(t, "disk full", r.PersistError)
	}
}

func TestSweepChecksEveryDeployment(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	healthy := statusServer(t, http.StatusOK)
	for _, name := range []string{"alpha", "beta"} {
		_, err := s.CreateDeployment(ctx, store.DeploymentInput{Name: name, URLs: map[string]string{types.ComponentFrontend: healthy.URL}})
		require.NoError(t, err)
	}

	sw, err := NewSweeper(NewChecker(s, nil), "@every 1h", zaptest.NewLogger(t))
	require.NoError(t, err)
	reports, err := sw.Sweep(ctx)
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	sw.Start()
	sw.Stop()

	_, err = NewSweeper(NewChecker(s, nil), "every tuesday", nil)
	assert.Error(t, err)
}
