// Package health probes deployment components over HTTP and persists
// their status.
package health

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DAAIDev/AgentBoxDev/internal/store"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

const (
	// DefaultTimeout bounds one probe.
	DefaultTimeout = 10 * time.Second
	// DefaultDegradedThreshold is the slowest healthy response.
	DefaultDegradedThreshold = 5000 * time.Millisecond
)

// Store is the persistence the checker needs.
type Store interface {
	GetDeployment(ctx context.Context, slug string) (*types.Deployment, error)
	ListDeployments(ctx context.Context) ([]types.Deployment, error)
	RecordHealth(ctx context.Context, componentID string, rec store.HealthRecord) error
}

// Result is the outcome for one component.
type Result struct {
	Status         string `json:"status"`
	URL            string `json:"url,omitempty"`
	ResponseTimeMS *int64 `json:"response_time_ms,omitempty"`
	HTTPStatus     int    `json:"http_status,omitempty"`
	Error          string `json:"error,omitempty"`
	PersistError   string `json:"persist_error,omitempty"`
}

// Report collects the results of one deployment check.
type Report struct {
	DeploymentID   string            `json:"deployment_id"`
	DeploymentSlug string            `json:"deployment_slug"`
	CheckedAt      time.Time         `json:"checked_at"`
	Results        map[string]Result `json:"results"`
}

// Checker runs health checks.
type Checker struct {
	store     Store
	client    *http.Client
	threshold time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Checker.
type Option func(*Checker)

// WithTimeout sets the per-probe timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Checker) { c.client.Timeout = d }
}

// WithDegradedThreshold sets the latency above which a healthy response
// counts as degraded.
func WithDegradedThreshold(d time.Duration) Option {
	return func(c *Checker) { c.threshold = d }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) { c.now = now }
}

// NewChecker creates a checker with a 10s probe timeout and 5s degraded
// threshold.
func NewChecker(s Store, logger *zap.Logger, opts ...Option) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Checker{
		store: s,
		client: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: probeTransport(),
		},
		threshold: DefaultDegradedThreshold,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// probeTransport keeps the default proxy, dial and pooling settings and
// requires TLS 1.2.
func probeTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	return t
}

// ProbeURL returns the address probed for a component. MCP servers expose
// a dedicated /health path; everything else is probed at its URL.
func ProbeURL(componentType, url string) string {
	if componentType == types.ComponentMCPServer {
		return strings.TrimRight(url, "/") + "/health"
	}
	return url
}

// Check probes every component of the deployment concurrently and persists
// each outcome. A failure on one component never stops the others.
func (c *Checker) Check(ctx context.Context, slug string) (*Report, error) {
	d, err := c.store.GetDeployment(ctx, slug)
	if err != nil {
		return nil, err
	}

	report := &Report{
		DeploymentID:   d.ID,
		DeploymentSlug: d.Slug,
		CheckedAt:      c.now().UTC(),
		Results:        make(map[string]Result, len(d.Components)),
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, comp := range d.Components {
		wg.Add(1)
		go func(comp types.DeploymentComponent) {
			defer wg.Done()
			res := c.checkComponent(ctx, comp)
			mu.Lock()
			report.Results[comp.ComponentType] = res
			mu.Unlock()
		}(comp)
	}
	wg.Wait()

	c.logger.Info("deployment health checked",
		zap.String("deployment", d.Slug),
		zap.Any("results", summarize(report.Results)),
	)
	return report, nil
}

func (c *Checker) checkComponent(ctx context.Context, comp types.DeploymentComponent) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			res = Result{Status: types.HealthDown, Error: fmt.Sprintf("probe panicked: %v", r)}
		}
		rec := store.HealthRecord{Status: res.Status, ErrorMessage: res.Error, CheckedAt: c.now()}
		if err := c.store.RecordHealth(ctx, comp.ID, rec); err != nil {
			c.logger.Error("failed to persist component health",
				zap.String("component", comp.ComponentType),
				zap.String("component_id", comp.ID),
				zap.Error(err),
			)
			res.PersistError = err.Error()
		}
	}()

	if comp.URL == "" {
		return Result{Status: types.HealthNotConfigured}
	}
	return c.Probe(ctx, comp.ComponentType, comp.URL)
}

// Probe performs one bounded GET and classifies the response:
// network failure or timeout is down, a non-2xx status is degraded with
// "HTTP <code>", a 2xx slower than the threshold is degraded, anything
// else is healthy.
func (c *Checker) Probe(ctx context.Context, componentType, url string) Result {
	target := ProbeURL(componentType, url)
	res := Result{URL: target}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		res.Status = types.HealthDown
		res.Error = err.Error()
		return res
	}
	req.Header.Set("User-Agent", "portfolio-gateway-health/1.0")

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		res.Status = types.HealthDown
		res.Error = err.Error()
		return res
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()

	ms := elapsed.Milliseconds()
	res.ResponseTimeMS = &ms
	res.HTTPStatus = resp.StatusCode

	switch {
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		res.Status = types.HealthDegraded
		res.Error = fmt.Sprintf("HTTP %d", resp.StatusCode)
	case elapsed > c.threshold:
		res.Status = types.HealthDegraded
		res.Error = fmt.Sprintf("slow response: %dms", ms)
	default:
		res.Status = types.HealthHealthy
	}
	return res
}

func summarize(results map[string]Result) map[string]string {
	out := make(map[string]string, len(results))
	for k, r := range results {
		out[k] = r.Status
	}
	return out
}
