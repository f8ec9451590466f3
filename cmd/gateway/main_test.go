package main

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/DAAIDev/AgentBoxDev/internal/health"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zap.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, zap.WarnLevel, parseLogLevel("warn"))
	assert.Equal(t, zap.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, zap.InfoLevel, parseLogLevel("verbose"))
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate", "tools", "check-health"}, names)
}

func TestExportToolsJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, exportTools(&buf, "json"))

	var doc struct {
		Tools []struct {
			Name        string         `json:"name"`
			InputSchema map[string]any `json:"input_schema"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.NotEmpty(t, doc.Tools)
	assert.Equal(t, "list_companies", doc.Tools[0].Name)
}

func TestExportToolsYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, exportTools(&buf, "yaml"))
	assert.Contains(t, buf.String(), "name: check_deployment_health")

	var doc map[string][]map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.NotEmpty(t, doc["tools"])
}

func TestExportToolsRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, exportTools(&bytes.Buffer{}, "toml"))
}

func TestPrintReport(t *testing.T) {
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	ms := int64(120)
	report := &health.Report{
		DeploymentSlug: "my-cool-app",
		CheckedAt:      time.Date(2025, 3, 4, 15, 0, 0, 0, time.UTC),
		Results: map[string]health.Result{
			types.ComponentFrontend:  {Status: types.HealthHealthy, ResponseTimeMS: &ms},
			types.ComponentMCPServer: {Status: types.HealthDegraded, Error: "HTTP 503"},
			types.ComponentGitHub:    {Status: types.HealthNotConfigured},
		},
	}
	var buf bytes.Buffer
	printReport(&buf, report)

	want := "my-cool-app (checked 2025-03-04 15:00:00 UTC)\n" +
		"  github      not_configured\n" +
		"  frontend    healthy  120ms\n" +
		"  mcp_server  degraded  HTTP 503\n"
	assert.Equal(t, want, buf.String())
}
