package tools

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/DAAIDev/AgentBoxDev/internal/store"
	"github.com/DAAIDev/AgentBoxDev/pkg/types"
)

// FutureMarker keeps a milestone out of project update emails.
const FutureMarker = "[FUTURE]"

var reportTemplate = template.Must(template.New("project-update").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Helvetica, Arial, sans-serif; color: #1f2933; max-width: 640px;">
  <h1 style="font-size: 20px;">Portfolio update</h1>
  <p style="color: #616e7c;">{{.Date}}: {{len .Companies}} companies, {{.Done}} of {{.Total}} milestones done.</p>
  <div style="background: #e4e7eb; border-radius: 4px; height: 16px; width: 100%;">
    <div style="background: #3ebd93; border-radius: 4px; height: 16px; width: {{.Progress}}%;"></div>
  </div>
  <p style="font-weight: bold;">{{.Progress}}% complete</p>
  <table style="border-collapse: collapse; width: 100%;">
    <tr><th align="left">Company</th><th align="left">Status</th><th align="right">Progress</th></tr>
    {{- range .Companies}}
    <tr><td>{{.Name}}</td><td>{{.Status}}</td><td align="right">{{.Progress}}%</td></tr>
    {{- end}}
  </table>
  {{- if .IncludeDetails}}
  {{- range .Companies}}
  <h2 style="font-size: 16px; margin-top: 24px;">{{.Name}}</h2>
  {{- if .Milestones}}
  <ul>
    {{- range .Milestones}}
    <li>{{.Title}}: {{.Status}}{{if .DueDate}} (due {{.DueDate}}){{end}}</li>
    {{- end}}
  </ul>
  {{- else}}
  <p>No milestones.</p>
  {{- end}}
  {{- if .Outstanding}}
  <p>Waiting on:</p>
  <ul>
    {{- range .Outstanding}}
    <li>{{.Item}} ({{.Status}})</li>
    {{- end}}
  </ul>
  {{- end}}
  {{- end}}
  {{- end}}
</body>
</html>
`))

type reportCompany struct {
	Name        string
	Status      string
	Progress    int
	Milestones  []types.Milestone
	Outstanding []types.Requirement
}

type reportData struct {
	Date           string
	Companies      []reportCompany
	Done           int
	Total          int
	Progress       int
	IncludeDetails bool
}

// IsFuture reports whether a milestone title carries the future marker.
func IsFuture(title string) bool {
	return strings.Contains(strings.ToUpper(title), FutureMarker)
}

func buildReport(companies []types.CompanyDetail, includeDetails bool, at time.Time) reportData {
	data := reportData{
		Date:           at.Format("January 2, 2006"),
		IncludeDetails: includeDetails,
	}
	for _, c := range companies {
		done := 0
		rc := reportCompany{Name: c.Name, Status: c.Status}
		for _, m := range c.Milestones {
			if m.Status == types.MilestoneDone {
				done++
			}
			if !IsFuture(m.Title) {
				rc.Milestones = append(rc.Milestones, m)
			}
		}
		for _, r := range c.Requirements {
			if r.Status != types.RequirementReceived {
				rc.Outstanding = append(rc.Outstanding, r)
			}
		}
		rc.Progress = store.Progress(done, len(c.Milestones))
		data.Done += done
		data.Total += len(c.Milestones)
		data.Companies = append(data.Companies, rc)
	}
	data.Progress = store.Progress(data.Done, data.Total)
	return data
}

// renderReport returns the HTML body and its plain-text alternative.
func renderReport(data reportData) (string, string, error) {
	var html bytes.Buffer
	if err := reportTemplate.Execute(&html, data); err != nil {
		return "", "", fmt.Errorf("failed to render project update: %w", err)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Portfolio update, %s\n", data.Date)
	fmt.Fprintf(&text, "%d%% complete (%d of %d milestones done)\n\n", data.Progress, data.Done, data.Total)
	for _, c := range data.Companies {
		fmt.Fprintf(&text, "- %s [%s]: %d%%\n", c.Name, c.Status, c.Progress)
		if !data.IncludeDetails {
			continue
		}
		for _, m := range c.Milestones {
			fmt.Fprintf(&text, "    * %s: %s\n", m.Title, m.Status)
		}
		for _, r := range c.Outstanding {
			fmt.Fprintf(&text, "    ! waiting on %s (%s)\n", r.Item, r.Status)
		}
	}
	return html.String(), text.String(), nil
}
