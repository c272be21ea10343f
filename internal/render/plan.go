// Package render produces the human-readable plan document from a session
// state snapshot. The projection is one-way: the engine never reads it
// back, and it can be regenerated at any time without holding the lock.
package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/valter-silva-au/agent-session/pkg/models"
)

// PlanRenderer turns a StatusReport snapshot into a markdown plan document.
type PlanRenderer interface {
	Render(report *models.StatusReport) (string, error)
	WriteFile(dir string, report *models.StatusReport) (string, error)
}

type planRenderer struct {
	tmpl *template.Template
}

const planTemplate = `# Plan: {{ .State.Session }}
{{- if .State.Description }}

{{ .State.Description }}
{{- end }}

> Now: **{{ .Now.Reason }}**{{ if .Now.TaskID }} (task {{ deref .Now.TaskID }}){{ end }}{{ if .Now.SignalID }} (signal {{ .Now.SignalID }}){{ end }}
> Version {{ .State.Version }}, updated {{ .State.LastUpdatedAt.Format "2006-01-02 15:04 UTC" }}
{{- if .Lock }}
> Lock held by {{ .Lock.Holder }} since {{ .Lock.AcquiredAt.Format "15:04:05 UTC" }}
{{- end }}

## Tasks
{{- if not .State.Tasks }}

No tasks yet.
{{- end }}
{{- range .State.Tasks }}

### {{ .ID }}. {{ .Title }} [{{ .Status }}]

- type: {{ .Type }}
{{- if .DependsOn }}
- depends on: {{ joinInts .DependsOn }}
{{- end }}
{{- if .CommitSHA }}
- commit: {{ .CommitSHA }}
{{- end }}
- files: {{ join .RelevantFilePaths }}
- hints: {{ join .ContextHints }}
{{- end }}
{{- if .OpenSignals }}

## Open signals
{{- range .OpenSignals }}

- **{{ .ID }}** ({{ .Type }}/{{ .Level }}): {{ .Title }}{{ if .Attempts }} (surfaced {{ .Attempts }}x){{ end }}
{{- end }}
{{- end }}
{{- if .State.FinalSummary }}

## Summary

{{ .State.FinalSummary }}
{{- end }}
`

// NewPlanRenderer creates the standard markdown renderer.
func NewPlanRenderer() (PlanRenderer, error) {
	tmpl, err := template.New("plan").Funcs(template.FuncMap{
		"join": func(items []string) string { return strings.Join(items, ", ") },
		"joinInts": func(ids []int) string {
			parts := make([]string, len(ids))
			for i, id := range ids {
				parts[i] = fmt.Sprintf("%d", id)
			}
			return strings.Join(parts, ", ")
		},
		"deref": func(p *int) int { return *p },
	}).Parse(planTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing plan template: %w", err)
	}
	return &planRenderer{tmpl: tmpl}, nil
}

// templateData augments the report with the open-signal subset the
// template lists.
type templateData struct {
	*models.StatusReport
	OpenSignals []models.Signal
}

// Render produces the markdown document.
func (r *planRenderer) Render(report *models.StatusReport) (string, error) {
	data := templateData{StatusReport: report}
	for _, sig := range report.State.Signals {
		if sig.Open {
			data.OpenSignals = append(data.OpenSignals, sig)
		}
	}

	var b strings.Builder
	if err := r.tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering plan: %w", err)
	}
	return b.String(), nil
}

// WriteFile renders the document and writes PLAN.md into dir, returning
// the path written.
func (r *planRenderer) WriteFile(dir string, report *models.StatusReport) (string, error) {
	content, err := r.Render(report)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "PLAN.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing plan document: %w", err)
	}
	return path, nil
}
