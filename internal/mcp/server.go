// Package mcp provides an MCP (Model Context Protocol) server that exposes
// session readiness and update operations as MCP tools for AI coding
// assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/valter-silva-au/agent-session/internal/core"
	"github.com/valter-silva-au/agent-session/pkg/models"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the session engine and exposes it as MCP tools.
type Server struct {
	server *gomcp.Server
	engine core.SessionEngine
}

// NewServer creates a new MCP server backed by the given engine.
func NewServer(engine core.SessionEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{engine: engine}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "ase", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type getNowInput struct{}

type nowOutput struct {
	Reason   string `json:"reason"`
	TaskID   *int   `json:"task_id,omitempty"`
	SignalID string `json:"signal_id,omitempty"`
}

type getStatusInput struct{}

type taskOutput struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	DependsOn []int  `json:"depends_on,omitempty"`
	CommitSHA string `json:"commit_sha,omitempty"`
	Updated   string `json:"updated"`
}

type signalOutput struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Level    string `json:"level"`
	Title    string `json:"title"`
	Attempts int    `json:"attempts"`
	Opened   string `json:"opened"`
}

type statusOutput struct {
	Session      string         `json:"session"`
	Version      int            `json:"version"`
	Now          nowOutput      `json:"now"`
	Tasks        []taskOutput   `json:"tasks"`
	OpenSignals  []signalOutput `json:"open_signals"`
	LockHolder   string         `json:"lock_holder,omitempty"`
	FinalSummary string         `json:"final_summary,omitempty"`
}

type applyUpdateInput struct {
	AddTasks      []models.NewTask    `json:"add_tasks,omitempty" jsonschema:"tasks to append; IDs are assigned by the engine"`
	UpdateTasks   []models.TaskUpdate `json:"update_tasks,omitempty" jsonschema:"field changes to existing tasks by ID"`
	SignalsClose  []string            `json:"signals_close,omitempty" jsonschema:"IDs of open signals to close"`
	FinalSummary  string              `json:"final_summary,omitempty" jsonschema:"closing summary for the session"`
	ExpectVersion int                 `json:"expect_version,omitempty" jsonschema:"reject unless the state file still has this version; omit to accept the current one"`
	Release       bool                `json:"release,omitempty" jsonschema:"release the advisory lock after a successful apply"`
}

type applyUpdateOutput struct {
	Version    int                `json:"version"`
	Violations []models.Violation `json:"violations,omitempty"`
	Message    string             `json:"message"`
}

type openSignalInput struct {
	ID      string `json:"id" jsonschema:"required,unique signal identifier (e.g. ci-1234)"`
	Type    string `json:"type" jsonschema:"required,signal origin (ci, lint, bench, system, other)"`
	Level   string `json:"level" jsonschema:"required,severity (blocker, high, info); only blockers preempt tasks"`
	Title   string `json:"title" jsonschema:"required,one-line description"`
	Message string `json:"message,omitempty" jsonschema:"longer description or failure output"`
	Link    string `json:"link,omitempty" jsonschema:"URL to the CI run, lint report, or similar"`
}

type closeSignalInput struct {
	ID string `json:"id" jsonschema:"required,the open signal to close"`
}

type signalActionOutput struct {
	Version int    `json:"version"`
	Message string `json:"message"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_now",
		Description: "Resolve what to do next: the single highest-priority action (sync instructions, handle a blocker, resume or start a task, or finish). Surfacing a blocker counts an attempt against it.",
	}, s.handleGetNow)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_status",
		Description: "Read-only session snapshot: the current verdict, all tasks, open signals, version, and lock holder. Never mutates anything.",
	}, s.handleGetStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "apply_update",
		Description: "Apply a batch of plan mutations (add tasks, update tasks, close signals, set final summary) as one all-or-nothing operation. Rejections list every violation found.",
	}, s.handleApplyUpdate)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "open_signal",
		Description: "Open an external signal (CI failure, lint error). Blocker-level signals preempt task dispatch until closed.",
	}, s.handleOpenSignal)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "close_signal",
		Description: "Close an open signal by ID. The record is retained for audit.",
	}, s.handleCloseSignal)
}

// --- Tool handlers ---

func (s *Server) handleGetNow(_ context.Context, _ *gomcp.CallToolRequest, _ getNowInput) (*gomcp.CallToolResult, nowOutput, error) {
	now, err := s.engine.SurfaceNow()
	if err != nil {
		return rejectionResult(err), nowOutput{}, nil
	}
	return nil, nowToOutput(now), nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *gomcp.CallToolRequest, _ getStatusInput) (*gomcp.CallToolResult, statusOutput, error) {
	report, err := s.engine.Status()
	if err != nil {
		return rejectionResult(err), statusOutput{}, nil
	}

	out := statusOutput{
		Session:      report.State.Session,
		Version:      report.State.Version,
		Now:          nowToOutput(report.Now),
		Tasks:        make([]taskOutput, len(report.State.Tasks)),
		FinalSummary: report.State.FinalSummary,
	}
	for i, t := range report.State.Tasks {
		out.Tasks[i] = taskOutput{
			ID:        t.ID,
			Title:     t.Title,
			Type:      string(t.Type),
			Status:    string(t.Status),
			DependsOn: t.DependsOn,
			CommitSHA: t.CommitSHA,
			Updated:   t.LastUpdatedAt.Format(time.RFC3339),
		}
	}
	for _, sig := range report.State.Signals {
		if !sig.Open {
			continue
		}
		out.OpenSignals = append(out.OpenSignals, signalOutput{
			ID:       sig.ID,
			Type:     string(sig.Type),
			Level:    string(sig.Level),
			Title:    sig.Title,
			Attempts: sig.Attempts,
			Opened:   sig.OpenedAt.Format(time.RFC3339),
		})
	}
	if report.Lock != nil {
		out.LockHolder = report.Lock.Holder
	}

	return nil, out, nil
}

func (s *Server) handleApplyUpdate(_ context.Context, _ *gomcp.CallToolRequest, input applyUpdateInput) (*gomcp.CallToolResult, applyUpdateOutput, error) {
	payload := models.UpdatePayload{
		AddTasks:     input.AddTasks,
		UpdateTasks:  input.UpdateTasks,
		SignalsClose: input.SignalsClose,
		FinalSummary: input.FinalSummary,
	}
	if payload.Empty() {
		return errorResult("update payload is empty"), applyUpdateOutput{}, nil
	}

	expected := core.VersionCurrent
	if input.ExpectVersion > 0 {
		expected = input.ExpectVersion
	}

	state, err := s.engine.ApplyUpdate(payload, expected, input.Release)
	if err != nil {
		if rej, ok := core.AsRejected(err); ok {
			return rejectionResult(err), applyUpdateOutput{Violations: rej.Violations, Message: string(rej.Type)}, nil
		}
		return errorResult(fmt.Sprintf("applying update: %s", err)), applyUpdateOutput{}, nil
	}

	return nil, applyUpdateOutput{
		Version: state.Version,
		Message: fmt.Sprintf("update applied, session now at version %d", state.Version),
	}, nil
}

func (s *Server) handleOpenSignal(_ context.Context, _ *gomcp.CallToolRequest, input openSignalInput) (*gomcp.CallToolResult, signalActionOutput, error) {
	if input.ID == "" {
		return errorResult("id is required"), signalActionOutput{}, nil
	}

	sig := models.Signal{
		ID:      input.ID,
		Type:    models.SignalType(input.Type),
		Level:   models.SignalLevel(input.Level),
		Title:   input.Title,
		Message: input.Message,
		Link:    input.Link,
	}
	state, err := s.engine.OpenSignal(sig, core.VersionCurrent)
	if err != nil {
		return rejectionResult(err), signalActionOutput{}, nil
	}

	return nil, signalActionOutput{
		Version: state.Version,
		Message: fmt.Sprintf("signal %s opened", input.ID),
	}, nil
}

func (s *Server) handleCloseSignal(_ context.Context, _ *gomcp.CallToolRequest, input closeSignalInput) (*gomcp.CallToolResult, signalActionOutput, error) {
	if input.ID == "" {
		return errorResult("id is required"), signalActionOutput{}, nil
	}

	state, err := s.engine.CloseSignal(input.ID, core.VersionCurrent)
	if err != nil {
		return rejectionResult(err), signalActionOutput{}, nil
	}

	return nil, signalActionOutput{
		Version: state.Version,
		Message: fmt.Sprintf("signal %s closed", input.ID),
	}, nil
}

// --- Helpers ---

func nowToOutput(now models.Now) nowOutput {
	return nowOutput{
		Reason:   string(now.Reason),
		TaskID:   now.TaskID,
		SignalID: now.SignalID,
	}
}

// rejectionResult renders a structured rejection with its type and every
// violation, falling back to the plain error string.
func rejectionResult(err error) *gomcp.CallToolResult {
	if rej, ok := core.AsRejected(err); ok {
		msg := string(rej.Type)
		for _, v := range rej.Violations {
			msg += fmt.Sprintf("\n- [%s] %s", v.Code, v.Message)
		}
		for _, d := range rej.Details {
			msg += "\n" + d
		}
		return errorResult(msg)
	}
	return errorResult(err.Error())
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
