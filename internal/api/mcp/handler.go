package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Zereker/chatbot/internal/task"
)

const processingStarted = "Chatbot processing started"

// Jobs is the part of task.Runner the tools use
type Jobs interface {
	Submit(ctx context.Context, kind task.Kind) (task.Job, error)
	Latest(ctx context.Context) ([]task.Status, error)
}

// Handler handles MCP tool calls
type Handler struct {
	jobs Jobs
}

// NewHandler creates a new MCP handler
func NewHandler(jobs Jobs) *Handler {
	return &Handler{
		jobs: jobs,
	}
}

// ToolCallRequest represents an MCP tool call request
type ToolCallRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ToolCallResponse represents an MCP tool call response
type ToolCallResponse struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock represents a content block in the response
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// HandleToolCall handles an MCP tool call
func (h *Handler) HandleToolCall(ctx context.Context, req ToolCallRequest) ToolCallResponse {
	switch req.Name {
	case ToolUpsert:
		return h.handleSubmit(ctx, task.KindUpsert)
	case ToolGetAnswer:
		return h.handleSubmit(ctx, task.KindGetAnswer)
	case ToolStatus:
		return h.handleStatus(ctx)
	default:
		return errorResponse(fmt.Sprintf("unknown tool: %s", req.Name))
	}
}

// handleSubmit starts a job and replies like the HTTP trigger does
func (h *Handler) handleSubmit(ctx context.Context, kind task.Kind) ToolCallResponse {
	job, err := h.jobs.Submit(ctx, kind)
	if err != nil {
		return errorResponse(fmt.Sprintf("%s failed: %v", kind, err))
	}

	return successResponse(fmt.Sprintf("%s (job %s)", processingStarted, job.ID))
}

// handleStatus summarizes the latest job of each kind
func (h *Handler) handleStatus(ctx context.Context) ToolCallResponse {
	statuses, err := h.jobs.Latest(ctx)
	if err != nil {
		return errorResponse(fmt.Sprintf("status failed: %v", err))
	}

	return successResponse(formatStatuses(statuses))
}

// formatStatuses 格式化任务状态
func formatStatuses(statuses []task.Status) string {
	if len(statuses) == 0 {
		return "No jobs have run yet."
	}

	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		line := fmt.Sprintf("- %s: %s (job %s, submitted %s)", s.Kind, s.State, s.JobID, s.SubmittedAt.Format("2006-01-02 15:04:05"))
		if s.Error != "" {
			line += ": " + s.Error
		}
		parts = append(parts, line)
	}

	return strings.Join(parts, "\n")
}

// Helper functions

func successResponse(text string) ToolCallResponse {
	return ToolCallResponse{
		Content: []ContentBlock{
			{Type: "text", Text: text},
		},
	}
}

func errorResponse(text string) ToolCallResponse {
	return ToolCallResponse{
		Content: []ContentBlock{
			{Type: "text", Text: text},
		},
		IsError: true,
	}
}
