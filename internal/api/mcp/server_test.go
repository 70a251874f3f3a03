package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zereker/chatbot/internal/task"
)

type fakeJobs struct {
	submitted []task.Kind
	latest    []task.Status
}

func (f *fakeJobs) Submit(_ context.Context, kind task.Kind) (task.Job, error) {
	f.submitted = append(f.submitted, kind)
	return task.Job{ID: "job-1", Kind: kind, SubmittedAt: time.Now()}, nil
}

func (f *fakeJobs) Latest(context.Context) ([]task.Status, error) {
	return f.latest, nil
}

func serve(t *testing.T, jobs Jobs, requests ...string) []jsonRPCResponse {
	t.Helper()
	s := NewServer(jobs, ServerConfig{Name: "chatbot", Version: "test"})

	var out bytes.Buffer
	require.NoError(t, s.Serve(context.Background(), strings.NewReader(strings.Join(requests, "\n")), &out))

	var responses []jsonRPCResponse
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var resp jsonRPCResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		responses = append(responses, resp)
	}
	return responses
}

func TestServer_ToolsList(t *testing.T) {
	responses := serve(t, &fakeJobs{},
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05"}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)
	require.Len(t, responses, 2)

	data, err := json.Marshal(responses[1].Result)
	require.NoError(t, err)
	var result toolsListResult
	require.NoError(t, json.Unmarshal(data, &result))

	var names []string
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"upsert", "get_answer", "status"}, names)
}

func TestServer_ToolCallsSubmitJobs(t *testing.T) {
	jobs := &fakeJobs{}
	responses := serve(t, jobs,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"upsert","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_answer"}}`,
	)
	require.Len(t, responses, 2)
	assert.Equal(t, []task.Kind{task.KindUpsert, task.KindGetAnswer}, jobs.submitted)

	data, err := json.Marshal(responses[0].Result)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Chatbot processing started")
}

func TestServer_ParseErrorAndUnknownMethod(t *testing.T) {
	responses := serve(t, &fakeJobs{},
		`not json`,
		`{"jsonrpc":"2.0","id":3,"method":"resources/list"}`,
	)
	require.Len(t, responses, 2)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, -32700, responses[0].Error.Code)
	require.NotNil(t, responses[1].Error)
	assert.Equal(t, -32601, responses[1].Error.Code)
}

func TestHandler_Status(t *testing.T) {
	h := NewHandler(&fakeJobs{latest: []task.Status{
		{JobID: "j1", Kind: task.KindUpsert, State: task.StateFailed, Error: "open csv data.csv: no such file"},
	}})

	resp := h.HandleToolCall(context.Background(), ToolCallRequest{Name: ToolStatus})
	require.Len(t, resp.Content, 1)
	assert.False(t, resp.IsError)
	assert.Contains(t, resp.Content[0].Text, "upsert: failed")
	assert.Contains(t, resp.Content[0].Text, "no such file")

	empty := NewHandler(&fakeJobs{}).HandleToolCall(context.Background(), ToolCallRequest{Name: ToolStatus})
	assert.Equal(t, "No jobs have run yet.", empty.Content[0].Text)

	unknown := h.HandleToolCall(context.Background(), ToolCallRequest{Name: "reindex"})
	assert.True(t, unknown.IsError)
}
