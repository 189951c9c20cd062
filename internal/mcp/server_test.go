package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/DSEENAIAH/meetingmind/internal/extract"
	"github.com/DSEENAIAH/meetingmind/internal/llm"
	"github.com/DSEENAIAH/meetingmind/internal/store"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewServer(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t), Version: "test"})
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
}

// callTool invokes an MCP tool through the JSON-RPC message handler.
func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]interface{}) *mcplib.CallToolResult {
	t.Helper()

	result := srv.HandleMessage(context.Background(), mustMarshal(t, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      name,
			"arguments": args,
		},
	}))

	respBytes, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}

	var resp struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		t.Fatalf("unmarshal response: %v\nraw: %s", err, string(respBytes))
	}

	if resp.Error != nil {
		t.Fatalf("JSON-RPC error: %d %s", resp.Error.Code, resp.Error.Message)
	}

	callResult := &mcplib.CallToolResult{IsError: resp.Result.IsError}
	for _, c := range resp.Result.Content {
		if c.Type == "text" {
			callResult.Content = append(callResult.Content, mcplib.NewTextContent(c.Text))
		}
	}
	return callResult
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func getTextContent(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	t.Fatal("no text content found")
	return ""
}

func TestExtractTool(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t), Version: "test"})

	result := callTool(t, srv, "extract_tasks", map[string]interface{}{
		"content": "- John to review PR #234\n- Sarah will update documentation",
	})

	text := getTextContent(t, result)
	var resp struct {
		Tasks []map[string]interface{} `json:"tasks"`
		Meta  map[string]interface{}   `json:"meta"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("parsing extract result: %v", err)
	}

	if len(resp.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d: %v", len(resp.Tasks), resp.Tasks)
	}
	if resp.Tasks[0]["assignee"] != "John" {
		t.Errorf("task[0] = %v", resp.Tasks[0])
	}
	if resp.Meta["source"] != "heuristic" {
		t.Errorf("meta = %v", resp.Meta)
	}
}

func TestExtractTool_MissingContent(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t), Version: "test"})
	result := callTool(t, srv, "extract_tasks", map[string]interface{}{})
	if !result.IsError {
		t.Error("expected error for missing content")
	}
}

func TestExtractTool_MaxTasks(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t), Version: "test"})

	content := "Review alpha rollout\nUpdate billing dashboard\nFix login crash\nSchedule design sync\nDraft incident report"
	result := callTool(t, srv, "extract_tasks", map[string]interface{}{
		"content":   content,
		"max_tasks": float64(2),
	})

	text := getTextContent(t, result)
	var resp struct {
		Tasks []map[string]interface{} `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("parsing extract result: %v", err)
	}
	if len(resp.Tasks) > 2 {
		t.Errorf("expected at most 2 tasks, got %d", len(resp.Tasks))
	}
}

// stubProvider stands in for an external generative-text backend.
type stubProvider struct{ response string }

func (p *stubProvider) Complete(ctx context.Context, prompt string, opts llm.CompletionOpts) (string, error) {
	return p.response, nil
}

func (p *stubProvider) Name() string { return "stub/model" }

func TestExtractTool_MaxTasksKeepsServiceClient(t *testing.T) {
	provider := &stubProvider{response: `{"tasks": [
		{"title": "Review the rollout plan"},
		{"title": "Update the billing dashboard"},
		{"title": "Draft the incident report"}
	]}`}
	client := extract.NewServiceClient(provider)
	client.InterChunkDelay = 0
	pipeline := extract.NewPipeline(extract.WithServiceClient(client))
	srv := NewServer(ServerConfig{Pipeline: pipeline, Store: setupTestStore(t), Version: "test"})

	result := callTool(t, srv, "extract_tasks", map[string]interface{}{
		"content":   "The team walked through the rollout, billing, and incident follow-ups.",
		"max_tasks": float64(2),
	})

	text := getTextContent(t, result)
	var resp struct {
		Tasks []map[string]interface{} `json:"tasks"`
		Meta  map[string]interface{}   `json:"meta"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("parsing extract result: %v", err)
	}
	if resp.Meta["source"] != "llm" {
		t.Errorf("source = %v, want llm: capping must not drop the configured service client", resp.Meta["source"])
	}
	if len(resp.Tasks) != 2 {
		t.Errorf("expected 2 tasks, got %d: %v", len(resp.Tasks), resp.Tasks)
	}
}

func TestExtractTool_SaveAndHistory(t *testing.T) {
	st := setupTestStore(t)
	srv := NewServer(ServerConfig{Store: st, Version: "test"})

	result := callTool(t, srv, "extract_tasks", map[string]interface{}{
		"content": "- Sarah will update documentation",
		"save":    "true",
	})

	text := getTextContent(t, result)
	var resp map[string]interface{}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		t.Fatalf("parsing extract result: %v", err)
	}
	if resp["run_id"] == nil || resp["run_id"].(float64) == 0 {
		t.Fatalf("expected a run_id, got %v", resp["run_id"])
	}
	runID := resp["run_id"].(float64)

	// The saved run is visible through recent_runs.
	runsResult := callTool(t, srv, "recent_runs", map[string]interface{}{})
	var runs []map[string]interface{}
	if err := json.Unmarshal([]byte(getTextContent(t, runsResult)), &runs); err != nil {
		t.Fatalf("parsing runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0]["taskCount"].(float64) != 1 {
		t.Errorf("run = %v", runs[0])
	}

	// And its tasks through run_tasks.
	tasksResult := callTool(t, srv, "run_tasks", map[string]interface{}{"run_id": runID})
	var tasks []map[string]interface{}
	if err := json.Unmarshal([]byte(getTextContent(t, tasksResult)), &tasks); err != nil {
		t.Fatalf("parsing tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0]["title"] != "Update documentation" {
		t.Errorf("tasks = %v", tasks)
	}
}

func TestRecentRunsTool_Empty(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t), Version: "test"})
	result := callTool(t, srv, "recent_runs", map[string]interface{}{})
	if text := getTextContent(t, result); text == "" {
		t.Error("expected a non-empty response for an empty history")
	}
}

func TestRunTasksTool_UnknownRun(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t), Version: "test"})
	result := callTool(t, srv, "run_tasks", map[string]interface{}{"run_id": float64(9999)})
	text := getTextContent(t, result)
	if text == "" || result.IsError {
		t.Errorf("expected a friendly empty-run message, got error=%v text=%q", result.IsError, text)
	}
}
