// Package mcp provides a Model Context Protocol server for MeetingMind.
//
// It exposes task extraction as an MCP tool so agent hosts (Claude
// Desktop, Cursor) can turn pasted meeting notes into structured tasks,
// plus run-history tools and a recent-runs resource backed by the
// SQLite store. Stdio transport only.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/DSEENAIAH/meetingmind/internal/extract"
	"github.com/DSEENAIAH/meetingmind/internal/store"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Pipeline *extract.Pipeline
	Store    *store.Store // optional; enables run history
	Version  string
}

// dbMu serializes tool calls that touch the database. The mcp-go library
// dispatches handlers concurrently via goroutines, and SQLite supports
// only one writer at a time.
var dbMu sync.Mutex

// NewServer creates a configured MCP server with the MeetingMind tools
// and resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"MeetingMind",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	pipeline := cfg.Pipeline
	if pipeline == nil {
		pipeline = extract.NewPipeline()
	}

	registerExtractTool(s, pipeline, cfg.Store)
	if cfg.Store != nil {
		registerRecentRunsTool(s, cfg.Store)
		registerRunTasksTool(s, cfg.Store)
		registerRecentRunsResource(s, cfg.Store)
	}

	return s
}

// --- Tools ---

func registerExtractTool(s *server.MCPServer, pipeline *extract.Pipeline, st *store.Store) {
	tool := mcp.NewTool("extract_tasks",
		mcp.WithDescription("Extract actionable tasks from meeting notes or a transcript. Returns structured tasks with title, assignee, priority, and due date, plus run metadata."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The meeting notes or transcript text"),
		),
		mcp.WithNumber("max_tasks",
			mcp.Description("Maximum number of tasks to return (default: 10, max: 50)"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Persist this run to the history database (default: false)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError("content is required"), nil
		}

		maxTasks := 0
		if maxVal, err := req.RequireFloat("max_tasks"); err == nil && maxVal > 0 {
			maxTasks = int(maxVal)
			if maxTasks > 50 {
				maxTasks = 50
			}
		}

		res, err := pipeline.ExtractCapped(ctx, content, maxTasks)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extraction error: %v", err)), nil
		}

		output := map[string]interface{}{
			"tasks": res.Tasks,
			"meta":  res.Meta,
		}

		save := false
		if v, err := req.RequireString("save"); err == nil {
			save = v == "true"
		}
		if save {
			if st == nil {
				return mcp.NewToolResultError("save requested but no history database is configured"), nil
			}
			dbMu.Lock()
			runID, err := st.SaveRun(ctx, res)
			dbMu.Unlock()
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("saving run: %v", err)), nil
			}
			output["run_id"] = runID
		}

		data, _ := json.MarshalIndent(output, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerRecentRunsTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("recent_runs",
		mcp.WithDescription("List recent extraction runs: when they ran, which path produced them (heuristic or external), and how many tasks each found."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs to return (default: 10, max: 50)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		limit := 10
		if l, err := req.RequireFloat("limit"); err == nil && l > 0 {
			limit = int(l)
			if limit > 50 {
				limit = 50
			}
		}

		runs, err := st.RecentRuns(ctx, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing runs: %v", err)), nil
		}
		if len(runs) == 0 {
			return mcp.NewToolResultText("No extraction runs recorded yet."), nil
		}

		data, _ := json.MarshalIndent(runs, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerRunTasksTool(s *server.MCPServer, st *store.Store) {
	tool := mcp.NewTool("run_tasks",
		mcp.WithDescription("Fetch the tasks of a recorded extraction run by run ID, in their original order."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("run_id",
			mcp.Required(),
			mcp.Description("The run ID from recent_runs"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		runID, err := req.RequireFloat("run_id")
		if err != nil {
			return mcp.NewToolResultError("run_id is required"), nil
		}

		tasks, err := st.RunTasks(ctx, int64(runID))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("fetching tasks: %v", err)), nil
		}
		if len(tasks) == 0 {
			return mcp.NewToolResultText(fmt.Sprintf("No tasks recorded for run #%d", int64(runID))), nil
		}

		data, _ := json.MarshalIndent(tasks, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// --- Resources ---

func registerRecentRunsResource(s *server.MCPServer, st *store.Store) {
	resource := mcp.NewResource(
		"meetingmind://runs/recent",
		"Recent Extraction Runs",
		mcp.WithResourceDescription("The 10 most recent extraction runs with their task counts."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		runs, err := st.RecentRuns(ctx, 10)
		if err != nil {
			return nil, fmt.Errorf("listing recent runs: %w", err)
		}

		data, _ := json.MarshalIndent(runs, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
