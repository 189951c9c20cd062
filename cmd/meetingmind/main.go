package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/DSEENAIAH/meetingmind/internal/config"
	"github.com/DSEENAIAH/meetingmind/internal/extract"
	"github.com/DSEENAIAH/meetingmind/internal/llm"
	"github.com/DSEENAIAH/meetingmind/internal/mcp"
	"github.com/DSEENAIAH/meetingmind/internal/store"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "extract":
		if err := runExtract(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "history":
		if err := runHistory(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "mcp":
		if err := runMCP(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("meetingmind %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

type extractFlags struct {
	input      string
	llm        string
	db         string
	configPath string
	max        string
	asJSON     bool
	save       bool
}

func parseExtractFlags(args []string) (extractFlags, error) {
	var f extractFlags
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--json":
			f.asJSON = true
		case arg == "--save":
			f.save = true
		case arg == "--llm" || arg == "--db" || arg == "--config" || arg == "--max":
			if i+1 >= len(args) {
				return f, fmt.Errorf("flag %s needs a value", arg)
			}
			i++
			switch arg {
			case "--llm":
				f.llm = args[i]
			case "--db":
				f.db = args[i]
			case "--config":
				f.configPath = args[i]
			case "--max":
				f.max = args[i]
			}
		case strings.HasPrefix(arg, "-") && arg != "-":
			return f, fmt.Errorf("unknown flag: %s", arg)
		default:
			if f.input != "" {
				return f, fmt.Errorf("multiple input paths given")
			}
			f.input = arg
		}
	}
	return f, nil
}

func runExtract(args []string) error {
	f, err := parseExtractFlags(args)
	if err != nil {
		return err
	}

	text, err := readInput(f.input)
	if err != nil {
		return err
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath:  f.configPath,
		CLILLM:      f.llm,
		CLIDBPath:   f.db,
		CLIMaxTasks: f.max,
	})
	if err != nil {
		return err
	}

	pipeline, err := buildPipeline(resolved)
	if err != nil {
		return err
	}

	res, err := pipeline.Extract(context.Background(), text)
	if err != nil {
		return err
	}

	if f.save {
		s, err := store.Open(resolved.DBPath.Value)
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer s.Close()
		runID, err := s.SaveRun(context.Background(), res)
		if err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved run #%d\n", runID)
	}

	if f.asJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	printTasks(res)
	return nil
}

// buildPipeline wires the governor thresholds and, when an LLM model is
// configured, the external service client.
func buildPipeline(resolved config.ResolvedConfig) (*extract.Pipeline, error) {
	cfg := extract.DefaultGovernorConfig()
	cfg.MaxTasks = resolved.MaxTasks.IntValue(cfg.MaxTasks)
	cfg.MinTasks = resolved.MinTasks.IntValue(cfg.MinTasks)
	cfg.LongInputChars = resolved.LongInputChars.IntValue(cfg.LongInputChars)

	opts := []extract.PipelineOption{extract.WithGovernorConfig(cfg)}

	if model := strings.TrimSpace(resolved.LLMModel.Value); model != "" {
		llmCfg, err := llm.ParseFlag(model)
		if err != nil {
			return nil, err
		}
		llmCfg.APIKey = resolved.APIKeyForProvider(model).Value

		provider, err := llm.NewProvider(llmCfg)
		if err != nil {
			// An explicit --llm must work; a config/env default degrades
			// to the heuristic engine.
			if resolved.LLMModel.Source == config.SourceCLI {
				return nil, err
			}
			fmt.Fprintf(os.Stderr, "Warning: LLM unavailable (%v), using heuristic engine\n", err)
		} else {
			opts = append(opts, extract.WithServiceClient(extract.NewServiceClient(provider)))
		}
	}

	return extract.NewPipeline(opts...), nil
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

func printTasks(res extract.Result) {
	fmt.Printf("Extracted %d task(s) [%s]\n\n", len(res.Tasks), res.Meta.Source)
	for i, task := range res.Tasks {
		fmt.Printf("%d. %s\n", i+1, task.Title)
		details := []string{"priority: " + task.Priority}
		if task.Assignee != "" {
			details = append(details, "assignee: "+task.Assignee)
		}
		if task.DueDate != "" {
			details = append(details, "due: "+task.DueDate)
		}
		fmt.Printf("   %s\n", strings.Join(details, "  "))
		if task.Description != "" {
			fmt.Printf("   %s\n", task.Description)
		}
		fmt.Println()
	}
}

func runHistory(args []string) error {
	var dbPath, configPath string
	limit := 10
	var runID int64
	asJSON := false

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--json":
			asJSON = true
		case arg == "--db" || arg == "--config" || arg == "--limit" || arg == "--run":
			if i+1 >= len(args) {
				return fmt.Errorf("flag %s needs a value", arg)
			}
			i++
			switch arg {
			case "--db":
				dbPath = args[i]
			case "--config":
				configPath = args[i]
			case "--limit":
				n, err := strconv.Atoi(args[i])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid --limit %q", args[i])
				}
				limit = n
			case "--run":
				n, err := strconv.ParseInt(args[i], 10, 64)
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid --run %q", args[i])
				}
				runID = n
			}
		default:
			return fmt.Errorf("unknown argument: %s", arg)
		}
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{ConfigPath: configPath, CLIDBPath: dbPath})
	if err != nil {
		return err
	}

	s, err := store.Open(resolved.DBPath.Value)
	if err != nil {
		return fmt.Errorf("opening history database: %w", err)
	}
	defer s.Close()

	ctx := context.Background()

	if runID > 0 {
		tasks, err := s.RunTasks(ctx, runID)
		if err != nil {
			return err
		}
		if asJSON {
			data, _ := json.MarshalIndent(tasks, "", "  ")
			fmt.Println(string(data))
			return nil
		}
		if len(tasks) == 0 {
			fmt.Printf("No tasks recorded for run #%d\n", runID)
			return nil
		}
		printTasks(extract.Result{Tasks: tasks, Meta: extract.Meta{Source: fmt.Sprintf("run #%d", runID)}})
		return nil
	}

	runs, err := s.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}
	if asJSON {
		data, _ := json.MarshalIndent(runs, "", "  ")
		fmt.Println(string(data))
		return nil
	}
	if len(runs) == 0 {
		fmt.Println("No extraction runs recorded yet.")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("#%d  %s  %d task(s)  %d chars  [%s]\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.TaskCount, r.InputChars, r.Source)
	}
	return nil
}

func runMCP(args []string) error {
	var dbPath, configPath, llmFlag string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--db", "--config", "--llm":
			if i+1 >= len(args) {
				return fmt.Errorf("flag %s needs a value", arg)
			}
			i++
			switch arg {
			case "--db":
				dbPath = args[i]
			case "--config":
				configPath = args[i]
			case "--llm":
				llmFlag = args[i]
			}
		default:
			return fmt.Errorf("unknown argument: %s", arg)
		}
	}

	resolved, err := config.ResolveConfig(config.ResolveOptions{
		ConfigPath: configPath,
		CLIDBPath:  dbPath,
		CLILLM:     llmFlag,
	})
	if err != nil {
		return err
	}

	pipeline, err := buildPipeline(resolved)
	if err != nil {
		return err
	}

	// Run history is best-effort for the MCP surface: a broken database
	// disables the history tools but extraction still serves.
	var st *store.Store
	if s, err := store.Open(resolved.DBPath.Value); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: history database unavailable: %v\n", err)
	} else {
		st = s
		defer st.Close()
	}

	srv := mcp.NewServer(mcp.ServerConfig{
		Pipeline: pipeline,
		Store:    st,
		Version:  version,
	})
	return mcpserver.ServeStdio(srv)
}

func printUsage() {
	fmt.Printf(`meetingmind %s — Turn meeting notes into actionable tasks

Usage:
  meetingmind <command> [arguments]

Commands:
  extract [file|-]    Extract tasks from a file or stdin
  history             List recorded extraction runs
  mcp                 Serve the MCP server over stdio
  version             Print version

Extract Flags:
  --llm <prov/model>  Use an external LLM (google/..., openrouter/...)
  --max <n>           Cap the number of returned tasks
  --json              Emit the full result as JSON
  --save              Record this run in the history database
  --db <path>         History database path
  --config <path>     Config file path (default ~/.meetingmind/config.yaml)

History Flags:
  --limit <n>         Number of runs to list (default 10)
  --run <id>          Show the tasks of one run
  --json              Emit JSON

Flags:
  -h, --help          Show this help message
  -v, --version       Print version

Documentation:
  https://github.com/DSEENAIAH/meetingmind
`, version)
}
