package extract

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Source labels identify which extraction path produced a result. They
// exist for observability; consumers must not branch on them.
const (
	SourceHeuristic = "heuristic"
	SourceService   = "llm"
	SourceMerged    = "llm+heuristic"
)

// Meta describes one pipeline run.
type Meta struct {
	ProcessedAt time.Time `json:"processedAt"`
	Source      string    `json:"source"`
	InputChars  int       `json:"inputChars"`
}

// Result is the pipeline's output: the final ordered task list plus run
// metadata.
type Result struct {
	Tasks []TaskCandidate `json:"tasks"`
	Meta  Meta            `json:"meta"`
}

// Pipeline orchestrates extraction end to end: segmentation, strategy
// fan-out, deduplication, and refinement — optionally preceded by a call
// to an external generative-text service whose output feeds the same
// refinement stage. The heuristic engine is always available as a
// synchronous fallback; Extract never returns an empty task list.
type Pipeline struct {
	engine   *Engine
	client   *ServiceClient
	governor *Governor
	now      func() time.Time
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithServiceClient enables the external extraction path.
func WithServiceClient(client *ServiceClient) PipelineOption {
	return func(p *Pipeline) { p.client = client }
}

// WithGovernorConfig overrides the refinement thresholds.
func WithGovernorConfig(cfg GovernorConfig) PipelineOption {
	return func(p *Pipeline) { p.governor = NewGovernor(cfg) }
}

// WithPipelineClock fixes the reference time, for reproducible output.
func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
		p.engine = NewEngine(WithClock(now))
	}
}

// NewPipeline creates a pipeline with the default heuristic engine and
// governor.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		engine:   NewEngine(),
		governor: NewGovernor(DefaultGovernorConfig()),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract converts raw meeting text into the final task list.
//
// With no service client configured this is a pure, deterministic
// computation. With one configured, the service runs first and its
// failure falls back to the heuristic engine; a degenerate (short)
// service response on a long input merges both pools before the shared
// dedup/refine stage.
func (p *Pipeline) Extract(ctx context.Context, text string) (Result, error) {
	return p.extract(ctx, text, p.governor)
}

// ExtractCapped is Extract with a per-call cap on the returned tasks.
// The service client, clock, and every other configured threshold are
// unchanged; maxTasks <= 0 means the configured cap.
func (p *Pipeline) ExtractCapped(ctx context.Context, text string, maxTasks int) (Result, error) {
	if maxTasks <= 0 {
		return p.extract(ctx, text, p.governor)
	}
	cfg := p.governor.config
	cfg.MaxTasks = maxTasks
	return p.extract(ctx, text, NewGovernor(cfg))
}

func (p *Pipeline) extract(ctx context.Context, text string, governor *Governor) (Result, error) {
	source := SourceHeuristic
	heuristicPool := p.engine.Candidates(text)
	pool := heuristicPool

	if p.client != nil {
		serviceTasks, err := p.client.Extract(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return Result{}, ctx.Err()
			}
			fmt.Fprintf(os.Stderr, "Warning: external extraction failed, using heuristic engine: %v\n", err)
		} else {
			source = SourceService
			pool = serviceTasks
			if governor.NeedsHeuristicMerge(len(serviceTasks), len(text)) {
				pool = append(append([]TaskCandidate{}, serviceTasks...), heuristicPool...)
				source = SourceMerged
			}
		}
	}

	tasks := governor.Apply(pool, text)

	return Result{
		Tasks: tasks,
		Meta: Meta{
			ProcessedAt: p.now(),
			Source:      source,
			InputChars:  len(text),
		},
	}, nil
}
