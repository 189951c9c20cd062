package extract

import (
	"time"

	"github.com/DSEENAIAH/meetingmind/internal/segment"
)

// Engine is the rule-based (heuristic) extraction engine. It is a pure
// computation over the input string: no I/O, no shared mutable state, and
// safe for concurrent use. The reference time is injectable so output is
// reproducible under test.
type Engine struct {
	now func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock fixes the engine's reference time for date resolution.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a heuristic engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Strategy sets. Fixed and ordered; results are pooled, never chained.
var (
	structuredStrategies = []Strategy{BulletItems}

	sentenceStrategies = []Strategy{
		DirectAssignments,
		Requests,
		BugHandoffs,
		BugLists,
		TeamAgreements,
		ImplicitNeeds,
	}

	transcriptStrategies = []Strategy{
		ContextCommitments,
		FirstPersonCommitments,
		PlainActionLines,
	}
)

// Candidates runs the applicable strategy sets over text and pools their
// raw output. Branch selection: the structured set runs only when some
// line carries a bullet/number marker; the transcript set runs when
// speaker lines are present, or as a safety net when the structured pass
// yielded at most one candidate; sentence-level strategies always run.
// The pool is unrefined — callers pass it through Dedupe and a Governor.
func (e *Engine) Candidates(text string) []TaskCandidate {
	now := e.now()
	lines := segment.Lines(text)

	// One tracker per call: current speaker plus rolling context window.
	tracker := segment.NewTracker()
	lineUnits := make([]Unit, 0, len(lines))
	hasBullets := false
	for _, line := range lines {
		content := tracker.Observe(line)
		lineUnits = append(lineUnits, Unit{
			Text:    content,
			Raw:     line,
			Speaker: tracker.Speaker(),
			Context: tracker.Context(),
			Now:     now,
		})
		if bulletRE.MatchString(line) {
			hasBullets = true
		}
	}

	var pool []TaskCandidate

	structuredCount := 0
	if hasBullets {
		for _, u := range lineUnits {
			for _, s := range structuredStrategies {
				out := s(u)
				pool = append(pool, out...)
				structuredCount += len(out)
			}
		}
	}

	for _, sentence := range segment.Sentences(text) {
		u := Unit{Text: sentence, Raw: sentence, Now: now}
		for _, s := range sentenceStrategies {
			pool = append(pool, s(u)...)
		}
	}

	if segment.HasSpeakerLines(text) || structuredCount <= 1 {
		for _, u := range lineUnits {
			if bulletRE.MatchString(u.Text) {
				continue
			}
			for _, s := range transcriptStrategies {
				pool = append(pool, s(u)...)
			}
		}
	}

	return pool
}
