package extract

import (
	"sort"
	"strings"
	"time"
)

// GovernorConfig controls refinement: normalization is unconditional, but
// the caps, merge floor, and duplicate thresholds are tunable — they are
// empirically chosen values, not law.
type GovernorConfig struct {
	// MaxTasks caps the final list. Candidates are ranked by evidentiary
	// strength and the lowest-scoring are dropped. 0 means unlimited.
	MaxTasks int

	// MinTasks is the under-extraction floor: when the external service
	// returns fewer than this on a long input, the heuristic pool is
	// merged in before re-deduplication.
	MinTasks int

	// LongInputChars is the input size above which a short external
	// response is treated as under-extraction rather than a genuinely
	// sparse meeting.
	LongInputChars int

	// SimilarityThreshold and PrefixWindow parameterize near-duplicate
	// detection (see Dedupe).
	SimilarityThreshold float64
	PrefixWindow        int
}

// DefaultGovernorConfig returns the recommended defaults.
func DefaultGovernorConfig() GovernorConfig {
	return GovernorConfig{
		MaxTasks:            10,
		MinTasks:            6,
		LongInputChars:      2000,
		SimilarityThreshold: DefaultSimilarityThreshold,
		PrefixWindow:        DefaultPrefixWindow,
	}
}

// PlaceholderTitle is emitted when every strategy comes up empty; the
// pipeline never returns an empty list.
const PlaceholderTitle = "Review meeting notes"

// placeholderDescLen bounds the raw-input prefix carried in the
// placeholder's description.
const placeholderDescLen = 200

// Governor normalizes, deduplicates, scores, and caps the candidate pool.
type Governor struct {
	config GovernorConfig
}

// NewGovernor creates a Governor with the given config.
func NewGovernor(cfg GovernorConfig) *Governor {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.PrefixWindow <= 0 {
		cfg.PrefixWindow = DefaultPrefixWindow
	}
	return &Governor{config: cfg}
}

// Apply produces the final ordered task list from a pooled candidate
// list and the raw input it came from. Candidates whose titles are empty
// after normalization are discarded; if nothing survives, a single
// low-priority placeholder referencing the raw input is returned.
func (g *Governor) Apply(candidates []TaskCandidate, rawInput string) []TaskCandidate {
	normalized := make([]TaskCandidate, 0, len(candidates))
	for _, c := range candidates {
		c = normalizeCandidate(c)
		if c.Title == "" {
			continue
		}
		normalized = append(normalized, c)
	}

	deduped := Dedupe(normalized, g.config.SimilarityThreshold, g.config.PrefixWindow)

	if len(deduped) == 0 {
		return []TaskCandidate{placeholder(rawInput)}
	}

	if g.config.MaxTasks > 0 && len(deduped) > g.config.MaxTasks {
		deduped = g.truncateByScore(deduped)
	}

	return deduped
}

// NeedsHeuristicMerge reports whether an external-service result is a
// likely under-extraction: too few tasks for too large an input.
func (g *Governor) NeedsHeuristicMerge(serviceTasks, inputChars int) bool {
	return serviceTasks < g.config.MinTasks && inputChars > g.config.LongInputChars
}

// normalizeCandidate enforces the record invariants: trimmed capitalized
// title without trailing punctuation, canonical priority, trimmed
// assignee, populated description.
func normalizeCandidate(c TaskCandidate) TaskCandidate {
	c.Title = NormalizeTitle(c.Title)
	c.Assignee = strings.TrimSpace(c.Assignee)
	c.Priority = NormalizePriority(c.Priority)
	c.Description = strings.TrimSpace(c.Description)
	if c.Description == "" {
		c.Description = DefaultDescription
	}
	// External services occasionally return prose where a date belongs.
	if c.DueDate != "" {
		if _, err := time.Parse("2006-01-02", c.DueDate); err != nil {
			c.DueDate = ""
		}
	}
	return c
}

func placeholder(rawInput string) TaskCandidate {
	desc := truncate(rawInput, placeholderDescLen)
	if desc == "" {
		desc = DefaultDescription
	}
	return TaskCandidate{
		Title:       PlaceholderTitle,
		Description: desc,
		Priority:    PriorityLow,
	}
}

type scoredCandidate struct {
	candidate TaskCandidate
	score     float64
	index     int
}

// truncateByScore keeps the highest-scoring candidates up to MaxTasks.
// Ties break by discovery order, and the survivors keep that order.
func (g *Governor) truncateByScore(candidates []TaskCandidate) []TaskCandidate {
	scored := make([]scoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = scoredCandidate{candidate: c, score: evidenceScore(c), index: i}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	scored = scored[:g.config.MaxTasks]

	sort.Slice(scored, func(i, j int) bool {
		return scored[i].index < scored[j].index
	})

	out := make([]TaskCandidate, len(scored))
	for i, s := range scored {
		out[i] = s.candidate
	}
	return out
}

// evidenceScore measures how strongly the text supports a candidate:
// a resolved due date is the strongest signal, then an assignee, then a
// recognized action verb, then a well-formed title length.
func evidenceScore(c TaskCandidate) float64 {
	score := 0.0
	if c.DueDate != "" {
		score += 2
	}
	if c.Assignee != "" {
		score += 1
	}
	if ContainsActionVerb(c.Title) {
		score += 1
	}
	if n := len(c.Title); n >= 10 && n <= 140 {
		score += 0.5
	}
	return score
}
