package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestGovernorApply_Normalization(t *testing.T) {
	g := NewGovernor(DefaultGovernorConfig())
	out := g.Apply([]TaskCandidate{
		{Title: "  fix   the build?? ", Priority: "URGENT", DueDate: "next week", Assignee: " sam "},
	}, "raw input")

	if len(out) != 1 {
		t.Fatalf("got %d tasks, want 1", len(out))
	}
	task := out[0]
	if task.Title != "Fix the build" {
		t.Errorf("title = %q, want 'Fix the build'", task.Title)
	}
	if task.Priority != PriorityHigh {
		t.Errorf("priority = %q, want high", task.Priority)
	}
	if task.DueDate != "" {
		t.Errorf("non-ISO due date survived: %q", task.DueDate)
	}
	if task.Assignee != "sam" {
		t.Errorf("assignee = %q, want trimmed 'sam'", task.Assignee)
	}
	if task.Description != DefaultDescription {
		t.Errorf("description = %q, want default", task.Description)
	}
}

func TestGovernorApply_ValidDueDateKept(t *testing.T) {
	g := NewGovernor(DefaultGovernorConfig())
	out := g.Apply([]TaskCandidate{
		{Title: "Send the release notes", DueDate: "2026-03-06"},
	}, "")
	if out[0].DueDate != "2026-03-06" {
		t.Errorf("dueDate = %q, want 2026-03-06", out[0].DueDate)
	}
}

func TestGovernorApply_Placeholder(t *testing.T) {
	g := NewGovernor(DefaultGovernorConfig())

	out := g.Apply(nil, "")
	if len(out) != 1 {
		t.Fatalf("got %d tasks, want 1 placeholder", len(out))
	}
	if out[0].Title != PlaceholderTitle {
		t.Errorf("title = %q, want %q", out[0].Title, PlaceholderTitle)
	}
	if out[0].Priority != PriorityLow {
		t.Errorf("priority = %q, want low", out[0].Priority)
	}
	if out[0].Description != DefaultDescription {
		t.Errorf("description = %q", out[0].Description)
	}

	// Candidates that normalize to nothing also trigger the placeholder.
	out = g.Apply([]TaskCandidate{{Title: "???"}}, "some raw notes")
	if len(out) != 1 || out[0].Title != PlaceholderTitle {
		t.Fatalf("got %+v, want placeholder", out)
	}
	if out[0].Description != "some raw notes" {
		t.Errorf("description = %q, want the raw input", out[0].Description)
	}
}

func TestGovernorApply_PlaceholderDescriptionBounded(t *testing.T) {
	g := NewGovernor(DefaultGovernorConfig())
	raw := strings.Repeat("x", 500)
	out := g.Apply(nil, raw)
	if len(out[0].Description) != placeholderDescLen {
		t.Errorf("description length = %d, want %d", len(out[0].Description), placeholderDescLen)
	}
}

func TestGovernorApply_CapByScore(t *testing.T) {
	cfg := DefaultGovernorConfig()
	cfg.MaxTasks = 3
	g := NewGovernor(cfg)

	in := []TaskCandidate{
		{Title: "Prepare quarterly budget summary"},                                   // verb + length
		{Title: "Send invoices to vendors", DueDate: "2026-03-06"},                    // + due date
		{Title: "Email the onboarding checklist", Assignee: "Dana"},                   // + assignee
		{Title: "Something without signal words"},                                     // weakest
		{Title: "Deploy staging build", DueDate: "2026-03-05", Assignee: "Priya"},     // strongest
	}
	out := g.Apply(in, "")
	if len(out) != 3 {
		t.Fatalf("got %d tasks, want 3", len(out))
	}
	// Survivors keep their discovery order.
	want := []string{
		"Send invoices to vendors",
		"Email the onboarding checklist",
		"Deploy staging build",
	}
	for i, title := range want {
		if out[i].Title != title {
			t.Errorf("task[%d] = %q, want %q", i, out[i].Title, title)
		}
	}
}

func TestGovernorApply_UnlimitedWhenZero(t *testing.T) {
	cfg := DefaultGovernorConfig()
	cfg.MaxTasks = 0
	g := NewGovernor(cfg)

	in := make([]TaskCandidate, 0, 15)
	titles := []string{
		"Review alpha rollout", "Update billing dashboard", "Fix login crash",
		"Schedule design sync", "Draft incident report", "Deploy search service",
		"Migrate legacy queue", "Audit access logs", "Refactor export worker",
		"Write onboarding guide", "Verify backup restore", "Plan capacity review",
		"Clean stale branches", "Merge feature flags", "Investigate slow queries",
	}
	for _, title := range titles {
		in = append(in, TaskCandidate{Title: title})
	}
	out := g.Apply(in, "")
	if len(out) != len(titles) {
		t.Errorf("got %d tasks, want %d (no cap)", len(out), len(titles))
	}
}

func TestNeedsHeuristicMerge(t *testing.T) {
	g := NewGovernor(DefaultGovernorConfig())
	tests := []struct {
		tasks, chars int
		want         bool
	}{
		{3, 2500, true},   // few tasks, long input
		{8, 2500, false},  // enough tasks
		{3, 1000, false},  // short input, sparse is plausible
		{6, 2500, false},  // at the floor, not below it
	}
	for _, tt := range tests {
		if got := g.NeedsHeuristicMerge(tt.tasks, tt.chars); got != tt.want {
			t.Errorf("NeedsHeuristicMerge(%d, %d) = %v, want %v", tt.tasks, tt.chars, got, tt.want)
		}
	}
}

func TestEvidenceScore(t *testing.T) {
	weak := evidenceScore(TaskCandidate{Title: "Misc"})
	strong := evidenceScore(TaskCandidate{
		Title: "Deploy staging build", DueDate: "2026-03-05", Assignee: "Priya",
	})
	if strong <= weak {
		t.Errorf("strong = %v, weak = %v; want strong > weak", strong, weak)
	}
}

func TestGovernorApply_PlaceholderMultibyteInput(t *testing.T) {
	raw := strings.Repeat("日", 100) // 300 bytes
	out := NewGovernor(DefaultGovernorConfig()).Apply(nil, raw)
	if len(out) != 1 {
		t.Fatalf("got %d tasks, want the placeholder", len(out))
	}
	desc := out[0].Description
	if !utf8.ValidString(desc) {
		t.Errorf("placeholder description is invalid UTF-8: %q", desc)
	}
	if len(desc) > placeholderDescLen {
		t.Errorf("description length = %d, want <= %d", len(desc), placeholderDescLen)
	}
}
