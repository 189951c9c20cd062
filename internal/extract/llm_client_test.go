package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DSEENAIAH/meetingmind/internal/llm"
)

// fakeProvider scripts per-call responses and errors.
type fakeProvider struct {
	responses []string
	errs      []error
	calls     int
}

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts llm.CompletionOpts) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func (f *fakeProvider) Name() string { return "fake" }

func TestParseRawTasks_Envelope(t *testing.T) {
	tasks, err := ParseRawTasks(`{"tasks": [{"title": "Review the PR", "assignee": "john", "priority": "high", "dueDate": "2026-03-06", "confidence": 0.9}]}`)
	if err != nil {
		t.Fatalf("ParseRawTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	c := tasks[0]
	if c.Title != "Review the PR" || c.Assignee != "john" || c.Priority != PriorityHigh {
		t.Errorf("task = %+v", c)
	}
	if c.DueDate != "2026-03-06" || c.Confidence != 0.9 {
		t.Errorf("task = %+v", c)
	}
}

func TestParseRawTasks_BareArray(t *testing.T) {
	tasks, err := ParseRawTasks(`[{"title": "Fix the build"}, {"title": "Ship the release"}]`)
	if err != nil {
		t.Fatalf("ParseRawTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].Description != DefaultDescription {
		t.Errorf("missing description not defaulted: %q", tasks[0].Description)
	}
}

func TestParseRawTasks_FieldVariants(t *testing.T) {
	tasks, err := ParseRawTasks(`{"tasks": [
		{"task": "Update the roadmap", "owner": "Teja", "deadline": "2026-04-01", "urgency": "critical", "details": "from planning"},
		{"name": "Draft release notes", "assigned_to": "dana", "due_date": "2026-04-02"}
	]}`)
	if err != nil {
		t.Fatalf("ParseRawTasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}
	if tasks[0].Title != "Update the roadmap" || tasks[0].Assignee != "Teja" ||
		tasks[0].DueDate != "2026-04-01" || tasks[0].Priority != PriorityHigh ||
		tasks[0].Description != "from planning" {
		t.Errorf("task[0] = %+v", tasks[0])
	}
	if tasks[1].Title != "Draft release notes" || tasks[1].Assignee != "dana" || tasks[1].DueDate != "2026-04-02" {
		t.Errorf("task[1] = %+v", tasks[1])
	}
}

func TestParseRawTasks_CodeFence(t *testing.T) {
	tasks, err := ParseRawTasks("```json\n{\"tasks\": [{\"title\": \"Fix the build\"}]}\n```")
	if err != nil {
		t.Fatalf("ParseRawTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Fix the build" {
		t.Fatalf("got %+v", tasks)
	}
}

func TestParseRawTasks_DropsUntitled(t *testing.T) {
	tasks, err := ParseRawTasks(`{"tasks": [{"title": ""}, {"assignee": "nobody"}, {"title": "Real task"}]}`)
	if err != nil {
		t.Fatalf("ParseRawTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Real task" {
		t.Fatalf("got %+v, want only the titled record", tasks)
	}
}

func TestParseRawTasks_Errors(t *testing.T) {
	if _, err := ParseRawTasks(""); err == nil {
		t.Errorf("empty response: want error")
	}
	if _, err := ParseRawTasks("not json at all"); err == nil {
		t.Errorf("invalid JSON: want error")
	}
}

func TestServiceClientExtract(t *testing.T) {
	fake := &fakeProvider{responses: []string{`{"tasks": [{"title": "Review the PR"}]}`}}
	client := NewServiceClient(fake)
	client.InterChunkDelay = 0

	tasks, err := client.Extract(context.Background(), "short meeting notes")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Review the PR" {
		t.Fatalf("got %+v", tasks)
	}
	if fake.calls != 1 {
		t.Errorf("provider called %d times, want 1", fake.calls)
	}
}

func TestServiceClientExtract_PartialChunkFailure(t *testing.T) {
	fake := &fakeProvider{
		errs:      []error{errors.New("rate limited"), nil},
		responses: []string{"", `{"tasks": [{"title": "Ship the release"}]}`},
	}
	client := NewServiceClient(fake)
	client.InterChunkDelay = 0
	client.MaxChunkChars = 80

	// 125 chars: exactly two chunks at an 80-char budget.
	text := strings.Repeat("one two three four five. ", 5)
	tasks, err := client.Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("Extract: %v (one surviving chunk should suffice)", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Ship the release" {
		t.Fatalf("got %+v", tasks)
	}
	if fake.calls < 2 {
		t.Errorf("provider called %d times, want at least 2", fake.calls)
	}
}

func TestServiceClientExtract_AllChunksFail(t *testing.T) {
	fake := &fakeProvider{errs: []error{errors.New("boom")}, responses: []string{""}}
	client := NewServiceClient(fake)
	client.InterChunkDelay = 0

	if _, err := client.Extract(context.Background(), "short meeting notes"); err == nil {
		t.Fatalf("want error when every chunk fails")
	}
}

func TestServiceClientExtract_CanceledBetweenChunks(t *testing.T) {
	fake := &fakeProvider{responses: []string{`{"tasks": [{"title": "First chunk task"}]}`}}
	client := NewServiceClient(fake)
	client.MaxChunkChars = 80

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	text := strings.Repeat("one two three four five. ", 5)
	_, err := client.Extract(ctx, text)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
