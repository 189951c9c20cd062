package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/DSEENAIAH/meetingmind/internal/llm"
)

// System prompt for external task extraction.
const taskSystemPrompt = `You are a task extraction system. Extract actionable tasks from the provided meeting notes or transcript.

RULES:
1. Extract ONLY tasks that are explicitly stated or clearly committed to
2. Each task needs a short imperative title
3. Include the assignee when one is named, the due date (YYYY-MM-DD) when one is stated
4. Priority is one of: low, medium, high
5. Return ONLY the JSON object, no additional text

JSON SCHEMA:
{
  "tasks": [
    {
      "title": "short imperative description",
      "description": "the line or sentence this came from",
      "assignee": "name or empty string",
      "priority": "low|medium|high",
      "dueDate": "YYYY-MM-DD or empty string",
      "confidence": 0.85
    }
  ]
}`

// defaultInterChunkDelay paces successive chunk calls so a long input does
// not burst past the service's rate limits.
const defaultInterChunkDelay = time.Second

// ServiceClient sends meeting text to an external generative-text service
// and parses its raw records into TaskCandidates. Record shapes vary by
// backend; the parser accepts the common field-name variants.
type ServiceClient struct {
	provider llm.Provider

	// MaxChunkChars bounds each request; longer inputs are chunked.
	MaxChunkChars int

	// InterChunkDelay is the pause between successive chunk calls.
	InterChunkDelay time.Duration
}

// NewServiceClient wraps a provider with chunking and response parsing.
func NewServiceClient(provider llm.Provider) *ServiceClient {
	return &ServiceClient{
		provider:        provider,
		MaxChunkChars:   DefaultChunkChars,
		InterChunkDelay: defaultInterChunkDelay,
	}
}

// Name reports the underlying provider name for result metadata.
func (c *ServiceClient) Name() string {
	return c.provider.Name()
}

// Extract runs the external service over text, chunking long inputs.
// Chunk calls are serialized with a fixed delay, and a single chunk's
// failure does not abort the rest: surviving chunks still contribute.
// An error is returned only when every chunk fails.
func (c *ServiceClient) Extract(ctx context.Context, text string) ([]TaskCandidate, error) {
	chunks := ChunkText(text, c.MaxChunkChars)
	if len(chunks) == 0 {
		return nil, nil
	}

	var tasks []TaskCandidate
	var lastErr error
	succeeded := 0

	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		if i > 0 && c.InterChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.InterChunkDelay):
			}
		}

		chunkTasks, err := c.extractChunk(ctx, chunk)
		if err != nil {
			lastErr = err
			fmt.Fprintf(os.Stderr, "Warning: chunk %d/%d extraction failed, continuing: %v\n", i+1, len(chunks), err)
			continue
		}
		succeeded++
		tasks = append(tasks, chunkTasks...)
	}

	if succeeded == 0 {
		return nil, fmt.Errorf("external extraction failed for all %d chunks: %w", len(chunks), lastErr)
	}
	return tasks, nil
}

func (c *ServiceClient) extractChunk(ctx context.Context, chunk string) ([]TaskCandidate, error) {
	prompt := fmt.Sprintf("Extract tasks from these meeting notes:\n\n---\n%s\n---\n\nReturn JSON matching the schema.", chunk)
	content, err := c.provider.Complete(ctx, prompt, llm.CompletionOpts{
		Temperature: 0.1,
		Format:      "json",
		System:      taskSystemPrompt,
	})
	if err != nil {
		return nil, err
	}
	return ParseRawTasks(content)
}

// ParseRawTasks converts a service response into TaskCandidates. It
// accepts both a bare JSON array and a {"tasks": [...]} envelope, and
// tolerates field-name variants across backends (task/title,
// deadline/dueDate, owner/assignee). Records without any usable title
// are dropped.
func ParseRawTasks(content string) ([]TaskCandidate, error) {
	content = strings.TrimSpace(content)
	content = stripCodeFence(content)
	if content == "" {
		return nil, fmt.Errorf("empty response")
	}

	var records []map[string]any
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &records); err != nil {
			return nil, fmt.Errorf("invalid JSON array: %w", err)
		}
	} else {
		var envelope struct {
			Tasks []map[string]any `json:"tasks"`
		}
		if err := json.Unmarshal([]byte(content), &envelope); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		records = envelope.Tasks
	}

	var tasks []TaskCandidate
	for _, rec := range records {
		c := coerceRecord(rec)
		if strings.TrimSpace(c.Title) == "" {
			continue
		}
		tasks = append(tasks, c)
	}
	return tasks, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some models insist on.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// coerceRecord maps one heterogeneous raw record onto the canonical
// candidate shape.
func coerceRecord(rec map[string]any) TaskCandidate {
	c := TaskCandidate{
		Title:       firstString(rec, "title", "task", "name", "summary"),
		Description: firstString(rec, "description", "details", "context", "source"),
		Assignee:    firstString(rec, "assignee", "owner", "assigned_to", "assignedTo", "who"),
		DueDate:     firstString(rec, "dueDate", "due_date", "deadline", "due"),
		Priority:    NormalizePriority(firstString(rec, "priority", "urgency")),
	}
	if c.Description == "" {
		c.Description = DefaultDescription
	}
	if v, ok := rec["confidence"].(float64); ok {
		c.Confidence = v
	}
	if v, ok := rec["inferred"].(bool); ok {
		c.Inferred = v
	}
	if v, ok := rec["optional"].(bool); ok {
		c.Optional = v
	}
	return c
}

func firstString(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := rec[k].(string); ok {
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		}
	}
	return ""
}
