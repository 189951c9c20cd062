// Package extract turns unstructured meeting text into a normalized list
// of actionable task records.
//
// The pipeline runs ordered pattern-matching strategies over lines and
// sentences, pools their candidates, collapses near-duplicates, then
// normalizes, scores, and caps the result. An optional external
// generative-text service runs the same input; its raw records are parsed
// into the same candidate shape and refined by the same stage, with the
// rule-based engine as a synchronous fallback.
package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Priority levels for a task candidate. Anything unrecognized collapses
// to PriorityMedium.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// DefaultDescription is used when a candidate has no provenance string.
const DefaultDescription = "Extracted from meeting notes"

// TaskCandidate is a single provisional task extracted from meeting text.
// Candidates are transient: they exist only within one extraction call,
// passing through deduplication and refinement before being returned or
// discarded.
type TaskCandidate struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Assignee    string  `json:"assignee,omitempty"`
	Priority    string  `json:"priority"`
	DueDate     string  `json:"dueDate,omitempty"`
	Confidence  float64 `json:"confidence,omitempty"`
	Inferred    bool    `json:"inferred,omitempty"`
	Optional    bool    `json:"optional,omitempty"`
}

var (
	highUrgencyRE = regexp.MustCompile(`(?i)\b(?:urgent(?:ly)?|asap|critical|immediately|right away|blocker|blocking|emergency|bugs?|p0|p1|showstopper)\b`)
	lowUrgencyRE  = regexp.MustCompile(`(?i)(?:low\s+priority|nice\s+to\s+have|optional|when\s+(?:you\s+get\s+a\s+chance|possible|free)|no\s+rush|not\s+urgent|eventually|someday|at\s+some\s+point)`)
)

// DetectPriority scans the originating line for urgency terms. High-urgency
// terms win over low-urgency terms when both appear.
func DetectPriority(line string) string {
	switch {
	case highUrgencyRE.MatchString(line):
		return PriorityHigh
	case lowUrgencyRE.MatchString(line):
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// NormalizePriority coerces arbitrary priority strings (from external
// services or stored records) to one of the three canonical values.
func NormalizePriority(p string) string {
	switch strings.ToLower(strings.TrimSpace(p)) {
	case PriorityHigh, "urgent", "critical", "p0", "p1", "highest":
		return PriorityHigh
	case PriorityLow, "minor", "trivial", "lowest":
		return PriorityLow
	default:
		return PriorityMedium
	}
}

var (
	mentionRE     = regexp.MustCompile(`@([A-Za-z][\w.-]*)`)
	leadingNameRE = regexp.MustCompile(`^\s*([A-Z][a-z]+(?:\s[A-Z][a-z]+)?),\s`)
	toldNameRE    = regexp.MustCompile(`\b(?:[Tt]old|[Aa]sked)\s+([A-Z][a-z]+)\s+to\b`)
	saidNameRE    = regexp.MustCompile(`\b([A-Z][a-z]+)\s+(?:mentioned|said)\s+(?:he|she|they)\b`)
)

// ExtractAssignee tries the fallback assignee patterns in order: an
// @-mention, a leading "Name, " clause, a "told/asked Name to" clause,
// then a "Name mentioned/said he/she" clause. First match wins; no match
// returns "".
func ExtractAssignee(line string) string {
	if m := mentionRE.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := leadingNameRE.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := toldNameRE.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	if m := saidNameRE.FindStringSubmatch(line); m != nil {
		return m[1]
	}
	return ""
}

// actionVerbs mark a line as plausibly actionable. Read-only after init.
var actionVerbs = map[string]struct{}{
	"review": {}, "update": {}, "fix": {}, "write": {}, "create": {},
	"send": {}, "schedule": {}, "prepare": {}, "deploy": {}, "test": {},
	"investigate": {}, "refactor": {}, "document": {}, "finish": {},
	"complete": {}, "implement": {}, "check": {}, "merge": {},
	"release": {}, "draft": {}, "add": {}, "remove": {}, "look": {},
	"push": {}, "ship": {}, "clean": {}, "migrate": {}, "organize": {},
	"plan": {}, "email": {}, "call": {}, "contact": {}, "verify": {},
	"build": {}, "follow": {}, "set": {}, "share": {}, "sync": {},
	"upgrade": {}, "debug": {}, "triage": {}, "audit": {}, "resolve": {},
}

// ContainsActionVerb reports whether any word of s is a recognized
// action verb.
func ContainsActionVerb(s string) bool {
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.Trim(word, ".,;:!?()\"'")
		if _, ok := actionVerbs[word]; ok {
			return true
		}
	}
	return false
}

// StartsWithActionVerb reports whether the first word of s is a
// recognized action verb.
func StartsWithActionVerb(s string) bool {
	fields := strings.Fields(strings.ToLower(s))
	if len(fields) == 0 {
		return false
	}
	word := strings.Trim(fields[0], ".,;:!?()\"'")
	_, ok := actionVerbs[word]
	return ok
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// NormalizeTitle trims markers and stray punctuation, collapses internal
// whitespace, and capitalizes the first letter. An empty result means the
// candidate should be discarded.
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(title)
	t = whitespaceRE.ReplaceAllString(t, " ")
	t = strings.TrimRight(t, "?.!,;: ")
	t = strings.TrimLeft(t, "-*• ")
	if t == "" {
		return ""
	}
	runes := []rune(t)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
