// Package segment splits raw meeting text into processable units and
// tracks conversational state across transcript-style input.
//
// Two parallel views are produced: trimmed non-empty lines, and sentences
// split on terminal punctuation. For transcripts, a Tracker follows which
// participant is speaking and keeps a short rolling window of recent lines
// so later stages can resolve references like "that" or "it".
package segment

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ContextWindow is the number of recent lines retained for reference
// resolution.
const ContextWindow = 3

// minSentenceLength excludes fragments left over from sentence splitting.
const minSentenceLength = 10

// speakerLineRE matches transcript lines of the form
// "[00:22] Seenu: I can look into it" or "Seenu: I can look into it".
// The timestamp prefix is optional; the name must start with a capital.
var speakerLineRE = regexp.MustCompile(`^\s*(?:\[?\d{1,2}:\d{2}(?::\d{2})?\]?\s*)?([A-Z][A-Za-z .'_-]{0,30}?)\s*:\s*(.+)$`)

var sentenceSplitRE = regexp.MustCompile(`[.!?]+\s+|\n+`)

// fillerPhrases are exact (case-insensitive) lines that never carry a task.
var fillerPhrases = map[string]struct{}{
	"ok": {}, "okay": {}, "k": {}, "kk": {},
	"yes": {}, "yeah": {}, "yep": {}, "yup": {}, "no": {}, "nope": {},
	"thanks": {}, "thank you": {}, "thx": {},
	"sounds good": {}, "sounds good to me": {}, "got it": {}, "will do": {},
	"sure": {}, "sure thing": {}, "makes sense": {}, "agreed": {},
	"hi": {}, "hello": {}, "hey": {}, "hey all": {}, "hi everyone": {},
	"good morning": {}, "good afternoon": {}, "good evening": {},
	"bye": {}, "goodbye": {}, "see you": {}, "cool": {}, "nice": {},
	"great": {}, "perfect": {}, "awesome": {}, "noted": {}, "done": {},
	"alright": {}, "all right": {}, "right": {}, "hmm": {}, "uh huh": {},
	"no problem": {}, "np": {}, "welcome": {}, "you're welcome": {},
}

// fillerPatterns match short acknowledgement or status-narration lines
// that should not produce candidates.
var fillerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:ok(?:ay)?|yeah|yes|sure|great|cool|nice|perfect|awesome|thanks|thank you)[.!,]*$`),
	regexp.MustCompile(`(?i)^(?:good\s+(?:morning|afternoon|evening)|hi|hello|hey)\b.{0,20}$`),
	regexp.MustCompile(`(?i)^(?:sounds|looks)\s+good(?:\s+to\s+me)?[.!]*$`),
	regexp.MustCompile(`(?i)^let'?s\s+(?:get\s+started|begin|move\s+on|wrap\s+up)[.!]*$`),
	regexp.MustCompile(`(?i)^(?:any\s+questions|anything\s+else)\??$`),
	regexp.MustCompile(`(?i)^(?:that'?s\s+(?:all|it)(?:\s+for\s+(?:today|now))?)[.!]*$`),
	regexp.MustCompile(`(?i)^(?:moving|next)\s+(?:on|up|item|topic)\b.{0,25}$`),
	regexp.MustCompile(`(?i)^\w+\s+(?:joined|left)\s+the\s+(?:meeting|call)[.!]*$`),
}

// Lines returns the trimmed, non-empty lines of text in order.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Sentences splits text on terminal punctuation and returns trimmed
// sentences of at least minSentenceLength characters.
func Sentences(text string) []string {
	var out []string
	for _, s := range sentenceSplitRE.Split(text, -1) {
		s = strings.TrimSpace(s)
		if utf8.RuneCountInString(s) < minSentenceLength {
			continue
		}
		out = append(out, s)
	}
	return out
}

// IsFiller reports whether line is an acknowledgement, greeting, or other
// no-content interjection that must never yield a task candidate.
func IsFiller(line string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(line))
	trimmed = strings.TrimRight(trimmed, ".!,")
	if trimmed == "" {
		return true
	}
	if _, ok := fillerPhrases[trimmed]; ok {
		return true
	}
	for _, re := range fillerPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Tracker is the per-extraction accumulator for transcript state: the
// current speaker and a rolling buffer of recently processed lines. It is
// local to one extraction call and never shared.
type Tracker struct {
	speaker string
	recent  []string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Observe advances the tracker with the next raw line. If the line is a
// timestamp-prefixed "Name:" transcript line, the current speaker changes
// and the spoken body (rather than the raw line) enters the context
// buffer. Observe returns the content portion of the line.
func (t *Tracker) Observe(line string) string {
	content := line
	if speaker, body, ok := SplitSpeakerLine(line); ok {
		t.speaker = speaker
		content = body
	}

	t.recent = append(t.recent, content)
	if len(t.recent) > ContextWindow {
		t.recent = t.recent[len(t.recent)-ContextWindow:]
	}
	return content
}

// Speaker returns the current speaker, or "" before any speaker line.
func (t *Tracker) Speaker() string {
	return t.speaker
}

// Context returns the rolling buffer of recent line contents, oldest
// first, excluding the line currently being processed.
func (t *Tracker) Context() []string {
	if len(t.recent) <= 1 {
		return nil
	}
	return t.recent[:len(t.recent)-1]
}

// HasSpeakerLines reports whether any line of text looks like a
// transcript speaker line. Used for strategy-set selection.
func HasSpeakerLines(text string) bool {
	for _, line := range Lines(text) {
		if _, _, ok := SplitSpeakerLine(line); ok {
			return true
		}
	}
	return false
}

// SplitSpeakerLine separates a transcript line into speaker and content.
// The boolean is false for non-transcript lines. Shouted prefixes like
// "URGENT:" or "TODO:" are emphasis, not speakers.
func SplitSpeakerLine(line string) (speaker, content string, ok bool) {
	m := speakerLineRE.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	name := strings.TrimSpace(m[1])
	if len(name) > 3 && name == strings.ToUpper(name) {
		return "", "", false
	}
	return name, strings.TrimSpace(m[2]), true
}
