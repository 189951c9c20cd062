package extract

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DSEENAIAH/meetingmind/internal/dates"
	"github.com/DSEENAIAH/meetingmind/internal/segment"
)

// Unit is one processable piece of input handed to a strategy: the text
// itself, the raw line it came from (for priority scanning), the tracked
// speaker, the rolling context window, and the reference time for date
// resolution.
type Unit struct {
	Text    string
	Raw     string
	Speaker string
	Context []string
	Now     time.Time
}

// Strategy inspects a unit and emits zero or more candidates. Strategies
// never mutate shared state; they pool into one list before dedup.
type Strategy func(Unit) []TaskCandidate

// Minimum title lengths per strategy family. Anything shorter is noise.
const (
	minPatternTitleLen = 5
	minBulletTitleLen  = 6
	minPlainLineLen    = 10
)

var (
	bulletRE = regexp.MustCompile(`^\s*(?:[-*•+]|\d{1,2}[.)])\s+(.+)$`)

	willDoRE      = regexp.MustCompile(`^([A-Z][a-z]+(?:\s[A-Z][a-z]+)?)\s+(?:will|needs?\s+to|should|must|has\s+to)\s+(.+)$`)
	nameToRE      = regexp.MustCompile(`^([A-Z][a-z]+(?:\s[A-Z][a-z]+)?)\s+to\s+(.+)$`)
	canYouRE      = regexp.MustCompile(`^([A-Z][a-z]+),\s*(?:after\s+[^,]+,\s*)?can\s+you\s+(?:please\s+)?(.+?)\s*\??$`)
	firstPersonRE = regexp.MustCompile(`(?i)^I(?:'ll|\s+will|\s+can)\s+(.+)$`)
	finishThatRE  = regexp.MustCompile(`(?i)^I(?:'ll|\s+will)\s+(finish|complete|wrap\s+up)\s+(?:that|it)\b\s*(.*)$`)
	bugListRE     = regexp.MustCompile(`(?i)\b\d+\s+bugs?\s+remain(?:ing)?\s*(?:[—–:-]|,)?\s*(.+)$`)
	takeBugsRE    = regexp.MustCompile(`^([A-Z][a-z]+),\s*(?:can|could)\s+you\s+take\s+(?:the\s+)?(.+?)\s+bugs\s*\??$`)
	teamAgreedRE  = regexp.MustCompile(`(?i)^(?:the\s+)?(?:team|everyone|all)\s+agreed\s+to\s+(.+)$`)
	weNeedRE      = regexp.MustCompile(`(?i)^we\s+(?:need|want|require)\s+(?:to\s+)?(.+?)\s*\.?$`)

	// "the export job is 80% done" or "the search index" — the noun
	// phrase a later "that"/"it" refers back to.
	progressRefRE = regexp.MustCompile(`(?i)^(?:the\s+)?(.+?)\s+is\s+(?:\d{1,3}%|almost|nearly|mostly)\s+done`)
	nounPhraseRE  = regexp.MustCompile(`(?i)\bthe\s+([a-z][\w -]{3,40}?)(?:\s+is|\s+was|[.,]|$)`)

	shoutPrefixRE  = regexp.MustCompile(`^[A-Z]{2,}[!:]+\s*`)
	leadMentionRE  = regexp.MustCompile(`^@[\w.-]+[,:]?\s+`)
	bareQuestionRE = regexp.MustCompile(`\?\s*$`)
)

// newCandidate fills the common fields derived from the originating unit.
func newCandidate(title string, u Unit) TaskCandidate {
	due, _ := dates.Resolve(u.Text, u.Now)
	return TaskCandidate{
		Title:       title,
		Description: "Extracted from: " + truncate(u.Raw, 160),
		Assignee:    ExtractAssignee(u.Text),
		Priority:    DetectPriority(u.Raw),
		DueDate:     due,
	}
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// BulletItems matches bulleted or numbered note lines. The stripped
// content is a candidate verbatim unless it is filler, a bare question,
// or a short line with no action verb and no assignment signal. When the
// content itself is an assignment expression ("John to review PR #234"),
// the inner pattern supplies the assignee and title.
func BulletItems(u Unit) []TaskCandidate {
	m := bulletRE.FindStringSubmatch(u.Text)
	if m == nil {
		return nil
	}
	content := strings.TrimSpace(m[1])
	if segment.IsFiller(content) || bareQuestionRE.MatchString(content) {
		return nil
	}
	if len(content) < minBulletTitleLen {
		return nil
	}
	inner := u
	inner.Text = content
	if c, ok := parseAssignment(inner); ok {
		return []TaskCandidate{c}
	}
	// Expressions the sentence strategies would own, but which they never
	// see behind a bullet marker.
	for _, s := range []Strategy{BugHandoffs, BugLists, TeamAgreements, ImplicitNeeds, Requests} {
		if out := s(inner); len(out) > 0 {
			return out
		}
	}
	if len(content) < minPlainLineLen && !ContainsActionVerb(content) {
		return nil
	}
	c := newCandidate(content, u)
	return []TaskCandidate{c}
}

// parseAssignment tries the direct-assignment expressions against a text
// fragment. Used by both the bullet strategy and the sentence strategies.
func parseAssignment(u Unit) (TaskCandidate, bool) {
	if m := willDoRE.FindStringSubmatch(u.Text); m != nil {
		action := strings.TrimSpace(m[2])
		if len(action) >= minPatternTitleLen {
			c := newCandidate(action, u)
			c.Assignee = m[1]
			return c, true
		}
	}
	if m := nameToRE.FindStringSubmatch(u.Text); m != nil {
		action := strings.TrimSpace(m[2])
		// "Name to <action> by <temporal>" carries its own deadline.
		if idx := strings.LastIndex(strings.ToLower(action), " by "); idx > 0 {
			if due, ok := dates.Resolve(action[idx+4:], u.Now); ok {
				head := strings.TrimSpace(action[:idx])
				if len(head) >= minPatternTitleLen {
					c := newCandidate(head, u)
					c.Assignee = m[1]
					c.DueDate = due
					return c, true
				}
			}
		}
		if len(action) >= minPatternTitleLen && ContainsActionVerb(action) {
			c := newCandidate(action, u)
			c.Assignee = m[1]
			return c, true
		}
	}
	return TaskCandidate{}, false
}

// DirectAssignments recognizes third-person assignments:
// "<Name> will/needs to/should/must <action>" and "<Name> to <action>
// [by <temporal>]".
func DirectAssignments(u Unit) []TaskCandidate {
	if c, ok := parseAssignment(u); ok {
		return []TaskCandidate{c}
	}
	return nil
}

// Requests recognizes the request form "<Name>, [after <clause>,] can you
// <action>?". Multi-bug handoffs are owned by BugHandoffs.
func Requests(u Unit) []TaskCandidate {
	if takeBugsRE.MatchString(u.Text) {
		return nil
	}
	m := canYouRE.FindStringSubmatch(u.Text)
	if m == nil {
		return nil
	}
	action := strings.TrimSpace(m[2])
	if len(action) < minPatternTitleLen {
		return nil
	}
	c := newCandidate(action, u)
	c.Assignee = m[1]
	return []TaskCandidate{c}
}

// FirstPersonCommitments resolves "I will/can/'ll <action>" to the
// tracked current speaker. Without a tracked speaker the commitment is
// unattributable and skipped. Context-dependent "finish that" phrasing is
// owned by ContextCommitments.
func FirstPersonCommitments(u Unit) []TaskCandidate {
	if u.Speaker == "" {
		return nil
	}
	if finishThatRE.MatchString(u.Text) {
		return nil
	}
	m := firstPersonRE.FindStringSubmatch(u.Text)
	if m == nil {
		return nil
	}
	action := strings.TrimSpace(m[1])
	if len(action) < minPatternTitleLen {
		return nil
	}
	c := newCandidate(action, u)
	c.Assignee = u.Speaker
	return []TaskCandidate{c}
}

// ContextCommitments resolves "I'll finish that <temporal>" against the
// rolling context window: the most recent context line naming a subject
// ("<X> is 80% done", "the <X> ...") supplies the referent.
func ContextCommitments(u Unit) []TaskCandidate {
	m := finishThatRE.FindStringSubmatch(u.Text)
	if m == nil {
		return nil
	}
	referent := resolveReferent(u.Context)
	if referent == "" {
		return nil
	}
	c := newCandidate("Finish "+referent, u)
	if c.Assignee == "" {
		c.Assignee = u.Speaker
	}
	if due, ok := dates.Resolve(m[2], u.Now); ok {
		c.DueDate = due
	}
	return []TaskCandidate{c}
}

// resolveReferent scans the context window newest-first for a noun phrase
// a pronoun could refer to.
func resolveReferent(context []string) string {
	for i := len(context) - 1; i >= 0; i-- {
		line := context[i]
		if m := progressRefRE.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
		if m := nounPhraseRE.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// BugLists expands enumerated defect lists ("3 bugs remain — a, b, and c")
// into one high-priority candidate per listed defect.
func BugLists(u Unit) []TaskCandidate {
	m := bugListRE.FindStringSubmatch(u.Text)
	if m == nil {
		return nil
	}
	var out []TaskCandidate
	for _, item := range splitListItems(m[1]) {
		if len(item) < minPatternTitleLen {
			continue
		}
		c := newCandidate("Fix: "+item, u)
		c.Priority = PriorityHigh
		out = append(out, c)
	}
	return out
}

// BugHandoffs expands "<Name>, can you take the <A> and <B> bugs?" into
// one high-priority candidate per bug, all assigned to Name.
func BugHandoffs(u Unit) []TaskCandidate {
	m := takeBugsRE.FindStringSubmatch(u.Text)
	if m == nil {
		return nil
	}
	var out []TaskCandidate
	for _, item := range splitListItems(m[2]) {
		item = strings.TrimPrefix(item, "the ")
		if len(item) < 3 {
			continue
		}
		c := newCandidate("Fix the "+item+" bug", u)
		c.Assignee = m[1]
		c.Priority = PriorityHigh
		out = append(out, c)
	}
	return out
}

// TeamAgreements recognizes aggregate commitments
// ("team/everyone agreed to <clause>") and assigns them to "Team".
func TeamAgreements(u Unit) []TaskCandidate {
	m := teamAgreedRE.FindStringSubmatch(u.Text)
	if m == nil {
		return nil
	}
	action := strings.TrimSpace(m[1])
	if len(action) < minPatternTitleLen {
		return nil
	}
	c := newCandidate(action, u)
	c.Assignee = "Team"
	return []TaskCandidate{c}
}

// ImplicitNeeds recognizes "we need <clause>" as an unassigned candidate.
func ImplicitNeeds(u Unit) []TaskCandidate {
	m := weNeedRE.FindStringSubmatch(u.Text)
	if m == nil {
		return nil
	}
	clause := strings.TrimSpace(m[1])
	if len(clause) < minPatternTitleLen {
		return nil
	}
	c := newCandidate(clause, u)
	c.Assignee = ""
	return []TaskCandidate{c}
}

// PlainActionLines is the conversational safety net: a line that opens
// with an action verb (after shedding emphasis prefixes like "URGENT:"
// and a leading @-mention) is a candidate verbatim.
func PlainActionLines(u Unit) []TaskCandidate {
	content := strings.TrimSpace(u.Text)
	content = shoutPrefixRE.ReplaceAllString(content, "")
	stripped := leadMentionRE.ReplaceAllString(content, "")
	if segment.IsFiller(stripped) || bareQuestionRE.MatchString(stripped) {
		return nil
	}
	if len(stripped) < minPlainLineLen || !StartsWithActionVerb(stripped) {
		return nil
	}
	c := newCandidate(stripped, u)
	return []TaskCandidate{c}
}

// splitListItems splits "a, b, and c" style enumerations.
func splitListItems(s string) []string {
	s = strings.TrimSpace(strings.TrimRight(s, ".!"))
	parts := strings.Split(s, ",")
	var items []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if andIdx := findAndSplit(p); andIdx != nil {
			items = append(items, andIdx...)
			continue
		}
		if p != "" {
			items = append(items, p)
		}
	}
	return items
}

func findAndSplit(s string) []string {
	lower := strings.ToLower(s)
	idx := strings.Index(lower, " and ")
	if idx < 0 {
		if strings.HasPrefix(lower, "and ") {
			rest := strings.TrimSpace(s[4:])
			if rest == "" {
				return []string{}
			}
			return []string{rest}
		}
		return nil
	}
	left := strings.TrimSpace(s[:idx])
	right := strings.TrimSpace(s[idx+5:])
	var out []string
	if left != "" {
		out = append(out, left)
	}
	if right != "" {
		out = append(out, right)
	}
	return out
}
