package dates

import (
	"testing"
	"time"
)

// Wednesday, 2026-03-04.
var wednesday = time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

func TestResolve_NamedMonthDay(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"ship it by March 5", "2026-03-05"},
		{"deadline Feb 20", "2026-02-20"},
		{"review on jan 2", "2026-01-02"},
		{"launch September 30 at latest", "2026-09-30"},
	}

	for _, tt := range tests {
		got, ok := Resolve(tt.text, wednesday)
		if !ok {
			t.Errorf("Resolve(%q) found no date", tt.text)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestResolve_Relative(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"push a fix tomorrow", "2026-03-05"},
		{"need this today", "2026-03-04"},
		{"done by EOD", "2026-03-04"},
		{"wrap up by end of day", "2026-03-04"},
		{"finish by end of week", "2026-03-06"},
		{"EOW please", "2026-03-06"},
	}

	for _, tt := range tests {
		got, ok := Resolve(tt.text, wednesday)
		if !ok {
			t.Errorf("Resolve(%q) found no date", tt.text)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestResolve_Weekday(t *testing.T) {
	// From Wednesday: Friday is in two days, Monday is next week.
	got, ok := Resolve("by Friday", wednesday)
	if !ok || got != "2026-03-06" {
		t.Errorf("Resolve(by Friday) = %q, %v; want 2026-03-06", got, ok)
	}

	got, ok = Resolve("ready Monday", wednesday)
	if !ok || got != "2026-03-09" {
		t.Errorf("Resolve(ready Monday) = %q, %v; want 2026-03-09", got, ok)
	}
}

func TestResolve_SameWeekdayRollsForward(t *testing.T) {
	// "by Wednesday" spoken on a Wednesday means next week's Wednesday.
	got, ok := Resolve("by Wednesday", wednesday)
	if !ok || got != "2026-03-11" {
		t.Errorf("Resolve(by Wednesday) = %q, %v; want 2026-03-11", got, ok)
	}
}

func TestResolve_EndOfWeekOnFriday(t *testing.T) {
	friday := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)
	got, ok := Resolve("end of week", friday)
	if !ok || got != "2026-03-13" {
		t.Errorf("Resolve(end of week) on Friday = %q, %v; want 2026-03-13", got, ok)
	}
}

func TestResolve_NumericDate(t *testing.T) {
	got, ok := Resolve("due 3/15", wednesday)
	if !ok || got != "2026-03-15" {
		t.Errorf("Resolve(due 3/15) = %q, %v; want 2026-03-15", got, ok)
	}

	got, ok = Resolve("target 12-1", wednesday)
	if !ok || got != "2026-12-01" {
		t.Errorf("Resolve(target 12-1) = %q, %v; want 2026-12-01", got, ok)
	}
}

func TestResolve_PrecedenceMonthDayBeatsWeekday(t *testing.T) {
	got, ok := Resolve("by Friday March 5", wednesday)
	if !ok || got != "2026-03-05" {
		t.Errorf("Resolve = %q, %v; want named-date to win (2026-03-05)", got, ok)
	}
}

func TestResolve_NoMatch(t *testing.T) {
	for _, text := range []string{"", "   ", "refactor the parser", "13/45 is not a date"} {
		if got, ok := Resolve(text, wednesday); ok {
			t.Errorf("Resolve(%q) = %q, want no match", text, got)
		}
	}
}
