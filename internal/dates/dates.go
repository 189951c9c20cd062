// Package dates resolves relative and named date expressions found in
// meeting text into absolute calendar dates.
//
// Resolution is deliberately forgiving: a fragment with no recognizable
// temporal expression resolves to "no date", never to an error. Callers
// treat absence as "unknown deadline".
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// monthsByName maps lowercase month names and common abbreviations to
// their calendar month. Read-only after init.
var monthsByName = map[string]time.Month{
	"january": time.January, "jan": time.January,
	"february": time.February, "feb": time.February,
	"march": time.March, "mar": time.March,
	"april": time.April, "apr": time.April,
	"may":  time.May,
	"june": time.June, "jun": time.June,
	"july": time.July, "jul": time.July,
	"august": time.August, "aug": time.August,
	"september": time.September, "sep": time.September, "sept": time.September,
	"october": time.October, "oct": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var (
	monthDayRE = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|jun(?:e)?|jul(?:y)?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})\b`)
	tomorrowRE = regexp.MustCompile(`(?i)\btomorrow\b`)
	todayRE    = regexp.MustCompile(`(?i)\b(?:today|eod|end of (?:the )?day)\b`)
	eowRE      = regexp.MustCompile(`(?i)\b(?:eow|end of (?:the )?week)\b`)
	weekdayRE  = regexp.MustCompile(`(?i)\b(sunday|monday|tuesday|wednesday|thursday|friday|saturday)\b`)
	numericRE  = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})\b`)
)

// Resolve scans text for a temporal expression and returns the resolved
// date as YYYY-MM-DD. The boolean is false when nothing matched.
//
// Forms are tried in a fixed precedence order, first match wins:
// named month + day, "tomorrow", "today"/EOD, end of week, a named
// weekday, then numeric D/D. Weekday references are always strictly in
// the future: "by Friday" spoken on a Friday means next week's Friday,
// and "end of week" on a Friday rolls to the next one as well.
func Resolve(text string, now time.Time) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	if m := monthDayRE.FindStringSubmatch(text); m != nil {
		month, ok := monthsByName[strings.ToLower(strings.TrimSuffix(m[1], "."))]
		if ok {
			day, err := strconv.Atoi(m[2])
			if err == nil && day >= 1 && day <= 31 {
				return formatDate(now.Year(), month, day), true
			}
		}
	}

	if tomorrowRE.MatchString(text) {
		return asDateString(now.AddDate(0, 0, 1)), true
	}

	if todayRE.MatchString(text) {
		return asDateString(now), true
	}

	if eowRE.MatchString(text) {
		return asDateString(nextWeekday(now, time.Friday)), true
	}

	if m := weekdayRE.FindStringSubmatch(text); m != nil {
		if wd, ok := weekdaysByName[strings.ToLower(m[1])]; ok {
			return asDateString(nextWeekday(now, wd)), true
		}
	}

	if m := numericRE.FindStringSubmatch(text); m != nil {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return formatDate(now.Year(), time.Month(month), day), true
		}
	}

	return "", false
}

// nextWeekday returns the next occurrence of wd strictly after now.
// When now already falls on wd, the result is a full week out.
func nextWeekday(now time.Time, wd time.Weekday) time.Time {
	delta := (int(wd) - int(now.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return now.AddDate(0, 0, delta)
}

func formatDate(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

func asDateString(t time.Time) string {
	return t.Format("2006-01-02")
}
