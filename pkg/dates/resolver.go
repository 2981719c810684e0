// Package dates resolves natural-language date phrases ("tomorrow",
// "next Friday") against a reference time.
package dates

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Resolver maps a phrase to a calendar date relative to ref. ok is false when
// the phrase carries no recognizable date.
type Resolver interface {
	Resolve(phrase string, ref time.Time, preferFuture bool) (t time.Time, ok bool)
}

// ResolverFunc adapts a plain function to the Resolver interface.
type ResolverFunc func(phrase string, ref time.Time, preferFuture bool) (time.Time, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(phrase string, ref time.Time, preferFuture bool) (time.Time, bool) {
	return f(phrase, ref, preferFuture)
}

var (
	weekdayRegex = regexp.MustCompile(`(?i)\b(?:mon|tue|wed|thu|fri|sat|sun)(?:day|sday|nesday|rsday|urday|s|\.)?\b`)
	monthRegex   = regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)(?:uary|ruary|ch|il|e|y|ust|tember|ober|ember|\.)?\b`)
	yearRegex    = regexp.MustCompile(`\b\d{4}\b`)
)

const week = 7 * 24 * time.Hour

// relativeWeek resolves "next week" and "in a week" to seven days after ref.
// The English rule set has no rule for the former.
var relativeWeek = &rules.F{
	RegExp: regexp.MustCompile(`(?i)(?:\W|^)(next\s+week|in\s+(?:a|one|1)\s+week)(?:\W|$)`),
	Applier: func(m *rules.Match, c *rules.Context, o *rules.Options, ref time.Time) (bool, error) {
		if c.Duration != 0 {
			return false, nil
		}
		c.Duration = week
		return true, nil
	},
}

// WhenResolver resolves English phrases with github.com/olebedev/when.
type WhenResolver struct {
	parser *when.Parser
}

// NewWhenResolver returns a resolver loaded with the English and common rule
// sets.
func NewWhenResolver() *WhenResolver {
	w := when.New(nil)
	w.Add(relativeWeek)
	w.Add(en.All...)
	w.Add(common.All...)
	return &WhenResolver{parser: w}
}

// Resolve finds the first date expression in phrase. With preferFuture a date
// that would land before ref's day is moved forward: a bare weekday to its
// next occurrence, a month and day without a year to the next year.
func (r *WhenResolver) Resolve(phrase string, ref time.Time, preferFuture bool) (time.Time, bool) {
	res, err := r.parser.Parse(phrase, ref)
	if err != nil || res == nil {
		return time.Time{}, false
	}

	t := res.Time
	if !preferFuture || !Day(t).Before(Day(ref)) || strings.Contains(strings.ToLower(res.Text), "last") {
		return t, true
	}

	switch {
	case namesMonth(res.Text):
		if yearRegex.MatchString(res.Text) {
			break
		}
		for Day(t).Before(Day(ref)) {
			t = t.AddDate(1, 0, 0)
		}
	case namesWeekday(res.Text):
		for Day(t).Before(Day(ref)) {
			t = t.AddDate(0, 0, 7)
		}
	}
	return t, true
}

func namesWeekday(s string) bool {
	return weekdayRegex.MatchString(s)
}

func namesMonth(s string) bool {
	return monthRegex.MatchString(s)
}

// Day truncates t to midnight in its own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole calendar days from ref to t, with
// both taken as dates in ref's location. DST shifts do not affect the count.
func DaysBetween(ref, t time.Time) int {
	loc := ref.Location()
	ry, rm, rd := ref.Date()
	ty, tm, td := t.In(loc).Date()
	a := time.Date(ry, rm, rd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
