package actions

import (
	"context"
	"time"

	"github.com/otherjamesbrown/minutes/pkg/dates"
	"github.com/otherjamesbrown/minutes/pkg/logging"
	"github.com/otherjamesbrown/minutes/pkg/observability"
)

// Schedule buckets action items by due date. Each bucket keeps the order in
// which candidates were given.
type Schedule struct {
	Tomorrow []string `json:"tomorrow"`
	NextWeek []string `json:"next_week"`
}

// NewSchedule returns a Schedule with empty, non-nil buckets.
func NewSchedule() Schedule {
	return Schedule{Tomorrow: []string{}, NextWeek: []string{}}
}

// Empty reports whether both buckets are empty.
func (s Schedule) Empty() bool {
	return len(s.Tomorrow) == 0 && len(s.NextWeek) == 0
}

// Stats counts candidates that did not land in a bucket.
type Stats struct {
	Unresolved   int `json:"unresolved"`
	Past         int `json:"past"`
	BeyondWindow int `json:"beyond_window"`
}

// Dropped returns the total number of dropped candidates.
func (s Stats) Dropped() int {
	return s.Unresolved + s.Past + s.BeyondWindow
}

// Scheduler assigns candidates to buckets by resolving the date they mention.
type Scheduler struct {
	resolver dates.Resolver
	metrics  *observability.Metrics
	logger   logging.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithMetrics records bucket and drop counts on m.
func WithMetrics(m *observability.Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// WithLogger sets the logger used for drop reporting.
func WithLogger(l logging.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = l }
}

// NewScheduler returns a Scheduler using resolver.
func NewScheduler(resolver dates.Resolver, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{resolver: resolver, logger: logging.NewNopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule resolves each candidate against today, preferring future dates.
// A date one calendar day after today goes to Tomorrow; two to seven days
// goes to NextWeek. Everything else is dropped and counted in Stats.
//
// today is captured once by the caller so every candidate in a run shares the
// same reference date.
func (s *Scheduler) Schedule(ctx context.Context, candidates []string, today time.Time) (Schedule, Stats) {
	sched := NewSchedule()
	var stats Stats

	for _, c := range candidates {
		due, ok := s.resolver.Resolve(c, today, true)
		if !ok {
			stats.Unresolved++
			s.metrics.RecordActionItemDropped(observability.DropUnresolved)
			s.logger.Debug("action item has no resolvable date", logging.F("candidate", c))
			continue
		}

		switch delta := dates.DaysBetween(today, due); {
		case delta == 1:
			sched.Tomorrow = append(sched.Tomorrow, c)
			s.metrics.RecordActionItem(observability.BucketTomorrow)
		case delta >= 2 && delta <= 7:
			sched.NextWeek = append(sched.NextWeek, c)
			s.metrics.RecordActionItem(observability.BucketNextWeek)
		case delta < 1:
			stats.Past++
			s.metrics.RecordActionItemDropped(observability.DropPast)
		default:
			stats.BeyondWindow++
			s.metrics.RecordActionItemDropped(observability.DropBeyondWindow)
		}
	}

	if stats.Dropped() > 0 {
		s.logger.WithContext(ctx).Info("action items dropped from schedule",
			logging.F("unresolved", stats.Unresolved),
			logging.F("past", stats.Past),
			logging.F("beyond_window", stats.BeyondWindow),
		)
	}
	return sched, stats
}
