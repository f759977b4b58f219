// Package remind schedules local reminder notifications for upcoming
// sessions. State is process-lifetime only: a restart forgets what was
// scheduled, so deduplication holds only within one running session.
package remind

import (
	"fmt"
	"sync"
	"time"

	appLog "portalsync/internal/log"
	"portalsync/internal/model"
)

// Notifier delivers one local notification. Enabled reports whether the
// permission to deliver has been granted; without it, scheduling is
// skipped entirely.
type Notifier interface {
	Enabled() bool
	Notify(title, body string)
}

// Offset is one of the fixed reminder offsets before a session start.
type Offset struct {
	Kind     string
	Duration time.Duration
}

var offsets = []Offset{
	{Kind: "24h", Duration: 24 * time.Hour},
	{Kind: "3h", Duration: 3 * time.Hour},
}

// graceWindow is how long after a missed trigger the reminder is still
// delivered immediately instead of being dropped.
const graceWindow = 10 * time.Minute

// Scheduler tracks which (record, offset) pairs have been scheduled and
// arranges one-shot deliveries.
type Scheduler struct {
	notifier Notifier

	// now is injectable for tests.
	now func() time.Time

	mu        sync.Mutex
	scheduled map[string]struct{}
	timers    map[string]*time.Timer
}

// NewScheduler creates a Scheduler delivering through n.
func NewScheduler(n Notifier) *Scheduler {
	return &Scheduler{
		notifier:  n,
		now:       time.Now,
		scheduled: make(map[string]struct{}),
		timers:    make(map[string]*time.Timer),
	}
}

// Schedule arranges reminders for every record at every offset. Calling it
// again with the same records is a no-op for pairs already scheduled this
// session. Without a permission grant the whole invocation is skipped; a
// grant arriving later only takes effect on the next call.
func (s *Scheduler) Schedule(records []model.ScheduleRecord) {
	if s.notifier == nil || !s.notifier.Enabled() {
		appLog.Debug("reminder scheduling skipped; notifications not permitted")
		return
	}

	now := s.now()
	for _, rec := range records {
		for _, off := range offsets {
			s.scheduleOne(rec, off, now)
		}
	}
}

func (s *Scheduler) scheduleOne(rec model.ScheduleRecord, off Offset, now time.Time) {
	key := rec.ID + "-" + off.Kind
	trigger := rec.StartsAt().Add(-off.Duration)

	// The duplicate check and the mark must happen under one lock hold, or
	// a concurrent scheduling call could double-book the pair.
	s.mu.Lock()
	if _, dup := s.scheduled[key]; dup {
		s.mu.Unlock()
		return
	}

	switch {
	case trigger.After(now):
		title, body := reminderCopy(rec, off, false)
		s.scheduled[key] = struct{}{}
		s.timers[key] = time.AfterFunc(trigger.Sub(now), func() {
			s.fire(key, title, body)
		})
		s.mu.Unlock()
		appLog.Debug("reminder scheduled", "key", key, "at", trigger.Format(time.RFC3339))

	case now.Sub(trigger) < graceWindow:
		// Trigger just passed; deliver now instead of dropping.
		s.scheduled[key] = struct{}{}
		s.mu.Unlock()
		title, body := reminderCopy(rec, off, true)
		s.notifier.Notify(title, body)
		appLog.Info("reminder delivered within grace window", "key", key)

	default:
		// Missed beyond the grace window; never delivered retroactively.
		s.mu.Unlock()
	}
}

func (s *Scheduler) fire(key, title, body string) {
	s.mu.Lock()
	delete(s.timers, key)
	s.mu.Unlock()
	s.notifier.Notify(title, body)
}

// Stop cancels every pending timer. Pairs stay marked as scheduled; Stop
// is for shutdown, not for rescheduling.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}

// pending reports how many deferred deliveries are queued.
func (s *Scheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func reminderCopy(rec model.ScheduleRecord, off Offset, immediate bool) (title, body string) {
	switch off.Kind {
	case "24h":
		title = "Session tomorrow! 🚀"
		body = fmt.Sprintf("We have something special ready for you at %s.", rec.Time)
	default:
		if immediate {
			title = "Session coming up! 🕒"
			body = fmt.Sprintf("%q starts at %s. Get ready!", rec.Title, rec.Time)
		} else {
			title = "Starting in 3 hours! 🕒"
			body = fmt.Sprintf("%q is about to begin. See you there!", rec.Title)
		}
	}
	return title, body
}
