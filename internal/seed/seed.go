// Package seed generates the fallback schedule shown for a course that has
// never synced. The generated records are display-only: they are never
// cached and never handed to the reminder scheduler.
package seed

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	appLog "portalsync/internal/log"
	"portalsync/internal/model"
)

// classPlan is one evening's theme with its quarter-hour segments.
type classPlan struct {
	theme    string
	speaker  string
	segments []string
}

var plans = []classPlan{
	{
		theme:    "Mindset and Vision",
		speaker:  "Program Mentor",
		segments: []string{"Founder Mindset", "Spotting Opportunities", "Validating the Business", "Strategic Networking"},
	},
	{
		theme:    "Marketing and Sales",
		speaker:  "Guest Mentors",
		segments: []string{"Brand Positioning", "Acquisition Channels", "Sales Funnel", "Conversion and Retention"},
	},
	{
		theme:    "Operations and Tech",
		speaker:  "Program Mentor",
		segments: []string{"Scalable Processes", "AI for Business", "No-Code Tooling", "Operational Automation"},
	},
	{
		theme:    "Management and Finance",
		speaker:  "Guest Mentors",
		segments: []string{"Cash Flow", "High-Performance Culture", "Leading Teams", "Closing Pitch"},
	},
}

const (
	sessionHour       = 19
	segmentInterval   = 15 * time.Minute
	fallbackHighlight = "Success is the sum of small efforts repeated day after day."
)

// Schedule returns four weekly evening sessions built with a weekly
// recurrence rule, starting one week before now so that one session is
// always in the past (matching the shape of a real half-elapsed course).
func Schedule(now time.Time, loc *time.Location) []model.ScheduleRecord {
	if loc == nil {
		loc = time.Local
	}
	anchor := now.In(loc).AddDate(0, 0, -7)
	dtstart := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), sessionHour, 0, 0, 0, loc)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rrule.FR},
		Count:     len(plans),
		Dtstart:   dtstart,
	})
	if err != nil {
		appLog.Error("seed recurrence rule failed", err)
		return []model.ScheduleRecord{}
	}

	out := make([]model.ScheduleRecord, 0, len(plans)*4)
	for classIdx, sessionStart := range r.All() {
		plan := plans[classIdx%len(plans)]
		for segIdx, segment := range plan.segments {
			start := sessionStart.Add(time.Duration(segIdx) * segmentInterval)
			out = append(out, model.ScheduleRecord{
				ID:           fmt.Sprintf("seed-%d-%d-%d", classIdx+1, segIdx, start.UnixMilli()),
				Title:        segment,
				Time:         start.In(loc).Format("15:04"),
				Location:     "Main auditorium / Online",
				Description:  fmt.Sprintf("%s: %s. Hands-on session focused on practical results.", plan.theme, segment),
				Speaker:      plan.speaker,
				Type:         segmentType(segIdx),
				Timestamp:    start.UnixMilli(),
				DailySummary: fallbackHighlight,
			})
		}
	}
	return out
}

func segmentType(segIdx int) string {
	switch segIdx {
	case 0:
		return "Lecture"
	case 3:
		return "Networking"
	default:
		return "Workshop"
	}
}
