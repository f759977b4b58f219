// Package export renders a synchronized schedule as ICS, CSV or JSON for
// download or calendar subscription.
package export

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	appLog "portalsync/internal/log"
	"portalsync/internal/model"
)

const productID = "-//portalsync//Schedule//EN"

// reminder offsets baked into downloaded calendars, mirroring the local
// reminder scheduler.
var alarmTriggers = []string{"-PT24H", "-PT3H"}

// BuildCalendar builds an iCalendar document for one course schedule.
// Sessions are point-in-time, so events carry only a DTSTART.
func BuildCalendar(courseName string, records []model.ScheduleRecord, withAlarms bool) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(courseName)

	for _, rec := range records {
		ev := cal.AddEvent(fmt.Sprintf("%s@portalsync", rec.ID))
		ev.SetDtStampTime(time.Now().UTC())
		ev.SetStartAt(rec.StartsAt().UTC())
		ev.SetSummary(rec.Title)
		if rec.Location != "" {
			ev.SetLocation(rec.Location)
		}
		if rec.Description != "" {
			ev.SetDescription(rec.Description)
		}

		if withAlarms {
			for _, trigger := range alarmTriggers {
				alarm := ev.AddAlarm()
				alarm.SetAction(ics.ActionDisplay)
				alarm.SetTrigger(trigger)
			}
		}
	}
	return cal
}

// WriteICS writes the schedule as an ICS attachment.
func WriteICS(w http.ResponseWriter, courseName string, records []model.ScheduleRecord, withAlarms bool) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s.ics", slug(courseName)))

	cal := BuildCalendar(courseName, records, withAlarms)
	if _, err := fmt.Fprint(w, cal.Serialize()); err != nil {
		appLog.Error("ICS export write failed", err)
	}
}

// WriteCSV writes the schedule as a CSV attachment.
func WriteCSV(w http.ResponseWriter, courseName string, records []model.ScheduleRecord) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s.csv", slug(courseName)))

	fmt.Fprintln(w, "date,time,title,speaker,location,type")
	for _, rec := range records {
		start := rec.StartsAt().UTC()
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s\n",
			start.Format("2006-01-02"), rec.Time,
			csvField(rec.Title), csvField(rec.Speaker),
			csvField(rec.Location), csvField(rec.Type))
	}
}

// WriteJSON writes the schedule as a JSON document.
func WriteJSON(w http.ResponseWriter, courseName string, records []model.ScheduleRecord) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	data := map[string]any{
		"course":  courseName,
		"records": records,
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		appLog.Error("JSON export write failed", err)
		http.Error(w, "failed to encode schedule", http.StatusInternalServerError)
	}
}

// csvField quotes a value containing the delimiter, matching what the
// upstream sheet exports produce.
func csvField(v string) string {
	if strings.ContainsAny(v, ",\"\n") {
		return `"` + strings.ReplaceAll(v, `"`, `'`) + `"`
	}
	return v
}

func slug(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, " ", "_")
	if s == "" {
		s = "schedule"
	}
	return s
}
