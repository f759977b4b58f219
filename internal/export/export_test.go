package export

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portalsync/internal/model"
)

func sampleRecords() []model.ScheduleRecord {
	start := time.Date(2030, time.June, 7, 19, 0, 0, 0, time.UTC)
	return []model.ScheduleRecord{
		{
			ID:          "school-0-" + "1906761600000",
			Title:       "Kickoff Night",
			Time:        "19:00",
			Location:    "Main auditorium",
			Description: "Opening session",
			Timestamp:   start.UnixMilli(),
		},
		{
			ID:        "school-1-1906848000000",
			Title:     "Growth, part two",
			Time:      "19:00",
			Timestamp: start.AddDate(0, 0, 1).UnixMilli(),
		},
	}
}

func TestBuildCalendar(t *testing.T) {
	cal := BuildCalendar("School", sampleRecords(), true)
	body := cal.Serialize()

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"SUMMARY:Kickoff Night",
		"LOCATION:Main auditorium",
		"BEGIN:VALARM",
		"ACTION:DISPLAY",
		"END:VCALENDAR",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("calendar missing %q:\n%s", want, body)
		}
	}

	// Two events, two alarms each.
	if got := strings.Count(body, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("VEVENT count = %d, want 2", got)
	}
	if got := strings.Count(body, "BEGIN:VALARM"); got != 4 {
		t.Errorf("VALARM count = %d, want 4", got)
	}
}

func TestBuildCalendarWithoutAlarms(t *testing.T) {
	cal := BuildCalendar("School", sampleRecords(), false)
	if strings.Contains(cal.Serialize(), "BEGIN:VALARM") {
		t.Error("subscription calendar must not carry alarms")
	}
}

func TestWriteCSV(t *testing.T) {
	w := httptest.NewRecorder()
	WriteCSV(w, "School", sampleRecords())

	body := w.Body.String()
	if !strings.Contains(w.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(body, "date,time,title,speaker,location,type") {
		t.Error("missing CSV header")
	}
	if !strings.Contains(body, "2030-06-07,19:00,Kickoff Night") {
		t.Errorf("missing first row:\n%s", body)
	}
	// The comma in the title forces quoting.
	if !strings.Contains(body, `"Growth, part two"`) {
		t.Errorf("comma-bearing title not quoted:\n%s", body)
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, "School", sampleRecords())

	body := w.Body.String()
	if !strings.Contains(w.Header().Get("Content-Type"), "application/json") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(body, `"course":"School"`) {
		t.Errorf("missing course name:\n%s", body)
	}
	if !strings.Contains(body, `"title":"Kickoff Night"`) {
		t.Errorf("missing record:\n%s", body)
	}
}
