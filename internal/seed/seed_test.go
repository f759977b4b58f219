package seed

import (
	"strings"
	"testing"
	"time"
)

func TestScheduleShape(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	got := Schedule(now, time.UTC)

	if len(got) != 16 {
		t.Fatalf("got %d records, want 16 (4 sessions x 4 segments)", len(got))
	}

	// Every session lands on a Friday at or after 19:00.
	for _, rec := range got {
		start := rec.StartsAt().UTC()
		if start.Weekday() != time.Friday {
			t.Errorf("record %s starts on %s, want Friday", rec.ID, start.Weekday())
		}
		if start.Hour() < sessionHour {
			t.Errorf("record %s starts at %s, want >= %02d:00", rec.ID, rec.Time, sessionHour)
		}
	}

	// One session is in the past relative to now.
	past := 0
	seen := map[int64]bool{}
	for _, rec := range got {
		seen[rec.StartsAt().Truncate(24*time.Hour).UnixMilli()] = true
		if rec.StartsAt().Before(now) {
			past++
		}
	}
	if past != 4 {
		t.Errorf("past segments = %d, want 4 (one full session)", past)
	}
	if len(seen) != 4 {
		t.Errorf("distinct session days = %d, want 4", len(seen))
	}
}

func TestScheduleSegmentSpacing(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	got := Schedule(now, time.UTC)

	// Segments within one session are 15 minutes apart.
	for i := 1; i < 4; i++ {
		delta := got[i].Timestamp - got[i-1].Timestamp
		if delta != int64(segmentInterval/time.Millisecond) {
			t.Errorf("segment %d offset = %dms, want %dms", i, delta, int64(segmentInterval/time.Millisecond))
		}
	}
}

func TestScheduleIDsAreSeedScoped(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	for _, rec := range Schedule(now, time.UTC) {
		if !strings.HasPrefix(rec.ID, "seed-") {
			t.Errorf("ID %q lacks seed- prefix", rec.ID)
		}
	}
}
