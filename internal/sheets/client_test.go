package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portalsync/internal/config"
)

func testCourse() config.CourseConfig {
	return config.CourseConfig{ID: "school", SheetID: "sheet123", GID: "0"}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.UTC, config.SheetRef{SheetID: "partners456", GID: "0"})
}

func TestFetchRawCacheBuster(t *testing.T) {
	var gotPath, gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte("h\nrow"))
	})
	c.now = func() time.Time { return time.UnixMilli(1700000000123) }

	body, err := c.FetchRaw(context.Background(), config.SheetRef{SheetID: "sheet123", GID: "7"})
	if err != nil {
		t.Fatalf("FetchRaw: %v", err)
	}
	if body != "h\nrow" {
		t.Errorf("body = %q", body)
	}
	if gotPath != "/sheet123/export" {
		t.Errorf("path = %q, want /sheet123/export", gotPath)
	}
	if want := "format=csv&gid=7&t=1700000000123"; gotQuery != want {
		t.Errorf("query = %q, want %q", gotQuery, want)
	}
}

func TestFetchEventsPropagatesFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})

	if _, err := c.FetchEvents(context.Background(), testCourse()); err == nil {
		t.Fatal("FetchEvents returned nil error on HTTP 403")
	}
}

func TestFetchEventsParsesBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("header\n15/01/2025,19:00,Kickoff\n"))
	})

	records, err := c.FetchEvents(context.Background(), testCourse())
	if err != nil {
		t.Fatalf("FetchEvents: %v", err)
	}
	if len(records) != 1 || records[0].Title != "Kickoff" {
		t.Errorf("records = %+v", records)
	}
}

func TestFetchPartnersDegradesToEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	entries, err := c.FetchPartners(context.Background())
	if err != nil {
		t.Fatalf("FetchPartners must not propagate failure, got %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %+v, want empty", entries)
	}
}

func TestFetchPartnersSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("header\nAlpha,Food,desc\n"))
	})

	entries, err := c.FetchPartners(context.Background())
	if err != nil {
		t.Fatalf("FetchPartners: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "Alpha" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestFetchRawEmptySheetID(t *testing.T) {
	c := NewClient("http://unused", time.UTC, config.SheetRef{})
	if _, err := c.FetchRaw(context.Background(), config.SheetRef{}); err == nil {
		t.Fatal("expected error for empty sheet ID")
	}
}
