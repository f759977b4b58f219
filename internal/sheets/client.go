// Package sheets fetches and parses the spreadsheet-backed feeds: one
// schedule tab per course and one partner directory tab.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"portalsync/internal/config"
	appLog "portalsync/internal/log"
	"portalsync/internal/model"
)

// defaultExportBase is the spreadsheet CSV export endpoint prefix.
const defaultExportBase = "https://docs.google.com/spreadsheets/d"

// Client fetches published spreadsheet tabs as CSV.
type Client struct {
	httpClient *http.Client
	base       string
	loc        *time.Location
	partners   config.SheetRef

	// now feeds the cache-busting query parameter; injectable for tests.
	now func() time.Time
}

// NewClient creates a Client. base may be empty to use the public export
// endpoint; loc is the timezone the published schedule is expressed in.
func NewClient(base string, loc *time.Location, partners config.SheetRef) *Client {
	if base == "" {
		base = defaultExportBase
	}
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		base:       base,
		loc:        loc,
		partners:   partners,
		now:        time.Now,
	}
}

// exportURL builds the CSV export URL for one sheet tab. The t parameter
// changes on every call so intermediary caches never serve a stale body;
// the feeds publish live data and correctness requires seeing it.
func (c *Client) exportURL(ref config.SheetRef) string {
	return fmt.Sprintf("%s/%s/export?format=csv&gid=%s&t=%d",
		c.base, ref.SheetID, ref.GID, c.now().UnixMilli())
}

// FetchRaw fetches one sheet tab and returns the raw delimited text.
func (c *Client) FetchRaw(ctx context.Context, ref config.SheetRef) (string, error) {
	if ref.SheetID == "" {
		return "", errors.New("sheet ID is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.exportURL(ref), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sheet export returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchEvents fetches and parses the schedule for one course. Failures
// propagate so the sync coordinator can keep showing the last snapshot.
func (c *Client) FetchEvents(ctx context.Context, course config.CourseConfig) ([]model.ScheduleRecord, error) {
	ref := config.SheetRef{SheetID: course.SheetID, GID: course.GID}
	body, err := c.FetchRaw(ctx, ref)
	if err != nil {
		appLog.Error("schedule fetch failed", err, "course", course.ID)
		return nil, err
	}

	records := ParseEvents(course.ID, body, c.loc)
	appLog.Info("schedule fetched", "course", course.ID, "records", len(records))
	return records, nil
}

// FetchPartners fetches and parses the partner directory. The directory is
// non-critical, so any failure degrades to an empty result instead of
// propagating.
func (c *Client) FetchPartners(ctx context.Context) ([]model.DirectoryEntry, error) {
	body, err := c.FetchRaw(ctx, c.partners)
	if err != nil {
		appLog.Error("partner fetch failed; returning empty directory", err)
		return []model.DirectoryEntry{}, nil
	}

	entries := ParsePartners(body)
	appLog.Info("partners fetched", "entries", len(entries))
	return entries, nil
}
