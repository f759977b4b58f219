// Package syncer orchestrates "read snapshot, display, fetch, parse,
// replace snapshot, notify" per category. The snapshot read is always
// synchronous and network-free; the refresh runs concurrently and only a
// non-empty successful result replaces the snapshot.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"portalsync/internal/config"
	appLog "portalsync/internal/log"
	"portalsync/internal/model"
	"portalsync/internal/seed"
)

// PartnersCategory is the snapshot category of the partner directory.
const PartnersCategory = "partners"

// EventsCategory returns the snapshot category for one course's schedule.
func EventsCategory(courseID string) string {
	return "events_" + strings.ToLower(courseID)
}

// Source abstracts the remote feeds.
type Source interface {
	FetchEvents(ctx context.Context, course config.CourseConfig) ([]model.ScheduleRecord, error)
	FetchPartners(ctx context.Context) ([]model.DirectoryEntry, error)
}

// Snapshots abstracts the durable snapshot store.
type Snapshots interface {
	Snapshot(category string, v any) (bool, error)
	PutSnapshot(category string, v any) error
}

// EventSink receives fresh schedule records after every accepted sync.
// In production this is the reminder scheduler.
type EventSink interface {
	Schedule([]model.ScheduleRecord)
}

// Update is what consumers receive: either the records read synchronously
// from the snapshot (Fresh=false) or the result of an accepted fetch
// (Fresh=true). Seeded marks the generated fallback schedule.
type Update struct {
	Category string
	Events   []model.ScheduleRecord
	Partners []model.DirectoryEntry
	Seeded   bool
	Fresh    bool
}

// Coordinator owns the decision to overwrite snapshots. It never mutates
// the reminder scheduler's state beyond handing it fresh records.
type Coordinator struct {
	cfg    *config.Config
	source Source
	snaps  Snapshots
	sink   EventSink
	loc    *time.Location

	// now is injectable for tests (seed generation).
	now func() time.Time

	mu        sync.Mutex
	syncing   map[string]int
	listeners []func(Update)
}

// NewCoordinator wires a Coordinator. sink may be nil when reminders are
// not wanted (e.g. one-shot CLI runs).
func NewCoordinator(cfg *config.Config, source Source, snaps Snapshots, sink EventSink, loc *time.Location) *Coordinator {
	if loc == nil {
		loc = time.Local
	}
	return &Coordinator{
		cfg:     cfg,
		source:  source,
		snaps:   snaps,
		sink:    sink,
		loc:     loc,
		now:     time.Now,
		syncing: make(map[string]int),
	}
}

// Subscribe registers a consumer for updates. Not safe to call after the
// coordinator is in use.
func (c *Coordinator) Subscribe(fn func(Update)) {
	c.listeners = append(c.listeners, fn)
}

// Syncing reports whether a sync is in flight for the category. The
// indicator always clears, success or failure.
func (c *Coordinator) Syncing(category string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.syncing[category] > 0
}

// SelectCourse is the "course opened" entry point: it returns the snapshot
// records immediately (a generated seed schedule when the course has never
// synced) and starts a background refresh. The returned slice is what the
// caller should render right away.
func (c *Coordinator) SelectCourse(ctx context.Context, course config.CourseConfig) []model.ScheduleRecord {
	category := EventsCategory(course.ID)

	var records []model.ScheduleRecord
	found, err := c.snaps.Snapshot(category, &records)
	if err != nil {
		appLog.Error("snapshot read failed", err, "category", category)
	}

	seeded := false
	if !found || len(records) == 0 {
		records = seed.Schedule(c.now(), c.loc)
		seeded = true
	}
	c.publish(Update{Category: category, Events: records, Seeded: seeded})

	// The refresh must outlive the selection request.
	bg := context.WithoutCancel(ctx)
	go func() { _ = c.RefreshCourse(bg, course) }()

	return records
}

// SelectPartners mirrors SelectCourse for the partner directory. An absent
// snapshot yields an empty directory, not a seed.
func (c *Coordinator) SelectPartners(ctx context.Context) []model.DirectoryEntry {
	var entries []model.DirectoryEntry
	found, err := c.snaps.Snapshot(PartnersCategory, &entries)
	if err != nil {
		appLog.Error("snapshot read failed", err, "category", PartnersCategory)
	}
	if !found {
		entries = []model.DirectoryEntry{}
	}
	c.publish(Update{Category: PartnersCategory, Partners: entries})

	bg := context.WithoutCancel(ctx)
	go func() { _ = c.RefreshPartners(bg) }()

	return entries
}

// RefreshCourse fetches, parses and, when the result is non-empty,
// replaces the snapshot and triggers reminder scheduling. Failures and
// empty results leave the previous snapshot untouched; there is no retry.
//
// There is no version guard on the overwrite: if two refreshes overlap,
// the last write wins even when it carries the older fetch result.
func (c *Coordinator) RefreshCourse(ctx context.Context, course config.CourseConfig) error {
	category := EventsCategory(course.ID)
	c.begin(category)
	defer c.end(category)

	records, err := c.source.FetchEvents(ctx, course)
	if err != nil {
		appLog.Error("schedule sync failed; keeping previous snapshot", err, "course", course.ID)
		return err
	}
	if len(records) == 0 {
		appLog.Warn("schedule sync returned no records; keeping previous snapshot", "course", course.ID)
		return nil
	}

	if err := c.snaps.PutSnapshot(category, records); err != nil {
		// The fresh records are still handed out; only persistence failed.
		appLog.Error("snapshot write failed", err, "category", category)
	}
	c.publish(Update{Category: category, Events: records, Fresh: true})

	if c.sink != nil {
		c.sink.Schedule(records)
	}
	return nil
}

// RefreshPartners fetches the directory. Empty results (which also cover
// degraded fetch failures) are a no-op. Partner records never reach the
// reminder scheduler.
func (c *Coordinator) RefreshPartners(ctx context.Context) error {
	c.begin(PartnersCategory)
	defer c.end(PartnersCategory)

	entries, err := c.source.FetchPartners(ctx)
	if err != nil {
		appLog.Error("partner sync failed; keeping previous snapshot", err)
		return err
	}
	if len(entries) == 0 {
		appLog.Warn("partner sync returned no entries; keeping previous snapshot")
		return nil
	}

	if err := c.snaps.PutSnapshot(PartnersCategory, entries); err != nil {
		appLog.Error("snapshot write failed", err, "category", PartnersCategory)
	}
	c.publish(Update{Category: PartnersCategory, Partners: entries, Fresh: true})
	return nil
}

// RefreshAll runs one synchronous refresh of every configured category and
// returns the failures joined. Used by the cron-driven periodic refresh and
// by one-shot runs; a failed category keeps its snapshot and waits for the
// next run.
func (c *Coordinator) RefreshAll(ctx context.Context) error {
	var errs []error
	for _, course := range c.cfg.Courses {
		if err := c.RefreshCourse(ctx, course); err != nil {
			errs = append(errs, fmt.Errorf("course %s: %w", course.ID, err))
		}
	}
	if c.cfg.Partners.SheetID != "" {
		if err := c.RefreshPartners(ctx); err != nil {
			errs = append(errs, fmt.Errorf("partners: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Subtitle returns the course subtitle: the initial-subtitle field of the
// first cached record when present, the configured fallback otherwise.
func (c *Coordinator) Subtitle(course config.CourseConfig) string {
	var records []model.ScheduleRecord
	found, err := c.snaps.Snapshot(EventsCategory(course.ID), &records)
	if err == nil && found && len(records) > 0 && records[0].InitialSubtitle != "" {
		return records[0].InitialSubtitle
	}
	return course.Subtitle
}

func (c *Coordinator) begin(category string) {
	c.mu.Lock()
	c.syncing[category]++
	c.mu.Unlock()
}

func (c *Coordinator) end(category string) {
	c.mu.Lock()
	if c.syncing[category] > 0 {
		c.syncing[category]--
	}
	c.mu.Unlock()
}

func (c *Coordinator) publish(u Update) {
	for _, fn := range c.listeners {
		fn(u)
	}
}
