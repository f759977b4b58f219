package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"portalsync/internal/model"
	"portalsync/internal/tabular"
)

// Fixed column orders of the published tabs. The header line is discarded;
// positions are the contract.
const (
	colDate = iota
	colTime
	colTitle
	colSpeaker
	colLocation
	colDescription
	colType
	colFacultyBody
	colDailySummary
	colCoverTitle
	colCoverTitle2
	colSubtitle
	colInitialSubtitle
)

const (
	colPartnerName = iota
	colPartnerCategory
	colPartnerDescription
	colPartnerWhatsApp
	colPartnerInstagram
	colPartnerImageURL
)

const (
	fallbackLocation        = "Main auditorium"
	fallbackType            = "Workshop"
	fallbackPartnerName     = "Unnamed company"
	fallbackPartnerCategory = "General"
)

// ParseEvents turns raw schedule CSV into schedule records. Rows missing a
// date, time or title, or whose date/time do not compose a valid instant,
// are dropped; a partial record is never produced.
func ParseEvents(courseID, text string, loc *time.Location) []model.ScheduleRecord {
	out := []model.ScheduleRecord{}
	idx := -1
	for row := range tabular.Rows(text, ',') {
		idx++
		if rec, ok := eventFromRow(courseID, idx, row, loc); ok {
			out = append(out, rec)
		}
	}
	return out
}

func eventFromRow(courseID string, idx int, row []string, loc *time.Location) (model.ScheduleRecord, bool) {
	dateStr := tabular.Field(row, colDate)
	timeStr := tabular.Field(row, colTime)
	title := tabular.Field(row, colTitle)
	if dateStr == "" || timeStr == "" || title == "" {
		return model.ScheduleRecord{}, false
	}

	start, ok := composeInstant(dateStr, timeStr, loc)
	if !ok {
		return model.ScheduleRecord{}, false
	}

	rec := model.ScheduleRecord{
		ID:              fmt.Sprintf("%s-%d-%d", courseID, idx, start.UnixMilli()),
		Title:           title,
		Time:            timeStr,
		Location:        tabular.Field(row, colLocation),
		Description:     tabular.Field(row, colDescription),
		Speaker:         tabular.Field(row, colSpeaker),
		Type:            tabular.Field(row, colType),
		Timestamp:       start.UnixMilli(),
		FacultyBody:     tabular.Field(row, colFacultyBody),
		DailySummary:    tabular.Field(row, colDailySummary),
		CoverTitle:      tabular.Field(row, colCoverTitle),
		CoverTitle2:     tabular.Field(row, colCoverTitle2),
		Subtitle:        tabular.Field(row, colSubtitle),
		InitialSubtitle: tabular.Field(row, colInitialSubtitle),
	}
	if rec.Location == "" {
		rec.Location = fallbackLocation
	}
	if rec.Type == "" {
		rec.Type = fallbackType
	}
	return rec, true
}

// composeInstant builds a wall-clock instant from a DD/MM/YYYY date (dashes
// tolerated as separators) and an HH:MM time. Components that do not form a
// real calendar date are rejected rather than rolled over.
func composeInstant(dateStr, timeStr string, loc *time.Location) (time.Time, bool) {
	dateParts := strings.Split(strings.ReplaceAll(dateStr, "-", "/"), "/")
	timeParts := strings.Split(timeStr, ":")
	if len(dateParts) != 3 || len(timeParts) < 2 {
		return time.Time{}, false
	}

	day, err1 := strconv.Atoi(strings.TrimSpace(dateParts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(dateParts[1]))
	year, err3 := strconv.Atoi(strings.TrimSpace(dateParts[2]))
	hour, err4 := strconv.Atoi(strings.TrimSpace(timeParts[0]))
	minute, err5 := strconv.Atoi(strings.TrimSpace(timeParts[1]))
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return time.Time{}, false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	// time.Date normalizes out-of-range components (month 99 rolls into a
	// later year); a round-trip mismatch means the source date was invalid.
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// ParsePartners turns raw partner-directory CSV into directory entries.
// Identity is sequential per fetch; a missing name or category falls back
// to a placeholder instead of dropping the row.
func ParsePartners(text string) []model.DirectoryEntry {
	out := []model.DirectoryEntry{}
	idx := -1
	for row := range tabular.Rows(text, ',') {
		idx++
		entry := model.DirectoryEntry{
			ID:          fmt.Sprintf("partner-%d", idx),
			Name:        tabular.Field(row, colPartnerName),
			Category:    tabular.Field(row, colPartnerCategory),
			Description: tabular.Field(row, colPartnerDescription),
			WhatsApp:    tabular.Field(row, colPartnerWhatsApp),
			Instagram:   tabular.Field(row, colPartnerInstagram),
			ImageURL:    tabular.Field(row, colPartnerImageURL),
		}
		if entry.Name == "" {
			entry.Name = fallbackPartnerName
		}
		if entry.Category == "" {
			entry.Category = fallbackPartnerCategory
		}
		out = append(out, entry)
	}
	return out
}
