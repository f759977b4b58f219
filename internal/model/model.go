package model

import "time"

// ScheduleRecord is one synchronized session of a course schedule.
// Sessions are point-in-time: there is no end instant, only a start.
type ScheduleRecord struct {
	// ID is derived from the course, the row position and the start
	// instant, so re-parsing an unchanged sheet yields stable identities.
	ID string `json:"id"`

	Title       string `json:"title"`
	Time        string `json:"time"` // display time as published, e.g. "19:00"
	Location    string `json:"location"`
	Description string `json:"description"`
	Speaker     string `json:"speaker,omitempty"`
	Type        string `json:"type"`

	// Timestamp is the session start in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`

	FacultyBody     string `json:"faculty_body,omitempty"`
	DailySummary    string `json:"daily_summary,omitempty"`
	CoverTitle      string `json:"cover_title,omitempty"`
	CoverTitle2     string `json:"cover_title_2,omitempty"`
	Subtitle        string `json:"subtitle,omitempty"`
	InitialSubtitle string `json:"initial_subtitle,omitempty"`
}

// StartsAt returns the session start as a time.Time.
func (r ScheduleRecord) StartsAt() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// DirectoryEntry is one company/service in the partner directory.
type DirectoryEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	WhatsApp    string `json:"whatsapp"`
	Instagram   string `json:"instagram"`
	ImageURL    string `json:"image_url"`
}

// User is the member record returned by the membership backend.
// Only ID, Name and Email are guaranteed; the rest mirrors the signup form.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname,omitempty"`
	Email   string `json:"email"`

	AreaCode string `json:"area_code,omitempty"`
	Phone    string `json:"phone,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`

	Program     string `json:"program,omitempty"`
	Profile     string `json:"profile,omitempty"`
	Company     string `json:"company,omitempty"`
	Segment     string `json:"segment,omitempty"`
	CompanySize string `json:"company_size,omitempty"`
	Stage       string `json:"stage,omitempty"`
	TeamSize    string `json:"team_size,omitempty"`
	Tenure      string `json:"tenure,omitempty"`
	Interests   string `json:"interests,omitempty"`
	Topics      string `json:"topics,omitempty"`
	Preference  string `json:"preference,omitempty"`
}

// RegistrationOptions are the named option lists used by the signup form.
// Segments, Stages and TeamSizes may be augmented from a spreadsheet scan
// on top of what the backend returns.
type RegistrationOptions struct {
	Cities       []string `json:"cities"`
	States       []string `json:"states"`
	Programs     []string `json:"programs"`
	Profiles     []string `json:"profiles"`
	Segments     []string `json:"segments"`
	CompanySizes []string `json:"company_sizes"`
	Stages       []string `json:"stages"`
	TeamSizes    []string `json:"team_sizes"`
	Tenures      []string `json:"tenures"`
	Topics       []string `json:"topics"`
	Preferences  []string `json:"preferences"`
}
