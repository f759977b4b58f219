package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CourseConfig describes one course whose schedule lives in a spreadsheet tab.
type CourseConfig struct {
	// ID is the internal category identifier (e.g. "school").
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// SheetID is the spreadsheet document ID of the published schedule.
	SheetID string `yaml:"sheet_id" json:"sheet_id"`
	// GID is the sheet tab identifier within the document.
	GID string `yaml:"gid" json:"gid"`
	// Subtitle is the fallback shown until the schedule has synced once.
	Subtitle string `yaml:"subtitle" json:"subtitle"`
}

// SheetRef points at a single spreadsheet tab.
type SheetRef struct {
	SheetID string `yaml:"sheet_id" json:"sheet_id"`
	GID     string `yaml:"gid" json:"gid"`
}

// NotifyConfig controls local reminder delivery.
type NotifyConfig struct {
	// Enabled acts as the notification permission grant. When false,
	// reminder scheduling is skipped entirely.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Icon is the path of the icon attached to delivered notifications.
	Icon string `yaml:"icon" json:"icon"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone the published schedule is expressed in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// driving the periodic background refresh. Failed refreshes are not
	// retried before the next scheduled run.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// StorePath is the SQLite snapshot database location.
	StorePath string `yaml:"store_path" json:"store_path"`

	// ScriptURL is the membership backend endpoint (login, signup, options).
	ScriptURL string `yaml:"script_url" json:"script_url"`

	// Courses lists the schedule categories to sync.
	Courses []CourseConfig `yaml:"courses" json:"courses"`

	// Partners points at the partner directory sheet.
	Partners SheetRef `yaml:"partners" json:"partners"`

	// MembersSheet is scanned to augment registration option lists.
	MembersSheet SheetRef `yaml:"members_sheet" json:"members_sheet"`

	Notify NotifyConfig `yaml:"notify" json:"notify"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "America/Sao_Paulo",
		RefreshCron: "*/30 * * * *",
		StorePath:   "./portal.db",
		Courses:     []CourseConfig{},
		Notify: NotifyConfig{
			Enabled: true,
			Icon:    "",
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "America/Sao_Paulo"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/30 * * * *"
	}
	if c.StorePath == "" {
		c.StorePath = "./portal.db"
	}
	if c.Courses == nil {
		c.Courses = []CourseConfig{}
	}
}

// Course returns the course config with the given ID, if present.
func (c *Config) Course(id string) (CourseConfig, bool) {
	for _, course := range c.Courses {
		if course.ID == id {
			return course, true
		}
	}
	return CourseConfig{}, false
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".portalsync-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}
