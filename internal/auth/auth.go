// Package auth talks to the scripted membership backend: login, signup
// and the registration option lists. The backend is opaque; this package
// only cares about its JSON envelope.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"portalsync/internal/config"
	appLog "portalsync/internal/log"
	"portalsync/internal/model"
	"portalsync/internal/tabular"
)

// ErrRejected is returned when the backend answers but refuses the request
// (wrong credentials, duplicate signup, ...).
var ErrRejected = errors.New("rejected by membership backend")

// RawFetcher fetches one spreadsheet tab as raw text. Satisfied by
// sheets.Client.
type RawFetcher interface {
	FetchRaw(ctx context.Context, ref config.SheetRef) (string, error)
}

// Client calls the scripted backend.
type Client struct {
	httpClient *http.Client
	scriptURL  string

	// sheet scan used to augment option lists; optional.
	raw          RawFetcher
	membersSheet config.SheetRef
}

// NewClient creates an auth Client. raw may be nil to disable option-list
// augmentation.
func NewClient(scriptURL string, raw RawFetcher, membersSheet config.SheetRef) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 20 * time.Second},
		scriptURL:    scriptURL,
		raw:          raw,
		membersSheet: membersSheet,
	}
}

type envelope struct {
	Success bool                       `json:"success"`
	Message string                     `json:"message,omitempty"`
	User    *model.User                `json:"user,omitempty"`
	Options *model.RegistrationOptions `json:"options,omitempty"`
}

func (c *Client) call(ctx context.Context, params url.Values) (envelope, error) {
	var env envelope
	if c.scriptURL == "" {
		return env, errors.New("script URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.scriptURL+"?"+params.Encode(), nil)
	if err != nil {
		return env, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return env, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return env, fmt.Errorf("backend returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return env, err
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("decode backend response: %w", err)
	}
	return env, nil
}

// Login authenticates a member. The concrete credential check lives in the
// backend; a refusal surfaces as ErrRejected.
func (c *Client) Login(ctx context.Context, email, password string) (model.User, error) {
	params := url.Values{}
	params.Set("action", "login")
	params.Set("email", strings.TrimSpace(email))
	params.Set("password", password)

	env, err := c.call(ctx, params)
	if err != nil {
		return model.User{}, err
	}
	if !env.Success || env.User == nil {
		return model.User{}, fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}
	return *env.User, nil
}

// Signup registers a new member with the given form values.
func (c *Client) Signup(ctx context.Context, form url.Values) error {
	params := url.Values{}
	for k, vs := range form {
		for _, v := range vs {
			params.Add(k, v)
		}
	}
	params.Set("action", "signup")

	env, err := c.call(ctx, params)
	if err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}
	return nil
}

// GetOptions returns the registration option lists. The backend result is
// augmented with values mined from the members sheet: segments, stages and
// team sizes are living columns there, and the scripted backend's copies
// lag behind.
func (c *Client) GetOptions(ctx context.Context) (model.RegistrationOptions, error) {
	params := url.Values{}
	params.Set("action", "getOptions")

	env, err := c.call(ctx, params)
	if err != nil {
		return model.RegistrationOptions{}, err
	}
	if !env.Success || env.Options == nil {
		return model.RegistrationOptions{}, fmt.Errorf("%w: %s", ErrRejected, env.Message)
	}
	opts := *env.Options

	c.augment(ctx, &opts)
	return opts, nil
}

// augment scans the members sheet for option values. Any failure here is
// logged and ignored; the backend lists are already usable.
func (c *Client) augment(ctx context.Context, opts *model.RegistrationOptions) {
	if c.raw == nil || c.membersSheet.SheetID == "" {
		return
	}

	text, err := c.raw.FetchRaw(ctx, c.membersSheet)
	if err != nil {
		appLog.Error("option augmentation fetch failed; using backend lists", err)
		return
	}

	opts.Segments = merge(opts.Segments, ScanColumn(text, "segment", "segmento"))
	opts.Stages = merge(opts.Stages, ScanColumn(text, "stage", "estágio", "estagio"))
	opts.TeamSizes = merge(opts.TeamSizes, ScanColumn(text, "team size", "colaborador"))
}

// ScanColumn extracts the deduplicated values of the column whose header
// contains one of the candidate substrings (case-insensitive). The
// delimiter is detected per line. A column whose values are all numeric is
// taken to be a wrong-column artifact (an ID or a count sitting under a
// similar header), and the adjacent column is tried instead.
func ScanColumn(text string, candidates ...string) []string {
	lines := tabular.Lines(text)
	if len(lines) < 2 {
		return nil
	}

	header := tabular.SplitLine(lines[0], tabular.DetectDelimiter(lines[0]))
	idx := tabular.LocateColumn(header, candidates...)
	if idx < 0 {
		return nil
	}

	values := columnValues(lines[1:], idx)
	if len(values) > 0 && allNumeric(values) {
		if alt := columnValues(lines[1:], idx+1); len(alt) > 0 && !allNumeric(alt) {
			return alt
		}
	}
	return values
}

func columnValues(lines []string, idx int) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, line := range lines {
		row := tabular.SplitLine(line, tabular.DetectDelimiter(line))
		v := strings.TrimSpace(tabular.Field(row, idx))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func allNumeric(values []string) bool {
	for _, v := range values {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return false
		}
	}
	return true
}

func merge(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	out := append([]string(nil), base...)
	for _, v := range extra {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
