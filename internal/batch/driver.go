// Package batch triggers pipeline passes on a running server, one category at a time.
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pcsite/backend/internal/domain"
	"github.com/pcsite/backend/internal/logging"
)

// Kinds accepted by the server's task endpoints
var validKinds = map[string]bool{"sync": true, "benchmarks": true, "enrich": true}

// Config controls a batch run
type Config struct {
	Server     string
	Kind       string
	Categories []domain.Category
	Pause      time.Duration
	// Wait polls each task until it finishes before moving to the next category
	Wait         bool
	PollInterval time.Duration
	HTTPClient   *http.Client
}

// Outcome is what happened to one category
type Outcome struct {
	Category domain.Category `json:"category"`
	TaskID   string          `json:"taskId,omitempty"`
	Status   string          `json:"status"`
	Error    string          `json:"error,omitempty"`
}

// Summary collects the outcome of every category in run order
type Summary struct {
	Kind     string    `json:"kind"`
	Outcomes []Outcome `json:"outcomes"`
	Failed   int       `json:"failed"`
}

type task struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
}

// Driver posts one task per category and optionally waits for each to finish
type Driver struct {
	cfg    Config
	client *http.Client
}

// NewDriver validates cfg and creates a driver
func NewDriver(cfg Config) (*Driver, error) {
	if cfg.Server == "" {
		return nil, fmt.Errorf("%w: server url is required", domain.ErrInvalidRequest)
	}
	if !validKinds[cfg.Kind] {
		return nil, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidRequest, cfg.Kind)
	}
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("%w: no categories", domain.ErrInvalidRequest)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	cfg.Server = strings.TrimRight(cfg.Server, "/")

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Driver{cfg: cfg, client: client}, nil
}

// Run walks the categories in order. A failed category is logged and the run continues.
// The returned error is non-nil only when ctx ends the run early.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	log := logging.FromContext(ctx)
	summary := &Summary{Kind: d.cfg.Kind, Outcomes: make([]Outcome, 0, len(d.cfg.Categories))}

	for i, category := range d.cfg.Categories {
		if i > 0 && d.cfg.Pause > 0 {
			if err := sleep(ctx, d.cfg.Pause); err != nil {
				return summary, err
			}
		}

		outcome := d.runOne(ctx, category)
		summary.Outcomes = append(summary.Outcomes, outcome)
		if outcome.Error != "" {
			summary.Failed++
			log.Error().
				Str("category", string(category)).
				Str("task_id", outcome.TaskID).
				Str("status", outcome.Status).
				Str("error", outcome.Error).
				Msg("batch category failed")
		} else {
			log.Info().
				Str("category", string(category)).
				Str("task_id", outcome.TaskID).
				Str("status", outcome.Status).
				Msg("batch category done")
		}

		if err := ctx.Err(); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (d *Driver) runOne(ctx context.Context, category domain.Category) Outcome {
	outcome := Outcome{Category: category}

	started, err := d.start(ctx, category)
	if err != nil {
		outcome.Status = "error"
		outcome.Error = err.Error()
		return outcome
	}
	outcome.TaskID = started.ID
	outcome.Status = started.Status

	if d.cfg.Wait {
		finished, err := d.wait(ctx, started.ID)
		if err != nil {
			outcome.Error = err.Error()
			return outcome
		}
		outcome.Status = finished.Status
		if finished.Status != "succeeded" {
			outcome.Error = finished.Error
			if outcome.Error == "" {
				outcome.Error = "task " + finished.Status
			}
		}
	}
	return outcome
}

func (d *Driver) start(ctx context.Context, category domain.Category) (*task, error) {
	url := fmt.Sprintf("%s/api/v1/%s/%s", d.cfg.Server, d.cfg.Kind, category)
	var t task
	if err := d.do(ctx, http.MethodPost, url, http.StatusAccepted, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (d *Driver) wait(ctx context.Context, id string) (*task, error) {
	url := fmt.Sprintf("%s/api/v1/tasks/%s", d.cfg.Server, id)
	for {
		var t task
		if err := d.do(ctx, http.MethodGet, url, http.StatusOK, &t); err != nil {
			return nil, err
		}
		if t.Status != "running" {
			return &t, nil
		}
		if err := sleep(ctx, d.cfg.PollInterval); err != nil {
			return nil, err
		}
	}
}

func (d *Driver) do(ctx context.Context, method, url string, want int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if id := logging.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", domain.ErrCollaboratorFailure, method, url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrCollaboratorFailure, err)
	}
	if resp.StatusCode != want {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%w: status %d: %s", domain.ErrCollaboratorFailure, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("%w: status %d", domain.ErrCollaboratorFailure, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrCollaboratorFailure, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParseCategories splits a comma-separated list and validates every entry
func ParseCategories(list string) ([]domain.Category, error) {
	var out []domain.Category
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		category, err := domain.ParseCategory(part)
		if err != nil {
			return nil, err
		}
		out = append(out, category)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no categories", domain.ErrInvalidRequest)
	}
	return out, nil
}
