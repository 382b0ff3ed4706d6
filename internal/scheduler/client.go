package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/freshdesk/jaya-lib/internal/constants"
	pkgerrors "github.com/freshdesk/jaya-lib/pkg/errors"
	"github.com/freshdesk/jaya-lib/pkg/metrics"
	"github.com/freshdesk/jaya-lib/pkg/retry"
)

// API is the schedule service contract the timer engine consumes.
type API interface {
	FetchSchedule(ctx context.Context, jobID string) (*Schedule, error)
	BulkCreateSchedules(ctx context.Context, schedules []Schedule) error
	BulkDeleteSchedules(ctx context.Context, jobIDs []string) error
	DeleteSchedule(ctx context.Context, jobID string) error
}

type Credentials struct {
	Group  string
	APIKey string
}

// Client talks to the external schedule service over HTTP.
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
	policy     retry.Policy
}

func NewClient(baseURL string, creds Credentials) *Client {
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		httpClient: &http.Client{
			Timeout: constants.DefaultHTTPTimeout,
		},
		policy: retry.DefaultPolicy(),
	}
}

// FetchSchedule returns the pending schedule for jobID, or nil when the
// scheduler does not know the job.
func (c *Client) FetchSchedule(ctx context.Context, jobID string) (*Schedule, error) {
	var schedule *Schedule

	err := c.call(ctx, "fetch_schedule", func() error {
		u := fmt.Sprintf("%s/api/v1/schedules/%s", c.baseURL, url.PathEscape(jobID))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			schedule = nil
			return nil
		}
		if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
			return statusError(resp.StatusCode)
		}

		var s Schedule
		if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
			return fmt.Errorf("failed to decode schedule: %w", err)
		}
		schedule = &s
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrExternalService)
	}
	return schedule, nil
}

func (c *Client) BulkCreateSchedules(ctx context.Context, schedules []Schedule) error {
	if len(schedules) == 0 {
		return nil
	}
	err := c.call(ctx, "bulk_create_schedules", func() error {
		return c.post(ctx, "/api/v1/schedules/bulk-create", schedules)
	})
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrScheduleCreate)
	}
	return nil
}

// BulkDeleteSchedules removes all listed jobs. Deleting a job the
// scheduler does not know is not an error.
func (c *Client) BulkDeleteSchedules(ctx context.Context, jobIDs []string) error {
	if len(jobIDs) == 0 {
		return nil
	}
	err := c.call(ctx, "bulk_delete_schedules", func() error {
		return c.post(ctx, "/api/v1/schedules/bulk-delete", jobIDs)
	})
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrExternalService)
	}
	return nil
}

func (c *Client) DeleteSchedule(ctx context.Context, jobID string) error {
	err := c.call(ctx, "delete_schedule", func() error {
		u := fmt.Sprintf("%s/api/v1/schedules/%s", c.baseURL, url.PathEscape(jobID))
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
		if err != nil {
			return err
		}
		c.setHeaders(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return nil
		}
		if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
			return statusError(resp.StatusCode)
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrExternalService)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < constants.HTTPStatusOKMin || resp.StatusCode >= constants.HTTPStatusOKMax {
		return statusError(resp.StatusCode)
	}
	return nil
}

func (c *Client) call(ctx context.Context, operation string, fn func() error) error {
	start := time.Now()
	err := retry.Do(ctx, c.policy, fn)
	metrics.ObserveExternalCall("scheduler", operation, time.Since(start), err)
	return err
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.creds.APIKey)
	if c.creds.Group != "" {
		req.Header.Set("X-Scheduler-Group", c.creds.Group)
	}
}

func statusError(code int) error {
	err := fmt.Errorf("scheduler returned status %d", code)
	if code >= 400 && code < 500 && code != http.StatusTooManyRequests {
		return pkgerrors.Wrap(err, pkgerrors.ErrExternalService.AsFatal())
	}
	return err
}
