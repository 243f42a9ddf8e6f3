// Package client is a typed Go client for the time-tracking REST API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/opsdeck/timetracker/internal/model"
)

// Client talks to a running tracker service. It is safe for concurrent use.
type Client struct {
	http *resty.Client
}

// New creates a client against baseURL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second)
	return &Client{http: c}
}

// APIError carries the service's error payload alongside the status code.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

type errorBody struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func apiErr(resp *resty.Response) error {
	var body errorBody
	msg := resp.String()
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Message != "" {
		msg = body.Message
	}
	return &APIError{StatusCode: resp.StatusCode(), Message: msg}
}

// StartTimer starts a timer for the user on the given task.
func (c *Client) StartTimer(ctx context.Context, userID, taskID string, description *string) (*model.TimerSnapshot, error) {
	var out model.TimerSnapshot
	body := map[string]interface{}{"taskId": taskID}
	if description != nil {
		body["description"] = *description
	}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).SetResult(&out).
		Post(fmt.Sprintf("/api/users/%s/timer/start", userID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return &out, nil
}

// PauseTimer pauses the user's running timer with a reason.
func (c *Client) PauseTimer(ctx context.Context, userID, reason string) (*model.TimerSnapshot, error) {
	var out model.TimerSnapshot
	resp, err := c.http.R().SetContext(ctx).
		SetBody(map[string]string{"reason": reason}).SetResult(&out).
		Post(fmt.Sprintf("/api/users/%s/timer/pause", userID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return &out, nil
}

// ResumeTimer resumes the user's paused timer.
func (c *Client) ResumeTimer(ctx context.Context, userID string) (*model.TimerSnapshot, error) {
	var out model.TimerSnapshot
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		Post(fmt.Sprintf("/api/users/%s/timer/resume", userID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return &out, nil
}

// StopTimer stops the user's timer and returns the committed entry.
func (c *Client) StopTimer(ctx context.Context, userID string) (*model.TimeEntry, error) {
	var out model.TimeEntry
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		Post(fmt.Sprintf("/api/users/%s/timer/stop", userID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return &out, nil
}

// GetTimer fetches the user's timer snapshot.
func (c *Client) GetTimer(ctx context.Context, userID string) (*model.TimerSnapshot, error) {
	var out model.TimerSnapshot
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		Get(fmt.Sprintf("/api/users/%s/timer", userID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return &out, nil
}

// UpsertTask creates or replaces a catalog task.
func (c *Client) UpsertTask(ctx context.Context, taskID, title string, estimatedSeconds *int64) (*model.Task, error) {
	var out model.Task
	body := map[string]interface{}{"title": title}
	if estimatedSeconds != nil {
		body["estimatedSeconds"] = *estimatedSeconds
	}
	resp, err := c.http.R().SetContext(ctx).SetBody(body).SetResult(&out).
		Put(fmt.Sprintf("/api/tasks/%s", taskID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return &out, nil
}

// ListTasks returns the task catalog.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var out struct {
		Tasks []model.Task `json:"tasks"`
	}
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/api/tasks")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return out.Tasks, nil
}

// TaskSummary fetches the aggregated view of one task.
func (c *Client) TaskSummary(ctx context.Context, taskID string) (*model.TaskTimeSummary, error) {
	var out model.TaskTimeSummary
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		Get(fmt.Sprintf("/api/tasks/%s/summary", taskID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return &out, nil
}

// ListEntries returns the user's most recent entries; limit<=0 means all.
func (c *Client) ListEntries(ctx context.Context, userID string, limit int) ([]model.TimeEntry, error) {
	var out struct {
		Entries []model.TimeEntry `json:"entries"`
	}
	req := c.http.R().SetContext(ctx).SetResult(&out)
	if limit > 0 {
		req.SetQueryParam("limit", fmt.Sprintf("%d", limit))
	}
	resp, err := req.Get(fmt.Sprintf("/api/users/%s/entries", userID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return out.Entries, nil
}

// TrackingCandidates returns the ranked task list for the user.
func (c *Client) TrackingCandidates(ctx context.Context, userID string) ([]model.TrackingCandidate, error) {
	var out struct {
		Candidates []model.TrackingCandidate `json:"candidates"`
	}
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).
		Get(fmt.Sprintf("/api/users/%s/tracking-candidates", userID))
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, apiErr(resp)
	}
	return out.Candidates, nil
}

// Health reports whether the service considers itself healthy.
func (c *Client) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/api/health")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return apiErr(resp)
	}
	return nil
}
