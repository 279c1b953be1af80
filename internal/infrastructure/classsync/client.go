// Package classsync talks to the ClassSync admin API that receives pushed schedules.
package classsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/classsync/internal/domain"
)

// Slot is one period of a pushed week.
type Slot struct {
	CourseName  string `json:"courseName"`
	IsTemporary bool   `json:"isTemporary"`
	Base        string `json:"base"`
	Room        string `json:"room"`
	Address     string `json:"address"`
	IsSynced    bool   `json:"isSynced"`
}

// WeekData maps weekday ("1" Monday … "7" Sunday) to period number to slot.
type WeekData map[string]map[string]Slot

// Client calls the ClassSync admin endpoints.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether a base URL is set.
func (c *Client) Configured() bool { return c.baseURL != "" }

type lookupRequest struct {
	APIKey string `json:"apiKey"`
	Email  string `json:"email"`
}

type lookupResponse struct {
	UserID json.Number `json:"userId"`
}

// LookupUser resolves the ClassSync user number for an email address.
func (c *Client) LookupUser(ctx context.Context, email string) (string, error) {
	var out lookupResponse
	if err := c.post(ctx, "/admin/lookup-user", lookupRequest{APIKey: c.apiKey, Email: email}, &out); err != nil {
		return "", err
	}
	if out.UserID == "" {
		return "", fmt.Errorf("classsync lookup returned no user id: %w", domain.ErrNotFound)
	}
	return out.UserID.String(), nil
}

type setScheduleRequest struct {
	APIKey    string   `json:"apiKey"`
	UserID    string   `json:"userId"`
	WeekStart string   `json:"weekStart"`
	Data      WeekData `json:"data"`
}

// SetSchedule replaces one week of the user's ClassSync schedule.
func (c *Client) SetSchedule(ctx context.Context, userID, weekStart string, data WeekData) error {
	return c.post(ctx, "/admin/set-schedule", setScheduleRequest{
		APIKey:    c.apiKey,
		UserID:    userID,
		WeekStart: weekStart,
		Data:      data,
	}, nil)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	if !c.Configured() {
		return fmt.Errorf("classsync api url not set: %w", domain.ErrUnavailable)
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("classsync %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("classsync %s: status %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(out)
}
