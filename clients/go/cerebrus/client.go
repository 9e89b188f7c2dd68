// Package cerebrus provides a client for the Cerebrus drawing relay.
package cerebrus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultURL is the server used when none is configured.
const DefaultURL = "http://localhost:8000"

// Poll statuses reported by the server.
const (
	StatusNewMessages   = "new_messages"
	StatusNoNewMessages = "no_new_messages"
)

// Client is a Cerebrus API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// RetryDelay is how long Follow waits after a failed poll.
	RetryDelay time.Duration
}

// NewClient creates a new Cerebrus client. The HTTP timeout leaves room for
// the server's 25 second long-poll window.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 35 * time.Second},
		RetryDelay: time.Second,
	}
}

// Message is one stroke as delivered by the server.
type Message struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	Color     string `json:"color"`
	Thickness int    `json:"thickness"`
}

// DrawRequest is a stroke to post. Empty Color and zero Thickness let the
// server apply its defaults.
type DrawRequest struct {
	Path      string `json:"path"`
	Color     string `json:"color,omitempty"`
	Thickness int    `json:"thickness,omitempty"`
}

// DrawResponse is the response to a posted stroke.
type DrawResponse struct {
	Status    string `json:"status"`
	MessageID int64  `json:"message_id"`
}

// PollResponse is the response to a long poll.
type PollResponse struct {
	Status          string    `json:"status"`
	Messages        []Message `json:"messages"`
	ServerTimestamp int64     `json:"server_timestamp"`
}

// RoomStatus describes a live room on the server.
type RoomStatus struct {
	RoomID  string `json:"room_id"`
	Queued  int    `json:"queued"`
	LastID  int64  `json:"last_id"`
	Waiters int    `json:"waiters"`
}

// RoomsResponse lists live rooms.
type RoomsResponse struct {
	Rooms []RoomStatus `json:"rooms"`
	Total int          `json:"total"`
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cerebrus error %d: %s", e.StatusCode, e.Message)
}

// doRequest performs an HTTP request and decodes a JSON response into out.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(respBody, out)
}

// Draw posts a stroke to a room.
func (c *Client) Draw(ctx context.Context, roomID string, stroke DrawRequest) (*DrawResponse, error) {
	var resp DrawResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/draw/"+url.PathEscape(roomID), stroke, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Poll waits for strokes newer than lastID. It blocks until the server
// answers, at most the server's poll timeout.
func (c *Client) Poll(ctx context.Context, roomID string, lastID int64) (*PollResponse, error) {
	path := "/api/poll/" + url.PathEscape(roomID) + "/" + strconv.FormatInt(lastID, 10)
	var resp PollResponse
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Follow long-polls a room until ctx is cancelled, calling fn for every new
// stroke in order. The watermark starts at lastID and advances to the
// highest id delivered. Timed-out polls are re-issued immediately; failed
// polls are retried after RetryDelay. Follow returns ctx.Err() or the
// first error returned by fn.
func (c *Client) Follow(ctx context.Context, roomID string, lastID int64, fn func(Message) error) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := c.Poll(ctx, roomID, lastID)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.RetryDelay):
			}
			continue
		}

		for _, m := range resp.Messages {
			if m.ID <= lastID {
				continue
			}
			if err := fn(m); err != nil {
				return err
			}
			lastID = m.ID
		}
	}
}

// Rooms lists the rooms live on the server.
func (c *Client) Rooms(ctx context.Context) (*RoomsResponse, error) {
	var resp RoomsResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/rooms", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health returns the server's health report.
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	var resp map[string]interface{}
	if err := c.doRequest(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}
