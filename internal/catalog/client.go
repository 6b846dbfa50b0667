package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Clip type codes used by the catalog service.
const (
	// ClipTypeFinished marks a clip whose recording has ended.
	ClipTypeFinished = 3
	// ClipTypeRecording marks a clip whose recording is still in progress.
	ClipTypeRecording = 4
)

// DefaultTimeout bounds every catalog call.
const DefaultTimeout = 10 * time.Second

// APIError is returned when the catalog responds with a non-2xx status.
type APIError struct {
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog returned status %d", e.StatusCode)
}

// ClipDraft is the creation payload for a new clip.
type ClipDraft struct {
	AuthorID int64  `json:"authorId"`
	Title    string `json:"title"`
	Datetime string `json:"datetime"`
	Cover    string `json:"cover"`
	Type     int    `json:"type"`
}

// ClipRecord is a clip as stored by the catalog. The catalog owns the
// schema; carrying the record as a map lets fields this service does not
// know about round-trip through an update unchanged.
type ClipRecord map[string]any

// Client talks to the clip catalog's HTTP API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient returns a Client for the catalog at baseURL. The bearer token
// may be empty if the catalog does not require auth. If timeout <= 0,
// DefaultTimeout is used.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// CreateClip registers a new clip and returns the id assigned by the catalog.
func (c *Client) CreateClip(ctx context.Context, draft ClipDraft) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/clips", draft, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// Clip fetches the full clip record for id.
func (c *Client) Clip(ctx context.Context, id int64) (ClipRecord, error) {
	var out ClipRecord
	if err := c.do(ctx, http.MethodGet, "/api/clips/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateClip replaces the clip record for id. The catalog rejects bodies
// that carry an id field; the caller must strip it first.
func (c *Client) UpdateClip(ctx context.Context, id int64, clip ClipRecord) error {
	return c.do(ctx, http.MethodPut, "/api/clips/"+strconv.FormatInt(id, 10), clip, nil)
}

// AuthorByUID resolves a streaming-platform uid to the catalog's author key.
func (c *Client) AuthorByUID(ctx context.Context, uid int64) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/authorsUid?uid="+strconv.FormatInt(uid, 10), nil, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
