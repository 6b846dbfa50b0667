package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public live-room API.
const DefaultBaseURL = "https://api.live.bilibili.com"

// DefaultTimeout bounds every room-info lookup.
const DefaultTimeout = 5 * time.Second

// RoomInfo is the subset of the live room payload this service needs:
// the author's uid and the room cover image.
type RoomInfo struct {
	UID   int64
	Cover string
}

// APIError is returned when the live API responds with a non-200 status
// or a non-zero application code.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("live api returned code %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("live api returned status %d", e.StatusCode)
}

// Client looks up live room metadata.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a Client for the live API at baseURL. Empty baseURL
// selects DefaultBaseURL; timeout <= 0 selects DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// RoomInfo fetches the room's author uid and cover image. The cover is
// returned without its http:// scheme prefix; the catalog stores covers
// scheme-relative.
func (c *Client) RoomInfo(ctx context.Context, roomID int64) (RoomInfo, error) {
	url := c.baseURL + "/room/v1/Room/get_info?room_id=" + strconv.FormatInt(roomID, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return RoomInfo{}, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return RoomInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RoomInfo{}, &APIError{StatusCode: resp.StatusCode}
	}

	var out struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			UID       int64  `json:"uid"`
			UserCover string `json:"user_cover"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return RoomInfo{}, err
	}
	if out.Code != 0 {
		return RoomInfo{}, &APIError{StatusCode: resp.StatusCode, Code: out.Code, Message: out.Message}
	}

	return RoomInfo{
		UID:   out.Data.UID,
		Cover: strings.TrimPrefix(out.Data.UserCover, "http://"),
	}, nil
}
