package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_RoomInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/room/v1/Room/get_info" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("room_id") != "555" {
			t.Errorf("unexpected room_id: %s", r.URL.Query().Get("room_id"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"code":    0,
			"message": "0",
			"data": map[string]any{
				"uid":        12345,
				"user_cover": "http://i0.example.com/cover.jpg",
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	info, err := c.RoomInfo(context.Background(), 555)
	if err != nil {
		t.Fatalf("RoomInfo: %v", err)
	}
	if info.UID != 12345 {
		t.Errorf("uid: got %d", info.UID)
	}
	if info.Cover != "i0.example.com/cover.jpg" {
		t.Errorf("expected http:// prefix stripped, got %q", info.Cover)
	}
}

func TestClient_RoomInfo_https_cover_untouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"uid": 1, "user_cover": "https://i0.example.com/cover.jpg"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	info, err := c.RoomInfo(context.Background(), 1)
	if err != nil {
		t.Fatalf("RoomInfo: %v", err)
	}
	if info.Cover != "https://i0.example.com/cover.jpg" {
		t.Errorf("https cover must pass through, got %q", info.Cover)
	}
}

func TestClient_RoomInfo_api_code_error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 60004, "message": "room not exists"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.RoomInfo(context.Background(), 999)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Code != 60004 {
		t.Errorf("expected code 60004, got %d", apiErr.Code)
	}
}

func TestClient_RoomInfo_http_error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.RoomInfo(context.Background(), 1)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", apiErr.StatusCode)
	}
}

func TestNewClient_defaults(t *testing.T) {
	c := NewClient("", 0)
	if c.baseURL != DefaultBaseURL {
		t.Errorf("expected default base url, got %q", c.baseURL)
	}
	if c.client.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", c.client.Timeout)
	}
}
