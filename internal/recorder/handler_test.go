package recorder

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestHandler(t *testing.T) (*Handler, *fakeCatalog, *fakeRooms) {
	t.Helper()
	svc, _, cat, rooms := newTestService()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewHandler(svc, log, nil), cat, rooms
}

func newTestRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/hello", h.Hello)
	r.Get("/sessions", h.Sessions)
	r.Post("/webhook", h.Webhook)
	return r
}

func postEvent(t *testing.T, r http.Handler, eventType, sessionID string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(Envelope{
		EventType: eventType,
		EventData: EventData{
			SessionID:    sessionID,
			RoomID:       555,
			RelativePath: "/rec/stream_title.flv",
			FileOpenTime: "2024-05-01T20:30:00+08:00",
		},
	})
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandler_Webhook_opening(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := newTestRouter(h)

	rec := postEvent(t, r, EventFileOpening, "s1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not json: %v", err)
	}
	if resp["clipId"] == nil {
		t.Errorf("expected clipId in response, got %v", resp)
	}
}

func TestHandler_Webhook_open_then_close(t *testing.T) {
	h, cat, _ := newTestHandler(t)
	r := newTestRouter(h)

	if rec := postEvent(t, r, EventFileOpening, "s1"); rec.Code != http.StatusOK {
		t.Fatalf("open: expected 200, got %d", rec.Code)
	}
	if rec := postEvent(t, r, EventFileClosed, "s1"); rec.Code != http.StatusOK {
		t.Fatalf("close: expected 200, got %d", rec.Code)
	}
	if cat.createCalls != 1 || cat.updateCalls != 1 {
		t.Errorf("expected one create and one update, got %d/%d", cat.createCalls, cat.updateCalls)
	}
}

func TestHandler_Webhook_close_without_open(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := newTestRouter(h)

	rec := postEvent(t, r, EventFileClosed, "never-opened")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("error")) {
		t.Errorf("expected error body, got %s", rec.Body.String())
	}
}

func TestHandler_Webhook_unknown_kind_is_benign(t *testing.T) {
	h, cat, _ := newTestHandler(t)
	r := newTestRouter(h)

	rec := postEvent(t, r, "FileRenamed", "s1")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for unknown kind, got %d", rec.Code)
	}
	if cat.createCalls != 0 || cat.updateCalls != 0 {
		t.Error("unknown kind must not touch the catalog")
	}
}

func TestHandler_Webhook_bad_json(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestHandler_Webhook_missing_session_id(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := newTestRouter(h)

	for _, kind := range []string{EventFileOpening, EventFileClosed} {
		rec := postEvent(t, r, kind, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s without session id: expected 400, got %d", kind, rec.Code)
		}
	}
}

func TestHandler_Webhook_resolver_failure(t *testing.T) {
	h, _, rooms := newTestHandler(t)
	r := newTestRouter(h)

	rooms.err = errors.New("room lookup down")
	rec := postEvent(t, r, EventFileOpening, "s1")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestHandler_Webhook_catalog_failure_on_close(t *testing.T) {
	h, cat, _ := newTestHandler(t)
	r := newTestRouter(h)

	if rec := postEvent(t, r, EventFileOpening, "s1"); rec.Code != http.StatusOK {
		t.Fatalf("open: expected 200, got %d", rec.Code)
	}

	cat.updateErr = errors.New("catalog down")
	if rec := postEvent(t, r, EventFileClosed, "s1"); rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}

	// Redelivery succeeds once the catalog recovers.
	cat.updateErr = nil
	if rec := postEvent(t, r, EventFileClosed, "s1"); rec.Code != http.StatusOK {
		t.Errorf("retried close: expected 200, got %d", rec.Code)
	}
}

func TestHandler_Hello(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/hello", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
		t.Errorf("expected 200 hello, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandler_Sessions(t *testing.T) {
	h, _, _ := newTestHandler(t)
	r := newTestRouter(h)

	if rec := postEvent(t, r, EventFileOpening, "s1"); rec.Code != http.StatusOK {
		t.Fatalf("open: expected 200, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var sessions []SessionRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("response not json: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != SessionID("s1") {
		t.Errorf("expected [s1], got %+v", sessions)
	}
}
