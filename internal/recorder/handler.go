package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"clip-sync/internal/platform/metrics"
)

// Handler exposes the webhook and debug HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler over the given Service, Logger, and optional
// Metrics. Metrics may be nil to disable metric recording (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// Webhook handles POST /webhook: the recorder's event stream.
// Body: { "EventType": "...", "EventData": { "SessionId": "...", ... } }.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var env Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		h.log.Debug("invalid webhook body", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid webhook body")
		return
	}

	if h.metrics != nil {
		h.metrics.IncWebhookEvents()
	}
	h.log.Debug("webhook event received",
		slog.String("event_type", env.EventType),
		slog.String("session_id", env.EventData.SessionID))

	switch env.EventType {
	case EventFileOpening:
		h.handleOpening(w, r, env.EventData)
	case EventFileClosed:
		h.handleClosed(w, r, env.EventData)
	default:
		// Recorder tools emit kinds this service does not care about;
		// acknowledge so the recorder does not redeliver.
		h.log.Info("unhandled event type", slog.String("event_type", env.EventType))
		if h.metrics != nil {
			h.metrics.IncUnhandledEvents()
		}
		writeJSON(w, http.StatusOK, map[string]any{"message": "event received but not processed"})
	}
}

func (h *Handler) handleOpening(w http.ResponseWriter, r *http.Request, ev EventData) {
	if ev.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	// The recorder aborting a delivery must not abort the catalog
	// mutation; the client timeout still bounds the call.
	ctx := context.WithoutCancel(r.Context())
	clipID, err := h.svc.HandleFileOpening(ctx, ev)
	if err != nil {
		h.log.Error("create clip failed",
			slog.String("session_id", ev.SessionID),
			slog.Int64("room_id", ev.RoomID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to create clip")
		return
	}

	h.log.Info("clip created",
		slog.String("session_id", ev.SessionID),
		slog.Int64("clip_id", clipID))
	if h.metrics != nil {
		h.metrics.IncClipsCreated()
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "clip created", "clipId": clipID})
}

func (h *Handler) handleClosed(w http.ResponseWriter, r *http.Request, ev EventData) {
	if ev.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing session id")
		return
	}

	ctx := context.WithoutCancel(r.Context())
	clipID, err := h.svc.HandleFileClosed(ctx, ev.SessionID)
	switch {
	case errors.Is(err, ErrSessionNotFound):
		h.log.Warn("no clip for session", slog.String("session_id", ev.SessionID))
		writeError(w, http.StatusNotFound, "no clip found for this session")
		return
	case err != nil:
		h.log.Error("finish clip failed",
			slog.String("session_id", ev.SessionID),
			slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "failed to update clip")
		return
	}

	h.log.Info("clip finished",
		slog.String("session_id", ev.SessionID),
		slog.Int64("clip_id", clipID))
	if h.metrics != nil {
		h.metrics.IncClipsFinished()
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "clip updated", "clipId": clipID})
}

// Sessions handles GET /sessions: a debug view of the in-flight session map.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ActiveSessions())
}

// Hello handles GET /hello.
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("hello"))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
