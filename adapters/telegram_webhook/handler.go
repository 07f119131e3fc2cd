package telegram_webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	sentry "github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// MaxBodyBytes caps how much of an inbound update is read.
const MaxBodyBytes = 1 << 20

// UpdateDispatcher handles one raw update body.
type UpdateDispatcher interface {
	Dispatch(ctx context.Context, body []byte, logger *slog.Logger) error
}

// Handler receives Telegram webhook deliveries. It always answers 200 OK so
// Telegram never redelivers an update because of a local failure.
type Handler struct {
	dispatcher UpdateDispatcher
	logger     *slog.Logger
}

// New creates a webhook handler.
func New(dispatcher UpdateDispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// NewRouter mounts the handler at path and adds a health endpoint.
func NewRouter(h *Handler, path string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Get("/healthz", healthz)
	r.Post(path, h.ServeHTTP)

	return r
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.process(r)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handler) process(r *http.Request) {
	logger := h.logger.With("delivery_id", uuid.NewString())
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		logger = logger.With("request_id", reqID)
	}

	hub := sentry.CurrentHub().Clone()
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("error processing update", "error", fmt.Sprint(rec), "stack", string(debug.Stack()))
			hub.Recover(rec)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
	if err != nil {
		logger.Error("read update body", "error", err)
		hub.CaptureException(err)
		return
	}

	// Processing runs to completion even if Telegram drops the connection.
	ctx := context.WithoutCancel(r.Context())
	if err := h.dispatcher.Dispatch(ctx, body, logger); err != nil {
		hub.CaptureException(err)
	}
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
