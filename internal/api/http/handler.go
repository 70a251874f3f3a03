package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zereker/chatbot/internal/task"
	"github.com/Zereker/chatbot/pkg/log"
)

// Response bodies
const (
	helloMessage      = "Hello from the server!"
	processingStarted = "Chatbot processing started"
	somethingBroke    = "Something broke!"
)

// Jobs is the part of task.Runner the handlers use
type Jobs interface {
	Submit(ctx context.Context, kind task.Kind) (task.Job, error)
	Latest(ctx context.Context) ([]task.Status, error)
}

// Handler handles HTTP API requests
type Handler struct {
	logger *slog.Logger
	jobs   Jobs
}

// NewHandler creates a new HTTP handler
func NewHandler(jobs Jobs) *Handler {
	return &Handler{
		logger: log.Logger("http.handler"),
		jobs:   jobs,
	}
}

// handlerFunc is an http.HandlerFunc that reports failure by returning an error
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// RegisterRoutes registers all HTTP routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api", h.wrap(h.Hello))
	r.Get("/upsert", h.wrap(h.Upsert))
	r.Get("/getanswer", h.wrap(h.GetAnswer))

	// Operations
	r.Get("/health", h.wrap(h.Health))
	r.Get("/status", h.wrap(h.Status))
}

// wrap converts a returned error into the generic 500 response
func (h *Handler) wrap(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.logger.Error("request failed",
				"method", r.Method,
				"url", r.URL.RequestURI(),
				"error", err,
				"stack", stackOf(err),
			)
			writeBroken(w)
		}
	}
}

// Hello handles GET /api
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) error {
	return h.writeJSON(w, http.StatusOK, map[string]string{"message": helloMessage})
}

// Upsert handles GET /upsert; ingestion continues after the response is sent
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) error {
	return h.submit(w, r, task.KindUpsert)
}

// GetAnswer handles GET /getanswer; the answer is only logged
func (h *Handler) GetAnswer(w http.ResponseWriter, r *http.Request) error {
	return h.submit(w, r, task.KindGetAnswer)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, kind task.Kind) error {
	job, err := h.jobs.Submit(r.Context(), kind)
	if err != nil {
		return err
	}

	h.logger.Debug("job accepted", "kind", kind, "job_id", job.ID)
	return h.writeText(w, http.StatusOK, processingStarted)
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) error {
	return h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Status handles GET /status with the latest job state per kind
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) error {
	statuses, err := h.jobs.Latest(r.Context())
	if err != nil {
		return err
	}

	out := make(map[task.Kind]task.Status, len(statuses))
	for _, s := range statuses {
		out[s.Kind] = s
	}
	return h.writeJSON(w, http.StatusOK, out)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
	return nil
}

// writeText writes a plain text response
func (h *Handler) writeText(w http.ResponseWriter, status int, text string) error {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
	return nil
}

func writeBroken(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(somethingBroke))
}
