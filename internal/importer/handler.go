package importer

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tonica-music/catalog/internal/platform/httpx"
	"github.com/tonica-music/catalog/internal/shared"
)

// Importer runs a synchronous import.
type Importer interface {
	Import(ctx context.Context, document, actorID string) (Result, error)
}

// Enqueuer schedules an import on the background worker and returns the task id.
type Enqueuer interface {
	EnqueueImport(ctx context.Context, document, actorID string) (string, error)
}

// Request is the body of both import endpoints.
type Request struct {
	Content string `json:"nfeXmlContent" validate:"required"`
}

type enqueuedResponse struct {
	TaskID string `json:"taskId"`
	Status string `json:"status"`
}

type Handler struct {
	logger   *slog.Logger
	importer Importer
	enqueuer Enqueuer
}

// NewHandler builds the import handler. enqueuer may be nil, in which case
// the async route is not mounted.
func NewHandler(logger *slog.Logger, importer Importer, enqueuer Enqueuer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, importer: importer, enqueuer: enqueuer}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/nfe", h.Import)
	if h.enqueuer != nil {
		r.Post("/nfe/async", h.Enqueue)
	}
}

func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	// Imports run to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	result, err := h.importer.Import(ctx, req.Content, shared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	taskID, err := h.enqueuer.EnqueueImport(r.Context(), req.Content, shared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Error("enqueue import failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, enqueuedResponse{TaskID: taskID, Status: "queued"})
}
