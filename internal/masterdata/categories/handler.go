package categories

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tonica-music/catalog/internal/platform/httpx"
	internalShared "github.com/tonica-music/catalog/internal/shared"
)

type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

type reparentRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	cats, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list categories failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if cats == nil {
		cats = []Category{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": cats})
}

func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.service.Tree(r.Context())
	if err != nil {
		h.logger.Error("category tree failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": tree})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Get(r.Context(), nil, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Create(r.Context(), nil, in)
	if err != nil {
		h.logger.Warn("create category failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, c)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in Input
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Update(r.Context(), nil, id, in)
	if err != nil {
		h.logger.Warn("update category failed", slog.Any("error", err), "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) Reparent(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req reparentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	c, err := h.service.Reparent(r.Context(), nil, id, req.ParentID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, c)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := categoryID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), nil, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func categoryID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid category id", internalShared.ErrValidation)
	}
	return id, nil
}
