package products

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tonica-music/catalog/internal/masterdata/shared"
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

type stockRequest struct {
	Quantity int       `json:"quantity" validate:"gte=0"`
	Mode     StockMode `json:"mode" validate:"required,oneof=increment decrement set"`
}

type listResponse struct {
	Data  []Product `json:"data"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := shared.ListFilters{
		Page:   httpx.QueryInt(r, "page", shared.DefaultPage),
		Limit:  httpx.QueryInt(r, "limit", shared.DefaultLimit),
		Search: r.URL.Query().Get("search"),
	}.Normalize()
	items, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Product{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: items, Total: total, Page: filters.Page, Limit: filters.Limit})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Get(r.Context(), nil, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Create(r.Context(), nil, in, internalShared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Warn("create product failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var patch Patch
	if err := httpx.Bind(r, &patch); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.Update(r.Context(), nil, id, patch, internalShared.ActorFromContext(r.Context()))
	if err != nil {
		h.logger.Warn("update product failed", slog.Any("error", err), "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req stockRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	p, err := h.service.UpdateStock(r.Context(), nil, id, req.Quantity, req.Mode, internalShared.ActorFromContext(r.Context()))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), nil, id, internalShared.ActorFromContext(r.Context())); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssociateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	categoryID, err := pathID(r, "categoryID")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if _, err := h.service.Get(r.Context(), nil, id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.AssociateCategory(r.Context(), nil, id, categoryID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s", internalShared.ErrValidation, key)
	}
	return id, nil
}
