package suppliers

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

type listResponse struct {
	Data  []Supplier `json:"data"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filters := shared.ListFilters{
		Page:   httpx.QueryInt(r, "page", shared.DefaultPage),
		Limit:  httpx.QueryInt(r, "limit", shared.DefaultLimit),
		Search: r.URL.Query().Get("search"),
	}.Normalize()

	suppliers, total, err := h.service.List(r.Context(), filters)
	if err != nil {
		h.logger.Error("list suppliers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if suppliers == nil {
		suppliers = []Supplier{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: suppliers, Total: total, Page: filters.Page, Limit: filters.Limit})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := supplierID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	supplier, err := h.service.Get(r.Context(), nil, id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, supplier)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), nil, in)
	if err != nil {
		h.logger.Warn("create supplier failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := supplierID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var in Input
	if err := httpx.Bind(r, &in); err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.Update(r.Context(), nil, id, in)
	if err != nil {
		h.logger.Warn("update supplier failed", slog.Any("error", err), "id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := supplierID(r)
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

func supplierID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid supplier id", internalShared.ErrValidation)
	}
	return id, nil
}
