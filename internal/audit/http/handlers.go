package audithttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tonica-music/catalog/internal/audit"
	"github.com/tonica-music/catalog/internal/platform/httpx"
	"github.com/tonica-music/catalog/internal/shared"
)

// HistoryService defines the business contract for product history.
type HistoryService interface {
	History(ctx context.Context, filters audit.HistoryFilters) (audit.Result, error)
	ExportCSV(ctx context.Context, productID uuid.UUID) ([]byte, error)
}

// Handler serves product history requests.
type Handler struct {
	logger  *slog.Logger
	service HistoryService
}

// NewHandler builds the product log HTTP handler.
func NewHandler(logger *slog.Logger, service HistoryService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	productID, err := productID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.History(r.Context(), audit.HistoryFilters{
		ProductID: productID,
		Action:    audit.Action(r.URL.Query().Get("action")),
		Page:      httpx.QueryInt(r, "page", 1),
		PageSize:  httpx.QueryInt(r, "pageSize", 0),
	})
	if err != nil {
		h.logger.Error("product history failed", slog.Any("error", err), "product_id", productID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	productID, err := productID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	data, err := h.service.ExportCSV(r.Context(), productID)
	if err != nil {
		h.logger.Error("product history export failed", slog.Any("error", err), "product_id", productID)
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=product-%s-logs.csv", productID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func productID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid product id", shared.ErrValidation)
	}
	return id, nil
}
