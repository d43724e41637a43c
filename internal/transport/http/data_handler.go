// Package http holds the chi handlers for the API surface.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "idxlens/internal/errors"
)

// DataHandler serves the scraped and reconstructed data sets
type DataHandler struct {
	service      DataReader
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler
func NewDataHandler(service DataReader, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/constituents", h.GetConstituents)
	r.Get("/changes", h.GetChanges)
	r.Get("/memberships", h.GetMemberships)
	r.Get("/memberships/{month}", h.GetMembershipAt)

	return r
}

// GetConstituents handles GET /api/constituents
func (h *DataHandler) GetConstituents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	snapshot, err := h.service.GetConstituents(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get constituents",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"constituents": snapshot,
		"count":        len(snapshot),
	})
}

// GetChanges handles GET /api/changes
func (h *DataHandler) GetChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := h.service.GetChanges(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"changes": changes,
		"count":   len(changes),
	})
}

// GetMemberships handles GET /api/memberships
func (h *DataHandler) GetMemberships(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.GetMemberships(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"memberships": records,
		"count":       len(records),
	})
}

// GetMembershipAt handles GET /api/memberships/{month}
func (h *DataHandler) GetMembershipAt(w http.ResponseWriter, r *http.Request) {
	month := chi.URLParam(r, "month")

	records, err := h.service.GetMembershipAt(r.Context(), month)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"month":   month,
		"members": records,
		"count":   len(records),
	})
}
