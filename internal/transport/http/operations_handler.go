package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "idxlens/internal/errors"
	"idxlens/internal/services"
)

// OperationsHandler starts pipeline runs and reports their progress
type OperationsHandler struct {
	service      OperationsRunner
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(service OperationsRunner, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OperationsHandler {
	return &OperationsHandler{
		service:      service,
		validate:     validator.New(),
		logger:       logger.With(slog.String("component", "operations_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the operations routes
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.StartOperation)
	r.Get("/", h.GetStatus)

	return r
}

// StartOperation handles POST /api/operations. An empty body runs the
// default scrape-and-reconstruct pipeline.
func (h *OperationsHandler) StartOperation(w http.ResponseWriter, r *http.Request) {
	var req services.OperationRequest

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
	}

	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, validationProblem(err))
		return
	}

	view, err := h.service.Start(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "operation started",
		slog.String("run_id", view.ID),
		slog.Bool("skip_scrape", req.SkipScrape))

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, view)
}

// GetStatus handles GET /api/operations
func (h *OperationsHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	running, view := h.service.Status(r.Context())

	resp := map[string]interface{}{"running": running}
	if view != nil {
		resp["run"] = view
	}

	render.JSON(w, r, resp)
}
