package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "idxlens/internal/errors"
	"idxlens/internal/services"
)

// AnalyticsHandler serves rolling statistics and reshaped views
type AnalyticsHandler struct {
	service      AnalyticsProvider
	data         DataReader
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service AnalyticsProvider, data DataReader, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:      service,
		data:         data,
		validate:     validator.New(),
		logger:       logger.With(slog.String("component", "analytics_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the analytics routes
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/series", h.GetSeries)
	r.Get("/rolling-correlation", h.GetRollingCorrelation)
	r.Get("/turnover", h.GetTurnover)

	return r
}

// GetSeries handles GET /api/analytics/series
func (h *AnalyticsHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	names, err := h.service.SeriesNames(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{"series": names})
}

// GetRollingCorrelation handles GET /api/analytics/rolling-correlation.
// Query parameters: series_a, series_b (required), window (optional).
func (h *AnalyticsHandler) GetRollingCorrelation(w http.ResponseWriter, r *http.Request) {
	req := services.RollingCorrelationRequest{
		SeriesA: r.URL.Query().Get("series_a"),
		SeriesB: r.URL.Query().Get("series_b"),
	}

	if raw := r.URL.Query().Get("window"); raw != "" {
		window, err := strconv.Atoi(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("window", "must be an integer"))
			return
		}
		req.Window = window
	}

	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, validationProblem(err))
		return
	}

	points, err := h.service.RollingCorrelation(r.Context(), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"series_a": req.SeriesA,
		"series_b": req.SeriesB,
		"window":   req.Window,
		"points":   points,
		"count":    len(points),
	})
}

// GetTurnover handles GET /api/analytics/turnover
func (h *AnalyticsHandler) GetTurnover(w http.ResponseWriter, r *http.Request) {
	points, err := h.data.GetTurnover(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"turnover": points,
		"count":    len(points),
	})
}

// validationProblem maps validator errors onto the API error shape
func validationProblem(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.InvalidRequestWithError(err)
	}

	fields := make([]apierrors.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: "failed " + fe.Tag() + " validation",
		})
	}
	return apierrors.NewValidationErrors(fields)
}
