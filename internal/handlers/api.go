package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"revenue-intel/internal/errors"
	"revenue-intel/internal/models"
	"revenue-intel/internal/observability"
	"revenue-intel/internal/services"
)

const (
	maxBatchScenarios  = 100
	maxForecastPeriods = 120
)

var cacheHeaders = map[string]string{
	"Cache-Control": "public, max-age=300",
}

type APIHandlers struct {
	insights *services.Insights
	logger   *slog.Logger
}

func NewAPIHandlers(insights *services.Insights, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		insights: insights,
		logger:   logger,
	}
}

func (h *APIHandlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.insights.Overview(), cacheHeaders)
}

func (h *APIHandlers) HandleMonthlyKPIs(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.insights.MonthlyKPIs(), cacheHeaders)
}

func (h *APIHandlers) HandleRevenueDecomposition(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.insights.RevenueDrivers(), cacheHeaders)
}

func (h *APIHandlers) HandleParetoProducts(w http.ResponseWriter, r *http.Request) {
	threshold, err := h.thresholdParam(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, h.insights.ParetoProducts(threshold), cacheHeaders)
}

func (h *APIHandlers) HandleParetoCategories(w http.ResponseWriter, r *http.Request) {
	threshold, err := h.thresholdParam(r)
	if err != nil {
		errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
		return
	}

	errors.WriteSuccessWithHeaders(w, h.insights.ParetoCategories(threshold), cacheHeaders)
}

func (h *APIHandlers) HandleDataQuality(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.insights.DataQuality(), cacheHeaders)
}

func (h *APIHandlers) HandleRawSample(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccessWithHeaders(w, h.insights.RowSample(), cacheHeaders)
}

func (h *APIHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	periods := h.insights.DefaultForecastPeriods()
	if raw := r.URL.Query().Get("periods"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxForecastPeriods {
			errors.WriteError(w, h.logger,
				errors.BadRequest("periods must be an integer between 1 and "+
					strconv.Itoa(maxForecastPeriods)), requestID)
			return
		}
		periods = parsed
	}

	forecast, err := h.insights.Forecast(periods)
	if err != nil {
		errors.WriteError(w, h.logger,
			errors.UnprocessableWrap(err, "dataset has no monthly series to forecast from"), requestID)
		return
	}

	errors.WriteSuccess(w, forecast)
}

func (h *APIHandlers) HandleScenario(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	price, err := h.percentParam(r, "price")
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	volume, err := h.percentParam(r, "volume")
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}
	discount, err := h.percentParam(r, "discount")
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	errors.WriteSuccess(w, h.insights.Simulate(price, volume, discount))
}

func (h *APIHandlers) HandleScenarioBatch(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var scenarios []models.ScenarioInput
	if err := json.NewDecoder(r.Body).Decode(&scenarios); err != nil {
		errors.WriteError(w, h.logger,
			errors.BadRequestWrap(err, "request body must be a JSON array of scenarios"), requestID)
		return
	}
	if len(scenarios) > maxBatchScenarios {
		errors.WriteError(w, h.logger,
			errors.BadRequest("too many scenarios in one batch"), requestID)
		return
	}

	errors.WriteSuccess(w, h.insights.SimulateBatch(scenarios))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.insights.Stats())
}

func (h *APIHandlers) thresholdParam(r *http.Request) (float64, error) {
	raw := r.URL.Query().Get("threshold")
	if raw == "" {
		return h.insights.DefaultParetoThreshold(), nil
	}

	threshold, err := strconv.ParseFloat(raw, 64)
	if err != nil || threshold <= 0 || threshold > 1 {
		return 0, errors.BadRequest("threshold must be a number in (0,1]")
	}
	return threshold, nil
}

func (h *APIHandlers) percentParam(r *http.Request, name string) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.BadRequest(name + " must be a number")
	}
	return value, nil
}
