package server

import (
	"log/slog"
	"net/http"

	"revenue-intel/internal/handlers"
	"revenue-intel/internal/services"
)

type Server struct {
	insights    *services.Insights
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(insights *services.Insights, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		insights:    insights,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(insights, logger),
		sseHandlers: handlers.NewSSEHandlers(insights, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/overview", s.apiHandlers.HandleOverview)
	s.mux.HandleFunc("GET /api/monthly-kpis", s.apiHandlers.HandleMonthlyKPIs)
	s.mux.HandleFunc("GET /api/revenue-decomposition", s.apiHandlers.HandleRevenueDecomposition)
	s.mux.HandleFunc("GET /api/pareto/products", s.apiHandlers.HandleParetoProducts)
	s.mux.HandleFunc("GET /api/pareto/categories", s.apiHandlers.HandleParetoCategories)
	s.mux.HandleFunc("GET /api/data-quality", s.apiHandlers.HandleDataQuality)
	s.mux.HandleFunc("GET /api/raw-sample", s.apiHandlers.HandleRawSample)
	s.mux.HandleFunc("GET /api/forecast", s.apiHandlers.HandleForecast)
	s.mux.HandleFunc("GET /api/scenario", s.apiHandlers.HandleScenario)
	s.mux.HandleFunc("POST /api/scenario/batch", s.apiHandlers.HandleScenarioBatch)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/overview", s.sseHandlers.HandleOverview)
	s.mux.HandleFunc("GET /sse/data-quality", s.sseHandlers.HandleDataQuality)
	s.mux.HandleFunc("GET /sse/drivers", s.sseHandlers.HandleDrivers)
	s.mux.HandleFunc("GET /sse/forecast", s.sseHandlers.HandleForecast)
	s.mux.HandleFunc("GET /sse/scenario", s.sseHandlers.HandleScenario)
	s.mux.HandleFunc("GET /sse/raw-data", s.sseHandlers.HandleRawData)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
