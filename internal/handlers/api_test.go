package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"revenue-intel/internal/config"
	"revenue-intel/internal/models"
	"revenue-intel/internal/services"
)

func testInsights(t *testing.T) *services.Insights {
	t.Helper()

	s := services.NewInsights(config.AnalyticsConfig{
		ParetoThreshold: 0.8,
		ForecastPeriods: 3,
		ForestSize:      10,
		ForestSeed:      42,
		SampleRows:      100,
	})

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	s.SetData([]models.SaleRecord{
		{OrderID: "O001", OrderDate: day(2024, 1, 5), ProductName: "Laptop", Category: "Electronics", Region: "North", Quantity: 1, UnitPrice: 1200, Revenue: 1200},
		{OrderID: "O002", OrderDate: day(2024, 1, 20), ProductName: "Desk", Category: "Furniture", Region: "South", Quantity: 1, UnitPrice: 300, Revenue: 300},
		{OrderID: "O003", OrderDate: day(2024, 2, 2), ProductName: "Laptop", Category: "Electronics", Region: "East", Quantity: 2, UnitPrice: 1200, Revenue: 2400},
		{OrderID: "O004", OrderDate: day(2024, 2, 14), ProductName: "Chair", Category: "Furniture", Region: "West", Quantity: 4, UnitPrice: 80, Revenue: 320},
		{OrderID: "O005", OrderDate: day(2024, 3, 1), ProductName: "Mouse", Category: "Electronics", Region: "North", Quantity: 1, UnitPrice: 25, Revenue: 25},
	})
	return s
}

func testAPIHandlers(t *testing.T) *APIHandlers {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewAPIHandlers(testInsights(t), logger)
}

func decodeSuccess(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response["success"] != true {
		t.Errorf("success = %v, want true", response["success"])
	}
	return response
}

func TestHandleOverview(t *testing.T) {
	h := testAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/overview", nil)
	w := httptest.NewRecorder()
	h.HandleOverview(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("Cache-Control"); !strings.Contains(got, "max-age") {
		t.Errorf("Cache-Control = %q, want a max-age directive", got)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]any)
	if data["total_revenue"].(float64) != 4245 {
		t.Errorf("total_revenue = %v, want 4245", data["total_revenue"])
	}
	if data["total_orders"].(float64) != 5 {
		t.Errorf("total_orders = %v, want 5", data["total_orders"])
	}
}

func TestHandleMonthlyKPIs(t *testing.T) {
	h := testAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/monthly-kpis", nil)
	w := httptest.NewRecorder()
	h.HandleMonthlyKPIs(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	response := decodeSuccess(t, w)
	rows := response["data"].([]any)
	if len(rows) != 3 {
		t.Fatalf("expected 3 monthly rows, got %d", len(rows))
	}
	first := rows[0].(map[string]any)
	if first["order_month"] != "2024-01" {
		t.Errorf("first month = %v, want 2024-01", first["order_month"])
	}
}

func TestHandleRevenueDecomposition(t *testing.T) {
	h := testAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/revenue-decomposition", nil)
	w := httptest.NewRecorder()
	h.HandleRevenueDecomposition(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	response := decodeSuccess(t, w)
	rows := response["data"].([]any)
	if len(rows) != 2 {
		t.Fatalf("expected 2 driver rows, got %d", len(rows))
	}
	for _, raw := range rows {
		row := raw.(map[string]any)
		if row["explanation"] == "" {
			t.Errorf("row %v missing explanation", row["order_month"])
		}
	}
}

func TestHandleParetoProducts(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "default threshold", query: "", wantStatus: http.StatusOK},
		{name: "custom threshold", query: "?threshold=0.5", wantStatus: http.StatusOK},
		{name: "threshold of one", query: "?threshold=1", wantStatus: http.StatusOK},
		{name: "zero threshold", query: "?threshold=0", wantStatus: http.StatusBadRequest},
		{name: "threshold above one", query: "?threshold=1.5", wantStatus: http.StatusBadRequest},
		{name: "non-numeric threshold", query: "?threshold=abc", wantStatus: http.StatusBadRequest},
	}

	h := testAPIHandlers(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/pareto/products"+tt.query, nil)
			w := httptest.NewRecorder()
			h.HandleParetoProducts(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandleParetoProducts_Ranking(t *testing.T) {
	h := testAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/pareto/products", nil)
	w := httptest.NewRecorder()
	h.HandleParetoProducts(w, req)

	response := decodeSuccess(t, w)
	rows := response["data"].([]any)
	if len(rows) != 4 {
		t.Fatalf("expected 4 products, got %d", len(rows))
	}
	top := rows[0].(map[string]any)
	if top["name"] != "Laptop" {
		t.Errorf("top product = %v, want Laptop", top["name"])
	}
	if top["revenue"].(float64) != 3600 {
		t.Errorf("top revenue = %v, want 3600", top["revenue"])
	}
}

func TestHandleParetoCategories(t *testing.T) {
	h := testAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/pareto/categories", nil)
	w := httptest.NewRecorder()
	h.HandleParetoCategories(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	response := decodeSuccess(t, w)
	rows := response["data"].([]any)
	if len(rows) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(rows))
	}
	if rows[0].(map[string]any)["name"] != "Electronics" {
		t.Errorf("top category = %v, want Electronics", rows[0].(map[string]any)["name"])
	}
}

func TestHandleDataQuality(t *testing.T) {
	h := testAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/data-quality", nil)
	w := httptest.NewRecorder()
	h.HandleDataQuality(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]any)
	for _, key := range []string{"missing_columns", "invalid_quantity", "invalid_price", "revenue_mismatch", "outlier_count"} {
		if _, ok := data[key]; !ok {
			t.Errorf("data quality response missing %q", key)
		}
	}
}

func TestHandleRawSample(t *testing.T) {
	h := testAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/raw-sample", nil)
	w := httptest.NewRecorder()
	h.HandleRawSample(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	response := decodeSuccess(t, w)
	rows := response["data"].([]any)
	if len(rows) != 5 {
		t.Fatalf("expected all 5 rows in the sample, got %d", len(rows))
	}
}

func TestHandleForecast(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantPoints int
	}{
		{name: "default horizon", query: "", wantStatus: http.StatusOK, wantPoints: 3},
		{name: "custom horizon", query: "?periods=5", wantStatus: http.StatusOK, wantPoints: 5},
		{name: "horizon at the cap", query: "?periods=120", wantStatus: http.StatusOK, wantPoints: 120},
		{name: "zero periods", query: "?periods=0", wantStatus: http.StatusBadRequest},
		{name: "negative periods", query: "?periods=-3", wantStatus: http.StatusBadRequest},
		{name: "non-numeric periods", query: "?periods=six", wantStatus: http.StatusBadRequest},
		{name: "horizon above the cap", query: "?periods=100000", wantStatus: http.StatusBadRequest},
		{name: "absurd horizon", query: "?periods=1000000000", wantStatus: http.StatusBadRequest},
	}

	h := testAPIHandlers(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/forecast"+tt.query, nil)
			w := httptest.NewRecorder()
			h.HandleForecast(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			response := decodeSuccess(t, w)
			data := response["data"].(map[string]any)
			points := data["points"].([]any)
			if len(points) != tt.wantPoints {
				t.Errorf("expected %d forecast points, got %d", tt.wantPoints, len(points))
			}
		})
	}
}

func TestHandleForecast_EmptySeries(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	empty := services.NewInsights(config.AnalyticsConfig{
		ParetoThreshold: 0.8, ForecastPeriods: 6, ForestSize: 10, ForestSeed: 42, SampleRows: 100,
	})
	empty.SetData(nil)
	h := NewAPIHandlers(empty, logger)

	req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
	w := httptest.NewRecorder()
	h.HandleForecast(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}
	if response["success"] != false {
		t.Error("success should be false")
	}
	errObj := response["error"].(map[string]any)
	if errObj["code"] != "UNPROCESSABLE_DATASET" {
		t.Errorf("error code = %v, want UNPROCESSABLE_DATASET", errObj["code"])
	}
}

func TestHandleScenario(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantStatus  int
		wantRevenue float64
	}{
		{name: "identity", query: "", wantStatus: http.StatusOK, wantRevenue: 4245},
		{name: "price up ten", query: "?price=10", wantStatus: http.StatusOK, wantRevenue: 4245 * 1.1},
		{name: "combined", query: "?price=10&volume=-5&discount=2", wantStatus: http.StatusOK, wantRevenue: 4245 * 1.1 * 0.95 * 0.98},
		{name: "bad price", query: "?price=high", wantStatus: http.StatusBadRequest},
		{name: "bad volume", query: "?volume=low", wantStatus: http.StatusBadRequest},
		{name: "bad discount", query: "?discount=none", wantStatus: http.StatusBadRequest},
	}

	h := testAPIHandlers(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/scenario"+tt.query, nil)
			w := httptest.NewRecorder()
			h.HandleScenario(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			response := decodeSuccess(t, w)
			data := response["data"].(map[string]any)
			got := data["simulated_revenue"].(float64)
			if diff := got - tt.wantRevenue; diff > 1e-6 || diff < -1e-6 {
				t.Errorf("simulated_revenue = %v, want %v", got, tt.wantRevenue)
			}
		})
	}
}

func TestHandleScenarioBatch(t *testing.T) {
	h := testAPIHandlers(t)

	body := `[
		{"name":"optimistic","price_change":10,"volume_change":5},
		{"name":"clearance","discount":20}
	]`
	req := httptest.NewRequest(http.MethodPost, "/api/scenario/batch", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.HandleScenarioBatch(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	response := decodeSuccess(t, w)
	results := response["data"].([]any)
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	first := results[0].(map[string]any)
	if first["name"] != "optimistic" {
		t.Errorf("first result name = %v, want optimistic", first["name"])
	}
	second := results[1].(map[string]any)
	if got, want := second["simulated_revenue"].(float64), 4245*0.8; got < want-1e-6 || got > want+1e-6 {
		t.Errorf("clearance revenue = %v, want %v", got, want)
	}
}

func TestHandleScenarioBatch_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "price=10"},
		{name: "object instead of array", body: `{"price_change":10}`},
	}

	h := testAPIHandlers(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/scenario/batch", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.HandleScenarioBatch(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestHandleScenarioBatch_TooMany(t *testing.T) {
	h := testAPIHandlers(t)

	scenarios := make([]models.ScenarioInput, maxBatchScenarios+1)
	body, err := json.Marshal(scenarios)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/scenario/batch", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.HandleScenarioBatch(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	h := testAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]any)
	if data["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", data["status"])
	}
	if data["timestamp"] == "" {
		t.Error("timestamp should be set")
	}
}

func TestHandleStats(t *testing.T) {
	h := testAPIHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	response := decodeSuccess(t, w)
	data := response["data"].(map[string]any)
	if data["record_count"].(float64) != 5 {
		t.Errorf("record_count = %v, want 5", data["record_count"])
	}
	if data["months"].(float64) != 3 {
		t.Errorf("months = %v, want 3", data["months"])
	}
}
