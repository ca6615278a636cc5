package handlers

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"revenue-intel/internal/models"
	"revenue-intel/internal/services"
	"github.com/starfederation/datastar-go/datastar"
)

const (
	maxTableRows = 50
	maxRawRows   = 100
)

var overviewTemplate = template.Must(template.New("overview").Parse(`
<div id="overview-content">
<div class="metric-row">
<div class="metric"><span class="metric-label">Total Revenue</span><strong>${{printf "%.0f" .Overview.TotalRevenue}}</strong></div>
<div class="metric"><span class="metric-label">Total Orders</span><strong>{{.Overview.TotalOrders}}</strong></div>
<div class="metric"><span class="metric-label">Avg Order Value</span><strong>${{printf "%.0f" .Overview.AOV}}</strong></div>
</div>
<table class="modern-table">
<thead><tr><th>Month</th><th>Revenue</th><th>Orders</th><th>AOV</th></tr></thead>
<tbody>
{{range .Monthly}}<tr>
<td>{{.Month}}</td>
<td><strong>${{printf "%.2f" .Revenue}}</strong></td>
<td>{{.Orders}}</td>
<td>${{printf "%.2f" .AOV}}</td>
</tr>{{end}}
</tbody>
</table>
</div>`))

var qualityTemplate = template.Must(template.New("quality").Parse(`
<div id="quality-content">
<div class="metric-row">
<div class="metric"><span class="metric-label">Missing Columns</span><strong>{{len .MissingColumns}}</strong></div>
<div class="metric"><span class="metric-label">Invalid Quantity</span><strong>{{.InvalidQuantity}}</strong></div>
<div class="metric"><span class="metric-label">Invalid Price</span><strong>{{.InvalidPrice}}</strong></div>
<div class="metric"><span class="metric-label">Revenue Mismatch</span><strong>{{.RevenueMismatch}}</strong></div>
<div class="metric"><span class="metric-label">Revenue Outliers</span><strong>{{.OutlierCount}}</strong></div>
</div>
{{if .OutlierSample}}<table class="modern-table">
<thead><tr><th>Order</th><th>Product</th><th>Quantity</th><th>Unit Price</th><th>Revenue</th></tr></thead>
<tbody>
{{range .OutlierSample}}<tr>
<td>{{.OrderID}}</td>
<td>{{.ProductName}}</td>
<td>{{.Quantity}}</td>
<td>${{printf "%.2f" .UnitPrice}}</td>
<td><strong>${{printf "%.2f" .Revenue}}</strong></td>
</tr>{{end}}
</tbody>
</table>{{end}}
</div>`))

var scenarioTemplate = template.Must(template.New("scenario").Parse(`
<div id="scenario-content">
<div class="metric-row">
<div class="metric"><span class="metric-label">Simulated Revenue</span><strong>${{printf "%.0f" .SimulatedRevenue}}</strong></div>
<div class="metric"><span class="metric-label">Absolute Change</span><strong>${{printf "%.0f" .AbsoluteChange}}</strong></div>
<div class="metric"><span class="metric-label">% Change</span><strong>{{printf "%.2f" .PercentageChange}}%</strong></div>
</div>
</div>`))

var rawTemplate = template.Must(template.New("raw").Parse(`
<div id="raw-content">
<table class="modern-table">
<thead><tr><th>Order</th><th>Date</th><th>Product</th><th>Category</th><th>Region</th><th>Qty</th><th>Unit Price</th><th>Revenue</th></tr></thead>
<tbody>
{{range .}}<tr>
<td>{{.OrderID}}</td>
<td>{{.OrderDate.Format "2006-01-02"}}</td>
<td>{{.ProductName}}</td>
<td><span class="category-badge">{{.Category}}</span></td>
<td>{{.Region}}</td>
<td>{{.Quantity}}</td>
<td>${{printf "%.2f" .UnitPrice}}</td>
<td><strong>${{printf "%.2f" .Revenue}}</strong></td>
</tr>{{end}}
</tbody>
</table>
</div>`))

type SSEHandlers struct {
	insights *services.Insights
	logger   *slog.Logger
}

func NewSSEHandlers(insights *services.Insights, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		insights: insights,
		logger:   logger,
	}
}

type overviewData struct {
	Overview models.OverviewMetrics
	Monthly  []models.MonthlyKPI
}

func (h *SSEHandlers) renderOverview() (string, error) {
	monthly := h.insights.MonthlyKPIs()
	if len(monthly) > maxTableRows {
		monthly = monthly[:maxTableRows]
	}

	var buf strings.Builder
	err := overviewTemplate.Execute(&buf, overviewData{
		Overview: h.insights.Overview(),
		Monthly:  monthly,
	})
	return buf.String(), err
}

func (h *SSEHandlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	html, err := h.renderOverview()
	if err != nil {
		h.logger.Error("render overview", "error", err)
		return
	}
	sse.PatchElements(html)

	jsonData, err := json.Marshal(map[string]any{
		"monthlyData": h.insights.MonthlyKPIs(),
	})
	if err != nil {
		h.logger.Error("marshal monthly data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleDataQuality(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	var buf strings.Builder
	if err := qualityTemplate.Execute(&buf, h.insights.DataQuality()); err != nil {
		h.logger.Error("render data quality", "error", err)
		return
	}
	sse.PatchElements(buf.String())

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleDrivers(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	threshold := h.insights.DefaultParetoThreshold()
	jsonData, err := json.Marshal(map[string]any{
		"driversData": h.insights.RevenueDrivers(),
		"paretoData":  h.insights.ParetoProducts(threshold),
	})
	if err != nil {
		h.logger.Error("marshal drivers data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	sse.PatchElements(`<div id="drivers-content">✅ Revenue driver data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	forecast, err := h.insights.Forecast(h.insights.DefaultForecastPeriods())
	if err != nil {
		h.logger.Error("forecast unavailable", "error", err)
		sse.PatchElements(`<div id="forecast-content">⚠️ No monthly series to forecast from</div>`)
		return
	}

	jsonData, err := json.Marshal(map[string]any{
		"forecastData": forecast,
	})
	if err != nil {
		h.logger.Error("marshal forecast data", "error", err)
		return
	}
	sse.PatchSignals(jsonData)

	sse.PatchElements(`<div id="forecast-content">✅ Forecast data loaded</div>`)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// scenarioSignals binds the dashboard's three sliders.
type scenarioSignals struct {
	Price    float64 `json:"price"`
	Volume   float64 `json:"volume"`
	Discount float64 `json:"discount"`
}

func (h *SSEHandlers) HandleScenario(w http.ResponseWriter, r *http.Request) {
	var signals scenarioSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Error("read scenario signals", "error", err)
		http.Error(w, "invalid signals", http.StatusBadRequest)
		return
	}

	sse := datastar.NewSSE(w, r)

	result := h.insights.Simulate(signals.Price, signals.Volume, signals.Discount)

	var buf strings.Builder
	if err := scenarioTemplate.Execute(&buf, result.ScenarioOutcome); err != nil {
		h.logger.Error("render scenario", "error", err)
		return
	}
	sse.PatchElements(buf.String())

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleRawData serves the dashboard's raw-data toggle with the capped sample.
func (h *SSEHandlers) HandleRawData(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	sample := h.insights.RowSample()
	if len(sample) > maxRawRows {
		sample = sample[:maxRawRows]
	}

	var buf strings.Builder
	if err := rawTemplate.Execute(&buf, sample); err != nil {
		h.logger.Error("render raw sample", "error", err)
		return
	}
	sse.PatchElements(buf.String())

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	html, err := h.renderOverview()
	if err != nil {
		h.logger.Error("render overview", "error", err)
		return
	}
	sse.PatchElements(html)

	threshold := h.insights.DefaultParetoThreshold()
	signals := map[string]any{
		"monthlyData": h.insights.MonthlyKPIs(),
		"driversData": h.insights.RevenueDrivers(),
		"paretoData":  h.insights.ParetoProducts(threshold),
	}

	if forecast, err := h.insights.Forecast(h.insights.DefaultForecastPeriods()); err == nil {
		signals["forecastData"] = forecast
	}

	allSignals, err := json.Marshal(signals)
	if err != nil {
		h.logger.Error("marshal all signals data", "error", err)
		return
	}
	sse.PatchSignals(allSignals)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
