package services

import (
	"context"
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"revenue-intel/internal/analytics"
	"revenue-intel/internal/config"
	"revenue-intel/internal/dataset"
	"revenue-intel/internal/models"
	"revenue-intel/internal/observability"
)

const (
	cacheVersion = "v1"
	cacheDir     = ".cache"

	outlierSampleCap = 50
)

// Precomputed is every derived table the dashboard serves, computed once per
// dataset and read under RLock afterwards. It is the gob cache payload.
type Precomputed struct {
	Report           models.ValidationReport  `json:"validation_report"`
	OutlierSample    []models.SaleRecord      `json:"outlier_sample"`
	RowSample        []models.SaleRecord      `json:"row_sample"`
	MonthlyKPIs      []models.MonthlyKPI      `json:"monthly_kpis"`
	Drivers          []models.RevenueDriver   `json:"drivers"`
	ParetoProducts   []models.ParetoRow       `json:"pareto_products"`
	ParetoCategories []models.ParetoRow       `json:"pareto_categories"`
	Series           []models.SeriesPoint     `json:"series"`
	ForecastMAE      float64                  `json:"forecast_mae"`
	Forecast         []models.ForecastPoint   `json:"forecast"`
	Overview         models.OverviewMetrics   `json:"overview"`
	Baseline         models.BaselineMetrics   `json:"baseline"`
	LastModified     time.Time                `json:"last_modified"`
	RecordCount      int64                    `json:"record_count"`
}

// Insights owns the loaded dataset and its precomputed analytics. It is the
// explicit memoized load-once handle components read from: every accessor
// serves precomputed results, and only threshold re-flagging, horizon
// retraining, and scenario math run per request.
type Insights struct {
	mu          sync.RWMutex
	precomputed *Precomputed
	csvPath     string
	cfg         config.AnalyticsConfig
	logger      *slog.Logger
}

func NewInsights(cfg config.AnalyticsConfig) *Insights {
	return &Insights{
		precomputed: &Precomputed{},
		cfg:         cfg,
		logger:      slog.Default(),
	}
}

// SetData replaces the dataset from in-memory records and recomputes. Used by
// tests and embedded callers; LoadFromCSV is the production path.
func (s *Insights) SetData(records []models.SaleRecord) {
	d := dataset.FromRecords(records)

	precomputed := s.compute(context.Background(), d)

	s.mu.Lock()
	s.precomputed = precomputed
	s.mu.Unlock()
}

// LoadFromCSV loads the dataset, preferring a fresh gob snapshot of the
// precomputed block over a full reload, exactly one recompute per dataset
// swap.
func (s *Insights) LoadFromCSV(ctx context.Context, filename string) error {
	s.csvPath = filename

	if cached, err := s.loadFromCache(filename); err == nil {
		fileInfo, err := os.Stat(filename)
		if err == nil && fileInfo.ModTime().Before(cached.LastModified) {
			s.mu.Lock()
			s.precomputed = cached
			s.mu.Unlock()
			s.logger.Info("loaded from cache", "records", cached.RecordCount)
			return nil
		}
	}

	start := time.Now()

	d, err := dataset.NewLoader(s.logger).Load(ctx, filename)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	precomputed := s.compute(ctx, d)

	s.mu.Lock()
	s.precomputed = precomputed
	s.mu.Unlock()

	if err := s.saveToCache(filename); err != nil {
		s.logger.Warn("failed to save cache", "error", err)
	}

	s.logger.Info("analytics precompute complete",
		"records", precomputed.RecordCount,
		"months", len(precomputed.MonthlyKPIs),
		"duration", time.Since(start))

	return nil
}

// compute runs every engine over the dataset. Engine errors here mean the
// dataset cannot serve that derived table; the table stays empty and the
// validation report carries the explanation (missing columns).
func (s *Insights) compute(ctx context.Context, d *dataset.Dataset) *Precomputed {
	_, span := observability.StartSpan(ctx, "insights.compute")
	defer span.Finish()
	span.SetTag("records", fmt.Sprintf("%d", d.Len()))

	p := &Precomputed{
		RecordCount:  int64(d.Len()),
		LastModified: time.Now(),
	}

	p.Report = analytics.RunFullValidation(d)
	p.OutlierSample = sampleRows(d, p.Report.Outliers, outlierSampleCap)
	p.RowSample = headRows(d, s.cfg.SampleRows)

	monthly, err := analytics.MonthlyKPIs(d)
	if err != nil {
		s.logger.Warn("monthly kpis unavailable", "error", err)
	} else {
		p.MonthlyKPIs = monthly
		p.Drivers = explainDecomposition(analytics.RevenueDecomposition(monthly))

		var totalRevenue float64
		orders := make(map[string]struct{}, d.Len())
		for _, row := range d.Rows() {
			totalRevenue += row.Revenue
			orders[row.OrderID] = struct{}{}
		}
		p.Overview = models.OverviewMetrics{
			TotalRevenue: totalRevenue,
			TotalOrders:  len(orders),
		}
		if len(orders) > 0 {
			p.Overview.AOV = totalRevenue / float64(len(orders))
		}
	}

	if products, err := analytics.ParetoProducts(d, s.cfg.ParetoThreshold); err != nil {
		s.logger.Warn("product pareto unavailable", "error", err)
	} else {
		p.ParetoProducts = products
	}

	if categories, err := analytics.ParetoCategories(d, s.cfg.ParetoThreshold); err != nil {
		s.logger.Warn("category pareto unavailable", "error", err)
	} else {
		p.ParetoCategories = categories
	}

	if baseline, err := analytics.Baseline(d); err != nil {
		s.logger.Warn("baseline metrics unavailable", "error", err)
	} else {
		p.Baseline = baseline
	}

	if series, err := analytics.PrepareMonthlySeries(d); err != nil {
		s.logger.Warn("monthly series unavailable", "error", err)
	} else {
		p.Series = series
		forecast, mae, err := s.trainAndForecast(series, s.cfg.ForecastPeriods)
		if err != nil {
			s.logger.Warn("forecast unavailable", "error", err)
		} else {
			p.Forecast = forecast
			p.ForecastMAE = mae
		}
	}

	return p
}

// trainAndForecast fits a fresh seeded forest and projects the horizon. The
// reported MAE is in-sample: a fit diagnostic, not a generalization estimate.
func (s *Insights) trainAndForecast(series []models.SeriesPoint, periods int) ([]models.ForecastPoint, float64, error) {
	reg := analytics.NewForestRegressor(s.cfg.ForestSize, s.cfg.ForestSeed)

	_, mae, err := analytics.TrainForecastModel(series, reg)
	if err != nil {
		return nil, 0, err
	}

	forecast, err := analytics.ForecastFuture(reg, series, periods)
	if err != nil {
		return nil, 0, err
	}
	return forecast, mae, nil
}

func explainDecomposition(rows []models.DecompositionRow) []models.RevenueDriver {
	drivers := make([]models.RevenueDriver, len(rows))
	for i, row := range rows {
		drivers[i] = models.RevenueDriver{
			DecompositionRow: row,
			Explanation:      analytics.InterpretRevenueChange(row),
		}
	}
	return drivers
}

func sampleRows(d *dataset.Dataset, indices []int, limit int) []models.SaleRecord {
	sample := make([]models.SaleRecord, 0, min(len(indices), limit))
	for _, i := range indices {
		if len(sample) >= limit {
			break
		}
		sample = append(sample, d.Row(i))
	}
	return sample
}

func headRows(d *dataset.Dataset, limit int) []models.SaleRecord {
	n := min(d.Len(), limit)
	sample := make([]models.SaleRecord, n)
	copy(sample, d.Rows()[:n])
	return sample
}

// Query methods: precomputed lookups under RLock.

func (s *Insights) Overview() models.OverviewMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.precomputed.Overview
}

func (s *Insights) MonthlyKPIs() []models.MonthlyKPI {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.precomputed.MonthlyKPIs
}

func (s *Insights) RevenueDrivers() []models.RevenueDriver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.precomputed.Drivers
}

// DataQuality returns the validation report plus capped row samples resolved
// from the report's index sets.
func (s *Insights) DataQuality() DataQualityView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return DataQualityView{
		MissingColumns:  s.precomputed.Report.MissingColumns,
		InvalidQuantity: len(s.precomputed.Report.BusinessRules.InvalidQuantity),
		InvalidPrice:    len(s.precomputed.Report.BusinessRules.InvalidPrice),
		RevenueMismatch: len(s.precomputed.Report.BusinessRules.RevenueMismatch),
		OutlierCount:    len(s.precomputed.Report.Outliers),
		OutlierSample:   s.precomputed.OutlierSample,
	}
}

type DataQualityView struct {
	MissingColumns  []string            `json:"missing_columns"`
	InvalidQuantity int                 `json:"invalid_quantity"`
	InvalidPrice    int                 `json:"invalid_price"`
	RevenueMismatch int                 `json:"revenue_mismatch"`
	OutlierCount    int                 `json:"outlier_count"`
	OutlierSample   []models.SaleRecord `json:"outlier_sample"`
}

// RowSample serves the dashboard's raw-data toggle.
func (s *Insights) RowSample() []models.SaleRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.precomputed.RowSample
}

// ParetoProducts re-flags the cached ranking when the caller's threshold
// differs from the configured one; shares never change with the threshold.
func (s *Insights) ParetoProducts(threshold float64) []models.ParetoRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if threshold == s.cfg.ParetoThreshold {
		return s.precomputed.ParetoProducts
	}
	return analytics.ReflagPareto(s.precomputed.ParetoProducts, threshold)
}

func (s *Insights) ParetoCategories(threshold float64) []models.ParetoRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if threshold == s.cfg.ParetoThreshold {
		return s.precomputed.ParetoCategories
	}
	return analytics.ReflagPareto(s.precomputed.ParetoCategories, threshold)
}

func (s *Insights) DefaultParetoThreshold() float64 {
	return s.cfg.ParetoThreshold
}

func (s *Insights) DefaultForecastPeriods() int {
	return s.cfg.ForecastPeriods
}

type ForecastView struct {
	MAE    float64                `json:"mae"`
	Points []models.ForecastPoint `json:"points"`
}

// Forecast serves the default horizon from the precompute; a custom horizon
// retrains a fresh seeded model from the cached series. Identical inputs give
// identical projections either way.
func (s *Insights) Forecast(periods int) (ForecastView, error) {
	s.mu.RLock()
	series := s.precomputed.Series
	cached := ForecastView{MAE: s.precomputed.ForecastMAE, Points: s.precomputed.Forecast}
	s.mu.RUnlock()

	if len(series) == 0 {
		return ForecastView{}, analytics.ErrEmptySeries
	}

	if periods == s.cfg.ForecastPeriods && len(cached.Points) > 0 {
		return cached, nil
	}

	points, mae, err := s.trainAndForecast(series, periods)
	if err != nil {
		return ForecastView{}, err
	}
	return ForecastView{MAE: mae, Points: points}, nil
}

func (s *Insights) Baseline() models.BaselineMetrics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.precomputed.Baseline
}

// Simulate runs one what-if against the precomputed baseline revenue.
func (s *Insights) Simulate(priceChangePct, volumeChangePct, discountPct float64) models.ScenarioResult {
	baseline := s.Baseline()

	return models.ScenarioResult{
		ScenarioInput: models.ScenarioInput{
			PriceChangePct:  priceChangePct,
			VolumeChangePct: volumeChangePct,
			DiscountPct:     discountPct,
		},
		ScenarioOutcome: analytics.SimulateScenario(
			baseline.TotalRevenue, priceChangePct, volumeChangePct, discountPct),
	}
}

// SimulateBatch preserves scenario order and annotates each result.
func (s *Insights) SimulateBatch(scenarios []models.ScenarioInput) []models.ScenarioResult {
	return analytics.BatchSimulation(s.Baseline().TotalRevenue, scenarios)
}

// Cache management

func (s *Insights) getCacheFilename(csvPath string) string {
	return fmt.Sprintf("%s/%s_%s.gob", cacheDir, strings.ReplaceAll(csvPath, "/", "_"), cacheVersion)
}

func (s *Insights) saveToCache(csvPath string) error {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return err
	}

	file, err := os.Create(s.getCacheFilename(csvPath))
	if err != nil {
		return err
	}
	defer file.Close()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return gob.NewEncoder(file).Encode(s.precomputed)
}

func (s *Insights) loadFromCache(csvPath string) (*Precomputed, error) {
	file, err := os.Open(s.getCacheFilename(csvPath))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data Precomputed
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, err
	}

	return &data, nil
}

// Stats feeds the admin endpoint.
func (s *Insights) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"record_count":   s.precomputed.RecordCount,
		"last_processed": s.precomputed.LastModified,
		"months":         len(s.precomputed.MonthlyKPIs),
		"products":       len(s.precomputed.ParetoProducts),
		"categories":     len(s.precomputed.ParetoCategories),
		"outliers":       len(s.precomputed.Report.Outliers),
		"forecast_points": len(s.precomputed.Forecast),
	}
}
