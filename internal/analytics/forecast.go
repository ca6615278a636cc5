package analytics

import (
	"math"
	"slices"
	"time"

	"revenue-intel/internal/dataset"
	"revenue-intel/internal/models"
)

// DefaultForecastPeriods is the standard projection horizon in months.
const DefaultForecastPeriods = 6

// Regressor is the narrow fit/predict surface the forecaster orchestrates.
// Any regression implementation can stand behind it; the bundled one is the
// seeded ForestRegressor.
type Regressor interface {
	Fit(features [][]float64, target []float64)
	Predict(features [][]float64) []float64
}

// PrepareMonthlySeries groups the dataset into a revenue-only monthly series
// and attaches the three model features: month-of-year, calendar year, and a
// zero-based trend index in chronological order.
func PrepareMonthlySeries(d *dataset.Dataset) ([]models.SeriesPoint, error) {
	if err := requireColumns(d, "order_date", "revenue"); err != nil {
		return nil, err
	}

	grouped := make(map[time.Time]float64)
	for _, row := range d.Rows() {
		month := time.Date(row.OrderDate.Year(), row.OrderDate.Month(), 1, 0, 0, 0, 0, time.UTC)
		grouped[month] += row.Revenue
	}

	series := make([]models.SeriesPoint, 0, len(grouped))
	for month, revenue := range grouped {
		series = append(series, models.SeriesPoint{
			Month:       month,
			Revenue:     revenue,
			MonthOfYear: int(month.Month()),
			Year:        month.Year(),
		})
	}

	slices.SortFunc(series, func(a, b models.SeriesPoint) int {
		return a.Month.Compare(b.Month)
	})
	for i := range series {
		series[i].Trend = i
	}

	return series, nil
}

// TrainForecastModel fits the regressor on the series and returns the
// in-sample predictions and their mean absolute error.
//
// The MAE is evaluated on the training set itself. It is a fit-quality
// diagnostic, not a held-out generalization estimate, and should not be read
// as an accuracy guarantee for future months.
func TrainForecastModel(series []models.SeriesPoint, reg Regressor) (predictions []float64, mae float64, err error) {
	if len(series) == 0 {
		return nil, 0, ErrEmptySeries
	}

	features, target := seriesFeatures(series)
	reg.Fit(features, target)

	predictions = reg.Predict(features)
	for i := range target {
		mae += math.Abs(target[i] - predictions[i])
	}
	mae /= float64(len(target))

	return predictions, mae, nil
}

// ForecastFuture extrapolates `periods` months past the last observed month,
// rolling the calendar over year boundaries and incrementing the trend index
// by one per step. Point forecasts only; no uncertainty interval.
func ForecastFuture(reg Regressor, series []models.SeriesPoint, periods int) ([]models.ForecastPoint, error) {
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}

	last := series[len(series)-1]
	future := make([]models.ForecastPoint, 0, periods)
	features := make([][]float64, 0, periods)

	for i := 1; i <= periods; i++ {
		month := last.Month.AddDate(0, i, 0)
		point := models.ForecastPoint{
			Month:       month,
			MonthOfYear: int(month.Month()),
			Year:        month.Year(),
			Trend:       last.Trend + i,
		}
		future = append(future, point)
		features = append(features, []float64{
			float64(point.MonthOfYear),
			float64(point.Year),
			float64(point.Trend),
		})
	}

	for i, revenue := range reg.Predict(features) {
		future[i].Revenue = revenue
	}

	return future, nil
}

func seriesFeatures(series []models.SeriesPoint) (features [][]float64, target []float64) {
	features = make([][]float64, len(series))
	target = make([]float64, len(series))
	for i, p := range series {
		features[i] = []float64{float64(p.MonthOfYear), float64(p.Year), float64(p.Trend)}
		target[i] = p.Revenue
	}
	return features, target
}
