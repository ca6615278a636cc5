package analytics

import (
	"github.com/shopspring/decimal"

	"revenue-intel/internal/dataset"
	"revenue-intel/internal/models"
)

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// Baseline computes the whole-dataset metrics the what-if simulator starts
// from. An empty dataset yields zero metrics, including a zero average price.
func Baseline(d *dataset.Dataset) (models.BaselineMetrics, error) {
	if err := requireColumns(d, "revenue", "quantity", "unit_price"); err != nil {
		return models.BaselineMetrics{}, err
	}

	var metrics models.BaselineMetrics
	if d.Len() == 0 {
		return metrics, nil
	}

	priceSum := 0.0
	for _, row := range d.Rows() {
		metrics.TotalRevenue += row.Revenue
		metrics.TotalQuantity += row.Quantity
		priceSum += row.UnitPrice
	}
	metrics.AvgPrice = priceSum / float64(d.Len())

	return metrics, nil
}

// SimulateScenario recomputes revenue under the three multiplicative levers:
//
//	simulated = baseline * (1 + price/100) * (1 + volume/100) * (1 - discount/100)
//
// Percentages are plain numbers (+10 means +10%). The factors commute and are
// not clamped: a discount above 100% legitimately drives revenue negative.
// The arithmetic runs in decimal so the identity scenario returns the
// baseline exactly. A zero baseline yields a zero percentage change.
func SimulateScenario(baselineRevenue, priceChangePct, volumeChangePct, discountPct float64) models.ScenarioOutcome {
	baseline := decimal.NewFromFloat(baselineRevenue)

	priceFactor := one.Add(decimal.NewFromFloat(priceChangePct).Div(hundred))
	volumeFactor := one.Add(decimal.NewFromFloat(volumeChangePct).Div(hundred))
	discountFactor := one.Sub(decimal.NewFromFloat(discountPct).Div(hundred))

	simulated := baseline.Mul(priceFactor).Mul(volumeFactor).Mul(discountFactor)
	delta := simulated.Sub(baseline)

	var deltaPct decimal.Decimal
	if !baseline.IsZero() {
		deltaPct = delta.Div(baseline).Mul(hundred)
	}

	return models.ScenarioOutcome{
		SimulatedRevenue: simulated.InexactFloat64(),
		AbsoluteChange:   delta.InexactFloat64(),
		PercentageChange: deltaPct.InexactFloat64(),
	}
}

// BatchSimulation runs every scenario against the same baseline, preserving
// input order and annotating each outcome with the parameters that drove it.
func BatchSimulation(baselineRevenue float64, scenarios []models.ScenarioInput) []models.ScenarioResult {
	results := make([]models.ScenarioResult, 0, len(scenarios))
	for _, s := range scenarios {
		results = append(results, models.ScenarioResult{
			ScenarioInput: s,
			ScenarioOutcome: SimulateScenario(
				baselineRevenue,
				s.PriceChangePct,
				s.VolumeChangePct,
				s.DiscountPct,
			),
		})
	}
	return results
}
