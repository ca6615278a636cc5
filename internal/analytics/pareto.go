package analytics

import (
	"slices"

	"revenue-intel/internal/dataset"
	"revenue-intel/internal/models"
)

// DefaultParetoThreshold is the canonical 80/20 cutoff.
const DefaultParetoThreshold = 0.8

// ParetoProducts ranks products by revenue contribution and flags the prefix
// whose cumulative share stays within the threshold.
func ParetoProducts(d *dataset.Dataset, threshold float64) ([]models.ParetoRow, error) {
	if err := requireColumns(d, "product_name", "revenue"); err != nil {
		return nil, err
	}
	return paretoBy(d, threshold, func(r models.SaleRecord) string { return r.ProductName })
}

// ParetoCategories ranks categories the same way.
func ParetoCategories(d *dataset.Dataset, threshold float64) ([]models.ParetoRow, error) {
	if err := requireColumns(d, "category", "revenue"); err != nil {
		return nil, err
	}
	return paretoBy(d, threshold, func(r models.SaleRecord) string { return r.Category })
}

// ReflagPareto recomputes the pareto flags of an already-ranked table against
// a different threshold. Shares are untouched; only the cutoff moves.
func ReflagPareto(rows []models.ParetoRow, threshold float64) []models.ParetoRow {
	out := slices.Clone(rows)
	for i := range out {
		out[i].ParetoFlag = out[i].CumulativeShare <= threshold
	}
	return out
}

func paretoBy(d *dataset.Dataset, threshold float64, key func(models.SaleRecord) string) ([]models.ParetoRow, error) {
	grouped := make(map[string]float64)
	order := make([]string, 0)

	for _, row := range d.Rows() {
		name := key(row)
		if _, seen := grouped[name]; !seen {
			order = append(order, name)
		}
		grouped[name] += row.Revenue
	}

	rows := make([]models.ParetoRow, 0, len(grouped))
	total := 0.0
	for _, name := range order {
		rows = append(rows, models.ParetoRow{Name: name, Revenue: grouped[name]})
		total += grouped[name]
	}

	// Ties keep first-seen dataset order via the stable sort.
	slices.SortStableFunc(rows, func(a, b models.ParetoRow) int {
		if a.Revenue > b.Revenue {
			return -1
		}
		if a.Revenue < b.Revenue {
			return 1
		}
		return 0
	})

	// Zero total revenue leaves every share at 0 rather than dividing by zero;
	// the flag then reduces to 0 <= threshold.
	cumulative := 0.0
	for i := range rows {
		if total != 0 {
			rows[i].RevenueShare = rows[i].Revenue / total
		}
		cumulative += rows[i].RevenueShare
		rows[i].CumulativeShare = cumulative
		rows[i].ParetoFlag = cumulative <= threshold
	}

	return rows, nil
}
