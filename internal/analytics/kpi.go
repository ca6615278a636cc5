package analytics

import (
	"slices"
	"strings"

	"revenue-intel/internal/dataset"
	"revenue-intel/internal/models"
)

// monthLabel is the sortable calendar-month key, e.g. "2024-03".
const monthLabel = "2006-01"

// MonthlyKPIs groups the dataset by calendar month and computes revenue,
// distinct order count, and average order value per month. Months are emitted
// ascending by label; downstream decomposition relies on that order.
func MonthlyKPIs(d *dataset.Dataset) ([]models.MonthlyKPI, error) {
	if err := requireColumns(d, "order_date", "order_id", "revenue"); err != nil {
		return nil, err
	}

	type monthGroup struct {
		revenue float64
		orders  map[string]struct{}
	}

	groups := make(map[string]*monthGroup)
	for _, row := range d.Rows() {
		month := row.OrderDate.Format(monthLabel)
		g := groups[month]
		if g == nil {
			g = &monthGroup{orders: make(map[string]struct{})}
			groups[month] = g
		}
		g.revenue += row.Revenue
		g.orders[row.OrderID] = struct{}{}
	}

	monthly := make([]models.MonthlyKPI, 0, len(groups))
	for month, g := range groups {
		orders := len(g.orders)
		monthly = append(monthly, models.MonthlyKPI{
			Month:   month,
			Revenue: g.revenue,
			Orders:  orders,
			AOV:     g.revenue / float64(orders),
		})
	}

	slices.SortFunc(monthly, func(a, b models.MonthlyKPI) int {
		return strings.Compare(a.Month, b.Month)
	})

	return monthly, nil
}

// RevenueDecomposition attributes each month's revenue change to an order
// volume component and an order value component. The input must already be
// sorted ascending by month; this function does not re-sort. The first month
// has no predecessor and is dropped.
//
// The attribution is first-order and deliberately asymmetric: the volume
// effect is priced at the prior month's AOV, the value effect scaled by the
// current month's order count. The two effects sum exactly to the change.
func RevenueDecomposition(monthly []models.MonthlyKPI) []models.DecompositionRow {
	rows := make([]models.DecompositionRow, 0, max(len(monthly)-1, 0))

	for i := 1; i < len(monthly); i++ {
		cur, prev := monthly[i], monthly[i-1]
		rows = append(rows, models.DecompositionRow{
			Month:         cur.Month,
			Revenue:       cur.Revenue,
			RevenueChange: cur.Revenue - prev.Revenue,
			OrdersEffect:  float64(cur.Orders-prev.Orders) * prev.AOV,
			AOVEffect:     (cur.AOV - prev.AOV) * float64(cur.Orders),
		})
	}

	return rows
}

// InterpretRevenueChange renders a decomposition row as two fixed phrases,
// one per effect sign. A zero effect reads as the decrease/lower branch.
func InterpretRevenueChange(row models.DecompositionRow) string {
	messages := make([]string, 0, 2)

	if row.OrdersEffect > 0 {
		messages = append(messages, "Increase driven by higher order volume")
	} else {
		messages = append(messages, "Decrease driven by lower order volume")
	}

	if row.AOVEffect > 0 {
		messages = append(messages, "Higher average order value helped")
	} else {
		messages = append(messages, "Lower average order value impacted revenue")
	}

	return strings.Join(messages, " & ")
}
