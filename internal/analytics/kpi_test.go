package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revenue-intel/internal/dataset"
	"revenue-intel/internal/models"
)

func TestMonthlyKPIs(t *testing.T) {
	monthly, err := MonthlyKPIs(fixtureDataset())
	require.NoError(t, err)
	require.Len(t, monthly, 3)

	assert.Equal(t, "2024-01", monthly[0].Month)
	assert.Equal(t, "2024-02", monthly[1].Month)
	assert.Equal(t, "2024-03", monthly[2].Month)

	// January: O1 (1200 + 50) and O2 (300) -> 1550 over 2 distinct orders.
	assert.InDelta(t, 1550, monthly[0].Revenue, 1e-9)
	assert.Equal(t, 2, monthly[0].Orders)
	assert.InDelta(t, 775, monthly[0].AOV, 1e-9)

	// O1 appears on two line items but counts once.
	assert.Equal(t, 2, monthly[1].Orders)
	assert.Equal(t, 2, monthly[2].Orders)
}

func TestMonthlyKPIs_ConservesTotalRevenue(t *testing.T) {
	d := fixtureDataset()
	monthly, err := MonthlyKPIs(d)
	require.NoError(t, err)

	var total, monthlyTotal float64
	for _, row := range d.Rows() {
		total += row.Revenue
	}
	for _, m := range monthly {
		monthlyTotal += m.Revenue
	}

	assert.InDelta(t, total, monthlyTotal, 1e-9)
}

func TestMonthlyKPIs_MissingColumn(t *testing.T) {
	d := dataset.WithColumns(nil, []string{"order_id", "order_date"})

	_, err := MonthlyKPIs(d)
	require.Error(t, err)

	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "revenue", missing.Column)
}

func TestRevenueDecomposition(t *testing.T) {
	monthly := []models.MonthlyKPI{
		{Month: "2024-01", Revenue: 1000, Orders: 10, AOV: 100},
		{Month: "2024-02", Revenue: 1500, Orders: 12, AOV: 125},
		{Month: "2024-03", Revenue: 1200, Orders: 8, AOV: 150},
	}

	rows := RevenueDecomposition(monthly)
	require.Len(t, rows, 2, "first month has no predecessor and is dropped")

	feb := rows[0]
	assert.Equal(t, "2024-02", feb.Month)
	assert.InDelta(t, 500, feb.RevenueChange, 1e-9)
	// volume priced at prior AOV, value scaled by current orders
	assert.InDelta(t, (12-10)*100.0, feb.OrdersEffect, 1e-9)
	assert.InDelta(t, (125-100)*12.0, feb.AOVEffect, 1e-9)

	mar := rows[1]
	assert.Equal(t, "2024-03", mar.Month)
	assert.InDelta(t, -300, mar.RevenueChange, 1e-9)
	assert.InDelta(t, (8-12)*125.0, mar.OrdersEffect, 1e-9)
	assert.InDelta(t, (150-125)*8.0, mar.AOVEffect, 1e-9)
}

func TestRevenueDecomposition_EffectsAreAdditive(t *testing.T) {
	monthly, err := MonthlyKPIs(fixtureDataset())
	require.NoError(t, err)

	for _, row := range RevenueDecomposition(monthly) {
		assert.InDelta(t, row.RevenueChange, row.OrdersEffect+row.AOVEffect, 1e-6,
			"month %s: decomposition must sum to the revenue change", row.Month)
	}
}

func TestRevenueDecomposition_ShortInputs(t *testing.T) {
	assert.Empty(t, RevenueDecomposition(nil))
	assert.Empty(t, RevenueDecomposition([]models.MonthlyKPI{{Month: "2024-01", Revenue: 10, Orders: 1, AOV: 10}}))
}

func TestInterpretRevenueChange(t *testing.T) {
	tests := []struct {
		name         string
		ordersEffect float64
		aovEffect    float64
		want         string
	}{
		{
			name:         "both positive",
			ordersEffect: 10,
			aovEffect:    5,
			want:         "Increase driven by higher order volume & Higher average order value helped",
		},
		{
			name:         "both negative",
			ordersEffect: -10,
			aovEffect:    -5,
			want:         "Decrease driven by lower order volume & Lower average order value impacted revenue",
		},
		{
			name:         "mixed",
			ordersEffect: 10,
			aovEffect:    -5,
			want:         "Increase driven by higher order volume & Lower average order value impacted revenue",
		},
		{
			name:         "zero reads as decrease",
			ordersEffect: 0,
			aovEffect:    0,
			want:         "Decrease driven by lower order volume & Lower average order value impacted revenue",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := models.DecompositionRow{OrdersEffect: tt.ordersEffect, AOVEffect: tt.aovEffect}
			assert.Equal(t, tt.want, InterpretRevenueChange(row))
		})
	}
}

func TestMonthlyKPIs_SortedAcrossYears(t *testing.T) {
	rows := []models.SaleRecord{
		record("O1", day(2025, time.January, 3), "A", "C", 1, 10),
		record("O2", day(2024, time.December, 3), "A", "C", 1, 10),
		record("O3", day(2024, time.November, 3), "A", "C", 1, 10),
	}

	monthly, err := MonthlyKPIs(dataset.FromRecords(rows))
	require.NoError(t, err)
	require.Len(t, monthly, 3)
	assert.Equal(t, "2024-11", monthly[0].Month)
	assert.Equal(t, "2024-12", monthly[1].Month)
	assert.Equal(t, "2025-01", monthly[2].Month)
}
