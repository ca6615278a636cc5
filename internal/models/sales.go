package models

import "time"

// SaleRecord is one line item of the sales dataset. Several records may share
// an OrderID when the order contained more than one line item.
type SaleRecord struct {
	OrderID     string    `json:"order_id"`
	OrderDate   time.Time `json:"order_date"`
	ProductName string    `json:"product_name"`
	Category    string    `json:"category"`
	Region      string    `json:"region"`
	Quantity    int       `json:"quantity"`
	UnitPrice   float64   `json:"unit_price"`
	Revenue     float64   `json:"revenue"`
}

// MonthlyKPI aggregates one calendar month. AOV is revenue over distinct orders.
type MonthlyKPI struct {
	Month   string  `json:"order_month"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
	AOV     float64 `json:"aov"`
}

// DecompositionRow attributes a month's revenue change to order-volume and
// order-value components. The two effects sum to RevenueChange.
type DecompositionRow struct {
	Month         string  `json:"order_month"`
	Revenue       float64 `json:"revenue"`
	RevenueChange float64 `json:"revenue_change"`
	OrdersEffect  float64 `json:"orders_effect"`
	AOVEffect     float64 `json:"aov_effect"`
}

// RevenueDriver pairs a decomposition row with its plain-text reading.
type RevenueDriver struct {
	DecompositionRow
	Explanation string `json:"explanation"`
}

type ParetoRow struct {
	Name            string  `json:"name"`
	Revenue         float64 `json:"revenue"`
	RevenueShare    float64 `json:"revenue_share"`
	CumulativeShare float64 `json:"cumulative_share"`
	ParetoFlag      bool    `json:"pareto_flag"`
}

// BusinessRuleIssues holds row indices into the source dataset, one slice per
// rule. The rules are independent predicates; an index may appear in more
// than one slice.
type BusinessRuleIssues struct {
	InvalidQuantity []int `json:"invalid_quantity"`
	InvalidPrice    []int `json:"invalid_price"`
	RevenueMismatch []int `json:"revenue_mismatch"`
}

// ValidationReport is the outcome of the full data-quality pass. Findings are
// data, not errors; row subsets are index sets resolved against the dataset.
type ValidationReport struct {
	MissingColumns []string           `json:"missing_columns"`
	BusinessRules  BusinessRuleIssues `json:"business_rule_issues"`
	Outliers       []int              `json:"outliers"`
}

// SeriesPoint is one month of the forecasting series with its feature values.
type SeriesPoint struct {
	Month       time.Time `json:"order_month"`
	Revenue     float64   `json:"revenue"`
	MonthOfYear int       `json:"month"`
	Year        int       `json:"year"`
	Trend       int       `json:"trend"`
}

// ForecastPoint is a projected month beyond the observed series.
type ForecastPoint struct {
	Month       time.Time `json:"order_month"`
	MonthOfYear int       `json:"month"`
	Year        int       `json:"year"`
	Trend       int       `json:"trend"`
	Revenue     float64   `json:"forecast_revenue"`
}

type OverviewMetrics struct {
	TotalRevenue float64 `json:"total_revenue"`
	TotalOrders  int     `json:"total_orders"`
	AOV          float64 `json:"aov"`
}

type BaselineMetrics struct {
	TotalRevenue  float64 `json:"total_revenue"`
	TotalQuantity int     `json:"total_quantity"`
	AvgPrice      float64 `json:"avg_price"`
}

// ScenarioInput is one what-if request. Omitted percentages decode as 0.
type ScenarioInput struct {
	Name            string  `json:"name,omitempty"`
	PriceChangePct  float64 `json:"price_change"`
	VolumeChangePct float64 `json:"volume_change"`
	DiscountPct     float64 `json:"discount"`
}

type ScenarioOutcome struct {
	SimulatedRevenue float64 `json:"simulated_revenue"`
	AbsoluteChange   float64 `json:"absolute_change"`
	PercentageChange float64 `json:"percentage_change"`
}

// ScenarioResult annotates an outcome with the parameters that produced it.
type ScenarioResult struct {
	ScenarioInput
	ScenarioOutcome
}
