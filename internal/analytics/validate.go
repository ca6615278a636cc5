package analytics

import (
	"math"
	"slices"

	"revenue-intel/internal/dataset"
	"revenue-intel/internal/models"
)

// revenueTolerance is the absolute rounding slack allowed between the stored
// revenue and quantity times unit price.
const revenueTolerance = 1.0

// iqrFenceFactor is the classic 1.5x interquartile-range outlier fence.
const iqrFenceFactor = 1.5

// ValidateSchema returns the required columns the dataset does not carry,
// sorted for determinism. Set semantics: no duplicates, empty means complete.
func ValidateSchema(d *dataset.Dataset) []string {
	missing := make([]string, 0)
	for _, col := range dataset.RequiredColumns {
		if !d.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	slices.Sort(missing)
	return missing
}

// ValidateBusinessRules applies the three row-level rules independently and
// returns the offending row indices per rule. A row can trip several rules.
func ValidateBusinessRules(d *dataset.Dataset) models.BusinessRuleIssues {
	issues := models.BusinessRuleIssues{
		InvalidQuantity: []int{},
		InvalidPrice:    []int{},
		RevenueMismatch: []int{},
	}

	for i, row := range d.Rows() {
		if row.Quantity <= 0 {
			issues.InvalidQuantity = append(issues.InvalidQuantity, i)
		}
		if row.UnitPrice <= 0 {
			issues.InvalidPrice = append(issues.InvalidPrice, i)
		}
		expected := float64(row.Quantity) * row.UnitPrice
		if math.Abs(row.Revenue-expected) > revenueTolerance {
			issues.RevenueMismatch = append(issues.RevenueMismatch, i)
		}
	}

	return issues
}

// DetectRevenueOutliers returns the indices of rows whose revenue falls
// strictly outside the IQR fence. With a zero IQR and all values equal, the
// fence collapses onto the data and nothing is flagged.
func DetectRevenueOutliers(d *dataset.Dataset) []int {
	outliers := []int{}
	if d.Len() == 0 {
		return outliers
	}

	revenues := make([]float64, d.Len())
	for i, row := range d.Rows() {
		revenues[i] = row.Revenue
	}

	q1 := quantile(revenues, 0.25)
	q3 := quantile(revenues, 0.75)
	iqr := q3 - q1
	lower := q1 - iqrFenceFactor*iqr
	upper := q3 + iqrFenceFactor*iqr

	for i, row := range d.Rows() {
		if row.Revenue < lower || row.Revenue > upper {
			outliers = append(outliers, i)
		}
	}
	return outliers
}

// RunFullValidation composes the three checks into one report. The checks are
// independent; all three always run regardless of each other's findings.
func RunFullValidation(d *dataset.Dataset) models.ValidationReport {
	return models.ValidationReport{
		MissingColumns: ValidateSchema(d),
		BusinessRules:  ValidateBusinessRules(d),
		Outliers:       DetectRevenueOutliers(d),
	}
}

// quantile computes the p-quantile with linear interpolation between the two
// nearest order statistics. values must be non-empty; the input is not mutated.
func quantile(values []float64, p float64) float64 {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := h - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
