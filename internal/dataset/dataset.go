package dataset

import (
	"slices"

	"revenue-intel/internal/models"
)

// RequiredColumns is the canonical column set of the sales dataset.
var RequiredColumns = []string{
	"order_id",
	"order_date",
	"product_name",
	"category",
	"region",
	"quantity",
	"unit_price",
	"revenue",
}

// Dataset is an immutable handle over loaded sale records plus the column set
// the source file actually carried. The analytics engines never mutate it;
// every derived table is recomputed from the rows on demand.
type Dataset struct {
	rows    []models.SaleRecord
	columns map[string]struct{}
}

// FromRecords builds a Dataset carrying the full required column set. Loader
// output and in-memory test fixtures both come through here.
func FromRecords(rows []models.SaleRecord) *Dataset {
	return WithColumns(rows, RequiredColumns)
}

// WithColumns builds a Dataset with an explicit column set, typically the
// header of the source file. Fields for absent columns stay zero-valued.
func WithColumns(rows []models.SaleRecord, columns []string) *Dataset {
	set := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		set[c] = struct{}{}
	}
	return &Dataset{rows: rows, columns: set}
}

func (d *Dataset) Len() int {
	return len(d.rows)
}

func (d *Dataset) Rows() []models.SaleRecord {
	return d.rows
}

func (d *Dataset) Row(i int) models.SaleRecord {
	return d.rows[i]
}

func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// Columns returns the source column names in sorted order.
func (d *Dataset) Columns() []string {
	cols := make([]string, 0, len(d.columns))
	for c := range d.columns {
		cols = append(cols, c)
	}
	slices.Sort(cols)
	return cols
}
