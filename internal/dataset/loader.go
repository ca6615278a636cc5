package dataset

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"revenue-intel/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

// Loader streams a sales CSV into a Dataset. Rows are parsed in batches on a
// bounded worker pool; file order is preserved so that row indices reported by
// the validator stay meaningful.
//
// Fields are split on bare commas: the loader assumes unquoted CSV and will
// misparse quoted values that contain commas.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// columnIndex maps the canonical column names onto positions in the header.
// Missing columns map to -1 and leave the field zero-valued; the validator
// reports them, the loader does not.
type columnIndex map[string]int

func indexHeader(header string) columnIndex {
	idx := make(columnIndex, len(RequiredColumns))
	for _, c := range RequiredColumns {
		idx[c] = -1
	}
	for i, name := range strings.Split(header, ",") {
		name = strings.TrimSpace(name)
		if _, ok := idx[name]; ok {
			idx[name] = i
		}
	}
	return idx
}

func (ci columnIndex) present() []string {
	cols := make([]string, 0, len(ci))
	for name, i := range ci {
		if i >= 0 {
			cols = append(cols, name)
		}
	}
	return cols
}

func (l *Loader) Load(ctx context.Context, filename string) (*Dataset, error) {
	start := time.Now()

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 10*1024*1024) // 10MB buffer

	if !scanner.Scan() {
		return nil, fmt.Errorf("empty file")
	}
	columns := indexHeader(scanner.Text())

	var (
		rows    []models.SaleRecord
		skipped int64
	)

	batch := make([]string, 0, batchSize)
	flush := func() error {
		parsed, bad, err := l.parseBatch(ctx, batch, columns)
		if err != nil {
			return err
		}
		rows = append(rows, parsed...)
		skipped += bad
		batch = batch[:0]
		return nil
	}

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		batch = append(batch, scanner.Text())
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("no valid records found")
	}

	if skipped > 0 {
		l.logger.Warn("skipped unparseable rows", "filename", filename, "skipped", skipped)
	}

	duration := time.Since(start)
	l.logger.Info("csv load complete",
		"filename", filename,
		"records", len(rows),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(len(rows))/duration.Seconds()))

	return WithColumns(rows, columns.present()), nil
}

// parseBatch parses lines concurrently into position-indexed slots so the
// surviving rows keep their file order.
func (l *Loader) parseBatch(ctx context.Context, batch []string, columns columnIndex) ([]models.SaleRecord, int64, error) {
	type slot struct {
		record models.SaleRecord
		valid  bool
	}
	slots := make([]slot, len(batch))

	var wg errgroup.Group
	wg.SetLimit(maxWorkers)

	for i, line := range batch {
		wg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			record, err := parseSaleRecord(strings.Split(line, ","), columns)
			if err != nil {
				return nil // skip unparseable rows, count below
			}
			slots[i] = slot{record: record, valid: true}
			return nil
		})
	}

	if err := wg.Wait(); err != nil {
		return nil, 0, err
	}

	rows := make([]models.SaleRecord, 0, len(batch))
	var skipped int64
	for _, s := range slots {
		if s.valid {
			rows = append(rows, s.record)
		} else {
			skipped++
		}
	}
	return rows, skipped, nil
}

func parseSaleRecord(fields []string, columns columnIndex) (models.SaleRecord, error) {
	field := func(name string) (string, bool) {
		i := columns[name]
		if i < 0 || i >= len(fields) {
			return "", false
		}
		return strings.TrimSpace(fields[i]), true
	}

	var record models.SaleRecord

	if v, ok := field("order_id"); ok {
		record.OrderID = v
	}
	if v, ok := field("product_name"); ok {
		record.ProductName = v
	}
	if v, ok := field("category"); ok {
		record.Category = v
	}
	if v, ok := field("region"); ok {
		record.Region = v
	}

	if v, ok := field("order_date"); ok {
		date, err := time.Parse("2006-01-02", v)
		if err != nil {
			return models.SaleRecord{}, err
		}
		record.OrderDate = date
	}
	if v, ok := field("quantity"); ok {
		quantity, err := strconv.Atoi(v)
		if err != nil {
			return models.SaleRecord{}, err
		}
		record.Quantity = quantity
	}
	if v, ok := field("unit_price"); ok {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return models.SaleRecord{}, err
		}
		record.UnitPrice = price
	}
	if v, ok := field("revenue"); ok {
		revenue, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return models.SaleRecord{}, err
		}
		record.Revenue = revenue
	}

	return record, nil
}
