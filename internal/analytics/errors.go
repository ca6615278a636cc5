package analytics

import (
	"errors"
	"fmt"
)

// ErrEmptySeries is returned when a fit or projection is asked for on a
// monthly series with no observations.
var ErrEmptySeries = errors.New("empty monthly series")

// MissingColumnError reports that an aggregation needed a column the source
// dataset never had. The validator reports missing columns as data; the
// engines that cannot proceed without one fail with this error instead.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("dataset is missing required column %q", e.Column)
}

func requireColumns(d columnSet, names ...string) error {
	for _, name := range names {
		if !d.HasColumn(name) {
			return &MissingColumnError{Column: name}
		}
	}
	return nil
}

// columnSet is the slice of the Dataset API the engines need for their
// precondition checks.
type columnSet interface {
	HasColumn(name string) bool
}
