package fa

import (
	"errors"
	"fmt"
	"strings"

	"github.com/etnz/fa/date"
)

var (
	// ErrValidation marks bad input data: broken lot linkage, over-sell, inverted dates.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a market fact that is neither cached nor fetchable.
	ErrNotFound = errors.New("not found")
	// ErrDegraded marks a value replaced by a static fallback.
	ErrDegraded = errors.New("degraded fallback")
	// ErrNoPeak is returned when no priced day with shares held exists in the peak window.
	ErrNoPeak = errors.New("no peak value")
	// ErrIncomplete is returned by Run when some lots could not be valued.
	ErrIncomplete = errors.New("schedule incomplete")
)

// MissingDataError lists every input that could not be resolved for a lot.
type MissingDataError struct {
	Symbol   string
	VestDate date.Date
	Fields   []string
	Err      error // joined underlying errors
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("missing critical data for %s %s: %s", e.Symbol, e.VestDate, strings.Join(e.Fields, ", "))
}

func (e *MissingDataError) Unwrap() error { return e.Err }
