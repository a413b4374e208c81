// Package audit keeps a history of the schedules computed, so that a filed
// schedule can be traced back to the run that produced it.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/etnz/fa"
	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusOK         = "ok"
	StatusIncomplete = "incomplete" // some lots could not be valued
	StatusFailed     = "failed"     // nothing was valued
)

// Run is the record of one computation.
type Run struct {
	ID         string
	StartedAt  time.Time
	Year       int
	AllowFetch bool
	Status     string
	Error      string
	Rows       []Row
	Failures   []string
	Degraded   []string
}

// Row is the recorded valuation of a lot, in whole rupees.
type Row struct {
	Symbol   string
	VestDate string
	Initial  int64
	Peak     int64
	Closing  int64
	Proceeds int64
}

// Recorder stores runs.
type Recorder interface {
	Record(ctx context.Context, run *Run) error
	History(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// NewRun builds the record of a run from its report and error. report may be nil.
func NewRun(started time.Time, year int, allowFetch bool, report *fa.Report, err error) *Run {
	run := &Run{
		ID:         uuid.NewString(),
		StartedAt:  started.UTC().Truncate(time.Second),
		Year:       year,
		AllowFetch: allowFetch,
		Status:     StatusOK,
	}
	switch {
	case errors.Is(err, fa.ErrIncomplete):
		run.Status = StatusIncomplete
	case err != nil:
		run.Status = StatusFailed
	}
	if err != nil {
		run.Error = err.Error()
	}
	if report == nil {
		return run
	}
	for _, r := range report.Rows {
		run.Rows = append(run.Rows, Row{
			Symbol:   r.Symbol,
			VestDate: r.VestDate.String(),
			Initial:  r.Initial.Whole(),
			Peak:     r.Peak.Whole(),
			Closing:  r.Closing.Whole(),
			Proceeds: r.Proceeds.Whole(),
		})
	}
	for _, f := range report.Failures {
		run.Failures = append(run.Failures, f.Error())
	}
	for _, d := range report.Degraded {
		run.Degraded = append(run.Degraded, d.Error())
	}
	return run
}

// NoopRecorder is used when no history database is configured.
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, *Run) error          { return nil }
func (NoopRecorder) History(context.Context, int) ([]Run, error) { return nil, nil }
func (NoopRecorder) Close() error                                { return nil }

// Open returns a SQLite recorder for path, or a NoopRecorder when path is empty.
func Open(path string) (Recorder, error) {
	if path == "" {
		return NoopRecorder{}, nil
	}
	return NewSQLiteRecorder(path)
}
