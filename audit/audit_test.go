package audit

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/fa"
	"github.com/etnz/fa/date"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *fa.Report {
	return &fa.Report{
		Year: 2023,
		Rows: []fa.Row{{
			Symbol:   "ACME",
			VestDate: date.MustParse("2023-01-15"),
			Initial:  fa.M(827500.4, fa.INR),
			Peak:     fa.M(1040625, fa.INR),
			Closing:  fa.M(913000.5, fa.INR),
			Proceeds: fa.M(0, fa.INR),
		}},
		Degraded: []error{errors.New("exchange rate on 2023-12-31: fallback")},
	}
}

func TestNewRun(t *testing.T) {
	started := time.Date(2024, 3, 10, 14, 5, 9, 500, time.Local)

	testCases := []struct {
		name   string
		err    error
		status string
	}{
		{"success", nil, StatusOK},
		{"incomplete", fmt.Errorf("1 of 2 lots could not be valued: %w", fa.ErrIncomplete), StatusIncomplete},
		{"failed", fmt.Errorf("%w: bad year", fa.ErrValidation), StatusFailed},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			run := NewRun(started, 2023, true, sampleReport(), tc.err)
			assert.Equal(t, tc.status, run.Status)
			assert.NotEmpty(t, run.ID)
			assert.Equal(t, started.UTC().Truncate(time.Second), run.StartedAt)
			if tc.err != nil {
				assert.Equal(t, tc.err.Error(), run.Error)
			}
			require.Len(t, run.Rows, 1)
			assert.Equal(t, Row{"ACME", "2023-01-15", 827500, 1040625, 913000, 0}, run.Rows[0])
			assert.Len(t, run.Degraded, 1)
		})
	}
}

func TestNewRun_NoReport(t *testing.T) {
	run := NewRun(time.Now(), 2023, false, nil, errors.New("boom"))
	assert.Equal(t, StatusFailed, run.Status)
	assert.Empty(t, run.Rows)
}

func TestSQLiteRecorder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	rec, err := NewSQLiteRecorder(path)
	require.NoError(t, err)

	first := NewRun(time.Date(2024, 3, 10, 14, 0, 0, 0, time.UTC), 2023, true, sampleReport(), nil)
	second := NewRun(time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), 2023, false, &fa.Report{
		Year:     2023,
		Failures: []error{errors.New("ACME 2023-01-15: missing price on 2023-12-31")},
	}, fa.ErrIncomplete)
	require.NoError(t, rec.Record(ctx, first))
	require.NoError(t, rec.Record(ctx, second))
	require.NoError(t, rec.Close())

	// the history survives reopening
	rec, err = NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer rec.Close()

	runs, err := rec.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, *second, runs[0])
	assert.Equal(t, *first, runs[1])

	runs, err = rec.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second.ID, runs[0].ID)
}

func TestOpen_Noop(t *testing.T) {
	rec, err := Open("")
	require.NoError(t, err)
	assert.IsType(t, NoopRecorder{}, rec)
	runs, err := rec.History(context.Background(), 10)
	assert.NoError(t, err)
	assert.Empty(t, runs)
}
