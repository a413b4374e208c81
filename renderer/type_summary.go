package renderer

import (
	"errors"
	"strconv"

	"github.com/etnz/fa"
)

// Summary is the view of a computation rendered in the terminal.
type Summary struct {
	Year   int
	Status string
	Output string

	Rows   []SummaryRow
	Totals SummaryRow

	Lots     int
	Skipped  []string
	Failures []string
	Degraded []string
	Error    string
}

// SummaryRow is a schedule row with its amounts formatted in whole rupees.
type SummaryRow struct {
	Lot       string
	Company   string
	Remaining string
	Initial   string
	Peak      string
	PeakDate  string
	Closing   string
	Proceeds  string
}

// NewSummary builds the summary of a computation. report may be nil when the
// computation failed before valuing anything.
func NewSummary(year int, report *fa.Report, err error) *Summary {
	s := &Summary{Year: year, Status: "Schedule written"}
	switch {
	case errors.Is(err, fa.ErrIncomplete):
		s.Status = "Incomplete, no schedule written"
	case err != nil:
		s.Status = "Failed"
	}
	if err != nil {
		s.Error = err.Error()
	}
	if report == nil {
		return s
	}

	s.Output = report.Output
	s.Lots = report.Lots()
	zero := fa.M(0, fa.INR)
	initial, peak, closing, proceeds := zero, zero, zero, zero
	for _, r := range report.Rows {
		s.Rows = append(s.Rows, SummaryRow{
			Lot:       r.Symbol + " " + r.VestDate.String(),
			Company:   r.Company.Name,
			Remaining: strconv.FormatInt(r.Remaining, 10),
			Initial:   rupees(r.Initial),
			Peak:      rupees(r.Peak),
			PeakDate:  r.PeakDate.String(),
			Closing:   rupees(r.Closing),
			Proceeds:  rupees(r.Proceeds),
		})
		initial = initial.Add(whole(r.Initial))
		peak = peak.Add(whole(r.Peak))
		closing = closing.Add(whole(r.Closing))
		proceeds = proceeds.Add(whole(r.Proceeds))
	}
	s.Totals = SummaryRow{
		Lot:      "Total",
		Initial:  initial.String(),
		Peak:     peak.String(),
		Closing:  closing.String(),
		Proceeds: proceeds.String(),
	}

	for _, l := range report.Skipped {
		s.Skipped = append(s.Skipped, l.String())
	}
	for _, f := range report.Failures {
		s.Failures = append(s.Failures, f.Error())
	}
	for _, d := range report.Degraded {
		s.Degraded = append(s.Degraded, d.Error())
	}
	return s
}

// HasIssues reports whether anything needs the user's attention.
func (s *Summary) HasIssues() bool {
	return len(s.Failures)+len(s.Degraded) > 0 || s.Error != ""
}

func whole(m fa.Money) fa.Money { return fa.M(m.Whole(), fa.INR) }

func rupees(m fa.Money) string { return whole(m).String() }
