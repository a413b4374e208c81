package fa

import (
	"cmp"
	"encoding/csv"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/etnz/fa/date"
)

// ScheduleHeader is the column list of the FA schedule.
var ScheduleHeader = []string{
	"Country/Region name",
	"Country Name and Code",
	"Name of entity",
	"Address of entity",
	"ZIP Code",
	"Nature of entity",
	"Date of acquiring the interest",
	"Initial value of the investment",
	"Peak value of investment during the Period",
	"Closing balance",
	"Total gross amount paid/credited with respect to the holding during the period",
	"Total gross proceeds from sale or redemption of investment during the period",
}

// SortRows orders rows by symbol then vest date.
func SortRows(rows []Row) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		return cmp.Or(cmp.Compare(a.Symbol, b.Symbol), date.Compare(a.VestDate, b.VestDate))
	})
}

// WriteSchedule writes the schedule of rows to w.
//
// The header columns are quoted, the rows are not (unless a value contains a
// separator). Rows are sorted, numbered from 1 in the first column and carry
// the country code of their issuer in the second. Amounts are rounded to the
// rupee, half to even.
func WriteSchedule(w io.Writer, rows []Row, countryCode func(country string) int) error {
	quoted := make([]string, len(ScheduleHeader))
	for i, h := range ScheduleHeader {
		quoted[i] = strconv.Quote(h)
	}
	if _, err := io.WriteString(w, strings.Join(quoted, ",")+"\n"); err != nil {
		return err
	}

	rows = slices.Clone(rows)
	SortRows(rows)

	cw := csv.NewWriter(w)
	for i, r := range rows {
		record := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(countryCode(r.Company.Country)),
			r.Company.Name,
			r.Company.Address,
			r.Company.ZipCode,
			r.Company.Nature,
			r.VestDate.String(),
			whole(r.Initial),
			whole(r.Peak),
			whole(r.Closing),
			whole(r.Paid),
			whole(r.Proceeds),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func whole(m Money) string { return strconv.FormatInt(m.Whole(), 10) }
