package date

import "iter"

// Range represents a range of dates, boundaries included.
type Range struct{ From, To Date }

// YearRange returns the range covering the whole given year.
func YearRange(year int) Range { return Range{From: StartOfYear(year), To: EndOfYear(year)} }

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// Empty reports whether the range contains no day at all.
func (r Range) Empty() bool { return r.To.Before(r.From) }

// Days iterates over every day of the range in chronological order.
func (r Range) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := r.From; !d.After(r.To); d = d.Add(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// Weekdays iterates over the Monday to Friday days of the range.
func (r Range) Weekdays() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := range r.Days() {
			if d.IsWeekend() {
				continue
			}
			if !yield(d) {
				return
			}
		}
	}
}

// CountWeekdays returns the number of Monday to Friday days in the range.
func (r Range) CountWeekdays() (n int) {
	for range r.Weekdays() {
		n++
	}
	return n
}

func (r Range) String() string { return r.From.String() + ".." + r.To.String() }
