package audit

import (
	"strings"
	"time"
)

// DefaultLayout is the DD/MM/YYYY layout used by the certidão sources and
// by every date this package formats.
const DefaultLayout = "02/01/2006"

// zero-padding is optional when reading; the sources mix "01/02/2024" and
// "1/2/2024".
var lenientLayout = strings.NewReplacer("02", "2", "01", "1")

// ParseDate parses text strictly against layout (DefaultLayout when empty).
// It never panics: wrong formats, trailing text and impossible calendar
// dates such as 31/02/2024 all report false.
func ParseDate(text, layout string) (time.Time, bool) {
	if layout == "" {
		layout = DefaultLayout
	}
	if text == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(lenientLayout.Replace(layout), text)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders t with layout (DefaultLayout when empty).
func FormatDate(t time.Time, layout string) string {
	if layout == "" {
		layout = DefaultLayout
	}
	return t.Format(layout)
}

// AddMonths adds n calendar months, clamping the day to the last day of the
// target month (31/01 + 1 month = 29/02 on leap years).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysBetween returns |b - a| in whole days.
func daysBetween(a, b time.Time) int {
	d := int(b.Sub(a).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
