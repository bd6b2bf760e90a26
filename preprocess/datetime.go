package preprocess

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/Dhaka-Yash/ride-cancellation-ml-system/dataset"
)

var hourToken = regexp.MustCompile(`^\s*(\d{1,2})`)

// parseDate is lenient and month-first. ok is false for anything unparseable.
func parseDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseAny(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// mondayFirst maps Go's Sunday-first weekday onto 0=Monday .. 6=Sunday.
func mondayFirst(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// ExtractHour returns the leading one-or-two digit hour of a time value, or -1.
func ExtractHour(v string) int {
	m := hourToken.FindStringSubmatch(v)
	if m == nil {
		return -1
	}
	h, err := strconv.Atoi(m[1])
	if err != nil || h < 0 || h > 23 {
		return -1
	}
	return h
}

func engineerDate(f *dataset.Frame) error {
	col, ok := f.Column(DateColumn)
	if !ok {
		return nil
	}
	n := f.Len()
	dow := make([]float64, n)
	month := make([]float64, n)
	weekend := make([]float64, n)
	for i := 0; i < n; i++ {
		dow[i], month[i] = -1, 0
		if col.IsNull(i) {
			continue
		}
		t, ok := parseDate(col.Text(i))
		if !ok {
			continue
		}
		dow[i] = float64(mondayFirst(t.Weekday()))
		month[i] = float64(t.Month())
		if dow[i] == 5 || dow[i] == 6 {
			weekend[i] = 1
		}
	}
	for _, c := range []*dataset.Column{
		dataset.NewNumerical(DayOfWeekColumn, dow),
		dataset.NewNumerical(MonthColumn, month),
		dataset.NewNumerical(WeekendColumn, weekend),
	} {
		if err := f.Add(c); err != nil {
			return err
		}
	}
	f.Drop(DateColumn)
	return nil
}

func engineerTime(f *dataset.Frame) error {
	col, ok := f.Column(TimeColumn)
	if !ok {
		return nil
	}
	hours := make([]float64, f.Len())
	for i := range hours {
		hours[i] = float64(ExtractHour(col.Text(i)))
	}
	if err := f.Add(dataset.NewNumerical(HourColumn, hours)); err != nil {
		return err
	}
	f.Drop(TimeColumn)
	return nil
}
