package preprocess

import "strings"

const (
	StatusColumn = "booking_status"
	LabelColumn  = "is_cancelled"
	UnknownToken = "unknown"

	DateColumn = "date"
	TimeColumn = "time"

	DayOfWeekColumn = "booking_day_of_week"
	MonthColumn     = "booking_month"
	WeekendColumn   = "is_weekend"
	HourColumn      = "booking_hour"

	successStatus = "completed"
)

// LeakageColumns are only known once the booking outcome is known.
var LeakageColumns = []string{
	StatusColumn,
	"reason_for_cancelling_by_customer",
	"driver_cancellation_reason",
	"incomplete_rides_reason",
	"incomplete_rides",
}

var IDColumns = []string{"booking_id", "customer_id"}

var knownStatuses = map[string]struct{}{
	successStatus:           {},
	"cancelled by driver":   {},
	"cancelled by customer": {},
	"no driver found":       {},
	"incomplete":            {},
}

var nullLike = map[string]struct{}{"": {}, "nan": {}, "none": {}, "null": {}}

// NormalizeColumn trims, lowercases and replaces spaces with underscores.
// Every comparison against a column name goes through it.
func NormalizeColumn(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func normalizeStatus(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// IsCancelled is the label rule: anything but a completed ride counts as cancelled.
func IsCancelled(status string) int {
	if normalizeStatus(status) == successStatus {
		return 0
	}
	return 1
}
