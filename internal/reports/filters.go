package reports

import (
	"fmt"
	"time"
)

// GetDateRange resolves a preset or custom date range into [start, end).
func GetDateRange(rangeName, startStr, endStr string) (time.Time, time.Time, error) {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch rangeName {
	case DateRangeDaily:
		return dayStart, dayStart.AddDate(0, 0, 1), nil
	case DateRangeWeekly:
		return dayStart.AddDate(0, 0, -7), dayStart.AddDate(0, 0, 1), nil
	case DateRangeMonthly:
		return dayStart.AddDate(0, -1, 0), dayStart.AddDate(0, 0, 1), nil
	case DateRangeCustom:
		start, err := time.ParseInLocation("2006-01-02", startStr, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date: %w", err)
		}
		end, err := time.ParseInLocation("2006-01-02", endStr, now.Location())
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date: %w", err)
		}
		return start, end.AddDate(0, 0, 1), nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unsupported date_range: %s", rangeName)
	}
}
