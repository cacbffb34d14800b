package query

import "time"

// ResolveDate turns a DATE entity value into the start of the period it
// names, relative to now for keywords such as "last week". Weeks start on
// Monday.
func ResolveDate(value string, now time.Time) (time.Time, bool) {
	if t, err := time.ParseInLocation("2006-01-02", value, now.Location()); err == nil {
		return t, true
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	switch value {
	case "today":
		return today, true
	case "yesterday":
		return today.AddDate(0, 0, -1), true
	case "this week":
		return weekStart, true
	case "last week":
		return weekStart.AddDate(0, 0, -7), true
	case "this month":
		return monthStart, true
	case "last month":
		return monthStart.AddDate(0, -1, 0), true
	}
	return time.Time{}, false
}
