package productivity

import "time"

// DateOf truncates t to its calendar day, expressed at midnight UTC.
// The calendar day is taken in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD into a calendar date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// Window returns today and the preceding days-1 dates, newest first
func Window(today time.Time, days int) []time.Time {
	today = DateOf(today)
	dates := make([]time.Time, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, today.AddDate(0, 0, -i))
	}
	return dates
}
