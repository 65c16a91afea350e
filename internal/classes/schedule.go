package classes

import (
	"errors"
	"time"
)

// DateLayout is the wire format for civil dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format for wall-clock times.
const TimeLayout = "15:04"

var (
	errBadDate       = errors.New("invalid date, expected YYYY-MM-DD")
	errDateOrder     = errors.New("start date must not be after end date")
	errNoWeekdays    = errors.New("at least one day of week is required")
	errBadWeekday    = errors.New("days of week must be between 0 (Sunday) and 6 (Saturday)")
	errBadTime       = errors.New("invalid time, expected HH:MM")
	errTimeOrder     = errors.New("start time must be before end time")
	errStartedInPast = errors.New("class start must not be in the past")
)

// GenerateDates expands a recurrence into the civil dates between startDate
// and endDate (inclusive) falling on the given weekdays (0 = Sunday). Dates
// are returned in the supplied location at midnight.
func GenerateDates(startDate, endDate string, daysOfWeek []int, loc *time.Location) ([]time.Time, error) {
	if len(daysOfWeek) == 0 {
		return nil, errNoWeekdays
	}
	wanted := make(map[time.Weekday]bool, len(daysOfWeek))
	for _, d := range daysOfWeek {
		if d < 0 || d > 6 {
			return nil, errBadWeekday
		}
		wanted[time.Weekday(d)] = true
	}

	start, err := time.ParseInLocation(DateLayout, startDate, loc)
	if err != nil {
		return nil, errBadDate
	}
	end, err := time.ParseInLocation(DateLayout, endDate, loc)
	if err != nil {
		return nil, errBadDate
	}
	if start.After(end) {
		return nil, errDateOrder
	}

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if wanted[d.Weekday()] {
			dates = append(dates, d)
		}
	}
	return dates, nil
}

// CombineDateTime converts a civil date plus wall-clock start/end times in
// the academy timezone into the class's UTC start/end instants.
func CombineDateTime(date, startTime, endTime string, loc *time.Location) (start, end time.Time, err error) {
	start, err = time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+startTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errBadTime
	}
	end, err = time.ParseInLocation(DateLayout+" "+TimeLayout, date+" "+endTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errBadTime
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, errTimeOrder
	}
	return start.UTC(), end.UTC(), nil
}
