package types

import (
	"fmt"
	"time"
)

const (
	// PeriodsPerDay is the number of settlement periods on a normal day.
	PeriodsPerDay = 48

	// MaxPeriodsPerDay covers the long clock-change day in October.
	MaxPeriodsPerDay = 50

	// DateFormat is the civil date layout used by every upstream API.
	DateFormat = "2006-01-02"
)

// GB settlement runs on London local time.
var londonLocation = func() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		panic(fmt.Errorf("failed to load london location: %w", err))
	}
	return loc
}()

// London returns the Europe/London location.
func London() *time.Location {
	return londonLocation
}

// ParseSettlementDate parses a YYYY-MM-DD date as midnight London time.
func ParseSettlementDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateFormat, s, londonLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid settlement date %q: %w", s, err)
	}
	return t, nil
}

// PeriodsInDay returns the number of settlement periods on the given date,
// which is 46 or 50 on clock-change days.
func PeriodsInDay(date time.Time) int {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, londonLocation)
	end := start.AddDate(0, 0, 1)
	return int(end.Sub(start) / (30 * time.Minute))
}

// PeriodStart returns the start time of the settlement period on the given date.
func PeriodStart(date time.Time, period int) (time.Time, error) {
	if period < 1 || period > PeriodsInDay(date) {
		return time.Time{}, fmt.Errorf("invalid settlement period: %d", period)
	}
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, londonLocation)
	// add in absolute time so clock changes are handled
	return start.Add(time.Duration(period-1) * 30 * time.Minute), nil
}
