// Package workday holds the pure time-calculation and day-classification
// rules shared by the portals and the record store.
package workday

import (
	"math"
	"strconv"
	"strings"
	"time"

	"britlab/timesheet-portal/internal/models"
)

// ComputeHours returns the elapsed hours between two HH:MM clock times,
// rounded to 2 decimals. An exit earlier than the entry is treated as
// crossing midnight. Missing or unparseable input yields 0.
func ComputeHours(entryTime, exitTime string) float64 {
	entry, ok := parseClock(entryTime)
	if !ok {
		return 0
	}
	exit, ok := parseClock(exitTime)
	if !ok {
		return 0
	}

	diff := exit - entry
	if diff < 0 {
		diff += 24 * 60
	}
	return math.Round(float64(diff)/60*100) / 100
}

// ClassifyDay classifies a YYYY-MM-DD date. A manual holiday flag always
// wins. The date is parsed at local noon: parsing a date-only string as
// UTC midnight shifts it a day backwards in negative-offset zones.
func ClassifyDay(date string, manualHoliday bool) models.DayType {
	if manualHoliday {
		return models.DayTypeHoliday
	}

	t, err := time.ParseInLocation("2006-01-02T15:04:05", strings.TrimSpace(date)+"T12:00:00", time.Local)
	if err != nil {
		return models.DayTypeWeekday
	}
	if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return models.DayTypeWeekend
	}
	return models.DayTypeWeekday
}

// parseClock converts HH:MM to minutes since midnight.
func parseClock(s string) (int, bool) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}
