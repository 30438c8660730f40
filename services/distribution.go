package services

import (
	"time"

	"chainkpi/models"
)

// GenerateDistribution derives a week/day breakdown for targetValue over
// the inclusive [startDate, endDate] range. Working days (Mon-Fri) get
// floor(target/workingDays), with the remainder spread one unit each
// over the earliest working days; weekends always get 0. Weeks are
// Monday-aligned and indexed 1..N in chronological order. A range with
// no working days yields an all-zero breakdown, not an error. The output
// always satisfies ValidateWeeks by construction.
func GenerateDistribution(targetValue int, startDate, endDate string) ([]models.WeekBreakdown, error) {
	if targetValue < 0 {
		return nil, models.NewDomainError(models.ErrInvalidTarget,
			"target_value must be non-negative, got %d", targetValue)
	}

	start, err := parseDay(startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDay(endDate)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, models.NewDomainError(models.ErrInvalidRange,
			"start_date %s is after end_date %s", startDate, endDate)
	}

	totalWorkingDays := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if isWorkingDay(d) {
			totalWorkingDays++
		}
	}

	base, remainder := 0, 0
	if totalWorkingDays > 0 {
		base = targetValue / totalWorkingDays
		remainder = targetValue % totalWorkingDays
	}

	var weeks []models.WeekBreakdown
	var currentWeek *models.WeekBreakdown
	currentMonday := time.Time{}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		monday := mondayOf(d)
		if currentWeek == nil || !monday.Equal(currentMonday) {
			weeks = append(weeks, models.WeekBreakdown{WeekIndex: len(weeks) + 1})
			currentWeek = &weeks[len(weeks)-1]
			currentMonday = monday
		}

		dayTarget := 0
		if isWorkingDay(d) {
			dayTarget = base
			if remainder > 0 {
				dayTarget++
				remainder--
			}
		}

		currentWeek.DayBreakdown = append(currentWeek.DayBreakdown, models.DayBreakdown{
			Date:        d.Format(dateLayout),
			TargetValue: dayTarget,
		})
		currentWeek.TargetValue += dayTarget
	}

	return weeks, nil
}

func parseDay(raw string) (time.Time, error) {
	normalized, err := NormalizeDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(dateLayout, normalized)
	if err != nil {
		return time.Time{}, models.NewDomainError(models.ErrInvalidRange, "unparseable date %q", raw)
	}
	return t, nil
}

func isWorkingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// mondayOf returns the Monday starting the calendar week containing t.
func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
