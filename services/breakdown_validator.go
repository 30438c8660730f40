package services

import (
	"sort"
	"time"

	"chainkpi/models"
)

// SumTolerance is the absolute slack allowed between a target and the
// sum of its child breakdown, accounting for odd-number rounding splits
// done upstream.
const SumTolerance = 1

const dateLayout = "2006-01-02"

// dateFormats are the accepted input shapes for day dates; every date
// is re-expressed as a UTC YYYY-MM-DD string.
var dateFormats = []string{
	dateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// NormalizeDate parses a date literal or timestamp and returns it as a
// UTC YYYY-MM-DD string.
func NormalizeDate(raw string) (string, error) {
	for _, layout := range dateFormats {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC().Format(dateLayout), nil
		}
	}
	return "", models.NewDomainError(models.ErrInvalidRange, "unparseable date %q", raw)
}

// NormalizedBreakdown is the validator's output: normalized scalar
// fields plus weeks sorted by week_index with days sorted by date.
type NormalizedBreakdown struct {
	TargetValue int
	UnitLabel   string
	Notes       string
	Weeks       []models.WeekBreakdown
}

// ValidateBreakdown checks a raw KPI payload against the hierarchical
// sum invariants. Pure and deterministic: no I/O, every failure is a
// DomainError naming the offending unit. When requireWeeks is false and
// the payload has no week breakdown, only the scalar fields are
// normalized and returned.
func ValidateBreakdown(payload *models.ChainKpiPayload, requireWeeks bool) (*NormalizedBreakdown, error) {
	if payload.TargetValue <= 0 {
		return nil, models.NewDomainError(models.ErrInvalidTarget,
			"target_value must be a positive integer, got %d", payload.TargetValue)
	}

	out := &NormalizedBreakdown{
		TargetValue: payload.TargetValue,
		UnitLabel:   payload.UnitLabel,
		Notes:       payload.Notes,
	}

	if len(payload.WeekBreakdown) == 0 {
		if requireWeeks {
			return nil, models.NewDomainError(models.ErrInvalidTarget, "week_breakdown is required")
		}
		return out, nil
	}

	weeks, err := ValidateWeeks(payload.TargetValue, payload.WeekBreakdown)
	if err != nil {
		return nil, err
	}
	out.Weeks = weeks
	return out, nil
}

// ValidateWeeks validates a full week set against totalTarget and
// returns the normalized, sorted breakdown.
func ValidateWeeks(totalTarget int, weekPayloads []models.WeekPayload) ([]models.WeekBreakdown, error) {
	weeks := make([]models.WeekBreakdown, 0, len(weekPayloads))
	seenIndexes := make(map[int]bool)
	weekSum := 0

	for _, wp := range weekPayloads {
		if wp.WeekIndex <= 0 {
			return nil, &models.DomainError{
				Code:      models.ErrInvalidTarget,
				Message:   "week_index must be a positive integer",
				WeekIndex: wp.WeekIndex,
			}
		}
		if seenIndexes[wp.WeekIndex] {
			return nil, &models.DomainError{
				Code:      models.ErrDuplicateWeekIndex,
				Message:   "duplicate week_index in breakdown",
				WeekIndex: wp.WeekIndex,
			}
		}
		seenIndexes[wp.WeekIndex] = true

		days, err := ValidateWeekDays(wp.WeekIndex, wp.TargetValue, wp.DayBreakdown)
		if err != nil {
			return nil, err
		}

		weeks = append(weeks, models.WeekBreakdown{
			WeekIndex:    wp.WeekIndex,
			TargetValue:  wp.TargetValue,
			DayBreakdown: days,
		})
		weekSum += wp.TargetValue
	}

	if absDiff(weekSum, totalTarget) > SumTolerance {
		return nil, models.NewDomainError(models.ErrWeekMonthSumMismatch,
			"week targets sum to %d, monthly target is %d", weekSum, totalTarget)
	}

	// Sorted output is a contract: downstream UIs iterate in order.
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].WeekIndex < weeks[j].WeekIndex
	})
	return weeks, nil
}

// ValidateWeekDays validates one week's day entries against the week
// target and returns them normalized and sorted ascending by date.
func ValidateWeekDays(weekIndex, weekTarget int, dayPayloads []models.DayPayload) ([]models.DayBreakdown, error) {
	if weekTarget < 0 {
		return nil, &models.DomainError{
			Code:      models.ErrInvalidTarget,
			Message:   "week target_value must be non-negative",
			WeekIndex: weekIndex,
		}
	}
	if len(dayPayloads) == 0 {
		return nil, &models.DomainError{
			Code:      models.ErrInvalidTarget,
			Message:   "day_breakdown must be a non-empty list",
			WeekIndex: weekIndex,
		}
	}

	days := make([]models.DayBreakdown, 0, len(dayPayloads))
	seenDates := make(map[string]bool)
	daySum := 0

	for _, dp := range dayPayloads {
		date, err := NormalizeDate(dp.Date)
		if err != nil {
			return nil, &models.DomainError{
				Code:      models.ErrInvalidRange,
				Message:   "unparseable day date",
				WeekIndex: weekIndex,
				Date:      dp.Date,
			}
		}
		if seenDates[date] {
			return nil, &models.DomainError{
				Code:      models.ErrDuplicateDayDate,
				Message:   "duplicate date within week",
				WeekIndex: weekIndex,
				Date:      date,
			}
		}
		seenDates[date] = true

		if dp.TargetValue < 0 {
			return nil, &models.DomainError{
				Code:      models.ErrInvalidTarget,
				Message:   "day target_value must be non-negative",
				WeekIndex: weekIndex,
				Date:      date,
			}
		}

		days = append(days, models.DayBreakdown{Date: date, TargetValue: dp.TargetValue})
		daySum += dp.TargetValue
	}

	if absDiff(daySum, weekTarget) > SumTolerance {
		return nil, &models.DomainError{
			Code:      models.ErrDayWeekSumMismatch,
			Message:   "day targets do not sum to the week target",
			WeekIndex: weekIndex,
		}
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].Date < days[j].Date
	})
	return days, nil
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
