package services

import (
	"testing"

	"chainkpi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekOf(index, target int, days ...models.DayPayload) models.WeekPayload {
	return models.WeekPayload{WeekIndex: index, TargetValue: target, DayBreakdown: days}
}

func day(date string, target int) models.DayPayload {
	return models.DayPayload{Date: date, TargetValue: target}
}

func TestValidateBreakdownRejectsNonPositiveTarget(t *testing.T) {
	for _, target := range []int{0, -5} {
		_, err := ValidateBreakdown(&models.ChainKpiPayload{TargetValue: target}, false)
		require.Error(t, err)
		assert.True(t, models.IsDomainCode(err, models.ErrInvalidTarget))
	}
}

func TestValidateBreakdownWithoutWeeks(t *testing.T) {
	payload := &models.ChainKpiPayload{TargetValue: 40, UnitLabel: "units", Notes: "june push"}

	normalized, err := ValidateBreakdown(payload, false)
	require.NoError(t, err)
	assert.Equal(t, 40, normalized.TargetValue)
	assert.Equal(t, "units", normalized.UnitLabel)
	assert.Equal(t, "june push", normalized.Notes)
	assert.Nil(t, normalized.Weeks)

	_, err = ValidateBreakdown(payload, true)
	require.Error(t, err)
	assert.True(t, models.IsDomainCode(err, models.ErrInvalidTarget))
}

func TestValidateBreakdownSortsWeeksAndDays(t *testing.T) {
	payload := &models.ChainKpiPayload{
		TargetValue: 20,
		WeekBreakdown: []models.WeekPayload{
			weekOf(2, 10, day("2024-06-12", 5), day("2024-06-10", 5)),
			weekOf(1, 10, day("2024-06-05", 5), day("2024-06-03", 5)),
		},
	}

	normalized, err := ValidateBreakdown(payload, false)
	require.NoError(t, err)
	require.Len(t, normalized.Weeks, 2)
	assert.Equal(t, 1, normalized.Weeks[0].WeekIndex)
	assert.Equal(t, 2, normalized.Weeks[1].WeekIndex)
	assert.Equal(t, "2024-06-03", normalized.Weeks[0].DayBreakdown[0].Date)
	assert.Equal(t, "2024-06-05", normalized.Weeks[0].DayBreakdown[1].Date)
	assert.Equal(t, "2024-06-10", normalized.Weeks[1].DayBreakdown[0].Date)
}

func TestValidateBreakdownNormalizesTimestampDates(t *testing.T) {
	payload := &models.ChainKpiPayload{
		TargetValue: 10,
		WeekBreakdown: []models.WeekPayload{
			weekOf(1, 10,
				day("2024-06-03T09:30:00Z", 5),
				day("2024-06-04 15:04:05", 5)),
		},
	}

	normalized, err := ValidateBreakdown(payload, false)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03", normalized.Weeks[0].DayBreakdown[0].Date)
	assert.Equal(t, "2024-06-04", normalized.Weeks[0].DayBreakdown[1].Date)
}

func TestValidateBreakdownDuplicateWeekIndex(t *testing.T) {
	payload := &models.ChainKpiPayload{
		TargetValue: 10,
		WeekBreakdown: []models.WeekPayload{
			weekOf(1, 5, day("2024-06-03", 5)),
			weekOf(1, 5, day("2024-06-10", 5)),
		},
	}

	_, err := ValidateBreakdown(payload, false)
	require.Error(t, err)

	var domainErr *models.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, models.ErrDuplicateWeekIndex, domainErr.Code)
	assert.Equal(t, 1, domainErr.WeekIndex)
}

func TestValidateBreakdownDuplicateDayDate(t *testing.T) {
	payload := &models.ChainKpiPayload{
		TargetValue: 10,
		WeekBreakdown: []models.WeekPayload{
			// Same calendar day in two spellings
			weekOf(1, 10, day("2024-06-03", 5), day("2024-06-03T00:00:00Z", 5)),
		},
	}

	_, err := ValidateBreakdown(payload, false)
	require.Error(t, err)

	var domainErr *models.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, models.ErrDuplicateDayDate, domainErr.Code)
	assert.Equal(t, "2024-06-03", domainErr.Date)
}

func TestValidateBreakdownEmptyDayList(t *testing.T) {
	payload := &models.ChainKpiPayload{
		TargetValue:   10,
		WeekBreakdown: []models.WeekPayload{weekOf(1, 10)},
	}

	_, err := ValidateBreakdown(payload, false)
	require.Error(t, err)
	assert.True(t, models.IsDomainCode(err, models.ErrInvalidTarget))
}

func TestValidateBreakdownDayWeekSumTolerance(t *testing.T) {
	// Off by one is a valid rounding split
	payload := &models.ChainKpiPayload{
		TargetValue: 9,
		WeekBreakdown: []models.WeekPayload{
			weekOf(1, 9, day("2024-06-03", 5), day("2024-06-04", 5)),
		},
	}
	_, err := ValidateBreakdown(payload, false)
	require.NoError(t, err)

	// Off by two is not
	payload.WeekBreakdown[0].DayBreakdown[1].TargetValue = 6
	_, err = ValidateBreakdown(payload, false)
	require.Error(t, err)

	var domainErr *models.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, models.ErrDayWeekSumMismatch, domainErr.Code)
	assert.Equal(t, 1, domainErr.WeekIndex)
}

func TestValidateBreakdownWeekMonthSumTolerance(t *testing.T) {
	payload := &models.ChainKpiPayload{
		TargetValue: 21,
		WeekBreakdown: []models.WeekPayload{
			weekOf(1, 10, day("2024-06-03", 10)),
			weekOf(2, 10, day("2024-06-10", 10)),
		},
	}
	_, err := ValidateBreakdown(payload, false)
	require.NoError(t, err, "off by one must pass")

	payload.TargetValue = 22
	_, err = ValidateBreakdown(payload, false)
	require.Error(t, err)
	assert.True(t, models.IsDomainCode(err, models.ErrWeekMonthSumMismatch))
}

func TestValidateBreakdownNegativeDayTarget(t *testing.T) {
	payload := &models.ChainKpiPayload{
		TargetValue: 10,
		WeekBreakdown: []models.WeekPayload{
			weekOf(1, 10, day("2024-06-03", 11), day("2024-06-04", -1)),
		},
	}

	_, err := ValidateBreakdown(payload, false)
	require.Error(t, err)

	var domainErr *models.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, models.ErrInvalidTarget, domainErr.Code)
	assert.Equal(t, "2024-06-04", domainErr.Date)
}

func TestNormalizeDateRejectsGarbage(t *testing.T) {
	_, err := NormalizeDate("next tuesday")
	require.Error(t, err)
	assert.True(t, models.IsDomainCode(err, models.ErrInvalidRange))
}
