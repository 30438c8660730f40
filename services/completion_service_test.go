package services

import (
	"context"
	"testing"

	"chainkpi/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type completionFixture struct {
	repo     *fakeCompletionRepo
	notifier *fakeNotifier
	service  CompletionService
	kpiID    primitive.ObjectID
}

func newCompletionFixture(t *testing.T) *completionFixture {
	t.Helper()

	kpiRepo := newFakeKPIRepo()
	kpi := &models.ChainKpi{ChainID: primitive.NewObjectID(), TargetValue: 10}
	require.NoError(t, kpiRepo.Create(context.Background(), kpi))

	repo := newFakeCompletionRepo()
	notifier := &fakeNotifier{}

	return &completionFixture{
		repo:     repo,
		notifier: notifier,
		service:  NewCompletionService(repo, kpiRepo, notifier),
		kpiID:    kpi.ID,
	}
}

func TestToggleWeekOnOff(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()

	result, err := f.service.ToggleWeek(ctx, f.kpiID, 2, "leader1")
	require.NoError(t, err)
	assert.True(t, result.Completed)
	require.NotNil(t, result.Completion)
	assert.Equal(t, "leader1", result.Completion.CompletedBy)
	assert.Equal(t, 2, result.Completion.WeekIndex)

	rows, err := f.service.ListByKPI(ctx, f.kpiID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	result, err = f.service.ToggleWeek(ctx, f.kpiID, 2, "leader1")
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Nil(t, result.Completion)

	rows, err = f.service.ListByKPI(ctx, f.kpiID)
	require.NoError(t, err)
	assert.Empty(t, rows, "second toggle returns to the original state")
}

func TestToggleParity(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.service.ToggleDay(ctx, f.kpiID, "2024-06-03", "leader1")
		require.NoError(t, err)
	}
	rows, err := f.service.ListByKPI(ctx, f.kpiID)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "odd number of toggles leaves exactly one row")

	_, err = f.service.ToggleDay(ctx, f.kpiID, "2024-06-03", "leader1")
	require.NoError(t, err)
	rows, err = f.service.ListByKPI(ctx, f.kpiID)
	require.NoError(t, err)
	assert.Empty(t, rows, "even number of toggles leaves none")
}

func TestToggleWeekAndDayAreIndependentKeys(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()

	_, err := f.service.ToggleWeek(ctx, f.kpiID, 1, "leader1")
	require.NoError(t, err)
	_, err = f.service.ToggleDay(ctx, f.kpiID, "2024-06-03", "leader1")
	require.NoError(t, err)

	rows, err := f.service.ListByKPI(ctx, f.kpiID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestToggleDayNormalizesDate(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()

	_, err := f.service.ToggleDay(ctx, f.kpiID, "2024-06-03T08:00:00Z", "leader1")
	require.NoError(t, err)

	// The normalized spelling addresses the same row
	result, err := f.service.ToggleDay(ctx, f.kpiID, "2024-06-03", "leader1")
	require.NoError(t, err)
	assert.False(t, result.Completed)
}

func TestToggleValidation(t *testing.T) {
	f := newCompletionFixture(t)
	ctx := context.Background()

	_, err := f.service.ToggleWeek(ctx, f.kpiID, 0, "leader1")
	require.Error(t, err)
	assert.True(t, models.IsDomainCode(err, models.ErrInvalidTarget))

	_, err = f.service.ToggleDay(ctx, f.kpiID, "not-a-date", "leader1")
	require.Error(t, err)
	assert.True(t, models.IsDomainCode(err, models.ErrInvalidRange))

	_, err = f.service.ToggleWeek(ctx, primitive.NewObjectID(), 1, "leader1")
	require.Error(t, err)
	assert.True(t, models.IsDomainCode(err, models.ErrNotFound))
}

func TestToggleNotifiesAdmins(t *testing.T) {
	f := newCompletionFixture(t)

	_, err := f.service.ToggleWeek(context.Background(), f.kpiID, 1, "leader1")
	require.NoError(t, err)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, models.RoleAudience(AdminRole), f.notifier.sent[0].Audience)
	assert.Equal(t, models.NotificationTypeCompletionToggled, f.notifier.sent[0].Type)
}
