package services

import (
	"context"
	"fmt"
	"time"

	"chainkpi/models"
	repository "chainkpi/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CompletionService interface {
	ToggleWeek(ctx context.Context, chainKpiID primitive.ObjectID, weekIndex int, actor string) (*models.ToggleResult, error)
	ToggleDay(ctx context.Context, chainKpiID primitive.ObjectID, dateISO string, actor string) (*models.ToggleResult, error)
	ListByKPI(ctx context.Context, chainKpiID primitive.ObjectID) ([]models.KpiCompletion, error)
}

type completionService struct {
	repo     repository.CompletionRepository
	kpiRepo  repository.ChainKPIRepository
	notifier NotificationService
}

func NewCompletionService(repo repository.CompletionRepository, kpiRepo repository.ChainKPIRepository, notifier NotificationService) CompletionService {
	return &completionService{
		repo:     repo,
		kpiRepo:  kpiRepo,
		notifier: notifier,
	}
}

func (s *completionService) ToggleWeek(ctx context.Context, chainKpiID primitive.ObjectID, weekIndex int, actor string) (*models.ToggleResult, error) {
	if weekIndex <= 0 {
		return nil, &models.DomainError{
			Code:      models.ErrInvalidTarget,
			Message:   "week_index must be a positive integer",
			WeekIndex: weekIndex,
		}
	}
	return s.toggle(ctx, chainKpiID, models.CompletionTypeWeek, weekIndex, "", actor)
}

func (s *completionService) ToggleDay(ctx context.Context, chainKpiID primitive.ObjectID, dateISO string, actor string) (*models.ToggleResult, error) {
	date, err := NormalizeDate(dateISO)
	if err != nil {
		return nil, err
	}
	return s.toggle(ctx, chainKpiID, models.CompletionTypeDay, 0, date, actor)
}

// toggle is the check-then-act core: delete the row if it exists,
// insert it otherwise, inside one transaction keyed on the triple. The
// unique index on (chain_kpi_id, completion_type, week_index|date_iso)
// turns a lost insert race into ConcurrentModification.
func (s *completionService) toggle(ctx context.Context, chainKpiID primitive.ObjectID, completionType models.CompletionType, weekIndex int, dateISO string, actor string) (*models.ToggleResult, error) {
	if _, err := s.kpiRepo.GetByID(ctx, chainKpiID); err != nil {
		return nil, err
	}

	var result *models.ToggleResult
	err := s.repo.WithTransaction(ctx, func(txnCtx context.Context) error {
		existed, err := s.repo.DeleteByKey(txnCtx, chainKpiID, completionType, weekIndex, dateISO)
		if err != nil {
			return err
		}
		if existed {
			result = &models.ToggleResult{Completed: false}
			return nil
		}

		completion := &models.KpiCompletion{
			ChainKpiID:     chainKpiID,
			CompletionType: completionType,
			WeekIndex:      weekIndex,
			DateISO:        dateISO,
			CompletedBy:    actor,
			CompletedAt:    time.Now(),
		}
		if err := s.repo.Insert(txnCtx, completion); err != nil {
			return err
		}
		result = &models.ToggleResult{Completed: true, Completion: completion}
		return nil
	})
	if err != nil {
		return nil, err
	}

	unit := fmt.Sprintf("week %d", weekIndex)
	if completionType == models.CompletionTypeDay {
		unit = dateISO
	}
	state := "incomplete"
	if result.Completed {
		state = "complete"
	}
	s.notifier.NotifyAdmins(models.NotificationTypeCompletionToggled,
		"Completion toggled",
		fmt.Sprintf("%s marked %s as %s", actor, unit, state),
		map[string]interface{}{"completion_type": string(completionType)},
		chainKpiID, "chain_kpi")

	return result, nil
}

func (s *completionService) ListByKPI(ctx context.Context, chainKpiID primitive.ObjectID) ([]models.KpiCompletion, error) {
	return s.repo.ListByKPI(ctx, chainKpiID)
}
