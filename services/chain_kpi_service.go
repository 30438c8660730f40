package services

import (
	"context"
	"fmt"
	"time"

	"chainkpi/models"
	repository "chainkpi/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChainKPIService interface {
	CreateKPI(ctx context.Context, chainID primitive.ObjectID, payload *models.ChainKpiPayload, actor string) (*models.ChainKpi, error)
	GetKPIByID(ctx context.Context, id primitive.ObjectID) (*models.ChainKpi, error)
	ListByChain(ctx context.Context, chainID primitive.ObjectID) ([]models.ChainKpi, error)
	UpdateMeta(ctx context.Context, id primitive.ObjectID, payload *models.KpiMetaPayload, actor string) (*models.ChainKpi, error)
	ReplaceWeeks(ctx context.Context, id primitive.ObjectID, weeks []models.WeekPayload, actor string) (*models.ChainKpi, error)
	ReplaceDays(ctx context.Context, id primitive.ObjectID, weekDays []models.WeekDaysPayload, actor string) (*models.ChainKpi, error)
	DeleteKPI(ctx context.Context, id primitive.ObjectID, actor string) error
	GetChainKpiStats(ctx context.Context, chainID primitive.ObjectID) ([]bson.M, error)
}

type chainKPIService struct {
	repo           repository.ChainKPIRepository
	assignmentRepo repository.AssignmentRepository
	completionRepo repository.CompletionRepository
	notifier       NotificationService
}

func NewChainKPIService(repo repository.ChainKPIRepository, assignmentRepo repository.AssignmentRepository, completionRepo repository.CompletionRepository, notifier NotificationService) ChainKPIService {
	return &chainKPIService{
		repo:           repo,
		assignmentRepo: assignmentRepo,
		completionRepo: completionRepo,
		notifier:       notifier,
	}
}

// CreateKPI validates the payload (or derives the breakdown from the
// supplied date range when none is given) and persists the KPI. Nothing
// is written when validation fails.
func (s *chainKPIService) CreateKPI(ctx context.Context, chainID primitive.ObjectID, payload *models.ChainKpiPayload, actor string) (*models.ChainKpi, error) {
	normalized, err := ValidateBreakdown(payload, false)
	if err != nil {
		return nil, err
	}

	if normalized.Weeks == nil && payload.StartDate != "" && payload.EndDate != "" {
		weeks, err := GenerateDistribution(normalized.TargetValue, payload.StartDate, payload.EndDate)
		if err != nil {
			return nil, err
		}
		normalized.Weeks = weeks
	}

	now := time.Now()
	kpi := &models.ChainKpi{
		ChainID:     chainID,
		TargetValue: normalized.TargetValue,
		UnitLabel:   normalized.UnitLabel,
		Notes:       normalized.Notes,
		Year:        payload.Year,
		Month:       payload.Month,
		Weeks:       normalized.Weeks,
		Metadata: models.Metadata{
			CreatedBy: actor,
			UpdatedBy: actor,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	if err := s.repo.Create(ctx, kpi); err != nil {
		return nil, err
	}

	s.notifier.NotifyAdmins(models.NotificationTypeKpiCreated,
		"KPI created",
		fmt.Sprintf("%s created a KPI of %d %s", actor, kpi.TargetValue, kpi.UnitLabel),
		map[string]interface{}{"chain_id": chainID.Hex()},
		kpi.ID, "chain_kpi")

	return kpi, nil
}

func (s *chainKPIService) GetKPIByID(ctx context.Context, id primitive.ObjectID) (*models.ChainKpi, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *chainKPIService) ListByChain(ctx context.Context, chainID primitive.ObjectID) ([]models.ChainKpi, error) {
	return s.repo.ListByChain(ctx, chainID)
}

// UpdateMeta changes target/unit/notes only. When a breakdown exists,
// the stored week sum is re-checked against the new target so the
// month-level invariant cannot be broken through this path.
func (s *chainKPIService) UpdateMeta(ctx context.Context, id primitive.ObjectID, payload *models.KpiMetaPayload, actor string) (*models.ChainKpi, error) {
	if payload.TargetValue <= 0 {
		return nil, models.NewDomainError(models.ErrInvalidTarget,
			"target_value must be a positive integer, got %d", payload.TargetValue)
	}

	var updated *models.ChainKpi
	err := s.repo.WithTransaction(ctx, func(txnCtx context.Context) error {
		kpi, err := s.repo.GetByID(txnCtx, id)
		if err != nil {
			return err
		}

		if len(kpi.Weeks) > 0 {
			weekSum := 0
			for _, week := range kpi.Weeks {
				weekSum += week.TargetValue
			}
			if absDiff(weekSum, payload.TargetValue) > SumTolerance {
				return models.NewDomainError(models.ErrWeekMonthSumMismatch,
					"existing week targets sum to %d, new monthly target is %d; replace the breakdown first",
					weekSum, payload.TargetValue)
			}
		}

		kpi.TargetValue = payload.TargetValue
		kpi.UnitLabel = payload.UnitLabel
		kpi.Notes = payload.Notes
		kpi.Metadata.UpdatedBy = actor
		kpi.Metadata.UpdatedAt = time.Now()

		if err := s.repo.Update(txnCtx, id, kpi); err != nil {
			return err
		}
		updated = kpi
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyAdmins(models.NotificationTypeKpiUpdated,
		"KPI updated",
		fmt.Sprintf("%s updated the KPI target to %d %s", actor, updated.TargetValue, updated.UnitLabel),
		nil, updated.ID, "chain_kpi")

	return updated, nil
}

// ReplaceWeeks swaps the whole week/day breakdown after full
// revalidation; old and new entries are never merged.
func (s *chainKPIService) ReplaceWeeks(ctx context.Context, id primitive.ObjectID, weeks []models.WeekPayload, actor string) (*models.ChainKpi, error) {
	var updated *models.ChainKpi
	err := s.repo.WithTransaction(ctx, func(txnCtx context.Context) error {
		kpi, err := s.repo.GetByID(txnCtx, id)
		if err != nil {
			return err
		}

		validated, err := ValidateWeeks(kpi.TargetValue, weeks)
		if err != nil {
			return err
		}

		kpi.Weeks = validated
		kpi.Metadata.UpdatedBy = actor
		kpi.Metadata.UpdatedAt = time.Now()

		if err := s.repo.Update(txnCtx, id, kpi); err != nil {
			return err
		}
		updated = kpi
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyAdmins(models.NotificationTypeKpiUpdated,
		"KPI breakdown replaced",
		fmt.Sprintf("%s replaced the week breakdown", actor),
		nil, updated.ID, "chain_kpi")

	return updated, nil
}

// ReplaceDays replaces the day entries of the named weeks only; each
// replacement is validated against that week's stored target.
func (s *chainKPIService) ReplaceDays(ctx context.Context, id primitive.ObjectID, weekDays []models.WeekDaysPayload, actor string) (*models.ChainKpi, error) {
	var updated *models.ChainKpi
	err := s.repo.WithTransaction(ctx, func(txnCtx context.Context) error {
		kpi, err := s.repo.GetByID(txnCtx, id)
		if err != nil {
			return err
		}

		for _, wd := range weekDays {
			found := false
			for i := range kpi.Weeks {
				if kpi.Weeks[i].WeekIndex != wd.WeekIndex {
					continue
				}
				days, err := ValidateWeekDays(wd.WeekIndex, kpi.Weeks[i].TargetValue, wd.DayBreakdown)
				if err != nil {
					return err
				}
				kpi.Weeks[i].DayBreakdown = days
				found = true
				break
			}
			if !found {
				return &models.DomainError{
					Code:      models.ErrNotFound,
					Message:   "week not present in the KPI breakdown",
					WeekIndex: wd.WeekIndex,
				}
			}
		}

		kpi.Metadata.UpdatedBy = actor
		kpi.Metadata.UpdatedAt = time.Now()

		if err := s.repo.Update(txnCtx, id, kpi); err != nil {
			return err
		}
		updated = kpi
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyAdmins(models.NotificationTypeKpiUpdated,
		"KPI days replaced",
		fmt.Sprintf("%s replaced day-level entries", actor),
		nil, updated.ID, "chain_kpi")

	return updated, nil
}

// DeleteKPI removes the KPI and cascades to its assignments and
// completion rows in one transaction.
func (s *chainKPIService) DeleteKPI(ctx context.Context, id primitive.ObjectID, actor string) error {
	err := s.repo.WithTransaction(ctx, func(txnCtx context.Context) error {
		if _, err := s.repo.GetByID(txnCtx, id); err != nil {
			return err
		}
		if err := s.assignmentRepo.DeleteByKPI(txnCtx, id); err != nil {
			return err
		}
		if err := s.completionRepo.DeleteByKPI(txnCtx, id); err != nil {
			return err
		}
		return s.repo.Delete(txnCtx, id)
	})
	if err != nil {
		return err
	}

	s.notifier.NotifyAdmins(models.NotificationTypeKpiDeleted,
		"KPI deleted",
		fmt.Sprintf("%s deleted a KPI and its assignments", actor),
		nil, id, "chain_kpi")

	return nil
}

func (s *chainKPIService) GetChainKpiStats(ctx context.Context, chainID primitive.ObjectID) ([]bson.M, error) {
	return s.repo.GetChainKpiStats(ctx, chainID)
}
