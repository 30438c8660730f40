package services

import (
	"context"
	"fmt"
	"time"

	"chainkpi/models"
	repository "chainkpi/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssignmentService interface {
	AssignWeek(ctx context.Context, payload *models.AssignWeekPayload, actor string) (*models.ChainKpiAssignment, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.ChainKpiAssignment, error)
	ListByKPI(ctx context.Context, chainKpiID primitive.ObjectID) ([]models.ChainKpiAssignment, error)
	Accept(ctx context.Context, id primitive.ObjectID, actor string) (*models.ChainKpiAssignment, error)
	HandOver(ctx context.Context, id primitive.ObjectID, actor string) (*models.ChainKpiAssignment, error)
	SubmitResult(ctx context.Context, id primitive.ObjectID, payload *models.DayResultPayload, actor string) (*models.ChainKpiAssignment, error)
}

type assignmentService struct {
	repo     repository.AssignmentRepository
	kpiRepo  repository.ChainKPIRepository
	notifier NotificationService
}

func NewAssignmentService(repo repository.AssignmentRepository, kpiRepo repository.ChainKPIRepository, notifier NotificationService) AssignmentService {
	return &assignmentService{
		repo:     repo,
		kpiRepo:  kpiRepo,
		notifier: notifier,
	}
}

// AssignWeek creates or replaces the slice for one
// (chain_kpi_id, week_index, step_id) key. Replacing keeps the ratchet
// flags and carries over already-submitted results slot by slot:
// shrinking a day truncates trailing results, growing appends empty
// slots. Already-submitted work is never silently discarded for a slot
// that still exists at the same index.
func (s *assignmentService) AssignWeek(ctx context.Context, payload *models.AssignWeekPayload, actor string) (*models.ChainKpiAssignment, error) {
	chainKpiID, err := primitive.ObjectIDFromHex(payload.ChainKpiID)
	if err != nil {
		return nil, models.NewDomainError(models.ErrNotFound, "invalid chain_kpi_id %q", payload.ChainKpiID)
	}

	counts, titles, err := normalizeSlice(payload.DayAssignments, payload.DayTitles)
	if err != nil {
		return nil, err
	}

	var assignment *models.ChainKpiAssignment
	err = s.repo.WithTransaction(ctx, func(txnCtx context.Context) error {
		if _, err := s.kpiRepo.GetByID(txnCtx, chainKpiID); err != nil {
			return err
		}

		now := time.Now()
		existing, err := s.repo.GetByKey(txnCtx, chainKpiID, payload.WeekIndex, payload.StepID)
		if err != nil {
			if !models.IsDomainCode(err, models.ErrNotFound) {
				return err
			}

			assignment = &models.ChainKpiAssignment{
				ChainKpiID:     chainKpiID,
				WeekIndex:      payload.WeekIndex,
				StepID:         payload.StepID,
				AssignedTo:     payload.AssignedTo,
				DayAssignments: counts,
				DayTitles:      titles,
				DayResults:     resliceResults(nil, counts),
				Metadata: models.Metadata{
					CreatedBy: actor,
					UpdatedBy: actor,
					CreatedAt: now,
					UpdatedAt: now,
				},
			}
			return s.repo.Insert(txnCtx, assignment)
		}

		existing.AssignedTo = payload.AssignedTo
		existing.DayAssignments = counts
		existing.DayTitles = titles
		existing.DayResults = resliceResults(existing.DayResults, counts)
		existing.Metadata.UpdatedBy = actor
		existing.Metadata.UpdatedAt = now

		if err := s.repo.Replace(txnCtx, existing.ID, existing); err != nil {
			return err
		}
		assignment = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(assignment.AssignedTo, models.NotificationTypeWeekAssigned,
		"Week assigned",
		fmt.Sprintf("%s assigned you week %d of step %s", actor, assignment.WeekIndex, assignment.StepID),
		map[string]interface{}{"chain_kpi_id": assignment.ChainKpiID.Hex()},
		assignment.ID, "assignment")

	return assignment, nil
}

func (s *assignmentService) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ChainKpiAssignment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *assignmentService) ListByKPI(ctx context.Context, chainKpiID primitive.ObjectID) ([]models.ChainKpiAssignment, error) {
	return s.repo.ListByKPI(ctx, chainKpiID)
}

// Accept flips the accepted ratchet. Only the assignee may accept;
// accepting an already-accepted assignment succeeds without touching the
// original actor/timestamp stamp.
func (s *assignmentService) Accept(ctx context.Context, id primitive.ObjectID, actor string) (*models.ChainKpiAssignment, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment.AssignedTo != actor {
		return nil, models.NewDomainError(models.ErrNotAssignee,
			"only the assignee %s may accept this assignment", assignment.AssignedTo)
	}
	if assignment.Accepted {
		return assignment, nil
	}

	now := time.Now()
	changed, err := s.repo.MarkAccepted(ctx, id, actor, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Lost the race to another accept call; the ratchet is set
		// either way, so re-read the winning stamp.
		return s.repo.GetByID(ctx, id)
	}

	assignment.Accepted = true
	assignment.AcceptedBy = actor
	assignment.AcceptedAt = &now

	s.notifier.NotifyAdmins(models.NotificationTypeAssignmentAccept,
		"Assignment accepted",
		fmt.Sprintf("%s accepted week %d of step %s", actor, assignment.WeekIndex, assignment.StepID),
		nil, assignment.ID, "assignment")

	return assignment, nil
}

// HandOver flips the handed_over ratchet, independent of accepted and
// idempotent in the same way.
func (s *assignmentService) HandOver(ctx context.Context, id primitive.ObjectID, actor string) (*models.ChainKpiAssignment, error) {
	assignment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if assignment.HandedOver {
		return assignment, nil
	}

	now := time.Now()
	changed, err := s.repo.MarkHandedOver(ctx, id, actor, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return s.repo.GetByID(ctx, id)
	}

	assignment.HandedOver = true
	assignment.HandedOverBy = actor
	assignment.HandedOverAt = &now

	s.notifier.NotifyAdmins(models.NotificationTypeAssignmentHanded,
		"Assignment handed over",
		fmt.Sprintf("%s handed over week %d of step %s", actor, assignment.WeekIndex, assignment.StepID),
		nil, assignment.ID, "assignment")

	return assignment, nil
}

// SubmitResult records one slot's link. The assignment must have been
// accepted first, the date must carry assigned slots, and the slot
// index must be inside the assigned count. Re-submitting the same slot
// overwrites it (last write wins).
func (s *assignmentService) SubmitResult(ctx context.Context, id primitive.ObjectID, payload *models.DayResultPayload, actor string) (*models.ChainKpiAssignment, error) {
	date, err := NormalizeDate(payload.Date)
	if err != nil {
		return nil, err
	}

	var assignment *models.ChainKpiAssignment
	err = s.repo.WithTransaction(ctx, func(txnCtx context.Context) error {
		existing, err := s.repo.GetByID(txnCtx, id)
		if err != nil {
			return err
		}
		if !existing.Accepted {
			return models.NewDomainError(models.ErrNotAccepted,
				"assignment must be accepted before results can be submitted")
		}

		slotCount, ok := existing.DayAssignments[date]
		if !ok {
			return &models.DomainError{
				Code:    models.ErrInvalidSlot,
				Message: "no slots assigned for this date",
				Date:    date,
			}
		}
		if payload.SlotIndex < 0 || payload.SlotIndex >= slotCount {
			return &models.DomainError{
				Code:      models.ErrInvalidSlot,
				Message:   fmt.Sprintf("slot index out of range, day has %d slots", slotCount),
				Date:      date,
				SlotIndex: payload.SlotIndex,
			}
		}

		// Backfill missing slots before the written one as empty; the
		// slice never grows past the assigned count.
		results := existing.DayResults[date]
		for len(results) <= payload.SlotIndex {
			results = append(results, nil)
		}
		results[payload.SlotIndex] = &models.DayResultEntry{
			Link:    payload.Link,
			SavedBy: actor,
			SavedAt: time.Now(),
		}

		if err := s.repo.SetDayResults(txnCtx, id, date, results, actor); err != nil {
			return err
		}

		if existing.DayResults == nil {
			existing.DayResults = make(map[string][]*models.DayResultEntry)
		}
		existing.DayResults[date] = results
		assignment = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.NotifyAdmins(models.NotificationTypeResultSubmitted,
		"Result submitted",
		fmt.Sprintf("%s submitted a result for %s slot %d", actor, date, payload.SlotIndex),
		map[string]interface{}{"date": date, "slot_index": payload.SlotIndex},
		assignment.ID, "assignment")

	return assignment, nil
}

// normalizeSlice normalizes day keys to UTC YYYY-MM-DD and pads or
// truncates per-day titles to the slot count.
func normalizeSlice(dayAssignments map[string]int, dayTitles map[string][]string) (map[string]int, map[string][]string, error) {
	counts := make(map[string]int, len(dayAssignments))
	titles := make(map[string][]string, len(dayAssignments))

	for rawDate, count := range dayAssignments {
		date, err := NormalizeDate(rawDate)
		if err != nil {
			return nil, nil, err
		}
		if count < 0 {
			return nil, nil, &models.DomainError{
				Code:    models.ErrInvalidSlot,
				Message: "slot count must be non-negative",
				Date:    date,
			}
		}
		counts[date] = count

		dayLabels := make([]string, count)
		copy(dayLabels, dayTitles[rawDate])
		titles[date] = dayLabels
	}

	return counts, titles, nil
}

// resliceResults fits existing results to new slot counts: same-index
// results survive, trailing results of a shrunken day are truncated,
// grown days gain empty slots, and dates no longer assigned are dropped.
func resliceResults(old map[string][]*models.DayResultEntry, counts map[string]int) map[string][]*models.DayResultEntry {
	results := make(map[string][]*models.DayResultEntry, len(counts))
	for date, count := range counts {
		slots := make([]*models.DayResultEntry, count)
		copy(slots, old[date])
		results[date] = slots
	}
	return results
}
