package services

import (
	"context"
	"time"

	"chainkpi/logger"
	"chainkpi/models"
	repository "chainkpi/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AdminRole is the role-broadcast audience for planner-facing notices.
const AdminRole = "admin"

// NotificationService is the fire-and-forget side channel. Notify never
// blocks the caller and never returns an error: delivery is best-effort,
// at-most-once, and a failure is logged and discarded so it can never
// abort or revert the state transition that triggered it.
type NotificationService interface {
	Notify(audience string, notificationType models.NotificationType, title, message string, metadata map[string]interface{}, entityID primitive.ObjectID, entityKind string)
	NotifyAdmins(notificationType models.NotificationType, title, message string, metadata map[string]interface{}, entityID primitive.ObjectID, entityKind string)
	ListForActor(ctx context.Context, userID, role string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, userID, role string) error
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{
		repo: repo,
	}
}

func (s *notificationService) Notify(audience string, notificationType models.NotificationType, title, message string, metadata map[string]interface{}, entityID primitive.ObjectID, entityKind string) {
	notification := &models.Notification{
		Audience:   audience,
		Type:       notificationType,
		Title:      title,
		Message:    message,
		Metadata:   metadata,
		EntityID:   entityID,
		EntityKind: entityKind,
		CreatedAt:  time.Now(),
	}

	// Dispatch after the caller's transaction has returned; the caller
	// is never made to wait on delivery.
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Get().Warn("notification dispatch panicked",
					zap.Any("panic", rec),
					zap.String("audience", audience),
					zap.String("type", string(notificationType)))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.repo.Insert(ctx, notification); err != nil {
			logger.Get().Warn("notification dropped",
				zap.Error(err),
				zap.String("audience", audience),
				zap.String("type", string(notificationType)),
				zap.String("title", title))
		}
	}()
}

func (s *notificationService) NotifyAdmins(notificationType models.NotificationType, title, message string, metadata map[string]interface{}, entityID primitive.ObjectID, entityKind string) {
	s.Notify(models.RoleAudience(AdminRole), notificationType, title, message, metadata, entityID, entityKind)
}

func (s *notificationService) ListForActor(ctx context.Context, userID, role string) ([]models.Notification, error) {
	return s.repo.ListByAudiences(ctx, actorAudiences(userID, role))
}

func (s *notificationService) MarkRead(ctx context.Context, id primitive.ObjectID, userID, role string) error {
	return s.repo.MarkRead(ctx, id, actorAudiences(userID, role), time.Now())
}

func actorAudiences(userID, role string) []string {
	audiences := []string{userID}
	if role != "" {
		audiences = append(audiences, models.RoleAudience(role))
	}
	return audiences
}
