package repository

import (
	"context"
	"time"

	"chainkpi/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepository interface {
	Insert(ctx context.Context, notification *models.Notification) error
	ListByAudiences(ctx context.Context, audiences []string) ([]models.Notification, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, audiences []string, at time.Time) error
}

type notificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) NotificationRepository {
	return &notificationRepository{
		collection: db.Collection("notifications"),
	}
}

func (r *notificationRepository) Insert(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()

	if _, err := r.collection.InsertOne(ctx, notification); err != nil {
		return models.NewStorageError("notifications.insert", err)
	}
	return nil
}

func (r *notificationRepository) ListByAudiences(ctx context.Context, audiences []string) ([]models.Notification, error) {
	filter := bson.M{"audience": bson.M{"$in": audiences}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(200)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, models.NewStorageError("notifications.list", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, models.NewStorageError("notifications.list", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id primitive.ObjectID, audiences []string, at time.Time) error {
	filter := bson.M{"_id": id, "audience": bson.M{"$in": audiences}}
	update := bson.M{"$set": bson.M{"read": true, "read_at": at}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return models.NewStorageError("notifications.mark_read", err)
	}
	if result.MatchedCount == 0 {
		return models.NewDomainError(models.ErrNotFound, "notification %s not found", id.Hex())
	}
	return nil
}
