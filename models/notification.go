package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeKpiCreated        NotificationType = "kpi_created"
	NotificationTypeKpiUpdated        NotificationType = "kpi_updated"
	NotificationTypeKpiDeleted        NotificationType = "kpi_deleted"
	NotificationTypeWeekAssigned      NotificationType = "week_assigned"
	NotificationTypeAssignmentAccept  NotificationType = "assignment_accepted"
	NotificationTypeAssignmentHanded  NotificationType = "assignment_handed_over"
	NotificationTypeResultSubmitted   NotificationType = "result_submitted"
	NotificationTypeCompletionToggled NotificationType = "completion_toggled"
)

// RoleAudience builds a role-broadcast audience value, e.g. "role:admin".
func RoleAudience(role string) string {
	return "role:" + role
}

// Notification is one best-effort notice persisted for a user audience
// (a user id) or a role broadcast ("role:<role>").
type Notification struct {
	ID         primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Audience   string                 `json:"audience" bson:"audience"`
	Type       NotificationType       `json:"type" bson:"type"`
	Title      string                 `json:"title" bson:"title"`
	Message    string                 `json:"message" bson:"message"`
	Metadata   map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	EntityID   primitive.ObjectID     `json:"entity_id,omitempty" bson:"entity_id,omitempty"`
	EntityKind string                 `json:"entity_kind,omitempty" bson:"entity_kind,omitempty"`
	Read       bool                   `json:"read" bson:"read"`
	ReadAt     *time.Time             `json:"read_at,omitempty" bson:"read_at,omitempty"`
	CreatedAt  time.Time              `json:"created_at" bson:"created_at"`
}
