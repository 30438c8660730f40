package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CompletionType string

const (
	CompletionTypeWeek CompletionType = "week"
	CompletionTypeDay  CompletionType = "day"
)

// KpiCompletion marks one week or day unit of a KPI as done. The mere
// existence of a row for (chain_kpi_id, completion_type, week_index|date_iso)
// is the completed state; rows are inserted and deleted by the toggle
// operation, never updated in place. A unique index on the triple is the
// backstop against double inserts.
type KpiCompletion struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ChainKpiID     primitive.ObjectID `json:"chain_kpi_id" bson:"chain_kpi_id"`
	CompletionType CompletionType     `json:"completion_type" bson:"completion_type"`
	WeekIndex      int                `json:"week_index,omitempty" bson:"week_index,omitempty"`
	DateISO        string             `json:"date_iso,omitempty" bson:"date_iso,omitempty"`
	CompletedBy    string             `json:"completed_by" bson:"completed_by"`
	CompletedAt    time.Time          `json:"completed_at" bson:"completed_at"`
}

// ToggleResult reports the post-toggle state of one completion key.
type ToggleResult struct {
	Completed  bool           `json:"completed"`
	Completion *KpiCompletion `json:"completion,omitempty"`
}
