package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChainKpiAssignment is the slice of one week's breakdown handed to one
// worker for one production step. The natural key is
// (chain_kpi_id, week_index, step_id) and is unique-indexed.
type ChainKpiAssignment struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ChainKpiID primitive.ObjectID `json:"chain_kpi_id" bson:"chain_kpi_id"`
	WeekIndex  int                `json:"week_index" bson:"week_index"`
	StepID     string             `json:"step_id" bson:"step_id"`
	AssignedTo string             `json:"assigned_to" bson:"assigned_to"`

	// DayAssignments maps a YYYY-MM-DD date to the number of work slots
	// assigned for that day. DayResults holds at most that many entries
	// per date; unset slots are nil. DayTitles carries per-slot labels.
	DayAssignments map[string]int               `json:"day_assignments" bson:"day_assignments"`
	DayTitles      map[string][]string          `json:"day_titles" bson:"day_titles"`
	DayResults     map[string][]*DayResultEntry `json:"day_results" bson:"day_results"`

	// Accepted and HandedOver are one-way ratchets: false -> true only,
	// each stamped with actor and time as one atomic unit.
	Accepted     bool       `json:"accepted" bson:"accepted"`
	AcceptedBy   string     `json:"accepted_by" bson:"accepted_by"`
	AcceptedAt   *time.Time `json:"accepted_at" bson:"accepted_at,omitempty"`
	HandedOver   bool       `json:"handed_over" bson:"handed_over"`
	HandedOverBy string     `json:"handed_over_by" bson:"handed_over_by"`
	HandedOverAt *time.Time `json:"handed_over_at" bson:"handed_over_at,omitempty"`

	Metadata Metadata `json:"metadata" bson:"metadata"`
}

// DayResultEntry is one submitted work item for a single slot.
type DayResultEntry struct {
	Link    string    `json:"link" bson:"link"`
	SavedBy string    `json:"saved_by" bson:"saved_by"`
	SavedAt time.Time `json:"saved_at" bson:"saved_at"`
}

// AssignWeekPayload creates or replaces an assignment slice.
type AssignWeekPayload struct {
	// ChainKpiID is taken from the request path, not the body.
	ChainKpiID     string              `json:"-"`
	WeekIndex      int                 `json:"week_index" validate:"required,gt=0"`
	StepID         string              `json:"step_id" validate:"required"`
	AssignedTo     string              `json:"assigned_to" validate:"required"`
	DayAssignments map[string]int      `json:"day_assignments" validate:"required"`
	DayTitles      map[string][]string `json:"day_titles"`
}

// DayResultPayload submits one slot's result link.
type DayResultPayload struct {
	Date      string `json:"date" validate:"required"`
	SlotIndex int    `json:"slot_index" validate:"min=0"`
	Link      string `json:"link" validate:"required"`
}
