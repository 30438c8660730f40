package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChainKpi is the monthly numeric target for one production-chain step,
// together with its optional week/day breakdown.
type ChainKpi struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ChainID     primitive.ObjectID `json:"chain_id" bson:"chain_id"`
	TargetValue int                `json:"target_value" bson:"target_value"`
	UnitLabel   string             `json:"unit_label" bson:"unit_label"`
	Notes       string             `json:"notes" bson:"notes"`
	Year        int                `json:"year" bson:"year"`
	Month       int                `json:"month" bson:"month"`
	Weeks       []WeekBreakdown    `json:"weeks" bson:"weeks"`
	Metadata    Metadata           `json:"metadata" bson:"metadata"`
}

// WeekBreakdown is one calendar week's share of the monthly target.
// Weeks are stored sorted ascending by week_index.
type WeekBreakdown struct {
	WeekIndex    int            `json:"week_index" bson:"week_index"`
	TargetValue  int            `json:"target_value" bson:"target_value"`
	DayBreakdown []DayBreakdown `json:"day_breakdown" bson:"day_breakdown"`
}

// DayBreakdown is one day's share within a week. Date is always a
// UTC-normalized YYYY-MM-DD string, unique within its parent week.
type DayBreakdown struct {
	Date        string `json:"date" bson:"date"`
	TargetValue int    `json:"target_value" bson:"target_value"`
}

type Metadata struct {
	CreatedBy string    `json:"created_by" bson:"created_by"`
	UpdatedBy string    `json:"updated_by" bson:"updated_by"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ChainKpiPayload is the raw create/replace request body. When
// WeekBreakdown is omitted on create, StartDate/EndDate drive the
// distribution generator instead.
type ChainKpiPayload struct {
	TargetValue   int           `json:"target_value" validate:"required"`
	UnitLabel     string        `json:"unit_label"`
	Notes         string        `json:"notes"`
	Year          int           `json:"year"`
	Month         int           `json:"month" validate:"omitempty,min=1,max=12"`
	WeekBreakdown []WeekPayload `json:"week_breakdown"`
	StartDate     string        `json:"start_date"`
	EndDate       string        `json:"end_date"`
}

type WeekPayload struct {
	WeekIndex    int          `json:"week_index"`
	TargetValue  int          `json:"target_value"`
	DayBreakdown []DayPayload `json:"day_breakdown"`
}

type DayPayload struct {
	Date        string `json:"date"`
	TargetValue int    `json:"target_value"`
}

// KpiMetaPayload updates target/unit/notes only; the breakdown is
// untouched but re-checked against a changed target.
type KpiMetaPayload struct {
	TargetValue int    `json:"target_value" validate:"required"`
	UnitLabel   string `json:"unit_label"`
	Notes       string `json:"notes"`
}

// WeekDaysPayload replaces the day-level entries of one existing week.
type WeekDaysPayload struct {
	WeekIndex    int          `json:"week_index" validate:"required"`
	DayBreakdown []DayPayload `json:"day_breakdown" validate:"required"`
}
