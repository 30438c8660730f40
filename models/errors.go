package models

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrInvalidTarget          ErrorCode = "invalid_target"
	ErrDuplicateWeekIndex     ErrorCode = "duplicate_week_index"
	ErrDuplicateDayDate       ErrorCode = "duplicate_day_date"
	ErrDayWeekSumMismatch     ErrorCode = "day_week_sum_mismatch"
	ErrWeekMonthSumMismatch   ErrorCode = "week_month_sum_mismatch"
	ErrInvalidRange           ErrorCode = "invalid_range"
	ErrNotAssignee            ErrorCode = "not_assignee"
	ErrNotAccepted            ErrorCode = "not_accepted"
	ErrInvalidSlot            ErrorCode = "invalid_slot"
	ErrNotFound               ErrorCode = "not_found"
	ErrConcurrentModification ErrorCode = "concurrent_modification"
)

// DomainError is a caller-inspectable validation or business-rule
// failure. The unit fields name the exact offending week/date/slot so
// clients can surface it without parsing the message.
type DomainError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	WeekIndex int       `json:"week_index,omitempty"`
	Date      string    `json:"date,omitempty"`
	SlotIndex int       `json:"slot_index,omitempty"`
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewDomainError(code ErrorCode, format string, args ...interface{}) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsDomainCode reports whether err is a DomainError carrying code.
func IsDomainCode(err error, code ErrorCode) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

// StorageError wraps an infrastructure failure so callers can tell
// "your input was wrong" (DomainError) from "try again".
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
