package services

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors. Typed errors below match them with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("slot conflict")
	ErrInsufficientPoints = errors.New("insufficient reward points")
	ErrInsufficientSlots  = errors.New("insufficient slots")
	ErrAlreadyCancelled   = errors.New("booking already cancelled")
	ErrInvalidSlot        = errors.New("invalid slot")
	ErrInvalidPreset      = errors.New("invalid preset")
	ErrInvalidTimeFormat  = errors.New("invalid time format")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
)

// ValidationError reports a bad request field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError names the missing entity
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConflictError identifies the first day and slot that is already taken
type ConflictError struct {
	Day  time.Time
	Slot string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("slot %s is already booked on %s", e.Slot, e.Day.Format("2006-01-02"))
}

// Is lets errors.Is(err, ErrConflict) match
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// SlotError is a slot resolution failure. Kind is one of ErrInvalidSlot,
// ErrInvalidPreset, ErrInvalidTimeFormat or ErrInsufficientSlots.
type SlotError struct {
	Kind    error
	Slot    string
	Message string
}

func (e *SlotError) Error() string {
	return e.Message
}

// Is matches the slot error kind
func (e *SlotError) Is(target error) bool {
	return target == e.Kind
}

// InsufficientPointsError reports the shortfall of a points operation
type InsufficientPointsError struct {
	Available int
	Requested int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient reward points: available %d, requested %d", e.Available, e.Requested)
}

// Is lets errors.Is(err, ErrInsufficientPoints) match
func (e *InsufficientPointsError) Is(target error) bool {
	return target == ErrInsufficientPoints
}
