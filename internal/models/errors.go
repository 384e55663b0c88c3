package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means an entity id did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock means a deduction or adjustment would leave
	// a product's inventory below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidTransition means an order status change violated the
	// state machine.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict means a conditional write found the entity in a
	// different state than expected.
	ErrConflict = errors.New("conflict")
)

// ValidationError rejects bad input before any side effect.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
