package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrNotFound     = errors.New("not found")    // 404
	ErrCapacity     = errors.New("capacity")     // 400
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrForbidden    = errors.New("forbidden")    // 403
	ErrConflict     = errors.New("conflict")     // 400
)

// CapacityError reports a request for more copies than a book has in stock.
type CapacityError struct {
	Title     string
	Available int
}

func (e *CapacityError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("Insufficient stock. Only %d available.", e.Available)
	}
	return fmt.Sprintf("Insufficient stock for \"%s\". Available: %d", e.Title, e.Available)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacity
}

// Message is the text shown to the caller for a service error.
func Message(err error) string {
	var capErr *CapacityError
	if errors.As(err, &capErr) {
		return capErr.Error()
	}
	var msgErr *messageError
	if errors.As(err, &msgErr) {
		return msgErr.msg
	}
	return err.Error()
}

// messageError carries a caller-facing message on top of a sentinel.
type messageError struct {
	kind error
	msg  string
}

func (e *messageError) Error() string { return e.msg }
func (e *messageError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &messageError{kind: kind, msg: msg}
}
