package action

import (
	"errors"
	"fmt"

	"lending_go/internal/domain"
)

// Failure classes. Match with errors.Is.
var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidInput       = errors.New("invalid input")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrRequestFailed      = errors.New("request failed")
)

// Error is returned by every failed build or submit. Message is user-facing.
type Error struct {
	Kind    error
	Action  domain.ActionKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %s: %v", e.Action, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Action, e.Kind, e.Message)
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func newError(kind error, action domain.ActionKind, msg string) *Error {
	return &Error{Kind: kind, Action: action, Message: msg}
}
