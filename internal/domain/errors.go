package domain

import (
	"errors"
	"fmt"
)

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// UnauthorizedError means no valid session/credentials were presented.
type UnauthorizedError struct {
	Msg string
	Err error
}

func (e UnauthorizedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "unauthorized"
}

func (e UnauthorizedError) Unwrap() error { return e.Err }

// ForbiddenError means the actor is authenticated but not allowed to act on
// this resource.
type ForbiddenError struct {
	Resource string
	Action   string
	Err      error
}

func (e ForbiddenError) Error() string {
	if e.Resource != "" && e.Action != "" {
		return fmt.Sprintf("not allowed to %s %s", e.Action, e.Resource)
	}
	if e.Resource != "" {
		return fmt.Sprintf("not allowed to access %s", e.Resource)
	}
	return "forbidden"
}

func (e ForbiddenError) Unwrap() error { return e.Err }

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

// BusinessRuleError covers operations rejected by ledger rules: wrong status
// for a transition, insufficient available balance, and similar.
type BusinessRuleError struct {
	Rule string
	Msg  string
	Err  error
}

func (e BusinessRuleError) Error() string {
	switch {
	case e.Msg != "" && e.Rule != "":
		return fmt.Sprintf("%s: %s", e.Rule, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Rule != "":
		return e.Rule
	default:
		return "business rule violation"
	}
}

func (e BusinessRuleError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsUnauthorized(err error) bool {
	var target UnauthorizedError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsBusinessRule(err error) bool {
	var target BusinessRuleError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
