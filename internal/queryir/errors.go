package queryir

import (
	"errors"
	"fmt"
)

// QueryError represents an error detected while building or executing a
// query.
//
// Build-phase errors (UNKNOWN_FIELD, INVALID_PLAN) are raised before any
// storage interaction. Execution-phase errors (NO_RESULT,
// NON_UNIQUE_RESULT, STORAGE) come from the engine; a STORAGE error keeps
// the collaborator's error reachable through Unwrap.
type QueryError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Entity is the source entity of the plan, when known.
	Entity string

	// Field is the offending field, for UNKNOWN_FIELD and type errors.
	Field string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes query errors.
type ErrorCode string

const (
	// ErrCodeUnknownField indicates a reference to an undeclared field.
	ErrCodeUnknownField ErrorCode = "UNKNOWN_FIELD"

	// ErrCodeInvalidPlan indicates a plan that is malformed before execution.
	ErrCodeInvalidPlan ErrorCode = "INVALID_PLAN"

	// ErrCodeNoResult indicates zero rows where exactly one was demanded.
	ErrCodeNoResult ErrorCode = "NO_RESULT"

	// ErrCodeNonUnique indicates several rows where at most one was demanded.
	ErrCodeNonUnique ErrorCode = "NON_UNIQUE_RESULT"

	// ErrCodeStorage indicates a failure surfaced by the storage handle.
	ErrCodeStorage ErrorCode = "STORAGE"
)

// Error implements the error interface.
func (e *QueryError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	switch {
	case e.Entity != "" && e.Field != "":
		msg = fmt.Sprintf("%s (entity=%s, field=%s)", msg, e.Entity, e.Field)
	case e.Entity != "":
		msg = fmt.Sprintf("%s (entity=%s)", msg, e.Entity)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewUnknownFieldError reports a field not declared on entity.
func NewUnknownFieldError(entity, field string) *QueryError {
	return &QueryError{
		Code:    ErrCodeUnknownField,
		Message: fmt.Sprintf("field %q is not declared on %s", field, entity),
		Entity:  entity,
		Field:   field,
	}
}

// NewInvalidPlanError reports a malformed plan.
func NewInvalidPlanError(entity, format string, args ...any) *QueryError {
	return &QueryError{
		Code:    ErrCodeInvalidPlan,
		Message: fmt.Sprintf(format, args...),
		Entity:  entity,
	}
}

// NewNoResultError reports zero rows for an exactly-one query.
func NewNoResultError(entity string) *QueryError {
	return &QueryError{
		Code:    ErrCodeNoResult,
		Message: "query returned no rows, exactly one expected",
		Entity:  entity,
	}
}

// NewNonUniqueError reports more than one row where at most one is allowed.
func NewNonUniqueError(entity string) *QueryError {
	return &QueryError{
		Code:    ErrCodeNonUnique,
		Message: "query returned more than one row",
		Entity:  entity,
	}
}

// NewStorageError wraps a failure from the storage handle unchanged.
func NewStorageError(entity string, err error) *QueryError {
	return &QueryError{
		Code:    ErrCodeStorage,
		Message: "storage operation failed",
		Entity:  entity,
		Err:     err,
	}
}

// CodeOf returns the code of the first QueryError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsUnknownField returns true if err is an UNKNOWN_FIELD error.
// Uses errors.As to handle wrapped errors.
func IsUnknownField(err error) bool { return CodeOf(err) == ErrCodeUnknownField }

// IsInvalidPlan returns true if err is an INVALID_PLAN error.
func IsInvalidPlan(err error) bool { return CodeOf(err) == ErrCodeInvalidPlan }

// IsNoResult returns true if err is a NO_RESULT error.
func IsNoResult(err error) bool { return CodeOf(err) == ErrCodeNoResult }

// IsNonUnique returns true if err is a NON_UNIQUE_RESULT error.
func IsNonUnique(err error) bool { return CodeOf(err) == ErrCodeNonUnique }

// IsStorage returns true if err is a STORAGE error.
func IsStorage(err error) bool { return CodeOf(err) == ErrCodeStorage }
