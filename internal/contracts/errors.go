package contracts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInsufficientData is returned when the regression cannot be fitted
var ErrInsufficientData = errors.New("insufficient data for regression")

// ErrReportNotFound is returned by report stores for unknown report ids
var ErrReportNotFound = errors.New("report not found")

// ValidationError 입력 검증 실패 (계산 시작 전 즉시 실패)
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// CollectionFailure is a single entity's failed fetch or derivation
type CollectionFailure struct {
	Symbol string
	Reason string
	Err    error
}

func (e *CollectionFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("collect %s: %s: %v", e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("collect %s: %s", e.Symbol, e.Reason)
}

func (e *CollectionFailure) Unwrap() error {
	return e.Err
}

// BatchFailure aborts a comparative run
type BatchFailure struct {
	Reason   string
	Failures []string
}

func (e *BatchFailure) Error() string {
	if len(e.Failures) == 0 {
		return "batch failed: " + e.Reason
	}
	return fmt.Sprintf("batch failed: %s (failed: %s)", e.Reason, strings.Join(e.Failures, ", "))
}

// ToleranceViolation is an internal invariant failure in the gap bridge
type ToleranceViolation struct {
	Check     string
	Expected  float64
	Actual    float64
	Tolerance float64
}

func (e *ToleranceViolation) Error() string {
	return fmt.Sprintf("tolerance violation in %s: expected %.9f, got %.9f (tolerance %.2g)",
		e.Check, e.Expected, e.Actual, e.Tolerance)
}
