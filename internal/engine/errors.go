package engine

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes pipeline errors.
type ErrorCode string

const (
	// ErrCodeSourceUnavailable indicates a change source or the upstream
	// done queue could not be read.
	ErrCodeSourceUnavailable ErrorCode = "SOURCE_UNAVAILABLE"

	// ErrCodeWriteFailure indicates a queue write failed.
	ErrCodeWriteFailure ErrorCode = "WRITE_FAILURE"

	// ErrCodeWatermarkFailure indicates a watermark could not be loaded or
	// persisted.
	ErrCodeWatermarkFailure ErrorCode = "WATERMARK_FAILURE"
)

// PipelineError is returned by a failed aggregator cycle or router pass.
// The loop logs it and retries on the next cycle.
type PipelineError struct {
	Code ErrorCode

	// Op names what failed, e.g. a source name or queue table.
	Op string

	Err error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewSourceError wraps a failed poll of the named source.
func NewSourceError(source string, err error) *PipelineError {
	return &PipelineError{Code: ErrCodeSourceUnavailable, Op: source, Err: err}
}

// NewWriteError wraps a failed queue write.
func NewWriteError(op string, err error) *PipelineError {
	return &PipelineError{Code: ErrCodeWriteFailure, Op: op, Err: err}
}

// NewWatermarkError wraps a failed watermark load or store.
func NewWatermarkError(name string, err error) *PipelineError {
	return &PipelineError{Code: ErrCodeWatermarkFailure, Op: name, Err: err}
}

func hasCode(err error, code ErrorCode) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// IsSourceUnavailable reports whether err is a source failure.
// Uses errors.As to handle wrapped errors.
func IsSourceUnavailable(err error) bool { return hasCode(err, ErrCodeSourceUnavailable) }

// IsWriteFailure reports whether err is a queue write failure.
func IsWriteFailure(err error) bool { return hasCode(err, ErrCodeWriteFailure) }

// IsWatermarkFailure reports whether err is a watermark failure.
func IsWatermarkFailure(err error) bool { return hasCode(err, ErrCodeWatermarkFailure) }
