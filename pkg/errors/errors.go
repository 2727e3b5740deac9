// Package errors defines error types and utilities for dynamori
package errors

import (
	"errors"
	"fmt"
)

// Common errors that can occur in dynamori operations
var (
	// ErrItemNotFound is returned when an item does not exist in the table
	ErrItemNotFound = errors.New("item not found")

	// ErrTableNotFound is returned when the table itself does not exist
	ErrTableNotFound = errors.New("table not found")

	// ErrMultipleConditions is returned when more than one condition targets
	// the same attribute path within a single request
	ErrMultipleConditions = errors.New("multiple conditions on one attribute")

	// ErrUnknownAttribute is returned when a condition references an
	// attribute that is not declared on the table schema
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrInvalidKeyCondition is returned when a non-key attribute is used in
	// a key condition
	ErrInvalidKeyCondition = errors.New("invalid key condition")

	// ErrInvalidOperator is returned when an unsupported comparison operator
	// is used in a condition or keyword filter
	ErrInvalidOperator = errors.New("invalid query operator")

	// ErrBatchSizeExceeded is returned when a 26th request is queued on a
	// batch writer that has auto-commit disabled
	ErrBatchSizeExceeded = errors.New("batch size exceeded")

	// ErrDuplicateBatchKey is returned when two writes against the same item
	// key are queued without a commit in between
	ErrDuplicateBatchKey = errors.New("duplicate key in batch")

	// ErrBatchRetriesExhausted is returned when the server keeps reporting
	// unprocessed items past the configured retry ceiling
	ErrBatchRetriesExhausted = errors.New("batch retries exhausted")

	// ErrCapacityUnavailable is returned when a rate-limited scan cannot
	// observe consumed capacity and is not allowed to proceed without it
	ErrCapacityUnavailable = errors.New("consumed capacity unavailable")

	// ErrScanAborted is returned when a rate-limited scan exceeds its
	// consecutive-failure threshold
	ErrScanAborted = errors.New("scan aborted")

	// ErrIteratorExhausted is returned when Next is called on an iterator
	// that has already produced its final page or item
	ErrIteratorExhausted = errors.New("iterator exhausted")
)

// ConditionError reports a condition that failed client-side validation
// before any request was issued.
type ConditionError struct {
	Err  error
	Path string
	Op   string
}

func (e *ConditionError) Error() string {
	if e == nil {
		return "dynamori: condition error"
	}
	if e.Op != "" {
		return fmt.Sprintf("dynamori: condition %s on %q: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("dynamori: condition on %q: %v", e.Path, e.Err)
}

func (e *ConditionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// BatchError reports a batch coordinator failure, carrying the table and the
// number of requests still outstanding when the coordinator gave up.
type BatchError struct {
	Err       error
	TableName string
	Remaining int
	Attempts  int
}

func (e *BatchError) Error() string {
	if e == nil {
		return "dynamori: batch operation failed"
	}
	if e.Remaining > 0 {
		return fmt.Sprintf("dynamori: batch on %s failed with %d unprocessed after %d attempts: %v",
			e.TableName, e.Remaining, e.Attempts, e.Err)
	}
	return fmt.Sprintf("dynamori: batch on %s failed: %v", e.TableName, e.Err)
}

func (e *BatchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match the wrapped sentinel.
func (e *BatchError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// ScanAbortedError reports a rate-limited scan that hit its
// consecutive-failure ceiling. The last transport error is wrapped.
type ScanAbortedError struct {
	Err          error
	Consecutive  int
	PagesFetched int
}

func (e *ScanAbortedError) Error() string {
	if e == nil {
		return "dynamori: scan aborted"
	}
	return fmt.Sprintf("dynamori: scan aborted after %d consecutive failures (%d pages fetched): %v",
		e.Consecutive, e.PagesFetched, e.Err)
}

func (e *ScanAbortedError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *ScanAbortedError) Is(target error) bool {
	return target == ErrScanAborted || errors.Is(e.Err, target)
}

// TableError wraps a transport failure with the table it occurred on.
type TableError struct {
	Err       error
	TableName string
	Op        string
}

func (e *TableError) Error() string {
	if e == nil {
		return "dynamori: table operation failed"
	}
	return fmt.Sprintf("dynamori: %s on %s failed: %v", e.Op, e.TableName, e.Err)
}

func (e *TableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *TableError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsNotFound checks if an error indicates a missing item or table.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) || errors.Is(err, ErrTableNotFound)
}

// IsBatchSizeExceeded checks for the batch enqueue cap violation.
func IsBatchSizeExceeded(err error) bool {
	return errors.Is(err, ErrBatchSizeExceeded)
}

// IsScanAborted checks whether a scan hit its consecutive-failure ceiling.
func IsScanAborted(err error) bool {
	return errors.Is(err, ErrScanAborted)
}
