package table

import (
	"github.com/dynamori/dynamori/internal/expr"
	"github.com/dynamori/dynamori/pkg/core"
	"github.com/dynamori/dynamori/pkg/errors"
)

// ValidateKeyCondition checks a key condition against the access path it
// will be sent to. Every referenced attribute must belong to the path's key,
// the partition key must be present, and no attribute may be constrained
// twice.
func ValidateKeyCondition(q core.Queryable, cond *expr.Condition) error {
	if cond == nil {
		return &errors.ConditionError{
			Err: errors.ErrInvalidKeyCondition,
			Op:  "key condition",
		}
	}

	key := q.Key()
	schema := q.Schema()
	seen := make(map[string]bool)
	hasPartitionKey := false

	for _, path := range cond.Paths() {
		if !key.Contains(path) {
			err := errors.ErrInvalidKeyCondition
			if !schema.HasAttribute(path) && !isKeyAttribute(schema, path) {
				err = errors.ErrUnknownAttribute
			}
			return &errors.ConditionError{Err: err, Path: path, Op: "key condition"}
		}
		if seen[path] {
			return &errors.ConditionError{
				Err:  errors.ErrMultipleConditions,
				Path: path,
				Op:   "key condition",
			}
		}
		seen[path] = true
		if path == key.PartitionKey {
			hasPartitionKey = true
		}
	}

	if !hasPartitionKey {
		return &errors.ConditionError{
			Err:  errors.ErrInvalidKeyCondition,
			Path: key.PartitionKey,
			Op:   "key condition",
		}
	}
	return nil
}

// ValidateFilter checks that a filter only references declared attributes.
// A nil filter is valid.
func ValidateFilter(q core.Queryable, cond *expr.Condition) error {
	if cond == nil {
		return nil
	}
	schema := q.Schema()
	for _, path := range cond.Paths() {
		if !schema.HasAttribute(path) && !isKeyAttribute(schema, path) {
			return &errors.ConditionError{
				Err:  errors.ErrUnknownAttribute,
				Path: path,
				Op:   "filter",
			}
		}
	}
	return nil
}

// isKeyAttribute reports whether the attribute participates in the base key
// or any index key, even when it is not listed under Attributes.
func isKeyAttribute(schema *core.TableSchema, path string) bool {
	if schema == nil {
		return false
	}
	if schema.Key.Contains(path) {
		return true
	}
	for _, key := range schema.Indexes {
		if key.Contains(path) {
			return true
		}
	}
	return false
}
