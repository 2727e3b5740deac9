package expr

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dynamori/dynamori/pkg/errors"
)

// Keyword is one entry of the legacy keyword-filter syntax: an attribute
// name with an optional double-underscore operator suffix, e.g.
// "views__gt" or "email__begins_with". Entries are supplied as an ordered
// slice so multi-entry filters fold deterministically.
type Keyword struct {
	Name  string
	Value any
}

// Kw builds a keyword-filter entry.
func Kw(name string, value any) Keyword {
	return Keyword{Name: name, Value: value}
}

// Conditional operators accepted by NormalizeKeywordFilters.
const (
	OperatorAnd = "AND"
	OperatorOr  = "OR"
)

// NormalizeKeywordFilters converts legacy keyword filters into a condition
// tree. Multiple entries fold left-to-right into nested binary nodes joined
// by conditionalOperator (default AND), in declaration order. Two entries
// against the same attribute fail with ErrMultipleConditions.
func NormalizeKeywordFilters(filters []Keyword, conditionalOperator string) (*Condition, error) {
	joiner, err := normalizeConditionalOperator(conditionalOperator)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(filters))
	var root *Condition
	for _, filter := range filters {
		node, path, err := normalizeKeyword(filter)
		if err != nil {
			return nil, err
		}
		if seen[path] {
			return nil, &errors.ConditionError{
				Err:  errors.ErrMultipleConditions,
				Path: path,
			}
		}
		seen[path] = true

		if root == nil {
			root = node
		} else if joiner == OperatorOr {
			root = Or(root, node)
		} else {
			root = And(root, node)
		}
	}
	return root, nil
}

func normalizeConditionalOperator(op string) (string, error) {
	switch strings.ToUpper(op) {
	case "":
		return OperatorAnd, nil
	case OperatorAnd:
		return OperatorAnd, nil
	case OperatorOr:
		return OperatorOr, nil
	default:
		return "", fmt.Errorf("%w: conditional operator %q", errors.ErrInvalidOperator, op)
	}
}

func normalizeKeyword(filter Keyword) (*Condition, string, error) {
	path, suffix := splitKeyword(filter.Name)
	if path == "" {
		return nil, "", fmt.Errorf("%w: empty attribute in keyword filter %q",
			errors.ErrInvalidOperator, filter.Name)
	}

	switch suffix {
	case "", "eq":
		return Eq(path, filter.Value), path, nil
	case "ne":
		return Ne(path, filter.Value), path, nil
	case "lt":
		return Lt(path, filter.Value), path, nil
	case "le":
		return Le(path, filter.Value), path, nil
	case "gt":
		return Gt(path, filter.Value), path, nil
	case "ge":
		return Ge(path, filter.Value), path, nil
	case "between":
		bounds, err := operandSlice(filter.Value)
		if err != nil || len(bounds) != 2 {
			return nil, "", fmt.Errorf("%w: between filter on %q requires exactly two values",
				errors.ErrInvalidOperator, path)
		}
		return Between(path, bounds[0], bounds[1]), path, nil
	case "in":
		values, err := operandSlice(filter.Value)
		if err != nil || len(values) == 0 {
			return nil, "", fmt.Errorf("%w: in filter on %q requires a non-empty slice",
				errors.ErrInvalidOperator, path)
		}
		return In(path, values...), path, nil
	case "contains":
		return Contains(path, filter.Value), path, nil
	case "begins_with":
		prefix, ok := filter.Value.(string)
		if !ok {
			return nil, "", fmt.Errorf("%w: begins_with filter on %q requires a string",
				errors.ErrInvalidOperator, path)
		}
		return BeginsWith(path, prefix), path, nil
	case "null":
		isNull, ok := filter.Value.(bool)
		if !ok {
			return nil, "", fmt.Errorf("%w: null filter on %q requires a bool",
				errors.ErrInvalidOperator, path)
		}
		if isNull {
			return NotExists(path), path, nil
		}
		return Exists(path), path, nil
	default:
		return nil, "", fmt.Errorf("%w: unsupported keyword suffix %q",
			errors.ErrInvalidOperator, suffix)
	}
}

func splitKeyword(name string) (path, suffix string) {
	idx := strings.LastIndex(name, "__")
	if idx < 0 {
		return name, ""
	}
	return name[:idx], name[idx+2:]
}

// operandSlice widens any slice type into []any so keyword filters accept
// []string, []int, and friends.
func operandSlice(value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.Kind() != reflect.Slice {
			return nil, fmt.Errorf("value of type %T is not a slice", value)
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = rv.Index(i).Interface()
		}
		return out, nil
	}
}
