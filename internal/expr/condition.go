// Package expr implements the condition model and the expression compiler:
// an immutable condition tree built through constructor functions, compiled
// into DynamoDB expression strings with deterministic placeholder aliases.
package expr

// kind tags the variant of a condition node.
type kind int

const (
	kindComparison kind = iota
	kindBetween
	kindIn
	kindExists
	kindNotExists
	kindBeginsWith
	kindContains
	kindAnd
	kindOr
	kindNot
)

// Condition is one node of an immutable condition tree. Nodes are obtained
// only through the constructor functions below and composed with And, Or,
// and Not.
type Condition struct {
	path     string
	operator string
	operands []any
	children []*Condition
	kind     kind
}

func newComparison(path, operator string, value any) *Condition {
	return &Condition{kind: kindComparison, path: path, operator: operator, operands: []any{value}}
}

// Eq builds `path = value`.
func Eq(path string, value any) *Condition { return newComparison(path, "=", value) }

// Ne builds `path <> value`.
func Ne(path string, value any) *Condition { return newComparison(path, "<>", value) }

// Lt builds `path < value`.
func Lt(path string, value any) *Condition { return newComparison(path, "<", value) }

// Le builds `path <= value`.
func Le(path string, value any) *Condition { return newComparison(path, "<=", value) }

// Gt builds `path > value`.
func Gt(path string, value any) *Condition { return newComparison(path, ">", value) }

// Ge builds `path >= value`.
func Ge(path string, value any) *Condition { return newComparison(path, ">=", value) }

// Between builds `path BETWEEN lower AND upper`.
func Between(path string, lower, upper any) *Condition {
	return &Condition{kind: kindBetween, path: path, operands: []any{lower, upper}}
}

// In builds `path IN (v1, v2, ...)`.
func In(path string, values ...any) *Condition {
	return &Condition{kind: kindIn, path: path, operands: values}
}

// Exists builds `attribute_exists (path)`.
func Exists(path string) *Condition {
	return &Condition{kind: kindExists, path: path}
}

// NotExists builds `attribute_not_exists (path)`.
func NotExists(path string) *Condition {
	return &Condition{kind: kindNotExists, path: path}
}

// BeginsWith builds `begins_with (path, prefix)`.
func BeginsWith(path string, prefix string) *Condition {
	return &Condition{kind: kindBeginsWith, path: path, operands: []any{prefix}}
}

// Contains builds `contains (path, value)`.
func Contains(path string, value any) *Condition {
	return &Condition{kind: kindContains, path: path, operands: []any{value}}
}

// And combines two conditions into `(left AND right)`. Nil operands
// collapse to the other side so callers can fold optional conditions.
func And(left, right *Condition) *Condition {
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}
	return &Condition{kind: kindAnd, children: []*Condition{left, right}}
}

// Or combines two conditions into `(left OR right)`.
func Or(left, right *Condition) *Condition {
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}
	return &Condition{kind: kindOr, children: []*Condition{left, right}}
}

// Not negates a condition: `(NOT inner)`.
func Not(inner *Condition) *Condition {
	if inner == nil {
		return nil
	}
	return &Condition{kind: kindNot, children: []*Condition{inner}}
}

// And chains fluently: c.And(other).
func (c *Condition) And(other *Condition) *Condition { return And(c, other) }

// Or chains fluently: c.Or(other).
func (c *Condition) Or(other *Condition) *Condition { return Or(c, other) }

// Paths returns every attribute path referenced by the tree, in encounter
// order, with duplicates preserved. The query layer uses it to detect
// undeclared attributes and conflicting key conditions.
func (c *Condition) Paths() []string {
	if c == nil {
		return nil
	}
	var paths []string
	c.walk(func(n *Condition) {
		if n.path != "" {
			paths = append(paths, n.path)
		}
	})
	return paths
}

func (c *Condition) walk(fn func(*Condition)) {
	fn(c)
	for _, child := range c.children {
		child.walk(fn)
	}
}
