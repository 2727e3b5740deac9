package expr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Compiler walks condition trees and emits expression strings plus the
// name/value alias maps. One compiler serves all fragments of a single
// request: compiling the key condition and then the filter against the same
// compiler guarantees aliases are never duplicated between the two.
//
// Aliases are allocated in first-use order, starting at #0 and :0. A value
// alias is reused when an operand with the same serialized literal appears
// again; a path always resolves to the same name alias within one pass.
type Compiler struct {
	names        map[string]string
	values       map[string]types.AttributeValue
	nameAliases  map[string]string // path -> alias
	valueAliases map[string]string // serialized literal -> alias
	nameCounter  int
	valueCounter int
}

// NewCompiler returns a fresh compiler with empty alias maps. Compilers are
// single-use: created per request, discarded once the request is built.
func NewCompiler() *Compiler {
	return &Compiler{
		names:        make(map[string]string),
		values:       make(map[string]types.AttributeValue),
		nameAliases:  make(map[string]string),
		valueAliases: make(map[string]string),
	}
}

// Names returns the ExpressionAttributeNames map (alias -> attribute name).
func (c *Compiler) Names() map[string]string {
	if len(c.names) == 0 {
		return nil
	}
	return c.names
}

// Values returns the ExpressionAttributeValues map (alias -> value).
func (c *Compiler) Values() map[string]types.AttributeValue {
	if len(c.values) == 0 {
		return nil
	}
	return c.values
}

// Compile renders the condition tree into an expression string, populating
// the shared alias maps. A nil condition compiles to the empty string.
func (c *Compiler) Compile(cond *Condition) (string, error) {
	if cond == nil {
		return "", nil
	}
	return c.render(cond)
}

func (c *Compiler) render(cond *Condition) (string, error) {
	switch cond.kind {
	case kindComparison:
		valueRef, err := c.addValue(cond.operands[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", c.addName(cond.path), cond.operator, valueRef), nil

	case kindBetween:
		lowerRef, err := c.addValue(cond.operands[0])
		if err != nil {
			return "", err
		}
		upperRef, err := c.addValue(cond.operands[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s BETWEEN %s AND %s", c.addName(cond.path), lowerRef, upperRef), nil

	case kindIn:
		if len(cond.operands) == 0 {
			return "", fmt.Errorf("IN condition on %q requires at least one value", cond.path)
		}
		nameRef := c.addName(cond.path)
		valueRefs := make([]string, 0, len(cond.operands))
		for _, operand := range cond.operands {
			ref, err := c.addValue(operand)
			if err != nil {
				return "", err
			}
			valueRefs = append(valueRefs, ref)
		}
		return fmt.Sprintf("%s IN (%s)", nameRef, strings.Join(valueRefs, ", ")), nil

	case kindExists:
		return fmt.Sprintf("attribute_exists (%s)", c.addName(cond.path)), nil

	case kindNotExists:
		return fmt.Sprintf("attribute_not_exists (%s)", c.addName(cond.path)), nil

	case kindBeginsWith:
		valueRef, err := c.addValue(cond.operands[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("begins_with (%s, %s)", c.addName(cond.path), valueRef), nil

	case kindContains:
		valueRef, err := c.addValue(cond.operands[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("contains (%s, %s)", c.addName(cond.path), valueRef), nil

	case kindAnd, kindOr:
		op := "AND"
		if cond.kind == kindOr {
			op = "OR"
		}
		left, err := c.render(cond.children[0])
		if err != nil {
			return "", err
		}
		right, err := c.render(cond.children[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", left, op, right), nil

	case kindNot:
		inner, err := c.render(cond.children[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(NOT %s)", inner), nil

	default:
		return "", fmt.Errorf("unsupported condition kind %d", cond.kind)
	}
}

// Ref returns the name alias for an attribute path, allocating one on first
// use. Projection expressions are built from these refs so they share the
// request's alias map.
func (c *Compiler) Ref(path string) string {
	return c.addName(path)
}

// addName returns the alias for an attribute path, allocating a new one on
// first use.
func (c *Compiler) addName(path string) string {
	if alias, ok := c.nameAliases[path]; ok {
		return alias
	}
	alias := fmt.Sprintf("#%d", c.nameCounter)
	c.nameCounter++
	c.nameAliases[path] = alias
	c.names[alias] = path
	return alias
}

// addValue returns the alias for a literal operand, reusing an existing
// alias when the serialized literal has been seen before in this pass.
func (c *Compiler) addValue(value any) (string, error) {
	av, err := toAttributeValue(value)
	if err != nil {
		return "", err
	}

	literal := serializeLiteral(av)
	if alias, ok := c.valueAliases[literal]; ok {
		return alias, nil
	}

	alias := fmt.Sprintf(":%d", c.valueCounter)
	c.valueCounter++
	c.valueAliases[literal] = alias
	c.values[alias] = av
	return alias, nil
}

func toAttributeValue(value any) (types.AttributeValue, error) {
	if av, ok := value.(types.AttributeValue); ok {
		return av, nil
	}
	av, err := attributevalue.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to convert value of type %T: %w", value, err)
	}
	return av, nil
}

// Fingerprint returns a canonical string for an attribute value. The batch
// coordinators use it to detect duplicate keys client-side.
func Fingerprint(av types.AttributeValue) string {
	return serializeLiteral(av)
}

// serializeLiteral produces a canonical string for an attribute value so
// that equal literals share one alias. The encoding only needs to be
// injective, not readable.
func serializeLiteral(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return "S:" + v.Value
	case *types.AttributeValueMemberN:
		return "N:" + v.Value
	case *types.AttributeValueMemberB:
		return "B:" + string(v.Value)
	case *types.AttributeValueMemberBOOL:
		return fmt.Sprintf("BOOL:%t", v.Value)
	case *types.AttributeValueMemberNULL:
		return "NULL"
	case *types.AttributeValueMemberSS:
		return "SS:" + strings.Join(v.Value, "\x1f")
	case *types.AttributeValueMemberNS:
		return "NS:" + strings.Join(v.Value, "\x1f")
	case *types.AttributeValueMemberBS:
		parts := make([]string, len(v.Value))
		for i, b := range v.Value {
			parts[i] = string(b)
		}
		return "BS:" + strings.Join(parts, "\x1f")
	case *types.AttributeValueMemberL:
		parts := make([]string, len(v.Value))
		for i, member := range v.Value {
			parts[i] = serializeLiteral(member)
		}
		return "L:[" + strings.Join(parts, ",") + "]"
	case *types.AttributeValueMemberM:
		keys := make([]string, 0, len(v.Value))
		for k := range v.Value {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + serializeLiteral(v.Value[k])
		}
		return "M:{" + strings.Join(parts, ",") + "}"
	default:
		return fmt.Sprintf("%#v", av)
	}
}
