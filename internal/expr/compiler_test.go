package expr_test

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dynamori/dynamori/internal/expr"
)

func TestCompileComparisons(t *testing.T) {
	tests := []struct {
		name         string
		cond         *expr.Condition
		expectedExpr string
	}{
		{
			name:         "equality",
			cond:         expr.Eq("id", "123"),
			expectedExpr: "#0 = :0",
		},
		{
			name:         "not equal",
			cond:         expr.Ne("status", "closed"),
			expectedExpr: "#0 <> :0",
		},
		{
			name:         "less than",
			cond:         expr.Lt("views", 10),
			expectedExpr: "#0 < :0",
		},
		{
			name:         "less or equal",
			cond:         expr.Le("views", 10),
			expectedExpr: "#0 <= :0",
		},
		{
			name:         "greater than",
			cond:         expr.Gt("views", 10),
			expectedExpr: "#0 > :0",
		},
		{
			name:         "greater or equal",
			cond:         expr.Ge("views", 10),
			expectedExpr: "#0 >= :0",
		},
		{
			name:         "between",
			cond:         expr.Between("ts", 1000, 2000),
			expectedExpr: "#0 BETWEEN :0 AND :1",
		},
		{
			name:         "in",
			cond:         expr.In("status", "open", "pending"),
			expectedExpr: "#0 IN (:0, :1)",
		},
		{
			name:         "begins with",
			cond:         expr.BeginsWith("sk", "USER#"),
			expectedExpr: "begins_with (#0, :0)",
		},
		{
			name:         "contains",
			cond:         expr.Contains("email", "@"),
			expectedExpr: "contains (#0, :0)",
		},
		{
			name:         "exists",
			cond:         expr.Exists("email"),
			expectedExpr: "attribute_exists (#0)",
		},
		{
			name:         "not exists",
			cond:         expr.NotExists("deleted_at"),
			expectedExpr: "attribute_not_exists (#0)",
		},
		{
			name:         "negation",
			cond:         expr.Not(expr.Eq("id", "123")),
			expectedExpr: "(NOT #0 = :0)",
		},
		{
			name:         "conjunction",
			cond:         expr.Eq("id", "123").And(expr.Gt("views", 10)),
			expectedExpr: "(#0 = :0 AND #1 > :1)",
		},
		{
			name:         "disjunction",
			cond:         expr.Eq("id", "123").Or(expr.Eq("id", "456")),
			expectedExpr: "(#0 = :0 OR #0 = :1)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiler := expr.NewCompiler()
			got, err := compiler.Compile(tt.cond)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedExpr, got)
		})
	}
}

func TestCompileAliasOrder(t *testing.T) {
	// Aliases must be numbered in first-use order across the whole tree.
	cond := expr.Contains("email", "@").
		And(expr.Exists("verified")).
		And(expr.Between("age", 2, 3))

	compiler := expr.NewCompiler()
	got, err := compiler.Compile(cond)
	require.NoError(t, err)

	assert.Equal(t, "((contains (#0, :0) AND attribute_exists (#1)) AND #2 BETWEEN :1 AND :2)", got)
	assert.Equal(t, map[string]string{
		"#0": "email",
		"#1": "verified",
		"#2": "age",
	}, compiler.Names())
	assert.Equal(t, map[string]types.AttributeValue{
		":0": &types.AttributeValueMemberS{Value: "@"},
		":1": &types.AttributeValueMemberN{Value: "2"},
		":2": &types.AttributeValueMemberN{Value: "3"},
	}, compiler.Values())
}

func TestCompileSharedAliasesAcrossFragments(t *testing.T) {
	// One compiler serves the key condition and the filter of a request, so
	// the second fragment continues the numbering instead of restarting.
	compiler := expr.NewCompiler()

	keyExpr, err := compiler.Compile(expr.Eq("pk", "USER#1").And(expr.Gt("sk", 100)))
	require.NoError(t, err)
	filterExpr, err := compiler.Compile(expr.Eq("status", "active"))
	require.NoError(t, err)

	assert.Equal(t, "(#0 = :0 AND #1 > :1)", keyExpr)
	assert.Equal(t, "#2 = :2", filterExpr)
	assert.Len(t, compiler.Names(), 3)
	assert.Len(t, compiler.Values(), 3)
}

func TestCompileValueDeduplication(t *testing.T) {
	// Equal literals share one value alias; distinct paths never share a
	// name alias.
	cond := expr.Eq("status", "active").And(expr.Eq("previous_status", "active"))

	compiler := expr.NewCompiler()
	got, err := compiler.Compile(cond)
	require.NoError(t, err)

	assert.Equal(t, "(#0 = :0 AND #1 = :0)", got)
	assert.Len(t, compiler.Names(), 2)
	assert.Len(t, compiler.Values(), 1)
}

func TestCompileSamePathReusesNameAlias(t *testing.T) {
	cond := expr.Ge("ts", 1000).And(expr.Le("ts", 2000))

	compiler := expr.NewCompiler()
	got, err := compiler.Compile(cond)
	require.NoError(t, err)

	assert.Equal(t, "(#0 >= :0 AND #0 <= :1)", got)
	assert.Len(t, compiler.Names(), 1)
}

func TestCompileDistinguishesTypedLiterals(t *testing.T) {
	// The string "1" and the number 1 are different literals and must not
	// collapse into one alias.
	cond := expr.Eq("a", "1").And(expr.Eq("b", 1))

	compiler := expr.NewCompiler()
	got, err := compiler.Compile(cond)
	require.NoError(t, err)

	assert.Equal(t, "(#0 = :0 AND #1 = :1)", got)
	assert.Len(t, compiler.Values(), 2)
}

func TestCompileRawAttributeValuePassthrough(t *testing.T) {
	cond := expr.Eq("pk", &types.AttributeValueMemberS{Value: "USER#1"})

	compiler := expr.NewCompiler()
	_, err := compiler.Compile(cond)
	require.NoError(t, err)

	assert.Equal(t, map[string]types.AttributeValue{
		":0": &types.AttributeValueMemberS{Value: "USER#1"},
	}, compiler.Values())
}

func TestCompileNilCondition(t *testing.T) {
	compiler := expr.NewCompiler()
	got, err := compiler.Compile(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Nil(t, compiler.Names())
	assert.Nil(t, compiler.Values())
}

func TestCompileEmptyIn(t *testing.T) {
	compiler := expr.NewCompiler()
	_, err := compiler.Compile(expr.In("status"))
	assert.Error(t, err)
}

func TestConditionPaths(t *testing.T) {
	cond := expr.Eq("a", 1).And(expr.Not(expr.Eq("b", 2).Or(expr.Exists("a"))))
	assert.Equal(t, []string{"a", "b", "a"}, cond.Paths())
}

func TestNilCollapsingCombinators(t *testing.T) {
	only := expr.Eq("id", "123")
	assert.Same(t, only, expr.And(nil, only))
	assert.Same(t, only, expr.And(only, nil))
	assert.Same(t, only, expr.Or(nil, only))
	assert.Nil(t, expr.Not(nil))
}
