// Package query translates filter configs onto chainable query builders so
// the common single-group case can be narrowed inside the data store before
// the in-memory evaluator makes the final call.
package query

import (
	"fmt"
	"strings"

	"github.com/rosterhq/roster/internal/domain"
)

// Builder is the opaque chainable handle a data store exposes for
// constructing a remote prefilter. The translator only chains predicates
// onto it; executing or awaiting the query stays with the caller.
//
// A builder must render each predicate as a SUPERSET of the rows the
// in-memory evaluator would match for the same condition: it may keep rows
// the evaluator rejects, never the other way around. Callers re-evaluate
// the fetched rows with the in-memory engine, which stays the source of
// truth.
type Builder interface {
	SelectAll() Builder
	IsNull(field string) Builder
	IsNotNull(field string) Builder
	Eq(field string, value any) Builder
	NotEq(field string, value any) Builder
	ILike(field string, pattern string) Builder
	NotILike(field string, pattern string) Builder
}

// Translate chains the filter's predicates onto a base "select all" handle.
//
// Translation is deliberately partial: only the first group is translated
// (later groups are ignored) and its predicates combine under the builder's
// own conjunction regardless of the group's configured operator. Callers
// must consult Translatable before trusting this path, and must still run
// the in-memory evaluator over whatever the store returns.
func Translate(builder Builder, config domain.FilterConfig) Builder {
	if config.IsEmpty() {
		return builder
	}

	for _, condition := range config.Groups[0].Conditions {
		switch condition.Operator {
		case domain.OperatorIsEmpty:
			builder = builder.IsNull(condition.Field)
		case domain.OperatorIsNotEmpty:
			builder = builder.IsNotNull(condition.Field)
		case domain.OperatorEquals:
			builder = builder.Eq(condition.Field, condition.Value)
		case domain.OperatorNotEquals:
			builder = builder.NotEq(condition.Field, condition.Value)
		case domain.OperatorContains:
			builder = builder.ILike(condition.Field, "%"+likeValue(condition.Value)+"%")
		case domain.OperatorNotContains:
			builder = builder.NotILike(condition.Field, "%"+likeValue(condition.Value)+"%")
		case domain.OperatorStartsWith:
			builder = builder.ILike(condition.Field, likeValue(condition.Value)+"%")
		case domain.OperatorEndsWith:
			builder = builder.ILike(condition.Field, "%"+likeValue(condition.Value))
		default:
			// Unknown operators have no prefilter; Translatable rejects them.
		}
	}

	return builder
}

// Translatable reports whether Translate can render a prefilter covering
// the whole config: at most one group, combined with AND, and every
// operator known. Configs outside that shape gain nothing from the store
// and must be evaluated entirely client-side.
func Translatable(config domain.FilterConfig) bool {
	if config.IsEmpty() {
		return true
	}
	if len(config.Groups) > 1 {
		return false
	}
	group := config.Groups[0]
	if group.EffectiveOperator() != domain.BoolAnd {
		return false
	}
	for _, condition := range group.Conditions {
		if !condition.Operator.IsKnown() {
			return false
		}
	}
	return true
}

// likeValue renders a condition value for use inside a LIKE pattern.
// Backslashes are escaped so a literal backslash in the value cannot eat
// the character after it; % and _ are left alone, which only widens the
// pattern and keeps the superset property.
func likeValue(value any) string {
	return strings.ReplaceAll(stringifyValue(value), `\`, `\\`)
}

func stringifyValue(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	if f, ok := value.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", value)
}
