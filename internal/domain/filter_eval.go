package domain

import (
	"fmt"
	"strings"
)

// Matches evaluates the condition against one record. It never panics:
// missing fields and unknown operators resolve to "no match", except for
// the emptiness operators which exist precisely to detect absent values.
func (c FilterCondition) Matches(record Record) bool {
	value := record[c.Field]

	switch c.Operator {
	case OperatorIsEmpty:
		return isBlank(value)
	case OperatorIsNotEmpty:
		return !isBlank(value)
	}

	// A blank record value never satisfies a comparison operator, not even
	// not_equals or not_contains. A record missing "status" does not
	// "not equal" a configured status under this engine; callers relying
	// on absence should use is_empty.
	if isBlank(value) {
		return false
	}

	have := strings.ToLower(stringify(value))
	want := strings.ToLower(stringify(c.Value))

	switch c.Operator {
	case OperatorEquals:
		return have == want
	case OperatorNotEquals:
		return have != want
	case OperatorContains:
		return strings.Contains(have, want)
	case OperatorNotContains:
		return !strings.Contains(have, want)
	case OperatorStartsWith:
		return strings.HasPrefix(have, want)
	case OperatorEndsWith:
		return strings.HasSuffix(have, want)
	default:
		// Unrecognized operators from untrusted configs fail closed.
		return false
	}
}

// Matches evaluates every condition in the group under its effective
// boolean operator. AND over an empty condition list is vacuously true,
// OR is vacuously false.
func (g FilterGroup) Matches(record Record) bool {
	if g.EffectiveOperator() == BoolOr {
		for _, condition := range g.Conditions {
			if condition.Matches(record) {
				return true
			}
		}
		return false
	}

	for _, condition := range g.Conditions {
		if !condition.Matches(record) {
			return false
		}
	}
	return true
}

// Matches evaluates the full filter tree against one record. A config
// without groups matches everything.
func (f FilterConfig) Matches(record Record) bool {
	if f.IsEmpty() {
		return true
	}

	if f.EffectiveGroupOperator() == BoolAnd {
		for _, group := range f.Groups {
			if !group.Matches(record) {
				return false
			}
		}
		return true
	}

	for _, group := range f.Groups {
		if group.Matches(record) {
			return true
		}
	}
	return false
}

// Apply returns the records satisfying the filter, preserving input order.
// An empty config returns the input unchanged; otherwise a new slice is
// allocated and the input is left untouched.
func (f FilterConfig) Apply(records []Record) []Record {
	if f.IsEmpty() {
		return records
	}

	matched := make([]Record, 0, len(records))
	for _, record := range records {
		if f.Matches(record) {
			matched = append(matched, record)
		}
	}
	return matched
}

// isBlank mirrors the truthiness test filter configs were authored
// against: nil, empty string, numeric zero, and false all count as blank.
func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	case int:
		return v == 0
	case int32:
		return v == 0
	case int64:
		return v == 0
	case uint:
		return v == 0
	case uint32:
		return v == 0
	case uint64:
		return v == 0
	case float32:
		return v == 0
	case float64:
		return v == 0
	default:
		return false
	}
}

// stringify renders a scalar the way it compares: integral floats (the
// usual shape of JSON-decoded numbers) print without a trailing ".0" so
// a stored 42 matches a configured "42".
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	case float32:
		return stringify(float64(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}
