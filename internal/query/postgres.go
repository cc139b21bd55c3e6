package query

import (
	"fmt"
	"strings"
)

// ContactQuery builds a parameterized WHERE fragment over the contacts
// table's JSONB fields column. Predicates join with AND.
//
// Each predicate is a superset prefilter for the matching condition, per
// the Builder contract. JSONB renders values as text differently from the
// evaluator in places (numbers may keep trailing decimals, objects print
// as JSON), so text comparisons apply only to string and boolean values;
// other types pass through for the evaluator to decide. The negative and
// presence predicates reduce to "a non-empty value is present", which is
// exactly the part of those conditions the store can check cheaply.
type ContactQuery struct {
	column     string
	conditions []string
	args       []any
	argOffset  int
}

// NewContactQuery creates a builder whose placeholders start after
// argOffset, so fragments compose with args already bound by the caller.
func NewContactQuery(argOffset int) *ContactQuery {
	return &ContactQuery{
		column:     "c.fields",
		conditions: make([]string, 0),
		args:       make([]any, 0),
		argOffset:  argOffset,
	}
}

func (q *ContactQuery) addArg(value any) string {
	q.args = append(q.args, value)
	return fmt.Sprintf("$%d", q.argOffset+len(q.args))
}

// fieldExprs binds the field name once and returns the text projection and
// the jsonb projection over the same placeholder.
func (q *ContactQuery) fieldExprs(field string) (string, string) {
	key := q.addArg(field)
	text := fmt.Sprintf("%s ->> %s::text", q.column, key)
	raw := fmt.Sprintf("%s -> %s::text", q.column, key)
	return text, raw
}

// SelectAll is the base handle over the whole contact set; it adds no
// predicate.
func (q *ContactQuery) SelectAll() Builder {
	return q
}

// IsNull keeps rows whose value is absent or renders as one of the blank
// scalars the evaluator treats as empty. String "false" and "0" slip
// through as false positives; the evaluator drops them.
func (q *ContactQuery) IsNull(field string) Builder {
	text, raw := q.fieldExprs(field)
	q.conditions = append(q.conditions, fmt.Sprintf(
		"(%s IS NULL OR %s = '' OR %s = 'false' OR (jsonb_typeof(%s) = 'number' AND (%s)::numeric = 0))",
		text, text, text, raw, text,
	))
	return q
}

func (q *ContactQuery) IsNotNull(field string) Builder {
	q.conditions = append(q.conditions, q.presentExpr(field))
	return q
}

func (q *ContactQuery) Eq(field string, value any) Builder {
	text, raw := q.fieldExprs(field)
	q.conditions = append(q.conditions, fmt.Sprintf(
		"(lower(%s) = lower(%s) OR %s)",
		text, q.addArg(stringifyValue(value)), nonTextualExpr(raw),
	))
	return q
}

// NotEq narrows to rows with a present value; whether that value differs
// from the configured one is left to the evaluator.
func (q *ContactQuery) NotEq(field string, value any) Builder {
	q.conditions = append(q.conditions, q.presentExpr(field))
	return q
}

func (q *ContactQuery) ILike(field string, pattern string) Builder {
	text, raw := q.fieldExprs(field)
	q.conditions = append(q.conditions, fmt.Sprintf(
		"(%s ILIKE %s OR %s)",
		text, q.addArg(pattern), nonTextualExpr(raw),
	))
	return q
}

// NotILike narrows to rows with a present value, like NotEq.
func (q *ContactQuery) NotILike(field string, pattern string) Builder {
	q.conditions = append(q.conditions, q.presentExpr(field))
	return q
}

// presentExpr keeps rows carrying any non-empty value for the field. Every
// record the evaluator can match with a negative or presence condition has
// one; blanks other than "" (numeric zero, false) still pass and are left
// to the evaluator.
func (q *ContactQuery) presentExpr(field string) string {
	text, _ := q.fieldExprs(field)
	return fmt.Sprintf("(%s IS NOT NULL AND %s <> '')", text, text)
}

// nonTextualExpr passes through values whose JSONB text rendering is not
// guaranteed to match the evaluator's stringification.
func nonTextualExpr(raw string) string {
	return fmt.Sprintf("jsonb_typeof(%s) NOT IN ('string', 'boolean')", raw)
}

// WhereClause returns the accumulated predicates joined with AND, or ""
// when no predicate was added.
func (q *ContactQuery) WhereClause() string {
	if len(q.conditions) == 0 {
		return ""
	}
	return strings.Join(q.conditions, " AND ")
}

// Args returns the bound arguments in placeholder order.
func (q *ContactQuery) Args() []any {
	return q.args
}
