package domain

// Record is one filterable entity: a flat mapping from field name to a
// scalar value. Records are supplied by callers per evaluation and are
// never mutated or retained by the filter engine.
type Record = map[string]any

// FilterOperator enumerates the comparison operators supported by filter
// conditions. Values arriving from deserialized configs may fall outside
// this set; the evaluator treats those as non-matching.
type FilterOperator string

const (
	OperatorEquals      FilterOperator = "equals"
	OperatorNotEquals   FilterOperator = "not_equals"
	OperatorContains    FilterOperator = "contains"
	OperatorNotContains FilterOperator = "not_contains"
	OperatorStartsWith  FilterOperator = "starts_with"
	OperatorEndsWith    FilterOperator = "ends_with"
	OperatorIsEmpty     FilterOperator = "is_empty"
	OperatorIsNotEmpty  FilterOperator = "is_not_empty"
)

// RequiresValue reports whether conditions using this operator need a
// comparison value. The emptiness checks operate on the record alone.
func (op FilterOperator) RequiresValue() bool {
	return op != OperatorIsEmpty && op != OperatorIsNotEmpty
}

// IsKnown reports whether the operator belongs to the supported set.
func (op FilterOperator) IsKnown() bool {
	switch op {
	case OperatorEquals, OperatorNotEquals, OperatorContains, OperatorNotContains,
		OperatorStartsWith, OperatorEndsWith, OperatorIsEmpty, OperatorIsNotEmpty:
		return true
	}
	return false
}

// BoolOperator combines conditions within a group or groups within a config.
type BoolOperator string

const (
	BoolAnd BoolOperator = "AND"
	BoolOr  BoolOperator = "OR"
)

// The two default boolean operators are intentionally different: conditions
// inside a group combine with AND, while groups combine with OR. Both
// defaults are load-bearing for configs built by the filter UI.
const (
	DefaultGroupOperator  = BoolAnd
	DefaultConfigOperator = BoolOr
)

// FilterCondition is a single field/operator/value comparison rule.
type FilterCondition struct {
	Field    string         `json:"field"`
	Operator FilterOperator `json:"operator"`
	Value    any            `json:"value,omitempty"`
}

// FilterGroup is an ordered set of conditions combined by one boolean
// operator. LogicalOperator is a legacy alias consulted when Operator is
// unset; configs persisted by older filter builders still carry it.
type FilterGroup struct {
	Conditions      []FilterCondition `json:"conditions"`
	Operator        BoolOperator      `json:"operator,omitempty"`
	LogicalOperator BoolOperator      `json:"logicalOperator,omitempty"`
}

// EffectiveOperator resolves the group's boolean operator: Operator, else
// LogicalOperator, else the group default (AND).
func (g FilterGroup) EffectiveOperator() BoolOperator {
	if g.Operator != "" {
		return g.Operator
	}
	if g.LogicalOperator != "" {
		return g.LogicalOperator
	}
	return DefaultGroupOperator
}

// FilterConfig is the full filter tree: groups combined by a top-level
// boolean operator. An absent or empty Groups slice means "no filter".
type FilterConfig struct {
	Groups        []FilterGroup `json:"groups"`
	GroupOperator BoolOperator  `json:"groupOperator,omitempty"`
}

// EffectiveGroupOperator resolves the top-level boolean operator,
// defaulting to OR. Note the asymmetry with the in-group default.
func (f FilterConfig) EffectiveGroupOperator() BoolOperator {
	if f.GroupOperator != "" {
		return f.GroupOperator
	}
	return DefaultConfigOperator
}

// IsEmpty reports whether the config carries no groups, meaning every
// record matches unconditionally.
func (f FilterConfig) IsEmpty() bool {
	return len(f.Groups) == 0
}
