package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestConditionEquals(t *testing.T) {
	condition := FilterCondition{Field: "status", Operator: OperatorEquals, Value: "active"}

	if !condition.Matches(Record{"status": "active"}) {
		t.Fatalf("expected exact match to pass")
	}
	if !condition.Matches(Record{"status": "ACTIVE"}) {
		t.Fatalf("expected case-insensitive match to pass")
	}
	if condition.Matches(Record{"status": "inactive"}) {
		t.Fatalf("expected mismatch to fail")
	}
}

func TestConditionEqualsNumericValue(t *testing.T) {
	condition := FilterCondition{Field: "level", Operator: OperatorEquals, Value: "3"}

	if !condition.Matches(Record{"level": 3}) {
		t.Fatalf("expected int 3 to match configured \"3\"")
	}
	if !condition.Matches(Record{"level": float64(3)}) {
		t.Fatalf("expected float64 3 to match configured \"3\" without a trailing .0")
	}
}

func TestConditionStringOperators(t *testing.T) {
	record := Record{"name": "Alice Johnson"}

	cases := []struct {
		operator FilterOperator
		value    string
		want     bool
	}{
		{OperatorContains, "john", true},
		{OperatorContains, "smith", false},
		{OperatorNotContains, "smith", true},
		{OperatorNotContains, "john", false},
		{OperatorStartsWith, "alice", true},
		{OperatorStartsWith, "johnson", false},
		{OperatorEndsWith, "johnson", true},
		{OperatorEndsWith, "alice", false},
	}
	for _, tc := range cases {
		condition := FilterCondition{Field: "name", Operator: tc.operator, Value: tc.value}
		if got := condition.Matches(record); got != tc.want {
			t.Errorf("%s %q: expected %v, got %v", tc.operator, tc.value, tc.want, got)
		}
	}
}

func TestBlankValueNeverSatisfiesComparisons(t *testing.T) {
	// A record missing the field, or holding a falsy value, fails every
	// comparison operator. not_equals included: absence is not inequality.
	records := []Record{
		{},
		{"status": nil},
		{"status": ""},
		{"status": 0},
		{"status": false},
	}
	operators := []FilterOperator{
		OperatorEquals, OperatorNotEquals, OperatorContains,
		OperatorNotContains, OperatorStartsWith, OperatorEndsWith,
	}
	for _, record := range records {
		for _, operator := range operators {
			condition := FilterCondition{Field: "status", Operator: operator, Value: "anything"}
			if condition.Matches(record) {
				t.Errorf("expected %s against blank value %v to fail", operator, record["status"])
			}
		}
	}
}

func TestEmptinessOperatorsUseTruthiness(t *testing.T) {
	emptyCondition := FilterCondition{Field: "score", Operator: OperatorIsEmpty}
	notEmptyCondition := FilterCondition{Field: "score", Operator: OperatorIsNotEmpty}

	blanks := []any{nil, "", 0, int64(0), float64(0), false}
	for _, value := range blanks {
		record := Record{"score": value}
		if !emptyCondition.Matches(record) {
			t.Errorf("expected is_empty to match %#v", value)
		}
		if notEmptyCondition.Matches(record) {
			t.Errorf("expected is_not_empty to reject %#v", value)
		}
	}

	present := []any{"x", 1, int64(-2), 0.5, true}
	for _, value := range present {
		record := Record{"score": value}
		if emptyCondition.Matches(record) {
			t.Errorf("expected is_empty to reject %#v", value)
		}
		if !notEmptyCondition.Matches(record) {
			t.Errorf("expected is_not_empty to match %#v", value)
		}
	}

	if !emptyCondition.Matches(Record{}) {
		t.Fatalf("expected is_empty to match a missing field")
	}
}

func TestUnknownOperatorFailsClosed(t *testing.T) {
	condition := FilterCondition{Field: "status", Operator: "regex", Value: ".*"}
	if condition.Matches(Record{"status": "active"}) {
		t.Fatalf("expected unknown operator to never match")
	}
}

func TestGroupDefaultsToAnd(t *testing.T) {
	group := FilterGroup{Conditions: []FilterCondition{
		{Field: "status", Operator: OperatorEquals, Value: "active"},
		{Field: "role", Operator: OperatorEquals, Value: "engineer"},
	}}

	if !group.Matches(Record{"status": "active", "role": "engineer"}) {
		t.Fatalf("expected both-true record to match AND group")
	}
	if group.Matches(Record{"status": "active", "role": "manager"}) {
		t.Fatalf("expected half-true record to fail AND group")
	}
}

func TestGroupOrOperator(t *testing.T) {
	group := FilterGroup{
		Operator: BoolOr,
		Conditions: []FilterCondition{
			{Field: "status", Operator: OperatorEquals, Value: "active"},
			{Field: "role", Operator: OperatorEquals, Value: "engineer"},
		},
	}

	if !group.Matches(Record{"status": "inactive", "role": "engineer"}) {
		t.Fatalf("expected one-true record to match OR group")
	}
	if group.Matches(Record{"status": "inactive", "role": "manager"}) {
		t.Fatalf("expected all-false record to fail OR group")
	}
}

func TestGroupLegacyLogicalOperatorAlias(t *testing.T) {
	group := FilterGroup{
		LogicalOperator: BoolOr,
		Conditions: []FilterCondition{
			{Field: "status", Operator: OperatorEquals, Value: "active"},
			{Field: "role", Operator: OperatorEquals, Value: "engineer"},
		},
	}
	if group.EffectiveOperator() != BoolOr {
		t.Fatalf("expected logicalOperator to apply when operator is unset")
	}
	if !group.Matches(Record{"status": "inactive", "role": "engineer"}) {
		t.Fatalf("expected OR semantics via legacy alias")
	}

	// Operator wins when both are present.
	group.Operator = BoolAnd
	if group.EffectiveOperator() != BoolAnd {
		t.Fatalf("expected operator to take precedence over logicalOperator")
	}
}

func TestVacuousGroups(t *testing.T) {
	record := Record{"anything": "here"}

	andGroup := FilterGroup{}
	if !andGroup.Matches(record) {
		t.Fatalf("expected empty AND group to be vacuously true")
	}

	orGroup := FilterGroup{Operator: BoolOr}
	if orGroup.Matches(record) {
		t.Fatalf("expected empty OR group to be vacuously false")
	}
}

func TestConfigGroupsDefaultToOr(t *testing.T) {
	config := FilterConfig{Groups: []FilterGroup{
		{Conditions: []FilterCondition{{Field: "status", Operator: OperatorEquals, Value: "active"}}},
		{Conditions: []FilterCondition{{Field: "role", Operator: OperatorEquals, Value: "engineer"}}},
	}}

	if !config.Matches(Record{"status": "inactive", "role": "engineer"}) {
		t.Fatalf("expected one matching group to satisfy the default OR config")
	}
	if config.Matches(Record{"status": "inactive", "role": "manager"}) {
		t.Fatalf("expected no matching group to fail the config")
	}
}

func TestConfigExplicitAndAcrossGroups(t *testing.T) {
	config := FilterConfig{
		GroupOperator: BoolAnd,
		Groups: []FilterGroup{
			{Conditions: []FilterCondition{{Field: "status", Operator: OperatorEquals, Value: "active"}}},
			{Conditions: []FilterCondition{{Field: "role", Operator: OperatorEquals, Value: "engineer"}}},
		},
	}

	if !config.Matches(Record{"status": "active", "role": "engineer"}) {
		t.Fatalf("expected both groups matching to satisfy AND config")
	}
	if config.Matches(Record{"status": "inactive", "role": "engineer"}) {
		t.Fatalf("expected one failing group to fail AND config")
	}
}

func TestEmptyConfigMatchesEverything(t *testing.T) {
	config := FilterConfig{}
	if !config.Matches(Record{}) {
		t.Fatalf("expected empty config to match an empty record")
	}
	if !config.Matches(Record{"status": "anything"}) {
		t.Fatalf("expected empty config to match any record")
	}
}

func TestApplyPreservesOrderAndInput(t *testing.T) {
	records := []Record{
		{"name": "alpha", "status": "active"},
		{"name": "bravo", "status": "inactive"},
		{"name": "charlie", "status": "active"},
	}
	config := FilterConfig{Groups: []FilterGroup{
		{Conditions: []FilterCondition{{Field: "status", Operator: OperatorEquals, Value: "active"}}},
	}}

	matched := config.Apply(records)
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}
	if matched[0]["name"] != "alpha" || matched[1]["name"] != "charlie" {
		t.Fatalf("expected input order preserved, got %v", matched)
	}
	if len(records) != 3 {
		t.Fatalf("expected input slice untouched")
	}
}

func TestApplyEmptyConfigReturnsInputUnchanged(t *testing.T) {
	records := []Record{{"name": "alpha"}}
	result := FilterConfig{}.Apply(records)
	if !reflect.DeepEqual(result, records) {
		t.Fatalf("expected identity result for empty config")
	}
}

func TestConfigRoundTripsThroughJSON(t *testing.T) {
	raw := `{
		"groups": [
			{
				"logicalOperator": "OR",
				"conditions": [
					{"field": "department", "operator": "equals", "value": "engineering"},
					{"field": "department", "operator": "equals", "value": "design"}
				]
			},
			{
				"conditions": [
					{"field": "manager", "operator": "is_not_empty"}
				]
			}
		],
		"groupOperator": "AND"
	}`

	var config FilterConfig
	if err := json.Unmarshal([]byte(raw), &config); err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}

	if config.EffectiveGroupOperator() != BoolAnd {
		t.Fatalf("expected explicit AND group operator")
	}
	if config.Groups[0].EffectiveOperator() != BoolOr {
		t.Fatalf("expected legacy alias to resolve to OR")
	}
	if !config.Matches(Record{"department": "design", "manager": "casey"}) {
		t.Fatalf("expected design contact with a manager to match")
	}
	if config.Matches(Record{"department": "design"}) {
		t.Fatalf("expected contact without a manager to fail the AND config")
	}
}

func TestStaffingScenario(t *testing.T) {
	// Available senior engineers, or anyone unassigned.
	config := FilterConfig{Groups: []FilterGroup{
		{Conditions: []FilterCondition{
			{Field: "availability", Operator: OperatorEquals, Value: "available"},
			{Field: "title", Operator: OperatorContains, Value: "senior"},
		}},
		{Conditions: []FilterCondition{
			{Field: "assignment", Operator: OperatorIsEmpty},
		}},
	}}

	contacts := []Record{
		{"name": "ada", "availability": "available", "title": "Senior Engineer", "assignment": "apollo"},
		{"name": "bob", "availability": "booked", "title": "Senior Engineer", "assignment": "apollo"},
		{"name": "cam", "availability": "booked", "title": "Designer"},
	}

	matched := config.Apply(contacts)
	if len(matched) != 2 {
		t.Fatalf("expected ada and cam, got %d matches: %v", len(matched), matched)
	}
	if matched[0]["name"] != "ada" || matched[1]["name"] != "cam" {
		t.Fatalf("unexpected match set: %v", matched)
	}
}
