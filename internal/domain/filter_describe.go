package domain

import (
	"fmt"
	"strings"
)

// NoFiltersDescription is returned for configs without groups.
const NoFiltersDescription = "No filters applied"

// Describe renders the filter tree as a human-readable sentence, e.g.
// `(Status equals "open" and Name contains "corp") OR (Title is empty)`.
func (f FilterConfig) Describe() string {
	if f.IsEmpty() {
		return NoFiltersDescription
	}

	wrap := len(f.Groups) > 1
	groupTexts := make([]string, 0, len(f.Groups))
	for _, group := range f.Groups {
		text := group.describe()
		if wrap {
			text = "(" + text + ")"
		}
		groupTexts = append(groupTexts, text)
	}

	return strings.Join(groupTexts, " "+string(f.EffectiveGroupOperator())+" ")
}

func (g FilterGroup) describe() string {
	parts := make([]string, 0, len(g.Conditions))
	for _, condition := range g.Conditions {
		parts = append(parts, condition.describe())
	}
	joiner := strings.ToLower(string(g.EffectiveOperator()))
	return strings.Join(parts, " "+joiner+" ")
}

func (c FilterCondition) describe() string {
	field := humanizeField(c.Field)

	switch c.Operator {
	case OperatorIsEmpty:
		return field + " is empty"
	case OperatorIsNotEmpty:
		return field + " is not empty"
	}

	operator := strings.ReplaceAll(string(c.Operator), "_", " ")
	value := stringify(c.Value)
	if value == "" {
		value = "(empty)"
	}
	return fmt.Sprintf("%s %s %q", field, operator, value)
}

// humanizeField turns a snake_case field name into display form:
// "first_name" becomes "First Name".
func humanizeField(field string) string {
	words := strings.Split(strings.ReplaceAll(field, "_", " "), " ")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
