package domain

import (
	"fmt"
	"strings"
)

// FilterValidation reports structural problems in a filter config. Errors
// are display-ready strings identifying the offending group and condition
// by 1-based position.
type FilterValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks that every condition carries a field, an operator, and,
// unless the operator is an emptiness check, a value. A config without
// groups is always valid.
func (f FilterConfig) Validate() FilterValidation {
	errors := []string{}

	for groupIdx, group := range f.Groups {
		for condIdx, condition := range group.Conditions {
			position := fmt.Sprintf("Group %d, Condition %d", groupIdx+1, condIdx+1)

			if strings.TrimSpace(condition.Field) == "" {
				errors = append(errors, position+": Field is required")
			}
			if condition.Operator == "" {
				errors = append(errors, position+": Operator is required")
			}
			if condition.Operator.RequiresValue() && valueMissing(condition.Value) {
				errors = append(errors, position+": Value is required")
			}
		}
	}

	return FilterValidation{Valid: len(errors) == 0, Errors: errors}
}

func valueMissing(value any) bool {
	if value == nil {
		return true
	}
	s, ok := value.(string)
	return ok && s == ""
}
