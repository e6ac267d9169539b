package processor

import "fmt"

type ValidationResult struct {
	Subject     string
	Input       string
	Valid       bool
	Explanation string
}

type Validator func(subject string, input string) ValidationResult

// AlwaysValid accepts any input.
var AlwaysValid Validator = func(subject string, input string) ValidationResult {
	return ValidationResult{Subject: subject, Input: input, Valid: true}
}

var NonEmptyValidator Validator = func(subject string, input string) ValidationResult {
	if len(input) == 0 {
		return ValidationResult{Subject: subject, Input: input, Explanation: fmt.Sprintf("%s can not be empty", subject)}
	}
	return ValidationResult{Subject: subject, Input: input, Valid: true}
}

type PropertyDescriptor struct {
	Name         string
	DisplayName  string
	Description  string
	Required     bool
	Dynamic      bool
	DefaultValue string
	Validators   []Validator
}

func (pd *PropertyDescriptor) Validate(input string) ValidationResult {
	if pd.Required && len(input) == 0 {
		return ValidationResult{Subject: pd.Name, Input: input, Explanation: fmt.Sprintf("%s is required", pd.Name)}
	}
	for _, v := range pd.Validators {
		res := v(pd.Name, input)
		if !res.Valid {
			return res
		}
	}
	return ValidationResult{Subject: pd.Name, Input: input, Valid: true}
}
