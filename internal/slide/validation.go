package slide

import "time"

// Issue is a single validation finding.
type Issue struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Validation is the outcome of a validation pass. IsValid is derived from Errors
// being empty and is never set independently.
type Validation struct {
	IsValid     bool      `json:"is_valid"`
	Errors      []Issue   `json:"errors"`
	Warnings    []Issue   `json:"warnings"`
	ValidatedAt time.Time `json:"validated_at"`
}

// NewValidation returns a clean, valid record.
func NewValidation() Validation {
	return Validation{IsValid: true, Errors: []Issue{}, Warnings: []Issue{}}
}

// ErrorMessages returns the error messages in insertion order.
func (v Validation) ErrorMessages() []string {
	return messages(v.Errors)
}

// WarningMessages returns the warning messages in insertion order.
func (v Validation) WarningMessages() []string {
	return messages(v.Warnings)
}

func (v *Validation) addError(msg string, at time.Time) {
	v.Errors = append(v.Errors, Issue{Message: msg, At: at})
	v.IsValid = false
}

func (v *Validation) addWarning(msg string, at time.Time) {
	v.Warnings = append(v.Warnings, Issue{Message: msg, At: at})
}

func (v *Validation) normalize() {
	if v.Errors == nil {
		v.Errors = []Issue{}
	}
	if v.Warnings == nil {
		v.Warnings = []Issue{}
	}
	v.IsValid = len(v.Errors) == 0
}

func messages(issues []Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Message)
	}
	return out
}
