// Package validator checks usecase input structs against their `validate`
// tags and reports failures as a field -> message map.
package validator

// Validator validates tagged structs.
type Validator interface {
	Validate(data any) error
}

// FieldErrors is returned when one or more fields fail validation. Keys are
// snake_case field names.
type FieldErrors interface {
	error
	Values() map[string]string
}
