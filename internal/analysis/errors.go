package analysis

import "fmt"

// NotFoundError indicates a job or profile id did not resolve to a record
type NotFoundError struct {
	Kind string // "job" or "profile"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// APICallError represents an error from the LLM provider
type APICallError struct {
	Message string
	Cause   error
}

func (e *APICallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("API call failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("API call failed: %s", e.Message)
}

func (e *APICallError) Unwrap() error {
	return e.Cause
}

// ParseError represents an error parsing the LLM response
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// SchemaValidationError indicates parsed LLM output did not conform to the
// section's schema
type SchemaValidationError struct {
	Section string
	Cause   error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("section %s failed schema validation: %v", e.Section, e.Cause)
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Cause
}
