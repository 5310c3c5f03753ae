// Package validation checks student request bodies before they reach the
// store.
//
// Each mode has its own schema: a struct whose validate:"..." tags name
// the constraints for every field. The go-playground validator walks the
// fields in declaration order; Student merges its errors with JSON type
// errors so violations come back ordered the same way (firstName before
// lastName).
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/cantine-students-api/internal/types"
)

// Mode selects which schema a body is checked against.
type Mode int

const (
	// RequireAll is used when creating: both names must be present.
	RequireAll Mode = iota
	// Partial is used when updating: names are optional.
	Partial
)

// Constraint names as reported in a Violation.
const (
	ConstraintRequired = "required"
	ConstraintMin      = "min"
	ConstraintString   = "string"
	ConstraintObject   = "object"
)

// Violation is one failed constraint on one field.
type Violation struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

// Result holds every violation in field order. A Result without
// violations means the body is valid.
type Result struct {
	Violations []Violation
}

// Valid reports whether no constraint failed.
func (r Result) Valid() bool {
	return len(r.Violations) == 0
}

// First returns the first violation. Only call it on an invalid Result.
func (r Result) First() Violation {
	return r.Violations[0]
}

// Error implements error using the first violation's message, which is
// what clients get to see.
func (r Result) Error() string {
	if r.Valid() {
		return ""
	}
	return r.First().Message
}

type createSchema struct {
	FirstName *string `json:"firstName" validate:"required,min=1"`
	LastName  *string `json:"lastName"  validate:"required,min=1"`
}

type updateSchema struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1"`
	LastName  *string `json:"lastName"  validate:"omitempty,min=1"`
}

// A single *validator.Validate caches struct metadata and is safe for
// concurrent use.
var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name ("firstName"), not the Go name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Body is a request body split into its top-level fields. Each value is
// kept as raw JSON so that type checks run in field order together with
// the schema constraints.
type Body map[string]json.RawMessage

// ErrTrailingData is returned by Decode when the body holds more than one
// JSON value.
var ErrTrailingData = errors.New("request body must contain a single JSON object")

// Decode reads one JSON object from r. An empty body decodes to an empty
// Body. Valid JSON that is not an object returns an invalid Result as the
// error; malformed JSON, trailing data and read errors are returned as is.
func Decode(r io.Reader) (Body, error) {
	dec := json.NewDecoder(r)

	var body Body
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return Body{}, nil
		}
		if res, ok := FromDecodeError(err); ok {
			return nil, res
		}
		return nil, err
	}
	if body == nil {
		// A literal null.
		return nil, notObject()
	}

	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return body, nil
	case err == nil:
		return nil, ErrTrailingData
	default:
		return nil, err
	}
}

// fieldOrder lists the checked fields by JSON name, in declaration order.
var fieldOrder = jsonFields(reflect.TypeOf(createSchema{}))

func jsonFields(t reflect.Type) []string {
	names := make([]string, 0, t.NumField())
	for i := range t.NumField() {
		names = append(names, strings.SplitN(t.Field(i).Tag.Get("json"), ",", 2)[0])
	}
	return names
}

// Student validates body against the schema for mode and returns the
// decoded names. Each field is checked in order: presence, then type
// (strings only, null included), then length. The Result lists at most
// one violation per field.
func Student(body Body, mode Mode) (types.StudentInput, Result) {
	values := make(map[string]*string, len(fieldOrder))
	mistyped := make(map[string]bool)
	for _, field := range fieldOrder {
		raw, ok := body[field]
		if !ok {
			continue
		}
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil || s == nil {
			mistyped[field] = true
			continue
		}
		values[field] = s
	}

	in := types.StudentInput{FirstName: values["firstName"], LastName: values["lastName"]}

	var schema any
	switch mode {
	case RequireAll:
		schema = createSchema{FirstName: in.FirstName, LastName: in.LastName}
	default:
		schema = updateSchema{FirstName: in.FirstName, LastName: in.LastName}
	}

	// A mistyped field is present but left nil above, so the schema may
	// report it as missing. The type violation replaces that.
	schemaErrs := make(map[string]Violation)
	if err := validate.Struct(schema); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return in, Result{Violations: []Violation{{
				Constraint: ConstraintObject,
				Message:    err.Error(),
			}}}
		}
		for _, fe := range fieldErrs {
			schemaErrs[fe.Field()] = Violation{
				Field:      fe.Field(),
				Constraint: fe.Tag(),
				Message:    message(fe.Field(), fe.Tag(), fe.Param()),
			}
		}
	}

	var violations []Violation
	for _, field := range fieldOrder {
		if mistyped[field] {
			violations = append(violations, Violation{
				Field:      field,
				Constraint: ConstraintString,
				Message:    message(field, ConstraintString, ""),
			})
			continue
		}
		if v, ok := schemaErrs[field]; ok {
			violations = append(violations, v)
		}
	}
	return in, Result{Violations: violations}
}

// FromDecodeError turns a JSON type mismatch into a violation. A mismatch
// at the top level (e.g. an array body) means the body is not an object.
// It returns false for errors that are not type mismatches, such as
// malformed JSON.
func FromDecodeError(err error) (Result, bool) {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		return Result{}, false
	}

	if typeErr.Field == "" {
		return notObject(), true
	}

	return Result{Violations: []Violation{{
		Field:      typeErr.Field,
		Constraint: ConstraintString,
		Message:    message(typeErr.Field, ConstraintString, ""),
	}}}, true
}

func notObject() Result {
	return Result{Violations: []Violation{{
		Field:      "value",
		Constraint: ConstraintObject,
		Message:    `"value" must be of type object`,
	}}}
}

func message(field, constraint, param string) string {
	switch constraint {
	case ConstraintRequired:
		return fmt.Sprintf("%q is required", field)
	case ConstraintMin:
		if param == "1" {
			return fmt.Sprintf("%q is not allowed to be empty", field)
		}
		return fmt.Sprintf("%q length must be at least %s characters long", field, param)
	case ConstraintString:
		return fmt.Sprintf("%q must be a string", field)
	default:
		return fmt.Sprintf("%q is invalid", field)
	}
}
