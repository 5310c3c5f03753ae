// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, validation and utils can all import types without
// depending on each other.
package types

// FirstMatrNum is the matriculation number handed out when the store is
// empty and there is no existing maximum to count up from.
const FirstMatrNum int64 = 1230000001

// Student represents a student record in our system.
//
// FirstName and LastName are pointers because both are nullable: a nil
// pointer encodes to JSON null, an empty string never gets stored (the
// validator rejects it before it reaches the store).
type Student struct {
	MatrNum       int64   `json:"matrNum"`
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	CantineCredit float64 `json:"cantineCredit"`
}

// StudentInput is the request body accepted by the create and update
// endpoints. Fields that are not listed here are ignored by the decoder.
//
// A nil field means "not sent" (or sent as null).
type StudentInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// NewStudent builds a freshly created record from the input. The credit
// always starts at zero.
func NewStudent(matrNum int64, in StudentInput) Student {
	return Student{
		MatrNum:       matrNum,
		FirstName:     nonEmpty(in.FirstName),
		LastName:      nonEmpty(in.LastName),
		CantineCredit: 0.0,
	}
}

// Apply merges an update into the record. Only non-null, non-empty values
// overwrite a field; absent values leave the current name in place.
// MatrNum and CantineCredit are never touched.
func (s *Student) Apply(in StudentInput) {
	if v := nonEmpty(in.FirstName); v != nil {
		s.FirstName = v
	}
	if v := nonEmpty(in.LastName); v != nil {
		s.LastName = v
	}
}

// FullName joins both names for log lines; missing parts render as "null".
func (s Student) FullName() string {
	return derefOr(s.FirstName, "null") + " " + derefOr(s.LastName, "null")
}

// StringPtr is a small helper for building records and inputs in code.
func StringPtr(s string) *string {
	return &s
}

// nonEmpty returns a private copy of v, or nil when v is nil or "".
func nonEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	c := *v
	return &c
}

func derefOr(v *string, fallback string) string {
	if v == nil {
		return fallback
	}
	return *v
}
