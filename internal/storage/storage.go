// Package storage defines the Storage interface — a contract that any
// student store must satisfy to work with this application.
//
// Handlers (HTTP layer) should not know or care which backend they are
// talking to. Two backends exist today:
//
//   - memory: an ordered in-memory slice, the default
//   - sqlite: the same contract persisted to a single SQLite file
//
// Every method must be safe for concurrent use: net/http serves each
// request on its own goroutine.
package storage

import (
	"errors"

	"github.com/aanand-mishra/cantine-students-api/internal/types"
)

// ErrNotFound is returned by mutating operations when no student has the
// requested matriculation number. Lookups report absence through a bool
// instead.
var ErrNotFound = errors.New("student not found")

// Storage is the student store contract.
type Storage interface {
	// ListStudents returns every student in store order.
	// Returns an empty slice (not nil) if there are no students.
	// The returned slice is owned by the caller; reordering it never
	// reorders the store.
	ListStudents() ([]types.Student, error)

	// FindStudent looks a student up by matriculation number.
	// found is false when no record matches; that is not an error.
	FindStudent(matrNum int64) (student types.Student, found bool, err error)

	// CreateStudent assigns NextMatrNum, appends the new record (credit
	// 0.0) and returns it. Numbering and insertion happen atomically.
	CreateStudent(in types.StudentInput) (types.Student, error)

	// UpdateStudent merges in into the record (see types.Student.Apply)
	// and returns the updated record, or ErrNotFound.
	UpdateStudent(matrNum int64, in types.StudentInput) (types.Student, error)

	// DeleteStudent removes the record and returns its last known data,
	// or ErrNotFound.
	DeleteStudent(matrNum int64) (types.Student, error)

	// NextMatrNum returns one more than the highest matriculation number
	// in the store, or types.FirstMatrNum when the store is empty.
	NextMatrNum() (int64, error)

	// Close releases any resources held by the backend.
	Close() error
}

// SeedStudents returns the fixed set of records a fresh store starts with.
// Each call returns new values, so callers may mutate the result freely.
func SeedStudents() []types.Student {
	return []types.Student{
		{MatrNum: 1230000033, FirstName: types.StringPtr("Jack"), LastName: types.StringPtr("Daniels"), CantineCredit: 24.5},
		{MatrNum: 1230000026, FirstName: types.StringPtr("Jim"), LastName: types.StringPtr("Beam"), CantineCredit: 1.0},
		{MatrNum: 1230000039, FirstName: types.StringPtr("Charlie"), LastName: types.StringPtr("Harper"), CantineCredit: 122000.4},
	}
}
