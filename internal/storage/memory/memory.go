// Package memory provides the default, in-memory implementation of
// storage.Storage. Records live in an ordered slice for the lifetime of
// the process and are lost on exit.
package memory

import (
	"fmt"
	"slices"
	"sync"

	"github.com/aanand-mishra/cantine-students-api/internal/storage"
	"github.com/aanand-mishra/cantine-students-api/internal/types"
)

// Memory is an ordered, mutex-guarded student list.
type Memory struct {
	mu       sync.RWMutex
	students []types.Student
}

var _ storage.Storage = (*Memory)(nil)

// New returns a store holding the given records in the given order.
// It fails if two records share a matriculation number.
func New(seed []types.Student) (*Memory, error) {
	seen := make(map[int64]struct{}, len(seed))
	for _, s := range seed {
		if _, dup := seen[s.MatrNum]; dup {
			return nil, fmt.Errorf("memory.New: duplicate matrNum %d in seed data", s.MatrNum)
		}
		seen[s.MatrNum] = struct{}{}
	}

	students := make([]types.Student, 0, len(seed))
	students = append(students, seed...)
	return &Memory{students: students}, nil
}

func (m *Memory) ListStudents() ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.students), nil
}

func (m *Memory) FindStudent(matrNum int64) (types.Student, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i := m.indexOf(matrNum)
	if i < 0 {
		return types.Student{}, false, nil
	}
	return m.students[i], true, nil
}

func (m *Memory) CreateStudent(in types.StudentInput) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	student := types.NewStudent(m.nextMatrNum(), in)
	m.students = append(m.students, student)
	return student, nil
}

func (m *Memory) UpdateStudent(matrNum int64, in types.StudentInput) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(matrNum)
	if i < 0 {
		return types.Student{}, storage.ErrNotFound
	}
	m.students[i].Apply(in)
	return m.students[i], nil
}

func (m *Memory) DeleteStudent(matrNum int64) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexOf(matrNum)
	if i < 0 {
		return types.Student{}, storage.ErrNotFound
	}
	deleted := m.students[i]
	m.students = slices.Delete(m.students, i, i+1)
	return deleted, nil
}

func (m *Memory) NextMatrNum() (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.nextMatrNum(), nil
}

// Close is a no-op; there is nothing to release.
func (m *Memory) Close() error {
	return nil
}

// indexOf and nextMatrNum expect the caller to hold mu.
func (m *Memory) indexOf(matrNum int64) int {
	return slices.IndexFunc(m.students, func(s types.Student) bool {
		return s.MatrNum == matrNum
	})
}

func (m *Memory) nextMatrNum() int64 {
	if len(m.students) == 0 {
		return types.FirstMatrNum
	}
	highest := slices.MaxFunc(m.students, func(a, b types.Student) int {
		switch {
		case a.MatrNum < b.MatrNum:
			return -1
		case a.MatrNum > b.MatrNum:
			return 1
		}
		return 0
	})
	return highest.MatrNum + 1
}
