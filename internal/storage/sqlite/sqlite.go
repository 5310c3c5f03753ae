// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The store keeps the same ordering contract as the in-memory backend:
// rows carry a surrogate AUTOINCREMENT id and every list query orders by
// it, so students come back in insertion order rather than by matrNum.
//
// The blank import below registers the sqlite3 driver with database/sql.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/aanand-mishra/cantine-students-api/internal/config"
	"github.com/aanand-mishra/cantine-students-api/internal/storage"
	"github.com/aanand-mishra/cantine-students-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
//
// The pool is capped at a single connection. SQLite serialises writers
// anyway, and one connection turns every transaction below into a
// critical section, which is what keeps matrNum assignment unique.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

const studentColumns = "matr_num, first_name, last_name, cantine_credit"

// New opens the SQLite database at cfg.Storage.Path, creates the students
// table if it does not already exist and, unless cfg.Storage.SkipSeed is
// set, fills an empty table with the seed records.
func New(cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Schema:
	//   id             — insertion order
	//   matr_num       — public identifier, unique
	//   first_name     — nullable
	//   last_name      — nullable
	//   cantine_credit — balance in EUR
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			matr_num       INTEGER NOT NULL UNIQUE,
			first_name     TEXT,
			last_name      TEXT,
			cantine_credit REAL    NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	s := &SQLite{Db: db}
	if !cfg.Storage.SkipSeed {
		if err := s.seed(storage.SeedStudents()); err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// seed inserts students only when the table is empty, so restarting the
// server against an existing file keeps its data.
func (s *SQLite) seed(students []types.Student) error {
	tx, err := s.Db.Begin()
	if err != nil {
		return fmt.Errorf("seed: begin: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM students").Scan(&count); err != nil {
		return fmt.Errorf("seed: count: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, st := range students {
		if err := insert(tx, st); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit: %w", err)
	}
	return nil
}

func (s *SQLite) ListStudents() ([]types.Student, error) {
	stmt, err := s.Db.Prepare("SELECT " + studentColumns + " FROM students ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("ListStudents: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.Query()
	if err != nil {
		return nil, fmt.Errorf("ListStudents: query: %w", err)
	}
	defer rows.Close()

	// Returning [] instead of null in JSON is better API behaviour.
	students := make([]types.Student, 0)

	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("ListStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListStudents: rows iteration: %w", err)
	}

	return students, nil
}

func (s *SQLite) FindStudent(matrNum int64) (types.Student, bool, error) {
	student, err := find(s.Db, matrNum)
	if errors.Is(err, storage.ErrNotFound) {
		return types.Student{}, false, nil
	}
	if err != nil {
		return types.Student{}, false, fmt.Errorf("FindStudent: %w", err)
	}
	return student, true, nil
}

func (s *SQLite) CreateStudent(in types.StudentInput) (types.Student, error) {
	tx, err := s.Db.Begin()
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: begin: %w", err)
	}
	defer tx.Rollback()

	next, err := nextMatrNum(tx)
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: %w", err)
	}

	student := types.NewStudent(next, in)
	if err := insert(tx, student); err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: commit: %w", err)
	}
	return student, nil
}

func (s *SQLite) UpdateStudent(matrNum int64, in types.StudentInput) (types.Student, error) {
	tx, err := s.Db.Begin()
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: begin: %w", err)
	}
	defer tx.Rollback()

	student, err := find(tx, matrNum)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: %w", err)
	}
	student.Apply(in)

	_, err = tx.Exec(
		"UPDATE students SET first_name = ?, last_name = ? WHERE matr_num = ?",
		student.FirstName, student.LastName, matrNum,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: commit: %w", err)
	}
	return student, nil
}

func (s *SQLite) DeleteStudent(matrNum int64) (types.Student, error) {
	tx, err := s.Db.Begin()
	if err != nil {
		return types.Student{}, fmt.Errorf("DeleteStudent: begin: %w", err)
	}
	defer tx.Rollback()

	student, err := find(tx, matrNum)
	if err != nil {
		return types.Student{}, fmt.Errorf("DeleteStudent: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM students WHERE matr_num = ?", matrNum); err != nil {
		return types.Student{}, fmt.Errorf("DeleteStudent: exec: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return types.Student{}, fmt.Errorf("DeleteStudent: commit: %w", err)
	}
	return student, nil
}

func (s *SQLite) NextMatrNum() (int64, error) {
	next, err := nextMatrNum(s.Db)
	if err != nil {
		return 0, fmt.Errorf("NextMatrNum: %w", err)
	}
	return next, nil
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func find(q querier, matrNum int64) (types.Student, error) {
	row := q.QueryRow("SELECT "+studentColumns+" FROM students WHERE matr_num = ? LIMIT 1", matrNum)
	student, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("scan: %w", err)
	}
	return student, nil
}

func nextMatrNum(q querier) (int64, error) {
	var next int64
	err := q.QueryRow(
		"SELECT COALESCE(MAX(matr_num) + 1, ?) FROM students",
		types.FirstMatrNum,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next matrNum: %w", err)
	}
	return next, nil
}

func insert(q querier, st types.Student) error {
	_, err := q.Exec(
		"INSERT INTO students ("+studentColumns+") VALUES (?, ?, ?, ?)",
		st.MatrNum, st.FirstName, st.LastName, st.CantineCredit,
	)
	if err != nil {
		return fmt.Errorf("insert %d: %w", st.MatrNum, err)
	}
	return nil
}

func scanStudent(row scanner) (types.Student, error) {
	var (
		student   types.Student
		firstName sql.NullString
		lastName  sql.NullString
	)
	if err := row.Scan(&student.MatrNum, &firstName, &lastName, &student.CantineCredit); err != nil {
		return types.Student{}, err
	}
	if firstName.Valid {
		student.FirstName = types.StringPtr(firstName.String)
	}
	if lastName.Valid {
		student.LastName = types.StringPtr(lastName.String)
	}
	return student, nil
}
