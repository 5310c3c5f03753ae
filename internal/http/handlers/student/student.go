// Package student contains all HTTP handlers related to the Student resource.
//
// Every handler is built by a factory that receives its dependencies
// (the store, the sorter) once at startup and returns the
// http.HandlerFunc the router calls on each request:
//
//	router.HandleFunc("GET /api/v1/student/{matrNum}", student.GetByMatrNum(store))
package student

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/aanand-mishra/cantine-students-api/internal/ordering"
	"github.com/aanand-mishra/cantine-students-api/internal/storage"
	"github.com/aanand-mishra/cantine-students-api/internal/types"
	"github.com/aanand-mishra/cantine-students-api/internal/utils/response"
	"github.com/aanand-mishra/cantine-students-api/internal/validation"
)

// noMatrNum is what an unparseable {matrNum} path segment turns into.
// Issued numbers are always positive, so it never matches a record.
const noMatrNum int64 = -1

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /api/v1/students
// Returns a JSON array of all students.
//
// Query parameter: sortBy — firstName, lastName or matrNum (optional).
// Any other non-empty value sorts by matrNum.
//
// Success response (200 OK):
//
//	[
//	  { "matrNum": 1230000033, "firstName": "Jack", "lastName": "Daniels", "cantineCredit": 24.5 },
//	  ...
//	]
//
// Returns an empty array [] (not null) when there are no students.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(store storage.Storage, sorter *ordering.Sorter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := ordering.ParseSortKey(r.URL.Query().Get("sortBy"))
		slog.Info("getting all students", slog.String("sort_by", key.String()))

		students, err := store.ListStudents()
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		response.WriteJSON(w, http.StatusOK, sorter.Sort(students, key))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByMatrNum handles GET /api/v1/student/{matrNum}
//
// Success response (200 OK): the student.
//
// Error responses:
//
//	404 Not Found — no student has this matrNum (or it is not a number)
//	500 Internal  — store error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByMatrNum(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.PathValue("matrNum")
		slog.Info("getting a student", slog.String("matr_num", raw))

		student, found, err := store.FindStudent(parseMatrNum(raw))
		if err != nil {
			slog.Error("error getting student",
				slog.String("matr_num", raw),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}
		if !found {
			response.WriteJSON(w, http.StatusNotFound, response.NotFound())
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/v1/students/add
// Creates a new student. The matrNum is assigned by the store and the
// cantine credit starts at zero.
//
// Request body (JSON):
//
//	{ "firstName": "Ann", "lastName": "Lee" }
//
// Success response (201 Created): the new student.
//
// Error responses:
//
//	400 Bad Request — malformed JSON or failed validation
//	413 Too Large   — body over the size limit
//	500 Internal    — store error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		in, ok := decodeInput(w, r, validation.RequireAll)
		if !ok {
			return
		}

		student, err := store.CreateStudent(in)
		if err != nil {
			slog.Error("error creating student", slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("student created",
			slog.String("name", student.FullName()),
			slog.Int64("matr_num", student.MatrNum))

		response.WriteJSON(w, http.StatusCreated, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/v1/student/{matrNum}
// Changes firstName, lastName or both. Absent fields keep their current
// value; null is rejected like any other non-string.
//
// Request body (JSON):
//
//	{ "firstName": "James" }
//
// Success response (200 OK): the updated student.
//
// Error responses:
//
//	404 Not Found   — no student has this matrNum
//	400 Bad Request — malformed JSON or failed validation
//	500 Internal    — store error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.PathValue("matrNum")
		slog.Info("updating a student", slog.String("matr_num", raw))

		matrNum := parseMatrNum(raw)

		// The lookup comes before validation: an unknown student is a 404
		// even when the body is invalid.
		_, found, err := store.FindStudent(matrNum)
		if err != nil {
			slog.Error("error getting student",
				slog.String("matr_num", raw),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}
		if !found {
			response.WriteJSON(w, http.StatusNotFound, response.NotFound())
			return
		}

		in, ok := decodeInput(w, r, validation.Partial)
		if !ok {
			return
		}

		updated, err := store.UpdateStudent(matrNum, in)
		if errors.Is(err, storage.ErrNotFound) {
			// Deleted between the lookup and the update.
			response.WriteJSON(w, http.StatusNotFound, response.NotFound())
			return
		}
		if err != nil {
			slog.Error("error updating student",
				slog.String("matr_num", raw),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("student updated", slog.Int64("matr_num", matrNum))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /api/v1/student/{matrNum}
// Permanently removes a student and echoes the removed record.
//
// Error responses:
//
//	404 Not Found — no student has this matrNum
//	500 Internal  — store error
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.PathValue("matrNum")
		slog.Info("deleting a student", slog.String("matr_num", raw))

		deleted, err := store.DeleteStudent(parseMatrNum(raw))
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.NotFound())
			return
		}
		if err != nil {
			slog.Error("error deleting student",
				slog.String("matr_num", raw),
				slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError,
				response.GeneralError(err))
			return
		}

		slog.Info("student deleted", slog.Int64("matr_num", deleted.MatrNum))
		response.WriteJSON(w, http.StatusOK, deleted)
	}
}

// parseMatrNum reads the leading integer of raw and ignores whatever
// follows it, so "1230000033abc" and "1230000033.0" both resolve to
// 1230000033. Leading spaces and a sign are accepted, and a "0x" prefix
// switches to hex. Anything without a leading number is noMatrNum.
func parseMatrNum(raw string) int64 {
	s := strings.TrimLeft(raw, " \t\n\v\f\r")

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base := 10
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := strings.IndexFunc(s, func(c rune) bool { return !isDigit(c, base) })
	if end < 0 {
		end = len(s)
	}

	n, err := strconv.ParseInt(s[:end], base, 64)
	if err != nil {
		return noMatrNum
	}
	if neg {
		return -n
	}
	return n
}

func isDigit(c rune, base int) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	if base != 16 {
		return false
	}
	c = unicode.ToLower(c)
	return c >= 'a' && c <= 'f'
}

// decodeInput reads and validates the JSON body against mode. An empty
// body counts as {}. On failure it writes the error response itself and
// returns false.
func decodeInput(w http.ResponseWriter, r *http.Request, mode validation.Mode) (types.StudentInput, bool) {
	body, err := validation.Decode(r.Body)
	if err != nil {
		var (
			res    validation.Result
			tooBig *http.MaxBytesError
		)
		switch {
		case errors.As(err, &tooBig):
			response.WriteJSON(w, http.StatusRequestEntityTooLarge,
				response.Message(http.StatusText(http.StatusRequestEntityTooLarge)))
		case errors.As(err, &res):
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(res))
		default:
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		}
		return types.StudentInput{}, false
	}

	in, res := validation.Student(body, mode)
	if !res.Valid() {
		response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(res))
		return types.StudentInput{}, false
	}
	return in, true
}
