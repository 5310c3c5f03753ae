package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/cantine-students-api/internal/config"
	"github.com/aanand-mishra/cantine-students-api/internal/http/handlers/docs"
	"github.com/aanand-mishra/cantine-students-api/internal/http/middleware"
	"github.com/aanand-mishra/cantine-students-api/internal/http/router"
	"github.com/aanand-mishra/cantine-students-api/internal/storage"
	"github.com/aanand-mishra/cantine-students-api/internal/storage/memory"
	"github.com/aanand-mishra/cantine-students-api/internal/storage/sqlite"
	"github.com/aanand-mishra/cantine-students-api/internal/types"
)

func baseConfig() *config.Config {
	return &config.Config{
		Env:        "dev",
		SortLocale: "en",
		Storage:    config.Storage{Type: config.StorageMemory},
		HTTPServer: config.HTTPServer{Addr: "localhost:0"},
	}
}

func newServer(t *testing.T, cfg *config.Config, store storage.Storage) *httptest.Server {
	t.Helper()

	spec, err := docs.Load("")
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(router.New(cfg, store, spec, log))
	t.Cleanup(srv.Close)
	return srv
}

type result struct {
	status int
	header http.Header
	body   string
}

func call(t *testing.T, srv *httptest.Server, method, path, body string) result {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return result{status: resp.StatusCode, header: resp.Header, body: string(raw)}
}

func stores(t *testing.T) map[string]func(t *testing.T) storage.Storage {
	t.Helper()
	return map[string]func(t *testing.T) storage.Storage{
		"memory": func(t *testing.T) storage.Storage {
			s, err := memory.New(storage.SeedStudents())
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) storage.Storage {
			cfg := baseConfig()
			cfg.Storage = config.Storage{
				Type: config.StorageSQLite,
				Path: filepath.Join(t.TempDir(), "students.db"),
			}
			s, err := sqlite.New(cfg)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestScenarios(t *testing.T) {
	t.Parallel()

	for backend, open := range stores(t) {
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			t.Run("get seed student", func(t *testing.T) {
				srv := newServer(t, baseConfig(), open(t))
				res := call(t, srv, http.MethodGet, "/api/v1/student/1230000033", "")
				assert.Equal(t, http.StatusOK, res.status)
				assert.JSONEq(t,
					`{"matrNum":1230000033,"firstName":"Jack","lastName":"Daniels","cantineCredit":24.5}`,
					res.body)
			})

			t.Run("get unknown student", func(t *testing.T) {
				srv := newServer(t, baseConfig(), open(t))
				res := call(t, srv, http.MethodGet, "/api/v1/student/9999999999", "")
				assert.Equal(t, http.StatusNotFound, res.status)
				assert.JSONEq(t, `{"error":"This student was not found"}`, res.body)
			})

			t.Run("create with empty object", func(t *testing.T) {
				srv := newServer(t, baseConfig(), open(t))
				res := call(t, srv, http.MethodPost, "/api/v1/students/add", `{}`)
				assert.Equal(t, http.StatusBadRequest, res.status)
				assert.JSONEq(t, `{"error":"\"firstName\" is required"}`, res.body)
			})

			t.Run("create valid student", func(t *testing.T) {
				srv := newServer(t, baseConfig(), open(t))
				res := call(t, srv, http.MethodPost, "/api/v1/students/add", `{"firstName":"Ann","lastName":"Lee"}`)
				assert.Equal(t, http.StatusCreated, res.status)
				assert.JSONEq(t,
					`{"matrNum":1230000040,"firstName":"Ann","lastName":"Lee","cantineCredit":0}`,
					res.body)
			})

			t.Run("update first name", func(t *testing.T) {
				srv := newServer(t, baseConfig(), open(t))
				res := call(t, srv, http.MethodPut, "/api/v1/student/1230000026", `{"firstName":"James"}`)
				assert.Equal(t, http.StatusOK, res.status)
				assert.JSONEq(t,
					`{"matrNum":1230000026,"firstName":"James","lastName":"Beam","cantineCredit":1}`,
					res.body)
			})

			t.Run("delete then get", func(t *testing.T) {
				srv := newServer(t, baseConfig(), open(t))
				res := call(t, srv, http.MethodDelete, "/api/v1/student/1230000026", "")
				require.Equal(t, http.StatusOK, res.status)

				res = call(t, srv, http.MethodGet, "/api/v1/student/1230000026", "")
				assert.Equal(t, http.StatusNotFound, res.status)
				assert.JSONEq(t, `{"error":"This student was not found"}`, res.body)
			})

			t.Run("sorted list", func(t *testing.T) {
				srv := newServer(t, baseConfig(), open(t))
				res := call(t, srv, http.MethodGet, "/api/v1/students?sortBy=lastName", "")
				require.Equal(t, http.StatusOK, res.status)

				var got []struct {
					LastName string `json:"lastName"`
				}
				require.NoError(t, json.Unmarshal([]byte(res.body), &got))
				require.Len(t, got, 3)
				assert.Equal(t, "Beam", got[0].LastName)
				assert.Equal(t, "Daniels", got[1].LastName)
				assert.Equal(t, "Harper", got[2].LastName)
			})
		})
	}
}

func TestDocsRoutes(t *testing.T) {
	t.Parallel()

	srv := newServer(t, baseConfig(), stores(t)["memory"](t))

	tests := map[string]struct {
		path        string
		wantType    string
		wantContain string
	}{
		"root":         {path: "/", wantType: "text/html", wantContain: "It works!"},
		"ui":           {path: "/api/docs", wantType: "text/html", wantContain: "swagger-ui"},
		"openapi json": {path: "/api/docs/openapi.json", wantType: "application/json", wantContain: `"openapi":"3.0.0"`},
		"openapi yaml": {path: "/api/docs/openapi.yaml", wantType: "application/yaml", wantContain: "openapi: 3.0.0"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			res := call(t, srv, http.MethodGet, tc.path, "")
			assert.Equal(t, http.StatusOK, res.status)
			assert.Contains(t, res.header.Get("Content-Type"), tc.wantType)
			assert.Contains(t, res.body, tc.wantContain)
		})
	}
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()

	srv := newServer(t, baseConfig(), stores(t)["memory"](t))

	res := call(t, srv, http.MethodGet, "/api/v1/courses", "")
	assert.Equal(t, http.StatusNotFound, res.status)
	assert.JSONEq(t, `{"error":"Cannot GET /api/v1/courses"}`, res.body)
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	t.Parallel()

	srv := newServer(t, baseConfig(), stores(t)["memory"](t))

	res := call(t, srv, http.MethodGet, "/api/v1/students", "")
	assert.Equal(t, http.StatusOK, res.status)
	assert.NotEmpty(t, res.header.Get(middleware.RequestIDHeader))
}

func TestRateLimitFromConfig(t *testing.T) {
	t.Parallel()

	cfg := baseConfig()
	cfg.RateLimit = config.RateLimit{RPS: 0.5, Burst: 1}
	srv := newServer(t, cfg, stores(t)["memory"](t))

	first := call(t, srv, http.MethodGet, "/api/v1/students", "")
	second := call(t, srv, http.MethodGet, "/api/v1/students", "")

	assert.Equal(t, http.StatusOK, first.status)
	assert.Equal(t, http.StatusTooManyRequests, second.status)
}

// panickingStore panics on ListStudents; every other method is unset.
type panickingStore struct {
	storage.Storage
}

func (panickingStore) ListStudents() ([]types.Student, error) {
	panic("list exploded")
}

func TestPanicLogCarriesRequestID(t *testing.T) {
	t.Parallel()

	spec, err := docs.Load("")
	require.NoError(t, err)

	var logs bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&logs, nil))
	h := router.New(baseConfig(), panickingStore{}, spec, log)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(middleware.RequestIDHeader))

	var panicLine map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(logs.Bytes()), []byte("\n")) {
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry))
		if entry["msg"] == "handler panicked" {
			panicLine = entry
		}
	}
	require.NotNil(t, panicLine)
	assert.Equal(t, "req-42", panicLine["request_id"])
}

func TestBodyLimit(t *testing.T) {
	t.Parallel()

	spec, err := docs.Load("")
	require.NoError(t, err)

	store := stores(t)["memory"](t)
	h := router.New(baseConfig(), store, spec, slog.New(slog.NewTextHandler(io.Discard, nil)))

	name := strings.Repeat("a", router.MaxBodyBytes)
	body := `{"firstName":"` + name + `","lastName":"Lee"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/students/add", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"Request Entity Too Large"}`, rec.Body.String())

	students, err := store.ListStudents()
	require.NoError(t, err)
	assert.Len(t, students, 3)
}
