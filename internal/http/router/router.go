// Package router builds the application's http.Handler: the route table
// plus the middleware chain around it.
package router

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/cantine-students-api/internal/config"
	"github.com/aanand-mishra/cantine-students-api/internal/http/handlers/docs"
	"github.com/aanand-mishra/cantine-students-api/internal/http/handlers/student"
	"github.com/aanand-mishra/cantine-students-api/internal/http/middleware"
	"github.com/aanand-mishra/cantine-students-api/internal/ordering"
	"github.com/aanand-mishra/cantine-students-api/internal/storage"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 100 << 10

// New registers every route against store and wraps the mux.
//
// Route table:
//
//	GET    /                           → liveness page
//	GET    /api/docs                   → Swagger UI
//	GET    /api/docs/openapi.json      → OpenAPI document (JSON)
//	GET    /api/docs/openapi.yaml      → OpenAPI document (YAML)
//	GET    /api/v1/students            → list students (?sortBy=)
//	POST   /api/v1/students/add        → create a student
//	GET    /api/v1/student/{matrNum}   → get one student
//	PUT    /api/v1/student/{matrNum}   → update a student
//	DELETE /api/v1/student/{matrNum}   → delete a student
func New(cfg *config.Config, store storage.Storage, spec *docs.Spec, log *slog.Logger) http.Handler {
	sorter := ordering.NewSorter(cfg.SortLocale)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", docs.Root())
	mux.HandleFunc("GET /api/docs", docs.UI())
	mux.HandleFunc("GET /api/docs/openapi.json", docs.JSON(spec))
	mux.HandleFunc("GET /api/docs/openapi.yaml", docs.YAML(spec))

	mux.HandleFunc("GET /api/v1/students", student.GetList(store, sorter))
	mux.HandleFunc("POST /api/v1/students/add", student.New(store))
	mux.HandleFunc("GET /api/v1/student/{matrNum}", student.GetByMatrNum(store))
	mux.HandleFunc("PUT /api/v1/student/{matrNum}", student.Update(store))
	mux.HandleFunc("DELETE /api/v1/student/{matrNum}", student.Delete(store))

	mux.HandleFunc("/", docs.NotFound())

	// RequestID is outermost so that Recover and Logger both see the id.
	return middleware.Chain(mux,
		middleware.RequestID(),
		middleware.Recover(log),
		middleware.Logger(log),
		middleware.BodyLimit(MaxBodyBytes),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rate:  cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		}),
	)
}
