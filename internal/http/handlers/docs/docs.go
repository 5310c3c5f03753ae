// Package docs serves the API description and the interactive
// documentation page.
//
// The OpenAPI document is written by hand in openapi.yaml and embedded
// into the binary. At startup it is parsed once, the server URL is filled
// in, and both the YAML and JSON renderings are cached.
package docs

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"gopkg.in/yaml.v3"

	"github.com/aanand-mishra/cantine-students-api/internal/utils/response"
)

//go:embed openapi.yaml
var openAPIYAML []byte

// Spec is the rendered OpenAPI document.
type Spec struct {
	yaml []byte
	json []byte
}

// Load parses the embedded document and points its servers list at
// serverURL (e.g. "http://localhost:1227"). An empty serverURL leaves the
// list out, in which case Swagger UI uses the page's own origin.
func Load(serverURL string) (*Spec, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(openAPIYAML, &doc); err != nil {
		return nil, fmt.Errorf("docs.Load: parse openapi.yaml: %w", err)
	}

	if serverURL != "" {
		doc["servers"] = []map[string]string{{"url": serverURL}}
	}

	rendered, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("docs.Load: render yaml: %w", err)
	}

	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("docs.Load: render json: %w", err)
	}

	return &Spec{yaml: rendered, json: asJSON}, nil
}

// JSON handles GET /api/docs/openapi.json
func JSON(spec *Spec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(spec.json)
	}
}

// YAML handles GET /api/docs/openapi.yaml
func YAML(spec *Spec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(spec.yaml)
	}
}

const uiPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Students API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
  <script>
    window.onload = () => {
      window.ui = SwaggerUIBundle({ url: "/api/docs/openapi.json", dom_id: "#swagger-ui" });
    };
  </script>
</body>
</html>
`

// UI handles GET /api/docs, the Swagger UI page.
func UI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(uiPage))
	}
}

// Root handles GET /, a liveness page.
func Root() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<h1>It works!</h1>"))
	}
}

// NotFound answers every unmatched route with the JSON error envelope
// instead of net/http's plain-text 404.
func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusNotFound,
			response.Message(fmt.Sprintf("Cannot %s %s", r.Method, r.URL.Path)))
	}
}
