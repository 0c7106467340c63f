package server

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sync"

	"gopkg.in/yaml.v3"

	"bericht/internal/logging"
)

//go:embed openapi.yaml
var openAPIYAML []byte

var (
	openAPIJSONOnce sync.Once
	openAPIJSON     []byte
	openAPIJSONErr  error
)

// OpenAPIJSON renders the embedded YAML document as JSON.
func OpenAPIJSON() ([]byte, error) {
	openAPIJSONOnce.Do(func() {
		var doc map[string]any
		if err := yaml.Unmarshal(openAPIYAML, &doc); err != nil {
			openAPIJSONErr = fmt.Errorf("decode openapi.yaml: %w", err)
			return
		}
		openAPIJSON, openAPIJSONErr = json.Marshal(doc)
	})
	return openAPIJSON, openAPIJSONErr
}

func handleOpenAPIYAML(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(openAPIYAML)
}

func (s *Server) handleOpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	data, err := OpenAPIJSON()
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render openapi document", logging.Error(err))
		writeError(w, r, http.StatusInternalServerError, "openapi document unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

var swaggerUI = template.Must(template.New("swagger").Parse(swaggerUITemplate))

func handleSwaggerUI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		SpecURL string
		Title   string
	}{
		SpecURL: "/openapi.json",
		Title:   "Bericht API",
	}
	if err := swaggerUI.Execute(w, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// Swagger UI assets come from the public CDN.
const swaggerUITemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}} - API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: "{{.SpecURL}}",
                dom_id: '#swagger-ui',
                presets: [SwaggerUIBundle.presets.apis, SwaggerUIStandalonePreset],
                persistAuthorization: true,
                displayRequestDuration: true
            });
        };
    </script>
</body>
</html>`
