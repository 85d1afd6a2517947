package handlers

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/Maciekds1981/kolorowanki/internal/middleware"
)

// Documentation routes. The ReDoc page loads the document from RouteOpenAPIJSON.
const (
	RouteOpenAPIJSON = "/v1/openapi.json"
	RouteDocs        = "/v1/docs"
)

//go:embed openapi.json
var openAPISpec []byte

var redocTemplate = template.Must(template.New("redoc").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
  <head>
    <meta charset="utf-8" />
    <title>{{.Title}} {{.Version}}</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>
      body { margin: 0; padding: 0; }
      redoc { display: block; height: 100vh; }
    </style>
  </head>
  <body>
    <redoc spec-url="{{.SpecURL}}"></redoc>
    <script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
  </body>
</html>`))

type redocPage struct {
	Lang    string
	Title   string
	Version string
	SpecURL string
}

// docsPage renders the ReDoc shell titled after the embedded document.
func docsPage(lang string) ([]byte, error) {
	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
	}
	if err := json.Unmarshal(openAPISpec, &doc); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err := redocTemplate.Execute(&buf, redocPage{
		Lang:    lang,
		Title:   doc.Info.Title,
		Version: doc.Info.Version,
		SpecURL: RouteOpenAPIJSON,
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *App) OpenAPIJSON(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPISpec)
}

func (a *App) OpenAPIDocs(w http.ResponseWriter, r *http.Request) {
	page, err := docsPage(middleware.LocaleFromContext(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}
