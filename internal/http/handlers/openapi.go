package handlers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
)

//go:embed openapi.json
var openAPISpec []byte

// docsTemplate renders Redoc against the JSON document. %s is the page title.
const docsTemplate = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8" />
    <title>%s</title>
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <style>
      body { margin: 0; padding: 0; }
      redoc { display: block; height: 100vh; }
    </style>
  </head>
  <body>
    <redoc spec-url="/v1/openapi.json"></redoc>
    <script src="https://cdn.jsdelivr.net/npm/redoc@2.2.0/bundles/redoc.standalone.js"></script>
  </body>
</html>`

// openAPIDocument returns the embedded document with info.version set to the
// running build, so clients can tell which contract they are talking to.
func (a *App) openAPIDocument() ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(openAPISpec, &doc); err != nil {
		return nil, fmt.Errorf("openapi: decode: %w", err)
	}
	var info map[string]any
	if err := json.Unmarshal(doc["info"], &info); err != nil {
		return nil, fmt.Errorf("openapi: decode info: %w", err)
	}
	if a.Version != "" {
		info["version"] = a.Version
	}
	rawInfo, err := json.Marshal(info)
	if err != nil {
		return nil, err
	}
	doc["info"] = rawInfo
	return json.Marshal(doc)
}

func (a *App) OpenAPIJSON(w http.ResponseWriter, r *http.Request) {
	body, err := a.openAPIDocument()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (a *App) OpenAPIDocs(w http.ResponseWriter, _ *http.Request) {
	title := "Image Generation API Docs"
	if a.Version != "" {
		title += " (" + a.Version + ")"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, docsTemplate, html.EscapeString(title))
}
