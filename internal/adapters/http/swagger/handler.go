// Package swagger serves the OpenAPI document and a rendered overview of it.
package swagger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Error constants.
var (
	ErrServe = errors.New("swagger serve failed")
	ErrParse = errors.New("openapi document invalid")
)

// Operation is one method on one path of the document.
type Operation struct {
	Method    string
	Path      string
	Summary   string
	Responses []string
}

type document struct {
	Info struct {
		Title       string `yaml:"title"`
		Version     string `yaml:"version"`
		Description string `yaml:"description"`
	} `yaml:"info"`
	Paths map[string]map[string]struct {
		Summary   string         `yaml:"summary"`
		Responses map[string]any `yaml:"responses"`
	} `yaml:"paths"`
}

type overview struct {
	Title       string
	Version     string
	Description string
	Operations  []Operation
}

// Operations parses spec and lists its operations sorted by path then method.
func Operations(spec []byte) (string, []Operation, error) {
	ov, err := parse(spec)
	if err != nil {
		return "", nil, err
	}
	return ov.Title, ov.Operations, nil
}

func parse(spec []byte) (overview, error) {
	var doc document
	if err := yaml.Unmarshal(spec, &doc); err != nil {
		return overview{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(doc.Paths) == 0 {
		return overview{}, fmt.Errorf("%w: no paths", ErrParse)
	}
	ov := overview{Title: doc.Info.Title, Version: doc.Info.Version, Description: doc.Info.Description}
	for path, methods := range doc.Paths {
		for method, op := range methods {
			codes := make([]string, 0, len(op.Responses))
			for code := range op.Responses {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			ov.Operations = append(ov.Operations, Operation{
				Method:    strings.ToUpper(method),
				Path:      path,
				Summary:   op.Summary,
				Responses: codes,
			})
		}
	}
	sort.Slice(ov.Operations, func(i, j int) bool {
		if ov.Operations[i].Path != ov.Operations[j].Path {
			return ov.Operations[i].Path < ov.Operations[j].Path
		}
		return ov.Operations[i].Method < ov.Operations[j].Method
	})
	return ov, nil
}

// Register attaches the API docs routes to mux.
// Routes:
//
//	GET /api-docs      -> rendered operation overview
//	GET /openapi.yaml  -> embedded OpenAPI spec
//
// It panics if the embedded document does not parse.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	ov, err := parse(OpenAPI)
	if err != nil {
		panic(err)
	}
	var page bytes.Buffer
	if err := indexTpl.Execute(&page, ov); err != nil {
		panic(fmt.Errorf("%w: %v", ErrServe, err))
	}
	rendered := page.Bytes()

	mux.HandleFunc("/api-docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(rendered)
	})

	mux.HandleFunc("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})
}

var indexTpl = template.Must(template.New("api-docs").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>API Docs – {{.Title}}</title>
    <style>body{font-family:system-ui,sans-serif;max-width:760px;margin:2rem auto}code{background:#eee;padding:0 .25rem}</style>
  </head>
  <body>
    <h1>{{.Title}} <small>{{.Version}}</small></h1>
    <p>{{.Description}}</p>
    <p>Full document: <a href="/openapi.yaml">/openapi.yaml</a></p>
    <table id="operations">
      <tr><th>Method</th><th>Path</th><th>Summary</th><th>Responses</th></tr>
      {{range .Operations}}<tr><td><code>{{.Method}}</code></td><td><code>{{.Path}}</code></td><td>{{.Summary}}</td><td>{{range $i, $c := .Responses}}{{if $i}}, {{end}}{{$c}}{{end}}</td></tr>
      {{end}}
    </table>
  </body>
</html>`))
