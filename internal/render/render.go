// Package render turns actuator state and device metrics into response
// bodies. Every function is pure and returns the complete body, so nothing
// is written to the wire until the document is fully formed.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/muurk/apled/internal/metrics"
)

// Title is shown on every HTML page.
const Title = "apled Web Server"

// Confirmation labels used by the mutating handlers.
const (
	LabelEngaged    = "LED turned on"
	LabelDisengaged = "LED turned off"
	LabelToggled    = "LED toggled"
)

// StateLabel is the human-readable label for engaged.
func StateLabel(engaged bool) string {
	if engaged {
		return "ON"
	}
	return "OFF"
}

const layout = `{{define "page"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.Title}}</title></head>
<body>
<h1>{{.Title}}</h1>
{{template "content" .}}
</body>
</html>
{{end}}`

var (
	homeTmpl = template.Must(template.Must(template.New("home").Parse(layout)).Parse(`{{define "content"}}<p>LED is <strong id="state">{{.State}}</strong></p>
<p><a href="/ledon">Turn on</a> | <a href="/ledoff">Turn off</a> | <a href="/ledtoggle">Toggle</a></p>
<p><a href="/status">Check System Status</a></p>{{end}}`))

	confirmTmpl = template.Must(template.Must(template.New("confirm").Parse(layout)).Parse(`{{define "content"}}<p>{{.Label}}</p>
<p>LED is now <strong id="state">{{.State}}</strong></p>
<p><a href="/">Back</a></p>{{end}}`))

	notFoundTmpl = template.Must(template.Must(template.New("notfound").Parse(layout)).Parse(`{{define "content"}}<p>Not found: <code>{{.Method}} {{.Path}}</code></p>
<p><a href="/">Back</a></p>{{end}}`))
)

type page struct {
	Title  string
	State  string
	Label  string
	Method string
	Path   string
}

func execute(t *template.Template, p page) ([]byte, error) {
	p.Title = Title
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "page", p); err != nil {
		return nil, fmt.Errorf("failed to render %s page: %w", t.Name(), err)
	}
	return buf.Bytes(), nil
}

// Home renders the landing page with the current label and control links.
func Home(engaged bool) ([]byte, error) {
	return execute(homeTmpl, page{State: StateLabel(engaged)})
}

// Confirmation renders the page returned by the mutating handlers.
func Confirmation(label string, engaged bool) ([]byte, error) {
	return execute(confirmTmpl, page{Label: label, State: StateLabel(engaged)})
}

// NotFound renders the fallback page. method and path come from the request
// and are escaped by the template.
func NotFound(method, path string) ([]byte, error) {
	return execute(notFoundTmpl, page{Method: method, Path: path})
}

// StatusDocument is the JSON body served at /status.
type StatusDocument struct {
	Uptime      uint64 `json:"uptime"`
	FreeHeap    uint64 `json:"free_heap"`
	MinFreeHeap uint64 `json:"min_free_heap"`
	LEDState    bool   `json:"led_state"`
	ChipModel   string `json:"chip_model"`
	Cores       uint8  `json:"cores"`
	Features    string `json:"features"`
}

// NewStatusDocument builds the document from state and a metrics snapshot.
func NewStatusDocument(engaged bool, snap metrics.Snapshot) StatusDocument {
	return StatusDocument{
		Uptime:      uint64(snap.Uptime.Seconds()),
		FreeHeap:    snap.FreeHeap,
		MinFreeHeap: snap.MinFreeHeap,
		LEDState:    engaged,
		ChipModel:   snap.Chip.Model,
		Cores:       snap.Chip.Cores,
		Features:    snap.Chip.Features,
	}
}

// Status renders the status document.
func Status(engaged bool, snap metrics.Snapshot) ([]byte, error) {
	data, err := json.Marshal(NewStatusDocument(engaged, snap))
	if err != nil {
		return nil, fmt.Errorf("failed to render status document: %w", err)
	}
	return data, nil
}
