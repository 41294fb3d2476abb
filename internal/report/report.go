// Package report renders an activity history as a standalone HTML page.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pfrederiksen/clubot/internal/agenda"
)

var page = template.Must(template.New("history").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>clubot: {{.Activity}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 0.3em 0.6em; text-align: left; }
tr.deleted td { color: #999; text-decoration: line-through; }
tr.fresh td { font-weight: bold; }
</style>
</head>
<body>
<h1>{{.Activity}}</h1>
<p>{{.Live}} live / {{.Total}} records. Generated {{.Generated}}.</p>
<table>
<tr><th>Date</th><th>Event</th><th>Discovered</th></tr>
{{- range .Rows}}
<tr class="{{.Class}}"><td>{{.Date}}</td><td>{{.Title}}</td><td>{{.Timestamp}}</td></tr>
{{- end}}
</table>
</body>
</html>
`))

type row struct {
	Date      string
	Title     string
	Timestamp string
	Class     string
}

type view struct {
	Activity  string
	Generated string
	Total     int
	Live      int
	Rows      []row
}

// Write renders store to w. Records discovered at latest are highlighted.
func Write(w io.Writer, activity string, store *agenda.Store, latest string, generated time.Time) error {
	v := view{
		Activity:  activity,
		Generated: generated.Format("2006-01-02 15:04:05"),
	}
	v.Total, v.Live = store.Count()

	for _, date := range store.Dates() {
		bucket, _ := store.Get(date)
		for _, rec := range bucket {
			r := row{Date: agenda.Label(date), Title: rec.EventTitle(), Timestamp: rec.Timestamp}
			switch {
			case rec.IsDeleted():
				r.Class = "deleted"
			case latest != "" && rec.Timestamp == latest:
				r.Class = "fresh"
			}
			v.Rows = append(v.Rows, r)
		}
	}

	return page.Execute(w, v)
}

// Renderer writes one page per activity into a directory
type Renderer struct {
	dir string
	now func() time.Time
}

// NewRenderer creates a renderer writing into dir
func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir, now: time.Now}
}

// Path returns the page rendered for activity
func (r *Renderer) Path(activity string) string {
	return filepath.Join(r.dir, activity+".html")
}

// Render writes the page for activity and returns its path
func (r *Renderer) Render(activity string, store *agenda.Store, latest string) (string, error) {
	var buf bytes.Buffer
	if err := Write(&buf, activity, store, latest, r.now()); err != nil {
		return "", fmt.Errorf("rendering %s: %w", activity, err)
	}

	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	path := r.Path(activity)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
