package webui

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"github.com/paulmach/orb"

	"haydigo.org/geoingest/docstore"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

// sampleLimit bounds the documents dumped per page.
const sampleLimit = 20

var world = orb.Bound{Min: orb.Point{-180, -90}, Max: orb.Point{180, 90}}

// WebUI renders store contents as plain dumps for operators checking an import.
type WebUI struct {
	Store docstore.Reader
}

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   spew.Sdump(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var (
		data  any
		title string
		err   error
	)
	switch query.Get("dataType") {
	case "counts":
		data, err = webUI.Store.Counts(ctx)
		title = "Store - Counts"
	case "stops":
		data, err = webUI.Store.StopsWithinBounds(ctx, world, sampleLimit)
		title = "Store - Stops (sample)"
	case "segments":
		code := query.Get("code")
		data, err = webUI.Store.SegmentsForRoute(ctx, code, sampleLimit)
		title = "Store - Segments for route " + code
	default:
		data = map[string]string{
			"error": "Please use one of the following: counts, stops, segments (with code).",
		}
		title = "Choose a data type"
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeDebugData(w, title, data)
}
