package webui

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// SetWebUIRoutes registers the debug pages. wrap guards the handler, for
// example with an API key check.
func (webUI *WebUI) SetWebUIRoutes(router *httprouter.Router, wrap func(http.HandlerFunc) http.Handler) {
	router.Handler(http.MethodGet, "/debug/", wrap(webUI.debugIndexHandler))
}
