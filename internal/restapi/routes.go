package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"haydigo.org/geoingest/internal/webui"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

func validateAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	})
}

// SetRoutes registers the read endpoints. /healthz is exempt from key checks
// so probes work without credentials.
func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.HandlerFunc(http.MethodGet, "/healthz", api.healthHandler)
	router.Handler(http.MethodGet, "/debug/counts", validateAPIKey(api, api.countsHandler))
	router.Handler(http.MethodGet, "/stops/geojson", validateAPIKey(api, api.stopsGeoJSONHandler))
	router.Handler(http.MethodGet, "/routes/:code/segments", validateAPIKey(api, api.routeSegmentsHandler))

	webUI := &webui.WebUI{Store: api.reader()}
	webUI.SetWebUIRoutes(router, func(h http.HandlerFunc) http.Handler {
		return validateAPIKey(api, handlerFunc(h))
	})

	router.NotFound = http.HandlerFunc(api.sendNotFound)
}

// Handler returns the router wrapped in the middleware chain, outermost first:
// request logging, security headers, rate limiting, compression.
func (api *RestAPI) Handler() http.Handler {
	router := httprouter.New()
	api.SetRoutes(router)

	var handler http.Handler = router
	handler = CompressionMiddleware(handler)
	if api.rateLimiter != nil {
		handler = api.rateLimiter(handler)
	}
	handler = securityHeaders(handler)
	return NewRequestLoggingMiddleware(api.Logger)(handler)
}
