package restapi

import (
	"net/http"

	"haydigo.org/geoingest/internal/models"
)

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := api.reader().Ping(r.Context()); err != nil {
		api.storeUnavailableResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(map[string]string{"status": "ok"}))
}

func (api *RestAPI) countsHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := api.reader().Counts(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendResponse(w, r, models.NewEntryResponse(counts))
}
