package restapi

import (
	"encoding/json"
	"net/http"
)

// sendResponse writes any JSON payload with status 200.
func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response any) {
	body, err := json.Marshal(response)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	setJSONResponseType(w)
	if _, err := w.Write(append(body, '\n')); err != nil {
		api.Logger.Debug("failed to write response", "error", err)
	}
}

// sendGeoJSON writes a bare GeoJSON document.
func (api *RestAPI) sendGeoJSON(w http.ResponseWriter, r *http.Request, doc any) {
	body, err := json.Marshal(doc)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	if _, err := w.Write(body); err != nil {
		api.Logger.Debug("failed to write response", "error", err)
	}
}

func setJSONResponseType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}
