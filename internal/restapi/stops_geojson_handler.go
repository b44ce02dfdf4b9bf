package restapi

import (
	"net/http"

	"haydigo.org/geoingest/internal/models"
	"haydigo.org/geoingest/internal/utils"
)

// stopsGeoJSONHandler serves the stops inside a bounding box as a
// FeatureCollection for map clients.
func (api *RestAPI) stopsGeoJSONHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	bound, fieldErrors := utils.ParseBoundParams(query)
	limit := utils.ParseLimitParam(query, api.Config.API.DefaultLimit, MaxQueryLimit, fieldErrors)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	ctx := r.Context()
	if ctx.Err() != nil {
		api.serverErrorResponse(w, r, ctx.Err())
		return
	}

	stops, err := api.reader().StopsWithinBounds(ctx, bound, limit)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	features := make([]models.Feature, 0, len(stops))
	for _, stop := range stops {
		features = append(features, models.NewStopFeature(stop))
	}
	api.sendGeoJSON(w, r, models.NewFeatureCollection(features))
}
