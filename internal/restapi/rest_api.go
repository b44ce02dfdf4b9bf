package restapi

import (
	"net/http"
	"time"

	"haydigo.org/geoingest/docstore"
	"haydigo.org/geoingest/internal/app"
)

// MaxQueryLimit bounds the number of documents one request may return.
const MaxQueryLimit = 10000

type RestAPI struct {
	*app.Application
	rateLimiter func(http.Handler) http.Handler
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.API.RateLimit, time.Second),
	}
}

func (api *RestAPI) reader() docstore.Reader {
	return api.Store
}
