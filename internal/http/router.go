package http

import (
	"net/http"
)

type RouterConfig struct {
	Rooms      *RoomHandler
	Requests   *RequestHandler
	Analytics  *AnalyticsHandler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter registers every route whose handler is configured. Middleware wraps the mux
// in order, the first entry outermost.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	if cfg.Rooms != nil {
		mux.HandleFunc("GET /rooms", cfg.Rooms.List)
		mux.HandleFunc("POST /rooms", cfg.Rooms.Create)
		mux.HandleFunc("DELETE /rooms/{id}", cfg.Rooms.Deactivate)
		mux.HandleFunc("GET /buildings", cfg.Rooms.Buildings)
	}

	if cfg.Requests != nil {
		mux.HandleFunc("GET /rooms/{id}/availability", cfg.Requests.Availability)
		mux.HandleFunc("POST /rooms/{id}/availability/selection", cfg.Requests.ValidateSelection)
		mux.HandleFunc("GET /requests", cfg.Requests.List)
		mux.HandleFunc("POST /requests", cfg.Requests.Submit)
		mux.HandleFunc("POST /requests/drafts", cfg.Requests.CreateDraft)
		mux.HandleFunc("GET /requests/{id}", cfg.Requests.Get)
		mux.HandleFunc("POST /requests/{id}/submit", cfg.Requests.SubmitDraft)
		mux.HandleFunc("DELETE /requests/{id}", cfg.Requests.Cancel)
		mux.HandleFunc("GET /approvals/queue", cfg.Requests.Queue)
		mux.HandleFunc("POST /approvals/{id}/decide", cfg.Requests.Decide)
	}

	if cfg.Analytics != nil {
		mux.HandleFunc("GET /analytics/summary", cfg.Analytics.Summary)
		mux.HandleFunc("GET /analytics/events", cfg.Analytics.Events)
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
