// Package verification assembles the HTTP surface of the credential verification service.
package verification

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kubecred/internal/platform/health"
	"kubecred/internal/platform/httpserver"
	"kubecred/internal/verification/handler"
)

// NewRouter mounts the index, health and verification routes on the shared
// middleware stack.
func NewRouter(h *handler.Handler, hh *health.Handler, opts httpserver.RouterOptions) http.Handler {
	opts.Service = handler.ServiceName
	r := httpserver.NewRouter(opts)
	r.Get("/", h.HandleIndex)
	r.Route("/api", func(r chi.Router) {
		hh.Register(r)
		h.Register(r)
	})
	return r
}
