// Package issuance assembles the HTTP surface of the credential issuance service.
package issuance

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kubecred/internal/issuance/handler"
	"kubecred/internal/platform/health"
	"kubecred/internal/platform/httpserver"
)

// NewRouter mounts the index, health and credential routes on the shared
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
