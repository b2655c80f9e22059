package handler

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the product endpoints on r. They are served both at the
// root, where existing clients call them, and under /api/v1.
func RegisterRoutes(r chi.Router, a ProductAPI) {
	products := func(r chi.Router) {
		r.Get("/", a.List)
		r.Post("/", a.Create)
		r.Delete("/{id}", a.Delete)
	}
	r.Route("/products", products)
	r.Route("/api/v1/products", products)
	r.Get("/healthz", a.HealthCheck)
}
