package api

import (
	"net/http"

	"github.com/example/jewel-storefront/internal/api/middleware"
	"github.com/example/jewel-storefront/internal/metrics"
)

// RouterDeps collects what NewRouter wires together.
type RouterDeps struct {
	Handlers *Handlers
	Auth     *AuthHandlers
	Uploads  *UploadHandlers
	Verifier middleware.Verifier
	Metrics  *metrics.AppMetrics
	// WebDir, when set, is served at / for the storefront UI.
	WebDir string
}

func NewRouter(d RouterDeps) http.Handler {
	mux := http.NewServeMux()
	session := middleware.RequireSession(d.Verifier)

	// Static files (web UI)
	if d.WebDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(d.WebDir)))
	}

	mux.HandleFunc("GET /healthz", Healthz)

	// Catalog
	mux.HandleFunc("GET /api/products", d.Handlers.GetProducts)
	mux.HandleFunc("GET /api/products/facets", d.Handlers.GetFacets)
	mux.HandleFunc("GET /api/products/{id}", d.Handlers.GetProduct)
	mux.HandleFunc("GET /api/image-proxy", d.Uploads.ImageProxy)

	// Admin session
	mux.HandleFunc("POST /api/admin/login", d.Auth.Login)
	mux.HandleFunc("POST /api/admin/logout", d.Auth.Logout)
	mux.HandleFunc("POST /api/admin/refresh", d.Auth.Refresh)
	mux.Handle("GET /api/admin/me", session(http.HandlerFunc(d.Auth.Me)))

	// Admin catalog
	mux.Handle("POST /api/admin/products", session(http.HandlerFunc(d.Handlers.CreateProduct)))
	mux.Handle("PUT /api/admin/products/{id}", session(http.HandlerFunc(d.Handlers.UpdateProduct)))
	mux.Handle("DELETE /api/admin/products/{id}", session(http.HandlerFunc(d.Handlers.DeleteProduct)))

	// Images
	mux.Handle("POST /api/upload", session(http.HandlerFunc(d.Uploads.Upload)))
	mux.Handle("POST /api/upload-url", session(http.HandlerFunc(d.Uploads.UploadURL)))

	return middleware.Recover(middleware.Metrics(d.Metrics)(mux))
}
