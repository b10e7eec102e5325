package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/example/jewel-storefront/internal/catalog"
	"github.com/example/jewel-storefront/internal/command"
	"github.com/example/jewel-storefront/internal/domain/product"
	"github.com/example/jewel-storefront/internal/infrastructure/store"
	"github.com/example/jewel-storefront/internal/query"
)

// maxJSONBody caps admin JSON payloads.
const maxJSONBody = 1 << 20

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
}

func NewHandlers(cmdHandler *command.Handler, queryHandler *query.Handler) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
	}
}

// Catalog Handlers

// GetProducts lists the catalog newest first. Filter parameters q, category,
// min, max and sort narrow and reorder it; ?id= returns a single product.
func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	if id := values.Get("id"); id != "" {
		h.writeProduct(w, r, id)
		return
	}

	var (
		products []catalog.Product
		err      error
	)
	if hasFilter(values.Get("q"), values.Get("category"), values.Get("min"), values.Get("max"), values.Get("sort")) {
		products, err = h.queryHandler.ListFiltered(r.Context(), catalog.ParseCriteria(values))
	} else {
		products, err = h.queryHandler.ListProducts(r.Context())
	}
	if err != nil {
		log.Printf("[API] Failed to list products: %v", err)
		respondJSONError(w, "Failed to fetch products", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	h.writeProduct(w, r, r.PathValue("id"))
}

func (h *Handlers) writeProduct(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.queryHandler.GetProduct(r.Context(), id)
	if errors.Is(err, query.ErrProductNotFound) {
		respondJSONError(w, "Product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("[API] Failed to get product %s: %v", id, err)
		respondJSONError(w, "Failed to fetch product", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) GetFacets(w http.ResponseWriter, r *http.Request) {
	f, err := h.queryHandler.Facets(r.Context())
	if err != nil {
		log.Printf("[API] Failed to build facets: %v", err)
		respondJSONError(w, "Failed to fetch products", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, f)
}

// Admin Product Handlers

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.CreateProduct
	if !decodeJSON(w, r, &cmd) {
		return
	}

	p, err := h.cmdHandler.CreateProduct(r.Context(), cmd)
	if err != nil {
		respondCommandError(w, "create product", err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var cmd command.UpdateProduct
	if !decodeJSON(w, r, &cmd) {
		return
	}
	cmd.ProductID = r.PathValue("id")

	p, err := h.cmdHandler.UpdateProduct(r.Context(), cmd)
	if err != nil {
		respondCommandError(w, "update product", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	cmd := command.DeleteProduct{ProductID: r.PathValue("id")}
	if err := h.cmdHandler.DeleteProduct(r.Context(), cmd); err != nil {
		respondCommandError(w, "delete product", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"})
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

func hasFilter(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(dst); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// respondCommandError maps write-side errors onto status codes.
func respondCommandError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, product.ErrMissingFields):
		respondJSONError(w, "Missing required fields", http.StatusBadRequest)
	case product.IsValidationError(err):
		respondJSONError(w, capitalize(err.Error()), http.StatusBadRequest)
	case errors.Is(err, product.ErrProductNotFound):
		respondJSONError(w, "Product not found", http.StatusNotFound)
	case errors.Is(err, store.ErrVersionConflict):
		respondJSONError(w, "Product was modified concurrently, reload and retry", http.StatusConflict)
	default:
		log.Printf("[API] Failed to %s: %v", action, err)
		respondJSONError(w, "Failed to "+action, http.StatusInternalServerError)
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, map[string]string{"error": message})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
