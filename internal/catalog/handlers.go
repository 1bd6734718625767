package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-cart/internal/common"
)

// Handler exposes catalog maintenance endpoints used to seed products and customers.
type Handler struct {
	catalog *RedisCatalog
}

// NewHandler constructs a Handler.
func NewHandler(c *RedisCatalog) *Handler {
	return &Handler{catalog: c}
}

// Mount registers the catalog routes on r. write wraps every mutating route.
func (h *Handler) Mount(r chi.Router, write ...func(http.Handler) http.Handler) {
	r.Route("/catalog", func(c chi.Router) {
		c.Get("/products/{id}", h.Product)
		c.Get("/customers/{id}", h.Customer)
		c.Group(func(g chi.Router) {
			g.Use(write...)
			g.Put("/products/{id}", h.PutProduct)
			g.Delete("/products/{id}", h.DeleteProduct)
			g.Put("/customers/{id}", h.PutCustomer)
		})
	})
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h == nil || h.catalog == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not configured", nil)
		return false
	}
	return true
}

func productID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.BadRequest("product id must be a positive integer", err, nil)
	}
	return id, nil
}

// Product handles GET /catalog/products/{id}.
func (h *Handler) Product(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := productID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	p, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

// PutProduct handles PUT /catalog/products/{id}.
func (h *Handler) PutProduct(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := productID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var p Product
	p.ID = id
	if err := common.DecodeJSON(r, &p); err != nil {
		h.writeError(w, err)
		return
	}
	if p.ID != id {
		h.writeError(w, common.BadRequest("body id does not match path", nil, nil))
		return
	}
	if err := h.catalog.SaveProduct(r.Context(), p); err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /catalog/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id, err := productID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Customer handles GET /catalog/customers/{id}.
func (h *Handler) Customer(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	cu, err := h.catalog.Customer(r.Context(), strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, cu)
}

// PutCustomer handles PUT /catalog/customers/{id}.
func (h *Handler) PutCustomer(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	cu := Customer{ID: id}
	if err := common.DecodeJSON(r, &cu); err != nil {
		h.writeError(w, err)
		return
	}
	if cu.ID != id {
		h.writeError(w, common.BadRequest("body id does not match path", nil, nil))
		return
	}
	if err := h.catalog.SaveCustomer(r.Context(), cu); err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, cu)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "catalog record not found", nil)
		return
	}
	common.WriteError(w, err)
}
