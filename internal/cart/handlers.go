package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-cart/internal/common"
	"github.com/noah-isme/toko-cart/internal/lock"
	"github.com/noah-isme/toko-cart/internal/pricing"
)

// CustomerHeader names the customer whose discounts seed the cart defaults.
const CustomerHeader = "X-Customer-ID"

// ModelFinder resolves model references to buyable records.
type ModelFinder interface {
	Find(ctx context.Context, ref ModelRef) (Buyable, error)
}

// CustomerLookup resolves customers for instance scoping.
type CustomerLookup interface {
	LookupCustomer(ctx context.Context, id string) (InstanceIdentifier, error)
}

// Locker serialises writes to one instance.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Handler exposes cart endpoints.
type Handler struct {
	Svc       *Service
	Models    ModelFinder
	Customers CustomerLookup
	Locker    Locker
	LockTTL   time.Duration
	Logger    zerolog.Logger
}

// Mount registers the cart routes on r. write wraps every mutating route.
func (h *Handler) Mount(r chi.Router, write ...func(http.Handler) http.Handler) {
	r.Route("/carts/{instance}", func(c chi.Router) {
		c.Get("/", h.Get)
		c.Get("/items/{rowId}", h.GetItem)
		c.Get("/items/{rowId}/attributes/{name}", h.GetItemAttribute)
		c.Group(func(g chi.Router) {
			g.Use(write...)
			g.Delete("/", h.Destroy)
			g.Put("/defaults", h.SetDefaults)
			g.Post("/items", h.AddItems)
			g.Patch("/items/{rowId}", h.UpdateItem)
			g.Delete("/items/{rowId}", h.RemoveItem)
			g.Put("/items/{rowId}/tax", h.SetItemTax)
			g.Put("/items/{rowId}/discount", h.SetItemDiscount)
			g.Put("/items/{rowId}/discount-fixed", h.SetItemDiscountFixed)
			g.Post("/items/{rowId}/associate", h.Associate)
		})
	})
}

type itemView struct {
	*Item
	Breakdown pricing.Breakdown `json:"breakdown"`
}

func viewOf(item *Item) itemView {
	return itemView{Item: item, Breakdown: item.Breakdown()}
}

type cartView struct {
	Instance string          `json:"instance"`
	Items    []itemView      `json:"items"`
	Defaults Defaults        `json:"defaults"`
	Summary  pricing.Summary `json:"summary"`
}

type modelRequest struct {
	Type string `json:"type" validate:"required"`
	ID   int64  `json:"id" validate:"required"`
}

type addItemRequest struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	Price        int64          `json:"price" validate:"gte=0"`
	Quantity     int            `json:"qty"`
	Options      map[string]any `json:"options"`
	Model        *modelRequest  `json:"model"`
	KeepDiscount bool           `json:"keepDiscount"`
	KeepTax      bool           `json:"keepTax"`
}

type patchItemRequest struct {
	ID       *int64         `json:"id"`
	Name     *string        `json:"name"`
	Price    *int64         `json:"price" validate:"omitempty,gte=0"`
	Quantity *int           `json:"qty"`
	Options  map[string]any `json:"options"`
}

type defaultsRequest struct {
	TaxRate       *int   `json:"taxRate" validate:"omitempty,gte=0,lte=100"`
	DiscountRate  *int   `json:"discountRate" validate:"omitempty,gte=0,lte=100"`
	DiscountFixed *int64 `json:"discountFixed" validate:"omitempty,gte=0"`
}

type rateRequest struct {
	Rate int `json:"rate" validate:"gte=0,lte=100"`
}

type amountRequest struct {
	Amount int64 `json:"amount" validate:"gte=0"`
}

// instance resolves the cart for the request. A known customer header seeds
// the discount defaults while the route keeps naming the instance.
func (h *Handler) instance(r *http.Request) (*Cart, error) {
	name := chi.URLParam(r, "instance")
	customerID := strings.TrimSpace(r.Header.Get(CustomerHeader))
	if customerID == "" || h.Customers == nil {
		return h.Svc.Instance(name), nil
	}
	customer, err := h.Customers.LookupCustomer(r.Context(), customerID)
	if err != nil {
		if errors.Is(err, ErrModelNotFound) {
			return h.Svc.Instance(name), nil
		}
		return nil, err
	}
	return h.Svc.InstanceFor(namedInstance{customer: customer, name: name}), nil
}

type namedInstance struct {
	customer InstanceIdentifier
	name     string
}

func (n namedInstance) InstanceIdentifier() string { return n.name }
func (n namedInstance) InstanceDiscountRate() int  { return n.customer.InstanceDiscountRate() }
func (n namedInstance) InstanceDiscountFixed() pricing.Money {
	return n.customer.InstanceDiscountFixed()
}

func (h *Handler) locked(r *http.Request, c *Cart, fn func(context.Context) error) error {
	if h.Locker == nil {
		return fn(r.Context())
	}
	return h.Locker.WithLock(r.Context(), "lock:"+InstanceKey(c.CurrentInstance()), h.LockTTL, fn)
}

func (h *Handler) ready(w http.ResponseWriter) bool {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return false
	}
	return true
}

// Get handles GET /carts/{instance}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	c, err := h.instance(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	content, err := c.Content(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	view := cartView{
		Instance: c.CurrentInstance(),
		Items:    make([]itemView, 0, content.Len()),
		Defaults: c.Defaults(),
		Summary:  pricing.Summarize(content.Lines()),
	}
	for _, it := range content.Items() {
		view.Items = append(view.Items, viewOf(it))
	}
	common.Data(w, http.StatusOK, view)
}

// Destroy handles DELETE /carts/{instance}.
func (h *Handler) Destroy(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	c, err := h.instance(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.locked(r, c, c.Destroy); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDefaults handles PUT /carts/{instance}/defaults.
func (h *Handler) SetDefaults(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req defaultsRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	c, err := h.instance(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	err = h.locked(r, c, func(ctx context.Context) error {
		if req.TaxRate != nil {
			if err := c.SetGlobalTax(ctx, *req.TaxRate); err != nil {
				return err
			}
		}
		if req.DiscountRate != nil {
			if err := c.SetGlobalDiscountRate(ctx, *req.DiscountRate); err != nil {
				return err
			}
		}
		if req.DiscountFixed != nil {
			return c.SetGlobalDiscountFixed(ctx, *req.DiscountFixed)
		}
		return nil
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, c.Defaults())
}

// AddItems handles POST /carts/{instance}/items. The body is one item or an array.
func (h *Handler) AddItems(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	reqs, many, err := decodeAddRequests(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	srcs := make([]Source, 0, len(reqs))
	for _, req := range reqs {
		src, err := h.source(r.Context(), req)
		if err != nil {
			h.writeError(w, err)
			return
		}
		srcs = append(srcs, src)
	}
	c, err := h.instance(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	var items []*Item
	err = h.locked(r, c, func(ctx context.Context) error {
		var addErr error
		items, addErr = c.AddMany(ctx, srcs)
		return addErr
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !many {
		common.Data(w, http.StatusCreated, viewOf(items[0]))
		return
	}
	views := make([]itemView, 0, len(items))
	for _, it := range items {
		views = append(views, viewOf(it))
	}
	common.Data(w, http.StatusCreated, views)
}

func decodeAddRequests(r *http.Request) ([]addItemRequest, bool, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, false, common.BadRequest("read body", err, nil)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, false, common.BadRequest("request body is empty", nil, nil)
	}
	var reqs []addItemRequest
	many := body[0] == '['
	if many {
		err = json.Unmarshal(body, &reqs)
	} else {
		var one addItemRequest
		err = json.Unmarshal(body, &one)
		reqs = []addItemRequest{one}
	}
	if err != nil {
		return nil, false, common.BadRequest("invalid JSON body", err, nil)
	}
	if len(reqs) == 0 {
		return nil, false, common.BadRequest("no items supplied", nil, nil)
	}
	for _, req := range reqs {
		if err := common.Validate(req); err != nil {
			return nil, false, err
		}
	}
	return reqs, many, nil
}

func (h *Handler) source(ctx context.Context, req addItemRequest) (Source, error) {
	opts := AddOptions{KeepDiscount: req.KeepDiscount, KeepTax: req.KeepTax}
	if req.Model == nil {
		src := FromAttributes(Attributes{
			ID:       req.ID,
			Name:     req.Name,
			Price:    req.Price,
			Quantity: req.Quantity,
			Options:  Options(req.Options),
		})
		src.AddOptions = opts
		return src, nil
	}
	if h.Models == nil {
		return nil, ErrUnknownModel
	}
	b, err := h.Models.Find(ctx, ModelRef{Type: req.Model.Type, ID: req.Model.ID})
	if err != nil {
		return nil, err
	}
	src := FromBuyable(b, req.Quantity, Options(req.Options))
	src.AddOptions = opts
	return src, nil
}

// GetItem handles GET /carts/{instance}/items/{rowId}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	c, err := h.instance(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	item, err := c.Get(r.Context(), chi.URLParam(r, "rowId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, viewOf(item))
}

// GetItemAttribute handles GET /carts/{instance}/items/{rowId}/attributes/{name}.
func (h *Handler) GetItemAttribute(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	c, err := h.instance(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	name := pricing.Attribute(chi.URLParam(r, "name"))
	value, ok, err := c.Attribute(r.Context(), chi.URLParam(r, "rowId"), name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !ok {
		common.JSONError(w, http.StatusNotFound, "UNKNOWN_ATTRIBUTE", "attribute is not defined", map[string]any{"name": name})
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"name": name, "value": value})
}

// UpdateItem handles PATCH /carts/{instance}/items/{rowId}. A non-positive
// quantity removes the row and answers 204.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	var req patchItemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	c, err := h.instance(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	patch := Patch{
		ID:       req.ID,
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
		Options:  Options(req.Options),
	}
	var item *Item
	err = h.locked(r, c, func(ctx context.Context) error {
		var updErr error
		item, updErr = c.Update(ctx, chi.URLParam(r, "rowId"), patch)
		return updErr
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	if item == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	common.Data(w, http.StatusOK, viewOf(item))
}

// RemoveItem handles DELETE /carts/{instance}/items/{rowId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if !h.ready(w) {
		return
	}
	c, err := h.instance(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rowID := chi.URLParam(r, "rowId")
	if err := h.locked(r, c, func(ctx context.Context) error { return c.Remove(ctx, rowID) }); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetItemTax handles PUT /carts/{instance}/items/{rowId}/tax.
func (h *Handler) SetItemTax(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	h.rowSetter(w, r, &req, func(ctx context.Context, c *Cart, rowID string) error {
		return c.SetTax(ctx, rowID, req.Rate)
	})
}

// SetItemDiscount handles PUT /carts/{instance}/items/{rowId}/discount.
func (h *Handler) SetItemDiscount(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	h.rowSetter(w, r, &req, func(ctx context.Context, c *Cart, rowID string) error {
		return c.SetDiscountRate(ctx, rowID, req.Rate)
	})
}

// SetItemDiscountFixed handles PUT /carts/{instance}/items/{rowId}/discount-fixed.
func (h *Handler) SetItemDiscountFixed(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	h.rowSetter(w, r, &req, func(ctx context.Context, c *Cart, rowID string) error {
		return c.SetDiscountFixed(ctx, rowID, req.Amount)
	})
}

// Associate handles POST /carts/{instance}/items/{rowId}/associate.
func (h *Handler) Associate(w http.ResponseWriter, r *http.Request) {
	var req modelRequest
	h.rowSetter(w, r, &req, func(ctx context.Context, c *Cart, rowID string) error {
		return c.Associate(ctx, rowID, ModelRef{Type: req.Type, ID: req.ID})
	})
}

func (h *Handler) rowSetter(w http.ResponseWriter, r *http.Request, req any, apply func(context.Context, *Cart, string) error) {
	if !h.ready(w) {
		return
	}
	if err := common.DecodeJSON(r, req); err != nil {
		h.writeError(w, err)
		return
	}
	c, err := h.instance(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	rowID := chi.URLParam(r, "rowId")
	var item *Item
	err = h.locked(r, c, func(ctx context.Context) error {
		if err := apply(ctx, c, rowID); err != nil {
			return err
		}
		var getErr error
		item, getErr = c.Get(ctx, rowID)
		return getErr
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, viewOf(item))
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRowNotFound):
		common.JSONError(w, http.StatusNotFound, "ROW_NOT_FOUND", "cart row not found", nil)
	case errors.Is(err, ErrModelNotFound):
		common.JSONError(w, http.StatusNotFound, "MODEL_NOT_FOUND", "catalog record not found", nil)
	case errors.Is(err, ErrInvalidAttribute):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_ATTRIBUTE", err.Error(), nil)
	case errors.Is(err, ErrUnknownModel):
		common.JSONError(w, http.StatusUnprocessableEntity, "UNKNOWN_MODEL", err.Error(), nil)
	case errors.Is(err, lock.ErrNotAcquired):
		common.JSONError(w, http.StatusConflict, "CART_BUSY", "cart is being modified", nil)
	case common.IsAppError(err):
		common.WriteError(w, err)
	default:
		h.Logger.Error().Err(err).Msg("cart request failed")
		common.WriteError(w, err)
	}
}
