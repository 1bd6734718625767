package catalog

import (
	"context"
	"strconv"

	"github.com/noah-isme/toko-cart/internal/cart"
)

// RedisCatalog stores products and customers as JSON documents.
type RedisCatalog struct {
	cache *Cache
}

// NewRedisCatalog constructs a catalog backed by cache.
func NewRedisCatalog(cache *Cache) *RedisCatalog {
	return &RedisCatalog{cache: cache}
}

func productKey(id int64) string { return "catalog:product:" + strconv.FormatInt(id, 10) }

func customerKey(id string) string { return "catalog:customer:" + id }

// Product loads a product by id.
func (c *RedisCatalog) Product(ctx context.Context, id int64) (Product, error) {
	return document[Product](ctx, c.cache, productKey(id))
}

// SaveProduct writes p.
func (c *RedisCatalog) SaveProduct(ctx context.Context, p Product) error {
	return c.cache.SetJSON(ctx, productKey(p.ID), p)
}

// DeleteProduct removes the product.
func (c *RedisCatalog) DeleteProduct(ctx context.Context, id int64) error {
	return c.cache.Delete(ctx, productKey(id))
}

// FindBuyable implements Finder for products.
func (c *RedisCatalog) FindBuyable(ctx context.Context, id int64) (cart.Buyable, error) {
	p, err := c.Product(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Customer loads a customer by id.
func (c *RedisCatalog) Customer(ctx context.Context, id string) (Customer, error) {
	return document[Customer](ctx, c.cache, customerKey(id))
}

// SaveCustomer writes cu.
func (c *RedisCatalog) SaveCustomer(ctx context.Context, cu Customer) error {
	return c.cache.SetJSON(ctx, customerKey(cu.ID), cu)
}

// LookupCustomer resolves a customer for cart instance scoping.
func (c *RedisCatalog) LookupCustomer(ctx context.Context, id string) (cart.InstanceIdentifier, error) {
	cu, err := c.Customer(ctx, id)
	if err != nil {
		return nil, err
	}
	return cu, nil
}
