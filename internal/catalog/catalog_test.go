package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-cart/internal/cart"
	"github.com/noah-isme/toko-cart/internal/catalog"
	"github.com/noah-isme/toko-cart/internal/pricing"
)

func newCatalog(t *testing.T) (*catalog.RedisCatalog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return catalog.NewRedisCatalog(catalog.NewCache(client, time.Hour)), mr
}

func TestProductSurcharges(t *testing.T) {
	p := catalog.Product{
		ID:    7,
		Name:  "Shirt",
		Price: 5000,
		Surcharges: map[string]map[string]pricing.Money{
			"size":  {"XL": 500},
			"print": {"true": 250},
		},
	}
	require.Equal(t, pricing.Money(5000), p.BuyablePrice(nil))
	require.Equal(t, pricing.Money(5000), p.BuyablePrice(cart.Options{"size": "M"}))
	require.Equal(t, pricing.Money(5750), p.BuyablePrice(cart.Options{"size": "XL", "print": true}))
	require.Equal(t, int64(7), p.BuyableIdentifier(nil))
	require.Equal(t, "Shirt", p.BuyableDescription(nil))
	require.Equal(t, catalog.ModelTypeProduct, p.ModelType())
}

func TestRedisCatalogProducts(t *testing.T) {
	c, mr := newCatalog(t)
	ctx := context.Background()

	_, err := c.Product(ctx, 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)
	require.ErrorIs(t, err, cart.ErrModelNotFound)

	require.NoError(t, c.SaveProduct(ctx, catalog.Product{ID: 1, Name: "Mug", Price: 1200}))
	require.True(t, mr.Exists("catalog:product:1"))
	require.Equal(t, time.Hour, mr.TTL("catalog:product:1"))

	b, err := c.FindBuyable(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(1200), b.BuyablePrice(nil))

	require.NoError(t, c.DeleteProduct(ctx, 1))
	_, err = c.FindBuyable(ctx, 1)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRedisCatalogCustomers(t *testing.T) {
	c, _ := newCatalog(t)
	ctx := context.Background()

	require.NoError(t, c.SaveCustomer(ctx, catalog.Customer{ID: "cust-1", DiscountRate: 10, DiscountFixed: 200}))
	id, err := c.LookupCustomer(ctx, "cust-1")
	require.NoError(t, err)
	require.Equal(t, "cust-1", id.InstanceIdentifier())
	require.Equal(t, 10, id.InstanceDiscountRate())
	require.Equal(t, pricing.Money(200), id.InstanceDiscountFixed())

	_, err = c.LookupCustomer(ctx, "ghost")
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCacheCorruptPayload(t *testing.T) {
	c, mr := newCatalog(t)
	require.NoError(t, mr.Set("catalog:product:3", "{not json"))
	_, err := c.Product(context.Background(), 3)
	require.Error(t, err)
	require.False(t, errors.Is(err, catalog.ErrNotFound))
}

func TestNilCacheIsEmpty(t *testing.T) {
	var cache *catalog.Cache
	var dst catalog.Product
	ok, err := cache.GetJSON(context.Background(), "k", &dst)
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, cache.SetJSON(context.Background(), "k", dst))
	require.NoError(t, cache.Delete(context.Background(), "k"))
}

func TestRegistry(t *testing.T) {
	reg := catalog.NewRegistry()
	require.Error(t, reg.Register("", catalog.FinderFunc(nil)))
	require.Error(t, reg.Register("product", nil))

	require.NoError(t, reg.Register("product", catalog.FinderFunc(func(_ context.Context, id int64) (cart.Buyable, error) {
		return catalog.Product{ID: id, Name: "Found", Price: 10}, nil
	})))
	require.True(t, reg.Known("product"))
	require.False(t, reg.Known("service"))

	b, err := reg.Find(context.Background(), cart.ModelRef{Type: "product", ID: 4})
	require.NoError(t, err)
	require.Equal(t, int64(4), b.BuyableIdentifier(nil))

	_, err = reg.Find(context.Background(), cart.ModelRef{Type: "service", ID: 4})
	require.ErrorIs(t, err, cart.ErrUnknownModel)

	var nilReg *catalog.Registry
	require.False(t, nilReg.Known("product"))
}
