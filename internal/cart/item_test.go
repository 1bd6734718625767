package cart_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-cart/internal/cart"
)

func TestRowIDIgnoresOptionOrder(t *testing.T) {
	a := cart.RowID(7, cart.Options{"a": 1, "b": 2})
	b := cart.RowID(7, cart.Options{"b": 2, "a": 1})
	require.Equal(t, a, b)
	require.Len(t, a, 32)

	require.NotEqual(t, a, cart.RowID(8, cart.Options{"a": 1, "b": 2}))
	require.NotEqual(t, a, cart.RowID(7, cart.Options{"a": 1, "b": 3}))
	require.Equal(t, cart.RowID(7, nil), cart.RowID(7, cart.Options{}))
}

func TestRowIDStableAcrossJSONRoundTrip(t *testing.T) {
	opts := cart.Options{"size": "L", "pack": 3}
	data, err := json.Marshal(opts)
	require.NoError(t, err)
	var decoded cart.Options
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, cart.RowID(1, opts), cart.RowID(1, decoded))
}

func TestNewItemValidatesIdentity(t *testing.T) {
	cases := []struct {
		name  string
		id    int64
		title string
		price int64
	}{
		{"missing id", 0, "Shirt", 100},
		{"blank name", 1, "  ", 100},
		{"negative price", 1, "Shirt", -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := cart.NewItem(tc.id, tc.title, tc.price, nil)
			require.ErrorIs(t, err, cart.ErrInvalidAttribute)
		})
	}

	item, err := cart.NewItem(1, "Shirt", 0, nil)
	require.NoError(t, err)
	require.Zero(t, item.Quantity)
}

func TestSetQuantityRejectsNonPositive(t *testing.T) {
	item, err := cart.NewItem(1, "Shirt", 100, nil)
	require.NoError(t, err)
	require.ErrorIs(t, item.SetQuantity(0), cart.ErrInvalidAttribute)
	require.ErrorIs(t, item.SetQuantity(-2), cart.ErrInvalidAttribute)
	require.NoError(t, item.SetQuantity(3))
	require.Equal(t, 3, item.Quantity)
}

func TestNewItemFromBuyableAssociatesModel(t *testing.T) {
	item, err := cart.NewItemFromBuyable(testProduct{id: 5, name: "Mug", price: 450}, cart.Options{"color": "red"})
	require.NoError(t, err)
	require.Equal(t, int64(5), item.ID)
	require.Equal(t, "Mug", item.Name)
	require.Equal(t, int64(450), item.Price)
	require.NotNil(t, item.Model)
	require.Equal(t, cart.ModelRef{Type: "product", ID: 5}, *item.Model)
	require.Equal(t, cart.RowID(5, cart.Options{"color": "red"}), item.RowID)

	_, err = cart.NewItemFromBuyable(nil, nil)
	require.ErrorIs(t, err, cart.ErrInvalidAttribute)
}

func TestUpdateFromPatchRecomputesRowID(t *testing.T) {
	item, err := cart.NewItemFromAttributes(cart.Attributes{ID: 1, Name: "Shirt", Price: 100, Quantity: 1, Options: cart.Options{"size": "M"}})
	require.NoError(t, err)
	before := item.RowID

	name := "Shirt XL"
	require.NoError(t, item.UpdateFromPatch(cart.Patch{Name: &name}))
	require.Equal(t, before, item.RowID)

	require.NoError(t, item.UpdateFromPatch(cart.Patch{Options: cart.Options{"size": "L"}}))
	require.NotEqual(t, before, item.RowID)
	require.Equal(t, cart.RowID(1, cart.Options{"size": "L"}), item.RowID)

	blank := ""
	require.ErrorIs(t, item.UpdateFromPatch(cart.Patch{Name: &blank}), cart.ErrInvalidAttribute)
	require.Equal(t, "Shirt XL", item.Name)
}

func TestItemBreakdownFollowsBaseFields(t *testing.T) {
	item, err := cart.NewItemFromAttributes(cart.Attributes{ID: 1, Name: "Book", Price: 999, Quantity: 2})
	require.NoError(t, err)
	item.TaxRate = 21
	require.Equal(t, int64(1998), item.Total())
	require.Equal(t, int64(420), item.TaxTotal())
	require.Equal(t, int64(1578), item.Subtotal())
	require.Equal(t, item.Breakdown(), item.Breakdown())

	item.Quantity = 1
	require.Equal(t, int64(999), item.PriceTotal())
}

func TestItemCloneIsDeep(t *testing.T) {
	item, err := cart.NewItem(1, "Shirt", 100, cart.Options{"size": "M"})
	require.NoError(t, err)
	item.Associate(cart.ModelRef{Type: "product", ID: 1})

	clone := item.Clone()
	clone.Options["size"] = "L"
	clone.Model.ID = 9
	require.Equal(t, "M", item.Options["size"])
	require.Equal(t, int64(1), item.Model.ID)
}

type testProduct struct {
	id    int64
	name  string
	price int64
}

func (p testProduct) BuyableIdentifier(cart.Options) int64   { return p.id }
func (p testProduct) BuyableDescription(cart.Options) string { return p.name }
func (p testProduct) BuyablePrice(cart.Options) int64        { return p.price }
func (p testProduct) ModelType() string                      { return "product" }
