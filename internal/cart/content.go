package cart

import (
	"encoding/json"
	"slices"

	"github.com/noah-isme/toko-cart/internal/pricing"
)

// Defaults are cart-level rates applied to newly added items.
type Defaults struct {
	DiscountRate  int           `json:"discountRate"`
	DiscountFixed pricing.Money `json:"discountFixed"`
	TaxRate       int           `json:"taxRate"`
}

// Content is the insertion-ordered set of rows stored for one cart instance.
// Defaults is non-nil only after a global rate was set explicitly.
type Content struct {
	rows     []*Item
	Defaults *Defaults
}

// NewContent returns content holding items in the given order. Later items
// replace earlier ones sharing a row id.
func NewContent(items ...*Item) *Content {
	c := &Content{}
	for _, it := range items {
		c.Put(it)
	}
	return c
}

// Len returns the number of rows.
func (c *Content) Len() int {
	if c == nil {
		return 0
	}
	return len(c.rows)
}

// IsEmpty reports whether there are no rows.
func (c *Content) IsEmpty() bool { return c.Len() == 0 }

// IndexOf returns the position of rowID or -1.
func (c *Content) IndexOf(rowID string) int {
	if c == nil {
		return -1
	}
	return slices.IndexFunc(c.rows, func(it *Item) bool { return it.RowID == rowID })
}

// Has reports whether rowID is present.
func (c *Content) Has(rowID string) bool { return c.IndexOf(rowID) >= 0 }

// Get returns the stored item for rowID.
func (c *Content) Get(rowID string) (*Item, bool) {
	idx := c.IndexOf(rowID)
	if idx < 0 {
		return nil, false
	}
	return c.rows[idx], true
}

// Put replaces the row in place when it exists, otherwise appends it.
func (c *Content) Put(item *Item) {
	if idx := c.IndexOf(item.RowID); idx >= 0 {
		c.rows[idx] = item
		return
	}
	c.rows = append(c.rows, item)
}

// Insert places item at position idx, clamped to the valid range. An existing
// row with the same id is removed first.
func (c *Content) Insert(idx int, item *Item) {
	c.Pull(item.RowID)
	idx = max(0, min(idx, len(c.rows)))
	c.rows = slices.Insert(c.rows, idx, item)
}

// Pull removes and returns the row for rowID.
func (c *Content) Pull(rowID string) (*Item, bool) {
	idx := c.IndexOf(rowID)
	if idx < 0 {
		return nil, false
	}
	item := c.rows[idx]
	c.rows = slices.Delete(c.rows, idx, idx+1)
	return item, true
}

// Keys returns the row ids in order.
func (c *Content) Keys() []string {
	keys := make([]string, 0, c.Len())
	for _, it := range c.Items() {
		keys = append(keys, it.RowID)
	}
	return keys
}

// Items returns the stored items in order. The slice is a copy; the items are not.
func (c *Content) Items() []*Item {
	if c == nil {
		return nil
	}
	return slices.Clone(c.rows)
}

// Lines returns the pricing inputs of every row in order.
func (c *Content) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, c.Len())
	for _, it := range c.Items() {
		lines = append(lines, it.Line())
	}
	return lines
}

// Clone returns a deep copy.
func (c *Content) Clone() *Content {
	out := &Content{}
	if c == nil {
		return out
	}
	out.rows = make([]*Item, 0, len(c.rows))
	for _, it := range c.rows {
		out.rows = append(out.rows, it.Clone())
	}
	if c.Defaults != nil {
		d := *c.Defaults
		out.Defaults = &d
	}
	return out
}

type contentJSON struct {
	Items    []*Item   `json:"items"`
	Defaults *Defaults `json:"defaults,omitempty"`
}

// MarshalJSON encodes rows as an ordered array.
func (c *Content) MarshalJSON() ([]byte, error) {
	payload := contentJSON{Items: c.Items(), Defaults: c.Defaults}
	if payload.Items == nil {
		payload.Items = []*Item{}
	}
	return json.Marshal(payload)
}

// UnmarshalJSON restores rows in their encoded order.
func (c *Content) UnmarshalJSON(data []byte) error {
	var payload contentJSON
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	*c = Content{Defaults: payload.Defaults}
	for _, it := range payload.Items {
		if it == nil {
			continue
		}
		c.Put(it)
	}
	return nil
}
