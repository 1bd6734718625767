package cart

import (
	"context"
	"fmt"

	"github.com/noah-isme/toko-cart/internal/events"
	"github.com/noah-isme/toko-cart/internal/pricing"
)

// Cart is a handle on one named cart instance. Each operation loads the
// stored content, applies the change and writes it back; handles carry no
// lock and concurrent writers to one instance are last-write-wins.
type Cart struct {
	svc      *Service
	instance string
	defaults Defaults
}

// Payload is the body attached to cart notifications.
type Payload struct {
	Item      *Item             `json:"item"`
	Breakdown pricing.Breakdown `json:"breakdown"`
}

// CurrentInstance returns the instance name.
func (c *Cart) CurrentInstance() string { return c.instance }

// Defaults returns the rates applied to new items.
func (c *Cart) Defaults() Defaults { return c.defaults }

func (c *Cart) key() string { return InstanceKey(c.instance) }

func (c *Cart) load(ctx context.Context) (*Content, error) {
	content, err := c.svc.store.Get(ctx, c.key())
	if err != nil {
		return nil, fmt.Errorf("load cart %s: %w", c.instance, err)
	}
	if content == nil {
		return NewContent(), nil
	}
	if content.Defaults != nil {
		c.defaults = *content.Defaults
	}
	return content, nil
}

func (c *Cart) save(ctx context.Context, content *Content) error {
	var err error
	if content.IsEmpty() && content.Defaults == nil {
		err = c.svc.store.Remove(ctx, c.key())
	} else {
		err = c.svc.store.Put(ctx, c.key(), content)
	}
	if err != nil {
		return fmt.Errorf("save cart %s: %w", c.instance, err)
	}
	return nil
}

func (c *Cart) emit(ctx context.Context, topic string, item *Item) error {
	if c.svc.events == nil {
		return nil
	}
	if _, err := c.svc.events.Emit(ctx, topic, c.instance, Payload{Item: item, Breakdown: item.Breakdown()}); err != nil {
		return fmt.Errorf("emit %s: %w", topic, err)
	}
	return nil
}

type prepared struct {
	item *Item
	opts AddOptions
}

func prepare(src Source) (prepared, error) {
	if src == nil {
		return prepared{}, fmt.Errorf("source is nil: %w", ErrInvalidAttribute)
	}
	item, opts, err := src.build()
	if err != nil {
		return prepared{}, err
	}
	return prepared{item: item, opts: opts}, nil
}

// Add builds an item from src and adds it to the cart.
func (c *Cart) Add(ctx context.Context, src Source) (*Item, error) {
	p, err := prepare(src)
	if err != nil {
		return nil, err
	}
	return c.AddItem(ctx, p.item, p.opts)
}

// AddMany adds every source in order and returns the resulting items in the
// same order. Every source is built and validated before the first one is
// stored, so an invalid source leaves the cart untouched.
func (c *Cart) AddMany(ctx context.Context, srcs []Source) ([]*Item, error) {
	batch := make([]prepared, 0, len(srcs))
	for i, src := range srcs {
		p, err := prepare(src)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		batch = append(batch, p)
	}
	out := make([]*Item, 0, len(batch))
	for i, p := range batch {
		item, err := c.AddItem(ctx, p.item, p.opts)
		if err != nil {
			return out, fmt.Errorf("item %d: %w", i, err)
		}
		out = append(out, item)
	}
	return out, nil
}

// AddItem merges item into the cart. Cart defaults replace the item's rates
// unless opts keeps them. When the row already exists only its quantity grows.
func (c *Cart) AddItem(ctx context.Context, item *Item, opts AddOptions) (*Item, error) {
	if item == nil {
		return nil, fmt.Errorf("item is nil: %w", ErrInvalidAttribute)
	}
	if item.Quantity <= 0 {
		return nil, fmt.Errorf("qty must be positive: %w", ErrInvalidAttribute)
	}
	content, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	item = item.Clone()
	if !opts.KeepDiscount {
		item.DiscountRate = c.defaults.DiscountRate
		item.DiscountFixed = c.defaults.DiscountFixed
	}
	if !opts.KeepTax {
		item.TaxRate = c.defaults.TaxRate
	}
	if existing, ok := content.Get(item.RowID); ok {
		existing.Quantity += item.Quantity
		item = existing
	} else {
		content.Put(item)
	}

	if !opts.Silent {
		if err := c.emit(ctx, events.TopicCartAdding, item); err != nil {
			return nil, err
		}
	}
	if err := c.save(ctx, content); err != nil {
		return nil, err
	}
	if !opts.Silent {
		if err := c.emit(ctx, events.TopicCartAdded, item); err != nil {
			return nil, err
		}
	}
	c.svc.logger.Debug().Str("instance", c.instance).Str("row_id", item.RowID).Int("qty", item.Quantity).Msg("cart item added")
	return item.Clone(), nil
}

// Update applies change to the row. A resulting quantity of zero or less
// removes the row and returns a nil item. When the row id changes and
// collides with another row, the quantities merge into that row; otherwise
// the item keeps its position under the new id.
func (c *Cart) Update(ctx context.Context, rowID string, change Change) (*Item, error) {
	if change == nil {
		return nil, fmt.Errorf("change is nil: %w", ErrInvalidAttribute)
	}
	content, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	stored, ok := content.Get(rowID)
	if !ok {
		return nil, fmt.Errorf("update %s: %w", rowID, ErrRowNotFound)
	}
	item := stored.Clone()
	if err := change.apply(item); err != nil {
		return nil, err
	}

	oldIndex := -1
	if item.RowID != rowID {
		oldIndex = content.IndexOf(rowID)
		content.Pull(rowID)
		if existing, ok := content.Get(item.RowID); ok {
			existing.Quantity += item.Quantity
			item = existing
			oldIndex = -1
		}
	}

	if item.Quantity <= 0 {
		content.Pull(item.RowID)
		if err := c.emit(ctx, events.TopicCartRemoving, item); err != nil {
			return nil, err
		}
		if err := c.save(ctx, content); err != nil {
			return nil, err
		}
		if err := c.emit(ctx, events.TopicCartRemoved, item); err != nil {
			return nil, err
		}
		c.svc.logger.Debug().Str("instance", c.instance).Str("row_id", rowID).Msg("cart item removed by update")
		return nil, nil
	}

	if oldIndex >= 0 {
		content.Insert(oldIndex, item)
	} else {
		content.Put(item)
	}
	if err := c.emit(ctx, events.TopicCartUpdating, item); err != nil {
		return nil, err
	}
	if err := c.save(ctx, content); err != nil {
		return nil, err
	}
	if err := c.emit(ctx, events.TopicCartUpdated, item); err != nil {
		return nil, err
	}
	c.svc.logger.Debug().Str("instance", c.instance).Str("row_id", item.RowID).Int("qty", item.Quantity).Msg("cart item updated")
	return item.Clone(), nil
}

// Remove deletes the row.
func (c *Cart) Remove(ctx context.Context, rowID string) error {
	content, err := c.load(ctx)
	if err != nil {
		return err
	}
	item, ok := content.Pull(rowID)
	if !ok {
		return fmt.Errorf("remove %s: %w", rowID, ErrRowNotFound)
	}
	if err := c.emit(ctx, events.TopicCartRemoving, item); err != nil {
		return err
	}
	if err := c.save(ctx, content); err != nil {
		return err
	}
	if err := c.emit(ctx, events.TopicCartRemoved, item); err != nil {
		return err
	}
	c.svc.logger.Debug().Str("instance", c.instance).Str("row_id", rowID).Msg("cart item removed")
	return nil
}

// Get returns a copy of the row.
func (c *Cart) Get(ctx context.Context, rowID string) (*Item, error) {
	content, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	item, ok := content.Get(rowID)
	if !ok {
		return nil, fmt.Errorf("get %s: %w", rowID, ErrRowNotFound)
	}
	return item.Clone(), nil
}

// Attribute resolves a named derived amount for one row. It reports false
// for names that are neither built in nor registered.
func (c *Cart) Attribute(ctx context.Context, rowID string, name pricing.Attribute) (pricing.Money, bool, error) {
	item, err := c.Get(ctx, rowID)
	if err != nil {
		return 0, false, err
	}
	v, ok := c.svc.attrs.Lookup(name, item.Line())
	return v, ok, nil
}

// Content returns a copy of the stored rows.
func (c *Cart) Content(ctx context.Context) (*Content, error) {
	content, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	return content.Clone(), nil
}

// Destroy removes the instance from the store.
func (c *Cart) Destroy(ctx context.Context) error {
	if err := c.svc.store.Remove(ctx, c.key()); err != nil {
		return fmt.Errorf("destroy cart %s: %w", c.instance, err)
	}
	return nil
}

// Search returns the rows matching fn in cart order.
func (c *Cart) Search(ctx context.Context, fn func(*Item) bool) ([]*Item, error) {
	content, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	var out []*Item
	for _, it := range content.Items() {
		if fn == nil || fn(it) {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

// Associate attaches a weak model reference to the row.
func (c *Cart) Associate(ctx context.Context, rowID string, ref ModelRef) error {
	if c.svc.models == nil || !c.svc.models.Known(ref.Type) {
		return fmt.Errorf("model %q: %w", ref.Type, ErrUnknownModel)
	}
	return c.mutateRow(ctx, rowID, func(it *Item) { it.Associate(ref) })
}

// checkRate rejects percentages outside 0..100.
func checkRate(field string, rate int) error {
	if rate < 0 || rate > 100 {
		return fmt.Errorf("%s %d outside 0..100: %w", field, rate, ErrInvalidAttribute)
	}
	return nil
}

func checkAmount(field string, amount pricing.Money) error {
	if amount < 0 {
		return fmt.Errorf("%s must not be negative: %w", field, ErrInvalidAttribute)
	}
	return nil
}

// SetTax overrides the tax rate of one row.
func (c *Cart) SetTax(ctx context.Context, rowID string, rate int) error {
	if err := checkRate("taxRate", rate); err != nil {
		return err
	}
	return c.mutateRow(ctx, rowID, func(it *Item) { it.TaxRate = rate })
}

// SetDiscountRate overrides the percentage discount of one row.
func (c *Cart) SetDiscountRate(ctx context.Context, rowID string, rate int) error {
	if err := checkRate("discountRate", rate); err != nil {
		return err
	}
	return c.mutateRow(ctx, rowID, func(it *Item) { it.DiscountRate = rate })
}

// SetDiscountFixed overrides the fixed discount of one row.
func (c *Cart) SetDiscountFixed(ctx context.Context, rowID string, amount pricing.Money) error {
	if err := checkAmount("discountFixed", amount); err != nil {
		return err
	}
	return c.mutateRow(ctx, rowID, func(it *Item) { it.DiscountFixed = amount })
}

func (c *Cart) mutateRow(ctx context.Context, rowID string, fn func(*Item)) error {
	content, err := c.load(ctx)
	if err != nil {
		return err
	}
	item, ok := content.Get(rowID)
	if !ok {
		return fmt.Errorf("row %s: %w", rowID, ErrRowNotFound)
	}
	fn(item)
	return c.save(ctx, content)
}

// SetGlobalTax sets the default tax rate and rewrites it on every row.
func (c *Cart) SetGlobalTax(ctx context.Context, rate int) error {
	if err := checkRate("taxRate", rate); err != nil {
		return err
	}
	return c.mutateAll(ctx, func(d *Defaults) { d.TaxRate = rate }, func(it *Item) { it.TaxRate = rate })
}

// SetGlobalDiscountRate sets the default percentage discount and rewrites it on every row.
func (c *Cart) SetGlobalDiscountRate(ctx context.Context, rate int) error {
	if err := checkRate("discountRate", rate); err != nil {
		return err
	}
	return c.mutateAll(ctx, func(d *Defaults) { d.DiscountRate = rate }, func(it *Item) { it.DiscountRate = rate })
}

// SetGlobalDiscountFixed sets the default fixed discount and rewrites it on every row.
func (c *Cart) SetGlobalDiscountFixed(ctx context.Context, amount pricing.Money) error {
	if err := checkAmount("discountFixed", amount); err != nil {
		return err
	}
	return c.mutateAll(ctx, func(d *Defaults) { d.DiscountFixed = amount }, func(it *Item) { it.DiscountFixed = amount })
}

func (c *Cart) mutateAll(ctx context.Context, setDefault func(*Defaults), setItem func(*Item)) error {
	content, err := c.load(ctx)
	if err != nil {
		return err
	}
	setDefault(&c.defaults)
	for _, it := range content.Items() {
		setItem(it)
	}
	d := c.defaults
	content.Defaults = &d
	return c.save(ctx, content)
}

// Summary returns every cart-level aggregate in one pass.
func (c *Cart) Summary(ctx context.Context) (pricing.Summary, error) {
	content, err := c.load(ctx)
	if err != nil {
		return pricing.Summary{}, err
	}
	return pricing.Summarize(content.Lines()), nil
}

// Count returns the sum of quantities.
func (c *Cart) Count(ctx context.Context) (int, error) {
	s, err := c.Summary(ctx)
	return s.Count, err
}

// CountInstances returns the number of rows.
func (c *Cart) CountInstances(ctx context.Context) (int, error) {
	s, err := c.Summary(ctx)
	return s.Instances, err
}

// Total returns the sum of row totals.
func (c *Cart) Total(ctx context.Context) (pricing.Money, error) {
	s, err := c.Summary(ctx)
	return s.Total, err
}

// Tax returns the sum of row tax totals.
func (c *Cart) Tax(ctx context.Context) (pricing.Money, error) {
	s, err := c.Summary(ctx)
	return s.Tax, err
}

// Subtotal returns the sum of row subtotals.
func (c *Cart) Subtotal(ctx context.Context) (pricing.Money, error) {
	s, err := c.Summary(ctx)
	return s.Subtotal, err
}

// Discount returns the sum of row discount totals.
func (c *Cart) Discount(ctx context.Context) (pricing.Money, error) {
	s, err := c.Summary(ctx)
	return s.Discount, err
}

// Initial returns the sum of price times quantity before discounts.
func (c *Cart) Initial(ctx context.Context) (pricing.Money, error) {
	s, err := c.Summary(ctx)
	return s.Initial, err
}

// PriceTotal returns the sum of row price totals.
func (c *Cart) PriceTotal(ctx context.Context) (pricing.Money, error) {
	s, err := c.Summary(ctx)
	return s.PriceTotal, err
}
