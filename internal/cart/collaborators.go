package cart

import (
	"context"

	"github.com/noah-isme/toko-cart/internal/events"
	"github.com/noah-isme/toko-cart/internal/pricing"
)

// Store persists cart content per instance key. Get returns nil content when
// the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (*Content, error)
	Put(ctx context.Context, key string, content *Content) error
	Remove(ctx context.Context, key string) error
}

// Events receives cart notifications.
type Events interface {
	Emit(ctx context.Context, topic, instance string, payload any) (events.Event, error)
}

// Buyable is a catalog entry that can be turned into a cart item.
type Buyable interface {
	BuyableIdentifier(opts Options) int64
	BuyableDescription(opts Options) string
	BuyablePrice(opts Options) pricing.Money
}

// ModelTyper is implemented by buyables that can be referenced back from an item.
type ModelTyper interface {
	ModelType() string
}

// InstanceIdentifier seeds a cart instance and its discount defaults from an
// external scoping object such as a customer.
type InstanceIdentifier interface {
	InstanceIdentifier() string
	InstanceDiscountRate() int
	InstanceDiscountFixed() pricing.Money
}

// ModelResolver reports whether a model type tag is known.
type ModelResolver interface {
	Known(typ string) bool
}
