package cart

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-cart/internal/pricing"
)

// DefaultInstance is the instance selected when no name is given.
const DefaultInstance = "default"

// DefaultTaxRate is the tax percentage applied to new items unless configured otherwise.
const DefaultTaxRate = 21

// ServiceConfig carries the collaborators used by cart instances.
type ServiceConfig struct {
	Store  Store
	Events Events
	Models ModelResolver
	// DefaultTaxRate is the tax percentage given to new items. Nil selects
	// the package DefaultTaxRate; a pointer to zero disables tax.
	DefaultTaxRate *int
	// Attributes resolves derived amounts beyond the built-in set. Nil
	// limits lookups to built-ins.
	Attributes *pricing.Registry
	Logger     *zerolog.Logger
}

// Service hands out cart instances sharing one set of collaborators.
type Service struct {
	store   Store
	events  Events
	models  ModelResolver
	taxRate int
	attrs   *pricing.Registry
	logger  zerolog.Logger
}

// NewService constructs a cart service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("cart: store is required")
	}
	taxRate := DefaultTaxRate
	if cfg.DefaultTaxRate != nil {
		taxRate = *cfg.DefaultTaxRate
	}
	if err := checkRate("default tax rate", taxRate); err != nil {
		return nil, err
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "cart").Logger()
	}
	return &Service{
		store:   cfg.Store,
		events:  cfg.Events,
		models:  cfg.Models,
		taxRate: taxRate,
		attrs:   cfg.Attributes,
		logger:  logger,
	}, nil
}

// Instance returns a handle for the named cart instance.
func (s *Service) Instance(name string) *Cart {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultInstance
	}
	return &Cart{
		svc:      s,
		instance: name,
		defaults: Defaults{TaxRate: s.taxRate},
	}
}

// InstanceFor returns the cart instance named by id, seeding its discount
// defaults from it.
func (s *Service) InstanceFor(id InstanceIdentifier) *Cart {
	if id == nil {
		return s.Instance("")
	}
	c := s.Instance(id.InstanceIdentifier())
	c.defaults.DiscountRate = id.InstanceDiscountRate()
	c.defaults.DiscountFixed = id.InstanceDiscountFixed()
	return c
}

// InstanceKey returns the persistence key for an instance name.
func InstanceKey(name string) string {
	return "cart." + name
}
