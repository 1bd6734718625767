package cart

import (
	"encoding/json"
	"maps"
	"slices"
)

// Options holds arbitrary scalar item options such as size or color.
type Options map[string]any

// Keys returns the option keys in sorted order.
func (o Options) Keys() []string {
	return slices.Sorted(maps.Keys(o))
}

// Get returns the option value for key, or nil when absent.
func (o Options) Get(key string) any {
	if o == nil {
		return nil
	}
	return o[key]
}

// Has reports whether key is set.
func (o Options) Has(key string) bool {
	_, ok := o[key]
	return ok
}

// Clone returns a shallow copy; nil stays nil.
func (o Options) Clone() Options {
	if o == nil {
		return nil
	}
	return maps.Clone(o)
}

// canonical renders the options with sorted keys. encoding/json sorts map keys,
// and numbers decoded back from JSON as float64 encode identically to ints.
func (o Options) canonical() string {
	if len(o) == 0 {
		return "{}"
	}
	data, err := json.Marshal(map[string]any(o))
	if err != nil {
		// non-scalar values that json cannot encode still need a stable form
		return fallbackCanonical(o)
	}
	return string(data)
}
