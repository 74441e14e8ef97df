// Package storage provides the durable key/value contract every other
// component persists through, plus its backends.
package storage

import "context"

// Persisted keys. Each key has exactly one owning component.
const (
	KeyUser            = "qb_user"
	KeyCart            = "qb_cart"
	KeyAddresses       = "qb_addresses"
	KeySelectedAddress = "qb_addr_selected"
	KeyCurrency        = "qb_currency"
	KeyCoupon          = "qb_coupon"
	KeyRates           = "qb_fx_rates"
)

// KeyValueStore is a durable key to string mapping.
// Get reports ok=false for an absent key; that is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

type namespaced struct {
	inner  KeyValueStore
	prefix string
}

// Namespace scopes every key under prefix so profiles sharing one backend
// never see each other's values.
func Namespace(store KeyValueStore, prefix string) KeyValueStore {
	if prefix == "" {
		return store
	}
	return &namespaced{inner: store, prefix: prefix + ":"}
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.inner.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.inner.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Remove(ctx context.Context, key string) error {
	return n.inner.Remove(ctx, n.prefix+key)
}
