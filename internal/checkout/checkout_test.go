package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Srinuas/Foodapp/internal/domain"
	"github.com/Srinuas/Foodapp/internal/fx"
	"github.com/Srinuas/Foodapp/internal/pricing"
	"github.com/Srinuas/Foodapp/internal/profile"
	"github.com/Srinuas/Foodapp/internal/session"
	"github.com/Srinuas/Foodapp/internal/storage"
)

func newSession(t *testing.T) (*session.Context, storage.KeyValueStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	supported := []string{"INR", "USD", "EUR", "GBP"}
	deps := session.Deps{
		Catalog: domain.DefaultCatalog(),
		Engine:  pricing.NewEngine(pricing.DefaultPolicy(), pricing.DefaultCouponPolicy()),
		Rates: fx.NewProvider(fx.NewCache(store, 12*time.Hour), nil, fx.Settings{
			Base:      "USD",
			Supported: supported,
			Fallback:  map[string]decimal.Decimal{"INR": decimal.NewFromInt(82), "USD": decimal.NewFromInt(1)},
		}),
		Validator: profile.NewValidator(),
		Settings:  session.Settings{DefaultCurrency: "USD", Supported: supported},
	}
	c, err := session.NewRegistry(store, deps).Get(context.Background(), "buyer")
	require.NoError(t, err)
	return c, storage.Namespace(store, "profile:buyer")
}

func newService(c *session.Context) *Service {
	s := New(c.Cart(), c.Profile(), c)
	s.now = func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) }
	s.newID = func() string { return "order-1" }
	return s
}

func login(t *testing.T, c *session.Context) {
	t.Helper()
	_, err := c.Profile().Login(context.Background(), domain.User{Name: "Asha", Email: "asha@example.com"})
	require.NoError(t, err)
}

func saveAddress(t *testing.T, c *session.Context) domain.Address {
	t.Helper()
	a, err := c.Profile().SaveAddress(context.Background(), domain.Address{
		Label: "Home", FullName: "Asha", Phone: "1", Line1: "x", City: "c", State: "s", Pincode: "1",
	})
	require.NoError(t, err)
	return a
}

func TestPlace_Preconditions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, c *session.Context, ns storage.KeyValueStore)
		want  Reason
	}{
		{
			name:  "empty cart wins over everything",
			setup: func(t *testing.T, c *session.Context, ns storage.KeyValueStore) {},
			want:  ReasonEmptyCart,
		},
		{
			name: "login required",
			setup: func(t *testing.T, c *session.Context, ns storage.KeyValueStore) {
				require.NoError(t, c.Cart().Add(context.Background(), 1))
				saveAddress(t, c)
			},
			want: ReasonLoginRequired,
		},
		{
			name: "address required",
			setup: func(t *testing.T, c *session.Context, ns storage.KeyValueStore) {
				require.NoError(t, c.Cart().Add(context.Background(), 1))
				login(t, c)
			},
			want: ReasonAddressRequired,
		},
		{
			name: "selected address deleted",
			setup: func(t *testing.T, c *session.Context, ns storage.KeyValueStore) {
				require.NoError(t, c.Cart().Add(context.Background(), 1))
				login(t, c)
				saveAddress(t, c)
				require.NoError(t, ns.Remove(context.Background(), storage.KeyAddresses))
			},
			want: ReasonAddressNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ns := newSession(t)
			tt.setup(t, c, ns)
			require.NoError(t, c.ApplyCoupon(context.Background(), "OFF10"))
			before := c.Cart().Snapshot(context.Background())

			receipt, err := newService(c).Place(context.Background())

			assert.Nil(t, receipt)
			var pe *PreconditionError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.want, pe.Reason)
			assert.ErrorIs(t, err, &PreconditionError{Reason: tt.want})
			assert.Equal(t, before, c.Cart().Snapshot(context.Background()))
			assert.Equal(t, "OFF10", c.ActiveCoupon(context.Background()))
		})
	}
}

func TestPlace_Success(t *testing.T) {
	ctx := context.Background()
	c, _ := newSession(t)
	require.NoError(t, c.Cart().Add(ctx, 1))
	require.NoError(t, c.Cart().SetQuantity(ctx, 1, 2))
	require.NoError(t, c.Cart().Add(ctx, 2))
	require.NoError(t, c.ApplyCoupon(ctx, "OFF10"))
	login(t, c)
	addr := saveAddress(t, c)

	receipt, err := newService(c).Place(ctx)
	require.NoError(t, err)

	assert.Equal(t, "order-1", receipt.OrderID)
	assert.Equal(t, addr.ID, receipt.AddressID)
	assert.Equal(t, "Home", receipt.AddressLabel)
	assert.Len(t, receipt.Lines, 2)
	assert.True(t, receipt.Totals.Total.Equal(decimal.RequireFromString("42.7215")))
	assert.Equal(t, "$42.72", receipt.Quote.Display.Total)

	assert.Equal(t, 0, c.Cart().Count(ctx))
	assert.Equal(t, "", c.ActiveCoupon(ctx))
	_, ok := c.Profile().SelectedAddress(ctx)
	assert.True(t, ok, "address selection is kept for the next order")
}

func TestReason_String(t *testing.T) {
	assert.Equal(t, "EMPTY_CART", ReasonEmptyCart.String())
	assert.Equal(t, "ADDRESS_NOT_FOUND", ReasonAddressNotFound.String())
	assert.Equal(t, "UNKNOWN", Reason(0).String())
}
