// Package checkout turns a priced cart into an order receipt once the
// shopper is logged in and has picked a delivery address.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Srinuas/Foodapp/internal/domain"
	"github.com/Srinuas/Foodapp/internal/profile"
)

// Reason says which precondition blocked an order.
type Reason int

const (
	ReasonEmptyCart Reason = iota + 1
	ReasonLoginRequired
	ReasonAddressRequired
	ReasonAddressNotFound
)

func (r Reason) String() string {
	switch r {
	case ReasonEmptyCart:
		return "EMPTY_CART"
	case ReasonLoginRequired:
		return "LOGIN_REQUIRED"
	case ReasonAddressRequired:
		return "ADDRESS_REQUIRED"
	case ReasonAddressNotFound:
		return "ADDRESS_NOT_FOUND"
	default:
		return "UNKNOWN"
	}
}

// PreconditionError is returned when an order cannot be placed yet.
type PreconditionError struct {
	Reason Reason
}

func (e *PreconditionError) Error() string {
	return "checkout blocked: " + e.Reason.String()
}

// Is matches another *PreconditionError with the same reason.
func (e *PreconditionError) Is(target error) bool {
	t, ok := target.(*PreconditionError)
	return ok && t.Reason == e.Reason
}

// Cart is the cart view checkout needs.
type Cart interface {
	Snapshot(ctx context.Context) []domain.CartLine
	Clear(ctx context.Context) error
}

// Profile is the user and address view checkout needs.
type Profile interface {
	CurrentUser(ctx context.Context) (domain.User, bool)
	SelectedAddressID(ctx context.Context) (string, bool)
	Addresses(ctx context.Context) []domain.Address
}

// Pricing is the pricing view checkout needs.
type Pricing interface {
	Quote(ctx context.Context) domain.Quote
	ClearCoupon(ctx context.Context) error
}

type Service struct {
	cart    Cart
	profile Profile
	pricing Pricing
	now     func() time.Time
	newID   func() string
}

func New(cart Cart, profile Profile, pricing Pricing) *Service {
	return &Service{
		cart:    cart,
		profile: profile,
		pricing: pricing,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Place checks the preconditions in order and, if all hold, returns a
// receipt and empties the cart and the active coupon. A failed
// precondition changes nothing.
func (s *Service) Place(ctx context.Context) (*domain.Receipt, error) {
	lines := s.cart.Snapshot(ctx)
	if len(lines) == 0 {
		return nil, &PreconditionError{Reason: ReasonEmptyCart}
	}
	if _, ok := s.profile.CurrentUser(ctx); !ok {
		return nil, &PreconditionError{Reason: ReasonLoginRequired}
	}
	addrID, ok := s.profile.SelectedAddressID(ctx)
	if !ok {
		return nil, &PreconditionError{Reason: ReasonAddressRequired}
	}
	addr, ok := profile.Find(s.profile.Addresses(ctx), addrID)
	if !ok {
		return nil, &PreconditionError{Reason: ReasonAddressNotFound}
	}

	quote := s.pricing.Quote(ctx)
	receipt := &domain.Receipt{
		OrderID:      s.newID(),
		PlacedAt:     s.now(),
		AddressID:    addr.ID,
		AddressLabel: addr.Label,
		Lines:        lines,
		Totals:       quote.Base,
		Quote:        quote,
	}

	if err := s.cart.Clear(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	if err := s.pricing.ClearCoupon(ctx); err != nil {
		slog.Warn("Failed to clear coupon after checkout", slog.Any("error", err))
	}

	slog.Info("Order placed",
		slog.String("order_id", receipt.OrderID),
		slog.String("address", addr.Label),
		slog.String("total", quote.Display.Total))
	return receipt, nil
}
