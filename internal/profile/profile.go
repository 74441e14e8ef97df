// Package profile stores the logged-in user and saved delivery addresses
// for one shopper profile.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Srinuas/Foodapp/internal/domain"
	"github.com/Srinuas/Foodapp/internal/storage"
)

const (
	userVersion      = 1
	addressesVersion = 1
	selectedVersion  = 1
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrAddressNotFound = errors.New("address not found")
)

// Profile reads through to the store on every call so a value written by
// another process is picked up.
type Profile struct {
	store    storage.KeyValueStore
	validate *validator.Validate
	newID    func() string
}

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func New(store storage.KeyValueStore, validate *validator.Validate) *Profile {
	return &Profile{
		store:    store,
		validate: validate,
		newID:    func() string { return uuid.NewString() },
	}
}

// Login validates and stores u as the current user.
func (p *Profile) Login(ctx context.Context, u domain.User) (domain.User, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Phone = strings.TrimSpace(u.Phone)

	if err := p.check(u); err != nil {
		return domain.User{}, err
	}
	if err := storage.Save(ctx, p.store, storage.KeyUser, userVersion, u); err != nil {
		return domain.User{}, fmt.Errorf("failed to save user: %w", err)
	}
	return u, nil
}

// CurrentUser returns the logged-in user. A stored user that no longer
// validates is treated as absent.
func (p *Profile) CurrentUser(ctx context.Context) (domain.User, bool) {
	var u domain.User
	if !storage.LoadCompat(ctx, p.store, storage.KeyUser, userVersion, &u) {
		return domain.User{}, false
	}
	if p.validate.Struct(u) != nil {
		return domain.User{}, false
	}
	return u, true
}

// Logout forgets the user. Addresses are kept.
func (p *Profile) Logout(ctx context.Context) error {
	if err := p.store.Remove(ctx, storage.KeyUser); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}
	return nil
}

// Addresses returns the saved addresses in the order they were added.
func (p *Profile) Addresses(ctx context.Context) []domain.Address {
	var list []domain.Address
	if !storage.LoadCompat(ctx, p.store, storage.KeyAddresses, addressesVersion, &list) {
		return []domain.Address{}
	}
	out := list[:0]
	for _, a := range list {
		if a.ID != "" {
			out = append(out, a)
		}
	}
	return out
}

// SaveAddress validates a, assigns it a new id, appends it and selects it.
func (p *Profile) SaveAddress(ctx context.Context, a domain.Address) (domain.Address, error) {
	a.ID = p.newID()
	a.Label = strings.TrimSpace(a.Label)
	if a.Label == "" {
		a.Label = "Address"
	}
	if err := p.check(a); err != nil {
		return domain.Address{}, err
	}

	list := append(p.Addresses(ctx), a)
	if err := storage.Save(ctx, p.store, storage.KeyAddresses, addressesVersion, list); err != nil {
		return domain.Address{}, fmt.Errorf("failed to save addresses: %w", err)
	}
	if err := p.setSelected(ctx, a.ID); err != nil {
		return domain.Address{}, err
	}
	return a, nil
}

// SelectAddress marks a saved address as the delivery address.
func (p *Profile) SelectAddress(ctx context.Context, id string) error {
	if _, ok := Find(p.Addresses(ctx), id); !ok {
		return fmt.Errorf("%w: %s", ErrAddressNotFound, id)
	}
	return p.setSelected(ctx, id)
}

// SelectedAddressID returns the stored selection, which may refer to an
// address that no longer exists.
func (p *Profile) SelectedAddressID(ctx context.Context) (string, bool) {
	raw, ok, err := p.store.Get(ctx, storage.KeySelectedAddress)
	if err != nil {
		slog.Warn("Store read failed, no address selected", slog.Any("error", err))
		return "", false
	}
	if !ok {
		return "", false
	}

	var id string
	if storage.Decode(raw, selectedVersion, &id) {
		return id, id != ""
	}
	// Older clients stored the bare id string.
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, `{}[]"`) {
		return "", false
	}
	return raw, true
}

// SelectedAddress resolves the selection against the saved list.
func (p *Profile) SelectedAddress(ctx context.Context) (domain.Address, bool) {
	id, ok := p.SelectedAddressID(ctx)
	if !ok {
		return domain.Address{}, false
	}
	return Find(p.Addresses(ctx), id)
}

func (p *Profile) setSelected(ctx context.Context, id string) error {
	if err := storage.Save(ctx, p.store, storage.KeySelectedAddress, selectedVersion, id); err != nil {
		return fmt.Errorf("failed to save selected address: %w", err)
	}
	return nil
}

func (p *Profile) check(v any) error {
	err := p.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field()+" "+fe.Tag())
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
}

// Find returns the address with id from list.
func Find(list []domain.Address, id string) (domain.Address, bool) {
	for _, a := range list {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Address{}, false
}
