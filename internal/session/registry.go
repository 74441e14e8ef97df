package session

import (
	"context"
	"errors"
	"hash/fnv"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Srinuas/Foodapp/internal/domain"
	"github.com/Srinuas/Foodapp/internal/fx"
	"github.com/Srinuas/Foodapp/internal/pricing"
	"github.com/Srinuas/Foodapp/internal/storage"
)

// DefaultProfile is used when a caller does not name a profile.
const DefaultProfile = "default"

var ErrInvalidProfile = errors.New("invalid profile id")

var profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Deps are shared by every Context.
type Deps struct {
	Catalog   *domain.Catalog
	Engine    *pricing.Engine
	Rates     *fx.Provider
	Validator *validator.Validate
	Settings  Settings
}

// lockStripes is the number of cart locks shared out across profiles.
const lockStripes = 64

// Registry hands out a Context per profile. Each profile gets its own key
// space in the shared store; the rate provider is shared. Contexts carry no
// state of their own, so none are kept between calls.
type Registry struct {
	store storage.KeyValueStore
	deps  Deps
	locks [lockStripes]sync.Mutex
}

func NewRegistry(store storage.KeyValueStore, deps Deps) *Registry {
	return &Registry{store: store, deps: deps}
}

// Get returns a Context for id. The empty id is the default profile.
func (r *Registry) Get(ctx context.Context, id string) (*Context, error) {
	if id == "" {
		id = DefaultProfile
	}
	if !profileIDPattern.MatchString(id) {
		return nil, ErrInvalidProfile
	}
	return newContext(id, storage.Namespace(r.store, "profile:"+id), r.deps, r.lockFor(id)), nil
}

func (r *Registry) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &r.locks[h.Sum32()%lockStripes]
}

// Rates returns the shared rate provider.
func (r *Registry) Rates() *fx.Provider { return r.deps.Rates }

// Catalog returns the shared catalog.
func (r *Registry) Catalog() *domain.Catalog { return r.deps.Catalog }
