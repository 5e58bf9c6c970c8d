package setup

import (
	"net/url"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

var ErrSchemeNotRegistered = errors.New("scheme not registered")

type Factory[T any] func(u *url.URL) (T, error)

// Registry maps URI schemes to the factories of the implementations of T.
type Registry[T any] struct {
	mutex     sync.RWMutex
	factories map[string]Factory[T]
}

func (r *Registry[T]) Register(scheme string, factory Factory[T]) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.factories[scheme] = factory
}

func (r *Registry[T]) Schemes() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	schemes := make([]string, 0, len(r.factories))
	for s := range r.factories {
		schemes = append(schemes, s)
	}

	sort.Strings(schemes)

	return schemes
}

// From parses the given URI and creates the implementation registered
// for its scheme.
func (r *Registry[T]) From(rawURI string) (T, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return *new(T), errors.Wrapf(err, "could not parse uri '%s'", rawURI)
	}

	r.mutex.RLock()
	factory, exists := r.factories[u.Scheme]
	r.mutex.RUnlock()

	if !exists {
		return *new(T), errors.Wrapf(ErrSchemeNotRegistered, "no implementation registered for scheme '%s'", u.Scheme)
	}

	impl, err := factory(u)
	if err != nil {
		return *new(T), errors.WithStack(err)
	}

	return impl, nil
}

func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{
		factories: make(map[string]Factory[T]),
	}
}
