package client

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/example/jewel-storefront/internal/catalog"
)

// ErrStale is returned for a fetch that finished after a newer one started.
var ErrStale = errors.New("stale catalog response")

type ProductLister interface {
	ListProducts(ctx context.Context) ([]catalog.Product, error)
}

// Loader sequences catalog fetches so that only the latest one lands.
type Loader struct {
	lister ProductLister

	mu       sync.Mutex
	latest   uint64
	status   catalog.LoadStatus
	products []catalog.Product
	err      error
}

func NewLoader(lister ProductLister) *Loader {
	return &Loader{lister: lister, status: catalog.StatusLoading}
}

// Load fetches the catalog. When another Load started in the meantime the
// result is dropped, ErrStale is returned and the loader state is untouched.
func (l *Loader) Load(ctx context.Context) ([]catalog.Product, error) {
	l.mu.Lock()
	l.latest++
	token := l.latest
	l.status = catalog.StatusLoading
	l.mu.Unlock()

	products, err := l.lister.ListProducts(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if token != l.latest {
		return nil, ErrStale
	}
	if err != nil {
		l.status = catalog.StatusFailed
		l.err = err
		return nil, err
	}
	l.status = catalog.StatusLoaded
	l.err = nil
	l.products = slices.Clone(products)
	return slices.Clone(products), nil
}

func (l *Loader) Status() catalog.LoadStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// Err is the failure of the latest fetch, if it failed.
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Products returns the last catalog that loaded successfully.
func (l *Loader) Products() []catalog.Product {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.products)
}

// View filters the loaded catalog and classifies what the listing should show.
func (l *Loader) View(c catalog.Criteria) (catalog.ViewState, []catalog.Product) {
	l.mu.Lock()
	status := l.status
	all := slices.Clone(l.products)
	l.mu.Unlock()

	matched := catalog.Filter(all, c)
	return catalog.Classify(status, len(all), len(matched)), matched
}
