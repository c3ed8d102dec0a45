// Package refindex builds the in-memory reference index used to resolve
// free-text names against the master catalogs.
package refindex

import (
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/normalizers"
)

// Index is an immutable snapshot of the master catalogs keyed for lookup.
// Keys are normalized with normalizers.Key; direct keys always win over
// alias keys because lookups consult the direct surface first.
type Index struct {
	centerDirect  map[string]models.DistributionCenter
	centerAlias   map[string]models.DistributionCenter
	storeDirect   map[string]models.Store
	storeAlias    map[string]models.Store
	productDirect map[string]models.Product
	ignores       *Registry
}

// LookupCenter resolves a raw center name, trying the direct surface first
// and the alias surface second.
func (idx *Index) LookupCenter(raw string) (models.DistributionCenter, bool) {
	key := normalizers.Key(raw)
	if c, ok := idx.centerDirect[key]; ok {
		return c, true
	}
	c, ok := idx.centerAlias[key]
	return c, ok
}

// LookupStore resolves a raw store name, direct surface first.
func (idx *Index) LookupStore(raw string) (models.Store, bool) {
	key := normalizers.Key(raw)
	if s, ok := idx.storeDirect[key]; ok {
		return s, true
	}
	s, ok := idx.storeAlias[key]
	return s, ok
}

// LookupProduct resolves a raw item code against the product catalog.
func (idx *Index) LookupProduct(raw string) (models.Product, bool) {
	p, ok := idx.productDirect[normalizers.Key(raw)]
	return p, ok
}

// Ignores returns the ignore registry loaded with this snapshot.
func (idx *Index) Ignores() *Registry {
	return idx.ignores
}

// CenterNames returns the canonical center names, used for suggestion scoring.
func (idx *Index) CenterNames() []string {
	return collectNames(idx.centerDirect, func(c models.DistributionCenter) string { return c.Name })
}

// StoreNames returns the canonical store names.
func (idx *Index) StoreNames() []string {
	return collectNames(idx.storeDirect, func(s models.Store) string { return s.Name })
}

// ProductCodes returns the canonical product codes.
func (idx *Index) ProductCodes() []string {
	return collectNames(idx.productDirect, func(p models.Product) string { return p.Code })
}

func collectNames[T any](direct map[string]T, name func(T) string) []string {
	seen := make(map[string]bool, len(direct))
	names := make([]string, 0, len(direct))
	for _, v := range direct {
		n := name(v)
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

func setIfAbsent[T any](m map[string]T, key string, value T) {
	if key == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}
