package refindex

import (
	"context"
	"strconv"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/normalizers"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// CenterSource lists the distribution center catalog.
type CenterSource interface {
	List(ctx context.Context) ([]models.DistributionCenter, error)
}

// StoreSource lists the store catalog.
type StoreSource interface {
	List(ctx context.Context) ([]models.Store, error)
}

// ProductSource lists the product catalog.
type ProductSource interface {
	List(ctx context.Context) ([]models.Product, error)
}

// AliasSource lists the configured alias mappings.
type AliasSource interface {
	ListCenterAliases(ctx context.Context) ([]models.CenterAlias, error)
	ListStoreAliases(ctx context.Context) ([]models.StoreAlias, error)
}

// IgnoreSource lists the configured ignore entries.
type IgnoreSource interface {
	ListIgnored(ctx context.Context, kind models.EntityKind) ([]models.IgnoredName, error)
}

// Builder loads a consistent Index snapshot from the configured sources.
type Builder struct {
	logger   ectologger.Logger
	centers  CenterSource
	stores   StoreSource
	products ProductSource
	aliases  AliasSource
	ignores  IgnoreSource
}

// NewBuilder creates a Builder over the given sources.
func NewBuilder(
	logger ectologger.Logger,
	centers CenterSource,
	stores StoreSource,
	products ProductSource,
	aliases AliasSource,
	ignores IgnoreSource,
) *Builder {
	return &Builder{
		logger:   logger,
		centers:  centers,
		stores:   stores,
		products: products,
		aliases:  aliases,
		ignores:  ignores,
	}
}

// Build loads all catalogs and returns the lookup snapshot. Aliases never
// overwrite direct keys, and within the alias pass the first mapping for a
// key wins.
func (b *Builder) Build(ctx context.Context) (*Index, error) {
	ctx, span := tracing.StartSpan(ctx, "refindex.Builder.Build")
	defer span.End()

	log := b.logger.WithContext(ctx)

	idx := &Index{
		centerDirect:  make(map[string]models.DistributionCenter),
		centerAlias:   make(map[string]models.DistributionCenter),
		storeDirect:   make(map[string]models.Store),
		storeAlias:    make(map[string]models.Store),
		productDirect: make(map[string]models.Product),
		ignores:       NewRegistry(),
	}

	centers, err := b.centers.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.DistributionCenter, len(centers))
	for _, c := range centers {
		byID[c.ID] = c
		setIfAbsent(idx.centerDirect, normalizers.Key(c.Name), c)
		setIfAbsent(idx.centerDirect, strconv.FormatInt(c.ID, 10), c)
		setIfAbsent(idx.centerDirect, normalizers.Key(c.Code), c)
	}

	stores, err := b.stores.List(ctx)
	if err != nil {
		return nil, err
	}
	storesByID := make(map[int64]models.Store, len(stores))
	for _, s := range stores {
		storesByID[s.ID] = s
		setIfAbsent(idx.storeDirect, normalizers.Key(s.Name), s)
		if s.ExternalID != 0 {
			setIfAbsent(idx.storeDirect, strconv.FormatInt(s.ExternalID, 10), s)
		}
	}

	products, err := b.products.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		setIfAbsent(idx.productDirect, normalizers.Key(p.Code), p)
	}

	centerAliases, err := b.aliases.ListCenterAliases(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range centerAliases {
		target, ok := byID[a.CenterID]
		if !ok {
			log.WithFields(map[string]any{"alias_id": a.ID, "center_id": a.CenterID}).Warn("Center alias points at missing center")
			continue
		}
		setIfAbsent(idx.centerAlias, normalizers.Key(a.RawName), target)
		// The target's own identifiers also resolve through the alias surface
		setIfAbsent(idx.centerAlias, normalizers.Key(target.Code), target)
		setIfAbsent(idx.centerAlias, strconv.FormatInt(target.ID, 10), target)
	}

	storeAliases, err := b.aliases.ListStoreAliases(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range storeAliases {
		target, ok := storesByID[a.StoreID]
		if !ok {
			log.WithFields(map[string]any{"alias_id": a.ID, "store_id": a.StoreID}).Warn("Store alias points at missing store")
			continue
		}
		setIfAbsent(idx.storeAlias, normalizers.Key(a.RawName), target)
		if target.ExternalID != 0 {
			setIfAbsent(idx.storeAlias, strconv.FormatInt(target.ExternalID, 10), target)
		}
	}

	for _, kind := range []models.EntityKind{models.KindCenter, models.KindStore} {
		entries, err := b.ignores.ListIgnored(ctx, kind)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			idx.ignores.Add(kind, e.RawName, e.Reason)
		}
	}

	log.WithFields(map[string]any{
		"centers":  len(centers),
		"stores":   len(stores),
		"products": len(products),
	}).Debug("Built reference index")

	return idx, nil
}
