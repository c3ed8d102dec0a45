package resolve

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/refindex"
)

type staticCenters []models.DistributionCenter

func (s staticCenters) List(context.Context) ([]models.DistributionCenter, error) { return s, nil }

type staticStores []models.Store

func (s staticStores) List(context.Context) ([]models.Store, error) { return s, nil }

type staticProducts []models.Product

func (s staticProducts) List(context.Context) ([]models.Product, error) { return s, nil }

type staticAliases struct {
	centers []models.CenterAlias
	stores  []models.StoreAlias
}

func (s staticAliases) ListCenterAliases(context.Context) ([]models.CenterAlias, error) {
	return s.centers, nil
}

func (s staticAliases) ListStoreAliases(context.Context) ([]models.StoreAlias, error) {
	return s.stores, nil
}

type staticIgnores map[models.EntityKind][]models.IgnoredName

func (s staticIgnores) ListIgnored(_ context.Context, kind models.EntityKind) ([]models.IgnoredName, error) {
	return s[kind], nil
}

func testIndex(t *testing.T) *refindex.Index {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	b := refindex.NewBuilder(
		logger,
		staticCenters{{ID: 7, Name: "Central-1", Code: "C1"}},
		staticStores{{ID: 3, ExternalID: 10452, Name: "Guatire 1"}},
		staticProducts{{ID: 5, Code: "SKU-100", Name: "Harina"}},
		staticAliases{
			centers: []models.CenterAlias{{ID: 1, RawName: "Central X", CenterID: 7}},
			stores:  []models.StoreAlias{{ID: 1, RawName: "Guatire I", StoreID: 3}},
		},
		staticIgnores{
			models.KindStore:  {{ID: 1, RawName: "Test Y"}},
			models.KindCenter: {{ID: 2, RawName: "Obsoleto"}},
		},
	)
	idx, err := b.Build(context.Background())
	require.NoError(t, err)
	return idx
}

func TestCenter(t *testing.T) {
	idx := testIndex(t)

	t.Run("should return empty for blank input", func(t *testing.T) {
		res := Center(idx, models.FieldOrigin, "   ")
		assert.Equal(t, StatusEmpty, res.Status)
		assert.Nil(t, res.Unresolved)
	})

	t.Run("should return ignored before any lookup", func(t *testing.T) {
		res := Center(idx, models.FieldOrigin, " OBSOLETO ")
		assert.Equal(t, StatusIgnored, res.Status)
		assert.Equal(t, ReasonIgnored, res.Reason)
	})

	t.Run("should resolve direct matches", func(t *testing.T) {
		res := Center(idx, models.FieldOrigin, "central-1")
		assert.Equal(t, StatusResolved, res.Status)
		assert.Equal(t, int64(7), res.Value.ID)
	})

	t.Run("should resolve by numeric id", func(t *testing.T) {
		res := Center(idx, models.FieldOrigin, "7")
		assert.Equal(t, StatusResolved, res.Status)
		assert.Equal(t, int64(7), res.Value.ID)
	})

	t.Run("should resolve aliases", func(t *testing.T) {
		res := Center(idx, models.FieldOrigin, "central x")
		assert.Equal(t, StatusResolved, res.Status)
		assert.Equal(t, int64(7), res.Value.ID)
	})

	t.Run("should report unresolved with a structured field", func(t *testing.T) {
		res := Center(idx, models.FieldOrigin, " Almacen Fantasma ")
		assert.Equal(t, StatusUnresolved, res.Status)
		assert.Equal(t, "distribution center not found: Almacen Fantasma", res.Reason)
		require.NotNil(t, res.Unresolved)
		assert.Equal(t, models.KindCenter, res.Unresolved.Kind)
		assert.Equal(t, models.FieldOrigin, res.Unresolved.Field)
		assert.Equal(t, "Almacen Fantasma", res.Unresolved.RawValue)
	})
}

func TestStore(t *testing.T) {
	idx := testIndex(t)

	t.Run("should resolve by external id", func(t *testing.T) {
		res := Store(idx, models.FieldDestination, "10452")
		assert.Equal(t, StatusResolved, res.Status)
		assert.Equal(t, int64(3), res.Value.ID)
	})

	t.Run("should resolve aliases", func(t *testing.T) {
		res := Store(idx, models.FieldDestination, "GUATIRE I")
		assert.Equal(t, StatusResolved, res.Status)
		assert.Equal(t, int64(3), res.Value.ID)
	})

	t.Run("should return ignored for configured names", func(t *testing.T) {
		res := Store(idx, models.FieldDestination, "Test Y")
		assert.Equal(t, StatusIgnored, res.Status)
	})

	t.Run("should report unresolved names", func(t *testing.T) {
		res := Store(idx, models.FieldDestination, "Guatire 2")
		assert.Equal(t, StatusUnresolved, res.Status)
		assert.Equal(t, "store not found: Guatire 2", res.Reason)
	})
}

func TestProduct(t *testing.T) {
	idx := testIndex(t)

	t.Run("should resolve by code", func(t *testing.T) {
		res := Product(idx, models.FieldProduct, "sku-100")
		assert.Equal(t, StatusResolved, res.Status)
		assert.Equal(t, int64(5), res.Value.ID)
	})

	t.Run("should return empty for blank code", func(t *testing.T) {
		res := Product(idx, models.FieldProduct, "")
		assert.Equal(t, StatusEmpty, res.Status)
	})

	t.Run("should report unresolved codes", func(t *testing.T) {
		res := Product(idx, models.FieldProduct, "SKU-999")
		assert.Equal(t, StatusUnresolved, res.Status)
		assert.Equal(t, "product not found: SKU-999", res.Reason)
	})
}
