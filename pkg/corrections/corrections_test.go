package corrections

import (
	"context"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/yarrow/pkg/models"
)

type fakeTransactor struct{ calls int }

func (f *fakeTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.calls++
	return fn(ctx)
}

type fakeCenterWriter struct{ nextID int64 }

func (f *fakeCenterWriter) Create(_ context.Context, req models.CreateCenterRequest) (*models.DistributionCenter, error) {
	f.nextID++
	return &models.DistributionCenter{ID: f.nextID, Name: req.Name, Code: req.Code}, nil
}

type fakeStoreWriter struct{ nextID int64 }

func (f *fakeStoreWriter) Create(_ context.Context, req models.CreateStoreRequest) (*models.Store, error) {
	f.nextID++
	return &models.Store{ID: f.nextID, Name: req.Name, ExternalID: req.ExternalID}, nil
}

type fakeProductWriter struct {
	nextID   int64
	products map[string]*models.Product
}

func (f *fakeProductWriter) Create(_ context.Context, req models.CreateProductRequest) (*models.Product, error) {
	f.nextID++
	p := &models.Product{ID: f.nextID, Code: req.Code, Name: req.Name}
	f.products[req.Code] = p
	return p, nil
}

func (f *fakeProductWriter) GetByCode(_ context.Context, code string) (*models.Product, error) {
	p, ok := f.products[code]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "product not found")
	}
	return p, nil
}

type fakeAliasStore struct {
	centerAliases map[int64]*models.CenterAlias
	storeAliases  map[int64]*models.StoreAlias
	nextID        int64
	failCreate    bool
}

func (f *fakeAliasStore) CreateCenterAlias(_ context.Context, rawName string, centerID int64) (*models.CenterAlias, error) {
	if f.failCreate {
		return nil, httperror.NewHTTPError(http.StatusConflict, "alias already exists")
	}
	f.nextID++
	a := &models.CenterAlias{ID: f.nextID, RawName: rawName, CenterID: centerID}
	f.centerAliases[a.ID] = a
	return a, nil
}

func (f *fakeAliasStore) CreateStoreAlias(_ context.Context, rawName string, storeID int64) (*models.StoreAlias, error) {
	f.nextID++
	a := &models.StoreAlias{ID: f.nextID, RawName: rawName, StoreID: storeID}
	f.storeAliases[a.ID] = a
	return a, nil
}

func (f *fakeAliasStore) DeleteCenterAlias(_ context.Context, id int64) (*models.CenterAlias, error) {
	a, ok := f.centerAliases[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "alias not found")
	}
	delete(f.centerAliases, id)
	return a, nil
}

func (f *fakeAliasStore) DeleteStoreAlias(_ context.Context, id int64) (*models.StoreAlias, error) {
	a, ok := f.storeAliases[id]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "alias not found")
	}
	delete(f.storeAliases, id)
	return a, nil
}

type fakeIgnoreStore struct {
	entries map[string]*models.IgnoredName
	nextID  int64
}

func ignoreKey(kind models.EntityKind, rawName string) string {
	return string(kind) + "/" + rawName
}

func (f *fakeIgnoreStore) Create(_ context.Context, kind models.EntityKind, rawName, reason string) (*models.IgnoredName, error) {
	f.nextID++
	e := &models.IgnoredName{ID: f.nextID, RawName: rawName, Reason: reason}
	f.entries[ignoreKey(kind, rawName)] = e
	return e, nil
}

func (f *fakeIgnoreStore) DeleteByRawName(_ context.Context, kind models.EntityKind, rawName string) (*models.IgnoredName, error) {
	e, ok := f.entries[ignoreKey(kind, rawName)]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "ignore entry not found")
	}
	delete(f.entries, ignoreKey(kind, rawName))
	return e, nil
}

type resetCall struct {
	kind     models.EntityKind
	rawValue string
	from     []string
	to       string
}

type rewriteCall struct {
	rawCode string
	newCode string
	from    []string
}

type fakeResetter struct {
	calls    []resetCall
	rewrites []rewriteCall
}

func (f *fakeResetter) UpdateStatusByRawValue(_ context.Context, kind models.EntityKind, rawValue string, from []string, to string) (int64, error) {
	f.calls = append(f.calls, resetCall{kind: kind, rawValue: rawValue, from: from, to: to})
	return 1, nil
}

func (f *fakeResetter) RewriteProductCode(_ context.Context, rawCode, newCode string, from []string) (int64, error) {
	f.rewrites = append(f.rewrites, rewriteCall{rawCode: rawCode, newCode: newCode, from: from})
	return 1, nil
}

type emitted struct {
	event   string
	kind    models.EntityKind
	rawName string
}

type fakeEmitter struct{ events []emitted }

func (f *fakeEmitter) MasterCreated(_ context.Context, kind models.EntityKind, _ int64, name string) error {
	f.events = append(f.events, emitted{event: "master.created", kind: kind, rawName: name})
	return nil
}

func (f *fakeEmitter) AliasCreated(_ context.Context, kind models.EntityKind, rawName string, _ int64) error {
	f.events = append(f.events, emitted{event: "alias.created", kind: kind, rawName: rawName})
	return nil
}

func (f *fakeEmitter) AliasDeleted(_ context.Context, kind models.EntityKind, rawName string) error {
	f.events = append(f.events, emitted{event: "alias.deleted", kind: kind, rawName: rawName})
	return nil
}

func (f *fakeEmitter) NameIgnored(_ context.Context, kind models.EntityKind, rawName string) error {
	f.events = append(f.events, emitted{event: "name.ignored", kind: kind, rawName: rawName})
	return nil
}

func (f *fakeEmitter) NameUnignored(_ context.Context, kind models.EntityKind, rawName string) error {
	f.events = append(f.events, emitted{event: "name.unignored", kind: kind, rawName: rawName})
	return nil
}

func (f *fakeEmitter) ProductMapped(_ context.Context, rawCode, _ string) error {
	f.events = append(f.events, emitted{event: "product.mapped", kind: models.KindProduct, rawName: rawCode})
	return nil
}

type harness struct {
	service         *Service
	tx              *fakeTransactor
	products        *fakeProductWriter
	aliases         *fakeAliasStore
	ignores         *fakeIgnoreStore
	planRecords     *fakeResetter
	dispatchRecords *fakeResetter
	emitter         *fakeEmitter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	h := &harness{
		tx:              &fakeTransactor{},
		products:        &fakeProductWriter{products: map[string]*models.Product{}},
		aliases:         &fakeAliasStore{centerAliases: map[int64]*models.CenterAlias{}, storeAliases: map[int64]*models.StoreAlias{}},
		ignores:         &fakeIgnoreStore{entries: map[string]*models.IgnoredName{}},
		planRecords:     &fakeResetter{},
		dispatchRecords: &fakeResetter{},
		emitter:         &fakeEmitter{},
	}
	h.service = NewService(
		logger,
		h.tx,
		&fakeCenterWriter{},
		&fakeStoreWriter{},
		h.products,
		h.aliases,
		h.ignores,
		h.planRecords,
		h.dispatchRecords,
		h.emitter,
	)
	return h
}

func TestCreateCenter(t *testing.T) {
	t.Run("should create and requeue failed records by name and code", func(t *testing.T) {
		h := newHarness(t)

		created, err := h.service.CreateCenter(context.Background(), models.CreateCenterRequest{Name: "CEDIS Valencia", Code: "VAL"})
		require.NoError(t, err)
		assert.Equal(t, "CEDIS Valencia", created.Name)

		require.Len(t, h.planRecords.calls, 2)
		assert.Equal(t, resetCall{kind: models.KindCenter, rawValue: "CEDIS Valencia", from: []string{models.StatusError}, to: models.StatusPending}, h.planRecords.calls[0])
		assert.Equal(t, "VAL", h.planRecords.calls[1].rawValue)
		assert.Len(t, h.dispatchRecords.calls, 2)

		require.Len(t, h.emitter.events, 1)
		assert.Equal(t, "master.created", h.emitter.events[0].event)
		assert.Equal(t, 1, h.tx.calls)
	})
}

func TestCreateStore(t *testing.T) {
	t.Run("should create and requeue failed records by name", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.service.CreateStore(context.Background(), models.CreateStoreRequest{Name: "Guatire 2", ExternalID: 10499})
		require.NoError(t, err)

		require.Len(t, h.planRecords.calls, 1)
		assert.Equal(t, models.KindStore, h.planRecords.calls[0].kind)
		assert.Equal(t, "Guatire 2", h.planRecords.calls[0].rawValue)
		assert.Equal(t, models.StatusPending, h.planRecords.calls[0].to)
	})
}

func TestCreateProduct(t *testing.T) {
	t.Run("should create and requeue failed records by code", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.service.CreateProduct(context.Background(), models.CreateProductRequest{Code: "SKU-999", Name: "Azucar"})
		require.NoError(t, err)

		require.Len(t, h.dispatchRecords.calls, 1)
		assert.Equal(t, models.KindProduct, h.dispatchRecords.calls[0].kind)
		assert.Equal(t, "SKU-999", h.dispatchRecords.calls[0].rawValue)
	})
}

func TestMapProduct(t *testing.T) {
	t.Run("should rewrite raw codes and requeue both record sets", func(t *testing.T) {
		h := newHarness(t)
		h.products.products["SKU-100"] = &models.Product{ID: 5, Code: "SKU-100", Name: "Harina"}

		target, err := h.service.MapProduct(context.Background(), models.MapProductRequest{RawCode: "SKU-1OO", TargetCode: "SKU-100"})
		require.NoError(t, err)
		assert.Equal(t, "SKU-100", target.Code)

		require.Len(t, h.planRecords.rewrites, 1)
		assert.Equal(t, rewriteCall{rawCode: "SKU-1OO", newCode: "SKU-100", from: []string{models.StatusOK, models.StatusError}}, h.planRecords.rewrites[0])
		require.Len(t, h.dispatchRecords.rewrites, 1)

		require.Len(t, h.emitter.events, 1)
		assert.Equal(t, "product.mapped", h.emitter.events[0].event)
		assert.Equal(t, 1, h.tx.calls)
	})

	t.Run("should fail without rewriting when the target code is unknown", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.service.MapProduct(context.Background(), models.MapProductRequest{RawCode: "SKU-1OO", TargetCode: "SKU-404"})
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
		assert.Empty(t, h.planRecords.rewrites)
		assert.Empty(t, h.emitter.events)
	})
}

func TestMapAliases(t *testing.T) {
	t.Run("should map a center alias and requeue its raw value", func(t *testing.T) {
		h := newHarness(t)

		created, err := h.service.MapCenterAlias(context.Background(), models.MapCenterAliasRequest{RawName: "Central X", CenterID: 7})
		require.NoError(t, err)
		assert.Equal(t, int64(7), created.CenterID)

		require.Len(t, h.planRecords.calls, 1)
		assert.Equal(t, resetCall{kind: models.KindCenter, rawValue: "Central X", from: []string{models.StatusError}, to: models.StatusPending}, h.planRecords.calls[0])

		require.Len(t, h.emitter.events, 1)
		assert.Equal(t, "alias.created", h.emitter.events[0].event)
	})

	t.Run("should map a store alias and requeue its raw value", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.service.MapStoreAlias(context.Background(), models.MapStoreAliasRequest{RawName: "Guatire I", StoreID: 3})
		require.NoError(t, err)

		require.Len(t, h.dispatchRecords.calls, 1)
		assert.Equal(t, models.KindStore, h.dispatchRecords.calls[0].kind)
		assert.Equal(t, "Guatire I", h.dispatchRecords.calls[0].rawValue)
	})

	t.Run("should not reset or emit when the alias write fails", func(t *testing.T) {
		h := newHarness(t)
		h.aliases.failCreate = true

		_, err := h.service.MapCenterAlias(context.Background(), models.MapCenterAliasRequest{RawName: "Central X", CenterID: 7})
		require.Error(t, err)
		assert.Empty(t, h.planRecords.calls)
		assert.Empty(t, h.emitter.events)
	})
}

func TestIgnoreName(t *testing.T) {
	t.Run("should flip failed records to ignored", func(t *testing.T) {
		h := newHarness(t)

		created, err := h.service.IgnoreName(context.Background(), models.IgnoreNameRequest{Kind: models.KindStore, RawName: "Test Y", Reason: "test row"})
		require.NoError(t, err)
		assert.Equal(t, "Test Y", created.RawName)

		require.Len(t, h.planRecords.calls, 1)
		assert.Equal(t, resetCall{kind: models.KindStore, rawValue: "Test Y", from: []string{models.StatusError}, to: models.StatusIgnored}, h.planRecords.calls[0])

		require.Len(t, h.emitter.events, 1)
		assert.Equal(t, "name.ignored", h.emitter.events[0].event)
	})

	t.Run("should reject product ignores", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.service.IgnoreName(context.Background(), models.IgnoreNameRequest{Kind: models.KindProduct, RawName: "SKU-1"})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})
}

func TestUnignoreName(t *testing.T) {
	t.Run("should requeue ignored records", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.service.IgnoreName(context.Background(), models.IgnoreNameRequest{Kind: models.KindStore, RawName: "Test Y"})
		require.NoError(t, err)

		err = h.service.UnignoreName(context.Background(), models.UnignoreNameRequest{Kind: models.KindStore, RawName: "Test Y"})
		require.NoError(t, err)

		last := h.planRecords.calls[len(h.planRecords.calls)-1]
		assert.Equal(t, resetCall{kind: models.KindStore, rawValue: "Test Y", from: []string{models.StatusIgnored}, to: models.StatusPending}, last)

		assert.Equal(t, "name.unignored", h.emitter.events[len(h.emitter.events)-1].event)
	})

	t.Run("should fail when the entry does not exist", func(t *testing.T) {
		h := newHarness(t)

		err := h.service.UnignoreName(context.Background(), models.UnignoreNameRequest{Kind: models.KindStore, RawName: "nope"})
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	})
}

func TestDeleteAlias(t *testing.T) {
	t.Run("should requeue records resolved through the deleted alias", func(t *testing.T) {
		h := newHarness(t)
		created, err := h.service.MapStoreAlias(context.Background(), models.MapStoreAliasRequest{RawName: "Guatire I", StoreID: 3})
		require.NoError(t, err)

		err = h.service.DeleteAlias(context.Background(), models.DeleteAliasRequest{Kind: models.KindStore, AliasID: created.ID})
		require.NoError(t, err)

		last := h.planRecords.calls[len(h.planRecords.calls)-1]
		assert.Equal(t, resetCall{kind: models.KindStore, rawValue: "Guatire I", from: []string{models.StatusOK, models.StatusError}, to: models.StatusPending}, last)

		assert.Equal(t, "alias.deleted", h.emitter.events[len(h.emitter.events)-1].event)
	})

	t.Run("should reject unknown kinds", func(t *testing.T) {
		h := newHarness(t)

		err := h.service.DeleteAlias(context.Background(), models.DeleteAliasRequest{Kind: models.KindProduct, AliasID: 1})
		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, httperror.GetStatusCode(err))
	})
}
