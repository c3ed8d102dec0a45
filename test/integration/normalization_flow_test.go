package integration

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/yarrow/pkg/classifier"
	"github.com/Ramsey-B/yarrow/pkg/corrections"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/normalizers"
	"github.com/Ramsey-B/yarrow/pkg/pipeline"
	"github.com/Ramsey-B/yarrow/pkg/refindex"
	"github.com/Ramsey-B/yarrow/pkg/resolve"
)

// In-memory stand-ins for the repositories, matching their contracts closely
// enough to run the full normalize -> report -> correct -> renormalize loop.

type memTx struct{}

func (memTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type centerCatalog struct {
	rows   []models.DistributionCenter
	nextID int64
}

func (c *centerCatalog) List(context.Context) ([]models.DistributionCenter, error) {
	return c.rows, nil
}

func (c *centerCatalog) Create(_ context.Context, req models.CreateCenterRequest) (*models.DistributionCenter, error) {
	c.nextID++
	row := models.DistributionCenter{ID: c.nextID, Name: req.Name, Code: req.Code}
	c.rows = append(c.rows, row)
	return &row, nil
}

type storeCatalog struct {
	rows   []models.Store
	nextID int64
}

func (c *storeCatalog) List(context.Context) ([]models.Store, error) { return c.rows, nil }

func (c *storeCatalog) Create(_ context.Context, req models.CreateStoreRequest) (*models.Store, error) {
	c.nextID++
	row := models.Store{ID: c.nextID, Name: req.Name, ExternalID: req.ExternalID}
	c.rows = append(c.rows, row)
	return &row, nil
}

type productCatalog struct {
	rows   []models.Product
	nextID int64
}

func (c *productCatalog) List(context.Context) ([]models.Product, error) { return c.rows, nil }

func (c *productCatalog) Create(_ context.Context, req models.CreateProductRequest) (*models.Product, error) {
	c.nextID++
	row := models.Product{ID: c.nextID, Code: req.Code, Name: req.Name, Category: req.Category}
	c.rows = append(c.rows, row)
	return &row, nil
}

func (c *productCatalog) GetByCode(_ context.Context, code string) (*models.Product, error) {
	key := normalizers.Key(code)
	for _, row := range c.rows {
		if normalizers.Key(row.Code) == key {
			return &row, nil
		}
	}
	return nil, httperror.NewHTTPError(404, "product not found")
}

type aliasTable struct {
	centers []models.CenterAlias
	stores  []models.StoreAlias
	nextID  int64
}

func (a *aliasTable) ListCenterAliases(context.Context) ([]models.CenterAlias, error) {
	return a.centers, nil
}

func (a *aliasTable) ListStoreAliases(context.Context) ([]models.StoreAlias, error) {
	return a.stores, nil
}

func (a *aliasTable) CreateCenterAlias(_ context.Context, rawName string, centerID int64) (*models.CenterAlias, error) {
	a.nextID++
	row := models.CenterAlias{ID: a.nextID, RawName: rawName, CenterID: centerID}
	a.centers = append(a.centers, row)
	return &row, nil
}

func (a *aliasTable) CreateStoreAlias(_ context.Context, rawName string, storeID int64) (*models.StoreAlias, error) {
	a.nextID++
	row := models.StoreAlias{ID: a.nextID, RawName: rawName, StoreID: storeID}
	a.stores = append(a.stores, row)
	return &row, nil
}

func (a *aliasTable) DeleteCenterAlias(_ context.Context, id int64) (*models.CenterAlias, error) {
	for i, row := range a.centers {
		if row.ID == id {
			a.centers = append(a.centers[:i], a.centers[i+1:]...)
			return &row, nil
		}
	}
	return nil, httperror.NewHTTPError(404, "alias not found")
}

func (a *aliasTable) DeleteStoreAlias(_ context.Context, id int64) (*models.StoreAlias, error) {
	for i, row := range a.stores {
		if row.ID == id {
			a.stores = append(a.stores[:i], a.stores[i+1:]...)
			return &row, nil
		}
	}
	return nil, httperror.NewHTTPError(404, "alias not found")
}

type ignoreTable struct {
	rows   map[models.EntityKind][]models.IgnoredName
	nextID int64
}

func (t *ignoreTable) ListIgnored(_ context.Context, kind models.EntityKind) ([]models.IgnoredName, error) {
	return t.rows[kind], nil
}

func (t *ignoreTable) Create(_ context.Context, kind models.EntityKind, rawName, reason string) (*models.IgnoredName, error) {
	t.nextID++
	row := models.IgnoredName{ID: t.nextID, RawName: rawName, Reason: reason}
	t.rows[kind] = append(t.rows[kind], row)
	return &row, nil
}

func (t *ignoreTable) DeleteByRawName(_ context.Context, kind models.EntityKind, rawName string) (*models.IgnoredName, error) {
	key := normalizers.Key(rawName)
	for i, row := range t.rows[kind] {
		if normalizers.Key(row.RawName) == key {
			t.rows[kind] = append(t.rows[kind][:i], t.rows[kind][i+1:]...)
			return &row, nil
		}
	}
	return nil, httperror.NewHTTPError(404, "ignore entry not found")
}

type planTable struct {
	records map[int64]*models.PlanRecord
}

func (t *planTable) ListForNormalization(_ context.Context, _ *time.Time) ([]models.PlanRecord, error) {
	var out []models.PlanRecord
	for _, r := range t.records {
		if r.NormalizeStatus == models.StatusPending || r.NormalizeStatus == models.StatusError {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *planTable) ListByStatuses(_ context.Context, statuses ...string) ([]models.PlanRecord, error) {
	var out []models.PlanRecord
	for _, r := range t.records {
		for _, s := range statuses {
			if r.NormalizeStatus == s {
				out = append(out, *r)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *planTable) BulkUpdateStatus(_ context.Context, updates []models.RecordStatusUpdate) error {
	for _, u := range updates {
		r := t.records[u.ID]
		r.NormalizeStatus = u.Status
		r.NormalizeNotes = u.Notes
		r.Unresolved.Data = u.Unresolved
		r.NormalizedAt = u.NormalizedAt
	}
	return nil
}

func (t *planTable) CountByStatus(context.Context) ([]models.StatusSummary, error) {
	counts := map[string]int{}
	for _, r := range t.records {
		counts[r.NormalizeStatus]++
	}
	var out []models.StatusSummary
	for status, count := range counts {
		out = append(out, models.StatusSummary{Status: status, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (t *planTable) UpdateStatusByRawValue(_ context.Context, kind models.EntityKind, rawValue string, fromStatuses []string, toStatus string) (int64, error) {
	key := normalizers.Key(rawValue)
	var affected int64
	for _, r := range t.records {
		if !statusIn(r.NormalizeStatus, fromStatuses) {
			continue
		}
		var match bool
		switch kind {
		case models.KindCenter:
			match = normalizers.Key(r.CenterName) == key
		case models.KindStore:
			match = normalizers.Key(r.StoreName) == key
		case models.KindProduct:
			match = normalizers.Key(r.ItemCode) == key
		}
		if !match {
			continue
		}
		applyReset(&r.NormalizeStatus, &r.NormalizeNotes, &r.Unresolved.Data, &r.NormalizedAt, toStatus)
		affected++
	}
	return affected, nil
}

func (t *planTable) RewriteProductCode(_ context.Context, rawCode, newCode string, fromStatuses []string) (int64, error) {
	key := normalizers.Key(rawCode)
	var affected int64
	for _, r := range t.records {
		if !statusIn(r.NormalizeStatus, fromStatuses) || normalizers.Key(r.ItemCode) != key {
			continue
		}
		r.ItemCode = newCode
		applyReset(&r.NormalizeStatus, &r.NormalizeNotes, &r.Unresolved.Data, &r.NormalizedAt, models.StatusPending)
		affected++
	}
	return affected, nil
}

type dispatchTable struct {
	records map[int64]*models.DispatchRecord
}

func (t *dispatchTable) ListForNormalization(_ context.Context, _ *time.Time) ([]models.DispatchRecord, error) {
	var out []models.DispatchRecord
	for _, r := range t.records {
		if r.NormalizeStatus == models.StatusPending || r.NormalizeStatus == models.StatusError {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *dispatchTable) ListByStatuses(_ context.Context, statuses ...string) ([]models.DispatchRecord, error) {
	var out []models.DispatchRecord
	for _, r := range t.records {
		for _, s := range statuses {
			if r.NormalizeStatus == s {
				out = append(out, *r)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *dispatchTable) BulkUpdateStatus(_ context.Context, updates []models.RecordStatusUpdate) error {
	for _, u := range updates {
		r := t.records[u.ID]
		r.NormalizeStatus = u.Status
		r.NormalizeNotes = u.Notes
		r.Unresolved.Data = u.Unresolved
		r.NormalizedAt = u.NormalizedAt
	}
	return nil
}

func (t *dispatchTable) CountByStatus(context.Context) ([]models.StatusSummary, error) {
	counts := map[string]int{}
	for _, r := range t.records {
		counts[r.NormalizeStatus]++
	}
	var out []models.StatusSummary
	for status, count := range counts {
		out = append(out, models.StatusSummary{Status: status, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (t *dispatchTable) UpdateStatusByRawValue(_ context.Context, kind models.EntityKind, rawValue string, fromStatuses []string, toStatus string) (int64, error) {
	key := normalizers.Key(rawValue)
	var affected int64
	for _, r := range t.records {
		if !statusIn(r.NormalizeStatus, fromStatuses) {
			continue
		}
		var match bool
		switch kind {
		case models.KindCenter:
			match = normalizers.Key(r.OriginStoreName) == key || normalizers.Key(r.OriginWarehouseName) == key
		case models.KindStore:
			match = normalizers.Key(r.ProposedDestination) == key ||
				normalizers.Key(r.DestStoreName) == key ||
				normalizers.Key(r.DestWarehouseName) == key
		case models.KindProduct:
			match = normalizers.Key(r.SKU) == key
		}
		if !match {
			continue
		}
		applyReset(&r.NormalizeStatus, &r.NormalizeNotes, &r.Unresolved.Data, &r.NormalizedAt, toStatus)
		affected++
	}
	return affected, nil
}

func (t *dispatchTable) RewriteProductCode(_ context.Context, rawCode, newCode string, fromStatuses []string) (int64, error) {
	key := normalizers.Key(rawCode)
	var affected int64
	for _, r := range t.records {
		if !statusIn(r.NormalizeStatus, fromStatuses) || normalizers.Key(r.SKU) != key {
			continue
		}
		r.SKU = newCode
		applyReset(&r.NormalizeStatus, &r.NormalizeNotes, &r.Unresolved.Data, &r.NormalizedAt, models.StatusPending)
		affected++
	}
	return affected, nil
}

func statusIn(status string, set []string) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func applyReset(status *string, notes *string, unresolved *[]models.UnresolvedField, normalizedAt **time.Time, toStatus string) {
	*status = toStatus
	switch toStatus {
	case models.StatusPending:
		*notes = ""
		*unresolved = nil
		*normalizedAt = nil
	case models.StatusIgnored:
		*notes = resolve.ReasonIgnored
		*normalizedAt = nil
	}
}

type planSink struct {
	rows   map[int64]models.PlanNormalized
	nextID int64
}

func (f *planSink) MapByRawIDs(_ context.Context, rawIDs []int64) (map[int64]models.PlanNormalized, error) {
	out := map[int64]models.PlanNormalized{}
	for _, id := range rawIDs {
		if row, ok := f.rows[id]; ok {
			out[id] = row
		}
	}
	return out, nil
}

func (f *planSink) BulkUpsert(_ context.Context, rows []models.PlanNormalized) error {
	for _, row := range rows {
		if existing, ok := f.rows[row.RawID]; ok {
			row.ID = existing.ID
		} else {
			f.nextID++
			row.ID = f.nextID
		}
		f.rows[row.RawID] = row
	}
	return nil
}

type dispatchSink struct {
	rows   map[int64]models.DispatchNormalized
	nextID int64
}

func (f *dispatchSink) MapByRawIDs(_ context.Context, rawIDs []int64) (map[int64]models.DispatchNormalized, error) {
	out := map[int64]models.DispatchNormalized{}
	for _, id := range rawIDs {
		if row, ok := f.rows[id]; ok {
			out[id] = row
		}
	}
	return out, nil
}

func (f *dispatchSink) BulkUpsert(_ context.Context, rows []models.DispatchNormalized) error {
	for _, row := range rows {
		if existing, ok := f.rows[row.RawID]; ok {
			row.ID = existing.ID
		} else {
			f.nextID++
			row.ID = f.nextID
		}
		f.rows[row.RawID] = row
	}
	return nil
}

type world struct {
	centers    *centerCatalog
	stores     *storeCatalog
	products   *productCatalog
	aliases    *aliasTable
	ignores    *ignoreTable
	plans      *planTable
	dispatches *dispatchTable
	planRows   *planSink
	dispatched *dispatchSink

	pipeline    *pipeline.Pipeline
	corrections *corrections.Service
	classifier  *classifier.Service
}

func newWorld(t *testing.T) *world {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	w := &world{
		centers:    &centerCatalog{},
		stores:     &storeCatalog{},
		products:   &productCatalog{},
		aliases:    &aliasTable{},
		ignores:    &ignoreTable{rows: map[models.EntityKind][]models.IgnoredName{}},
		plans:      &planTable{records: map[int64]*models.PlanRecord{}},
		dispatches: &dispatchTable{records: map[int64]*models.DispatchRecord{}},
		planRows:   &planSink{rows: map[int64]models.PlanNormalized{}},
		dispatched: &dispatchSink{rows: map[int64]models.DispatchNormalized{}},
	}

	builder := refindex.NewBuilder(logger, w.centers, w.stores, w.products, w.aliases, w.ignores)
	w.pipeline = pipeline.New(logger, memTx{}, builder, w.plans, w.planRows, w.dispatches, w.dispatched, nil)
	w.corrections = corrections.NewService(logger, memTx{}, w.centers, w.stores, w.products, w.aliases, w.ignores, w.plans, w.dispatches, nil)
	w.classifier = classifier.NewService(logger, builder, w.plans, w.dispatches)
	return w
}

func (w *world) seedMasters(t *testing.T) (storeID int64, centerID int64) {
	t.Helper()
	ctx := context.Background()

	c, err := w.centers.Create(ctx, models.CreateCenterRequest{Name: "Central-1", Code: "C1"})
	require.NoError(t, err)
	s, err := w.stores.Create(ctx, models.CreateStoreRequest{Name: "Guatire 1", ExternalID: 10452})
	require.NoError(t, err)
	_, err = w.products.Create(ctx, models.CreateProductRequest{Code: "SKU-100", Name: "Harina"})
	require.NoError(t, err)
	return s.ID, c.ID
}

func (w *world) addPlan(id int64, store, center, item string) {
	w.plans.records[id] = &models.PlanRecord{
		ID:              id,
		PlanMonth:       time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		StoreName:       store,
		CenterName:      center,
		ItemCode:        item,
		NormalizeStatus: models.StatusPending,
	}
}

func TestResolutionLifecycle(t *testing.T) {
	ctx := context.Background()

	t.Run("alias mapping unblocks a failed plan", func(t *testing.T) {
		w := newWorld(t)
		storeID, _ := w.seedMasters(t)
		w.addPlan(1, "Guatire I", "Central-1", "SKU-100")

		result, err := w.pipeline.NormalizePlans(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Errors)
		assert.Equal(t, models.StatusError, w.plans.records[1].NormalizeStatus)

		// The report suggests the canonical store
		groups, err := w.classifier.PlanErrors(ctx)
		require.NoError(t, err)
		require.Len(t, groups, 1)
		assert.Equal(t, models.KindStore, groups[0].Kind)
		assert.Equal(t, "Guatire I", groups[0].RawValue)
		require.NotEmpty(t, groups[0].Suggestions)
		assert.Equal(t, "Guatire 1", groups[0].Suggestions[0].Value)
		assert.GreaterOrEqual(t, groups[0].Suggestions[0].Score, 0.6)

		_, err = w.corrections.MapStoreAlias(ctx, models.MapStoreAliasRequest{RawName: "Guatire I", StoreID: storeID})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, w.plans.records[1].NormalizeStatus)

		result, err = w.pipeline.NormalizePlans(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)
		assert.Equal(t, models.StatusOK, w.plans.records[1].NormalizeStatus)
		assert.Equal(t, storeID, w.planRows.rows[1].StoreID)
	})

	t.Run("creating a missing center unblocks plans naming it", func(t *testing.T) {
		w := newWorld(t)
		w.seedMasters(t)
		w.addPlan(1, "Guatire 1", "CEDIS Norte", "SKU-100")

		_, err := w.pipeline.NormalizePlans(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusError, w.plans.records[1].NormalizeStatus)

		created, err := w.corrections.CreateCenter(ctx, models.CreateCenterRequest{Name: "CEDIS Norte", Code: "CN"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, w.plans.records[1].NormalizeStatus)

		_, err = w.pipeline.NormalizePlans(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOK, w.plans.records[1].NormalizeStatus)
		require.NotNil(t, w.planRows.rows[1].CenterID)
		assert.Equal(t, created.ID, *w.planRows.rows[1].CenterID)
	})

	t.Run("mapping a misspelled product code rewrites and resolves it", func(t *testing.T) {
		w := newWorld(t)
		w.seedMasters(t)
		w.addPlan(1, "Guatire 1", "Central-1", "SKU-1OO")

		_, err := w.pipeline.NormalizePlans(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusError, w.plans.records[1].NormalizeStatus)
		assert.Nil(t, w.plans.records[1].NormalizedAt)

		target, err := w.corrections.MapProduct(ctx, models.MapProductRequest{RawCode: "SKU-1OO", TargetCode: "SKU-100"})
		require.NoError(t, err)
		assert.Equal(t, "SKU-100", target.Code)
		assert.Equal(t, models.StatusPending, w.plans.records[1].NormalizeStatus)
		assert.Equal(t, "SKU-100", w.plans.records[1].ItemCode)

		_, err = w.pipeline.NormalizePlans(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOK, w.plans.records[1].NormalizeStatus)
		require.NotNil(t, w.planRows.rows[1].ProductID)
		assert.Equal(t, target.ID, *w.planRows.rows[1].ProductID)
		assert.NotNil(t, w.plans.records[1].NormalizedAt)
	})

	t.Run("ignore then unignore moves records through the status machine", func(t *testing.T) {
		w := newWorld(t)
		w.seedMasters(t)
		w.addPlan(1, "Test Y", "", "SKU-100")

		_, err := w.pipeline.NormalizePlans(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusError, w.plans.records[1].NormalizeStatus)

		_, err = w.corrections.IgnoreName(ctx, models.IgnoreNameRequest{Kind: models.KindStore, RawName: "Test Y", Reason: "test data"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusIgnored, w.plans.records[1].NormalizeStatus)

		// A run while ignored leaves the record alone
		result, err := w.pipeline.NormalizePlans(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Processed)

		err = w.corrections.UnignoreName(ctx, models.UnignoreNameRequest{Kind: models.KindStore, RawName: "Test Y"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, w.plans.records[1].NormalizeStatus)

		// Without the ignore entry the name fails again
		_, err = w.pipeline.NormalizePlans(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusError, w.plans.records[1].NormalizeStatus)
	})

	t.Run("ignored names end a run in ignored, never error", func(t *testing.T) {
		w := newWorld(t)
		w.seedMasters(t)
		_, err := w.ignores.Create(ctx, models.KindStore, "Test Y", "")
		require.NoError(t, err)
		w.addPlan(1, "Test Y", "", "")

		result, err := w.pipeline.NormalizePlans(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Ignored)
		assert.Equal(t, models.StatusIgnored, w.plans.records[1].NormalizeStatus)
	})

	t.Run("deleting an alias requeues the records it resolved", func(t *testing.T) {
		w := newWorld(t)
		storeID, _ := w.seedMasters(t)
		a, err := w.aliases.CreateStoreAlias(ctx, "Guatire I", storeID)
		require.NoError(t, err)
		w.addPlan(1, "Guatire I", "Central-1", "SKU-100")

		_, err = w.pipeline.NormalizePlans(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusOK, w.plans.records[1].NormalizeStatus)

		err = w.corrections.DeleteAlias(ctx, models.DeleteAliasRequest{Kind: models.KindStore, AliasID: a.ID})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, w.plans.records[1].NormalizeStatus)

		_, err = w.pipeline.NormalizePlans(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusError, w.plans.records[1].NormalizeStatus)
	})

	t.Run("dispatch corrections reset by export columns", func(t *testing.T) {
		w := newWorld(t)
		storeID, _ := w.seedMasters(t)
		w.dispatches.records[1] = &models.DispatchRecord{
			ID:                  1,
			DispatchRef:         "D-1",
			SKU:                 "SKU-100",
			ProposedDestination: "Guatire I",
			NormalizeStatus:     models.StatusPending,
		}

		_, err := w.pipeline.NormalizeDispatches(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusError, w.dispatches.records[1].NormalizeStatus)

		_, err = w.corrections.MapStoreAlias(ctx, models.MapStoreAliasRequest{RawName: "Guatire I", StoreID: storeID})
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, w.dispatches.records[1].NormalizeStatus)

		result, err := w.pipeline.NormalizeDispatches(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Created)
		assert.Equal(t, storeID, w.dispatched.rows[1].StoreID)
	})
}
