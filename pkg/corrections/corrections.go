// Package corrections applies operator fixes to the master catalogs and
// resets the raw records each fix unblocks.
package corrections

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/yarrow/pkg/database"
	"github.com/Ramsey-B/yarrow/pkg/models"
	"github.com/Ramsey-B/yarrow/pkg/tracing"
)

// CenterWriter creates distribution centers.
type CenterWriter interface {
	Create(ctx context.Context, req models.CreateCenterRequest) (*models.DistributionCenter, error)
}

// StoreWriter creates stores.
type StoreWriter interface {
	Create(ctx context.Context, req models.CreateStoreRequest) (*models.Store, error)
}

// ProductWriter creates and looks up products.
type ProductWriter interface {
	Create(ctx context.Context, req models.CreateProductRequest) (*models.Product, error)
	GetByCode(ctx context.Context, code string) (*models.Product, error)
}

// AliasStore creates and deletes alias mappings.
type AliasStore interface {
	CreateCenterAlias(ctx context.Context, rawName string, centerID int64) (*models.CenterAlias, error)
	CreateStoreAlias(ctx context.Context, rawName string, storeID int64) (*models.StoreAlias, error)
	DeleteCenterAlias(ctx context.Context, id int64) (*models.CenterAlias, error)
	DeleteStoreAlias(ctx context.Context, id int64) (*models.StoreAlias, error)
}

// IgnoreStore creates and deletes ignore entries.
type IgnoreStore interface {
	Create(ctx context.Context, kind models.EntityKind, rawName, reason string) (*models.IgnoredName, error)
	DeleteByRawName(ctx context.Context, kind models.EntityKind, rawName string) (*models.IgnoredName, error)
}

// RecordResetter updates raw record statuses by the raw value they carry in
// the columns belonging to a kind. Flipping to pending clears notes and the
// unresolved list. RewriteProductCode additionally edits the raw code column
// itself, the one correction that touches raw data.
type RecordResetter interface {
	UpdateStatusByRawValue(ctx context.Context, kind models.EntityKind, rawValue string, fromStatuses []string, toStatus string) (int64, error)
	RewriteProductCode(ctx context.Context, rawCode, newCode string, fromStatuses []string) (int64, error)
}

// Emitter publishes correction notifications, best-effort.
type Emitter interface {
	MasterCreated(ctx context.Context, kind models.EntityKind, id int64, name string) error
	AliasCreated(ctx context.Context, kind models.EntityKind, rawName string, targetID int64) error
	AliasDeleted(ctx context.Context, kind models.EntityKind, rawName string) error
	NameIgnored(ctx context.Context, kind models.EntityKind, rawName string) error
	NameUnignored(ctx context.Context, kind models.EntityKind, rawName string) error
	ProductMapped(ctx context.Context, rawCode, targetCode string) error
}

// Service coordinates catalog writes with raw record status resets. Each
// operation runs in one transaction.
type Service struct {
	logger          ectologger.Logger
	tx              database.Transactor
	centers         CenterWriter
	stores          StoreWriter
	products        ProductWriter
	aliases         AliasStore
	ignores         IgnoreStore
	planRecords     RecordResetter
	dispatchRecords RecordResetter
	emitter         Emitter
}

// NewService creates a corrections service.
func NewService(
	logger ectologger.Logger,
	tx database.Transactor,
	centers CenterWriter,
	stores StoreWriter,
	products ProductWriter,
	aliases AliasStore,
	ignores IgnoreStore,
	planRecords RecordResetter,
	dispatchRecords RecordResetter,
	emitter Emitter,
) *Service {
	return &Service{
		logger:          logger,
		tx:              tx,
		centers:         centers,
		stores:          stores,
		products:        products,
		aliases:         aliases,
		ignores:         ignores,
		planRecords:     planRecords,
		dispatchRecords: dispatchRecords,
		emitter:         emitter,
	}
}

// CreateCenter adds a distribution center and requeues the failed records
// that reference its name or code.
func (s *Service) CreateCenter(ctx context.Context, req models.CreateCenterRequest) (*models.DistributionCenter, error) {
	ctx, span := tracing.StartSpan(ctx, "corrections.Service.CreateCenter")
	defer span.End()

	var created *models.DistributionCenter
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.centers.Create(ctx, req)
		if err != nil {
			return err
		}
		created = c
		if err := s.requeueErrors(ctx, models.KindCenter, c.Name); err != nil {
			return err
		}
		return s.requeueErrors(ctx, models.KindCenter, c.Code)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, func() error {
		return s.emitter.MasterCreated(ctx, models.KindCenter, created.ID, created.Name)
	})
	return created, nil
}

// CreateStore adds a store and requeues failed records referencing it.
func (s *Service) CreateStore(ctx context.Context, req models.CreateStoreRequest) (*models.Store, error) {
	ctx, span := tracing.StartSpan(ctx, "corrections.Service.CreateStore")
	defer span.End()

	var created *models.Store
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		st, err := s.stores.Create(ctx, req)
		if err != nil {
			return err
		}
		created = st
		return s.requeueErrors(ctx, models.KindStore, st.Name)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, func() error {
		return s.emitter.MasterCreated(ctx, models.KindStore, created.ID, created.Name)
	})
	return created, nil
}

// CreateProduct adds a product and requeues failed records referencing its code.
func (s *Service) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "corrections.Service.CreateProduct")
	defer span.End()

	var created *models.Product
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.products.Create(ctx, req)
		if err != nil {
			return err
		}
		created = p
		return s.requeueErrors(ctx, models.KindProduct, p.Code)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, func() error {
		return s.emitter.MasterCreated(ctx, models.KindProduct, created.ID, created.Name)
	})
	return created, nil
}

// MapCenterAlias maps a raw value onto an existing center and requeues the
// failed records carrying it.
func (s *Service) MapCenterAlias(ctx context.Context, req models.MapCenterAliasRequest) (*models.CenterAlias, error) {
	ctx, span := tracing.StartSpan(ctx, "corrections.Service.MapCenterAlias")
	defer span.End()

	var created *models.CenterAlias
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.aliases.CreateCenterAlias(ctx, req.RawName, req.CenterID)
		if err != nil {
			return err
		}
		created = a
		return s.requeueErrors(ctx, models.KindCenter, a.RawName)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, func() error {
		return s.emitter.AliasCreated(ctx, models.KindCenter, created.RawName, created.CenterID)
	})
	return created, nil
}

// MapStoreAlias maps a raw value onto an existing store and requeues the
// failed records carrying it.
func (s *Service) MapStoreAlias(ctx context.Context, req models.MapStoreAliasRequest) (*models.StoreAlias, error) {
	ctx, span := tracing.StartSpan(ctx, "corrections.Service.MapStoreAlias")
	defer span.End()

	var created *models.StoreAlias
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.aliases.CreateStoreAlias(ctx, req.RawName, req.StoreID)
		if err != nil {
			return err
		}
		created = a
		return s.requeueErrors(ctx, models.KindStore, a.RawName)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, func() error {
		return s.emitter.AliasCreated(ctx, models.KindStore, created.RawName, created.StoreID)
	})
	return created, nil
}

// MapProduct rewrites a misspelled raw item code onto an existing product's
// code and requeues the records carrying it. Both the failed and the already
// normalized records re-run, since the raw data changed underneath them.
func (s *Service) MapProduct(ctx context.Context, req models.MapProductRequest) (*models.Product, error) {
	ctx, span := tracing.StartSpan(ctx, "corrections.Service.MapProduct")
	defer span.End()

	var target *models.Product
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.products.GetByCode(ctx, req.TargetCode)
		if err != nil {
			return err
		}
		target = p

		from := []string{models.StatusOK, models.StatusError}
		plans, err := s.planRecords.RewriteProductCode(ctx, req.RawCode, p.Code, from)
		if err != nil {
			return err
		}
		dispatches, err := s.dispatchRecords.RewriteProductCode(ctx, req.RawCode, p.Code, from)
		if err != nil {
			return err
		}
		s.logger.WithContext(ctx).WithFields(map[string]any{
			"raw_code":    req.RawCode,
			"target_code": p.Code,
			"plans":       plans,
			"dispatches":  dispatches,
		}).Debug("Rewrote raw product codes")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, func() error {
		return s.emitter.ProductMapped(ctx, req.RawCode, target.Code)
	})
	return target, nil
}

// IgnoreName records an ignore entry and flips the failed records carrying
// the raw value to ignored.
func (s *Service) IgnoreName(ctx context.Context, req models.IgnoreNameRequest) (*models.IgnoredName, error) {
	ctx, span := tracing.StartSpan(ctx, "corrections.Service.IgnoreName")
	defer span.End()

	if req.Kind != models.KindCenter && req.Kind != models.KindStore {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "only center and store names can be ignored")
	}

	var created *models.IgnoredName
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		e, err := s.ignores.Create(ctx, req.Kind, req.RawName, req.Reason)
		if err != nil {
			return err
		}
		created = e
		return s.reset(ctx, req.Kind, req.RawName, []string{models.StatusError}, models.StatusIgnored)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, func() error {
		return s.emitter.NameIgnored(ctx, req.Kind, created.RawName)
	})
	return created, nil
}

// UnignoreName deletes an ignore entry and requeues the ignored records that
// carried the raw value.
func (s *Service) UnignoreName(ctx context.Context, req models.UnignoreNameRequest) error {
	ctx, span := tracing.StartSpan(ctx, "corrections.Service.UnignoreName")
	defer span.End()

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.ignores.DeleteByRawName(ctx, req.Kind, req.RawName); err != nil {
			return err
		}
		return s.reset(ctx, req.Kind, req.RawName, []string{models.StatusIgnored}, models.StatusPending)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, func() error {
		return s.emitter.NameUnignored(ctx, req.Kind, req.RawName)
	})
	return nil
}

// DeleteAlias removes an alias mapping and requeues every record that was
// resolved or failed on its raw value, so the next run re-evaluates them.
func (s *Service) DeleteAlias(ctx context.Context, req models.DeleteAliasRequest) error {
	ctx, span := tracing.StartSpan(ctx, "corrections.Service.DeleteAlias")
	defer span.End()

	var rawName string
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		switch req.Kind {
		case models.KindCenter:
			a, err := s.aliases.DeleteCenterAlias(ctx, req.AliasID)
			if err != nil {
				return err
			}
			rawName = a.RawName
		case models.KindStore:
			a, err := s.aliases.DeleteStoreAlias(ctx, req.AliasID)
			if err != nil {
				return err
			}
			rawName = a.RawName
		default:
			return httperror.NewHTTPError(http.StatusBadRequest, "only center and store aliases can be deleted")
		}
		return s.reset(ctx, req.Kind, rawName, []string{models.StatusOK, models.StatusError}, models.StatusPending)
	})
	if err != nil {
		return err
	}

	s.notify(ctx, func() error {
		return s.emitter.AliasDeleted(ctx, req.Kind, rawName)
	})
	return nil
}

// requeueErrors flips failed records carrying the raw value back to pending.
func (s *Service) requeueErrors(ctx context.Context, kind models.EntityKind, rawValue string) error {
	return s.reset(ctx, kind, rawValue, []string{models.StatusError}, models.StatusPending)
}

func (s *Service) reset(ctx context.Context, kind models.EntityKind, rawValue string, from []string, to string) error {
	if rawValue == "" {
		return nil
	}
	plans, err := s.planRecords.UpdateStatusByRawValue(ctx, kind, rawValue, from, to)
	if err != nil {
		return err
	}
	dispatches, err := s.dispatchRecords.UpdateStatusByRawValue(ctx, kind, rawValue, from, to)
	if err != nil {
		return err
	}
	s.logger.WithContext(ctx).WithFields(map[string]any{
		"kind":       kind,
		"raw_value":  rawValue,
		"to_status":  to,
		"plans":      plans,
		"dispatches": dispatches,
	}).Debug("Reset record statuses")
	return nil
}

func (s *Service) notify(ctx context.Context, fn func() error) {
	if s.emitter == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to emit correction event")
	}
}
