package database

import (
	"context"
	"database/sql"

	"github.com/Gobusters/ectologger"
)

// Transactor runs a function inside one database transaction carried on the
// context. Repository methods called from fn join the same transaction
// through GetTx.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type transactor struct {
	db     DB
	logger ectologger.Logger
}

// NewTransactor creates a Transactor over the given database handle.
func NewTransactor(db DB, logger ectologger.Logger) Transactor {
	return &transactor{db: db, logger: logger}
}

func (t *transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctxTx, tx, err := t.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctxTx)

	if err := fn(ctxTx); err != nil {
		return err
	}

	return tx.Commit(ctxTx)
}
