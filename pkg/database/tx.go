package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Queryer is the subset of sqlx used by repositories. Both *sqlx.DB and
// *sqlx.Tx satisfy it, so the same repo code runs inside or outside a
// transaction.
type Queryer = sqlx.ExtContext

// WithTx begins a transaction, runs fn with the transactional handle, and
// then commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
//	    // use tx instead of db
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(tx)
	return err
}
