package postgres

import (
	"context"
	"database/sql"

	ierr "github.com/flexprice/cashier/internal/errors"
	"github.com/flexprice/cashier/internal/postgres"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return ierr.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// checkVersionedUpdate turns an update that matched no row into ErrNotFound when
// the row is gone and ErrVersionConflict when another writer got there first.
// table is always a package constant.
func checkVersionedUpdate(ctx context.Context, db *postgres.DB, res sql.Result, table, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to read update result").
			Mark(ierr.ErrDatabase)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := db.GetQuerier(ctx).GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1)`, id); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to check record").
			Mark(ierr.ErrDatabase)
	}
	if !exists {
		return ierr.NewErrorf("%s %s not found", table, id).
			WithHintf("Record %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return ierr.NewErrorf("%s %s was modified concurrently", table, id).
		WithHint("The record was changed by another request, reload and retry").
		WithReportableDetails(map[string]interface{}{"id": id}).
		Mark(ierr.ErrVersionConflict)
}
