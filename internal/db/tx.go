package db

import (
	"context"
	"database/sql"
	"errors"
)

// RunTx runs fn inside a transaction, committing if it returns nil and
// rolling back otherwise.
func RunTx(ctx context.Context, database *sql.DB, fn func(qry *Queries) error) error {
	sqltx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	err = fn(New(sqltx))
	if err != nil {
		return errors.Join(err, sqltx.Rollback())
	}
	return sqltx.Commit()
}
