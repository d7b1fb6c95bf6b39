package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type unitKey struct{}

// unit is the transaction carried on a context by RunAtomic
type unit struct {
	owner *DB
	tx    *sql.Tx
	// failure records the first error returned by a nested unit
	failure error
}

func (d *DB) unitFrom(ctx context.Context) *unit {
	u, ok := ctx.Value(unitKey{}).(*unit)
	if !ok || u.owner != d {
		return nil
	}
	return u
}

// InAtomic reports whether ctx carries an open unit of work for this handle
func (d *DB) InAtomic(ctx context.Context) bool {
	return d.unitFrom(ctx) != nil
}

// RunAtomic runs fn inside a single transaction. Statements issued through the
// handle with the context passed to fn join that transaction, and so does a
// nested RunAtomic call. The transaction rolls back if fn returns an error,
// panics, or any nested unit failed. Otherwise it commits.
func (d *DB) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if u := d.unitFrom(ctx); u != nil {
		if err := fn(ctx); err != nil {
			if u.failure == nil {
				u.failure = err
			}
			return err
		}
		return nil
	}

	db, err := d.Acquire(ctx)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", Classify(err))
	}

	u := &unit{owner: d, tx: tx}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, unitKey{}, u)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback failed: %w", Classify(rbErr)))
		}
		return err
	}
	if u.failure != nil {
		_ = tx.Rollback()
		return fmt.Errorf("nested unit of work failed: %w", u.failure)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", Classify(err))
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (d *DB) querier(ctx context.Context) (querier, error) {
	if u := d.unitFrom(ctx); u != nil {
		return u.tx, nil
	}
	return d.Acquire(ctx)
}

// ExecContext runs a statement in the active unit of work or on the pool.
// Queries use '?' placeholders on every driver.
func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	q, err := d.querier(ctx)
	if err != nil {
		return nil, err
	}
	res, err := q.ExecContext(ctx, d.opts.Driver.Rebind(query), args...)
	if err != nil {
		return nil, Classify(err)
	}
	return res, nil
}

// QueryContext runs a query in the active unit of work or on the pool
func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	q, err := d.querier(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, d.opts.Driver.Rebind(query), args...)
	if err != nil {
		return nil, Classify(err)
	}
	return rows, nil
}

// Row is the result of QueryRowContext
type Row struct {
	row *sql.Row
	err error
}

// Scan copies the row into dest. sql.ErrNoRows is returned unchanged so
// callers can turn it into a found flag.
func (r *Row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	err := r.row.Scan(dest...)
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return Classify(err)
}

// QueryRowContext runs a single-row query in the active unit of work or on the pool
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *Row {
	q, err := d.querier(ctx)
	if err != nil {
		return &Row{err: err}
	}
	return &Row{row: q.QueryRowContext(ctx, d.opts.Driver.Rebind(query), args...)}
}
