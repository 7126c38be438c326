package storage

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/md-rashed-zaman/barberbook/libs/db"
)

//go:embed schema.sql
var schema string

// querier is satisfied by both the pool and a pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgQueries struct {
	conn querier
}

type Postgres struct {
	pgQueries
	pool *db.Pool
}

func NewPostgres(pool *db.Pool) *Postgres {
	return &Postgres{pgQueries: pgQueries{conn: pool}, pool: pool}
}

// Migrate applies the schema. Every statement is idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (p *Postgres) InTx(ctx context.Context, iso Isolation, fn func(Queries) error) error {
	opts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	if iso == Serializable {
		opts.IsoLevel = pgx.Serializable
	}
	return p.pool.InTx(ctx, opts, func(tx pgx.Tx) error {
		return fn(pgQueries{conn: tx})
	})
}

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Postgres) Close() { p.pool.Close() }

// mapErr translates driver errors into the package sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsNoRows(err):
		return ErrNotFound
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

// validID guards uuid columns: a malformed id cannot match any row.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func affectedOne(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*Postgres)(nil)
