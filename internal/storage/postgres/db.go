package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every
// repository works inside or outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() *UserRepository {
	return &UserRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Trials() *TrialRepository {
	return &TrialRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Content() *ContentRepository {
	return &ContentRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Hospitals() *HospitalRepository {
	return &HospitalRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Documents() *DocumentRepository {
	return &DocumentRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Settings() *SettingsRepository {
	return &SettingsRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Analytics() *AnalyticsRepository {
	return &AnalyticsRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, *Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type TrialRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type ContentRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type HospitalRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type DocumentRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type SettingsRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type AnalyticsRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}
