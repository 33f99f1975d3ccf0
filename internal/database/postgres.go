//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/repository.go -package=mocks . Repository

// Package database implements the Postgres-backed record store for
// ingested datapoints and the small amount of ingestion state (last seen
// ETag, run lease) the pipeline keeps between cycles.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/geraldbaeck/luftguete/internal/lumes"
)

// leaseKey is the advisory-lock key guarding against overlapping runs.
const leaseKey = 0x4c554d45 // "LUME"

// Repository defines the persistence operations the pipeline needs.
//
// Datapoint upserts are keyed by the derived id, so re-ingesting the same
// file is idempotent. The ETag is a single opaque value with last-write-
// wins semantics; an empty string means no file was ingested yet.
type Repository interface {
	// UpsertDatapoints writes all datapoints in one transaction,
	// inserting new ids and overwriting existing ones.
	UpsertDatapoints(ctx context.Context, points []lumes.Datapoint) error

	// LastETag returns the validation tag of the last ingested file,
	// or "" when none was stored yet.
	LastETag(ctx context.Context) (string, error)

	// StoreETag records the validation tag of a fully ingested file.
	StoreETag(ctx context.Context, etag string) error

	// AcquireLease takes the single-run advisory lock. It returns false
	// without error when another run holds it.
	AcquireLease(ctx context.Context) (bool, error)

	// ReleaseLease gives the advisory lock back.
	ReleaseLease(ctx context.Context) error

	// Close releases any resources held by the repository.
	Close() error
}

// PostgresRepo implements Repository on database/sql with lib/pq.
type PostgresRepo struct {
	db *sql.DB

	// leaseConn pins the advisory lock to one pooled connection;
	// pg advisory locks are session scoped.
	leaseConn *sql.Conn
}

// NewPostgresRepo opens and verifies a connection using a key=value
// connection string ("host=... port=... user=... dbname=... sslmode=...").
func NewPostgresRepo(connStr string) (*PostgresRepo, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PostgresRepo{db: db}, nil
}

func (r *PostgresRepo) UpsertDatapoints(ctx context.Context, points []lumes.Datapoint) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // rollback if not committed

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO datapoints (id, station, series, measured_at, type, unit, readings, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        ON CONFLICT (id) DO UPDATE
        SET readings = EXCLUDED.readings,
            unit = EXCLUDED.unit,
            updated_at = NOW()
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, p := range points {
		readings, err := json.Marshal(p.Readings)
		if err != nil {
			return fmt.Errorf("failed to encode readings for %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Station, p.Name, p.Time, nullable(p.Type), nullable(p.Unit), readings,
		); err != nil {
			return fmt.Errorf("failed to upsert datapoint %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *PostgresRepo) LastETag(ctx context.Context) (string, error) {
	var etag string
	err := r.db.QueryRowContext(ctx,
		"SELECT etag FROM ingest_state WHERE id = 1",
	).Scan(&etag)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load last etag: %w", err)
	}
	return etag, nil
}

func (r *PostgresRepo) StoreETag(ctx context.Context, etag string) error {
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO ingest_state (id, etag, updated_at)
        VALUES (1, $1, NOW())
        ON CONFLICT (id) DO UPDATE
        SET etag = EXCLUDED.etag,
            updated_at = NOW()
    `, etag)
	if err != nil {
		return fmt.Errorf("failed to store etag: %w", err)
	}
	return nil
}

func (r *PostgresRepo) AcquireLease(ctx context.Context) (bool, error) {
	conn, err := r.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to get lease connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx,
		"SELECT pg_try_advisory_lock($1)", leaseKey,
	).Scan(&acquired); err != nil {
		conn.Close()
		return false, fmt.Errorf("failed to acquire lease: %w", err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	r.leaseConn = conn
	return true, nil
}

func (r *PostgresRepo) ReleaseLease(ctx context.Context) error {
	if r.leaseConn == nil {
		return nil
	}
	_, err := r.leaseConn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", leaseKey)
	r.leaseConn.Close()
	r.leaseConn = nil
	if err != nil {
		return fmt.Errorf("failed to release lease: %w", err)
	}
	return nil
}

func (r *PostgresRepo) Close() error {
	return r.db.Close()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Compile-time interface implementation check
var _ Repository = (*PostgresRepo)(nil)
