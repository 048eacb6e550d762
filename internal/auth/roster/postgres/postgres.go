// Package postgres implements roster.Directory against the shared student
// roster database. The roster is owned by the enrollment pipeline; this
// driver only ever reads from it.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/proskill/portal-auth/internal/auth/domain"
	"github.com/proskill/portal-auth/internal/auth/roster"
	"github.com/proskill/portal-auth/pkg/phonex"
)

// Config holds roster connection settings.
type Config struct {
	// DSN is the postgres connection string. Empty disables the directory.
	DSN string

	// Table is the roster table name. Defaults to "students".
	Table string

	// LookupTimeout bounds a single FindByPhone round trip.
	LookupTimeout time.Duration

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultConfig returns pool settings sized for the roster's read-only,
// one-query-per-login workload.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:             dsn,
		Table:           "students",
		LookupTimeout:   5 * time.Second,
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Directory is a pgx-backed roster.Directory.
//
// The pool is opened lazily on first lookup and cached only after a
// successful connect, so a roster outage at boot does not take the auth
// service down with it.
type Directory struct {
	cfg    Config
	logger *slog.Logger

	mu   sync.Mutex
	pool *pgxpool.Pool
}

// New creates a Directory. It does not connect; see FindByPhone.
func New(cfg Config, logger *slog.Logger) *Directory {
	if cfg.Table == "" {
		cfg.Table = "students"
	}
	if cfg.LookupTimeout <= 0 {
		cfg.LookupTimeout = 5 * time.Second
	}
	return &Directory{cfg: cfg, logger: logger}
}

func (d *Directory) acquirePool(ctx context.Context) (*pgxpool.Pool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pool != nil {
		return d.pool, nil
	}

	poolConfig, err := pgxpool.ParseConfig(d.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse roster dsn: %w", err)
	}
	poolConfig.MaxConns = d.cfg.MaxConns
	poolConfig.MinConns = d.cfg.MinConns
	poolConfig.MaxConnLifetime = d.cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = d.cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create roster pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping roster: %w", err)
	}

	d.pool = pool
	return pool, nil
}

// FindByPhone looks the normalized number up across every textual variant
// the roster is known to store. It returns (nil, nil) when no row matches.
// When more than one row matches, the lowest id wins so repeated logins
// resolve to the same record.
func (d *Directory) FindByPhone(ctx context.Context, n phonex.Number) (*domain.StudentRecord, error) {
	pool, err := d.acquirePool(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.LookupTimeout)
	defer cancel()

	query, args := d.buildQuery(roster.BuildPredicates(n))

	var rec domain.StudentRecord
	err = pool.QueryRow(ctx, query, args...).Scan(
		&rec.FullName,
		&rec.Phone,
		&rec.PhoneE164,
		&rec.PhoneDigits,
		&rec.PhoneRaw,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("roster lookup: %w", err)
	}

	return &rec, nil
}

// buildQuery renders the predicate OR-set into a single SELECT. Values are
// always passed as bind parameters; regex patterns are built from
// QuoteMeta-escaped values upstream.
func (d *Directory) buildQuery(preds []roster.Predicate) (string, []any) {
	clauses := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))

	for _, p := range preds {
		args = append(args, p.Pattern())
		op := "="
		if p.Op != roster.OpExact {
			op = "~"
		}
		clauses = append(clauses, fmt.Sprintf("%s %s $%d", p.Field, op, len(args)))
	}

	query := fmt.Sprintf(`
		SELECT COALESCE(full_name, ''),
		       COALESCE(phone, ''),
		       COALESCE(phone_e164, ''),
		       COALESCE(phone_digits, ''),
		       COALESCE(phone_raw, '')
		FROM %s
		WHERE %s
		ORDER BY id
		LIMIT 1`,
		d.cfg.Table,
		strings.Join(clauses, " OR "),
	)
	return query, args
}

// Close releases the pool if one was ever opened.
func (d *Directory) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pool != nil {
		d.pool.Close()
		d.pool = nil
	}
}
