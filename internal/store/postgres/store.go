// Package postgres is the PostgreSQL materials store, built on pgx.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/materials/internal/config"
	"github.com/JonMunkholm/materials/internal/core"
)

//go:embed schema.sql
var schema string

// DBTX is the subset of pgx used by the store.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements core.Store on PostgreSQL.
type Store struct {
	db   DBTX
	pool *pgxpool.Pool
}

// Open connects a pool using cfg and verifies it with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if u, err := url.Parse(cfg.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	}

	return &Store{db: pool, pool: pool}, nil
}

// Close releases the pool, if the store owns one.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// tableFor maps an entity kind to its table. Kinds are a closed set, so
// the name is safe to interpolate.
func tableFor(kind core.EntityKind) (string, error) {
	switch kind {
	case core.KindCategory:
		return "categories", nil
	case core.KindSupplier:
		return "suppliers", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

// FindEntity implements core.Store. Names match exactly.
func (s *Store) FindEntity(ctx context.Context, kind core.EntityKind, name string) (int64, bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, false, err
	}

	var id int64
	err = s.db.QueryRow(ctx, "SELECT id FROM "+table+" WHERE name = $1", name).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find %s: %w", kind, err)
	}
	return id, true, nil
}

// CreateEntity implements core.Store. A name taken by a concurrent writer
// yields core.ErrEntityExists.
func (s *Store) CreateEntity(ctx context.Context, kind core.EntityKind, name string) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.db.QueryRow(ctx,
		"INSERT INTO "+table+" (name, metadata) VALUES ($1, NULL) ON CONFLICT (name) DO NOTHING RETURNING id",
		name,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, core.ErrEntityExists
	}
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", kind, err)
	}
	return id, nil
}

const insertMaterial = `
INSERT INTO materials (uuid, name, category_id, supplier_id, description, file_path, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

// CreateMaterial implements core.Store.
func (s *Store) CreateMaterial(ctx context.Context, m core.Material) (int64, error) {
	var metadata []byte
	if len(m.Metadata) > 0 {
		metadata = m.Metadata
	}

	var id int64
	err := s.db.QueryRow(ctx, insertMaterial,
		pgtype.UUID{Bytes: uuid.New(), Valid: true},
		m.Name,
		m.CategoryID,
		m.SupplierID,
		toText(m.Description),
		toText(m.FilePath),
		metadata,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert material: %w", err)
	}
	return id, nil
}

const listMaterials = `
SELECT m.id, m.uuid, m.name, c.name, s.name, m.description, m.file_path,
       m.metadata, m.created_at, m.updated_at
FROM materials m
LEFT JOIN categories c ON c.id = m.category_id
LEFT JOIN suppliers s ON s.id = m.supplier_id
WHERE m.deleted_at IS NULL
ORDER BY m.id`

// ListMaterials implements core.Store. Soft-deleted materials are excluded.
func (s *Store) ListMaterials(ctx context.Context) ([]core.MaterialView, error) {
	rows, err := s.db.Query(ctx, listMaterials)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	var out []core.MaterialView
	for rows.Next() {
		var (
			v                     core.MaterialView
			id                    pgtype.UUID
			category, supplier    pgtype.Text
			description, filePath pgtype.Text
			metadata              []byte
			createdAt, updatedAt  pgtype.Timestamptz
		)
		if err := rows.Scan(&v.ID, &id, &v.Name, &category, &supplier,
			&description, &filePath, &metadata, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}

		v.UUID = uuid.UUID(id.Bytes)
		v.Category = fromText(category)
		v.Supplier = fromText(supplier)
		v.Description = fromText(description)
		v.FilePath = fromText(filePath)
		if len(metadata) > 0 {
			v.Metadata = metadata
		}
		if createdAt.Valid {
			t := createdAt.Time
			v.CreatedAt = &t
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			v.UpdatedAt = &t
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	return out, nil
}

func toText(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func fromText(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
