package migrationmark

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cafescout/cafe-scout-api/internal/ports/out/migrationmark"
)

// Store is a Postgres implementation of migrationmark.Store.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, k migrationmark.Key) (migrationmark.Record, bool, error) {
	if s.pool == nil {
		return migrationmark.Record{}, false, errors.New("nil postgres pool")
	}
	row := s.pool.QueryRow(ctx, `
		SELECT migrated_count, completed_at
		FROM migration_marks
		WHERE from_identity = $1 AND to_identity = $2
	`, string(k.From), string(k.To))

	var rec migrationmark.Record
	if err := row.Scan(&rec.MigratedCount, &rec.CompletedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return migrationmark.Record{}, false, nil
		}
		return migrationmark.Record{}, false, err
	}
	rec.CompletedAt = rec.CompletedAt.UTC()
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, k migrationmark.Key, rec migrationmark.Record) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO migration_marks (from_identity, to_identity, migrated_count, completed_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (from_identity, to_identity)
		DO UPDATE SET
			migrated_count = EXCLUDED.migrated_count,
			completed_at   = EXCLUDED.completed_at
	`, string(k.From), string(k.To), rec.MigratedCount, rec.CompletedAt.UTC())
	return err
}
