package searchrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/cafescout/cafe-scout-api/internal/adapters/postgres"
	"github.com/cafescout/cafe-scout-api/internal/domain"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/searchrepo"
)

// Repo is a Postgres implementation of searchrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, s searchrepo.Search) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	origins, err := json.Marshal(s.Params.OriginPlaces)
	if err != nil {
		return fmt.Errorf("marshal origin places: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO searches (
			identity,
			search_id,
			origin_places,
			destination,
			vibes,
			free_text,
			status,
			failure_stage,
			failure_message,
			results,
			all_results,
			has_more_pages,
			next_page_token,
			created_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		string(s.Identity),
		string(s.ID),
		origins,
		s.Params.Destination,
		s.Params.Vibes,
		s.Params.FreeText,
		string(s.Status),
		string(s.FailureStage),
		s.FailureMessage,
		[]byte(s.Results),
		[]byte(s.AllResults),
		s.HasMorePages,
		s.NextPageToken,
		s.CreatedAt.UTC(),
		s.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return searchrepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) Save(ctx context.Context, s searchrepo.Search) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	origins, err := json.Marshal(s.Params.OriginPlaces)
	if err != nil {
		return fmt.Errorf("marshal origin places: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO searches (
			identity,
			search_id,
			origin_places,
			destination,
			vibes,
			free_text,
			status,
			failure_stage,
			failure_message,
			results,
			all_results,
			has_more_pages,
			next_page_token,
			created_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (identity, search_id)
		DO UPDATE SET
			origin_places   = EXCLUDED.origin_places,
			destination     = EXCLUDED.destination,
			vibes           = EXCLUDED.vibes,
			free_text       = EXCLUDED.free_text,
			status          = EXCLUDED.status,
			failure_stage   = EXCLUDED.failure_stage,
			failure_message = EXCLUDED.failure_message,
			results         = EXCLUDED.results,
			all_results     = EXCLUDED.all_results,
			has_more_pages  = EXCLUDED.has_more_pages,
			next_page_token = EXCLUDED.next_page_token,
			updated_at      = EXCLUDED.updated_at
	`,
		string(s.Identity),
		string(s.ID),
		origins,
		s.Params.Destination,
		s.Params.Vibes,
		s.Params.FreeText,
		string(s.Status),
		string(s.FailureStage),
		s.FailureMessage,
		[]byte(s.Results),
		[]byte(s.AllResults),
		s.HasMorePages,
		s.NextPageToken,
		s.CreatedAt.UTC(),
		s.UpdatedAt.UTC(),
	)
	return err
}

func (r *Repo) Get(ctx context.Context, identity domain.Identity, id domain.SearchID) (searchrepo.Search, error) {
	if r.pool == nil {
		return searchrepo.Search{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT
			origin_places,
			destination,
			vibes,
			free_text,
			status,
			failure_stage,
			failure_message,
			results,
			all_results,
			has_more_pages,
			next_page_token,
			created_at,
			updated_at
		FROM searches
		WHERE identity = $1 AND search_id = $2
	`, string(identity), string(id))

	s := searchrepo.Search{Identity: identity, ID: id}
	var (
		origins    []byte
		status     string
		stage      string
		results    []byte
		allResults []byte
	)
	err := row.Scan(
		&origins,
		&s.Params.Destination,
		&s.Params.Vibes,
		&s.Params.FreeText,
		&status,
		&stage,
		&s.FailureMessage,
		&results,
		&allResults,
		&s.HasMorePages,
		&s.NextPageToken,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return searchrepo.Search{}, searchrepo.ErrNotFound
		}
		return searchrepo.Search{}, err
	}

	if err := json.Unmarshal(origins, &s.Params.OriginPlaces); err != nil {
		return searchrepo.Search{}, fmt.Errorf("unmarshal origin places: %w", err)
	}
	s.Status = domain.SearchStatus(status)
	s.FailureStage = domain.FailureStage(stage)
	s.Results = json.RawMessage(results)
	s.AllResults = json.RawMessage(allResults)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
