package interactionrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cafescout/cafe-scout-api/internal/domain"
	"github.com/cafescout/cafe-scout-api/internal/ports/out/interactionrepo"
)

// Repo is a Postgres implementation of interactionrepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const interactionColumns = `
	place_name,
	destination,
	vibes,
	free_text,
	origin_place_ids,
	viewed,
	saved,
	viewed_at,
	saved_at,
	updated_at
`

func (r *Repo) Get(ctx context.Context, identity domain.Identity, placeID domain.PlaceID, fingerprint string) (interactionrepo.Interaction, error) {
	if r.pool == nil {
		return interactionrepo.Interaction{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+interactionColumns+`
		FROM place_interactions
		WHERE identity = $1 AND place_id = $2 AND context_fingerprint = $3
	`, string(identity), string(placeID), fingerprint)

	in := interactionrepo.Interaction{
		Identity:           identity,
		PlaceID:            placeID,
		ContextFingerprint: fingerprint,
	}
	if err := scanInteraction(row, &in); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return interactionrepo.Interaction{}, interactionrepo.ErrNotFound
		}
		return interactionrepo.Interaction{}, err
	}
	return in, nil
}

func (r *Repo) Put(ctx context.Context, in interactionrepo.Interaction) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	var savedAt *time.Time
	if in.SavedAt != nil {
		t := in.SavedAt.UTC()
		savedAt = &t
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO place_interactions (
			identity,
			place_id,
			context_fingerprint,
			place_name,
			destination,
			vibes,
			free_text,
			origin_place_ids,
			viewed,
			saved,
			viewed_at,
			saved_at,
			updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		ON CONFLICT (identity, place_id, context_fingerprint)
		DO UPDATE SET
			place_name       = EXCLUDED.place_name,
			destination      = EXCLUDED.destination,
			vibes            = EXCLUDED.vibes,
			free_text        = EXCLUDED.free_text,
			origin_place_ids = EXCLUDED.origin_place_ids,
			viewed           = EXCLUDED.viewed,
			saved            = EXCLUDED.saved,
			viewed_at        = EXCLUDED.viewed_at,
			saved_at         = EXCLUDED.saved_at,
			updated_at       = EXCLUDED.updated_at
	`,
		string(in.Identity),
		string(in.PlaceID),
		in.ContextFingerprint,
		in.PlaceName,
		in.Context.Destination,
		in.Context.Vibes,
		in.Context.FreeText,
		in.Context.OriginPlaceIDs,
		in.Viewed,
		in.Saved,
		in.ViewedAt.UTC(),
		savedAt,
		in.UpdatedAt.UTC(),
	)
	return err
}

func (r *Repo) Delete(ctx context.Context, identity domain.Identity, placeID domain.PlaceID, fingerprint string) error {
	if r.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := r.pool.Exec(ctx, `
		DELETE FROM place_interactions
		WHERE identity = $1 AND place_id = $2 AND context_fingerprint = $3
	`, string(identity), string(placeID), fingerprint)
	return err
}

func (r *Repo) ListByContext(ctx context.Context, identity domain.Identity, fingerprint string) ([]interactionrepo.Interaction, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT place_id, context_fingerprint, `+interactionColumns+`
		FROM place_interactions
		WHERE identity = $1 AND context_fingerprint = $2
		ORDER BY place_id, context_fingerprint
	`, string(identity), fingerprint)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInteractions(rows, identity)
}

func (r *Repo) ListByIdentity(ctx context.Context, identity domain.Identity) ([]interactionrepo.Interaction, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT place_id, context_fingerprint, `+interactionColumns+`
		FROM place_interactions
		WHERE identity = $1
		ORDER BY place_id, context_fingerprint
	`, string(identity))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectInteractions(rows, identity)
}

func collectInteractions(rows pgx.Rows, identity domain.Identity) ([]interactionrepo.Interaction, error) {
	out := make([]interactionrepo.Interaction, 0)
	for rows.Next() {
		in := interactionrepo.Interaction{Identity: identity}
		var placeID string
		dest := []any{&placeID, &in.ContextFingerprint}
		dest = append(dest, interactionFieldDest(&in)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		in.PlaceID = domain.PlaceID(placeID)
		normalizeTimes(&in)
		out = append(out, in)
	}
	return out, rows.Err()
}

func scanInteraction(row pgx.Row, in *interactionrepo.Interaction) error {
	if err := row.Scan(interactionFieldDest(in)...); err != nil {
		return err
	}
	normalizeTimes(in)
	return nil
}

func interactionFieldDest(in *interactionrepo.Interaction) []any {
	return []any{
		&in.PlaceName,
		&in.Context.Destination,
		&in.Context.Vibes,
		&in.Context.FreeText,
		&in.Context.OriginPlaceIDs,
		&in.Viewed,
		&in.Saved,
		&in.ViewedAt,
		&in.SavedAt,
		&in.UpdatedAt,
	}
}

func normalizeTimes(in *interactionrepo.Interaction) {
	in.ViewedAt = in.ViewedAt.UTC()
	in.UpdatedAt = in.UpdatedAt.UTC()
	if in.SavedAt != nil {
		t := in.SavedAt.UTC()
		in.SavedAt = &t
	}
}
