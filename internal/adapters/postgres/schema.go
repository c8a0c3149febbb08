package postgres

// Schema is the DDL for every table the Postgres adapters use. Statements are
// idempotent so applying the schema to a live database is safe.
const Schema = `
CREATE TABLE IF NOT EXISTS searches (
	identity            TEXT        NOT NULL,
	search_id           TEXT        NOT NULL,
	origin_places       JSONB       NOT NULL DEFAULT '[]',
	destination         TEXT        NOT NULL,
	vibes               TEXT[]      NOT NULL DEFAULT '{}',
	free_text           TEXT        NOT NULL DEFAULT '',
	status              TEXT        NOT NULL,
	failure_stage       TEXT        NOT NULL DEFAULT '',
	failure_message     TEXT        NOT NULL DEFAULT '',
	results             JSONB,
	all_results         JSONB,
	has_more_pages      BOOLEAN     NOT NULL DEFAULT FALSE,
	next_page_token     TEXT        NOT NULL DEFAULT '',
	created_at          TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (identity, search_id)
);

CREATE TABLE IF NOT EXISTS place_interactions (
	identity            TEXT        NOT NULL,
	place_id            TEXT        NOT NULL,
	context_fingerprint TEXT        NOT NULL,
	place_name          TEXT        NOT NULL DEFAULT '',
	destination         TEXT        NOT NULL DEFAULT '',
	vibes               TEXT[]      NOT NULL DEFAULT '{}',
	free_text           TEXT        NOT NULL DEFAULT '',
	origin_place_ids    TEXT[]      NOT NULL DEFAULT '{}',
	viewed              BOOLEAN     NOT NULL DEFAULT FALSE,
	saved               BOOLEAN     NOT NULL DEFAULT FALSE,
	viewed_at           TIMESTAMPTZ NOT NULL,
	saved_at            TIMESTAMPTZ,
	updated_at          TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (identity, place_id, context_fingerprint)
);

CREATE INDEX IF NOT EXISTS place_interactions_identity_fingerprint_idx
	ON place_interactions (identity, context_fingerprint);

CREATE TABLE IF NOT EXISTS migration_marks (
	from_identity  TEXT        NOT NULL,
	to_identity    TEXT        NOT NULL,
	migrated_count INTEGER     NOT NULL,
	completed_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (from_identity, to_identity)
);
`
