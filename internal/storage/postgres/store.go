package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"txScope/internal/model"
)

// ErrNotFound is returned by Load when no artifact has the id.
var ErrNotFound = errors.New("artifact not found")

const schema = `
CREATE TABLE IF NOT EXISTS analyses (
	id           TEXT PRIMARY KEY,
	kind         TEXT NOT NULL,
	input        TEXT NOT NULL,
	chain_id     BIGINT NOT NULL,
	risk_level   TEXT,
	complexity   TEXT,
	total_usd    DOUBLE PRECISION,
	partial      BOOLEAN NOT NULL DEFAULT false,
	artifact     JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS analyses_input_idx ON analyses (chain_id, input);
`

// Store archives generated artifacts in Postgres. It never stores chain state.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// EnsureSchema creates the analyses table when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Name() string { return "postgres" }

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// row is the column projection of an artifact.
type row struct {
	ID         string
	Kind       string
	Input      string
	ChainID    int64
	RiskLevel  *string
	Complexity *string
	TotalUSD   *float64
	Partial    bool
	Body       []byte
}

func rowFor(artifact *model.Artifact) (row, error) {
	body, err := json.Marshal(artifact)
	if err != nil {
		return row{}, fmt.Errorf("marshal artifact: %w", err)
	}
	r := row{
		ID:      artifact.ID,
		Kind:    string(artifact.Kind),
		Input:   artifact.Input,
		ChainID: int64(artifact.Network.ID),
		Partial: artifact.Partial,
		Body:    body,
	}
	if artifact.Summary != nil {
		level := string(artifact.Summary.RiskLevel)
		complexity := artifact.Summary.Complexity
		total := artifact.Summary.TotalUSD
		if level != "" {
			r.RiskLevel = &level
		}
		r.Complexity = &complexity
		r.TotalUSD = &total
	}
	return r, nil
}

// Write upserts an artifact by id.
func (s *Store) Write(ctx context.Context, artifact *model.Artifact) error {
	if artifact == nil {
		return nil
	}
	r, err := rowFor(artifact)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO analyses (
			id, kind, input, chain_id, risk_level, complexity, total_usd, partial, artifact, generated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			risk_level = EXCLUDED.risk_level,
			complexity = EXCLUDED.complexity,
			total_usd = EXCLUDED.total_usd,
			partial = EXCLUDED.partial,
			artifact = EXCLUDED.artifact
	`,
		r.ID,
		r.Kind,
		r.Input,
		r.ChainID,
		r.RiskLevel,
		r.Complexity,
		r.TotalUSD,
		r.Partial,
		r.Body,
		artifact.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis %s: %w", r.ID, err)
	}
	return nil
}

// Load returns a previously archived artifact.
func (s *Store) Load(ctx context.Context, id string) (*model.Artifact, error) {
	if id == "" {
		return nil, fmt.Errorf("artifact id required")
	}
	var body []byte
	err := s.pool.QueryRow(ctx, `SELECT artifact FROM analyses WHERE id=$1`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var artifact model.Artifact
	if err := json.Unmarshal(body, &artifact); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", id, err)
	}
	return &artifact, nil
}

// Recent lists the newest archived artifacts for an input on a network.
func (s *Store) Recent(ctx context.Context, chainID uint64, input string, limit int) ([]model.Artifact, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT artifact FROM analyses
		WHERE chain_id=$1 AND input=$2
		ORDER BY generated_at DESC
		LIMIT $3
	`, int64(chainID), input, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Artifact
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var artifact model.Artifact
		if err := json.Unmarshal(body, &artifact); err != nil {
			return nil, fmt.Errorf("decode artifact: %w", err)
		}
		out = append(out, artifact)
	}
	return out, rows.Err()
}
