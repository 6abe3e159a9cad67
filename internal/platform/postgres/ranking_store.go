package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/eddy80524/dental-quiz-app/internal/domain"
	"github.com/eddy80524/dental-quiz-app/internal/store"
	"github.com/jmoiron/sqlx"
)

// PostgresRankingStore implements store.RankingStore. Snapshots are written
// as immutable rows and made visible by moving ranking_current in the same
// transaction.
type PostgresRankingStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresRankingStore creates a ranking store.
func NewPostgresRankingStore(db *sqlx.DB, logger *slog.Logger) *PostgresRankingStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRankingStore{
		db:     db,
		logger: logger.With(slog.String("component", "ranking_store")),
	}
}

var _ store.RankingStore = (*PostgresRankingStore)(nil)

type snapshotRow struct {
	Variant           string    `db:"variant"`
	Version           int64     `db:"version"`
	GeneratedAt       time.Time `db:"generated_at"`
	TotalParticipants int       `db:"total_participants"`
	Entries           []byte    `db:"entries"`
}

func (r *snapshotRow) toDomain() (*domain.RankingSnapshot, error) {
	snap := &domain.RankingSnapshot{
		Variant:           domain.RankingVariant(r.Variant),
		Version:           r.Version,
		GeneratedAt:       r.GeneratedAt.UTC(),
		TotalParticipants: r.TotalParticipants,
	}
	if err := json.Unmarshal(r.Entries, &snap.Entries); err != nil {
		return nil, fmt.Errorf("failed to decode ranking entries: %w", err)
	}
	return snap, nil
}

// Publish implements store.RankingStore.
func (s *PostgresRankingStore) Publish(ctx context.Context, snapshots []*domain.RankingSnapshot) (int64, error) {
	if len(snapshots) == 0 {
		return 0, store.NewStoreError("ranking_snapshot", "publish", "empty batch", store.ErrInvalidEntity)
	}

	var version int64
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &version, `SELECT nextval('ranking_version_seq')`); err != nil {
			return MapError(err)
		}

		for _, snap := range snapshots {
			entries := snap.Entries
			if entries == nil {
				entries = []domain.RankingEntry{}
			}
			raw, err := json.Marshal(entries)
			if err != nil {
				return fmt.Errorf("failed to encode ranking entries: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ranking_snapshots (variant, version, generated_at, total_participants, entries)
				VALUES ($1, $2, $3, $4, $5)`,
				string(snap.Variant), version, snap.GeneratedAt.UTC(), snap.TotalParticipants, raw); err != nil {
				return MapError(err)
			}
		}

		for _, snap := range snapshots {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ranking_current (variant, version) VALUES ($1, $2)
				ON CONFLICT (variant) DO UPDATE SET version = EXCLUDED.version`,
				string(snap.Variant), version); err != nil {
				return MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("failed to publish ranking snapshots",
			slog.Int("variants", len(snapshots)),
			slog.String("error", err.Error()))
		return 0, store.NewStoreError("ranking_snapshot", "publish", "transaction failed", err)
	}

	for _, snap := range snapshots {
		snap.Version = version
	}
	return version, nil
}

// Current implements store.RankingStore.
func (s *PostgresRankingStore) Current(ctx context.Context, variant domain.RankingVariant) (*domain.RankingSnapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row,
		`SELECT s.variant, s.version, s.generated_at, s.total_participants, s.entries
		FROM ranking_current c
		JOIN ranking_snapshots s ON s.variant = c.variant AND s.version = c.version
		WHERE c.variant = $1`,
		string(variant))
	return s.decode(row, err, "current")
}

// GetVersion implements store.RankingStore.
func (s *PostgresRankingStore) GetVersion(
	ctx context.Context,
	variant domain.RankingVariant,
	version int64,
) (*domain.RankingSnapshot, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row,
		`SELECT variant, version, generated_at, total_participants, entries
		FROM ranking_snapshots WHERE variant = $1 AND version = $2`,
		string(variant), version)
	return s.decode(row, err, "get_version")
}

func (s *PostgresRankingStore) decode(row snapshotRow, err error, op string) (*domain.RankingSnapshot, error) {
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSnapshotNotFound
		}
		return nil, store.NewStoreError("ranking_snapshot", op, "query failed", MapError(err))
	}
	snap, err := row.toDomain()
	if err != nil {
		return nil, store.NewStoreError("ranking_snapshot", op, "decode failed", err)
	}
	return snap, nil
}
