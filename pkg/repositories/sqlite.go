package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cbodonnell/codeword/pkg/repositories/models"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string, migrations string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	dir, err := os.ReadDir(migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}

	for _, entry := range dir {
		if entry.IsDir() {
			continue
		}

		migrationPath := filepath.Join(migrations, entry.Name())
		migration, err := os.ReadFile(migrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return nil, fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveEndedMatch(ctx context.Context, ended *models.EndedMatch) error {
	state, err := encodeState(ended.State)
	if err != nil {
		return fmt.Errorf("failed to encode match state: %v", err)
	}

	q := `
	INSERT OR REPLACE INTO ended_matches
	(id, code, ended_at, duration_ms, red_score, blue_score, winner, avg_jitter, avg_participants, state)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err = r.db.ExecContext(ctx, q,
		ended.ID,
		ended.Code,
		ended.EndedAt,
		ended.FinalMetrics.DurationMillis,
		ended.FinalMetrics.RedScore,
		ended.FinalMetrics.BlueScore,
		string(ended.FinalMetrics.Winner),
		ended.FinalMetrics.AvgJitter,
		ended.FinalMetrics.AvgParticipants,
		state,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ended match: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) ListEndedMatches(ctx context.Context, limit int) ([]*models.EndedMatch, error) {
	q := `
	SELECT id, code, ended_at, duration_ms, red_score, blue_score, winner, avg_jitter, avg_participants, state
	FROM ended_matches
	ORDER BY ended_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ended matches: %v", err)
	}
	defer rows.Close()

	var ended []*models.EndedMatch
	for rows.Next() {
		e, err := scanEndedMatch(rows.Scan)
		if err != nil {
			return nil, err
		}
		ended = append(ended, e)
	}

	return ended, rows.Err()
}

func (r *SQLiteRepository) GetEndedMatch(ctx context.Context, id string) (*models.EndedMatch, error) {
	q := `
	SELECT id, code, ended_at, duration_ms, red_score, blue_score, winner, avg_jitter, avg_participants, state
	FROM ended_matches WHERE id = ?;
	`
	e, err := scanEndedMatch(r.db.QueryRowContext(ctx, q, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, err
	}

	return e, nil
}
