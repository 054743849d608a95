package repositories

import (
	"context"
	"fmt"

	"github.com/cbodonnell/codeword/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository creates a new PostgresRepository.
// It panics if it is unable to connect to the database.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) Repository {
	return &PostgresRepository{
		conn: connectDb(ctx, connStr),
	}
}

func connectDb(ctx context.Context, connStr string) *pgx.Conn {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		panic(fmt.Sprintf("Unable to connect to database: %v\n", err))
	}

	var username string
	var database string
	err = conn.QueryRow(ctx, "SELECT current_user, current_database()").Scan(&username, &database)
	if err != nil {
		panic(fmt.Sprintf("Unable to query database: %v\n", err))
	}

	return conn
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveEndedMatch(ctx context.Context, ended *models.EndedMatch) error {
	state, err := encodeState(ended.State)
	if err != nil {
		return fmt.Errorf("failed to encode match state: %v", err)
	}

	q := `
	INSERT INTO ended_matches
	(id, code, ended_at, duration_ms, red_score, blue_score, winner, avg_jitter, avg_participants, state)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO NOTHING;
	`
	_, err = r.conn.Exec(ctx, q,
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

func (r *PostgresRepository) ListEndedMatches(ctx context.Context, limit int) ([]*models.EndedMatch, error) {
	q := `
	SELECT id, code, ended_at, duration_ms, red_score, blue_score, winner, avg_jitter, avg_participants, state
	FROM ended_matches
	ORDER BY ended_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		q += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.conn.Query(ctx, q, args...)
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

func (r *PostgresRepository) GetEndedMatch(ctx context.Context, id string) (*models.EndedMatch, error) {
	q := `
	SELECT id, code, ended_at, duration_ms, red_score, blue_score, winner, avg_jitter, avg_participants, state
	FROM ended_matches WHERE id = $1;
	`
	e, err := scanEndedMatch(r.conn.QueryRow(ctx, q, id).Scan)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, err
	}

	return e, nil
}
