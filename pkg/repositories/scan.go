package repositories

import (
	"database/sql"
	"fmt"

	"github.com/cbodonnell/codeword/pkg/repositories/models"
	"github.com/jackc/pgx/v5"
)

// scanEndedMatch reads one ended-match row via the given scan function.
// No-rows sentinels from either driver are passed through unwrapped so
// callers can map them to ErrNotFound.
func scanEndedMatch(scan func(dest ...interface{}) error) (*models.EndedMatch, error) {
	var e models.EndedMatch
	var winner string
	var state []byte

	if err := scan(
		&e.ID,
		&e.Code,
		&e.EndedAt,
		&e.FinalMetrics.DurationMillis,
		&e.FinalMetrics.RedScore,
		&e.FinalMetrics.BlueScore,
		&winner,
		&e.FinalMetrics.AvgJitter,
		&e.FinalMetrics.AvgParticipants,
		&state,
	); err != nil {
		if err == sql.ErrNoRows || err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan ended match: %v", err)
	}

	match, err := decodeState(state)
	if err != nil {
		return nil, fmt.Errorf("failed to decode match state: %v", err)
	}
	e.State = match
	e.FinalMetrics.Winner = gameWinner(winner)

	return &e, nil
}
