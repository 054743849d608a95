package repositories

import (
	"context"

	"github.com/cbodonnell/codeword/pkg/repositories/models"
)

// Repository is the archival store for ended matches. Writes happen off the
// match-processing path; a repository failure must never block a broadcast.
type Repository interface {
	Close(ctx context.Context) error
	SaveEndedMatch(ctx context.Context, ended *models.EndedMatch) error
	// ListEndedMatches returns archived matches sorted by end time
	// descending. A limit of 0 means no limit.
	ListEndedMatches(ctx context.Context, limit int) ([]*models.EndedMatch, error)
	GetEndedMatch(ctx context.Context, id string) (*models.EndedMatch, error)
}
