package workers

import (
	"context"
	"time"

	"github.com/cbodonnell/codeword/pkg/sessions"
)

type RetentionWorker struct {
	sessionManager *sessions.SessionManager
	interval       time.Duration
}

type NewRetentionWorkerOptions struct {
	SessionManager *sessions.SessionManager
	Interval       time.Duration
}

// NewRetentionWorker creates a new RetentionWorker.
// The worker periodically archives decided matches past their retention
// window and evicts them from the live registry.
func NewRetentionWorker(opts NewRetentionWorkerOptions) *RetentionWorker {
	return &RetentionWorker{
		sessionManager: opts.SessionManager,
		interval:       opts.Interval,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sessionManager.Cleanup(ctx)
		}
	}
}
