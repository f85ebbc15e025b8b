package repository

import (
	"context"

	"github.com/filtra-ar/filtrabot/internal/domain/entity"
)

// SessionRepository persists per-identity conversational state.
type SessionRepository interface {
	// Get returns nil, nil for an unseen identity.
	Get(ctx context.Context, identity string) (*entity.Session, error)

	// Save upserts the whole session row.
	Save(ctx context.Context, session *entity.Session) error

	// SaveLead stores a completed survey result.
	SaveLead(ctx context.Context, lead entity.Lead) error

	// LogEvent appends one interaction to the analytics log. Best effort;
	// callers ignore the error beyond logging it.
	LogEvent(ctx context.Context, identity, action, content string) error
}
