package telegramcrm

import (
	"context"

	"github.com/filtra-ar/filtrabot/internal/domain/repository"
)

// Disabled is the no-op mirror used when no Telegram token is
// configured. The engine always has a mirror to talk to.
type Disabled struct{}

func (Disabled) Log(context.Context, string, string, repository.MirrorTier) error { return nil }
