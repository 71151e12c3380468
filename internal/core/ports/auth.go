package ports

import (
	"context"
	"time"

	"github.com/atvirokodosprendimai/saveclarify/internal/core/domain"
)

type APIKeyRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (domain.APIKey, error)
	// Upsert creates a key or renames and reactivates an existing one.
	// CreatedAt of an existing key is kept.
	Upsert(ctx context.Context, key domain.APIKey) error
	MarkUsed(ctx context.Context, tokenHash string, at time.Time) error
}
