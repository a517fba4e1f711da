package repository

import (
	"context"

	"github.com/utafrali/storefront/internal/domain"
)

// CartRepository defines the durable store for cart line collections. The
// in-memory cart is authoritative for the session; this store only gives it
// durability across page reloads, so callers treat Save as best-effort.
type CartRepository interface {
	// Load retrieves the persisted line collection for a session. Returns
	// pkg/errors.ErrNotFound when no record exists.
	Load(ctx context.Context, sessionID string) ([]domain.CartLine, error)

	// Save persists the line collection for a session, overwriting any
	// existing record.
	Save(ctx context.Context, sessionID string, lines []domain.CartLine) error

	// Delete removes the persisted record for a session.
	Delete(ctx context.Context, sessionID string) error
}
