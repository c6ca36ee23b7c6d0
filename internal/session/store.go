// Package session keeps the bounded per-session conversation memory the
// reference resolver reads from. Each session holds at most a configured
// number of turns; the oldest is evicted first.
package session

import (
	"context"

	"github.com/xaenox/fpl-assistant/internal/models"
)

// DefaultCapacity is the per-session turn limit when config does not set one.
const DefaultCapacity = 5

// Store is the conversation memory contract. Whether it is backed by an
// in-memory map or Postgres is a wiring choice.
type Store interface {
	// Append records a completed turn. Appends to the same session are
	// serialized; distinct sessions never block each other.
	Append(ctx context.Context, sessionID string, turn models.Turn) error

	// RecentEntities returns up to limit entities mentioned in the session,
	// most recent first.
	RecentEntities(ctx context.Context, sessionID string, limit int) ([]models.EntityRef, error)

	// History returns the session's turns, oldest first.
	History(ctx context.Context, sessionID string) ([]models.Turn, error)

	Close() error
}
