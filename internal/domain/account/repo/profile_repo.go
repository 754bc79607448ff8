package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/streampulse/account-service/internal/domain/account/model"
)

// ProfileRepo serves the read-only aggregations. Implementations must do the
// joins server-side: one round-trip for the channel view, two for the watch
// history (videos, then their owners), never one query per item.
type ProfileRepo interface {
	// ChannelProfile aggregates subscriber/subscription counts for the user
	// with the given handle and whether viewerID appears among the
	// subscribers. viewerID may be uuid.Nil for an anonymous viewer.
	ChannelProfile(ctx context.Context, handle string, viewerID uuid.UUID) (model.ChannelProfile, error)

	// WatchHistory resolves the user's ordered video list with the owning
	// user's public fields attached to each entry.
	WatchHistory(ctx context.Context, userID uuid.UUID) ([]model.VideoWithOwner, error)
}

// ProfileCache fronts ChannelProfile reads with a short-TTL shared cache.
type ProfileCache interface {
	GetChannel(ctx context.Context, handle string, viewerID uuid.UUID) (model.ChannelProfile, bool, error)

	SetChannel(ctx context.Context, handle string, viewerID uuid.UUID, p model.ChannelProfile, ttl time.Duration) error

	// InvalidateChannel drops every cached view of the handle, all viewers.
	InvalidateChannel(ctx context.Context, handle string) error
}
