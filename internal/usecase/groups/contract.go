package groups

import (
	"context"

	"github.com/peerloop/peerloop/internal/domain"
)

// Repository defines the group storage contract for discovery and joins.
type Repository interface {
	Get(ctx context.Context, id string) (domain.Group, error)
	// ListPublic returns all public groups in stable enumeration order.
	ListPublic(ctx context.Context) ([]domain.Group, error)
	Put(ctx context.Context, g domain.Group) error
}

// ProfileReader reads requester profiles for ranking inputs.
type ProfileReader interface {
	Get(ctx context.Context, id string) (domain.Profile, error)
}

// ChatService is the external chat collaborator. ActiveChannels feeds the
// trending signal; AddMember is a best-effort side effect of joins.
type ChatService interface {
	ActiveChannels(ctx context.Context) (map[string]struct{}, error)
	AddMember(ctx context.Context, channelID, userID string) error
}
