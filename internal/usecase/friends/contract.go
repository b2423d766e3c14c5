package friends

import (
	"context"

	"github.com/peerloop/peerloop/internal/domain"
)

// Repository defines the friend-request storage contract.
type Repository interface {
	Create(ctx context.Context, req domain.FriendRequest) error
	Get(ctx context.Context, id string) (domain.FriendRequest, error)
	Update(ctx context.Context, req domain.FriendRequest) error
	Delete(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID string) ([]domain.FriendRequest, error)
}

// ProfileStore reads profiles and links accepted friendships.
type ProfileStore interface {
	Get(ctx context.Context, id string) (domain.Profile, error)
	AddFriend(ctx context.Context, userID, friendID string) error
}
