package domain

import (
	"fmt"
	"time"
)

// FriendRequestState is the lifecycle state of a friend request.
type FriendRequestState string

// Friend request states. A request is created pending and transitions
// exactly once, to accepted or rejected.
const (
	FriendRequestPending  FriendRequestState = "pending"
	FriendRequestAccepted FriendRequestState = "accepted"
	FriendRequestRejected FriendRequestState = "rejected"
)

// FriendRequest is the single source of truth for friend-request state.
// There is no mirrored per-user array; the friend graph is only written
// when a request is accepted.
type FriendRequest struct {
	ID        string
	From      string
	To        string
	State     FriendRequestState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FriendRequestID derives the natural key for a request between two users.
// One live request per direction.
func FriendRequestID(from, to string) string {
	return from + ":" + to
}

// NewFriendRequest creates a pending request from one user to another.
func NewFriendRequest(from, to string, now time.Time) (FriendRequest, error) {
	if from == "" || to == "" {
		return FriendRequest{}, fmt.Errorf("%w: sender and recipient are required", ErrInvalidInput)
	}
	if from == to {
		return FriendRequest{}, fmt.Errorf("%w: cannot send a friend request to yourself", ErrInvalidInput)
	}
	return FriendRequest{
		ID:        FriendRequestID(from, to),
		From:      from,
		To:        to,
		State:     FriendRequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Accept transitions pending → accepted.
func (r *FriendRequest) Accept(now time.Time) error {
	return r.transition(FriendRequestAccepted, now)
}

// Reject transitions pending → rejected.
func (r *FriendRequest) Reject(now time.Time) error {
	return r.transition(FriendRequestRejected, now)
}

func (r *FriendRequest) transition(to FriendRequestState, now time.Time) error {
	if r.State != FriendRequestPending {
		return fmt.Errorf("%w: %s request cannot become %s", ErrInvalidTransition, r.State, to)
	}
	r.State = to
	r.UpdatedAt = now
	return nil
}
