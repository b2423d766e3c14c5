package friends

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/peerloop/peerloop/internal/domain"
)

// Service manages the friend-request lifecycle. Requests are the single
// source of truth; the friend graph is only written on accept.
type Service struct {
	requests Repository
	profiles ProfileStore
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a friend-request service.
func New(requests Repository, profiles ProfileStore, logger *zap.Logger) *Service {
	return &Service{requests: requests, profiles: profiles, logger: logger, now: time.Now}
}

// Send creates a pending request from one user to another.
// Rejected when the users are already friends or a request already exists.
func (s *Service) Send(ctx context.Context, from, to string) (domain.FriendRequest, error) {
	req, err := domain.NewFriendRequest(from, to, s.now().UTC())
	if err != nil {
		return domain.FriendRequest{}, err
	}

	sender, err := s.profiles.Get(ctx, from)
	if err != nil {
		return domain.FriendRequest{}, fmt.Errorf("get sender: %w", err)
	}
	if _, err := s.profiles.Get(ctx, to); err != nil {
		return domain.FriendRequest{}, fmt.Errorf("get recipient: %w", err)
	}
	if domain.ContainsID(sender.Friends, to) {
		return domain.FriendRequest{}, fmt.Errorf("%w: users are already friends", domain.ErrAlreadyExists)
	}

	// A rejected request does not block retrying; drop it and start fresh.
	if existing, err := s.requests.Get(ctx, req.ID); err == nil {
		if existing.State != domain.FriendRequestRejected {
			return domain.FriendRequest{}, fmt.Errorf("%w: friend request %s already exists", domain.ErrAlreadyExists, req.ID)
		}
		if err := s.requests.Delete(ctx, req.ID); err != nil {
			return domain.FriendRequest{}, fmt.Errorf("replace rejected request: %w", err)
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.FriendRequest{}, err
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return domain.FriendRequest{}, err
	}

	s.logger.Info("Friend request sent",
		zap.String("from", from), zap.String("to", to))
	return req, nil
}

// Accept transitions a pending request to accepted and links both friend
// sets. Only the recipient may accept.
func (s *Service) Accept(ctx context.Context, requestID, userID string) (domain.FriendRequest, error) {
	req, err := s.transition(ctx, requestID, userID, (*domain.FriendRequest).Accept)
	if err != nil {
		return domain.FriendRequest{}, err
	}

	if err := s.profiles.AddFriend(ctx, req.From, req.To); err != nil {
		return domain.FriendRequest{}, fmt.Errorf("link sender friend set: %w", err)
	}
	if err := s.profiles.AddFriend(ctx, req.To, req.From); err != nil {
		return domain.FriendRequest{}, fmt.Errorf("link recipient friend set: %w", err)
	}

	s.logger.Info("Friend request accepted",
		zap.String("from", req.From), zap.String("to", req.To))
	return req, nil
}

// Reject transitions a pending request to rejected. Only the recipient may
// reject.
func (s *Service) Reject(ctx context.Context, requestID, userID string) (domain.FriendRequest, error) {
	return s.transition(ctx, requestID, userID, (*domain.FriendRequest).Reject)
}

// ListForUser returns every request involving the user.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	return s.requests.ListForUser(ctx, userID)
}

func (s *Service) transition(
	ctx context.Context, requestID, userID string,
	apply func(*domain.FriendRequest, time.Time) error,
) (domain.FriendRequest, error) {
	if requestID == "" {
		return domain.FriendRequest{}, fmt.Errorf("%w: request id is required", domain.ErrInvalidInput)
	}

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return domain.FriendRequest{}, err
	}
	if req.To != userID {
		return domain.FriendRequest{}, fmt.Errorf("%w: only the recipient may resolve a request", domain.ErrInvalidInput)
	}

	if err := apply(&req, s.now().UTC()); err != nil {
		return domain.FriendRequest{}, err
	}
	if err := s.requests.Update(ctx, req); err != nil {
		return domain.FriendRequest{}, err
	}
	return req, nil
}
