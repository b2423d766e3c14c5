package friendreq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/peerloop/peerloop/internal/db"
	"github.com/peerloop/peerloop/internal/domain"
)

const (
	keyPrefix     = domain.KeyPrefix + "frq:"
	userIdxPrefix = domain.KeyPrefix + "frq_user:"
)

// store is the consumer interface for the friend-request repository (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// requestDoc is the stored representation of a friend request.
type requestDoc struct {
	ID        string `json:"_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	State     string `json:"state"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Repository persists friend requests and a per-user request index.
type Repository struct {
	store store
}

// New creates a friend-request repository.
func New(s store) *Repository {
	return &Repository{store: s}
}

func key(id string) string      { return keyPrefix + id }
func userKey(uid string) string { return userIdxPrefix + uid }

// Create stores a new request and indexes it for both users.
// Fails with domain.ErrAlreadyExists if a request with the same id exists.
func (r *Repository) Create(ctx context.Context, req domain.FriendRequest) error {
	exists, err := r.store.Exists(ctx, key(req.ID))
	if err != nil {
		return fmt.Errorf("check friend request %s: %w", req.ID, err)
	}
	if exists {
		return fmt.Errorf("friend request %s: %w", req.ID, domain.ErrAlreadyExists)
	}

	if err := r.put(ctx, req); err != nil {
		return err
	}
	if err := r.store.SAdd(ctx, userKey(req.From), req.ID); err != nil {
		return fmt.Errorf("index request for %s: %w", req.From, err)
	}
	if err := r.store.SAdd(ctx, userKey(req.To), req.ID); err != nil {
		return fmt.Errorf("index request for %s: %w", req.To, err)
	}
	return nil
}

// Get returns a request by id.
func (r *Repository) Get(ctx context.Context, id string) (domain.FriendRequest, error) {
	data, err := r.store.Get(ctx, key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.FriendRequest{}, fmt.Errorf("friend request %s: %w", id, domain.ErrNotFound)
		}
		return domain.FriendRequest{}, fmt.Errorf("get friend request %s: %w", id, err)
	}

	var doc requestDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.FriendRequest{}, fmt.Errorf("unmarshal friend request: %w", err)
	}
	return fromDoc(doc), nil
}

// Update persists a state change.
func (r *Repository) Update(ctx context.Context, req domain.FriendRequest) error {
	return r.put(ctx, req)
}

// Delete removes a request and unindexes it for both users.
func (r *Repository) Delete(ctx context.Context, id string) error {
	req, err := r.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := r.store.Del(ctx, key(id)); err != nil {
		return fmt.Errorf("delete friend request %s: %w", id, err)
	}
	if err := r.store.SRem(ctx, userKey(req.From), id); err != nil {
		return fmt.Errorf("unindex request for %s: %w", req.From, err)
	}
	if err := r.store.SRem(ctx, userKey(req.To), id); err != nil {
		return fmt.Errorf("unindex request for %s: %w", req.To, err)
	}
	return nil
}

// ListForUser returns every request where the user is sender or recipient.
func (r *Repository) ListForUser(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	ids, err := r.store.SMembers(ctx, userKey(userID))
	if err != nil {
		return nil, fmt.Errorf("list requests for %s: %w", userID, err)
	}

	requests := make([]domain.FriendRequest, 0, len(ids))
	for _, id := range ids {
		req, err := r.Get(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Index entry outlived the request; drop it.
				_ = r.store.SRem(ctx, userKey(userID), id)
				continue
			}
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

func (r *Repository) put(ctx context.Context, req domain.FriendRequest) error {
	data, err := json.Marshal(requestDoc{
		ID:        req.ID,
		From:      req.From,
		To:        req.To,
		State:     string(req.State),
		CreatedAt: req.CreatedAt.UnixMilli(),
		UpdatedAt: req.UpdatedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal friend request: %w", err)
	}
	if err := r.store.Set(ctx, key(req.ID), data); err != nil {
		return fmt.Errorf("put friend request %s: %w", req.ID, err)
	}
	return nil
}

func fromDoc(d requestDoc) domain.FriendRequest {
	return domain.FriendRequest{
		ID:        d.ID,
		From:      d.From,
		To:        d.To,
		State:     domain.FriendRequestState(d.State),
		CreatedAt: time.UnixMilli(d.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(d.UpdatedAt).UTC(),
	}
}
