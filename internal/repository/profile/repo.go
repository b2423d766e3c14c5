package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/peerloop/peerloop/internal/db"
	"github.com/peerloop/peerloop/internal/domain"
)

const keyPrefix = domain.KeyPrefix + "profile:"

// store is the consumer interface for the profile repository (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repository persists user profiles as JSON documents.
type Repository struct {
	store store
}

// New creates a profile repository.
func New(s store) *Repository {
	return &Repository{store: s}
}

func key(id string) string { return keyPrefix + id }

// Get returns a profile by id.
func (r *Repository) Get(ctx context.Context, id string) (domain.Profile, error) {
	data, err := r.store.JSONGet(ctx, key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Profile{}, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
		}
		return domain.Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return unmarshalProfile(data)
}

// Put stores a profile.
func (r *Repository) Put(ctx context.Context, p domain.Profile) error {
	data, err := json.Marshal(toDoc(p))
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := r.store.JSONSet(ctx, key(p.ID), "$", data); err != nil {
		return fmt.Errorf("put profile %s: %w", p.ID, err)
	}
	return nil
}

// ListCandidates returns all profiles except excludeID, in stable key order.
// The excluded requester never appears in their own candidate pool.
func (r *Repository) ListCandidates(ctx context.Context, excludeID string) ([]domain.Profile, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan profiles: %w", err)
	}

	filtered := keys[:0]
	for _, k := range keys {
		if k != key(excludeID) {
			filtered = append(filtered, k)
		}
	}

	docs, err := r.store.JSONGetMulti(ctx, filtered)
	if err != nil {
		return nil, fmt.Errorf("fetch profiles: %w", err)
	}

	profiles := make([]domain.Profile, 0, len(docs))
	for i, data := range docs {
		if data == nil {
			continue // key expired between SCAN and fetch
		}
		p, err := unmarshalProfile(data)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", filtered[i], err)
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// AddFriend links friendID into userID's friend set. Idempotent.
func (r *Repository) AddFriend(ctx context.Context, userID, friendID string) error {
	p, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}
	if domain.ContainsID(p.Friends, friendID) {
		return nil
	}
	p.Friends = append(p.Friends, friendID)
	return r.Put(ctx, p)
}
