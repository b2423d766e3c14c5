package group

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/peerloop/peerloop/internal/db"
	"github.com/peerloop/peerloop/internal/domain"
)

const keyPrefix = domain.KeyPrefix + "group:"

// store is the consumer interface for the group repository (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repository persists study groups as JSON documents.
type Repository struct {
	store store
}

// New creates a group repository.
func New(s store) *Repository {
	return &Repository{store: s}
}

func key(id string) string { return keyPrefix + id }

// Get returns a group by id.
func (r *Repository) Get(ctx context.Context, id string) (domain.Group, error) {
	data, err := r.store.JSONGet(ctx, key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Group{}, fmt.Errorf("group %s: %w", id, domain.ErrNotFound)
		}
		return domain.Group{}, fmt.Errorf("get group %s: %w", id, err)
	}
	return unmarshalGroup(data)
}

// Put stores a group.
func (r *Repository) Put(ctx context.Context, g domain.Group) error {
	data, err := json.Marshal(toDoc(g))
	if err != nil {
		return fmt.Errorf("marshal group: %w", err)
	}
	if err := r.store.JSONSet(ctx, key(g.ID), "$", data); err != nil {
		return fmt.Errorf("put group %s: %w", g.ID, err)
	}
	return nil
}

// ListPublic returns all public groups in stable key order.
func (r *Repository) ListPublic(ctx context.Context) ([]domain.Group, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan groups: %w", err)
	}

	docs, err := r.store.JSONGetMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch groups: %w", err)
	}

	groups := make([]domain.Group, 0, len(docs))
	for i, data := range docs {
		if data == nil {
			continue
		}
		g, err := unmarshalGroup(data)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", keys[i], err)
		}
		if !g.IsPublic {
			continue
		}
		groups = append(groups, g)
	}
	return groups, nil
}
