package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput signals a missing or malformed request parameter.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicateMember signals a join attempt by an existing member.
	ErrDuplicateMember = errors.New("already a member")
	// ErrPrivateGroupForbidden signals a join attempt on a private group without an invite.
	ErrPrivateGroupForbidden = errors.New("private group requires an invite")
	// ErrCapacityExceeded signals a join attempt on a full group.
	ErrCapacityExceeded = errors.New("group is full")
	// ErrInvalidTransition signals an illegal friend-request state change.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrModelLoad signals that the embedding model failed to load.
	ErrModelLoad = errors.New("embedding model load failed")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// CapacityError wraps ErrCapacityExceeded with the group's member limit.
type CapacityError struct {
	MaxMembers int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: member limit is %d", ErrCapacityExceeded.Error(), e.MaxMembers)
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

// NewCapacityExceeded creates a capacity error carrying the member limit.
func NewCapacityExceeded(maxMembers int) error {
	return &CapacityError{MaxMembers: maxMembers}
}
