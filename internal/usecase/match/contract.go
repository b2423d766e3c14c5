package match

import (
	"context"

	"github.com/peerloop/peerloop/internal/domain"
)

// Repository defines the profile storage contract for peer matching.
type Repository interface {
	Get(ctx context.Context, id string) (domain.Profile, error)
	// ListCandidates returns the candidate pool excluding the requester,
	// in stable enumeration order.
	ListCandidates(ctx context.Context, excludeID string) ([]domain.Profile, error)
}

// Scorer computes semantic text similarity. Implementations degrade to 0
// on embedding failures instead of returning an error.
type Scorer interface {
	TextSimilarity(ctx context.Context, text1, text2 string) float64
}
