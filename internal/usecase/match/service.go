package match

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peerloop/peerloop/internal/domain"
	"github.com/peerloop/peerloop/internal/metrics"
)

// Scoring constants. Signals are additive in their natural ranges; the
// threshold and bonuses are tuned against that combined scale, so no
// cross-signal normalization is applied.
const (
	scoreThreshold     = 0.3
	overlapBonus       = 0.5
	mutualFriendsBonus = 0.5
)

// Result is one ranked peer candidate.
type Result struct {
	Candidate domain.ProfileProjection `json:"candidate"`
	Score     float64                  `json:"score"`
}

// Service ranks peer candidates for the find-matches feature.
type Service struct {
	profiles Repository
	scorer   Scorer
	logger   *zap.Logger
}

// New creates a peer-match service.
func New(profiles Repository, scorer Scorer, logger *zap.Logger) *Service {
	return &Service{profiles: profiles, scorer: scorer, logger: logger}
}

// FindMatches scores every candidate against the requester and returns the
// ones at or above the threshold, sorted by score descending. Equal scores
// keep pool order. A bad candidate degrades its own signals, never the
// whole batch.
func (s *Service) FindMatches(ctx context.Context, requesterID string) ([]Result, error) {
	if requesterID == "" {
		return nil, fmt.Errorf("%w: requester id is required", domain.ErrInvalidInput)
	}

	requester, err := s.profiles.Get(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("get requester: %w", err)
	}

	pool, err := s.profiles.ListCandidates(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	start := time.Now()

	results := make([]Result, 0, len(pool))
	for _, candidate := range pool {
		score := s.score(ctx, requester, candidate)
		if score < scoreThreshold {
			continue
		}
		results = append(results, Result{
			Candidate: candidate.Projection(),
			Score:     round2(score),
		})
	}

	// Stable: equal scores retain pool enumeration order across runs.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	metrics.ObserveRanking("matches", time.Since(start).Seconds(), len(results))
	s.logger.Debug("Ranked peer matches",
		zap.String("requester", requesterID),
		zap.Int("pool", len(pool)),
		zap.Int("matched", len(results)),
	)

	return results, nil
}

// score combines the per-candidate signals. Candidates are scored
// sequentially; each similarity call may block on the shared model load.
func (s *Service) score(ctx context.Context, requester, candidate domain.Profile) float64 {
	score := s.scorer.TextSimilarity(ctx, requester.Bio, candidate.Bio)

	score += s.scorer.TextSimilarity(ctx,
		domain.JoinLower(requester.Interests),
		domain.JoinLower(candidate.Interests),
	)

	requesterStrengths := domain.JoinLower(requester.Strengths)
	requesterNeeds := domain.JoinLower(requester.NeedsHelpWith)
	candidateStrengths := domain.JoinLower(candidate.Strengths)
	candidateNeeds := domain.JoinLower(candidate.NeedsHelpWith)

	// Complementary skills, both directions scored independently.
	score += s.scorer.TextSimilarity(ctx, requesterStrengths, candidateNeeds)
	score += s.scorer.TextSimilarity(ctx, candidateStrengths, requesterNeeds)

	if overlaps(requesterStrengths, candidateNeeds) {
		score += overlapBonus
	}
	if overlaps(candidateStrengths, requesterNeeds) {
		score += overlapBonus
	}

	if domain.IntersectIDs(requester.Friends, candidate.Friends) {
		score += mutualFriendsBonus
	}

	return score
}

// overlaps reports whether one joined set is a substring of the other.
// Empty sets never overlap.
func overlaps(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
