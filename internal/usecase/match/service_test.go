package match

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/peerloop/peerloop/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	requester domain.Profile
	pool      []domain.Profile
	getErr    error
	listErr   error
}

func (m *mockRepo) Get(_ context.Context, _ string) (domain.Profile, error) {
	return m.requester, m.getErr
}

func (m *mockRepo) ListCandidates(_ context.Context, _ string) ([]domain.Profile, error) {
	return m.pool, m.listErr
}

// tableScorer returns canned similarities keyed by "text1|text2".
type tableScorer struct {
	scores map[string]float64
}

func (s *tableScorer) TextSimilarity(_ context.Context, t1, t2 string) float64 {
	return s.scores[t1+"|"+t2]
}

// zeroScorer degrades everything to 0, as the real scorer does when the
// embedding layer is down.
type zeroScorer struct{}

func (zeroScorer) TextSimilarity(_ context.Context, _, _ string) float64 { return 0 }

func newService(repo Repository, scorer Scorer) *Service {
	return New(repo, scorer, zap.NewNop())
}

// --- Tests ---

func TestFindMatches_ThresholdFiltering(t *testing.T) {
	requester := domain.Profile{ID: "me", Bio: "backend"}
	repo := &mockRepo{
		requester: requester,
		pool: []domain.Profile{
			{ID: "strong", Bio: "backend systems"},
			{ID: "weak", Bio: "gardening"},
		},
	}
	scorer := &tableScorer{scores: map[string]float64{
		"backend|backend systems": 0.82,
		"backend|gardening":       0.12,
	}}

	results, err := newService(repo, scorer).FindMatches(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Candidate.ID != "strong" {
		t.Errorf("expected candidate 'strong', got %q", results[0].Candidate.ID)
	}
	for _, r := range results {
		if r.Score < 0.3 {
			t.Errorf("result %s below threshold: %v", r.Candidate.ID, r.Score)
		}
	}
}

func TestFindMatches_MutualFriendsBonus(t *testing.T) {
	repo := &mockRepo{
		requester: domain.Profile{ID: "me", Friends: []string{"f1", "f2"}},
		pool: []domain.Profile{
			{ID: "mutual", Friends: []string{"f2", "f9"}},
			{ID: "stranger", Friends: []string{"f7"}},
		},
	}

	results, err := newService(repo, zeroScorer{}).FindMatches(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Only the mutual-friend candidate clears the 0.3 threshold (0.5 bonus).
	if len(results) != 1 || results[0].Candidate.ID != "mutual" {
		t.Fatalf("expected only 'mutual', got %+v", results)
	}
	if results[0].Score != 0.5 {
		t.Errorf("expected flat 0.5 bonus, got %v", results[0].Score)
	}
}

func TestFindMatches_ComplementaryOverlapBothDirections(t *testing.T) {
	repo := &mockRepo{
		requester: domain.Profile{
			ID:            "me",
			Strengths:     []string{"SQL"},
			NeedsHelpWith: []string{"Go"},
		},
		pool: []domain.Profile{
			{
				ID:            "complement",
				Strengths:     []string{"Go"},
				NeedsHelpWith: []string{"SQL"},
			},
		},
	}

	results, err := newService(repo, zeroScorer{}).FindMatches(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	// Both directions trigger independently: 0.5 + 0.5.
	if results[0].Score != 1.0 {
		t.Errorf("expected score 1.0 from two overlap bonuses, got %v", results[0].Score)
	}
}

func TestFindMatches_EmptyFieldsNoOverlapBonus(t *testing.T) {
	repo := &mockRepo{
		requester: domain.Profile{ID: "me", Friends: []string{"f1"}},
		pool: []domain.Profile{
			{ID: "blank", Friends: []string{"f1"}},
		},
	}

	results, err := newService(repo, zeroScorer{}).FindMatches(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Empty strengths/needs must not trip the substring check; only the
	// mutual-friends bonus applies.
	if len(results) != 1 || results[0].Score != 0.5 {
		t.Fatalf("expected single result with 0.5, got %+v", results)
	}
}

func TestFindMatches_StableOrderOnTies(t *testing.T) {
	pool := []domain.Profile{
		{ID: "a", Friends: []string{"f"}},
		{ID: "b", Friends: []string{"f"}},
		{ID: "c", Friends: []string{"f"}},
	}
	repo := &mockRepo{
		requester: domain.Profile{ID: "me", Friends: []string{"f"}},
		pool:      pool,
	}
	svc := newService(repo, zeroScorer{})

	first, err := svc.FindMatches(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.FindMatches(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids := func(rs []Result) []string {
		out := make([]string, len(rs))
		for i, r := range rs {
			out[i] = r.Candidate.ID
		}
		return out
	}

	if !reflect.DeepEqual(ids(first), []string{"a", "b", "c"}) {
		t.Errorf("tied scores must keep pool order, got %v", ids(first))
	}
	if !reflect.DeepEqual(ids(first), ids(second)) {
		t.Errorf("repeated runs must be identical: %v vs %v", ids(first), ids(second))
	}
}

func TestFindMatches_SortsDescendingRounded(t *testing.T) {
	repo := &mockRepo{
		requester: domain.Profile{ID: "me", Bio: "x"},
		pool: []domain.Profile{
			{ID: "mid", Bio: "m"},
			{ID: "top", Bio: "t"},
		},
	}
	scorer := &tableScorer{scores: map[string]float64{
		"x|m": 0.456,
		"x|t": 0.911,
	}}

	results, err := newService(repo, scorer).FindMatches(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[0].Candidate.ID != "top" {
		t.Fatalf("expected descending order, got %+v", results)
	}
	if results[0].Score != 0.91 || results[1].Score != 0.46 {
		t.Errorf("expected 2-decimal rounding, got %v and %v", results[0].Score, results[1].Score)
	}
}

func TestFindMatches_InterestsJoinedLowercase(t *testing.T) {
	var seen []string
	scorer := &spyScorer{record: &seen}
	repo := &mockRepo{
		requester: domain.Profile{ID: "me", Interests: []string{"Go", "ML"}},
		pool:      []domain.Profile{{ID: "c", Interests: []string{"GO", "Rust"}}},
	}

	if _, err := newService(repo, scorer).FindMatches(context.Background(), "me"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, pair := range seen {
		if pair == "go ml|go rust" {
			found = true
		}
		if pair != strings.ToLower(pair) {
			t.Errorf("similarity input not lower-cased: %q", pair)
		}
	}
	if !found {
		t.Errorf("expected joined lower-cased interests comparison, saw %v", seen)
	}
}

type spyScorer struct {
	record *[]string
}

func (s *spyScorer) TextSimilarity(_ context.Context, t1, t2 string) float64 {
	if t1 != "" || t2 != "" {
		*s.record = append(*s.record, t1+"|"+t2)
	}
	return 0
}

func TestFindMatches_RequesterErrors(t *testing.T) {
	svc := newService(&mockRepo{getErr: domain.ErrNotFound}, zeroScorer{})
	if _, err := svc.FindMatches(context.Background(), "ghost"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	svc = newService(&mockRepo{}, zeroScorer{})
	if _, err := svc.FindMatches(context.Background(), ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty id, got %v", err)
	}
}
