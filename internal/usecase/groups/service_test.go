package groups

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/peerloop/peerloop/internal/domain"
)

// --- Mocks ---

type mockGroups struct {
	byID       map[string]domain.Group
	pool       []domain.Group
	listCalled bool
	putGroups  []domain.Group
	putErr     error
}

func (m *mockGroups) Get(_ context.Context, id string) (domain.Group, error) {
	g, ok := m.byID[id]
	if !ok {
		return domain.Group{}, domain.ErrNotFound
	}
	return g, nil
}

func (m *mockGroups) ListPublic(_ context.Context) ([]domain.Group, error) {
	m.listCalled = true
	return m.pool, nil
}

func (m *mockGroups) Put(_ context.Context, g domain.Group) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.putGroups = append(m.putGroups, g)
	return nil
}

type mockProfiles struct {
	byID map[string]domain.Profile
}

func (m *mockProfiles) Get(_ context.Context, id string) (domain.Profile, error) {
	p, ok := m.byID[id]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return p, nil
}

type mockChat struct {
	active      map[string]struct{}
	activeErr   error
	addErr      error
	addedCalls  int
	lastChannel string
	lastUser    string
}

func (m *mockChat) ActiveChannels(_ context.Context) (map[string]struct{}, error) {
	return m.active, m.activeErr
}

func (m *mockChat) AddMember(_ context.Context, channelID, userID string) error {
	m.addedCalls++
	m.lastChannel = channelID
	m.lastUser = userID
	return m.addErr
}

func members(ids ...string) []domain.MemberRef {
	out := make([]domain.MemberRef, len(ids))
	for i, id := range ids {
		out[i] = domain.MemberRef{ID: id, Username: "user-" + id}
	}
	return out
}

func newService(g *mockGroups, p *mockProfiles, c *mockChat) *Service {
	return New(g, p, c, zap.NewNop())
}

// --- Ranking tests ---

func TestRecommended_WeightedScore(t *testing.T) {
	user := domain.Profile{
		ID:            "me",
		Interests:     []string{"go", "sql"},
		Strengths:     []string{"python"},
		NeedsHelpWith: []string{"k8s"},
	}
	g := domain.Group{
		ID:       "g1",
		IsPublic: true,
		Topics:   []string{"go", "sql", "python", "k8s"},
	}
	svc := newService(
		&mockGroups{pool: []domain.Group{g}},
		&mockProfiles{byID: map[string]domain.Profile{"me": user}},
		&mockChat{},
	)

	results, err := svc.Recommended(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.InterestScore != 2 || r.StrengthScore != 1 || r.NeedsScore != 1 {
		t.Fatalf("component scores = %d/%d/%d, want 2/1/1",
			r.InterestScore, r.StrengthScore, r.NeedsScore)
	}
	// 2 + 0.8*1 + 1.2*1
	if r.Score != 4.0 {
		t.Errorf("composite = %v, want 4.0", r.Score)
	}
}

func TestRecommended_ExcludesMemberGroups(t *testing.T) {
	user := domain.Profile{ID: "me", Interests: []string{"go"}}
	pool := []domain.Group{
		{ID: "in", IsPublic: true, Topics: []string{"go"}, Members: members("me")},
		{ID: "out", IsPublic: true, Topics: []string{"go"}},
	}
	svc := newService(&mockGroups{pool: pool},
		&mockProfiles{byID: map[string]domain.Profile{"me": user}}, &mockChat{})

	results, err := svc.Recommended(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].ID != "out" {
		t.Fatalf("expected only non-member group, got %+v", results)
	}
}

func TestTrending_BoostAndFilter(t *testing.T) {
	user := domain.Profile{ID: "me"}
	pool := []domain.Group{
		{ID: "quiet-mine", IsPublic: true, ChannelID: "ch1", Members: members("me")},
		{ID: "active-mine", IsPublic: true, ChannelID: "ch2", Members: members("me", "a", "b")},
		{ID: "quiet-other", IsPublic: true, ChannelID: "ch3", Members: members("a")},
	}
	chat := &mockChat{active: map[string]struct{}{"ch2": {}}}
	svc := newService(&mockGroups{pool: pool},
		&mockProfiles{byID: map[string]domain.Profile{"me": user}}, chat)

	results, err := svc.Trending(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// quiet-mine drops (member + inactive); active-mine stays.
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	if results[0].ID != "active-mine" {
		t.Errorf("expected boosted group first, got %s", results[0].ID)
	}
	// 3 members + 10 boost
	if results[0].Score != 13 || results[0].StreamActivityBoost != 10 {
		t.Errorf("boosted score = %v (boost %d), want 13 (10)",
			results[0].Score, results[0].StreamActivityBoost)
	}
	if results[1].ID != "quiet-other" || results[1].Score != 1 {
		t.Errorf("unboosted score mismatch: %+v", results[1])
	}
}

func TestTrending_ChatFailureDegrades(t *testing.T) {
	user := domain.Profile{ID: "me"}
	pool := []domain.Group{{ID: "g", IsPublic: true, ChannelID: "ch", Members: members("a", "b")}}
	chat := &mockChat{activeErr: errors.New("chat saas down")}
	svc := newService(&mockGroups{pool: pool},
		&mockProfiles{byID: map[string]domain.Profile{"me": user}}, chat)

	results, err := svc.Trending(context.Background(), "me")
	if err != nil {
		t.Fatalf("trending must not fail when chat is down: %v", err)
	}
	if len(results) != 1 || results[0].Score != 2 || results[0].StreamActivityBoost != 0 {
		t.Errorf("expected unboosted ranking, got %+v", results)
	}
}

func TestForYou_TopicMatchHardFilter(t *testing.T) {
	user := domain.Profile{
		ID:            "me",
		NeedsHelpWith: []string{"go"},
		SkillLevel:    domain.SkillBeginner,
		Projects:      []domain.Project{{Name: "app", Technologies: []string{"redis"}}},
	}
	pool := []domain.Group{
		// Perfect skill and focus fit, but zero topic overlap: excluded.
		{ID: "no-topic", IsPublic: true, Topics: []string{"haskell"},
			SkillLevel: domain.SkillBeginner, GroupType: domain.GroupLearning},
		{ID: "needs-match", IsPublic: true, Topics: []string{"go"},
			SkillLevel: domain.SkillAdvanced, GroupType: domain.GroupGeneral},
		{ID: "tech-match", IsPublic: true, Topics: []string{"redis"},
			SkillLevel: domain.SkillBeginner, GroupType: domain.GroupLearning},
	}
	svc := newService(&mockGroups{pool: pool},
		&mockProfiles{byID: map[string]domain.Profile{"me": user}}, &mockChat{})

	results, err := svc.ForYou(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	// tech-match: 1 topic + 3 skill + 2 learning = 6; needs-match: 1.
	if results[0].ID != "tech-match" || results[0].Score != 6 {
		t.Errorf("expected tech-match with 6, got %s/%v", results[0].ID, results[0].Score)
	}
	if results[0].SkillLevelFit != 3 || results[0].LearningFocus != 2 {
		t.Errorf("component mismatch: %+v", results[0])
	}
	if results[1].ID != "needs-match" || results[1].Score != 1 {
		t.Errorf("expected needs-match with 1, got %s/%v", results[1].ID, results[1].Score)
	}
}

func TestSearch_Relevance(t *testing.T) {
	pool := []domain.Group{
		{ID: "name-hit", IsPublic: true, Name: "Go Study Circle"},
		{ID: "topic-hit", IsPublic: true, Name: "Backenders",
			Description: "we talk go and sql", Topics: []string{"golang", "go-kit", "sql"}},
		{ID: "miss", IsPublic: true, Name: "Watercolor Club"},
	}
	svc := newService(&mockGroups{pool: pool},
		&mockProfiles{byID: map[string]domain.Profile{}}, &mockChat{})

	results, err := svc.Search(context.Background(), "GO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	// topic-hit: desc 1 + 2*2 topics = 5; name-hit: 3.
	if results[0].ID != "topic-hit" || results[0].Score != 5 {
		t.Errorf("expected topic-hit at 5, got %s/%v", results[0].ID, results[0].Score)
	}
	if results[0].TopicMatch != 2 || results[0].DescMatch != 1 || results[0].NameMatch != 0 {
		t.Errorf("component mismatch: %+v", results[0])
	}
	if results[1].ID != "name-hit" || results[1].Score != 3 {
		t.Errorf("expected name-hit at 3, got %s/%v", results[1].ID, results[1].Score)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := newService(&mockGroups{}, &mockProfiles{}, &mockChat{})
	if _, err := svc.Search(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestWithFriends_ShortCircuitNoFriends(t *testing.T) {
	repo := &mockGroups{pool: []domain.Group{{ID: "g", IsPublic: true}}}
	svc := newService(repo,
		&mockProfiles{byID: map[string]domain.Profile{"me": {ID: "me"}}}, &mockChat{})

	results, err := svc.WithFriends(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result, got %+v", results)
	}
	if repo.listCalled {
		t.Error("zero friends must not query the group pool")
	}
}

func TestWithFriends_CountsAndSorts(t *testing.T) {
	user := domain.Profile{ID: "me", Friends: []string{"f1", "f2", "f3"}}
	pool := []domain.Group{
		{ID: "one-friend", IsPublic: true, Members: members("f1", "x")},
		{ID: "two-friends", IsPublic: true, Members: members("f1", "f2")},
		{ID: "no-friends", IsPublic: true, Members: members("x", "y")},
		{ID: "mine", IsPublic: true, Members: members("me", "f3")},
	}
	svc := newService(&mockGroups{pool: pool},
		&mockProfiles{byID: map[string]domain.Profile{"me": user}}, &mockChat{})

	results, err := svc.WithFriends(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	if results[0].ID != "two-friends" || results[0].FriendCount != 2 {
		t.Errorf("expected two-friends first, got %+v", results[0])
	}
	if results[1].ID != "one-friend" || results[1].FriendCount != 1 {
		t.Errorf("expected one-friend second, got %+v", results[1])
	}
}

func TestRanking_TopKAndProjection(t *testing.T) {
	memberIDs := make([]string, 15)
	for i := range memberIDs {
		memberIDs[i] = string(rune('a' + i))
	}
	pool := make([]domain.Group, 25)
	for i := range pool {
		pool[i] = domain.Group{
			ID:       string(rune('A' + i)),
			IsPublic: true,
			Topics:   []string{"go"},
			Members:  members(memberIDs...),
		}
	}
	user := domain.Profile{ID: "me", Interests: []string{"go"}}
	svc := newService(&mockGroups{pool: pool},
		&mockProfiles{byID: map[string]domain.Profile{"me": user}}, &mockChat{})

	results, err := svc.Recommended(context.Background(), "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 20 {
		t.Fatalf("expected top-20 truncation, got %d", len(results))
	}
	// Tied scores keep pool order.
	if results[0].ID != "A" || results[19].ID != "T" {
		t.Errorf("tie order broken: first=%s last=%s", results[0].ID, results[19].ID)
	}
	card := results[0].GroupCard
	if len(card.Members) != domain.MemberPreviewLimit {
		t.Errorf("member preview = %d, want %d", len(card.Members), domain.MemberPreviewLimit)
	}
	if card.MemberCount != 15 {
		t.Errorf("memberCount must be the true total, got %d", card.MemberCount)
	}
	if !card.IsPopular {
		t.Error("15 members must be popular")
	}
}

// --- Join tests ---

func joinFixture(g domain.Group) (*Service, *mockGroups, *mockChat) {
	repo := &mockGroups{byID: map[string]domain.Group{g.ID: g}}
	chat := &mockChat{}
	profiles := &mockProfiles{byID: map[string]domain.Profile{
		"me": {ID: "me", Username: "me", Avatar: "a.png"},
	}}
	return newService(repo, profiles, chat), repo, chat
}

func TestJoin_Success(t *testing.T) {
	svc, repo, chat := joinFixture(domain.Group{
		ID: "g", IsPublic: true, ChannelID: "ch", Members: members("x"),
		Invites: []string{"me", "other"}, MaxMembers: 10,
	})

	card, err := svc.Join(context.Background(), "g", "me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if card.MemberCount != 2 {
		t.Errorf("expected 2 members after join, got %d", card.MemberCount)
	}

	if len(repo.putGroups) != 1 {
		t.Fatalf("expected 1 persisted group, got %d", len(repo.putGroups))
	}
	saved := repo.putGroups[0]
	if !saved.HasMember("me") {
		t.Error("join must append the member")
	}
	if saved.HasInvite("me") || !saved.HasInvite("other") {
		t.Errorf("join must consume only the joiner's invite, got %v", saved.Invites)
	}
	if chat.addedCalls != 1 || chat.lastChannel != "ch" || chat.lastUser != "me" {
		t.Errorf("expected chat membership add for ch/me, got %+v", chat)
	}
}

func TestJoin_DuplicateMember(t *testing.T) {
	svc, repo, _ := joinFixture(domain.Group{
		ID: "g", IsPublic: true, Members: members("me"),
	})

	_, err := svc.Join(context.Background(), "g", "me")
	if !errors.Is(err, domain.ErrDuplicateMember) {
		t.Fatalf("expected ErrDuplicateMember, got %v", err)
	}
	if len(repo.putGroups) != 0 {
		t.Error("rejected join must not persist")
	}
}

func TestJoin_PrivateWithoutInvite(t *testing.T) {
	svc, _, _ := joinFixture(domain.Group{ID: "g", IsPublic: false})
	if _, err := svc.Join(context.Background(), "g", "me"); !errors.Is(err, domain.ErrPrivateGroupForbidden) {
		t.Fatalf("expected ErrPrivateGroupForbidden, got %v", err)
	}
}

func TestJoin_PrivateWithInvite(t *testing.T) {
	svc, _, _ := joinFixture(domain.Group{ID: "g", IsPublic: false, Invites: []string{"me"}})
	if _, err := svc.Join(context.Background(), "g", "me"); err != nil {
		t.Fatalf("invited join must succeed: %v", err)
	}
}

func TestJoin_CapacityExceeded(t *testing.T) {
	svc, _, _ := joinFixture(domain.Group{
		ID: "g", IsPublic: true, Members: members("a", "b"), MaxMembers: 2,
	})

	_, err := svc.Join(context.Background(), "g", "me")
	if !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	var capErr *domain.CapacityError
	if !errors.As(err, &capErr) || capErr.MaxMembers != 2 {
		t.Errorf("expected CapacityError carrying limit 2, got %v", err)
	}
}

func TestJoin_SecondJoinFails(t *testing.T) {
	g := domain.Group{ID: "g", IsPublic: true, MaxMembers: 10}
	repo := &mockGroups{byID: map[string]domain.Group{"g": g}}
	profiles := &mockProfiles{byID: map[string]domain.Profile{"me": {ID: "me"}}}
	svc := newService(repo, profiles, &mockChat{})

	if _, err := svc.Join(context.Background(), "g", "me"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	// Reflect the persisted state, as the storage collaborator would.
	repo.byID["g"] = repo.putGroups[0]

	if _, err := svc.Join(context.Background(), "g", "me"); !errors.Is(err, domain.ErrDuplicateMember) {
		t.Fatalf("expected ErrDuplicateMember on second join, got %v", err)
	}
}

func TestJoin_ChatFailureIsBestEffort(t *testing.T) {
	svc, repo, chat := joinFixture(domain.Group{ID: "g", IsPublic: true, ChannelID: "ch"})
	chat.addErr = errors.New("chat saas down")

	if _, err := svc.Join(context.Background(), "g", "me"); err != nil {
		t.Fatalf("chat failure must not fail the join: %v", err)
	}
	if len(repo.putGroups) != 1 {
		t.Error("join must persist despite chat failure")
	}
}

func TestJoin_InvalidInput(t *testing.T) {
	svc, _, _ := joinFixture(domain.Group{ID: "g", IsPublic: true})
	if _, err := svc.Join(context.Background(), "", "me"); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing group id, got %v", err)
	}
	if _, err := svc.Join(context.Background(), "g", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing user id, got %v", err)
	}
}
