package groups

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peerloop/peerloop/internal/domain"
	"github.com/peerloop/peerloop/internal/metrics"
)

// Strategy weights and result limits. Weights mix counts and flat boosts
// on purpose; they are tuned as-is.
const (
	strengthWeight = 0.8
	needsWeight    = 1.2

	streamBoost   = 10
	skillFitBonus = 3
	learningBonus = 2

	nameMatchScore   = 3
	descMatchScore   = 1
	topicMatchWeight = 2

	recommendedLimit = 20
	trendingLimit    = 12
	forYouLimit      = 12
	searchLimit      = 20
	withFriendsLimit = 12
)

// Service ranks group candidates for the discovery feed and handles joins.
type Service struct {
	groups   Repository
	profiles ProfileReader
	chat     ChatService
	logger   *zap.Logger
}

// New creates a group discovery service.
func New(groups Repository, profiles ProfileReader, chat ChatService, logger *zap.Logger) *Service {
	return &Service{groups: groups, profiles: profiles, chat: chat, logger: logger}
}

// Recommended ranks public groups the user is not in by topic overlap with
// the user's interests, strengths, and needs.
func (s *Service) Recommended(ctx context.Context, userID string) ([]RecommendedGroup, error) {
	user, pool, err := s.userAndPool(ctx, userID)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	results := make([]RecommendedGroup, 0, len(pool))
	for _, g := range pool {
		if g.HasMember(userID) {
			continue
		}
		interestScore := domain.IntersectCountFold(g.Topics, user.Interests)
		strengthScore := domain.IntersectCountFold(g.Topics, user.Strengths)
		needsScore := domain.IntersectCountFold(g.Topics, user.NeedsHelpWith)

		results = append(results, RecommendedGroup{
			GroupCard:     newCard(g),
			InterestScore: interestScore,
			StrengthScore: strengthScore,
			NeedsScore:    needsScore,
			Score: float64(interestScore) +
				strengthWeight*float64(strengthScore) +
				needsWeight*float64(needsScore),
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	results = truncate(results, recommendedLimit)

	metrics.ObserveRanking("recommended", time.Since(start).Seconds(), len(results))
	return results, nil
}

// Trending ranks public groups by member count plus a flat boost for groups
// whose chat channel is currently active. Groups the user already belongs
// to only qualify while active.
func (s *Service) Trending(ctx context.Context, userID string) ([]TrendingGroup, error) {
	_, pool, err := s.userAndPool(ctx, userID)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	active, err := s.chat.ActiveChannels(ctx)
	if err != nil {
		// Scoring-path failure: rank without the activity signal.
		s.logger.Warn("Active channel fetch failed, trending without boost", zap.Error(err))
		active = nil
	}

	results := make([]TrendingGroup, 0, len(pool))
	for _, g := range pool {
		_, isActive := active[g.ChannelID]
		if !isActive && g.HasMember(userID) {
			continue
		}
		boost := 0
		if isActive {
			boost = streamBoost
		}
		results = append(results, TrendingGroup{
			GroupCard:           newCard(g),
			StreamActivityBoost: boost,
			Score:               float64(len(g.Members) + boost),
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	results = truncate(results, trendingLimit)

	metrics.ObserveRanking("trending", time.Since(start).Seconds(), len(results))
	return results, nil
}

// ForYou ranks public groups the user is not in by overlap between group
// topics and what the user wants to learn (needs plus project tech).
// Groups with no topic overlap are excluded outright.
func (s *Service) ForYou(ctx context.Context, userID string) ([]ForYouGroup, error) {
	user, pool, err := s.userAndPool(ctx, userID)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	wanted := domain.UnionFold(user.NeedsHelpWith, user.ProjectTechnologies())

	results := make([]ForYouGroup, 0, len(pool))
	for _, g := range pool {
		if g.HasMember(userID) {
			continue
		}
		topicMatches := domain.IntersectCountFold(g.Topics, wanted)
		if topicMatches == 0 {
			continue // hard filter, not a scoring term
		}
		skillFit := 0
		if g.SkillLevel == user.SkillLevel {
			skillFit = skillFitBonus
		}
		focus := 0
		if g.GroupType == domain.GroupLearning {
			focus = learningBonus
		}
		results = append(results, ForYouGroup{
			GroupCard:       newCard(g),
			TopicMatchCount: topicMatches,
			SkillLevelFit:   skillFit,
			LearningFocus:   focus,
			Score:           float64(topicMatches + skillFit + focus),
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	results = truncate(results, forYouLimit)

	metrics.ObserveRanking("for_you", time.Since(start).Seconds(), len(results))
	return results, nil
}

// Search ranks public groups by case-insensitive substring relevance of the
// query against name, description, and topics.
func (s *Service) Search(ctx context.Context, query string) ([]SearchGroup, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, fmt.Errorf("%w: search query is required", domain.ErrInvalidInput)
	}

	pool, err := s.groups.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	start := time.Now()

	results := make([]SearchGroup, 0, len(pool))
	for _, g := range pool {
		nameMatch := 0
		if strings.Contains(strings.ToLower(g.Name), q) {
			nameMatch = nameMatchScore
		}
		descMatch := 0
		if strings.Contains(strings.ToLower(g.Description), q) {
			descMatch = descMatchScore
		}
		topicMatch := 0
		for _, topic := range g.Topics {
			if strings.Contains(strings.ToLower(topic), q) {
				topicMatch++
			}
		}
		if nameMatch == 0 && descMatch == 0 && topicMatch == 0 {
			continue
		}
		results = append(results, SearchGroup{
			GroupCard:  newCard(g),
			NameMatch:  nameMatch,
			DescMatch:  descMatch,
			TopicMatch: topicMatch,
			Score:      float64(nameMatch + descMatch + topicMatchWeight*topicMatch),
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	results = truncate(results, searchLimit)

	metrics.ObserveRanking("search", time.Since(start).Seconds(), len(results))
	return results, nil
}

// WithFriends ranks public groups the user is not in by how many of the
// user's friends they contain. A user with no friends gets an empty list
// without a pool query.
func (s *Service) WithFriends(ctx context.Context, userID string) ([]FriendGroup, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	user, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if len(user.Friends) == 0 {
		return []FriendGroup{}, nil
	}

	pool, err := s.groups.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	start := time.Now()

	results := make([]FriendGroup, 0, len(pool))
	for _, g := range pool {
		if g.HasMember(userID) {
			continue
		}
		friendCount := domain.IntersectIDCount(g.MemberIDs(), user.Friends)
		if friendCount == 0 {
			continue
		}
		results = append(results, FriendGroup{
			GroupCard:   newCard(g),
			FriendCount: friendCount,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].FriendCount > results[j].FriendCount })
	results = truncate(results, withFriendsLimit)

	metrics.ObserveRanking("with_friends", time.Since(start).Seconds(), len(results))
	return results, nil
}

// Join adds the user to a group. Business-rule rejections (duplicate,
// private without invite, full) propagate unchanged; the chat membership
// update is best-effort.
func (s *Service) Join(ctx context.Context, groupID, userID string) (GroupCard, error) {
	if groupID == "" {
		return GroupCard{}, fmt.Errorf("%w: group id is required", domain.ErrInvalidInput)
	}
	if userID == "" {
		return GroupCard{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}

	g, err := s.groups.Get(ctx, groupID)
	if err != nil {
		return GroupCard{}, fmt.Errorf("get group: %w", err)
	}

	if g.HasMember(userID) {
		return GroupCard{}, fmt.Errorf("group %s: %w", groupID, domain.ErrDuplicateMember)
	}
	if !g.IsPublic && !g.HasInvite(userID) {
		return GroupCard{}, fmt.Errorf("group %s: %w", groupID, domain.ErrPrivateGroupForbidden)
	}
	if g.MaxMembers > 0 && len(g.Members) >= g.MaxMembers {
		return GroupCard{}, fmt.Errorf("group %s: %w", groupID, domain.NewCapacityExceeded(g.MaxMembers))
	}

	user, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return GroupCard{}, fmt.Errorf("get profile: %w", err)
	}

	g.Members = append(g.Members, domain.MemberRef{
		ID:       user.ID,
		Username: user.Username,
		Avatar:   user.Avatar,
	})
	g.Invites = domain.RemoveID(g.Invites, userID)

	if err := s.groups.Put(ctx, g); err != nil {
		return GroupCard{}, fmt.Errorf("persist join: %w", err)
	}

	if err := s.chat.AddMember(ctx, g.ChannelID, userID); err != nil {
		s.logger.Warn("Chat membership update failed",
			zap.String("group", groupID),
			zap.String("channel", g.ChannelID),
			zap.String("user", userID),
			zap.Error(err),
		)
	}

	return newCard(g), nil
}

func (s *Service) userAndPool(ctx context.Context, userID string) (domain.Profile, []domain.Group, error) {
	if userID == "" {
		return domain.Profile{}, nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	user, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return domain.Profile{}, nil, fmt.Errorf("get profile: %w", err)
	}
	pool, err := s.groups.ListPublic(ctx)
	if err != nil {
		return domain.Profile{}, nil, fmt.Errorf("list groups: %w", err)
	}
	return user, pool, nil
}

func truncate[T any](in []T, limit int) []T {
	if len(in) > limit {
		return in[:limit]
	}
	return in
}
