package groups

import (
	"time"

	"github.com/peerloop/peerloop/internal/domain"
)

// GroupCard is the common projection of a group in ranked results: a
// bounded member preview, the true member count, and the popularity flag.
type GroupCard struct {
	ID          string             `json:"_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Topics      []string           `json:"topics"`
	Avatar      string             `json:"avatar"`
	CoverImage  string             `json:"coverImage"`
	ChannelID   string             `json:"channelId"`
	Members     []domain.MemberRef `json:"members"`
	MemberCount int                `json:"memberCount"`
	CreatedAt   time.Time          `json:"createdAt"`
	IsPopular   bool               `json:"isPopular"`
}

func newCard(g domain.Group) GroupCard {
	return GroupCard{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Topics:      g.Topics,
		Avatar:      g.Avatar,
		CoverImage:  g.CoverImage,
		ChannelID:   g.ChannelID,
		Members:     g.MemberPreview(),
		MemberCount: len(g.Members),
		CreatedAt:   g.CreatedAt,
		IsPopular:   g.IsPopular(),
	}
}

// RecommendedGroup carries the interest/strength/needs component scores.
type RecommendedGroup struct {
	GroupCard
	InterestScore int     `json:"interestScore"`
	StrengthScore int     `json:"strengthScore"`
	NeedsScore    int     `json:"needsScore"`
	Score         float64 `json:"score"`
}

// TrendingGroup carries the stream-activity boost.
type TrendingGroup struct {
	GroupCard
	StreamActivityBoost int     `json:"streamActivityBoost"`
	Score               float64 `json:"score"`
}

// ForYouGroup carries the topic/skill/focus component scores.
type ForYouGroup struct {
	GroupCard
	TopicMatchCount int     `json:"topicMatchCount"`
	SkillLevelFit   int     `json:"skillLevelFit"`
	LearningFocus   int     `json:"learningFocus"`
	Score           float64 `json:"score"`
}

// SearchGroup carries the query-relevance component scores.
type SearchGroup struct {
	GroupCard
	NameMatch  int     `json:"nameMatch"`
	DescMatch  int     `json:"descMatch"`
	TopicMatch int     `json:"topicMatch"`
	Score      float64 `json:"score"`
}

// FriendGroup carries the friend-overlap count.
type FriendGroup struct {
	GroupCard
	FriendCount int `json:"friendCount"`
}
