package domain

import "time"

// GroupType categorizes what a group is for.
type GroupType string

// Group types.
const (
	GroupLearning   GroupType = "learning"
	GroupProject    GroupType = "project"
	GroupNetworking GroupType = "networking"
	GroupGeneral    GroupType = "general"
)

// PopularMemberCount is the member count at which a group is flagged popular.
const PopularMemberCount = 10

// MemberPreviewLimit bounds the member list embedded in ranked projections.
const MemberPreviewLimit = 10

// MemberRef is a denormalized member reference stored on the group record.
type MemberRef struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Group is a read-only group snapshot consumed by the ranking engine.
// ChannelID is the opaque key of the group's channel in the external chat
// service.
type Group struct {
	ID          string
	Name        string
	Description string
	Topics      []string
	Members     []MemberRef
	Invites     []string
	IsPublic    bool
	SkillLevel  SkillLevel
	GroupType   GroupType
	ChannelID   string
	Avatar      string
	CoverImage  string
	MaxMembers  int
	CreatedAt   time.Time
}

// MemberIDs returns the member identifier set.
func (g Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}

// HasMember reports whether userID is a member.
func (g Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}

// HasInvite reports whether userID holds an invite.
func (g Group) HasInvite(userID string) bool {
	return ContainsID(g.Invites, userID)
}

// IsPopular reports whether the group crosses the popularity threshold.
func (g Group) IsPopular() bool {
	return len(g.Members) >= PopularMemberCount
}

// MemberPreview returns at most MemberPreviewLimit member references.
func (g Group) MemberPreview() []MemberRef {
	if len(g.Members) <= MemberPreviewLimit {
		return g.Members
	}
	return g.Members[:MemberPreviewLimit]
}
