package group

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/peerloop/peerloop/internal/domain"
)

// memberDoc is the denormalized member reference stored on the group document.
type memberDoc struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// groupDoc is the JSON document stored per group.
type groupDoc struct {
	ID          string      `json:"_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Topics      []string    `json:"topics"`
	Members     []memberDoc `json:"members"`
	Invites     []string    `json:"invites"`
	IsPublic    bool        `json:"isPublic"`
	SkillLevel  string      `json:"skillLevel"`
	GroupType   string      `json:"groupType"`
	ChannelID   string      `json:"channelId"`
	Avatar      string      `json:"avatar"`
	CoverImage  string      `json:"coverImage"`
	MaxMembers  int         `json:"maxMembers"`
	CreatedAt   int64       `json:"createdAt"` // unix millis
}

func toDoc(g domain.Group) groupDoc {
	members := make([]memberDoc, len(g.Members))
	for i, m := range g.Members {
		members[i] = memberDoc{ID: m.ID, Username: m.Username, Avatar: m.Avatar}
	}
	return groupDoc{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Topics:      g.Topics,
		Members:     members,
		Invites:     g.Invites,
		IsPublic:    g.IsPublic,
		SkillLevel:  string(g.SkillLevel),
		GroupType:   string(g.GroupType),
		ChannelID:   g.ChannelID,
		Avatar:      g.Avatar,
		CoverImage:  g.CoverImage,
		MaxMembers:  g.MaxMembers,
		CreatedAt:   g.CreatedAt.UnixMilli(),
	}
}

func fromDoc(d groupDoc) domain.Group {
	members := make([]domain.MemberRef, len(d.Members))
	for i, m := range d.Members {
		members[i] = domain.MemberRef{ID: m.ID, Username: m.Username, Avatar: m.Avatar}
	}
	return domain.Group{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Topics:      d.Topics,
		Members:     members,
		Invites:     d.Invites,
		IsPublic:    d.IsPublic,
		SkillLevel:  domain.SkillLevel(d.SkillLevel),
		GroupType:   domain.GroupType(d.GroupType),
		ChannelID:   d.ChannelID,
		Avatar:      d.Avatar,
		CoverImage:  d.CoverImage,
		MaxMembers:  d.MaxMembers,
		CreatedAt:   time.UnixMilli(d.CreatedAt).UTC(),
	}
}

func unmarshalGroup(data []byte) (domain.Group, error) {
	var doc groupDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Group{}, fmt.Errorf("unmarshal group: %w", err)
	}
	return fromDoc(doc), nil
}
