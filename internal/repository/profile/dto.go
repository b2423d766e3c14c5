package profile

import (
	"encoding/json"
	"fmt"

	"github.com/peerloop/peerloop/internal/domain"
)

// projectDoc is the JSON-serializable representation of a listed project.
type projectDoc struct {
	Name         string   `json:"name"`
	Technologies []string `json:"technologies"`
}

// profileDoc is the JSON document stored per user.
type profileDoc struct {
	ID            string       `json:"_id"`
	Username      string       `json:"username"`
	Avatar        string       `json:"avatar"`
	Bio           string       `json:"bio"`
	Interests     []string     `json:"interests"`
	Strengths     []string     `json:"strengths"`
	NeedsHelpWith []string     `json:"needsHelpWith"`
	Friends       []string     `json:"friends"`
	SkillLevel    string       `json:"skillLevel"`
	Projects      []projectDoc `json:"projects"`
}

func toDoc(p domain.Profile) profileDoc {
	projects := make([]projectDoc, len(p.Projects))
	for i, proj := range p.Projects {
		projects[i] = projectDoc{Name: proj.Name, Technologies: proj.Technologies}
	}
	return profileDoc{
		ID:            p.ID,
		Username:      p.Username,
		Avatar:        p.Avatar,
		Bio:           p.Bio,
		Interests:     p.Interests,
		Strengths:     p.Strengths,
		NeedsHelpWith: p.NeedsHelpWith,
		Friends:       p.Friends,
		SkillLevel:    string(p.SkillLevel),
		Projects:      projects,
	}
}

func fromDoc(d profileDoc) domain.Profile {
	projects := make([]domain.Project, len(d.Projects))
	for i, proj := range d.Projects {
		projects[i] = domain.Project{Name: proj.Name, Technologies: proj.Technologies}
	}
	return domain.Profile{
		ID:            d.ID,
		Username:      d.Username,
		Avatar:        d.Avatar,
		Bio:           d.Bio,
		Interests:     d.Interests,
		Strengths:     d.Strengths,
		NeedsHelpWith: d.NeedsHelpWith,
		Friends:       d.Friends,
		SkillLevel:    domain.SkillLevel(d.SkillLevel),
		Projects:      projects,
	}
}

func unmarshalProfile(data []byte) (domain.Profile, error) {
	var doc profileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return fromDoc(doc), nil
}
