package domain

// KeyPrefix namespaces all storage keys written by this service.
const KeyPrefix = "peerloop:"

// SkillLevel is a user's or group's self-declared experience tier.
type SkillLevel string

// Skill levels.
const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillAll          SkillLevel = "all"
)

// Project is a user's listed project; only technologies feed ranking.
type Project struct {
	Name         string
	Technologies []string
}

// Profile is a read-only user snapshot consumed by the ranking engines.
// Engines never mutate it; missing slices carry empty-set semantics.
type Profile struct {
	ID            string
	Username      string
	Avatar        string
	Bio           string
	Interests     []string
	Strengths     []string
	NeedsHelpWith []string
	Friends       []string
	SkillLevel    SkillLevel
	Projects      []Project
}

// ProfileProjection is the public-safe subset exposed in ranked results.
type ProfileProjection struct {
	ID            string   `json:"_id"`
	Username      string   `json:"username"`
	Avatar        string   `json:"avatar"`
	Bio           string   `json:"bio"`
	Interests     []string `json:"interests"`
	Strengths     []string `json:"strengths"`
	NeedsHelpWith []string `json:"needsHelpWith"`
}

// Projection strips private fields (friend graph, projects) from the profile.
func (p Profile) Projection() ProfileProjection {
	return ProfileProjection{
		ID:            p.ID,
		Username:      p.Username,
		Avatar:        p.Avatar,
		Bio:           p.Bio,
		Interests:     p.Interests,
		Strengths:     p.Strengths,
		NeedsHelpWith: p.NeedsHelpWith,
	}
}

// ProjectTechnologies returns the union of technologies across the user's projects.
func (p Profile) ProjectTechnologies() []string {
	var techs []string
	for _, proj := range p.Projects {
		techs = append(techs, proj.Technologies...)
	}
	return techs
}
