package profile

// Raw is the applicant profile as configured or loaded from disk, before
// analysis.
type Raw struct {
	ID         string             `mapstructure:"id"`
	Name       string             `mapstructure:"name"`
	ResumeText string             `mapstructure:"resume-text"`
	// Skills maps free-text skill names to years of experience.
	Skills      map[string]float64 `mapstructure:"skills"`
	Experience  []RawExperience    `mapstructure:"experience"`
	Locations   []string           `mapstructure:"locations"`
	SalaryFloor int                `mapstructure:"salary-floor"`
	Keywords    []string           `mapstructure:"keywords"`
}

type RawExperience struct {
	Company string   `mapstructure:"company"`
	Title   string   `mapstructure:"title"`
	Years   float64  `mapstructure:"years"`
	Skills  []string `mapstructure:"skills"`
}

// Skill is one entry of the derived, canonical skill set.
type Skill struct {
	Name  string
	Years float64
}

// Experience is a normalized work history entry. Order follows the raw
// profile.
type Experience struct {
	Company string
	Title   string
	Years   float64
	Skills  []string
}

// Preferences are the applicant's hard and soft matching constraints.
type Preferences struct {
	Locations   []string
	RemoteOK    bool
	SalaryFloor int
	Keywords    []string
}

// Profile is the analyzed applicant profile. It is immutable for the
// duration of a run; a changed raw profile requires re-analysis.
type Profile struct {
	ID          string
	Name        string
	Skills      map[string]Skill
	Experience  []Experience
	Preferences Preferences
}

// SkillYears returns the years of experience for a canonical skill name,
// zero when the profile does not carry it.
func (p *Profile) SkillYears(canonical string) float64 {
	if s, ok := p.Skills[canonical]; ok {
		return s.Years
	}
	return 0
}

// HasSkill reports whether the profile carries the canonical skill.
func (p *Profile) HasSkill(canonical string) bool {
	_, ok := p.Skills[canonical]
	return ok
}
