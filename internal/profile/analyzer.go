package profile

import (
	"fmt"
	"strings"
)

// ParseError reports a raw profile that cannot be analyzed.
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("profile parse error: %s: %s", e.Field, e.Reason)
}

// Analyze converts a raw profile into a normalized Profile. It is
// deterministic and has no side effects. A profile without a name, or with
// neither skills nor experience, fails with ParseError.
func Analyze(raw *Raw) (*Profile, error) {
	if raw == nil {
		return nil, &ParseError{Field: "profile", Reason: "profile is required"}
	}
	if strings.TrimSpace(raw.Name) == "" {
		return nil, &ParseError{Field: "name", Reason: "name is required"}
	}
	if len(raw.Skills) == 0 && len(raw.Experience) == 0 {
		return nil, &ParseError{Field: "skills", Reason: "at least one skill or experience entry is required"}
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = "default"
	}

	skills := make(map[string]Skill)
	addSkill := func(name string, years float64) {
		canonical := NormalizeSkill(name)
		if canonical == "" {
			return
		}
		if existing, ok := skills[canonical]; ok && existing.Years >= years {
			return
		}
		skills[canonical] = Skill{Name: canonical, Years: years}
	}

	for name, years := range raw.Skills {
		addSkill(name, years)
	}

	experience := make([]Experience, 0, len(raw.Experience))
	for _, entry := range raw.Experience {
		normalized := Experience{
			Company: strings.TrimSpace(entry.Company),
			Title:   strings.TrimSpace(entry.Title),
			Years:   entry.Years,
		}
		for _, skill := range entry.Skills {
			canonical := NormalizeSkill(skill)
			if canonical == "" {
				continue
			}
			normalized.Skills = append(normalized.Skills, canonical)
			addSkill(skill, entry.Years)
		}
		experience = append(experience, normalized)
	}

	// Resume mentions count as skills the applicant at least touched.
	for _, canonical := range ExtractSkills(raw.ResumeText) {
		addSkill(canonical, 1)
	}

	prefs := Preferences{
		SalaryFloor: raw.SalaryFloor,
		Keywords:    normalizeKeywords(raw.Keywords),
	}
	for _, loc := range raw.Locations {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		if strings.EqualFold(loc, "remote") {
			prefs.RemoteOK = true
			continue
		}
		prefs.Locations = append(prefs.Locations, loc)
	}

	return &Profile{
		ID:          id,
		Name:        strings.TrimSpace(raw.Name),
		Skills:      skills,
		Experience:  experience,
		Preferences: prefs,
	}, nil
}

func normalizeKeywords(keywords []string) []string {
	normalized := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			normalized = append(normalized, kw)
		}
	}
	return normalized
}
