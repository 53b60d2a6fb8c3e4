// Package matching scores job postings against an applicant profile. The
// scorer is pure: no I/O, no clock, same inputs always produce the same
// result.
package matching

import (
	"fmt"
	"strings"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/job"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/profile"
)

// Component weights. Components without data (no keywords configured, no
// salary advertised) are dropped and the remaining weights renormalized.
const (
	skillWeight    = 0.5
	keywordWeight  = 0.2
	locationWeight = 0.2
	salaryWeight   = 0.1
)

// Result is the outcome of scoring one posting against one profile.
type Result struct {
	// Score is in [0,1].
	Score float64
	// Accept is true when Score passes the threshold and no hard
	// constraint is violated.
	Accept bool
	// Reasons lists scoring observations in a fixed order.
	Reasons []string
	// SkillOverlap is the raw skill component, used as a tie-break when
	// two postings score equally.
	SkillOverlap float64
	// MatchedSkills lists the canonical skills shared by profile and
	// posting.
	MatchedSkills []string
}

type Matcher struct {
	threshold float64
}

func New(threshold float64) *Matcher {
	return &Matcher{threshold: threshold}
}

// Score evaluates the posting. Hard constraints (location, salary floor)
// force Accept to false regardless of the score.
func (m *Matcher) Score(p *profile.Profile, posting *job.Posting) *Result {
	result := &Result{}

	type component struct {
		score  float64
		weight float64
	}
	var components []component

	skillScore, matched, required := skillOverlap(p, posting)
	result.SkillOverlap = skillScore
	result.MatchedSkills = matched
	components = append(components, component{skillScore, skillWeight})
	if len(required) == 0 {
		result.Reasons = append(result.Reasons, "no recognizable skills in posting")
	} else {
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("skills matched %d of %d: %s", len(matched), len(required), strings.Join(matched, ", ")))
	}

	if len(p.Preferences.Keywords) > 0 {
		keywordScore, hits := keywordOverlap(p, posting)
		components = append(components, component{keywordScore, keywordWeight})
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("keywords matched %d of %d", hits, len(p.Preferences.Keywords)))
	}

	locationOK, locationScore, locationReason := locationCompatibility(p, posting)
	components = append(components, component{locationScore, locationWeight})
	result.Reasons = append(result.Reasons, locationReason)

	salaryOK, salaryScore, salaryReason := salaryCompatibility(p, posting)
	if salaryReason != "" {
		components = append(components, component{salaryScore, salaryWeight})
		result.Reasons = append(result.Reasons, salaryReason)
	}

	var weighted, total float64
	for _, c := range components {
		weighted += c.score * c.weight
		total += c.weight
	}
	if total > 0 {
		result.Score = weighted / total
	}

	result.Accept = locationOK && salaryOK && result.Score >= m.threshold
	if !locationOK {
		result.Reasons = append(result.Reasons, "rejected: location constraint violated")
	}
	if !salaryOK {
		result.Reasons = append(result.Reasons, "rejected: salary below floor")
	}

	return result
}

// skillOverlap returns the proficiency-weighted overlap between the skills a
// posting mentions and the profile's skill set, together with the matched
// and required canonical names.
func skillOverlap(p *profile.Profile, posting *job.Posting) (float64, []string, []string) {
	required := profile.ExtractSkills(posting.Title + " " + posting.Description)
	if len(required) == 0 {
		return 0, nil, nil
	}

	var sum float64
	var matched []string
	for _, skill := range required {
		if !p.HasSkill(skill) {
			continue
		}
		matched = append(matched, skill)
		sum += proficiencyWeight(p.SkillYears(skill))
	}

	return sum / float64(len(required)), matched, required
}

// proficiencyWeight maps years of experience into (0,1]. Having the skill
// at all is worth half; five or more years saturate the rest.
func proficiencyWeight(years float64) float64 {
	ratio := years / 5
	if ratio > 1 {
		ratio = 1
	}
	if ratio < 0 {
		ratio = 0
	}
	return 0.5 + 0.5*ratio
}

func keywordOverlap(p *profile.Profile, posting *job.Posting) (float64, int) {
	text := strings.ToLower(posting.Title + " " + posting.Description)

	hits := 0
	for _, kw := range p.Preferences.Keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}

	return float64(hits) / float64(len(p.Preferences.Keywords)), hits
}

func locationCompatibility(p *profile.Profile, posting *job.Posting) (bool, float64, string) {
	prefs := p.Preferences
	remote := posting.Remote || strings.EqualFold(strings.TrimSpace(posting.Location), "remote")

	if remote && prefs.RemoteOK {
		return true, 1, "location: remote-compatible"
	}

	if len(prefs.Locations) == 0 && !prefs.RemoteOK {
		return true, 1, "location: no preference"
	}

	location := strings.TrimSpace(posting.Location)
	if location == "" && !remote {
		return true, 0.5, "location: not disclosed"
	}

	for _, preferred := range prefs.Locations {
		if strings.EqualFold(location, preferred) {
			return true, 1, fmt.Sprintf("location: exact match %s", preferred)
		}
	}

	return false, 0, fmt.Sprintf("location: %s is outside preferences", posting.Location)
}

func salaryCompatibility(p *profile.Profile, posting *job.Posting) (bool, float64, string) {
	floor := p.Preferences.SalaryFloor
	if floor <= 0 || posting.Salary == nil {
		// No range on one of the sides: not a constraint and not a
		// scoring component.
		return true, 0, ""
	}

	upper := posting.Salary.To
	if upper == 0 {
		upper = posting.Salary.From
	}
	if upper == 0 {
		return true, 0, ""
	}

	if upper < floor {
		return false, 0, fmt.Sprintf("salary: %d below floor %d", upper, floor)
	}

	return true, 1, fmt.Sprintf("salary: %d meets floor %d", upper, floor)
}
