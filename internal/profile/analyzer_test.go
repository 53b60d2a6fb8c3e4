package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeNormalizesSkills(t *testing.T) {
	raw := &Raw{
		ID:   "me",
		Name: "Jane Doe",
		Skills: map[string]float64{
			"golang": 3,
			"py":     5,
		},
		Experience: []RawExperience{
			{Company: "Acme", Title: "Backend Engineer", Years: 4, Skills: []string{"k8s", "golang"}},
		},
		Locations:   []string{"Remote", "Berlin"},
		SalaryFloor: 90000,
		Keywords:    []string{" Backend ", "platform"},
	}

	p, err := Analyze(raw)
	require.NoError(t, err)

	assert.Equal(t, "me", p.ID)
	assert.True(t, p.HasSkill("Go"))
	assert.True(t, p.HasSkill("Python"))
	assert.True(t, p.HasSkill("Kubernetes"))

	// Experience years win over the structured skill entry when higher.
	assert.Equal(t, 4.0, p.SkillYears("Go"))
	assert.Equal(t, 5.0, p.SkillYears("Python"))

	assert.True(t, p.Preferences.RemoteOK)
	assert.Equal(t, []string{"Berlin"}, p.Preferences.Locations)
	assert.Equal(t, []string{"backend", "platform"}, p.Preferences.Keywords)
}

func TestAnalyzeDerivesSkillsFromResumeText(t *testing.T) {
	raw := &Raw{
		Name:       "Jane Doe",
		Skills:     map[string]float64{"go": 2},
		ResumeText: "Built services with PostgreSQL and Terraform on AWS.",
	}

	p, err := Analyze(raw)
	require.NoError(t, err)

	assert.True(t, p.HasSkill("PostgreSQL"))
	assert.True(t, p.HasSkill("Terraform"))
	assert.True(t, p.HasSkill("AWS"))
	assert.Equal(t, 1.0, p.SkillYears("Terraform"))
}

func TestAnalyzeIsDeterministic(t *testing.T) {
	raw := &Raw{
		Name:       "Jane Doe",
		Skills:     map[string]float64{"golang": 3, "js": 2, "k8s": 1},
		ResumeText: "Go, Kubernetes, Docker",
	}

	first, err := Analyze(raw)
	require.NoError(t, err)
	second, err := Analyze(raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAnalyzeRejectsIncompleteProfiles(t *testing.T) {
	cases := []struct {
		name string
		raw  *Raw
	}{
		{name: "nil", raw: nil},
		{name: "missing name", raw: &Raw{Skills: map[string]float64{"go": 1}}},
		{name: "no skills or experience", raw: &Raw{Name: "Jane"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Analyze(tc.raw)
			var parseErr *ParseError
			require.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestNormalizeSkill(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"golang", "Go"},
		{"JS", "JavaScript"},
		{"python3", "Python"},
		{"  k8s ", "Kubernetes"},
		{"rust", "Rust"},
		{"GraphQL", "GraphQL"},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.expected, NormalizeSkill(tc.input), "input %q", tc.input)
	}
}

func TestExtractSkillsUsesWordBoundaries(t *testing.T) {
	skills := ExtractSkills("We use MongoDB and Django, not Go.")
	assert.Contains(t, skills, "Go")

	skills = ExtractSkills("We use MongoDB and Django.")
	assert.NotContains(t, skills, "Go")
}
