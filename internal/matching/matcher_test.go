package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kiranreddymk90/ai-job-application-agent/internal/job"
	"github.com/Kiranreddymk90/ai-job-application-agent/internal/profile"
)

func remotePythonProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p, err := profile.Analyze(&profile.Raw{
		ID:        "me",
		Name:      "Jane Doe",
		Skills:    map[string]float64{"python": 3},
		Locations: []string{"Remote"},
	})
	require.NoError(t, err)
	return p
}

func TestScoreAcceptsRemotePythonPosting(t *testing.T) {
	matcher := New(0.5)
	posting := &job.Posting{
		PlatformID:  "board",
		ExternalID:  "1",
		Title:       "Python Engineer",
		Description: "We need Python, 2 years minimum.",
		Remote:      true,
	}

	result := matcher.Score(remotePythonProfile(t), posting)

	assert.True(t, result.Accept)
	assert.GreaterOrEqual(t, result.Score, 0.5)
	assert.Equal(t, []string{"Python"}, result.MatchedSkills)
	assert.NotEmpty(t, result.Reasons)
}

func TestScoreRejectsOnSiteRegardlessOfSkills(t *testing.T) {
	matcher := New(0.1)
	posting := &job.Posting{
		PlatformID:  "board",
		ExternalID:  "2",
		Title:       "Python Engineer",
		Description: "Python expert wanted.",
		Location:    "Dallas",
	}

	result := matcher.Score(remotePythonProfile(t), posting)

	assert.False(t, result.Accept)
	assert.Contains(t, result.Reasons, "rejected: location constraint violated")
}

func TestScoreRejectsSalaryBelowFloor(t *testing.T) {
	p, err := profile.Analyze(&profile.Raw{
		Name:        "Jane Doe",
		Skills:      map[string]float64{"go": 5},
		Locations:   []string{"Remote"},
		SalaryFloor: 120000,
	})
	require.NoError(t, err)

	matcher := New(0.1)
	posting := &job.Posting{
		Title:       "Go Engineer",
		Description: "Go services.",
		Remote:      true,
		Salary:      &job.Salary{From: 70000, To: 90000, Currency: "USD"},
	}

	result := matcher.Score(p, posting)

	assert.False(t, result.Accept)
	assert.Contains(t, result.Reasons, "rejected: salary below floor")
}

func TestScoreIsDeterministic(t *testing.T) {
	matcher := New(0.5)
	p := remotePythonProfile(t)
	posting := &job.Posting{
		Title:       "Senior Python Developer",
		Description: "Python and PostgreSQL, remote friendly.",
		Remote:      true,
	}

	first := matcher.Score(p, posting)
	second := matcher.Score(p, posting)

	assert.Equal(t, first, second)
}

func TestScoreHigherProficiencyWinsTies(t *testing.T) {
	strong, err := profile.Analyze(&profile.Raw{
		Name:      "Jane Doe",
		Skills:    map[string]float64{"python": 5},
		Locations: []string{"Remote"},
	})
	require.NoError(t, err)

	weak, err := profile.Analyze(&profile.Raw{
		Name:      "Jane Doe",
		Skills:    map[string]float64{"python": 1},
		Locations: []string{"Remote"},
	})
	require.NoError(t, err)

	matcher := New(0.5)
	posting := &job.Posting{
		Title:       "Python Engineer",
		Description: "Python role.",
		Remote:      true,
	}

	assert.Greater(t,
		matcher.Score(strong, posting).SkillOverlap,
		matcher.Score(weak, posting).SkillOverlap,
	)
}
