package profile

import (
	"sort"
	"strings"
)

// skillNormalizations maps common skill name variants to canonical names.
// JobMatcher compares postings against this vocabulary, so normalization
// lives here and nowhere else.
var skillNormalizations = map[string]string{
	"go":               "Go",
	"golang":           "Go",
	"go lang":          "Go",
	"javascript":       "JavaScript",
	"js":               "JavaScript",
	"typescript":       "TypeScript",
	"ts":               "TypeScript",
	"py":               "Python",
	"python":           "Python",
	"python3":          "Python",
	"k8s":              "Kubernetes",
	"kubernetes":       "Kubernetes",
	"postgres":         "PostgreSQL",
	"postgresql":       "PostgreSQL",
	"react.js":         "React",
	"reactjs":          "React",
	"node.js":          "Node.js",
	"nodejs":           "Node.js",
	"aws":              "AWS",
	"gcp":              "GCP",
	"sql":              "SQL",
	"ci/cd":            "CI/CD",
	"terraform":        "Terraform",
	"docker":           "Docker",
	"java":             "Java",
	"c++":              "C++",
	"c#":               "C#",
	"rust":             "Rust",
	"ruby":             "Ruby",
	"machine learning": "Machine Learning",
	"ml":               "Machine Learning",
}

// NormalizeSkill returns the canonical form of a free-text skill mention.
func NormalizeSkill(name string) string {
	normalized := strings.TrimSpace(name)
	if normalized == "" {
		return ""
	}

	lower := strings.ToLower(normalized)
	if canonical, ok := skillNormalizations[lower]; ok {
		return canonical
	}

	// Single all-lowercase or all-uppercase words get first-letter
	// capitalization; anything with mixed case is kept as written.
	if !strings.Contains(normalized, " ") {
		if normalized == strings.ToLower(normalized) || (normalized == strings.ToUpper(normalized) && len(normalized) > 3) {
			return strings.ToUpper(normalized[:1]) + strings.ToLower(normalized[1:])
		}
	}

	return normalized
}

// ExtractSkills scans free text for known vocabulary terms and returns the
// canonical names found, sorted and deduplicated. The scan is a plain
// case-insensitive containment check over the vocabulary, which keeps it
// deterministic.
func ExtractSkills(text string) []string {
	lower := strings.ToLower(text)

	found := make(map[string]bool)
	for variant, canonical := range skillNormalizations {
		if containsTerm(lower, variant) {
			found[canonical] = true
		}
	}

	skills := make([]string, 0, len(found))
	for name := range found {
		skills = append(skills, name)
	}
	sort.Strings(skills)

	return skills
}

// containsTerm reports whether term occurs in text on a word boundary.
// Substring matching alone turns "go" into a match for "mongodb".
func containsTerm(text, term string) bool {
	idx := 0
	for {
		pos := strings.Index(text[idx:], term)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(term)

		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}

		idx = start + 1
		if idx >= len(text) {
			return false
		}
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '+' || c == '#'
}
