package qa

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DetectQuestions extracts application questions from a form blob. HTML
// forms are parsed structurally; anything else falls back to line
// heuristics. Detection is deterministic: identical input yields the same
// ordered sequence.
func DetectQuestions(formText string) []Question {
	trimmed := strings.TrimSpace(formText)
	if trimmed == "" {
		return nil
	}

	if strings.Contains(trimmed, "<") && strings.Contains(trimmed, ">") {
		if questions := detectHTML(trimmed); len(questions) > 0 {
			return questions
		}
	}

	return detectPlainText(trimmed)
}

func detectHTML(form string) []Question {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(form))
	if err != nil {
		return nil
	}

	var questions []Question
	doc.Find("label").Each(func(_ int, label *goquery.Selection) {
		text := cleanQuestionText(label.Text())
		if text == "" {
			return
		}

		q := Question{Text: text, Ordinal: len(questions)}

		// A select tied to the label constrains the answer domain.
		var sel *goquery.Selection
		if forID, ok := label.Attr("for"); ok && forID != "" {
			sel = doc.Find("select[id=" + forID + "]")
		}
		if sel == nil || sel.Length() == 0 {
			sel = label.NextFiltered("select")
		}
		if sel != nil && sel.Length() > 0 {
			sel.First().Find("option").Each(func(_ int, opt *goquery.Selection) {
				choice := strings.TrimSpace(opt.Text())
				if choice != "" && !strings.EqualFold(choice, "select...") {
					q.Choices = append(q.Choices, choice)
				}
			})
		}

		questions = append(questions, q)
	})

	return questions
}

func detectPlainText(form string) []Question {
	lines := strings.Split(form, "\n")

	var questions []Question
	for i := 0; i < len(lines); i++ {
		text := cleanQuestionText(lines[i])
		if text == "" || !looksLikeQuestion(text) {
			continue
		}

		q := Question{Text: text, Ordinal: len(questions)}

		// Bulleted lines directly below a question enumerate its choices.
		for j := i + 1; j < len(lines); j++ {
			choice, ok := choiceLine(lines[j])
			if !ok {
				break
			}
			q.Choices = append(q.Choices, choice)
			i = j
		}

		questions = append(questions, q)
	}

	return questions
}

func looksLikeQuestion(text string) bool {
	if strings.HasSuffix(text, "?") {
		return true
	}
	lower := strings.ToLower(text)
	return strings.HasPrefix(lower, "question") || strings.HasPrefix(lower, "q:")
}

// cleanQuestionText strips enumeration prefixes and required markers.
func cleanQuestionText(line string) string {
	text := strings.TrimSpace(line)
	text = strings.TrimLeft(text, "0123456789")
	text = strings.TrimLeft(text, ".) ")
	text = strings.TrimSuffix(text, "*")
	return strings.TrimSpace(text)
}

func choiceLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	for _, marker := range []string{"- ", "* ", "[ ] ", "( ) "} {
		if strings.HasPrefix(trimmed, marker) {
			choice := strings.TrimSpace(strings.TrimPrefix(trimmed, marker))
			return choice, choice != ""
		}
	}
	return "", false
}
