package exam

import (
	"sort"

	"github.com/prepdesk/exam-service/internal/parser"
)

// Verdict classifies one option in the review.
type Verdict string

const (
	VerdictMatchedCorrect  Verdict = "matched_correct"
	VerdictMissedCorrect   Verdict = "missed_correct"
	VerdictWronglySelected Verdict = "wrongly_selected"
	VerdictNeutral         Verdict = "neutral"
)

// OptionReview classifies a single option against the learner's selection.
type OptionReview struct {
	Letter  string  `json:"letter"`
	Text    string  `json:"text"`
	Verdict Verdict `json:"verdict"`
}

// QuestionReview is the per-question entry of the submission report.
type QuestionReview struct {
	QuestionID  int            `json:"question_id"`
	Text        string         `json:"text"`
	Selected    []string       `json:"selected"`
	Correct     []string       `json:"correct"`
	Earned      bool           `json:"earned"`
	Explanation string         `json:"explanation,omitempty"`
	Options     []OptionReview `json:"options"`
}

// Report is the outcome of a submitted attempt.
type Report struct {
	Score   int              `json:"score"`
	Total   int              `json:"total"`
	Reviews []QuestionReview `json:"reviews"`
}

// grade scores every question by exact set equality between the learner's
// selection and the answer key, order-insensitive. A question with an empty
// answer key (a bank defect the parser surfaces rather than hides) can never
// earn the point, even when the learner selected nothing.
func grade(questions []parser.Question, answers map[int]map[string]bool) *Report {
	report := &Report{
		Total:   len(questions),
		Reviews: make([]QuestionReview, 0, len(questions)),
	}
	for _, q := range questions {
		sel := answers[q.ID]
		earned := len(q.Correct) > 0 && setsEqual(sel, q.Correct)
		if earned {
			report.Score++
		}
		report.Reviews = append(report.Reviews, QuestionReview{
			QuestionID:  q.ID,
			Text:        q.Text,
			Selected:    sortedKeys(sel),
			Correct:     sortedCopy(q.Correct),
			Earned:      earned,
			Explanation: q.Explanation,
			Options:     reviewOptions(q, sel),
		})
	}
	return report
}

func reviewOptions(q parser.Question, sel map[string]bool) []OptionReview {
	reviews := make([]OptionReview, 0, len(q.Options))
	for _, opt := range q.Options {
		selected := sel[opt.Letter]
		correct := q.IsCorrect(opt.Letter)
		var v Verdict
		switch {
		case selected && correct:
			v = VerdictMatchedCorrect
		case !selected && correct:
			v = VerdictMissedCorrect
		case selected && !correct:
			v = VerdictWronglySelected
		default:
			v = VerdictNeutral
		}
		reviews = append(reviews, OptionReview{Letter: opt.Letter, Text: opt.Text, Verdict: v})
	}
	return reviews
}

func setsEqual(sel map[string]bool, correct []string) bool {
	if len(sel) != len(correct) {
		return false
	}
	for _, l := range correct {
		if !sel[l] {
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
