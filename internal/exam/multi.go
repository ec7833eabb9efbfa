package exam

import (
	"strings"
	"unicode"

	"github.com/prepdesk/exam-service/internal/parser"
)

// IsMultiAnswer reports whether a question requires selecting more than one
// option for credit. Shared by selection handling and scoring so the two can
// never drift: a question is multi-answer when its answer key holds more than
// one letter, or its prompt carries a multi-select cue ("choose <word>",
// "select <word>", the literal tokens TWO/THREE, or the word "multiple").
func IsMultiAnswer(q parser.Question) bool {
	if len(q.Correct) > 1 {
		return true
	}
	return hasMultiCue(q.Text)
}

func hasMultiCue(prompt string) bool {
	lower := strings.ToLower(prompt)
	if strings.Contains(lower, "multiple") {
		return true
	}
	if cueFollowedByWord(lower, "choose") || cueFollowedByWord(lower, "select") {
		return true
	}
	for _, tok := range strings.FieldsFunc(prompt, func(r rune) bool {
		return !unicode.IsLetter(r)
	}) {
		if tok == "TWO" || tok == "THREE" {
			return true
		}
	}
	return false
}

// cueFollowedByWord matches cue as a whole word followed by another word,
// e.g. "choose two" but not "choosey" or a trailing bare "choose".
func cueFollowedByWord(lower, cue string) bool {
	for from := 0; ; {
		idx := strings.Index(lower[from:], cue)
		if idx < 0 {
			return false
		}
		idx += from
		from = idx + 1

		if idx > 0 && isWordChar(lower[idx-1]) {
			continue
		}
		rest := lower[idx+len(cue):]
		if rest == "" || isWordChar(rest[0]) {
			continue // "chooses", "selection"
		}
		rest = strings.TrimLeft(rest, " \t")
		if rest != "" && isWordChar(rest[0]) {
			return true
		}
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}
