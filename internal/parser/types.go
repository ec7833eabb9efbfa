package parser

// Option is a single lettered choice within a question.
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Question is the normalized record emitted for each well-formed block.
// IDs are 1-based parse order; the exam engine reassigns them after shuffle.
type Question struct {
	ID          int      `json:"id"`
	Text        string   `json:"text"`
	Options     []Option `json:"options"`
	Correct     []string `json:"correct"` // option letters, declaration order, no duplicates
	Explanation string   `json:"explanation,omitempty"`
}

// HasOption reports whether letter names one of the question's options.
func (q Question) HasOption(letter string) bool {
	for _, opt := range q.Options {
		if opt.Letter == letter {
			return true
		}
	}
	return false
}

// IsCorrect reports whether letter is part of the answer key.
func (q Question) IsCorrect(letter string) bool {
	for _, c := range q.Correct {
		if c == letter {
			return true
		}
	}
	return false
}

// Options tunes parsing behavior.
type Options struct {
	// LooseLetterFallback enables the last-resort answer extraction that
	// collects any uppercase letters found in the annotation when no
	// structured letter list follows the correct-answer label. Lossy on
	// annotations whose prose contains stray capitals; disable for strict
	// validation of a bank.
	LooseLetterFallback bool
}

// DefaultOptions matches the historical behavior of the question banks.
func DefaultOptions() Options {
	return Options{LooseLetterFallback: true}
}

// Result is the outcome of parsing one document.
type Result struct {
	Questions     []Question
	SkippedBlocks int // blocks discarded for having no option bullets
}
