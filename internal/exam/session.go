// Package exam implements the timed exam state machine: loading and
// shuffling a question sequence, answer capture, countdown, scoring and
// review generation. Sessions are plain state objects driven by explicit
// commands; transport and rendering live elsewhere.
package exam

import (
	"math/rand"
	"sort"
	"time"

	"github.com/prepdesk/exam-service/internal/parser"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusInProgress Status = "in_progress"
	StatusSubmitted  Status = "submitted"
)

// Session holds the state of one exam attempt. It is not safe for concurrent
// use; the manager serializes commands onto it.
type Session struct {
	questions []parser.Question
	answers   map[int]map[string]bool // question id -> selected letters
	current   int
	duration  int // seconds, fixed per session
	remaining int
	status    Status
	report    *Report
	rng       *rand.Rand
}

// NewSession creates an empty Idle session with the given duration. A nil
// rng gets a time-seeded source; tests inject a fixed seed.
func NewSession(duration time.Duration, rng *rand.Rand) *Session {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	secs := int(duration / time.Second)
	return &Session{
		answers:   map[int]map[string]bool{},
		duration:  secs,
		remaining: secs,
		status:    StatusIdle,
		rng:       rng,
	}
}

// Load installs a question sequence. Valid from Idle or Submitted only. The
// sequence is shuffled with a uniform permutation and ids are reassigned to
// dense 1..N in the new order, since answer tracking keys on id. Answer state
// and cursor are reset; the session stays Idle (Start is a separate command).
func (s *Session) Load(questions []parser.Question) error {
	if s.status == StatusInProgress {
		return ErrExamActive
	}
	shuffled := make([]parser.Question, len(questions))
	copy(shuffled, questions)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for i := range shuffled {
		shuffled[i].ID = i + 1
	}
	s.questions = shuffled
	s.answers = map[int]map[string]bool{}
	s.current = 0
	s.remaining = s.duration
	s.status = StatusIdle
	s.report = nil
	return nil
}

// Start begins the attempt and arms the countdown. Requires a non-empty
// loaded sequence.
func (s *Session) Start() error {
	if s.status != StatusIdle {
		return ErrExamActive
	}
	if len(s.questions) == 0 {
		return ErrNotReady
	}
	s.remaining = s.duration
	s.status = StatusInProgress
	return nil
}

// SelectOption records a selection on the current question. Single-answer
// questions replace the prior mark; multi-answer questions toggle membership
// of the letter. Selections for non-current questions or unknown letters are
// rejected without mutating anything.
func (s *Session) SelectOption(questionID int, letter string) error {
	if s.status != StatusInProgress {
		return ErrNotInProgress
	}
	cur := s.questions[s.current]
	if questionID != cur.ID {
		return ErrNotCurrentQuestion
	}
	if !cur.HasOption(letter) {
		return ErrUnknownOption
	}

	if !IsMultiAnswer(cur) {
		s.answers[cur.ID] = map[string]bool{letter: true}
		return nil
	}

	sel := s.answers[cur.ID]
	if sel == nil {
		sel = map[string]bool{}
		s.answers[cur.ID] = sel
	}
	if sel[letter] {
		delete(sel, letter)
	} else {
		sel[letter] = true
	}
	return nil
}

// Goto moves the cursor. Pure navigation; answers are untouched.
func (s *Session) Goto(index int) error {
	if s.status != StatusInProgress {
		return ErrNotInProgress
	}
	if index < 0 || index >= len(s.questions) {
		return ErrOutOfRange
	}
	s.current = index
	return nil
}

// Tick advances the countdown by one second. Reaching zero forces submission
// exactly as if Submit were called. Ticks outside InProgress are ignored so a
// straggling timer fire after submission is harmless.
func (s *Session) Tick() (submitted bool) {
	if s.status != StatusInProgress {
		return false
	}
	s.remaining--
	if s.remaining > 0 {
		return false
	}
	s.remaining = 0
	s.finalize()
	return true
}

// Submit ends the attempt, scores every question and produces the review.
func (s *Session) Submit() (*Report, error) {
	if s.status != StatusInProgress {
		return nil, ErrNotInProgress
	}
	s.finalize()
	return s.report, nil
}

func (s *Session) finalize() {
	s.report = grade(s.questions, s.answers)
	s.status = StatusSubmitted
}

// Restart returns to Idle with the countdown re-armed and all answer state
// cleared. The loaded sequence is reused as-is; callers wanting a fresh
// shuffle call Load again.
func (s *Session) Restart() error {
	if s.status == StatusIdle {
		return ErrNotStarted
	}
	s.answers = map[int]map[string]bool{}
	s.current = 0
	s.remaining = s.duration
	s.status = StatusIdle
	s.report = nil
	return nil
}

// Status returns the lifecycle state.
func (s *Session) Status() Status { return s.status }

// Questions returns the loaded sequence in session order.
func (s *Session) Questions() []parser.Question { return s.questions }

// CurrentIndex returns the cursor position.
func (s *Session) CurrentIndex() int { return s.current }

// Remaining returns the countdown in seconds.
func (s *Session) Remaining() int { return s.remaining }

// Report returns the scoring result, or nil before submission.
func (s *Session) Report() *Report { return s.report }

// Selected returns the sorted letters currently marked for a question.
// Missing entries mean the question is unanswered.
func (s *Session) Selected(questionID int) []string {
	sel := s.answers[questionID]
	if len(sel) == 0 {
		return nil
	}
	letters := make([]string, 0, len(sel))
	for l := range sel {
		letters = append(letters, l)
	}
	sort.Strings(letters)
	return letters
}
