package exam

import "errors"

// Command errors surfaced to callers. None of these leave the session in a
// partially mutated state: a rejected command is a no-op.
var (
	// ErrNotReady rejects Start on a session with no loaded questions.
	ErrNotReady = errors.New("exam: no questions loaded")

	// ErrExamActive rejects Load or Start while an attempt is in progress.
	ErrExamActive = errors.New("exam: exam already in progress")

	// ErrNotInProgress rejects gameplay commands outside InProgress.
	ErrNotInProgress = errors.New("exam: exam not in progress")

	// ErrNotStarted rejects Restart on a session that was never started.
	ErrNotStarted = errors.New("exam: nothing to restart")

	// ErrOutOfRange rejects Goto with an index outside [0, len(questions)).
	ErrOutOfRange = errors.New("exam: question index out of range")

	// ErrNotCurrentQuestion rejects a selection that targets a question
	// other than the one under the cursor.
	ErrNotCurrentQuestion = errors.New("exam: selection does not target the current question")

	// ErrUnknownOption rejects a selection naming a letter the current
	// question does not offer.
	ErrUnknownOption = errors.New("exam: option letter not offered by question")

	// ErrSessionNotFound is returned by the manager for unknown session ids.
	ErrSessionNotFound = errors.New("exam: session not found")
)
