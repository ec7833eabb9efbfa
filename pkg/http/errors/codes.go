package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"

	// Resource errors
	ErrCodeSessionNotFound = "session_not_found"

	// Exam command errors
	ErrCodeExamNotReady       = "exam_not_ready"
	ErrCodeExamActive         = "exam_already_in_progress"
	ErrCodeExamNotInProgress  = "exam_not_in_progress"
	ErrCodeNothingToRestart   = "nothing_to_restart"
	ErrCodeIndexOutOfRange    = "index_out_of_range"
	ErrCodeNotCurrentQuestion = "not_current_question"
	ErrCodeUnknownOption      = "unknown_option"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError = "internal_error"
)
