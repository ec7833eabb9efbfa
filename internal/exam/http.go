package exam

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prepdesk/exam-service/internal/bank"
	"github.com/prepdesk/exam-service/internal/parser"
	httperrors "github.com/prepdesk/exam-service/pkg/http/errors"
	ws "github.com/prepdesk/exam-service/pkg/http/ws"
)

// HTTPHandlers provides the REST surface: exam catalog and session lifecycle.
// Gameplay commands run over the WebSocket endpoint.
type HTTPHandlers struct {
	bank    *bank.Service
	manager *Manager
	logger  zerolog.Logger
}

// NewHTTPHandlers creates REST handlers for exams and sessions.
func NewHTTPHandlers(bankSvc *bank.Service, manager *Manager, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		bank:    bankSvc,
		manager: manager,
		logger:  logger.With().Str("component", "exam_http").Logger(),
	}
}

// CreateSessionRequest is the POST /v1/sessions payload.
type CreateSessionRequest struct {
	ExamID string `json:"exam_id"`
}

// CreateSessionResponse returns the new session and its client-safe
// questions in session order.
type CreateSessionResponse struct {
	SessionID       string            `json:"session_id"`
	ExamID          string            `json:"exam_id"`
	Status          string            `json:"status"`
	DurationSeconds int               `json:"duration_seconds"`
	Questions       []ws.QuestionView `json:"questions"`
}

// ListExams handles GET /v1/exams.
func (h *HTTPHandlers) ListExams(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"exams": h.bank.Catalog()})
}

// CreateSession handles POST /v1/sessions: fetch and parse the bank, load a
// shuffled session, return it Idle. An unknown exam falls back to the
// default bank; a bank that yields no questions still creates the session,
// the renderer surfaces the empty state and Start will report not-ready.
func (h *HTTPHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.ExamID == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "exam_id is required", "exam_id")
		return
	}

	servedID, questions := h.bank.Fetch(r.Context(), req.ExamID)

	id, sess, err := h.manager.Create(servedID, questions)
	if err != nil {
		h.logger.Error().Err(err).Str("exam_id", servedID).Msg("session creation failed")
		httperrors.RespondInternalError(w, "Could not create session")
		return
	}

	respondJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionID:       id.String(),
		ExamID:          servedID,
		Status:          string(sess.Status()),
		DurationSeconds: sess.Remaining(),
		Questions:       questionViews(sess.Questions()),
	})
}

// GetSession handles GET /v1/sessions/{id} with the same snapshot the
// WebSocket pushes.
func (h *HTTPHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	payload, err := snapshot(h.manager, id)
	if err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
		return
	}
	respondJSON(w, http.StatusOK, payload)
}

// DeleteSession handles DELETE /v1/sessions/{id}.
func (h *HTTPHandlers) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	h.manager.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandlers) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Session id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// questionViews strips answer keys and explanations before anything reaches
// a client.
func questionViews(questions []parser.Question) []ws.QuestionView {
	views := make([]ws.QuestionView, 0, len(questions))
	for _, q := range questions {
		opts := make([]ws.OptionView, 0, len(q.Options))
		for _, o := range q.Options {
			opts = append(opts, ws.OptionView{Letter: o.Letter, Text: o.Text})
		}
		views = append(views, ws.QuestionView{
			ID:          q.ID,
			Text:        q.Text,
			Options:     opts,
			MultiAnswer: IsMultiAnswer(q),
		})
	}
	return views
}
