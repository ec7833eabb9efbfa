package exam

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	httperrors "github.com/prepdesk/exam-service/pkg/http/errors"
	ws "github.com/prepdesk/exam-service/pkg/http/ws"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer for REST; the WS
		// endpoint mirrors it permissively for local renderers.
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WSHandler attaches renderer connections to sessions and routes their
// commands into the manager. It also implements Notifier so timer events
// reach every watcher of a session.
type WSHandler struct {
	manager *Manager
	hub     *ws.Hub
	logger  zerolog.Logger
}

var _ Notifier = (*WSHandler)(nil)

// NewWSHandler creates the session WebSocket handler.
func NewWSHandler(manager *Manager, hub *ws.Hub, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		manager: manager,
		hub:     hub,
		logger:  logger.With().Str("component", "exam_ws").Logger(),
	}
}

// HandleWebSocket upgrades GET /ws/sessions?session_id=... and serves the
// command protocol until the renderer disconnects.
func (h *WSHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(r.URL.Query().Get("session_id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "session_id query parameter must be a UUID")
		return
	}
	if _, err := h.manager.ExamID(sessionID); err != nil {
		httperrors.RespondNotFound(w, httperrors.ErrCodeSessionNotFound, "Session not found")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	clientID := uuid.New()
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.Register(clientID, wsConn)
	h.hub.Watch(sessionID, clientID)

	go wsConn.WritePump()

	// Initial snapshot so the renderer can draw without a separate GET.
	h.sendState(clientID, sessionID)

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(clientID, sessionID, msg)
	})

	h.hub.Unregister(clientID)
}

func (h *WSHandler) handleMessage(clientID, sessionID uuid.UUID, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeStartExam:
		return h.command(clientID, sessionID, h.manager.Start(sessionID))
	case ws.TypeSelectOption:
		var req ws.SelectOptionPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(clientID, httperrors.ErrCodeInvalidPayload, "Invalid select_option payload")
		}
		return h.command(clientID, sessionID, h.manager.SelectOption(sessionID, req.QuestionID, req.Option))
	case ws.TypeGotoQuestion:
		var req ws.GotoQuestionPayload
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return h.sendError(clientID, httperrors.ErrCodeInvalidPayload, "Invalid goto_question payload")
		}
		return h.command(clientID, sessionID, h.manager.Goto(sessionID, req.Index))
	case ws.TypeSubmitExam:
		report, err := h.manager.Submit(sessionID)
		if err != nil {
			return h.sendError(clientID, commandErrorCode(err), err.Error())
		}
		return h.broadcastSubmitted(sessionID, report, false)
	case ws.TypeRestartExam:
		return h.command(clientID, sessionID, h.manager.Restart(sessionID))
	case ws.TypePing:
		return h.hub.SendToClient(clientID, ws.Message{Type: ws.TypePong})
	default:
		return h.sendError(clientID, httperrors.ErrCodeUnknownMessageType, "Unknown message type: "+msg.Type)
	}
}

// command reports a failed command to the issuing client, or broadcasts the
// refreshed state to every watcher on success.
func (h *WSHandler) command(clientID, sessionID uuid.UUID, err error) error {
	if err != nil {
		return h.sendError(clientID, commandErrorCode(err), err.Error())
	}
	return h.broadcastState(sessionID)
}

// SessionTick pushes the countdown to the session's watchers. Skips the
// marshal when nobody is connected, since ticks fire every second.
func (h *WSHandler) SessionTick(sessionID uuid.UUID, remaining int) {
	if h.hub.Watchers(sessionID) == 0 {
		return
	}
	payload := ws.ExamTickPayload{SessionID: sessionID.String(), RemainingSeconds: remaining}
	msg := ws.Message{Type: ws.TypeExamTick}
	msg.Payload, _ = json.Marshal(payload)
	h.hub.BroadcastToSession(sessionID, msg)
}

// SessionExpired announces a countdown-forced submission with its report.
func (h *WSHandler) SessionExpired(sessionID uuid.UUID, report *Report) {
	if err := h.broadcastSubmitted(sessionID, report, true); err != nil {
		h.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("expiry broadcast failed")
	}
}

func (h *WSHandler) broadcastSubmitted(sessionID uuid.UUID, report *Report, expired bool) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	payload := ws.ExamSubmittedPayload{
		SessionID: sessionID.String(),
		Expired:   expired,
		Report:    raw,
	}
	msg := ws.Message{Type: ws.TypeExamSubmitted}
	msg.Payload, _ = json.Marshal(payload)
	return h.hub.BroadcastToSession(sessionID, msg)
}

func (h *WSHandler) broadcastState(sessionID uuid.UUID) error {
	payload, err := snapshot(h.manager, sessionID)
	if err != nil {
		return err
	}
	msg := ws.Message{Type: ws.TypeSessionState}
	msg.Payload, _ = json.Marshal(payload)
	return h.hub.BroadcastToSession(sessionID, msg)
}

func (h *WSHandler) sendState(clientID, sessionID uuid.UUID) {
	payload, err := snapshot(h.manager, sessionID)
	if err != nil {
		return
	}
	msg := ws.Message{Type: ws.TypeSessionState}
	msg.Payload, _ = json.Marshal(payload)
	h.hub.SendToClient(clientID, msg)
}

func (h *WSHandler) sendError(clientID uuid.UUID, code, message string) error {
	payload := ws.ErrorPayload{Code: code, Message: message}
	msg := ws.Message{Type: ws.TypeError}
	msg.Payload, _ = json.Marshal(payload)
	return h.hub.SendToClient(clientID, msg)
}

// snapshot builds the full redraw payload under the session lock.
func snapshot(m *Manager, sessionID uuid.UUID) (ws.SessionStatePayload, error) {
	examID, err := m.ExamID(sessionID)
	if err != nil {
		return ws.SessionStatePayload{}, err
	}

	var payload ws.SessionStatePayload
	err = m.View(sessionID, func(s *Session) {
		answers := map[string][]string{}
		for _, q := range s.Questions() {
			if sel := s.Selected(q.ID); sel != nil {
				answers[strconv.Itoa(q.ID)] = sel
			}
		}
		payload = ws.SessionStatePayload{
			SessionID:        sessionID.String(),
			ExamID:           examID,
			Status:           string(s.Status()),
			CurrentIndex:     s.CurrentIndex(),
			RemainingSeconds: s.Remaining(),
			QuestionCount:    len(s.Questions()),
			Questions:        questionViews(s.Questions()),
			Answers:          answers,
		}
	})
	return payload, err
}

// commandErrorCode maps engine sentinel errors onto wire error codes.
func commandErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return httperrors.ErrCodeSessionNotFound
	case errors.Is(err, ErrNotReady):
		return httperrors.ErrCodeExamNotReady
	case errors.Is(err, ErrExamActive):
		return httperrors.ErrCodeExamActive
	case errors.Is(err, ErrNotInProgress):
		return httperrors.ErrCodeExamNotInProgress
	case errors.Is(err, ErrNotStarted):
		return httperrors.ErrCodeNothingToRestart
	case errors.Is(err, ErrOutOfRange):
		return httperrors.ErrCodeIndexOutOfRange
	case errors.Is(err, ErrNotCurrentQuestion):
		return httperrors.ErrCodeNotCurrentQuestion
	case errors.Is(err, ErrUnknownOption):
		return httperrors.ErrCodeUnknownOption
	default:
		return httperrors.ErrCodeInternalError
	}
}
