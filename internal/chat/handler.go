package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/symptom-scout/internal/booking"
	"github.com/wolfman30/symptom-scout/internal/session"
	"github.com/wolfman30/symptom-scout/internal/triage"
	"github.com/wolfman30/symptom-scout/pkg/logging"
)

// Handler exposes the chat Service over JSON HTTP and a websocket.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type errorResponse struct {
	Error   string `json:"error"`
	Warning string `json:"warning,omitempty"`
}

type symptomRequest struct {
	Symptom  string `json:"symptom"`
	Category string `json:"category"`
}

type replyRequest struct {
	Text    string `json:"text"`
	ReplyID string `json:"replyId"`
}

type decisionRequest struct {
	Accept bool `json:"accept"`
}

type emailRequest struct {
	Input string `json:"input"`
}

type assessRequest struct {
	Symptoms  string `json:"symptoms"`
	Responses string `json:"responses"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Open(r.Context())
	h.respond(w, http.StatusCreated, view, err)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.View(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) SelectSymptom(w http.ResponseWriter, r *http.Request) {
	var req symptomRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.svc.SelectSymptom(r.Context(), chi.URLParam(r, "id"), req.Symptom, req.Category)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	var req replyRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.svc.Reply(r.Context(), chi.URLParam(r, "id"), req.Text, req.ReplyID)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.svc.Decide(r.Context(), chi.URLParam(r, "id"), req.Accept)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) SubmitEmail(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.svc.SubmitEmail(r.Context(), chi.URLParam(r, "id"), req.Input)
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Reset(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, http.StatusOK, view, err)
}

func (h *Handler) ListSymptoms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"symptoms":   triage.Symptoms(),
		"categories": triage.Categories(),
	})
}

func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	var req assessRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Symptoms) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "symptoms are required"})
		return
	}
	res, err := h.svc.Assess(r.Context(), req.Symptoms, req.Responses)
	if err != nil {
		h.logger.Error("urgency assessment failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "urgency assessment failed"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respond(w http.ResponseWriter, okStatus int, view View, err error) {
	if err != nil {
		status, body := errorFor(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("chat request failed", "error", err)
		}
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, okStatus, view)
}

// errorFor maps service errors to a status code and client message.
// Turn-taking violations are 409, input problems 400.
func errorFor(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "session not found"}
	case errors.Is(err, booking.ErrEmptyEmail):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Warning: "Please enter your email address."}
	case errors.Is(err, booking.ErrInvalidEmail):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Warning: "Please enter a valid email address."}
	case errors.Is(err, triage.ErrEmptyResponse):
		return http.StatusBadRequest, errorResponse{Error: err.Error()}
	case errors.Is(err, triage.ErrTurnInProgress),
		errors.Is(err, triage.ErrSessionComplete),
		errors.Is(err, triage.ErrAwaitingDecision),
		errors.Is(err, triage.ErrAwaitingEmail),
		errors.Is(err, triage.ErrNotStarted),
		errors.Is(err, triage.ErrAlreadyStarted),
		errors.Is(err, triage.ErrNoDecisionPending),
		errors.Is(err, triage.ErrNotCollectingMail),
		errors.Is(err, triage.ErrUnknownQuickReply):
		return http.StatusConflict, errorResponse{Error: err.Error()}
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal error"}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// Frame is one websocket message from the client. Type selects the action:
// open, view, symptom, reply, decision, email, reset or ping.
type Frame struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Symptom   string `json:"symptom,omitempty"`
	Category  string `json:"category,omitempty"`
	Text      string `json:"text,omitempty"`
	ReplyID   string `json:"replyId,omitempty"`
	Accept    bool   `json:"accept,omitempty"`
	Input     string `json:"input,omitempty"`
}

// OutboundFrame is what the server sends back: a view, an error or a pong.
type OutboundFrame struct {
	Type    string `json:"type"`
	View    *View  `json:"view,omitempty"`
	Status  int    `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// HandleWebSocket serves the same actions as the JSON API over one connection.
// A session can be resumed with ?session=<id>.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(r.Context(), conn, r.URL.Query().Get("session"))
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(ctx context.Context, conn *websocket.Conn, sessionID string) {
	if sessionID != "" {
		view, err := h.svc.View(ctx, sessionID)
		h.sendView(conn, view, err)
	}
	h.logger.Info("chat websocket opened", "session_id", sessionID)

	for {
		var f Frame
		if err := websocket.JSON.Receive(conn, &f); err != nil {
			h.logger.Debug("chat websocket closed", "session_id", sessionID, "error", err)
			return
		}
		if f.SessionID == "" {
			f.SessionID = sessionID
		}

		var (
			view View
			err  error
		)
		switch f.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "pong"})
			continue
		case "open":
			view, err = h.svc.Open(ctx)
		case "view":
			view, err = h.svc.View(ctx, f.SessionID)
		case "symptom":
			view, err = h.svc.SelectSymptom(ctx, f.SessionID, f.Symptom, f.Category)
		case "reply":
			view, err = h.svc.Reply(ctx, f.SessionID, f.Text, f.ReplyID)
		case "decision":
			view, err = h.svc.Decide(ctx, f.SessionID, f.Accept)
		case "email":
			view, err = h.svc.SubmitEmail(ctx, f.SessionID, f.Input)
		case "reset":
			view, err = h.svc.Reset(ctx, f.SessionID)
		default:
			_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", Status: http.StatusBadRequest, Error: "unknown frame type"})
			continue
		}
		if err == nil {
			sessionID = view.SessionID
		}
		h.sendView(conn, view, err)
	}
}

func (h *Handler) sendView(conn *websocket.Conn, view View, err error) {
	if err != nil {
		status, body := errorFor(err)
		_ = websocket.JSON.Send(conn, OutboundFrame{Type: "error", Status: status, Error: body.Error, Warning: body.Warning})
		return
	}
	_ = websocket.JSON.Send(conn, OutboundFrame{Type: "view", View: &view})
}
