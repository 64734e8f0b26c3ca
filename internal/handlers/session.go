package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/middleware"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/services"
)

type SessionHandler struct {
	sessions     *services.SessionService
	participants *services.ParticipantService
	summaries    *services.SummaryService
}

func NewSessionHandler(sessions *services.SessionService, participants *services.ParticipantService, summaries *services.SummaryService) *SessionHandler {
	return &SessionHandler{sessions: sessions, participants: participants, summaries: summaries}
}

// CreateSession godoc
// @Summary      Create a quiz session
// @Description  Create a session for an owned quiz and generate its join code
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body services.CreateSessionInput true "Session data"
// @Success      201 {object} Session
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	id, _ := middleware.IdentityFrom(c)

	var req services.CreateSessionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.ControllerID = id.Subject

	session, err := h.sessions.CreateSession(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GetSession godoc
// @Summary      Get session state
// @Description  Current state with the current question. Participants may only read their own session.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} SessionView
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	identity, _ := middleware.IdentityFrom(c)
	if !identity.IsController() && identity.SessionID != sid {
		respondError(c, apperr.ErrForbidden)
		return
	}

	view, err := h.sessions.GetSession(c.Request.Context(), sid)
	if err != nil {
		respondError(c, err)
		return
	}
	if identity.IsController() && view.Session.ControllerID != identity.Subject {
		respondError(c, apperr.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Control returns the handler for one control action.
//
// @Summary      Apply a control action
// @Description  start, pause, next, reveal or end. start and next accept an optional question window.
// @Tags         control
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Param        action path string true "start, pause, next, reveal or end"
// @Param        request body services.ControlPayload false "Optional window"
// @Success      200 {object} Session
// @Failure      403 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/{action} [post]
func (h *SessionHandler) Control(action models.ControlAction) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, ok := sessionID(c)
		if !ok {
			return
		}
		identity, _ := middleware.IdentityFrom(c)

		var payload services.ControlPayload
		if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c, err.Error())
			return
		}

		session, err := h.sessions.Control(c.Request.Context(), sid, identity.Subject, action, payload)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// ListEvents godoc
// @Summary      List control events
// @Description  Audit log of control actions in order
// @Tags         control
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {array} ControlEvent
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/events [get]
func (h *SessionHandler) ListEvents(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	identity, _ := middleware.IdentityFrom(c)

	events, err := h.sessions.ListControlEvents(c.Request.Context(), sid, identity.Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// ListParticipants godoc
// @Summary      List participants
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {array} Participant
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/participants [get]
func (h *SessionHandler) ListParticipants(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	identity, _ := middleware.IdentityFrom(c)
	if _, err := h.sessions.Authorize(c.Request.Context(), sid, identity.Subject); err != nil {
		respondError(c, err)
		return
	}

	list, err := h.participants.List(c.Request.Context(), sid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetSummary godoc
// @Summary      Session summary
// @Description  Per-question and per-participant aggregates
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {object} Summary
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/summary [get]
func (h *SessionHandler) GetSummary(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	identity, _ := middleware.IdentityFrom(c)
	if _, err := h.sessions.Authorize(c.Request.Context(), sid, identity.Subject); err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.summaries.Build(c.Request.Context(), sid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
