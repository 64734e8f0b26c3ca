package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/middleware"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/services"
)

type AnswerHandler struct {
	answers *services.AnswerService
	auth    *services.AuthService
}

func NewAnswerHandler(answers *services.AnswerService, auth *services.AuthService) *AnswerHandler {
	return &AnswerHandler{answers: answers, auth: auth}
}

type SubmitAnswerRequest struct {
	Answer          models.Answer `json:"answer" swaggertype:"object"`
	QuestionIndex   *int          `json:"question_index,omitempty" example:"0"`
	DurationSeconds *float64      `json:"duration_seconds,omitempty" example:"4.2"`
	GuestName       string        `json:"guest_name,omitempty" example:"Guest 1"`
}

type SubmitAnswerResponse struct {
	Attempt AttemptView `json:"attempt"`
	// Token is set when the submission registered an anonymous participant.
	Token string `json:"token,omitempty"`
}

// SubmitAnswer godoc
// @Summary      Submit an answer
// @Description  Record the caller's answer. Without a token, guest_name registers an anonymous participant when the session allows it.
// @Tags         answers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Param        request body SubmitAnswerRequest true "Answer"
// @Success      201 {object} SubmitAnswerResponse
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/answers [post]
func (h *AnswerHandler) SubmitAnswer(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.New(apperr.CodeInvalidAnswer, err.Error()))
		return
	}

	in := services.SubmitInput{
		SessionID:       sid,
		QuestionIndex:   req.QuestionIndex,
		Answer:          req.Answer,
		DurationSeconds: req.DurationSeconds,
	}
	identity, authed := middleware.IdentityFrom(c)
	switch {
	case authed && identity.IsController():
		respondError(c, apperr.New(apperr.CodeNotParticipant, "controllers cannot submit answers"))
		return
	case authed:
		if identity.SessionID != sid {
			respondError(c, apperr.New(apperr.CodeNotParticipant, "token belongs to another session"))
			return
		}
		in.ParticipantID = identity.ParticipantID
	default:
		in.GuestName = req.GuestName
	}

	attempt, err := h.answers.Submit(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	views, err := h.answers.Present(c.Request.Context(), sid, *attempt)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := SubmitAnswerResponse{Attempt: views[0]}
	if !authed {
		resp.Token, err = h.auth.IssueParticipantToken(&models.Participant{
			ID:          attempt.ParticipantID,
			SessionID:   sid,
			DisplayName: strings.TrimSpace(req.GuestName),
		})
		if err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMyAnswers godoc
// @Summary      List my attempts
// @Description  The caller's attempts; correctness follows the session's reveal policy
// @Tags         answers
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {array} AttemptView
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/sessions/{id}/answers/mine [get]
func (h *AnswerHandler) ListMyAnswers(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	identity, _ := middleware.IdentityFrom(c)
	if identity.IsController() || identity.SessionID != sid {
		respondError(c, apperr.New(apperr.CodeNotParticipant, "not a participant of this session"))
		return
	}

	views, err := h.answers.ListMine(c.Request.Context(), sid, identity.ParticipantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}
