package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pinkknives/skolapp-v3-sub001/internal/middleware"
	"github.com/pinkknives/skolapp-v3-sub001/internal/services"
)

type ParticipantHandler struct {
	participants *services.ParticipantService
	auth         *services.AuthService
}

func NewParticipantHandler(participants *services.ParticipantService, auth *services.AuthService) *ParticipantHandler {
	return &ParticipantHandler{participants: participants, auth: auth}
}

type JoinSessionRequest struct {
	Code        string `json:"code" binding:"required" example:"123456"`
	DisplayName string `json:"display_name" binding:"required,max=100" example:"Player1"`
}

type JoinSessionResponse struct {
	Participant *Participant `json:"participant"`
	Token       string       `json:"token"`
}

// JoinSession godoc
// @Summary      Join a session by code
// @Description  Registers a participant and returns a participant token for the API and websocket.
// @Description  A caller presenting an account token, or the participant token from an earlier join, gets the same participant back.
// @Tags         participants
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body JoinSessionRequest true "Join data"
// @Success      200 {object} JoinSessionResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /api/v1/sessions/join [post]
func (h *ParticipantHandler) JoinSession(c *gin.Context) {
	var req JoinSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	// Rejoin keys come only from verified tokens.
	in := services.JoinInput{Code: req.Code, DisplayName: req.DisplayName}
	if id, ok := middleware.IdentityFrom(c); ok {
		if id.IsController() {
			subject := "user:" + id.Subject
			in.Identity = &subject
		} else {
			in.ParticipantID = id.ParticipantID
		}
	}

	p, err := h.participants.Join(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.auth.IssueParticipantToken(p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, JoinSessionResponse{Participant: p, Token: token})
}
