package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/services"
	"github.com/pinkknives/skolapp-v3-sub001/internal/ws"
)

type WSHandler struct {
	server   *ws.Server
	auth     *services.AuthService
	sessions *services.SessionService
}

func NewWSHandler(server *ws.Server, auth *services.AuthService, sessions *services.SessionService) *WSHandler {
	return &WSHandler{server: server, auth: auth, sessions: sessions}
}

// HandleWebSocket godoc
// @Summary      Realtime session transport
// @Description  Websocket binding of the session's control, room and answers channels. Browsers cannot set headers, so the token travels in the query.
// @Tags         websocket
// @Param        id path int true "Session ID"
// @Param        token query string true "Controller or participant token"
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /ws/session/{id} [get]
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	identity, err := h.auth.ValidateToken(c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	if identity.IsController() {
		if _, err := h.sessions.Authorize(c.Request.Context(), sid, identity.Subject); err != nil {
			respondError(c, err)
			return
		}
	} else if identity.SessionID != sid {
		respondError(c, apperr.New(apperr.CodeForbidden, "token belongs to another session"))
		return
	}

	h.server.Serve(c.Writer, c.Request, ws.Peer{
		Role:          identity.Role,
		Subject:       identity.Subject,
		SessionID:     sid,
		ParticipantID: identity.ParticipantID,
		DisplayName:   identity.DisplayName,
	})
}
