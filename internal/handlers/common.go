package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/logger"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/services"
)

type ErrorBody struct {
	Code    apperr.Code `json:"code" example:"INVALID_TRANSITION"`
	Message string      `json:"message" example:"cannot pause a idle session"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Type aliases so swag can resolve models in annotations.
type Session = models.Session
type Participant = models.Participant
type ControlEvent = models.ControlEvent
type SessionView = services.SessionView
type Summary = services.Summary
type AttemptView = services.AttemptView

// respondError writes the coded error envelope. Uncoded errors become INTERNAL
// and keep their detail out of the response.
func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	status := code.HTTPStatus()
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.FromCtx(c.Request.Context()).Error("request failed", "path", c.FullPath(), "error", err)
		code, msg = apperr.CodeInternal, "internal error"
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: msg}})
}

func badRequest(c *gin.Context, msg string) {
	respondError(c, apperr.New(apperr.CodeInvalidArgument, msg))
}

func sessionID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid session id")
		return 0, false
	}
	return uint(id), true
}
