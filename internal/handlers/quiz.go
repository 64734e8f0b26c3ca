package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pinkknives/skolapp-v3-sub001/internal/apperr"
	"github.com/pinkknives/skolapp-v3-sub001/internal/catalog"
	"github.com/pinkknives/skolapp-v3-sub001/internal/middleware"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/store"
)

// QuizHandler moves quizzes in and out of the catalog read model in the
// YAML fixture format.
type QuizHandler struct {
	store *store.Store
}

func NewQuizHandler(st *store.Store) *QuizHandler {
	return &QuizHandler{store: st}
}

type ImportedQuiz struct {
	ID        uint   `json:"id" example:"1"`
	Title     string `json:"title" example:"Geography"`
	Questions int    `json:"questions" example:"10"`
}

// ImportQuizzes godoc
// @Summary      Import quizzes
// @Description  Store every quiz of a YAML catalog document. Quizzes are owned by the caller.
// @Tags         quizzes
// @Accept       application/x-yaml
// @Produce      json
// @Security     BearerAuth
// @Success      201 {array} ImportedQuiz
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/quizzes/import [post]
func (h *QuizHandler) ImportQuizzes(c *gin.Context) {
	identity, _ := middleware.IdentityFrom(c)

	doc, err := catalog.Parse(c.Request.Body)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	for i := range doc.Quizzes {
		doc.Quizzes[i].Owner = ""
	}

	quizzes, err := catalog.Import(c.Request.Context(), h.store, doc, identity.Subject)
	if err != nil {
		respondError(c, apperr.Wrap(apperr.CodeInternal, "import quizzes", err))
		return
	}
	out := make([]ImportedQuiz, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, ImportedQuiz{ID: q.ID, Title: q.Title, Questions: len(q.Questions)})
	}
	c.JSON(http.StatusCreated, out)
}

// ExportQuiz godoc
// @Summary      Export a quiz
// @Description  Render an owned quiz as a YAML catalog document
// @Tags         quizzes
// @Produce      application/x-yaml
// @Security     BearerAuth
// @Param        id path int true "Quiz ID"
// @Success      200 {string} string
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/quizzes/{id}/export [get]
func (h *QuizHandler) ExportQuiz(c *gin.Context) {
	identity, _ := middleware.IdentityFrom(c)
	quizID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid quiz id")
		return
	}

	quiz, err := h.store.GetQuiz(c.Request.Context(), uint(quizID))
	if err != nil {
		respondError(c, storeError(err, "quiz not found"))
		return
	}
	if quiz.OwnerID != identity.Subject {
		respondError(c, apperr.ErrForbidden)
		return
	}
	if quiz.Questions, err = h.store.ListQuestions(c.Request.Context(), quiz.ID); err != nil {
		respondError(c, apperr.Wrap(apperr.CodeInternal, "list questions", err))
		return
	}

	filename := strings.ReplaceAll(quiz.Title, " ", "_")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename+".yaml"))
	c.Header("Content-Type", "application/x-yaml; charset=utf-8")
	c.Status(http.StatusOK)
	if err := catalog.Export(c.Writer, []models.Quiz{*quiz}); err != nil {
		_ = c.Error(err)
	}
}

func storeError(err error, notFound string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(apperr.CodeNotFound, notFound, err)
	}
	return apperr.Wrap(apperr.CodeInternal, "storage failure", err)
}
