package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/pinkknives/skolapp-v3-sub001/internal/middleware"
	"github.com/pinkknives/skolapp-v3-sub001/internal/models"
	"github.com/pinkknives/skolapp-v3-sub001/internal/services"
)

type RouterDeps struct {
	Auth    *services.AuthService
	Session *SessionHandler
	Answer  *AnswerHandler
	Join    *ParticipantHandler
	Quiz    *QuizHandler
	WS      *WSHandler
	Health  *HealthHandler
}

// NewRouter wires every route of the HTTP surface.
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.Tracing(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.HeaderRequestID},
		ExposeHeaders: []string{middleware.HeaderRequestID},
	}))

	r.GET("/healthz", d.Health.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/session/:id", d.WS.HandleWebSocket)

	authed := middleware.JWTAuth(d.Auth)
	controller := middleware.RequireController()

	quizzes := r.Group("/api/v1/quizzes", authed, controller)
	{
		quizzes.POST("/import", d.Quiz.ImportQuizzes)
		quizzes.GET("/:id/export", d.Quiz.ExportQuiz)
	}

	sessions := r.Group("/api/v1/sessions")
	{
		sessions.POST("", authed, controller, d.Session.CreateSession)
		sessions.POST("/join", middleware.OptionalAuth(d.Auth), d.Join.JoinSession)

		sessions.GET("/:id", authed, d.Session.GetSession)
		sessions.GET("/:id/events", authed, controller, d.Session.ListEvents)
		sessions.GET("/:id/participants", authed, controller, d.Session.ListParticipants)
		sessions.GET("/:id/summary", authed, controller, d.Session.GetSummary)

		for _, action := range []models.ControlAction{
			models.ActionStart, models.ActionPause, models.ActionNext, models.ActionReveal, models.ActionEnd,
		} {
			sessions.POST("/:id/"+string(action), authed, controller, d.Session.Control(action))
		}

		sessions.POST("/:id/answers", middleware.OptionalAuth(d.Auth), d.Answer.SubmitAnswer)
		sessions.GET("/:id/answers/mine", authed, d.Answer.ListMyAnswers)
	}
	return r
}
