package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/set-night/clickpulse/internal/config"
	"github.com/set-night/clickpulse/internal/middleware"
	"github.com/set-night/clickpulse/internal/service"
)

// Handler holds all dependencies needed by the HTTP handlers.
type Handler struct {
	cfg         *config.Config
	signIn      *service.SignInService
	tasks       *service.TaskService
	assignment  *service.AssignmentService
	submissions *service.SubmissionService
	payouts     *service.PayoutService
	uploads     service.UploadPresigner
	userAuth    middleware.TokenVerifier
	workerAuth  middleware.TokenVerifier
	metrics     http.Handler
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Cfg         *config.Config
	SignIn      *service.SignInService
	Tasks       *service.TaskService
	Assignment  *service.AssignmentService
	Submissions *service.SubmissionService
	Payouts     *service.PayoutService
	Uploads     service.UploadPresigner
	UserAuth    middleware.TokenVerifier
	WorkerAuth  middleware.TokenVerifier
	Metrics     http.Handler
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		cfg:         deps.Cfg,
		signIn:      deps.SignIn,
		tasks:       deps.Tasks,
		assignment:  deps.Assignment,
		submissions: deps.Submissions,
		payouts:     deps.Payouts,
		uploads:     deps.Uploads,
		userAuth:    deps.UserAuth,
		workerAuth:  deps.WorkerAuth,
		metrics:     deps.Metrics,
	}
}

// Router registers every route on a new engine.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recover(), middleware.Logging(), cors.New(h.corsConfig()))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	user := r.Group("/v1/user")
	user.POST("/signin", h.UserSignIn)
	{
		authed := user.Group("", middleware.Auth(h.userAuth))
		authed.GET("/tasks", h.ListTasks)
		authed.GET("/task", h.GetTask)
		authed.POST("/task", h.CreateTask)
		authed.GET("/presignedUrl", h.PresignedURL)
	}

	worker := r.Group("/v1/worker")
	worker.POST("/signin", h.WorkerSignIn)
	{
		authed := worker.Group("", middleware.Auth(h.workerAuth))
		authed.GET("/nextTask", h.NextTask)
		authed.GET("/balance", h.Balance)
		authed.GET("/payouts", h.ListPayouts)

		limited := authed.Group("", middleware.RateLimit(config.RateLimitPerMinute, config.RateLimitBurst))
		limited.POST("/submission", h.Submit)
		limited.POST("/payout", h.Payout)
	}

	return r
}

func (h *Handler) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")
	origins := []string{"*"}
	if h.cfg != nil && len(h.cfg.CORSOrigins) > 0 {
		origins = h.cfg.CORSOrigins
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
