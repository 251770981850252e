package handlers

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-application-tracker/internal/services"
)

type RouterDeps struct {
	Jobs         *JobHandler
	Auth         *AuthHandler
	AuthService  *services.AuthService
	Sessions     *services.SessionManager
	Logger       *zap.Logger
	AllowOrigins []string
}

// NewRouter mounts every route under /api/v1.
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(d.Logger))

	config := cors.DefaultConfig()
	if len(d.AllowOrigins) == 0 || (len(d.AllowOrigins) == 1 && d.AllowOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = d.AllowOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	api := r.Group("/api/v1")
	{
		api.GET("/health", HealthCheck)
		api.POST("/auth/signup", d.Auth.Signup)
		api.POST("/auth/login", d.Auth.Login)
	}

	authed := api.Group("")
	authed.Use(RequireSession(d.AuthService, d.Sessions, d.Logger))
	{
		authed.POST("/auth/logout", d.Auth.Logout)
		authed.GET("/me", d.Auth.Me)

		// Job Routes
		authed.GET("/jobs", d.Jobs.ListJobs)
		authed.POST("/jobs", d.Jobs.CreateJob)
		authed.POST("/jobs/refresh", d.Jobs.RefreshJobs)
		authed.POST("/jobs/extract", d.Jobs.ParseJob)
		authed.PATCH("/jobs/:id", d.Jobs.UpdateJob)
		authed.DELETE("/jobs/:id", d.Jobs.DeleteJob)

		// Views
		authed.GET("/dashboard", d.Jobs.Dashboard)
		authed.GET("/board", d.Jobs.Board)
		authed.GET("/activity", d.Jobs.Activity)
		authed.GET("/notifications", d.Jobs.DrainNotifications)
		authed.GET("/state", d.Jobs.State)
	}

	return r
}
