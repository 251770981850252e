package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/justsurfingit/job-application-tracker/internal/dtos"
	"github.com/justsurfingit/job-application-tracker/internal/notify"
	"github.com/justsurfingit/job-application-tracker/internal/services"
	"github.com/justsurfingit/job-application-tracker/internal/views"
)

type JobHandler struct {
	LLMService    *services.LLMService
	Notifications *notify.Buffer
	Logger        *zap.Logger

	// Now is the clock the dashboard classifies dates against.
	Now func() time.Time
}

func NewJobHandler(llm *services.LLMService, notifications *notify.Buffer, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		LLMService:    llm,
		Notifications: notifications,
		Logger:        logger,
		Now:           time.Now,
	}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListJobs is GET /jobs: the session's collection filtered and sorted.
func (h *JobHandler) ListJobs(c *gin.Context) {
	var q dtos.JobListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, h.Logger, err)
		return
	}

	jobs := views.FilterSort(sessionStore(c).Jobs(), q.ToQuery())
	c.JSON(http.StatusOK, dtos.JobListResponse{Jobs: jobs, Total: len(jobs)})
}

// RefreshJobs is POST /jobs/refresh: reload from the backend.
func (h *JobHandler) RefreshJobs(c *gin.Context) {
	store := sessionStore(c)
	if err := store.FetchAll(c.Request.Context()); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	jobs := store.Jobs()
	c.JSON(http.StatusOK, dtos.JobListResponse{Jobs: jobs, Total: len(jobs)})
}

// CreateJob is POST /jobs.
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dtos.JobCreationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.Logger, err)
		return
	}
	fields, err := req.ToFields()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	job, err := sessionStore(c).Add(c.Request.Context(), fields)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, job)
}

// UpdateJob is PATCH /jobs/:id.
func (h *JobHandler) UpdateJob(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		bindError(c, h.Logger, err)
		return
	}
	var req dtos.JobUpdateRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		bindError(c, h.Logger, err)
		return
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(body, &keys); err != nil {
		bindError(c, h.Logger, err)
		return
	}
	patch, err := req.ToPatch(keys)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	job, err := sessionStore(c).Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeleteJob is DELETE /jobs/:id. Deleting an unknown id also returns 204.
func (h *JobHandler) DeleteJob(c *gin.Context) {
	if err := sessionStore(c).Remove(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ParseJob is the POST /jobs/extract endpoint
func (h *JobHandler) ParseJob(c *gin.Context) {
	var req dtos.JobExtractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, h.Logger, err)
		return
	}

	draft, err := h.LLMService.ExtractJob(c.Request.Context(), req.RawHTML)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    draft,
	})
}

func (h *JobHandler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, views.Dashboard(sessionStore(c).Jobs(), h.Now()))
}

func (h *JobHandler) Board(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"columns": views.Board(sessionStore(c).Jobs())})
}

func (h *JobHandler) Activity(c *gin.Context) {
	var q dtos.ActivityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, h.Logger, err)
		return
	}

	points, err := sessionStore(c).Activity(c.Request.Context(), q.Days)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

// DrainNotifications returns and forgets the current user's pending notifications.
func (h *JobHandler) DrainNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": h.Notifications.Drain(sessionUser(c).ID)})
}

// State reports the store's loading flag, last error and version.
func (h *JobHandler) State(c *gin.Context) {
	state := sessionStore(c).Snapshot()
	c.JSON(http.StatusOK, dtos.StateResponse{
		IsLoading: state.IsLoading,
		Error:     state.Error,
		Version:   state.Version,
		Count:     len(state.Jobs),
	})
}
