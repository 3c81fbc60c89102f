package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/makanika-api/services"
	"go.uber.org/zap"
)

// AssignMechanicRequest is the body for assigning a job
type AssignMechanicRequest struct {
	MechanicID uint `json:"assigned_mechanic_id" binding:"required"`
}

// PhoneSearchQuery is the public job lookup by customer phone
type PhoneSearchQuery struct {
	Phone string `form:"phone" binding:"required"`
}

// JobController serves the repair job endpoints
type JobController struct {
	jobs *services.JobService
	log  *zap.Logger
}

func NewJobController(jobs *services.JobService, log *zap.Logger) *JobController {
	return &JobController{jobs: jobs, log: log}
}

// CreateJob handles POST /api/v1/jobs
func (j *JobController) CreateJob(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}

	var req services.JobInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := j.jobs.CreateJob(c.Request.Context(), req, me)
	if err != nil {
		handleError(c, j.log, err)
		return
	}

	respondSuccess(c, http.StatusCreated, result)
}

// ListJobs handles GET /api/v1/jobs with optional status, search, customer_phone and numberplate filters
func (j *JobController) ListJobs(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}

	var filters services.JobFilters
	if !bindQuery(c, &filters) {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	result, err := j.jobs.ListJobs(c.Request.Context(), filters, page, me)
	if err != nil {
		handleError(c, j.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, result)
}

// GetJobStats handles GET /api/v1/jobs/stats/summary
func (j *JobController) GetJobStats(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}

	stats, err := j.jobs.GetJobStats(c.Request.Context(), me)
	if err != nil {
		handleError(c, j.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, stats)
}

// GetMyJobs handles GET /api/v1/jobs/customer/my-jobs
func (j *JobController) GetMyJobs(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}

	jobs, err := j.jobs.ListCustomerJobs(c.Request.Context(), me)
	if err != nil {
		handleError(c, j.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, jobs)
}

// SearchByPhone handles GET /api/v1/jobs/search/by-phone?phone=... - public, no authentication
func (j *JobController) SearchByPhone(c *gin.Context) {
	var q PhoneSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil || strings.TrimSpace(q.Phone) == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Phone number is required")
		return
	}

	jobs, err := j.jobs.SearchJobsByPhone(c.Request.Context(), q.Phone)
	if err != nil {
		handleError(c, j.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, jobs)
}

// GetJobByNumber handles GET /api/v1/jobs/number/:number
func (j *JobController) GetJobByNumber(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}

	job, err := j.jobs.GetJobByNumber(c.Request.Context(), c.Param("number"), me)
	if err != nil {
		handleError(c, j.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, job)
}

// GetJob handles GET /api/v1/jobs/:id
func (j *JobController) GetJob(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	job, err := j.jobs.GetJob(c.Request.Context(), id, me)
	if err != nil {
		handleError(c, j.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, job)
}

// UpdateJob handles PUT /api/v1/jobs/:id
func (j *JobController) UpdateJob(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.JobUpdate
	if !bindJSON(c, &req) {
		return
	}

	job, err := j.jobs.UpdateJob(c.Request.Context(), id, req, me)
	if err != nil {
		handleError(c, j.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, job)
}

// UpdateJobStatus handles PATCH /api/v1/jobs/:id/status
func (j *JobController) UpdateJobStatus(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.JobStatusUpdate
	if !bindJSON(c, &req) {
		return
	}

	job, err := j.jobs.UpdateJobStatus(c.Request.Context(), id, req, me)
	if err != nil {
		handleError(c, j.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, job)
}

// UpdateJobCost handles PATCH /api/v1/jobs/:id/cost
func (j *JobController) UpdateJobCost(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.JobCostUpdate
	if !bindJSON(c, &req) {
		return
	}

	job, err := j.jobs.UpdateJobCost(c.Request.Context(), id, req, me)
	if err != nil {
		handleError(c, j.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, job)
}

// AssignMechanic handles PATCH /api/v1/jobs/:id/assign
func (j *JobController) AssignMechanic(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AssignMechanicRequest
	if !bindJSON(c, &req) {
		return
	}

	job, err := j.jobs.AssignMechanic(c.Request.Context(), id, req.MechanicID, me)
	if err != nil {
		handleError(c, j.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, job)
}

// GetJobHistory handles GET /api/v1/jobs/:id/history
func (j *JobController) GetJobHistory(c *gin.Context) {
	me, ok := caller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	history, err := j.jobs.ListStatusHistory(c.Request.Context(), id, me)
	if err != nil {
		handleError(c, j.log, err)
		return
	}

	respondSuccess(c, http.StatusOK, history)
}
