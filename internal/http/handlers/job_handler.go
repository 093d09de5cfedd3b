package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/skillmarket-backend/internal/dto"
	"github.com/ignatzorin/skillmarket-backend/internal/engine"
	"github.com/ignatzorin/skillmarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/skillmarket-backend/internal/models"
	"github.com/ignatzorin/skillmarket-backend/internal/repository"
	"github.com/ignatzorin/skillmarket-backend/internal/service"
)

// JobHandler предоставляет HTTP слой для вакансий и откликов.
type JobHandler struct {
	jobs *service.JobService
}

// NewJobHandler создаёт хэндлер.
func NewJobHandler(jobs *service.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// Create обрабатывает POST /jobs.
func (h *JobHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	var req dto.CreateJobRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	skills := make([]models.SkillRequirement, 0, len(req.Skills))
	for _, s := range req.Skills {
		skills = append(skills, models.SkillRequirement{Name: s.Name, Level: s.Level})
	}

	job, err := h.jobs.CreateJob(c.Request.Context(), userID, role, engine.JobSpec{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Skills:      skills,
		Budget: models.Budget{
			Min:      req.Budget.Min,
			Max:      req.Budget.Max,
			Currency: req.Budget.Currency,
		},
		Duration: req.Duration,
		Location: req.Location,
		Tags:     req.Tags,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// Get обрабатывает GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.GetJob(c.Request.Context(), jobID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// List обрабатывает GET /jobs.
func (h *JobHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	filter := repository.JobListFilter{
		Status: c.Query("status"),
		Limit:  limit,
		Offset: offset,
	}

	if raw := c.Query("skills"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(strings.ToLower(s)); s != "" {
				filter.Skills = append(filter.Skills, s)
			}
		}
	}
	if raw := c.Query("employer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.RespondBadRequest(c, "employer_id должен быть валидным UUID")
			return
		}
		filter.EmployerID = &id
	}
	if v := common.ParseIntQuery(c, "min_budget", 0); v > 0 {
		min := float64(v)
		filter.MinBudget = &min
	}
	if v := common.ParseIntQuery(c, "max_budget", 0); v > 0 {
		max := float64(v)
		filter.MaxBudget = &max
	}

	jobs, total, err := h.jobs.ListJobs(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.JobListResponse{
		Jobs:   jobs,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// MyJobs обрабатывает GET /jobs/my: вакансии текущего работодателя.
func (h *JobHandler) MyJobs(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	limit, offset := common.GetPagination(c)

	jobs, total, err := h.jobs.ListJobs(c.Request.Context(), repository.JobListFilter{
		EmployerID: &userID,
		Status:     c.Query("status"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.JobListResponse{Jobs: jobs, Total: total, Limit: limit, Offset: offset})
}

// MyApplications обрабатывает GET /jobs/applications: вакансии с откликами
// текущего исполнителя.
func (h *JobHandler) MyApplications(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	limit, offset := common.GetPagination(c)

	jobs, total, err := h.jobs.ListJobs(c.Request.Context(), repository.JobListFilter{
		WorkerID: &userID,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.JobListResponse{Jobs: jobs, Total: total, Limit: limit, Offset: offset})
}

// Recommendations обрабатывает GET /jobs/recommendations.
func (h *JobHandler) Recommendations(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	limit := common.ParseIntQuery(c, "limit", 20)

	matches, err := h.jobs.Recommendations(c.Request.Context(), userID, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": dto.NewRecommendationResponses(matches)})
}

// Apply обрабатывает POST /jobs/:id/apply.
func (h *JobHandler) Apply(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ApplyRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	app, err := h.jobs.ApplyToJob(c.Request.Context(), jobID, userID, role, req.Proposal, req.BidAmount, req.Duration)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, app)
}

// Withdraw обрабатывает DELETE /jobs/:id/apply.
func (h *JobHandler) Withdraw(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.jobs.WithdrawApplication(c.Request.Context(), jobID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "отклик отозван", nil)
}

// Decide обрабатывает PUT /jobs/:id/applications/:workerId.
func (h *JobHandler) Decide(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}
	workerID, err := common.ParseUUIDParam(c, "workerId")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.DecideApplicationRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.jobs.DecideApplication(c.Request.Context(), jobID, userID, workerID, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if contract != nil {
		c.JSON(http.StatusOK, gin.H{"status": req.Status, "contract": contract})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

// Close обрабатывает PUT /jobs/:id/close.
func (h *JobHandler) Close(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.CloseJobRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.jobs.CloseJob(c.Request.Context(), jobID, userID, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// Delete обрабатывает DELETE /jobs/:id.
func (h *JobHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.jobs.DeleteJob(c.Request.Context(), jobID, userID); err != nil {
		_ = c.Error(err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "вакансия скрыта", nil)
}
