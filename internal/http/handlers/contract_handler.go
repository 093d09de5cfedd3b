package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/skillmarket-backend/internal/dto"
	"github.com/ignatzorin/skillmarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/skillmarket-backend/internal/service"
)

// ContractHandler предоставляет HTTP слой для контрактов.
type ContractHandler struct {
	contracts *service.ContractService
}

// NewContractHandler создаёт хэндлер.
func NewContractHandler(contracts *service.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// Get обрабатывает GET /contracts/:id.
func (h *ContractHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	contractID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.contracts.GetContract(c.Request.Context(), contractID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// List обрабатывает GET /contracts: контракты текущего пользователя.
func (h *ContractHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	limit, offset := common.GetPagination(c)

	contracts, total, err := h.contracts.ListMyContracts(c.Request.Context(), userID, c.Query("status"), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.ContractListResponse{
		Contracts: contracts,
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	})
}

// UpdateStatus обрабатывает PUT /contracts/:id/status.
func (h *ContractHandler) UpdateStatus(c *gin.Context) {
	userID, contractID, ok := h.ids(c)
	if !ok {
		return
	}

	var req dto.UpdateContractStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.contracts.SetStatus(c.Request.Context(), contractID, userID, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// AddMilestone обрабатывает POST /contracts/:id/milestones.
func (h *ContractHandler) AddMilestone(c *gin.Context) {
	userID, contractID, ok := h.ids(c)
	if !ok {
		return
	}

	var req dto.AddMilestoneRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		parsed, err := time.Parse(time.RFC3339, *req.DueDate)
		if err != nil {
			common.RespondBadRequest(c, "due_date должен быть в формате RFC3339")
			return
		}
		dueDate = &parsed
	}

	contract, err := h.contracts.AddMilestone(c.Request.Context(), contractID, userID, req.Title, req.Description, req.Amount, dueDate)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

// UpdateMilestone обрабатывает PUT /contracts/:id/milestones/:index.
func (h *ContractHandler) UpdateMilestone(c *gin.Context) {
	userID, contractID, ok := h.ids(c)
	if !ok {
		return
	}

	index := atoiOr(c.Param("index"), -1)
	if index < 0 {
		common.RespondBadRequest(c, "index должен быть неотрицательным числом")
		return
	}

	var req dto.UpdateMilestoneRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.contracts.SetMilestoneStatus(c.Request.Context(), contractID, userID, index, req.Status)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// SubmitDeliverable обрабатывает POST /contracts/:id/deliverables.
func (h *ContractHandler) SubmitDeliverable(c *gin.Context) {
	userID, contractID, ok := h.ids(c)
	if !ok {
		return
	}

	var req dto.SubmitDeliverableRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.contracts.SubmitDeliverable(c.Request.Context(), contractID, userID, req.Title, req.Description, req.FileURL)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

// ReviewDeliverable обрабатывает PUT /contracts/:id/deliverables/:index.
func (h *ContractHandler) ReviewDeliverable(c *gin.Context) {
	userID, contractID, ok := h.ids(c)
	if !ok {
		return
	}

	index := atoiOr(c.Param("index"), -1)
	if index < 0 {
		common.RespondBadRequest(c, "index должен быть неотрицательным числом")
		return
	}

	var req dto.ReviewDeliverableRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.contracts.ReviewDeliverable(c.Request.Context(), contractID, userID, index, req.Approve, req.Feedback)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// RaiseDispute обрабатывает POST /contracts/:id/disputes.
func (h *ContractHandler) RaiseDispute(c *gin.Context) {
	userID, contractID, ok := h.ids(c)
	if !ok {
		return
	}

	var req dto.RaiseDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.contracts.RaiseDispute(c.Request.Context(), contractID, userID, req.Reason, req.Description)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

// ResolveDispute обрабатывает PUT /contracts/:id/disputes/resolve.
func (h *ContractHandler) ResolveDispute(c *gin.Context) {
	userID, contractID, ok := h.ids(c)
	if !ok {
		return
	}

	var req dto.ResolveDisputeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.contracts.ResolveDispute(c.Request.Context(), contractID, userID, req.Resolution, req.TargetStatus)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// Rate обрабатывает POST /contracts/:id/rate.
func (h *ContractHandler) Rate(c *gin.Context) {
	userID, contractID, ok := h.ids(c)
	if !ok {
		return
	}

	var req dto.RateContractRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	contract, err := h.contracts.RateContract(c.Request.Context(), contractID, userID, req.Rating, req.Review)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *ContractHandler) ids(c *gin.Context) (userID, contractID uuid.UUID, ok bool) {
	uid, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return uuid.Nil, uuid.Nil, false
	}
	cid, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return uid, cid, true
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
