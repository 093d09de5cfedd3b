package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/skillmarket-backend/internal/dto"
	"github.com/ignatzorin/skillmarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/skillmarket-backend/internal/service"
)

// ProfileHandler предоставляет HTTP слой для профилей, навыков и кошелька.
type ProfileHandler struct {
	users *service.UserService
}

// NewProfileHandler создаёт хэндлер.
func NewProfileHandler(users *service.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// Me обрабатывает GET /users/me.
func (h *ProfileHandler) Me(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Get обрабатывает GET /users/:id — публичный профиль.
func (h *ProfileHandler) Get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	// В публичном профиле кошелёк не отдаём.
	public := *user
	public.Wallet.Transactions = nil
	public.Wallet.Balance = 0
	c.JSON(http.StatusOK, &public)
}

// Update обрабатывает PUT /users/me.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		Name:     req.Name,
		Phone:    req.Phone,
		Bio:      req.Bio,
		Location: req.Location,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// SetSkills обрабатывает PUT /users/me/skills.
func (h *ProfileHandler) SetSkills(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.SetSkillsRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	skills := make([]service.SkillInput, 0, len(req.Skills))
	for _, s := range req.Skills {
		skills = append(skills, service.SkillInput{Name: s.Name, Level: s.Level})
	}

	user, err := h.users.SetSkills(c.Request.Context(), userID, skills)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Wallet обрабатывает GET /users/me/wallet.
func (h *ProfileHandler) Wallet(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	wallet, err := h.users.Wallet(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// Workers обрабатывает GET /users/workers — подбор исполнителей по навыкам.
func (h *ProfileHandler) Workers(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	var skills []string
	if raw := c.Query("skills"); raw != "" {
		skills = strings.Split(raw, ",")
	}

	workers, err := h.users.ListWorkers(c.Request.Context(), skills, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	for _, w := range workers {
		w.Wallet.Transactions = nil
		w.Wallet.Balance = 0
	}
	c.JSON(http.StatusOK, dto.WorkerListResponse{Workers: workers})
}
