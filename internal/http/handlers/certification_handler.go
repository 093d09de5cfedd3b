package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/skillmarket-backend/internal/http/handlers/common"
	"github.com/ignatzorin/skillmarket-backend/internal/service"
)

// CertificationHandler предоставляет HTTP слой для сертификации навыков.
type CertificationHandler struct {
	certs *service.CertificationService
}

// NewCertificationHandler создаёт хэндлер.
func NewCertificationHandler(certs *service.CertificationService) *CertificationHandler {
	return &CertificationHandler{certs: certs}
}

// Certify обрабатывает POST /users/skills/certify.
// Ожидает multipart форму: поле skill_name и файл certificate.
func (h *CertificationHandler) Certify(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	skillName := c.PostForm("skill_name")
	if skillName == "" {
		common.RespondBadRequest(c, "поле skill_name обязательно")
		return
	}

	fileHeader, err := c.FormFile("certificate")
	if err != nil {
		common.RespondBadRequest(c, "файл certificate обязателен")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	skill, err := h.certs.CertifySkill(c.Request.Context(), userID, skillName, fileHeader.Filename, file)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, skill)
}
