package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ignatzorin/skillmarket-backend/internal/http/middleware"
)

func TestPaymentHandler_CreateOrder_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/contracts/:id/payments/order", handler.CreateOrder)

	req, _ := http.NewRequest("POST", "/contracts/"+uuid.NewString()+"/payments/order", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_CreateOrder_InvalidContractID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/contracts/:id/payments/order", fakeAuth(uuid.New()), handler.CreateOrder)

	req, _ := http.NewRequest("POST", "/contracts/not-a-uuid/payments/order", strings.NewReader(`{"amount": 100}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentHandler_Verify_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/contracts/:id/payments/verify", handler.Verify)

	req, _ := http.NewRequest("POST", "/contracts/"+uuid.NewString()+"/payments/verify", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentHandler_Verify_BadBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &PaymentHandler{payments: nil}
	r.POST("/contracts/:id/payments/verify", fakeAuth(uuid.New()), handler.Verify)

	req, _ := http.NewRequest("POST", "/contracts/"+uuid.NewString()+"/payments/verify", strings.NewReader(`{`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// fakeAuth подставляет пользователя в контекст вместо полного AuthMiddleware.
func fakeAuth(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		c.Set(middleware.ContextRoleKey, "employer")
		c.Next()
	}
}
