package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/yashrajoria/asset-inventory-backend/pkg/apperrors"
)

func TestFrom_UnwrapsApplicationError(t *testing.T) {
	wrapped := fmt.Errorf("import: %w", apperrors.BadRequest("campusId é obrigatório"))

	appErr := apperrors.From(wrapped)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
	assert.Equal(t, "campusId é obrigatório", appErr.Message)
}

func TestFrom_FallsBackToInternal(t *testing.T) {
	cause := errors.New("connection refused")

	appErr := apperrors.From(cause)
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.ErrorIs(t, appErr, cause)
}

func TestError_MessageIncludesCause(t *testing.T) {
	err := apperrors.Internal("Database query error", errors.New("timeout"))
	assert.Equal(t, "Database query error: timeout", err.Error())
	assert.JSONEq(t, `{"code":500,"message":"Database query error"}`, err.JSON())
}

func TestErrorMiddleware_RendersLastError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(apperrors.Conflict("Importação em andamento"))
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"Importação em andamento"}`, w.Body.String())
}
