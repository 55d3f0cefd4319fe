package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Username string `json:"username" binding:"required,max=10"`
	Password string `json:"password" binding:"required,min=8"`
	Email    string `json:"email" binding:"omitempty,email"`
	Qty      int    `json:"qty" binding:"omitempty,min=1"`
}

func bindDetails(t *testing.T, body string) []dto.ValidationDetail {
	t.Helper()
	SetupValidator()

	var details []dto.ValidationDetail
	router := gin.New()
	router.POST("/login", func(c *gin.Context) {
		var form loginForm
		details = ValidationDetails(c.ShouldBindJSON(&form))
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), req)
	return details
}

func TestValidationDetails_EmptyRequiredFields(t *testing.T) {
	details := bindDetails(t, `{"username":"","password":""}`)

	require.Len(t, details, 2)
	assert.Equal(t, dto.ValidationDetail{Field: "username", Message: "This field is required"}, details[0])
	assert.Equal(t, dto.ValidationDetail{Field: "password", Message: "This field is required"}, details[1])
}

func TestValidationDetails_Messages(t *testing.T) {
	details := bindDetails(t, `{"username":"averyverylongname","password":"short","email":"nope","qty":-2}`)

	got := map[string]string{}
	for _, d := range details {
		got[d.Field] = d.Message
	}
	assert.Equal(t, map[string]string{
		"username": "Must be at most 10 characters",
		"password": "Must be at least 8 characters",
		"email":    "Invalid email format",
		"qty":      "Must be at least 1",
	}, got)
}

func TestValidationDetails_Valid(t *testing.T) {
	assert.Empty(t, bindDetails(t, `{"username":"maria","password":"secret123"}`))
}

func TestValidationDetails_NotValidationError(t *testing.T) {
	assert.Nil(t, ValidationDetails(errors.New("boom")))
	assert.Nil(t, ValidationDetails(nil))
}
