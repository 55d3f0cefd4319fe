package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stephanos-estetic/backend/internal/domain/contact"
	"github.com/stephanos-estetic/backend/internal/domain/shared"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/dto"
	"github.com/stephanos-estetic/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func runHandleError(err error) *httptest.ResponseRecorder {
	h := &BaseHandler{}
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { h.HandleError(c, err) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w
}

func TestHandleError_DomainErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped", fmt.Errorf("load: %w", shared.ErrInsufficientStock), http.StatusUnprocessableEntity, dto.ErrCodeInsufficientStock},
		{"field code", shared.NewDomainError("INVALID_EMAIL", "Invalid email"), http.StatusBadRequest, dto.ErrCodeInvalidInput},
		{"slot", shared.NewDomainError("SLOT_INACTIVE", "Gone"), http.StatusUnprocessableEntity, dto.ErrCodeSlotUnavailable},
		{"payment", shared.NewDomainError("PAYMENT_UNAVAILABLE", "Down"), http.StatusServiceUnavailable, dto.ErrCodePaymentUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := runHandleError(tt.err)
			assert.Equal(t, tt.status, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestHandleError_ContactValidation(t *testing.T) {
	w := runHandleError(&contact.ValidationError{Fields: []contact.FieldError{
		{Field: "email", Message: "Invalid email format"},
		{Field: "message", Message: "This field is required"},
	}})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "email", resp.Error.Details[0].Field)
}

func TestHandleError_Unexpected(t *testing.T) {
	w := runHandleError(errors.New("connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "connection reset")
}

func TestBindJSON(t *testing.T) {
	type body struct {
		SKU string `json:"sku" binding:"required"`
		Qty int    `json:"qty" binding:"min=1"`
	}
	h := &BaseHandler{}
	r := gin.New()
	r.POST("/x", func(c *gin.Context) {
		var req body
		if !h.bindJSON(c, &req) {
			return
		}
		h.Success(c, req)
	})

	send := func(payload string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("valid", func(t *testing.T) {
		w := send(`{"sku":"OIL-1","qty":2}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("validation details", func(t *testing.T) {
		w := send(`{"qty":0}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		fields := map[string]bool{}
		for _, d := range resp.Error.Details {
			fields[d.Field] = true
		}
		assert.True(t, fields["sku"])
		assert.True(t, fields["qty"])
	})

	t.Run("malformed", func(t *testing.T) {
		w := send(`{"sku":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeInvalidJSON, resp.Error.Code)
	})
}

func TestUUIDParam(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.GET("/x/:id", func(c *gin.Context) {
		if _, ok := h.uuidParam(c, "id"); ok {
			h.NoContent(c)
		}
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x/6f1c1b8e-8a55-4a57-9d0f-3f4a3c7f2b10", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPagination(t *testing.T) {
	page, size := pagination(0, 0, 20)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = pagination(3, 5, 20)
	assert.Equal(t, 3, page)
	assert.Equal(t, 5, size)
}
