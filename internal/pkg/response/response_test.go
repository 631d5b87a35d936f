package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfmark/internal/domain"
)

type envelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestFromError_MapsKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.Validation("username is required"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{domain.Conflict("taken"), http.StatusConflict, "CONFLICT"},
		{domain.Auth("bad token"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.Forbidden("not yours"), http.StatusForbidden, "FORBIDDEN"},
		{domain.NotFound("missing"), http.StatusNotFound, "NOT_FOUND"},
		{domain.Storage(errors.New("dial tcp"), "blob put failed"), http.StatusBadGateway, "STORAGE_ERROR"},
		{domain.Render(errors.New("eof"), "not a pdf"), http.StatusUnprocessableEntity, "RENDER_ERROR"},
		{fmt.Errorf("wrapped: %w", domain.NotFound("missing")), http.StatusNotFound, "NOT_FOUND"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			FromError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			var body envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tc.code, body.Error.Code)
		})
	}
}

func TestFromError_HidesInternalMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FromError(c, errors.New("pq: password authentication failed for user postgres"))

	assert.NotContains(t, w.Body.String(), "postgres")
	assert.Len(t, c.Errors, 1)
}

func TestSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, http.StatusCreated, gin.H{"id": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":1}}`, w.Body.String())
}
