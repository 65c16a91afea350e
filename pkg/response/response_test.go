package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(fn func(c *gin.Context)) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	fn(c)
	return w
}

func TestEnvelope(t *testing.T) {
	t.Run("success carries data", func(t *testing.T) {
		w := record(func(c *gin.Context) { OK(c, gin.H{"value": 42}) })
		assert.Equal(t, http.StatusOK, w.Code)

		var body Body
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Success)
		assert.Empty(t, body.Error)
		assert.NotNil(t, body.Data)
	})

	t.Run("failure carries error only", func(t *testing.T) {
		w := record(func(c *gin.Context) { Conflict(c, "seat taken") })
		assert.Equal(t, http.StatusConflict, w.Code)

		var body Body
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, "seat taken", body.Error)
		assert.Nil(t, body.Data)
	})
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		fn   func(c *gin.Context)
		want int
	}{
		{"created", func(c *gin.Context) { Created(c, nil) }, http.StatusCreated},
		{"bad request", func(c *gin.Context) { BadRequest(c, "x") }, http.StatusBadRequest},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "x") }, http.StatusUnauthorized},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "x") }, http.StatusForbidden},
		{"not found", func(c *gin.Context) { NotFound(c, "x") }, http.StatusNotFound},
		{"internal", func(c *gin.Context) { Internal(c, "x") }, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, record(tt.fn).Code)
		})
	}
}
