package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("GeneratesWhenAbsent", func(t *testing.T) {
		r := gin.New()
		r.Use(CorrelationID())

		var seen string
		r.GET("/", func(c *gin.Context) {
			seen = GetCorrelationID(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		r.ServeHTTP(w, req)

		require.NotEmpty(t, seen)
		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, w.Header().Get(CorrelationIDHeader))
	})

	t.Run("PreservesIncomingHeader", func(t *testing.T) {
		r := gin.New()
		r.Use(CorrelationID())

		var seen string
		r.GET("/", func(c *gin.Context) {
			seen = GetCorrelationID(c)
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, "corr-42")
		r.ServeHTTP(w, req)

		assert.Equal(t, "corr-42", seen)
		assert.Equal(t, "corr-42", w.Header().Get(CorrelationIDHeader))
	})
}

func TestGetCorrelationID_MissingContextKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, "", GetCorrelationID(c))
}
