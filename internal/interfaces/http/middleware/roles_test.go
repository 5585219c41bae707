package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/dealership/backend/internal/domain/workflow"
)

func newRoleRouter(roles ...workflow.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/cars", func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(ActorKey, workflow.Actor{ID: uuid.New(), Role: workflow.Role(role)})
		}
	}, RequireRoles(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestRequireRoles(t *testing.T) {
	router := newRoleRouter(workflow.RoleStaff, workflow.RoleAdmin)

	t.Run("allows listed role", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/cars", nil)
		req.Header.Set("X-Test-Role", "staff")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects unlisted role", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/cars", nil)
		req.Header.Set("X-Test-Role", "buyer")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "FORBIDDEN")
	})

	t.Run("rejects unauthenticated request", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/cars", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
