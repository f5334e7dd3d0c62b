package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"lms_backend/internal/repository/memory"
	"lms_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-test-secret-test-secret"

func token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := util.GenerateJWT(userID, role, userID+"@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.String(http.StatusOK, util.GetUserFromContext(c).UserID)
	})

	tests := []struct {
		name   string
		header string
		query  string
		code   int
	}{
		{"bearer", "Bearer " + token(t, "u1", util.RoleStudent), "", http.StatusOK},
		{"query", "", "?token=" + token(t, "u1", util.RoleStudent), http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"bad signature", "Bearer " + token(t, "u1", util.RoleStudent) + "x", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "u1", w.Body.String())
			}
		})
	}
}

func TestRoleMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AuthMiddleware(testSecret), RoleMiddleware(util.RoleInstructor), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for role, code := range map[string]int{
		util.RoleAdmin:      http.StatusOK,
		util.RoleInstructor: http.StatusOK,
		util.RoleStudent:    http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, "u1", role))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, code, w.Code, role)
	}
}

func TestAuditRecordsSuccessfulWrites(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.New()
	r := gin.New()
	admin := r.Group("/api/enrollments", AuthMiddleware(testSecret), Audit(store, "enrollment"))
	admin.PUT("/:id", func(c *gin.Context) {
		c.Set(AuditChangesKey, map[string]string{"status": "DROPPED"})
		c.Status(http.StatusOK)
	})
	admin.POST("", func(c *gin.Context) {
		c.Set(AuditEntityIDKey, "e-new")
		c.Status(http.StatusCreated)
	})
	admin.DELETE("/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	admin.GET("/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(method, path string) {
		req := httptest.NewRequest(method, path, strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer "+token(t, "admin-1", util.RoleAdmin))
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	send(http.MethodPut, "/api/enrollments/e1")
	send(http.MethodPost, "/api/enrollments")
	send(http.MethodDelete, "/api/enrollments/e2")
	send(http.MethodGet, "/api/enrollments/e1")

	logs := store.AuditLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, "PUT /api/enrollments/:id", logs[0].Action)
	assert.Equal(t, "e1", logs[0].EntityID)
	assert.Equal(t, "admin-1", logs[0].UserID)
	assert.JSONEq(t, `{"status":"DROPPED"}`, string(logs[0].Changes))
	assert.Equal(t, "e-new", logs[1].EntityID)
	assert.Equal(t, http.StatusCreated, logs[1].StatusCode)
}
