package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/school-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(t *testing.T, svc *jwt.JWTService, roleCheck func(http.Handler) http.Handler) http.Handler {
	t.Helper()
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return jwtauth.Verifier(svc.JWTAuth())(AuthRequired(svc.JWTAuth())(roleCheck(ok)))
}

func doRequest(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	svc, err := jwt.NewJWTService("middleware-secret", "1h")
	require.NoError(t, err)
	h := protected(t, svc, RequireTeacher)

	assert.Equal(t, http.StatusUnauthorized, doRequest(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(h, "not-a-token").Code)

	sse, _, err := svc.GenerateSSEToken("teacher-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, doRequest(h, sse).Code, "sse tokens are not access tokens")

	access, _, err := svc.GenerateAccessToken("teacher-1", jwt.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, doRequest(h, access).Code)
}

func TestRequireAdmin(t *testing.T) {
	svc, err := jwt.NewJWTService("middleware-secret", "1h")
	require.NoError(t, err)
	h := protected(t, svc, RequireAdmin)

	teacher, _, err := svc.GenerateAccessToken("teacher-1", jwt.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, doRequest(h, teacher).Code)

	admin, _, err := svc.GenerateAccessToken("admin-1", jwt.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, doRequest(h, admin).Code)

	teacherRoute := protected(t, svc, RequireTeacher)
	assert.Equal(t, http.StatusNoContent, doRequest(teacherRoute, admin).Code)
}
