package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/school-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/school-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
)

// RequireTeacher requires teacher or admin role
func RequireTeacher(next http.Handler) http.Handler {
	return requireRole(jwt.RoleTeacher, jwt.RoleAdmin)(next)
}

// RequireAdmin requires admin role
func RequireAdmin(next http.Handler) http.Handler {
	return requireRole(jwt.RoleAdmin)(next)
}

func requireRole(allowed ...jwt.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, jwt.ErrInvalidToken)
				return
			}

			roleStr, ok := claims["role"].(string)
			if !ok {
				response.HandleError(w, jwt.ErrTeacherRoleRequired)
				return
			}

			for _, role := range allowed {
				if jwt.Role(roleStr) == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, "Insufficient role: "+roleStr)
		})
	}
}
