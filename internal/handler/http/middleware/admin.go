package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/auth"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
)

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		if !jwt.ClaimsFromMap(claims).IsAdmin {
			response.HandleError(w, auth.ErrAdminPrivilegeRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SelfOrAdmin lets employees reach only routes whose {employeeID} is their
// own. Admins pass through.
func SelfOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, raw, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		claims := jwt.ClaimsFromMap(raw)
		if claims.IsAdmin {
			next.ServeHTTP(w, r)
			return
		}
		if claims.EmployeeID == nil || *claims.EmployeeID != chi.URLParam(r, "employeeID") {
			response.HandleError(w, auth.ErrEmployeeAccessForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}
