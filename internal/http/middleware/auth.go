package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/kaical-backend/internal/http/response"
	"github.com/yungbote/kaical-backend/internal/platform/ctxutil"
	"github.com/yungbote/kaical-backend/internal/platform/firebase"
	"github.com/yungbote/kaical-backend/internal/platform/logger"
	"github.com/yungbote/kaical-backend/internal/services"
)

type AuthMiddleware struct {
	log      *logger.Logger
	verifier firebase.TokenVerifier
	users    services.UserService
}

func NewAuthMiddleware(log *logger.Logger, verifier firebase.TokenVerifier, users services.UserService) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, verifier: verifier, users: users}
}

// RequireAuth verifies the Firebase ID token and attaches the stored user.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		id, err := am.verifier.VerifyIDToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("Token rejected", "error", err)
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing or invalid token"))
			return
		}
		u, err := am.users.EnsureUser(c.Request.Context(), id)
		if err != nil {
			response.RespondAPIError(c, am.log, err)
			return
		}
		if u == nil || u.ID == uuid.Nil {
			response.RespondError(c, http.StatusForbidden, "forbidden", errors.New("forbidden"))
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			UserID:      u.ID,
			FirebaseUID: id.UID,
			Email:       id.Email,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
