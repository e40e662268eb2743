package middleware

import (
	"collaborative-docs-backend/internal/auth"
	"collaborative-docs-backend/internal/domain"
	"collaborative-docs-backend/internal/errors"
	"strings"

	"github.com/gin-gonic/gin"
)

type UserProvider interface {
	GetUserByID(id uint64) (*domain.User, error)
}

type Auth struct {
	UserService UserProvider
}

func tokenFromRequest(ctx *gin.Context) string {
	if authHeader := ctx.GetHeader("Authorization"); authHeader != "" {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	// websocket clients can't set headers; they pass the token as a query param
	return ctx.Query("token")
}

// AuthMiddleWare rejects requests without a valid token and sets user_id
func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := tokenFromRequest(ctx)
		if token == "" {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		parsedToken, err := auth.VerifyJWT(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		userID, err := auth.UserIDFromToken(parsedToken)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		user, err := m.UserService.GetUserByID(userID)
		if err != nil || !user.IsActive {
			ctx.Error(errors.Unauthorized("Invalid User ID!", err))
			ctx.Abort()
			return
		}

		ctx.Set("user_id", userID)
		ctx.Set("jwt_token", token)
		ctx.Next()
	}
}

// OptionalAuthMiddleware sets user_id when a valid token is present and
// continues anonymously otherwise. Used by read paths that serve both
// authenticated and public traffic (document get, search).
func (m *Auth) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := tokenFromRequest(ctx)
		if token == "" {
			ctx.Next()
			return
		}

		parsedToken, err := auth.VerifyJWT(token)
		if err != nil {
			ctx.Next()
			return
		}

		userID, err := auth.UserIDFromToken(parsedToken)
		if err != nil {
			ctx.Next()
			return
		}

		if user, err := m.UserService.GetUserByID(userID); err == nil && user.IsActive {
			ctx.Set("user_id", userID)
		}
		ctx.Next()
	}
}
