package middleware

import (
	apiError "collaborative-docs-backend/internal/errors"
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next() // Execute the handler first

		// detect any errors
		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			var apiErr *apiError.APIError

			// if it's not our custom APIError treat as Internal
			if !errors.As(err, &apiErr) {
				apiErr = apiError.Internal(err)
			}

			if apiErr.Status >= 500 {
				logger.Error("request failed",
					zap.String("path", c.Request.URL.Path),
					zap.Error(apiErr.Internal),
				)
			} else {
				logger.Info("request rejected",
					zap.String("path", c.Request.URL.Path),
					zap.Int("status", apiErr.Status),
					zap.String("message", apiErr.Message),
				)
			}

			c.AbortWithStatusJSON(apiErr.Status, apiErr)
		}
	}
}
