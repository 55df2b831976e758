package apperr

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/streamspace-dev/mcp-gateway/internal/logger"
)

// ErrorHandler renders the last error attached to the Gin context as a
// structured JSON response, matching the status code carried on AppError.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := As(err)
		if !ok {
			appErr = InternalServer(err)
		}

		log := logger.HTTP()
		if appErr.StatusCode >= 500 {
			log.Error().Err(err).Str("code", string(appErr.Code)).Msg("request failed")
		} else {
			log.Warn().Str("code", string(appErr.Code)).Msg("request rejected")
		}

		if !c.Writer.Written() {
			c.JSON(appErr.StatusCode, appErr.ToResponse())
		}
	}
}

// Recovery converts a panic in any downstream handler into a 500 response
// instead of crashing the process.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.HTTP().Error().Interface("panic", r).Msg("recovered from panic")
				c.AbortWithStatusJSON(http.StatusInternalServerError, New(CodeInternalServer, "internal server error").ToResponse())
			}
		}()
		c.Next()
	}
}

// AbortWithError attaches err to the context and aborts the handler chain;
// ErrorHandler renders the final response.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
