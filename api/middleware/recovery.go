package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"earnings-digest/api/response"
	"earnings-digest/types"

	"github.com/gin-gonic/gin"
)

// Recovery panic 统一转成 UnexpectedError
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("http.panic_recovered",
					"error", r,
					"request_id", GetRequestID(c),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)
				response.Abort(c, types.Unexpected(fmt.Errorf("panic: %v", r)))
			}
		}()

		c.Next()
	}
}
