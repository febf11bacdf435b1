package response

import (
	"earnings-digest/types"

	"github.com/gin-gonic/gin"
	"net/http"
)

// ErrorBody 失败时的响应体
type ErrorBody struct {
	Error string `json:"error"`
}

// Success 直接返回数据本身，不再包一层
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Fail 按错误分类决定状态码，只把可展示的 Message 返回给客户端
func Fail(c *gin.Context, err error) {
	ce := types.Classify(err)
	c.JSON(ce.Status(), ErrorBody{Error: ce.Message})
}

// Abort 用于中间件，阻止后续 handler 执行
func Abort(c *gin.Context, err error) {
	ce := types.Classify(err)
	c.AbortWithStatusJSON(ce.Status(), ErrorBody{Error: ce.Message})
}
