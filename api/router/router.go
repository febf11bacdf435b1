package router

import (
	"earnings-digest/api/handler"
	"earnings-digest/api/middleware"
	"github.com/gin-gonic/gin"
)

// New 组装中间件和路由
func New(summaryH *handler.SummaryHandler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.Recovery())
	RegisterRoutes(r, summaryH)
	return r
}

func RegisterRoutes(r *gin.Engine, summaryH *handler.SummaryHandler) {
	r.GET("/health", handler.Health)

	api := r.Group("/api/v1")
	{
		summarize := api.Group("/summarize")
		{
			summarize.POST("", summaryH.Summarize)
			summarize.GET("/schema", summaryH.Schema)
		}
	}
}
