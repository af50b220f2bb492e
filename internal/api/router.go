package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mobvis/od-backend/internal/config"
	"github.com/mobvis/od-backend/internal/handler"
	"github.com/mobvis/od-backend/internal/middleware"
)

// Handlers bundles the HTTP handlers wired into the router
type Handlers struct {
	Build   *handler.BuildHandler
	Flow    *handler.FlowHandler
	Hourly  *handler.HourlyHandler
	Heatmap *handler.HeatmapHandler
	Meta    *handler.MetaHandler
	Label   *handler.LabelHandler
	Queue   *handler.QueueHandler
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.RateLimit(300, time.Minute))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "OD Backend API is running",
		})
	})

	api := r.Group("/api")
	{
		// 查询接口
		api.GET("/years", h.Build.GetYears)
		api.GET("/flows", h.Flow.GetFlows)
		api.GET("/hourly", h.Hourly.GetHourly)
		api.GET("/heat", h.Heatmap.GetHeatmap)
		api.GET("/low_filter_debug", h.Queue.GetLowFilterDebug)

		// 元数据接口
		api.GET("/metadata", h.Meta.GetMetadata)
		api.GET("/meta/cities", h.Meta.GetCities)
		api.GET("/meta/one", h.Meta.GetOne)

		// 标注接口
		api.GET("/labels", h.Label.GetLabels)
		api.GET("/labels/stats", h.Label.GetStats)
		api.GET("/label_queue", h.Queue.GetQueue)

		// 写接口，可选 JWT 保护
		auth := api.Group("")
		auth.Use(middleware.Auth(cfg.JWTSecret))
		{
			auth.POST("/build", h.Build.PostBuild)
			auth.POST("/label", h.Label.PostLabel)
			auth.POST("/label_queue/start", h.Queue.PostStart)
			auth.POST("/label_queue/advance", h.Queue.PostAdvance)
			auth.POST("/label_queue/back", h.Queue.PostBack)
			auth.POST("/label_queue/set", h.Queue.PostSet)
			auth.POST("/label_queue/reset", h.Queue.PostReset)
		}
	}

	return r
}
