package realtime

import (
	"smartmob-dashboard/internal/acquisition"
	"smartmob-dashboard/internal/middlewares"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, sync *Sync, acquisitions acquisition.AcquisitionServiceAPI, gate gin.HandlerFunc) {
	controller := &RealtimeController{Sync: sync, Acquisitions: acquisitions}

	group := r.Group("/api/realtime")
	group.Use(gate, middlewares.NoStore())
	{
		group.GET("", controller.GetSnapshot)
		group.GET("/export", controller.Export)
		group.GET("/latest-single", controller.GetLatestSingle)
		group.POST("/connect", controller.Connect)
		group.POST("/disconnect", controller.Disconnect)
		group.POST("/reconnect", controller.Reconnect)
		group.POST("/refresh", controller.Refresh)
		group.POST("/send", controller.Send)
	}
}

func RegisterHealthRoutes(r *gin.Engine, enabled bool, sync *Sync, acquisitions acquisition.AcquisitionServiceAPI) {
	controller := &HealthController{Enabled: enabled, Acquisitions: acquisitions, Sync: sync}
	r.GET("/api/health", middlewares.NoStore(), controller.GetHealth)
}
