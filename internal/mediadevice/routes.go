package mediadevice

import (
	"smartmob-dashboard/internal/crud"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, mediaDeviceService MediaDeviceServiceAPI, res *crud.Resource[Record], gate gin.HandlerFunc) {
	controller := &MediaDeviceController{Service: mediaDeviceService, Resource: res}

	group := r.Group("/api/media-devices")
	group.Use(gate)
	{
		group.GET("", res.List)
		group.POST("", controller.Create)
		group.POST("/refresh", res.Refresh)
		group.GET("/:id", res.Detail)
		group.PUT("/:id", controller.Update)
		group.POST("/:id/delete-request", res.RequestDelete)
		group.DELETE("/:id", res.Delete)
	}
}
