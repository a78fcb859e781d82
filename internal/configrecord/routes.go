package configrecord

import (
	"smartmob-dashboard/internal/crud"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, recordService RecordServiceAPI, res *crud.Resource[Record], gate gin.HandlerFunc) {
	recordController := &RecordController{Service: recordService, Resource: res}

	recordGroup := r.Group("/api/records")
	recordGroup.Use(gate)
	{
		recordGroup.GET("", res.List)
		recordGroup.POST("", recordController.Create)
		recordGroup.POST("/refresh", res.Refresh)
		recordGroup.GET("/:id", res.Detail)
		recordGroup.PUT("/:id", recordController.UpdateValue)
		recordGroup.PUT("/:id/full", recordController.UpdateFull)
		recordGroup.POST("/:id/delete-request", res.RequestDelete)
		recordGroup.DELETE("/:id", res.Delete)
	}
}
