package qualitycheck

import (
	"smartmob-dashboard/internal/crud"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, qualityCheckService QualityCheckServiceAPI, res *crud.Resource[Record], gate gin.HandlerFunc) {
	controller := &QualityCheckController{Service: qualityCheckService, Resource: res}

	group := r.Group("/api/quality-checks")
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
