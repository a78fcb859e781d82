package acquisition

import (
	"smartmob-dashboard/internal/middlewares"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, acquisitionService AcquisitionServiceAPI, images ImageService, gate gin.HandlerFunc) {
	controller := &AcquisitionController{Service: acquisitionService, Images: images}

	group := r.Group("/api/acquisizioni")
	group.Use(gate, middlewares.NoStore())
	{
		group.GET("", controller.GetPage)
		group.GET("/latest", controller.GetLatest)
		group.GET("/latest-single/line/:line/station/:station", controller.GetLatestSingle)
		group.GET("/filter", controller.GetFilter)
		group.GET("/range", controller.GetRange)
		group.GET("/export", controller.Export)
		group.GET("/:id", controller.GetByID)
		group.GET("/:id/images/:slot", controller.GetImage)
		group.GET("/:id/archive", controller.GetImageArchive)
	}
}
