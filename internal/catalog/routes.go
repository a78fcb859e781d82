package catalog

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, catalogService CatalogServiceAPI, gate gin.HandlerFunc) {
	catalogController := &CatalogController{Service: catalogService}

	catalogGroup := r.Group("/api/catalog")
	catalogGroup.Use(gate)
	{
		catalogGroup.GET("/lines", catalogController.GetLines)
		catalogGroup.GET("/lines/:line/stations", catalogController.GetStations)
		catalogGroup.GET("/categories", catalogController.GetCategories)
	}
}
