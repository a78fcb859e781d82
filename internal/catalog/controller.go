package catalog

import (
	"net/http"
	"strings"

	"smartmob-dashboard/internal/backend"

	"github.com/gin-gonic/gin"
)

type CatalogController struct {
	Service CatalogServiceAPI
}

func (cc *CatalogController) GetLines(c *gin.Context) {
	rows, err := cc.Service.LineStations(c.Request.Context())
	if err != nil {
		c.JSON(backend.HTTPStatus(err), gin.H{"error": backend.ErrorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Linee e postazioni caricate con successo",
		"lines":   Lines(rows),
		"data":    rows,
	})
}

func (cc *CatalogController) GetStations(c *gin.Context) {
	line := strings.TrimSpace(c.Param("line"))
	if line == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "line is required"})
		return
	}

	rows, err := cc.Service.LineStations(c.Request.Context())
	if err != nil {
		c.JSON(backend.HTTPStatus(err), gin.H{"error": backend.ErrorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Postazioni caricate con successo",
		"line":     line,
		"stations": StationsForLine(rows, line),
	})
}

func (cc *CatalogController) GetCategories(c *gin.Context) {
	cats, err := cc.Service.Categories(c.Request.Context())
	if err != nil {
		c.JSON(backend.HTTPStatus(err), gin.H{"error": backend.ErrorMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Tipologie caricate con successo",
		"categories": cats,
	})
}
