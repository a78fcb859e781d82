package notify

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type NotificationController struct {
	Bus *Bus
}

func (nc *NotificationController) GetRecent(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Notifiche recuperate con successo",
		"data":    nc.Bus.Recent(limit),
	})
}

func RegisterRoutes(r *gin.Engine, bus *Bus) {
	controller := &NotificationController{Bus: bus}

	group := r.Group("/api/notifications")
	{
		group.GET("", controller.GetRecent)
	}
}
