package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ok writes the success envelope the admin page expects.
func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}
