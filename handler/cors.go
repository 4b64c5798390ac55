package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS stamps the permissive cross-origin headers every response must
// carry so browser players accept the relayed content.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Range")
		c.Next()
	}
}

func OptionsHandler(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
