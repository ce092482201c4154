package respond

import "github.com/gin-gonic/gin"

// JSON writes a JSON response with the given status. Kept alongside Error so
// handlers go through one package for every response shape.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}
