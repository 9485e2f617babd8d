package health

import (
	"net/http"

	"github.com/blackai-app/backend/pkg/sdk"
	"github.com/gin-gonic/gin"
)

// Return status of the API
func getStatus(c *gin.Context) {
	res := sdk.NewSuccessResponse(http.StatusOK, "OK", nil)
	c.JSON(res.AsGinResponse())
}
