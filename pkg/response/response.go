package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope is the JSON contract shared by every API route.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Success writes a 200 success envelope.
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// SuccessStatus writes a success envelope with an explicit status code.
func SuccessStatus(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// Fail writes a failure envelope with the given status code.
func Fail(c *gin.Context, status int, msg string) {
	c.JSON(status, Envelope{Success: false, Error: msg})
}
