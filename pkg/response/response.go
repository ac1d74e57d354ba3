// Package response provides JSON helpers matching the public API's error
// shape: failures are `{"error": "<message>"}`, successes return the payload
// as-is.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error envelope for every failing response.
type ErrorBody struct {
	Error string `json:"error"`
}

// OK sends a 200 JSON response with the payload as the body.
func OK(c *gin.Context, payload interface{}) {
	c.JSON(http.StatusOK, payload)
}

// BadRequest sends 400 with an error message.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorBody{Error: msg})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, ErrorBody{Error: msg})
}

// NotFound sends 404.
func NotFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, ErrorBody{Error: msg})
}

// Internal sends 500.
func Internal(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, ErrorBody{Error: msg})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, msg string) {
	c.JSON(http.StatusServiceUnavailable, ErrorBody{Error: msg})
}
