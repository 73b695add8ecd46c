package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the body of every non-2xx response.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Ack is the body of write endpoints that return nothing else.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// JSON writes body with the given status.
func JSON(c *gin.Context, status int, body interface{}) {
	c.JSON(status, body)
}

// OK sends a 200 response.
func OK(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}

// Created sends a 201 response.
func Created(c *gin.Context, body interface{}) {
	c.JSON(http.StatusCreated, body)
}

// Success sends a 200 {success: true} acknowledgement.
func Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Ack{Success: true, Message: message})
}

// Error sends an error response.
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorBody{Success: false, Error: message})
}

// AbortWithError writes an error response and stops the handler chain.
func AbortWithError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Success: false, Error: message})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden sends a 403 error response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, message)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

// Conflict sends a 409 error response.
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, message)
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
