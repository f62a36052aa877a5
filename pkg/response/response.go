package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/housing-board-api/pkg/errors"
)

// ErrorBody is the failure contract shared by every endpoint.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// MessageBody confirms a write. ID is set when the write created a row.
type MessageBody struct {
	Message string `json:"message"`
	ID      *int64 `json:"id,omitempty"`
}

// JSON sends a success response without caching.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// Message responds with a human-readable confirmation.
func Message(c *gin.Context, status int, message string) {
	JSON(c, status, MessageBody{Message: message})
}

// Created responds with HTTP 201 Created, the confirmation and the new identifier.
func Created(c *gin.Context, message string, id int64) {
	JSON(c, http.StatusCreated, MessageBody{Message: message, ID: &id})
}

// Error sends an error response carrying the underlying cause.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, ErrorBody{Error: appErr.Error(), Code: appErr.Code})
}
