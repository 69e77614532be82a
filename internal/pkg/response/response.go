package response

import "github.com/gin-gonic/gin"

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, data)
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, data)
}

func NoContent(c *gin.Context) {
	c.Status(204)
}

func Error(c *gin.Context, status int, code int, message string) {
	c.JSON(status, gin.H{"error": APIError{Code: code, Message: message}})
}
