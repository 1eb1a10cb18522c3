package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDContextKey = "request_id"

// requestIDFromContext returns a stable request id for the request, minting
// one when the client did not send X-Request-ID.
func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

// userIDFromContext returns the authenticated user id, or nil on public
// routes.
func userIDFromContext(c *gin.Context) *int64 {
	val, ok := c.Get("userID")
	if !ok {
		return nil
	}
	userID, ok := val.(int)
	if !ok || userID == 0 {
		return nil
	}
	value := int64(userID)
	return &value
}
