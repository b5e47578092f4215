package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestTimeout bounds the overall resolution budget for one request
// (cache + persistence + upstream + rate-limit wait). When the budget is
// exceeded, blocking calls down the chain observe the canceled context and
// surface an Unavailable error instead of hanging.
func RequestTimeout(budget time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), budget)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
