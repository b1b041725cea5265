package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orbitlab/orbitboard/utils"
)

// RequestID tags every request with a correlation id, reusing the caller's
// when one is supplied, and echoes it in the response header.
func RequestID() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		rid := ctx.GetHeader(utils.RequestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		ctx.Writer.Header().Set(utils.RequestIDHeader, rid)
		ctx.Next()
	}
}
