package httpserver

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/and161185/stock-keeper/internal/auth"
	"github.com/and161185/stock-keeper/internal/convert"
)

// Logging logs request metadata; bodies are never logged.
func Logging(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", c.ClientIP()),
		)
	}
}

// Recover turns a handler panic into a 500.
func Recover(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, convert.ErrorResponse{Error: "internal"})
			}
		}()
		c.Next()
	}
}

// RequireKey accepts "Authorization: Bearer <key>" or an "apikey" header
// carrying a key signed with signKey.
func RequireKey(signKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok, ok := bearerToken(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, convert.ErrorResponse{Error: "no auth"})
			return
		}
		claims, err := auth.ParseKey(signKey, tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, convert.ErrorResponse{Error: "invalid key"})
			return
		}
		c.Request = c.Request.WithContext(WithRole(c.Request.Context(), claims.Role))
		c.Next()
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		const p = "Bearer "
		if len(h) <= len(p) || !strings.EqualFold(h[:len(p)], p) {
			return "", false
		}
		tok := strings.TrimSpace(h[len(p):])
		return tok, tok != ""
	}
	tok := strings.TrimSpace(r.Header.Get("apikey"))
	return tok, tok != ""
}
