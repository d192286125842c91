package server

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/metrobox/forestry-pots/internal/identity/domain"
	"github.com/metrobox/forestry-pots/internal/logger"
	"go.uber.org/zap"
)

const claimsContextKey = "session_claims"

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	log = log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := append(logger.TraceFields(c.Request.Context()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
		if c.Writer.Status() >= 500 {
			fields = append(fields, zap.Any("headers", logger.MaskHeaders(c.Request.Header)))
			log.Error("request failed", fields...)
			return
		}
		log.Info("request", fields...)
	}
}

// AuthRequired verifies the bearer token and stashes the session claims.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		parts := strings.Fields(header)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := s.identitySvc.VerifyToken(parts[1])
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// AdminRequired gates admin routes; it must run after AuthRequired.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := s.sessionClaims(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if claims.Role != identitydomain.RoleAdmin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func (s *Server) sessionClaims(c *gin.Context) (*identitydomain.TokenClaims, bool) {
	value, exists := c.Get(claimsContextKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*identitydomain.TokenClaims)
	return claims, ok
}
