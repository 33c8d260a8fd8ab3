package mockapi

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const ctxUserID = "UserID"

// Claims is the access token payload
type Claims struct {
	UserID int `json:"uid"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(u user) (string, error) {
	now := s.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: u.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.secret)
}

func (s *Server) parseToken(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

// auth requires a valid bearer token and stores the user id on the context
func (s *Server) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			abort(c, http.StatusUnauthorized, "Not authenticated")
			return
		}

		claims, err := s.parseToken(strings.TrimSpace(raw))
		if err != nil {
			s.logger.Debug("rejected token", "err", err)
			abort(c, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Next()
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", "err", err, "stack", string(debug.Stack()))
				abort(c, http.StatusInternalServerError, "unexpected server error occurred")
			}
		}()

		c.Next()
	}
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := s.clock()
		c.Next()

		s.logger.Debug("request",
			"request_id", c.GetHeader("X-Request-ID"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", s.clock().Sub(start).Round(time.Microsecond),
		)
	}
}

// abort answers with the FastAPI error shape {"detail": "..."}
func abort(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

func userID(c *gin.Context) int {
	return c.GetInt(ctxUserID)
}
