package middleware

import (
	"net/http"
	"strings"
	"time"

	"fieldbook/internal/shared/config"
	"fieldbook/internal/shared/utils/response"
	"fieldbook/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Role names understood by the route guards. Token issuance belongs to the
// external access-control collaborator; the engine only checks claims.
const (
	RoleStaff = "STAFF"
	RoleAdmin = "ADMIN"
)

// SessionTokenHeader carries the anonymous holder identity used by the
// slot lock manager. Unauthenticated holds are allowed, so this is the
// only identity a lock requires.
const SessionTokenHeader = "X-Session-Token"

// JWTAuth creates a JWT authentication middleware
func JWTAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "authorization header format must be Bearer {token}", nil, nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWT.Secret), nil
		})

		if err != nil || !token.Valid {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			c.Set("user_id", claims["user_id"])
			c.Set("user_role", claims["role"])
		}

		c.Next()
	}
}

// RequireRoles checks if the authenticated user has any of the required roles
func RequireRoles(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "user role not found in context", nil, nil)
			c.Abort()
			return
		}

		roleStr, _ := userRole.(string)
		for _, role := range requiredRoles {
			if roleStr == role {
				c.Next()
				return
			}
		}

		response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
		c.Abort()
	}
}

// RequireStaff requires a staff or admin token
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(RoleStaff, RoleAdmin)
}

// SessionToken ensures every request carries a session token. Clients that
// do not send one get a fresh token minted and echoed back, so a browser
// can keep using it for the lock-extend-book sequence.
func SessionToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(SessionTokenHeader)
		if token == "" {
			token = uuid.New().String()
		}
		c.Set("session_token", token)
		c.Header(SessionTokenHeader, token)
		c.Next()
	}
}

// RequestLogger logs each request through the shared slog wrapper
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.LogHTTPRequest(c, time.Since(start))
	}
}
