package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Harish222600/sonica-backend/internal/domain"
)

const principalKey = "principal"

// Auth проверяет JWT bearer-токен и кладёт Principal в контекст запроса.
// Выпуск токенов лежит на внешнем auth-сервисе; здесь только проверка подписи.
func Auth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		principal, err := parseToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func parseToken(tokenString, secret string) (domain.Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return domain.Principal{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, fmt.Errorf("unexpected claims type")
	}

	userID, _ := claims["user_id"].(string)
	roleClaim, _ := claims["role"].(string)
	if userID == "" {
		return domain.Principal{}, fmt.Errorf("user_id claim is missing")
	}

	role := domain.Role(roleClaim)
	if !role.Valid() {
		role = domain.RoleCustomer
	}

	return domain.Principal{ID: userID, Role: role}, nil
}

// Principal достаёт аутентифицированного субъекта из контекста запроса.
func Principal(c *gin.Context) domain.Principal {
	value, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}
	}
	principal, _ := value.(domain.Principal)
	return principal
}

// RequireRole пропускает только перечисленные роли.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := Principal(c)
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "insufficient permissions",
		})
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}
