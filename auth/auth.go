package auth

import (
	"fmt"
	"os"
	"strings"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

// Identity is issued by the surrounding web application; this service only
// verifies the token and reads who the caller is. The durable user row is
// resolved from the email lazily, so the token carries no database id.
type Identity struct {
	Name  string
	Email string
}

// IdentityMiddleware validates the session JWT and stores the caller's
// identity in the request context. Browser websocket clients cannot set
// headers on the upgrade request, so the token is also accepted as a
// query parameter.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		jwtSecret := os.Getenv("JWT_SECRET")

		tokenString := c.GetHeader("Authorization")
		tokenString = strings.TrimPrefix(tokenString, "Bearer ")
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(401, gin.H{"error": "Authorization required"})
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(401, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(401, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}

		email, ok := claims["userEmail"].(string)
		if !ok || email == "" {
			c.JSON(401, gin.H{"error": "Token missing user email"})
			c.Abort()
			return
		}
		name, _ := claims["userName"].(string)
		if name == "" {
			name = email
		}

		c.Set("userName", name)
		c.Set("userEmail", email)

		c.Next()
	}
}

// IdentityFromContext reads what IdentityMiddleware stored.
func IdentityFromContext(c *gin.Context) (Identity, bool) {
	email := c.GetString("userEmail")
	if email == "" {
		return Identity{}, false
	}
	return Identity{Name: c.GetString("userName"), Email: email}, true
}
