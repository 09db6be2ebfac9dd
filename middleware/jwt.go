package middleware

import (
	"fmt"
	"quizapp/config"
	"quizapp/database"
	"quizapp/models"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Token lifetimes. The refresh token only ever carries the identity claims,
// never role-scoped access.
const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 30 * 24 * time.Hour
)

// GenerateJWT generates a signed token for the user. Every token carries a
// jti so logout can revoke it via the blocklist.
func GenerateJWT(userID uint, email, firstName, lastName, role string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"userId":     userID,
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
		"role":       role,
		"jti":        uuid.NewString(),
		"iat":        time.Now().Unix(),
		"exp":        time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	jwtSecret := []byte(config.AppConfig.JWTKey)

	return token.SignedString(jwtSecret)
}

// JWTMiddleware is a middleware to check for valid JWT token in the request
func JWTMiddleware(c *fiber.Ctx) error {
	// Get the token from the Authorization header
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": "Missing or invalid Authorization header",
		})
	}

	// The token should be prefixed with "Bearer "
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": "Invalid Authorization header format",
		})
	}

	tokenString := authHeader[len("Bearer "):]

	// Parse and validate the token
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		jwtSecret := []byte(config.AppConfig.JWTKey)
		return jwtSecret, nil
	})

	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": "Invalid or expired token",
		})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["userId"] == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  false,
			"message": "Invalid token payload",
		})
	}

	// Reject revoked tokens
	if jti, _ := claims["jti"].(string); jti != "" {
		var revoked models.TokenBlocklist
		if err := database.Database.Db.Where("jti = ?", jti).First(&revoked).Error; err == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  false,
				"message": "Token has been revoked",
			})
		}
		c.Locals("jti", jti)
	}

	// JWT claims are stored as float64, so cast it
	userID := claims["userId"].(float64)
	c.Locals("userId", uint(userID))
	if exp, ok := claims["exp"].(float64); ok {
		c.Locals("tokenExp", time.Unix(int64(exp), 0))
	}

	return c.Next()
}

func JsonResponse(c *fiber.Ctx, statusCode int, status bool, message string, data interface{}) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"data":    data,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}
