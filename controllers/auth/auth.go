package authController

import (
	"log"
	"quizapp/config"
	"quizapp/database"
	"quizapp/middleware"
	"quizapp/models"
	"quizapp/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// Register creates a new user account
func Register(c *fiber.Ctx) error {
	reqData := new(struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	role := reqData.Role
	if role != "admin" {
		role = "user"
	}

	newUser := models.User{
		Email:     reqData.Email,
		Password:  string(hashedPassword),
		FirstName: reqData.FirstName,
		LastName:  reqData.LastName,
		Role:      role,
	}

	if err := db.Create(&newUser).Error; err != nil {
		log.Printf("Error saving user to database: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to register user!", nil)
	}

	go utils.SendWelcomeEmail(newUser.FirstName+" "+newUser.LastName, newUser.Email)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully.", fiber.Map{
		"id":         newUser.ID,
		"email":      newUser.Email,
		"first_name": newUser.FirstName,
		"last_name":  newUser.LastName,
		"role":       newUser.Role,
	})
}

// Login verifies credentials and issues access and refresh tokens
func Login(c *fiber.Ctx) error {
	reqData := new(struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Failed to parse request body!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_active = ?", reqData.Email, true).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}

	accessToken, err := middleware.GenerateJWT(user.ID, user.Email, user.FirstName, user.LastName, user.Role, middleware.AccessTokenTTL)
	if err != nil {
		log.Printf("Error generating access token: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to login!", nil)
	}
	refreshToken, err := middleware.GenerateJWT(user.ID, user.Email, user.FirstName, user.LastName, user.Role, middleware.RefreshTokenTTL)
	if err != nil {
		log.Printf("Error generating refresh token: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to login!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user": fiber.Map{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"role":       user.Role,
		},
	})
}

// Me returns the authenticated user's profile
func Me(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.First(&user, userID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User fetched successfully!", fiber.Map{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       user.Role,
	})
}

// Logout revokes the presented token by blocklisting its jti
func Logout(c *fiber.Ctx) error {
	jti, ok := c.Locals("jti").(string)
	if !ok || jti == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Token carries no id, cannot revoke!", nil)
	}

	expiresAt := time.Now().Add(middleware.RefreshTokenTTL)
	if exp, ok := c.Locals("tokenExp").(time.Time); ok {
		expiresAt = exp
	}

	entry := models.TokenBlocklist{Jti: jti, ExpiresAt: expiresAt}
	if err := database.Database.Db.Create(&entry).Error; err != nil {
		log.Printf("Error blocklisting token: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Logout failed!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Successfully logged out.", fiber.Map{
		"logout_at": time.Now().UTC().Format(time.RFC3339),
	})
}
