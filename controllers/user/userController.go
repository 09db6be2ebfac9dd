package userController

import (
	"log"
	"quizapp/config"
	"quizapp/database"
	"quizapp/middleware"
	"quizapp/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func userView(user *models.User) fiber.Map {
	return fiber.Map{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"role":       user.Role,
		"is_active":  user.IsActive,
		"created_at": user.CreatedAt,
	}
}

// GetUsers lists users with pagination and optional search over email/name
func GetUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 10)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 10
	}
	search := c.Query("search")

	db := database.Database.Db.Model(&models.User{})
	if search != "" {
		term := "%" + search + "%"
		db = db.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", term, term, term)
	}

	var total int64
	db.Count(&total)

	var users []models.User
	if err := db.Order("created_at desc").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
	}

	views := make([]fiber.Map, len(users))
	for i := range users {
		views[i] = userView(&users[i])
	}

	totalPages := (total + int64(perPage) - 1) / int64(perPage)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully!", fiber.Map{
		"users": views,
		"pagination": fiber.Map{
			"page":        page,
			"per_page":    perPage,
			"total_pages": totalPages,
			"total_users": total,
		},
	})
}

// GetUser returns a single user by id
func GetUser(c *fiber.Ctx) error {
	targetID := c.Locals("targetUserID").(int)

	var user models.User
	if err := database.Database.Db.First(&user, targetID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User fetched successfully!", userView(&user))
}

// CreateUser creates an account on behalf of another user
func CreateUser(c *fiber.Ctx) error {
	reqData := new(struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
		IsActive  *bool  `json:"is_active"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	db := database.Database.Db

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
	isActive := true
	if reqData.IsActive != nil {
		isActive = *reqData.IsActive
	}

	newUser := models.User{
		Email:     reqData.Email,
		Password:  string(hashedPassword),
		FirstName: reqData.FirstName,
		LastName:  reqData.LastName,
		Role:      role,
		IsActive:  isActive,
	}
	if err := db.Create(&newUser).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create user!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User created successfully!", userView(&newUser))
}

// UpdateUser applies a partial update to a user
func UpdateUser(c *fiber.Ctx) error {
	targetID := c.Locals("targetUserID").(int)

	db := database.Database.Db

	var user models.User
	if err := db.First(&user, targetID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	reqData := new(struct {
		Email     *string `json:"email"`
		Password  *string `json:"password"`
		FirstName *string `json:"first_name"`
		LastName  *string `json:"last_name"`
		Role      *string `json:"role"`
		IsActive  *bool   `json:"is_active"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
	}

	if reqData.Email != nil && *reqData.Email != user.Email {
		if err := db.Where("email = ?", *reqData.Email).First(&models.User{}).Error; err == nil {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
		}
		user.Email = *reqData.Email
	}
	if reqData.FirstName != nil {
		user.FirstName = *reqData.FirstName
	}
	if reqData.LastName != nil {
		user.LastName = *reqData.LastName
	}
	if reqData.Role != nil {
		user.Role = *reqData.Role
	}
	if reqData.IsActive != nil {
		user.IsActive = *reqData.IsActive
	}
	if reqData.Password != nil {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*reqData.Password), config.AppConfig.SaltRound)
		if err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
		}
		user.Password = string(hashedPassword)
	}

	if err := db.Save(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update user!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User updated successfully!", userView(&user))
}

// DeleteUser removes a user account
func DeleteUser(c *fiber.Ctx) error {
	adminID := c.Locals("userId").(uint)

	targetID := c.Locals("targetUserID").(int)
	if uint(targetID) == adminID {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "You cannot delete your own account!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.First(&user, targetID).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	if err := db.Delete(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete user!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User deleted successfully!", nil)
}
