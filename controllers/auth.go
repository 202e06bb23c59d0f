package controllers

import (
	"strings"

	"autoecole_go/config"
	"autoecole_go/middleware"
	"autoecole_go/models"
	"autoecole_go/utils"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AuthController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Redis *redis.Client
	Audit *middleware.ActivityLogger
}

// RegisterRequest represents the registration request body. Fiber's body
// parser accepts it form- or JSON-encoded alike.
type RegisterRequest struct {
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	FirstName   string `json:"first_name" form:"first_name"`
	LastName    string `json:"last_name" form:"last_name"`
	Phone       string `json:"phone" form:"phone"`
	Address     string `json:"address" form:"address"`
	DateOfBirth string `json:"date_of_birth" form:"date_of_birth"`
	Gender      string `json:"gender" form:"gender"`
	Role        string `json:"role" form:"role"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Register creates a new account and issues a bearer token.
func (ac *AuthController) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	req.Email = strings.ToLower(utils.SanitizeString(req.Email))
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email, password, first name and last name are required",
		})
	}
	if !utils.IsValidRole(req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role",
		})
	}
	if !utils.IsValidGender(req.Gender) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid gender",
		})
	}

	var existing models.User
	if err := ac.DB.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Email already registered",
		})
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to hash password",
		})
	}

	user := models.User{
		Email:       req.Email,
		Password:    hashedPassword,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		Address:     req.Address,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Role:        req.Role,
		Active:      true,
	}

	if err := ac.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create user",
		})
	}

	token, err := middleware.GenerateToken(&user, ac.Cfg)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	ac.Audit.Log(c, "CREATE", "users", user.ID, fiber.Map{
		"email": user.Email,
		"role":  user.Role,
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
		"user": fiber.Map{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"role":       user.Role,
		},
	})
}

// Login authenticates by email/password and issues a bearer token.
func (ac *AuthController) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var user models.User
	if err := ac.DB.Where("email = ? AND active = ?", strings.ToLower(req.Email), true).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Incorrect email or password",
		})
	}

	if err := utils.CheckPassword(req.Password, user.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Incorrect email or password",
		})
	}

	token, err := middleware.GenerateToken(&user, ac.Cfg)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	ac.Audit.Log(c, "LOGIN", "auth", user.ID, fiber.Map{
		"email": user.Email,
		"role":  user.Role,
	})

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
		"user": fiber.Map{
			"id":         user.ID,
			"email":      user.Email,
			"first_name": user.FirstName,
			"last_name":  user.LastName,
			"role":       user.Role,
		},
	})
}

// Logout revokes the presented token for the configured token lifetime.
func (ac *AuthController) Logout(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if authHeader == "" || tokenString == authHeader {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid authorization header",
		})
	}

	if err := middleware.BlacklistToken(ac.Redis, tokenString, ac.Cfg.JWTExpiresIn); err != nil {
		// Revocation is best effort without Redis; don't block logout.
		ac.Audit.Log(c, "LOGOUT", "auth", 0, fiber.Map{"error": err.Error()})
	}

	if user, err := middleware.GetCurrentUser(c); err == nil {
		ac.Audit.Log(c, "LOGOUT", "auth", user.ID, fiber.Map{"email": user.Email})
	}

	return c.JSON(fiber.Map{"message": "Logged out successfully"})
}

// GetProfile returns the current user's profile
func (ac *AuthController) GetProfile(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(fiber.Map{"user": user})
}
