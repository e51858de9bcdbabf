package handlers

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/services"
)

// UserHandler handles HTTP requests for accounts and sessions. Sessions ride
// in an HTTP-only cookie; the response bodies carry a message plus, where
// relevant, the user.
type UserHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the user routes with the Fiber app. requireSession
// guards the endpoints that need an authenticated caller.
func (h *UserHandler) RegisterRoutes(router fiber.Router, requireSession fiber.Handler) {
	users := router.Group("/users")
	users.Post("/register", h.HandleRegister)
	users.Post("/login", h.HandleLogin)
	users.Post("/logout", h.HandleLogout)
	users.Post("/request-reset", h.HandleRequestReset)
	users.Post("/reset-password", h.HandleResetPassword)
	users.Get("/verify", requireSession, h.HandleVerify)
	users.Put("/profile", requireSession, h.HandleUpdateProfile)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	FirstName   string `json:"firstName" validate:"required,min=2,max=100"`
	LastName    string `json:"lastName" validate:"required,min=2,max=100"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,min=6,max=32"`
	Address     string `json:"address" validate:"omitempty,max=255"`
	Password    string `json:"password" validate:"required,min=6"`
}

// HandleRegister handles new account registration.
func (h *UserHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	user := models.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Password:    req.Password,
		Role:        models.RoleCustomer,
	}

	if err := h.authService.RegisterUser(&user); err != nil {
		log.Printf("Error registering user: %v", err)
		if strings.Contains(err.Error(), "already registered") {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"message": err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not register user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created successfully. Please log in.",
		"user":    user,
	})
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin handles login and sets the session cookie.
func (h *UserHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Email and password are required",
		})
	}

	user, token, err := h.authService.LoginUser(req.Email, req.Password)
	if err != nil {
		log.Printf("Error during login for %s: %v", req.Email, err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Invalid email or password",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(24 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user,
	})
}

// HandleLogout clears the session cookie. It succeeds whether or not the
// caller had a valid session, so clients can always scrub local state.
func (h *UserHandler) HandleLogout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}

// HandleVerify returns the user for the current session cookie.
func (h *UserHandler) HandleVerify(c *fiber.Ctx) error {
	user, err := h.authService.GetUser(middleware.UserID(c))
	if err != nil {
		log.Printf("Error loading user during verify: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Session user no longer exists",
		})
	}
	return c.JSON(fiber.Map{
		"message": "Session valid",
		"user":    user,
	})
}

// HandleUpdateProfile applies a partial profile update for the session user.
func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var update services.ProfileUpdate
	if err := c.BodyParser(&update); err != nil {
		log.Printf("Error parsing profile update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	user, err := h.authService.UpdateProfile(middleware.UserID(c), update)
	if err != nil {
		log.Printf("Error updating profile: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update profile",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"user":    user,
	})
}

// HandleRequestReset issues a password reset code. The response is the same
// for known and unknown emails.
func (h *UserHandler) HandleRequestReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Email is required",
		})
	}

	otp, err := h.authService.RequestPasswordReset(req.Email)
	if err != nil {
		log.Printf("Error requesting password reset: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not process reset request",
		})
	}
	if otp != "" {
		// Development server: no mail transport, so the code goes to the log.
		log.Printf("Password reset code for %s: %s", req.Email, otp)
	}

	return c.JSON(fiber.Map{
		"message": "If the email exists, a reset code has been sent",
	})
}

// HandleResetPassword exchanges a reset code for a new password.
func (h *UserHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Email, code, and new password are required",
		})
	}

	if err := h.authService.ResetPassword(req.Email, req.OTP, req.NewPassword); err != nil {
		log.Printf("Error resetting password for %s: %v", req.Email, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid or expired reset code",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Password has been reset. Please log in.",
	})
}
