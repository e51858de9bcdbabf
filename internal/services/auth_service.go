package services

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// otpTTL is how long a password reset OTP stays valid.
const otpTTL = 15 * time.Minute

// resetRequest is a pending password reset OTP.
type resetRequest struct {
	otp       string
	expiresAt time.Time
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which the session token is valid

	resetMu sync.Mutex
	resets  map[string]resetRequest // keyed by email
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: 24 * time.Hour,
		resets:     make(map[string]resetRequest),
	}
}

// RegisterUser registers a new user, hashes their password, and saves them.
// Registration never grants a session; the client logs in separately.
func (s *AuthService) RegisterUser(user *models.User) error {
	if existingUser, err := s.userRepo.GetByEmail(user.Email); err == nil && existingUser != nil {
		return fmt.Errorf("email '%s' already registered", user.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	if user.Role == "" {
		user.Role = models.RoleCustomer
	}

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// LoginUser authenticates a user by email and returns the user plus a signed
// session token. Lookup failures and bad passwords collapse into the same
// error so the response never reveals whether the email exists.
func (s *AuthService) LoginUser(email, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid email or password")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
		"exp":     time.Now().Add(s.tokenDurat).Unix(),
		"iat":     time.Now().Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, tokenString, nil
}

// ValidateToken parses and validates a session token, returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// GetUser returns the user identified by id.
func (s *AuthService) GetUser(id string) (*models.User, error) {
	return s.userRepo.GetByID(id)
}

// ProfileUpdate carries the changeable profile fields. Empty fields are
// left as they are.
type ProfileUpdate struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	PhoneNumber string `json:"phoneNumber"`
	Address     string `json:"address"`
}

// UpdateProfile applies a partial update to the user's profile and returns
// the updated record.
func (s *AuthService) UpdateProfile(userID string, update ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user for profile update: %w", err)
	}

	if update.FirstName != "" {
		user.FirstName = update.FirstName
	}
	if update.LastName != "" {
		user.LastName = update.LastName
	}
	if update.PhoneNumber != "" {
		user.PhoneNumber = update.PhoneNumber
	}
	if update.Address != "" {
		user.Address = update.Address
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// RequestPasswordReset issues a one-time code for email. The code is returned
// so the delivery channel (mail, SMS) can be wired by the caller; for unknown
// emails the call succeeds without issuing anything, to avoid account
// enumeration.
func (s *AuthService) RequestPasswordReset(email string) (string, error) {
	if _, err := s.userRepo.GetByEmail(email); err != nil {
		log.Printf("Password reset requested for unknown email %s", email)
		return "", nil
	}

	otp := strings.ToUpper(uuid.New().String()[:6])

	s.resetMu.Lock()
	s.resets[email] = resetRequest{otp: otp, expiresAt: time.Now().Add(otpTTL)}
	s.resetMu.Unlock()

	return otp, nil
}

// ResetPassword exchanges a valid OTP for a new password. The OTP is
// single-use; it is consumed whether or not the update succeeds.
func (s *AuthService) ResetPassword(email, otp, newPassword string) error {
	s.resetMu.Lock()
	req, ok := s.resets[email]
	delete(s.resets, email)
	s.resetMu.Unlock()

	if !ok || req.otp != otp || time.Now().After(req.expiresAt) {
		return fmt.Errorf("invalid or expired reset code")
	}

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return fmt.Errorf("invalid or expired reset code")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)

	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	return nil
}
