package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/7858072571/task-manager/database"
)

// AuthService validates credentials against the stored user table and
// issues session tokens. Token-based sessions are synthesized fresh on
// every check and never written back into the user table; they coexist
// with the local credential store.
type AuthService struct {
	users     *database.UserService
	jwtSecret []byte
}

func NewAuthService(users *database.UserService) *AuthService {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-default-secret-key-change-in-production"
	}

	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
	}
}

// Login validates an email/password pair and returns the matching user
// together with a session token. Returns database.ErrNotFound when the
// credentials match no stored user.
func (s *AuthService) Login(email, password string) (*database.User, string, error) {
	user, err := s.users.ValidateLogin(email, password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.CreateJWT(user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Register creates a new local account and returns it with a session
// token. Returns database.ErrEmailTaken for duplicate emails.
func (s *AuthService) Register(name, email, password, avatar string) (*database.User, string, error) {
	user, err := s.users.RegisterUser(name, email, password, avatar)
	if err != nil {
		return nil, "", err
	}

	token, err := s.CreateJWT(user.Email)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// SessionUser synthesizes a user for a token-based session. The id is the
// session email, or a generated placeholder when the email is empty; the
// role is fixed. The result is never persisted.
func (s *AuthService) SessionUser(email string) database.User {
	id := email
	if id == "" {
		id = "session-" + database.NewID()
	}
	return database.User{
		ID:        id,
		Name:      email,
		Email:     email,
		Role:      "user",
		Avatar:    database.PlaceholderAvatar,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// CreateJWT generates a JWT token for a user
func (s *AuthService) CreateJWT(email string) (string, error) {
	// Create token with claims
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(time.Hour * 24 * 7).Unix(), // 7 days
	})

	// Sign the token
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyJWT verifies a JWT token and returns the email
func (s *AuthService) VerifyJWT(tokenString string) (string, error) {
	// Parse the token
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	// Check if token is valid
	if !token.Valid {
		return "", errors.New("invalid token")
	}

	// Extract claims
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}

	// Get email from claims
	email, ok := claims["email"].(string)
	if !ok {
		return "", errors.New("email claim missing")
	}

	return email, nil
}
