package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"outpost/internal/db/repositories"
	"outpost/pkg/models"
)

// AuthService handles API key authentication
type AuthService struct {
	repos *repositories.Repositories
}

func NewAuthService(repos *repositories.Repositories) *AuthService {
	return &AuthService{
		repos: repos,
	}
}

// GenerateAPIKey generates a new random API key
func GenerateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return "sk-" + hex.EncodeToString(bytes), nil
}

// AuthenticateAPIKey validates an API key and returns the associated user
func (a *AuthService) AuthenticateAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	apiKey = strings.TrimPrefix(apiKey, "Bearer ")

	user, err := a.repos.Users.GetByAPIKey(ctx, apiKey)
	if err != nil {
		return nil, fmt.Errorf("invalid API key")
	}

	return user, nil
}
