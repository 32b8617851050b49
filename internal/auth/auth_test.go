package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outpost/internal/db"
	"outpost/internal/db/repositories"
)

func setupAuth(t *testing.T) (*AuthService, string) {
	t.Helper()
	ctx := context.Background()

	tdb, err := db.NewTest(t)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tdb.Close() })

	repos := repositories.New(tdb)
	svc := NewAuthService(repos)

	apiKey, err := GenerateAPIKey()
	require.NoError(t, err)
	_, err = repos.Users.Create(ctx, "keyholder", false, &apiKey)
	require.NoError(t, err)

	return svc, apiKey
}

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "sk-"))
	assert.Len(t, key, 3+64)

	other, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestAuthenticateAPIKey(t *testing.T) {
	svc, apiKey := setupAuth(t)
	ctx := context.Background()

	user, err := svc.AuthenticateAPIKey(ctx, apiKey)
	require.NoError(t, err)
	assert.Equal(t, "keyholder", user.Username)

	// A leading Bearer prefix is tolerated
	user, err = svc.AuthenticateAPIKey(ctx, "Bearer "+apiKey)
	require.NoError(t, err)
	assert.Equal(t, "keyholder", user.Username)

	_, err = svc.AuthenticateAPIKey(ctx, "")
	assert.Error(t, err)

	_, err = svc.AuthenticateAPIKey(ctx, "sk-wrong")
	assert.Error(t, err)
}
