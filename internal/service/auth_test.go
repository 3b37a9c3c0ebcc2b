package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/models"
)

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.auth.Register(ctx, " Reader@Example.com ", "secret", "Reader")
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, "reader@example.com", res.User.Email)
	assert.Equal(t, models.RoleUser, res.User.Role)
	assert.NotEqual(t, "secret", res.User.PasswordHash)
	assert.Equal(t, res.User.ID.String(), res.Claims.Subject)
	assert.WithinDuration(t, time.Now().Add(4*7*24*time.Hour), res.Claims.ExpiresAt.Time, time.Minute)

	_, err = env.auth.Register(ctx, "reader@example.com", "other", "Other")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, "User Already Exists", Message(err))

	assert.Equal(t, []string{"user_registered"}, env.events.Types(events.TopicUser))
}

func TestAuthService_Register_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name, email, password, userName string
	}{
		{name: "empty email", email: "", password: "secret", userName: "Reader"},
		{name: "empty password", email: "a@b.c", password: "", userName: "Reader"},
		{name: "empty name", email: "a@b.c", password: "secret", userName: " "},
		{name: "long password", email: "a@b.c", password: strings.Repeat("x", 73), userName: "Reader"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.auth.Register(ctx, tt.email, tt.password, tt.userName)
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestAuthService_SignIn(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.auth.Register(ctx, "reader@example.com", "secret", "Reader")
	require.NoError(t, err)

	res, err := env.auth.SignIn(ctx, "READER@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "/", res.Redirect())
	assert.NotNil(t, res.User.Cart)

	for _, creds := range [][2]string{{"reader@example.com", "wrong"}, {"nobody@example.com", "secret"}} {
		_, err := env.auth.SignIn(ctx, creds[0], creds[1])
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, "invalid email or password", Message(err))
	}

	_, err = env.auth.SignIn(ctx, "", "secret")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_SignIn_AdminRedirect(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.auth.Register(ctx, "admin@example.com", "secret", "Admin")
	require.NoError(t, err)
	require.NoError(t, env.repo.DB.Model(&models.User{}).Where("id = ?", res.User.ID).Update("role", models.RoleAdmin).Error)

	res, err = env.auth.SignIn(ctx, "admin@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "/admin", res.Redirect())
	assert.Equal(t, models.RoleAdmin, res.Claims.Role)
}

func TestAuthService_Authenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.auth.Register(ctx, "reader@example.com", "secret", "Reader")
	require.NoError(t, err)

	claims, err := env.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", claims.Email)

	_, err = env.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.auth.Authenticate(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	ghost, _, err := env.auth.Tokens.Sign(uuid.New(), "ghost@example.com", models.RoleUser)
	require.NoError(t, err)
	_, err = env.auth.Authenticate(ctx, ghost)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Authenticate_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.auth.Register(ctx, "reader@example.com", "secret", "Reader")
	require.NoError(t, err)

	env.auth.Tokens.Now = func() time.Time { return time.Now().Add(5 * 7 * 24 * time.Hour) }
	_, err = env.auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.auth.Register(ctx, "reader@example.com", "secret", "Reader")
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, res.Token))
	_, err = env.auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "token revoked", Message(err))

	require.NoError(t, env.auth.Logout(ctx, res.Token))
	require.NoError(t, env.auth.Logout(ctx, "garbage"))
	require.NoError(t, env.auth.Logout(ctx, ""))

	purged, err := env.repo.PurgeRevokedTokens(ctx, res.Claims.ExpiresAt.Unix()+1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)
}

func TestAuthService_RevocationIsCached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.auth.Register(ctx, "reader@example.com", "secret", "Reader")
	require.NoError(t, err)
	require.NoError(t, env.auth.Logout(ctx, res.Token))

	require.NoError(t, env.repo.DB.Where("jti = ?", res.Claims.ID).Delete(&models.RevokedToken{}).Error)
	_, err = env.auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Profile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res, err := env.auth.Register(ctx, "reader@example.com", "secret", "Reader")
	require.NoError(t, err)
	book := env.book(t, "Dune", 10, 3)
	require.NoError(t, env.cart.AddToCart(ctx, res.User.ID, book.ID))

	user, err := env.auth.Profile(ctx, res.User.ID)
	require.NoError(t, err)
	require.Len(t, user.Cart, 1)
	assert.Equal(t, book.ID, user.Cart[0].BookID)

	_, err = env.auth.Profile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}
