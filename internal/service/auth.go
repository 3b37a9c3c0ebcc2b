package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/events"
	"github.com/Skotchmaster/bookstore/internal/hash"
	"github.com/Skotchmaster/bookstore/internal/logging"
	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	"github.com/Skotchmaster/bookstore/internal/tokens"
)

const (
	// bcrypt ignores input past this length.
	maxPasswordBytes = 72

	revokedCacheSize = 4096
)

type AuthService struct {
	Repo   *repo.GormRepo
	Tokens *tokens.Issuer
	Events events.Publisher

	// revoked remembers denylisted token ids. A revocation never expires
	// before its token does, so only positive lookups are cached.
	revoked *lru.Cache[string, struct{}]
}

func NewAuthService(r *repo.GormRepo, issuer *tokens.Issuer, pub events.Publisher) *AuthService {
	cache, err := lru.New[string, struct{}](revokedCacheSize)
	if err != nil {
		panic(err)
	}
	return &AuthService{Repo: r, Tokens: issuer, Events: pub, revoked: cache}
}

type AuthResult struct {
	Token  string
	Claims *tokens.Claims
	User   *models.User
}

// Redirect is where the client lands after signing in.
func (r *AuthResult) Redirect() string {
	if r.User.Role == models.RoleAdmin {
		return "/admin"
	}
	return "/"
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email = normalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || password == "" || name == "" {
		return nil, newError(ErrValidation, "Email, password, and name are required!")
	}
	if len(password) > maxPasswordBytes {
		return nil, newError(ErrValidation, "password is too long")
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Name:         name,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 400, "reason", "user already exist")
			return nil, newError(ErrConflict, "User Already Exists")
		}
		l.Error("register_error", "status", 500, "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.Cart = []models.CartItem{}

	res, err := s.issue(user)
	if err != nil {
		l.Error("register_error", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, user, "user_registered")
	return res, nil
}

func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signin")

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, newError(ErrValidation, "Email and password are required!")
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("signin_error", "status", 500, "error", err)
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err != nil || !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("signin_error", "status", 400, "reason", "invalid email or password")
		return nil, newError(ErrValidation, "invalid email or password")
	}
	if user.Cart, err = s.Repo.GetCart(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	res, err := s.issue(user)
	if err != nil {
		l.Error("signin_error", "status", 500, "error", err)
		return nil, err
	}

	s.publish(ctx, user, "user_signed_in")
	return res, nil
}

// Logout revokes the token until its natural expiry. Invalid or missing
// tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, tokenStr string) error {
	claims, err := s.Tokens.Parse(tokenStr)
	if err != nil {
		return nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil
	}

	if err := s.Repo.RevokeToken(ctx, claims.ID, userID, claims.ExpiresAt.Unix()); err != nil {
		logging.FromContext(ctx).Error("logout_error", "status", 500, "error", err)
		return fmt.Errorf("revoke token: %w", err)
	}
	if s.revoked != nil {
		s.revoked.Add(claims.ID, struct{}{})
	}

	events.Publish(ctx, s.Events, events.TopicUser, userID.String(), map[string]any{
		"type":    "user_logged_out",
		"user_id": userID.String(),
	})
	return nil
}

// Authenticate checks a session token: signature, expiry, the logout
// denylist, and that the account still exists.
func (s *AuthService) Authenticate(ctx context.Context, tokenStr string) (*tokens.Claims, error) {
	if tokenStr == "" {
		return nil, newError(ErrUnauthorized, "missing token")
	}
	claims, err := s.Tokens.Parse(tokenStr)
	if err != nil {
		return nil, newError(ErrUnauthorized, "invalid token")
	}

	revoked, err := s.isRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token: %w", err)
	}
	if revoked {
		return nil, newError(ErrUnauthorized, "token revoked")
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, newError(ErrUnauthorized, "invalid token")
	}
	if _, err := s.Repo.GetUser(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, newError(ErrUnauthorized, "User is not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return claims, nil
}

func (s *AuthService) isRevoked(ctx context.Context, jti string) (bool, error) {
	if s.revoked != nil && s.revoked.Contains(jti) {
		return true, nil
	}
	revoked, err := s.Repo.TokenRevoked(ctx, jti)
	if err != nil {
		return false, err
	}
	if revoked && s.revoked != nil {
		s.revoked.Add(jti, struct{}{})
	}
	return revoked, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.Repo.GetUserWithCart(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newError(ErrNotFound, "User Not Found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, claims, err := s.Tokens.Sign(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Claims: claims, User: user}, nil
}

func (s *AuthService) publish(ctx context.Context, user *models.User, typ string) {
	events.Publish(ctx, s.Events, events.TopicUser, user.ID.String(), map[string]any{
		"type":    typ,
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    user.Role,
	})
}
