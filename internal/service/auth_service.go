package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"

	"github.com/pedrostorrios-lang/padaria-gestao/internal/entity"
)

// RolePolicy decides how a stored role is checked against the role a user
// asks to log in with. Observed deployments disagree on the rule, so it is
// explicit configuration rather than a guess.
type RolePolicy string

const (
	// MasterBypass grants any requested role to a master account and
	// otherwise requires an exact match.
	MasterBypass RolePolicy = "master_bypass"
	// ExactMatch requires the stored role to equal the requested one.
	ExactMatch RolePolicy = "exact_match"
)

// ErrDenied is returned when credentials are wrong or the role policy
// rejects the requested role.
var ErrDenied = errors.New("access denied")

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type JwtCustomClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// UserStore is the account storage the service authenticates against.
// *repository.UserRepository satisfies it.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	CreateUser(ctx context.Context, user *entity.User) (*entity.User, error)
}

// SessionStore caches issued tokens for their lifetime. *redis.Client
// satisfies it.
type SessionStore interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService authenticates users and issues session tokens.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	secret   []byte
	policy   RolePolicy
}

func NewAuthService(users UserStore, sessions SessionStore, secret string, policy RolePolicy) *AuthService {
	if policy == "" {
		policy = MasterBypass
	}
	return &AuthService{users: users, sessions: sessions, secret: []byte(secret), policy: policy}
}

// Authorize checks credentials against the stored user and resolves the
// requested role under the configured policy. It returns the granted role
// or ErrDenied; it never issues a token.
func (s *AuthService) Authorize(ctx context.Context, cred Credentials, requestedRole string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, cred.Username)
	if err != nil {
		return "", ErrDenied
	}
	if user.Password != cred.Password {
		return "", ErrDenied
	}
	switch s.policy {
	case ExactMatch:
		if user.Role != requestedRole {
			return "", ErrDenied
		}
	default: // MasterBypass
		if user.Role != entity.RoleMaster && user.Role != requestedRole {
			return "", ErrDenied
		}
	}
	return requestedRole, nil
}

// Register stores a new account. The role must be one the authorization
// contract understands.
func (s *AuthService) Register(ctx context.Context, user entity.User) (*entity.User, error) {
	if user.Username == "" || user.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}
	switch user.Role {
	case entity.RoleMaster, entity.RoleGerente, entity.RoleVendedor:
	default:
		return nil, fmt.Errorf("unknown role %q", user.Role)
	}
	return s.users.CreateUser(ctx, &user)
}

// Login authorizes the credentials and issues a signed session token,
// cached for the token lifetime.
func (s *AuthService) Login(ctx context.Context, cred Credentials, requestedRole string) (string, error) {
	role, err := s.Authorize(ctx, cred, requestedRole)
	if err != nil {
		return "", err
	}

	claims := &JwtCustomClaims{
		Username: cred.Username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)),
		},
	}
	tkn := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t, err := tkn.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	if err := s.sessions.Set(ctx, sessionKey(cred.Username), t, time.Hour*24).Err(); err != nil {
		return "", err
	}
	return t, nil
}

// ValidateSession retrieves the cached session token for a user. A logged
// out user has no cached token, which revokes any JWT still in the wild.
func (s *AuthService) ValidateSession(ctx context.Context, username string) (string, error) {
	token, err := s.sessions.Get(ctx, sessionKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("session not found")
		}
		return "", err
	}
	return token, nil
}

// Logout drops the cached session.
func (s *AuthService) Logout(ctx context.Context, username string) error {
	return s.sessions.Del(ctx, sessionKey(username)).Err()
}

func sessionKey(username string) string {
	return fmt.Sprintf("session:%s", username)
}
