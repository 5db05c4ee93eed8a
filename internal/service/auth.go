// Package service contains the business logic layer of the application.
//
// Handlers parse HTTP and write responses; services enforce the rules;
// repositories talk to the database. Services accept primitives and return
// domain errors from internal/apperror — they have zero knowledge of HTTP,
// which is what keeps them testable with plain function calls and fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/postboard/internal/apperror"
	"github.com/sakif/postboard/internal/auth"
	"github.com/sakif/postboard/internal/model"
	"github.com/sakif/postboard/internal/repository"
)

// Password policy. The minimum length and the forbidden-substring rule apply
// to the PLAINTEXT the user submits, before hashing — a stored hash is never
// checked against the policy (and never re-hashed).
const (
	MinPasswordLength = 7
	MaxNameLength     = 100

	forbiddenPasswordSubstring = "password"
)

// validate is a shared validator instance. validator.New is expensive
// (reflection caching), so the package keeps one.
var validate = validator.New()

// AuthService handles signup, login, logout, and profile updates.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record and the issued JWT so the handler can
// respond with both in one step.
type AuthResult struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// Signup registers a new account and logs it in.
//
// Rules:
//   - name must be non-empty
//   - email must be syntactically valid and not already registered
//   - password must satisfy the policy (min length 7, must not contain
//     "password" case-insensitively)
//
// The password is stored only as a bcrypt hash. The issued token is
// persisted as the user's current session token, so the account is
// immediately authenticated.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}

	// Create surfaces DuplicateEmail on a taken address.
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user signed up",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a fresh token.
//
// The new token overwrites the user's stored token, which makes any prior
// session stale at the auth gate — one active session per user.
//
// Unknown email and wrong password both return the same Unauthorized error
// so the response doesn't reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// Logout clears the user's stored token. Every outstanding token for the
// user then fails the gate's stored-token comparison.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.UpdateToken(ctx, userID, ""); err != nil {
		return fmt.Errorf("service/auth: clearing token for user %s: %w", userID, err)
	}

	s.logger.Info("user logged out", slog.String("userID", userID))
	return nil
}

// GetUserByID returns the user for the given internal ID.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.users.GetByID(ctx, id)
}

// UpdateProfile applies a whitelisted set of changes to the user's own
// record. Allowed keys: name, email, password. Any other key rejects the
// whole request — same contract as the public API has always had.
//
// A new password must pass the policy and is re-hashed; the existing hash is
// replaced, never fed back through the hasher.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, updates map[string]string) (*model.User, error) {
	if len(updates) == 0 {
		return nil, apperror.ValidationFailed("", "no updates provided")
	}
	for key := range updates {
		switch key {
		case "name", "email", "password":
		default:
			return nil, apperror.ValidationFailed(key, fmt.Sprintf("field %q cannot be updated", key))
		}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name, ok := updates["name"]; ok {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name is required")
		}
		if len(name) > MaxNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("name must be %d characters or less", MaxNameLength))
		}
		user.Name = name
	}

	if email, ok := updates["email"]; ok {
		email = strings.TrimSpace(email)
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		user.Email = email
	}

	if password, ok := updates["password"]; ok {
		if err := validatePassword(password); err != nil {
			return nil, err
		}
		hash, err := s.passwords.Hash(password)
		if err != nil {
			return nil, fmt.Errorf("service/auth: hashing password: %w", err)
		}
		user.PasswordHash = hash
	}

	// Update surfaces DuplicateEmail if the new email belongs to someone else.
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("profile updated", slog.String("userID", user.ID))
	return user, nil
}

// issueToken generates a JWT for the user and persists it as their single
// current session token. The two steps belong together: a generated token
// that isn't stored would be rejected by the gate's stored-token check.
func (s *AuthService) issueToken(ctx context.Context, user *model.User) (string, error) {
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return "", fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	if err := s.users.UpdateToken(ctx, user.ID, token); err != nil {
		return "", fmt.Errorf("service/auth: storing token for user %s: %w", user.ID, err)
	}
	user.Token = token

	return token, nil
}

func validateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return apperror.ValidationFailed("email", "email is invalid")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if strings.Contains(strings.ToLower(password), forbiddenPasswordSubstring) {
		return apperror.ValidationFailed("password",
			`password cannot contain "password"`)
	}
	return nil
}
