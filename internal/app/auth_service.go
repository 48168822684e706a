package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"assessment-service/internal/domain"
)

const (
	loginIDPrefix   = "KN"
	loginIDAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	loginIDRandLen  = 4
	loginIDAttempts = 5
	minPasswordLen  = 6
)

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user domain.User) (string, error)
}

// SignupInput is an admin-panel account registration.
type SignupInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// AuthService handles account creation and credential checks.
type AuthService struct {
	users           UserRepository
	tokens          TokenIssuer
	allowPrivileged bool
	logger          *zap.Logger
	now             func() time.Time
}

func NewAuthService(users UserRepository, tokens TokenIssuer, allowPrivileged bool, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{users: users, tokens: tokens, allowPrivileged: allowPrivileged, logger: logger, now: time.Now}
}

// Signup registers an email account. Superadmin can never be self-assigned and
// other privileged roles only when explicitly allowed.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return domain.User{}, domain.Invalidf("email is required")
	}
	if len(in.Password) < minPasswordLen {
		return domain.User{}, domain.Invalidf("password must be at least %d characters", minPasswordLen)
	}
	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return domain.User{}, domain.Invalidf("unknown role %q", role)
	}
	if role == domain.RoleSuperAdmin || (role.Privileged() && !s.allowPrivileged) {
		return domain.User{}, domain.ErrForbidden
	}
	return s.registerEmail(ctx, email, in.Name, in.Password, role)
}

// Bootstrap registers an email account of any role. Only operator tooling calls it.
func (s *AuthService) Bootstrap(ctx context.Context, in SignupInput) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return domain.User{}, domain.Invalidf("email is required")
	}
	if len(in.Password) < minPasswordLen {
		return domain.User{}, domain.Invalidf("password must be at least %d characters", minPasswordLen)
	}
	if !in.Role.Valid() {
		return domain.User{}, domain.Invalidf("unknown role %q", in.Role)
	}
	return s.registerEmail(ctx, email, in.Name, in.Password, in.Role)
}

func (s *AuthService) registerEmail(ctx context.Context, email, name, password string, role domain.Role) (domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("lookup email: %w", err)
	}

	return s.create(ctx, domain.User{Name: name, Email: email, Role: role}, password)
}

// Login checks an email/password pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return LoginResult{}, err
	}
	return s.authenticate(user, password)
}

// UserLogin checks a generated login id and password.
func (s *AuthService) UserLogin(ctx context.Context, loginID, password string) (LoginResult, error) {
	user, err := s.users.GetByLoginID(ctx, strings.ToUpper(strings.TrimSpace(loginID)))
	if err != nil {
		return LoginResult{}, err
	}
	return s.authenticate(user, password)
}

// CreateUser provisions a learner account with a generated login id.
func (s *AuthService) CreateUser(ctx context.Context, name, password string) (domain.User, error) {
	return s.CreateWithRole(ctx, name, password, domain.RoleUser)
}

// CreateWithRole provisions an account of any role behind a generated login id.
// It backs both the admin endpoint and the create-user command.
func (s *AuthService) CreateWithRole(ctx context.Context, name, password string, role domain.Role) (domain.User, error) {
	if strings.TrimSpace(name) == "" {
		return domain.User{}, domain.Invalidf("name is required")
	}
	if len(password) < minPasswordLen {
		return domain.User{}, domain.Invalidf("password must be at least %d characters", minPasswordLen)
	}
	if !role.Valid() {
		return domain.User{}, domain.Invalidf("unknown role %q", role)
	}

	for i := 0; i < loginIDAttempts; i++ {
		loginID, err := s.generateLoginID()
		if err != nil {
			return domain.User{}, err
		}
		user, err := s.create(ctx, domain.User{Name: name, LoginID: loginID, Role: role}, password)
		if errors.Is(err, domain.ErrLoginIDTaken) {
			s.logger.Debug("login id collision", zap.String("loginId", loginID))
			continue
		}
		return user, err
	}
	return domain.User{}, fmt.Errorf("generate login id: %w", domain.ErrLoginIDTaken)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *AuthService) create(ctx context.Context, user domain.User, password string) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.ID = uuid.NewString()
	user.PasswordHash = string(hash)
	user.CreatedAt = s.now()
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *AuthService) authenticate(user domain.User, password string) (LoginResult, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	return LoginResult{Token: token, User: user}, nil
}

// generateLoginID returns ids like KN2025A3D4.
func (s *AuthService) generateLoginID() (string, error) {
	suffix, err := gonanoid.Generate(loginIDAlphabet, loginIDRandLen)
	if err != nil {
		return "", fmt.Errorf("generate login id: %w", err)
	}
	return loginIDPrefix + strconv.Itoa(s.now().Year()) + suffix, nil
}
