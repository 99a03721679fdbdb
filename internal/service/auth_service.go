package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/playschool-admin/internal/models"
	"github.com/noah-isme/playschool-admin/internal/repository"
	appErrors "github.com/noah-isme/playschool-admin/pkg/errors"
)

const minPasswordLength = 6

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

// AuthConfig defines configuration for session tokens.
type AuthConfig struct {
	Secret        string
	SessionExpiry time.Duration
	Issuer        string
}

// AuthService is the local identity provider. It owns the console's current
// session and notifies listeners whenever it changes.
type AuthService struct {
	repo      authUserRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time

	mu        sync.Mutex
	current   *models.Session
	listeners map[int]func(*models.Session)
	nextID    int
	revoked   map[string]time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.SessionExpiry <= 0 {
		config.SessionExpiry = 24 * time.Hour
	}
	return &AuthService{
		repo:      repo,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
		listeners: make(map[int]func(*models.Session)),
		revoked:   make(map[string]time.Time),
	}
}

// OnSessionChange registers cb, emits the current session to it at once and
// then on every change. The returned func unregisters it.
func (s *AuthService) OnSessionChange(cb func(*models.Session)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = cb
	current := copySession(s.current)
	s.mu.Unlock()

	cb(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// SignUp registers a new account and signs it in.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)
	if err := s.validator.Var(email, "required,email"); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidEmail.Code, appErrors.ErrInvalidEmail.Status, appErrors.ErrInvalidEmail.Message)
	}
	if len(password) < minPasswordLength {
		return nil, appErrors.Clone(appErrors.ErrWeakPassword, "")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrAuthFailure.Code, appErrors.ErrAuthFailure.Status, appErrors.ErrAuthFailure.Message)
	}

	now := s.now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, appErrors.Clone(appErrors.ErrEmailAlreadyInUse, "")
		}
		s.logger.Error("sign-up failed", zap.String("email", email), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrAuthFailure.Code, appErrors.ErrAuthFailure.Status, appErrors.ErrAuthFailure.Message)
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("account registered", zap.String("user_id", user.ID))
	s.setCurrent(session)
	return copySession(session), nil
}

// SignIn verifies credentials and makes the resulting session current.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, err
	}
	s.setCurrent(session)
	return copySession(session), nil
}

// SignOut ends the current session, if any.
func (s *AuthService) SignOut(ctx context.Context) error {
	s.mu.Lock()
	current := s.current
	s.mu.Unlock()
	if current == nil {
		return nil
	}
	return s.Logout(ctx, current.Token)
}

// Logout revokes token. When it belongs to the current session the session
// is cleared and listeners are notified.
func (s *AuthService) Logout(_ context.Context, token string) error {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if claims.ExpiresAt != nil {
		s.revoked[claims.ID] = claims.ExpiresAt.Time
	}
	s.pruneRevokedLocked()
	cleared := s.current != nil && s.current.Token == token
	if cleared {
		s.current = nil
	}
	s.mu.Unlock()

	if cleared {
		s.notify(nil)
	}
	s.logger.Info("signed out", zap.String("user_id", claims.UserID))
	return nil
}

// ValidateToken parses and validates a session token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	s.mu.Lock()
	_, revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session has been signed out")
	}
	return claims, nil
}

// AuthMessage returns the user-facing text for an identity failure.
func AuthMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, known := range []*appErrors.Error{
		appErrors.ErrEmailAlreadyInUse,
		appErrors.ErrWeakPassword,
		appErrors.ErrInvalidEmail,
		appErrors.ErrInvalidCredentials,
	} {
		if errors.Is(err, known) {
			return known.Message
		}
	}
	return appErrors.ErrAuthFailure.Message
}

func (s *AuthService) issueSession(user *models.User) (*models.Session, error) {
	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.config.SessionExpiry)
	claims := &models.SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session")
	}
	return &models.Session{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     signed,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *AuthService) setCurrent(session *models.Session) {
	s.mu.Lock()
	s.current = copySession(session)
	s.mu.Unlock()
	s.notify(session)
}

func (s *AuthService) notify(session *models.Session) {
	s.mu.Lock()
	listeners := make([]func(*models.Session), 0, len(s.listeners))
	for _, cb := range s.listeners {
		listeners = append(listeners, cb)
	}
	s.mu.Unlock()

	for _, cb := range listeners {
		cb(copySession(session))
	}
}

func (s *AuthService) pruneRevokedLocked() {
	now := s.now()
	for id, expiresAt := range s.revoked {
		if now.After(expiresAt) {
			delete(s.revoked, id)
		}
	}
}

func copySession(session *models.Session) *models.Session {
	if session == nil {
		return nil
	}
	copied := *session
	return &copied
}
