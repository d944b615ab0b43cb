package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/caribe/factoring-bfa-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	maxFailedAttempts = 5
	lockDuration      = 30 * time.Minute
	bcryptCost        = 12
	tokenIssuer       = "factoring-api"
)

// HashPassword returns the bcrypt hash stored for a user.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// UserDirectory resolves the users that may sign in.
type UserDirectory interface {
	FindUserByEmail(email string) (domain.User, bool)
	UserByID(ctx context.Context, id int) (domain.UserView, error)
}

type loginAttempts struct {
	failed      int
	lockedUntil time.Time
}

// AuthService issues and checks access tokens.
type AuthService struct {
	users     UserDirectory
	jwtSecret []byte
	accessTTL time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu       sync.Mutex
	attempts map[string]*loginAttempts
}

// NewAuthService creates a new auth service.
func NewAuthService(users UserDirectory, jwtSecret string, accessTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		logger:    logger,
		now:       time.Now,
		attempts:  make(map[string]*loginAttempts),
	}
}

// ============================================================
// Login: POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResponse, error) {
	_, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	span.SetAttributes(attribute.String("email", email))
	if email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "Email e senha são obrigatórios"}
	}

	if remaining := s.lockedFor(email); remaining > 0 {
		s.logger.Warn("login: account temporarily locked",
			zap.String("email", email),
			zap.Float64("remaining_minutes", remaining.Minutes()),
		)
		return nil, &domain.ErrUnauthorized{
			Message: fmt.Sprintf("Conta temporariamente bloqueada. Tente novamente em %.0f minutos", remaining.Minutes()),
		}
	}

	user, ok := s.users.FindUserByEmail(email)
	if !ok {
		return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, s.recordFailure(email, user.ID)
	}
	s.resetFailures(email)

	token, err := s.signAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	s.logger.Info("user logged in", zap.Int("user_id", user.ID), zap.String("papel", string(user.Papel)))
	return &domain.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.accessTTL.Seconds()),
		User:        user.View(),
	}, nil
}

func (s *AuthService) lockedFor(email string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[email]
	if !ok {
		return 0
	}
	if d := a.lockedUntil.Sub(s.now()); d > 0 {
		return d
	}
	return 0
}

func (s *AuthService) recordFailure(email string, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.attempts[email]
	if !ok {
		a = &loginAttempts{}
		s.attempts[email] = a
	}
	a.failed++
	if a.failed >= maxFailedAttempts {
		a.failed = 0
		a.lockedUntil = s.now().Add(lockDuration)
		s.logger.Warn("login: account locked after max attempts",
			zap.Int("user_id", userID),
			zap.Int("attempts", maxFailedAttempts),
			zap.Duration("lock_duration", lockDuration),
		)
		return &domain.ErrUnauthorized{
			Message: fmt.Sprintf("Conta bloqueada por %d minutos após %d tentativas", int(lockDuration.Minutes()), maxFailedAttempts),
		}
	}

	s.logger.Warn("login: failed password attempt",
		zap.Int("user_id", userID),
		zap.Int("attempts", a.failed),
		zap.Int("max", maxFailedAttempts),
	)
	return &domain.ErrUnauthorized{
		Message: fmt.Sprintf("Credenciais inválidas. %d tentativa(s) restante(s)", maxFailedAttempts-a.failed),
	}
}

func (s *AuthService) resetFailures(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, email)
}

// ============================================================
// Me: GET /v1/auth/me
// ============================================================

func (s *AuthService) Me(ctx context.Context, actor domain.Actor) (domain.UserView, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Me")
	defer span.End()
	return s.users.UserByID(ctx, actor.UserID)
}

// ============================================================
// Token validation: used by middleware
// ============================================================

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate validates a bearer token and resolves the actor against
// the current user set, so deleted users and role changes take effect
// before the token expires.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (domain.Actor, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return domain.Actor{}, err
	}
	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return domain.Actor{}, &domain.ErrUnauthorized{Message: "Token inválido"}
	}
	user, err := s.users.UserByID(ctx, id)
	if err != nil {
		return domain.Actor{}, &domain.ErrUnauthorized{Message: "Usuário não encontrado"}
	}
	return domain.Actor{UserID: user.ID, Email: user.Email, Role: user.Papel}, nil
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido ou expirado"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}
	return claims, nil
}

func (s *AuthService) signAccessToken(u domain.User) (string, error) {
	now := s.now()
	claims := JWTClaims{
		Email: u.Email,
		Role:  u.Papel,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(u.ID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
