package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"homedash/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL  = time.Hour
	defaultResetTTL  = time.Hour
	minPasswordChars = 6
)

// Domain errors for auth flows.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidReset       = errors.New("invalid or expired reset token")
)

// AuthOptions configures token signing.
type AuthOptions struct {
	SigningKey string
	TokenTTL   time.Duration
	ResetTTL   time.Duration
}

// AuthService handles user auth logic
type AuthService struct {
	authRepo repository.Authorization
	tokens   repository.Tokens
	mailer   Mailer
	opts     AuthOptions
	now      func() time.Time
}

func NewAuthService(repo repository.Authorization, tokens repository.Tokens, mailer Mailer, opts AuthOptions) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = defaultResetTTL
	}
	if mailer == nil {
		mailer = NopMailer{}
	}
	return &AuthService{authRepo: repo, tokens: tokens, mailer: mailer, opts: opts, now: time.Now}
}

// SignUp hashes password and creates a new user
func (s *AuthService) SignUp(email, password string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return "", err
	}
	return s.authRepo.Create(email, hash)
}

// Claims defines JWT claims. Subject carries the user id and ID the session id.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken validates credentials and returns JWT
func (s *AuthService) GenerateToken(email, password string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	u, err := s.authRepo.GetByEmail(email)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrInvalidCredentials
	}

	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.issueToken(u.ID)
}

// ParseToken parses JWT and returns the user id. Signed-out tokens are rejected.
func (s *AuthService) ParseToken(ctx context.Context, accessToken string) (string, error) {
	claims, err := s.parseClaims(accessToken)
	if err != nil {
		return "", err
	}

	if s.tokens != nil && claims.ID != "" {
		revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
		if err != nil {
			return "", fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return "", ErrInvalidToken
		}
	}

	return claims.Subject, nil
}

// SignOut revokes the session behind accessToken until it would have expired.
func (s *AuthService) SignOut(ctx context.Context, accessToken string) error {
	claims, err := s.parseClaims(accessToken)
	if err != nil {
		return err
	}
	exp := s.now().Add(s.opts.TokenTTL)
	if claims.ExpiresAt != nil {
		exp = claims.ExpiresAt.Time
	}
	return s.tokens.Revoke(ctx, claims.ID, exp)
}

// ResetPassword mails a one-time reset token. Unknown emails succeed silently
// so the endpoint does not reveal who has an account.
func (s *AuthService) ResetPassword(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	u, err := s.authRepo.GetByEmail(email)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}

	token := uuid.NewString()
	if err := s.tokens.SaveReset(ctx, token, u.ID, s.now().Add(s.opts.ResetTTL).UTC()); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return s.mailer.SendPasswordReset(ctx, u.Email, token)
}

// ConfirmReset consumes a reset token and sets the new password.
func (s *AuthService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	uid, err := s.tokens.ConsumeReset(ctx, strings.TrimSpace(token), s.now().UTC())
	if errors.Is(err, repository.ErrResetNotFound) {
		return ErrInvalidReset
	}
	if err != nil {
		return err
	}
	return s.authRepo.UpdatePassword(uid, hash)
}

func (s *AuthService) parseClaims(accessToken string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.opts.SigningKey), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// helper: issue a signed JWT for a user
func (s *AuthService) issueToken(userID string) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString([]byte(s.opts.SigningKey))
}

// emailRules applies the rules of gin's binding tags outside a request.
var emailRules = validator.New()

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := emailRules.Var(email, "required,email"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if len([]rune(password)) < minPasswordChars {
		return "", ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
