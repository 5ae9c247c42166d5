package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"titlehub/internal/config"
	"titlehub/internal/microservices/http-api/models"
	"titlehub/internal/microservices/http-api/repository"
	authutil "titlehub/internal/middleware/auth"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var (
	ErrNameInUse    = errors.New("username already in use")
	ErrEmailInUse   = errors.New("email already in use")
	ErrInvalidCode  = errors.New("invalid confirmation code")
	ErrInvalidToken = errors.New("invalid token")
	ErrUserNotFound = errors.New("user not found")
)

// Claims carried in the access token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// CodeNotifier delivers confirmation codes. Email transport lives behind this
// interface; the default implementation just logs.
type CodeNotifier interface {
	SendConfirmationCode(ctx context.Context, email, code string) error
}

type AuthService interface {
	Signup(ctx context.Context, username, email string) (*models.User, error)
	IssueToken(ctx context.Context, username, code string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
	Authenticate(ctx context.Context, tokenString string) (*models.User, error)
}

type authService struct {
	userRepo       repository.UserRepository
	codes          repository.ConfirmationStore
	notifier       CodeNotifier
	jwtSecret      string
	accessTokenTTL time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	codes repository.ConfirmationStore,
	notifier CodeNotifier,
	cfg *config.Config,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		codes:          codes,
		notifier:       notifier,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
	}
}

// Signup registers a user (inactive until code exchange) and dispatches a
// confirmation code. Repeating a signup with the same username+email pair is
// allowed and re-sends a fresh code.
func (s *authService) Signup(ctx context.Context, username, email string) (*models.User, error) {
	if err := models.ValidateUsername(username); err != nil {
		return nil, err
	}
	if email == "" || len(email) > models.MaxEmailLength {
		return nil, fmt.Errorf("%w: invalid email", models.ErrValidation)
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	switch {
	case err == nil:
		if user.Email != email {
			return nil, ErrNameInUse
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if _, emailErr := s.userRepo.FindByEmail(ctx, email); emailErr == nil {
			return nil, ErrEmailInUse
		}
		user = &models.User{
			Username: username,
			Email:    email,
			Role:     models.RoleUser,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	code, err := authutil.GenerateCode()
	if err != nil {
		return nil, err
	}
	hash, err := authutil.HashCode(code)
	if err != nil {
		return nil, err
	}
	if err := s.codes.Save(ctx, user.ID, hash); err != nil {
		return nil, err
	}
	if err := s.notifier.SendConfirmationCode(ctx, user.Email, code); err != nil {
		return nil, err
	}

	return user, nil
}

// IssueToken exchanges a confirmation code for a JWT access token and
// activates the user on first exchange.
func (s *authService) IssueToken(ctx context.Context, username, code string) (string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	hash, err := s.codes.Get(ctx, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return "", ErrInvalidCode
		}
		return "", err
	}
	if err := authutil.VerifyCode(hash, code); err != nil {
		return "", ErrInvalidCode
	}

	if !user.IsActive {
		user.IsActive = true
		if err := s.userRepo.Update(ctx, user); err != nil {
			return "", err
		}
	}

	// code is single use
	if err := s.codes.Delete(ctx, user.ID); err != nil {
		return "", err
	}

	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate resolves a bearer token into the current user record. Role and
// active state are read fresh from storage, not trusted from the token.
func (s *authService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}
