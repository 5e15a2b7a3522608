package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	identityrepos "github.com/caelexhq/caelex-backend/internal/data/repos/identity"
	types "github.com/caelexhq/caelex-backend/internal/domain"
	"github.com/caelexhq/caelex-backend/internal/pkg/ctxutil"
	"github.com/caelexhq/caelex-backend/internal/pkg/dbctx"
	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

// JWTClaims is the access-token payload. Tokens are stateless: identity
// lives entirely in the signed claims, there is no token table to consult.
type JWTClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

type AuthService interface {
	// Login verifies credentials and mints an access token.
	Login(ctx context.Context, email, password string) (string, *types.User, error)
	// SetContextFromToken validates a bearer token and attaches the
	// caller's RequestData to the context. Org fields stay zero; the
	// tenancy middleware fills them per route.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	db           *gorm.DB
	log          *logger.Logger
	userRepo     identityrepos.UserRepo
	jwtSecretKey string
	accessTTL    time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo identityrepos.UserRepo, jwtSecretKey string, accessTTL time.Duration) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:           db,
		log:          serviceLog,
		userRepo:     userRepo,
		jwtSecretKey: jwtSecretKey,
		accessTTL:    accessTTL,
	}
}

func (as *authService) Login(ctx context.Context, email, password string) (string, *types.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("email and password required: %w", pkgerrors.ErrInvalidArgument)
	}

	user, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return "", nil, fmt.Errorf("fetch user by email: %w", err)
	}
	if user == nil {
		// Same sentinel as a bad password so callers cannot probe for
		// registered addresses.
		return "", nil, fmt.Errorf("invalid credentials: %w", pkgerrors.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, fmt.Errorf("invalid credentials: %w", pkgerrors.ErrUnauthorized)
	}

	token, err := as.generateAccessToken(user)
	if err != nil {
		as.log.Warn("access token generation failed", "error", err)
		return "", nil, fmt.Errorf("generate access token: %w", err)
	}
	return token, user, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: user.Email,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("missing token: %w", pkgerrors.ErrUnauthorized)
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return ctx, fmt.Errorf("parse token: %w", pkgerrors.ErrUnauthorized)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired token: %w", pkgerrors.ErrUnauthorized)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid subject in token: %w", pkgerrors.ErrUnauthorized)
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Email:       claims.Email,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.accessTTL
}

// HashPassword produces the bcrypt hash stored on the user row. Exported
// for provisioning paths; the API itself has no registration endpoint.
func HashPassword(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("empty password: %w", pkgerrors.ErrInvalidArgument)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
