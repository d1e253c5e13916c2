package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/campuslink/campuslink-backend/internal/users"
	pkgauth "github.com/campuslink/campuslink-backend/pkg/auth"
	"github.com/campuslink/campuslink-backend/pkg/config"
	"github.com/campuslink/campuslink-backend/pkg/db"
	"github.com/campuslink/campuslink-backend/pkg/db/models"
	pkgerrors "github.com/campuslink/campuslink-backend/pkg/errors"
	"github.com/campuslink/campuslink-backend/pkg/logger"
	"github.com/campuslink/campuslink-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserStore is the persistence surface the auth flows need.
type UserStore interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// CodeStore issues and verifies one-time codes.
type CodeStore interface {
	Generate(ctx context.Context, destination string) (string, error)
	Verify(ctx context.Context, destination, code string, consume bool) (bool, error)
}

// Service defines registration, login and one-time-code verification.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) error
}

type service struct {
	users       UserStore
	codes       CodeStore
	jwtConfig   config.JWTConfig
	passwordCfg config.PasswordConfig
	log         *logger.Logger
	now         func() time.Time
}

// RegisterInput carries a new account's fields.
type RegisterInput struct {
	Email      string
	Password   string
	FirstName  string
	LastName   string
	Phone      *string
	Department *string
}

// LoginResult pairs the minted access token with the authenticated user.
type LoginResult struct {
	Token string
	User  *models.User
}

// NewService wires the auth dependencies.
func NewService(userStore UserStore, codes CodeStore, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig, log *logger.Logger) (Service, error) {
	switch {
	case userStore == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user store required")
	case codes == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "code store required")
	case log == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		users:       userStore,
		codes:       codes,
		jwtConfig:   jwtCfg,
		passwordCfg: passwordCfg,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	if strings.TrimSpace(input.FirstName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "first name required")
	}

	hash, err := security.HashPassword(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Phone:        input.Phone,
		Department:   input.Department,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.log.Info(s.log.WithUserID(ctx, user.ID.String()), "user registered")
	return user, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}

	now := s.now()
	token, err := pkgauth.MintAccessToken(s.jwtConfig, now, pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn(s.log.WithUserID(ctx, user.ID.String()), "failed to record last login")
	}

	return &LoginResult{Token: token, User: user}, nil
}

// RequestOTP mints a one-time code for the email. The code travels out of
// band; only its issuance is logged here.
func (s *service) RequestOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if _, err := s.codes.Generate(ctx, email); err != nil {
		return err
	}
	s.log.Info(s.log.WithField(ctx, "email", email), "one-time code issued")
	return nil
}

func (s *service) VerifyOTP(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email and code required")
	}
	ok, err := s.codes.Verify(ctx, email, code, true)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid or expired code")
	}
	return nil
}
