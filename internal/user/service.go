package user

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/safesite/service-compliance-core/internal/apperror"
	"github.com/safesite/service-compliance-core/internal/auth"
	"github.com/safesite/service-compliance-core/internal/user/entity"
	userrepo "github.com/safesite/service-compliance-core/internal/user/repo"
	"github.com/safesite/service-compliance-core/pkg/database"
	"github.com/safesite/service-compliance-core/pkg/utilities"
)

// PasswordHasher defines the minimal hashing interface (abstract so we can
// swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(pw string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserService handles registration and password authentication.
type UserService struct {
	repo    *userrepo.UserRepo
	hasher  PasswordHasher
	authCfg auth.Config
}

func NewUserService(db *sqlx.DB, hasher PasswordHasher, authCfg auth.Config) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &UserService{repo: userrepo.NewUserRepo(db), hasher: hasher, authCfg: authCfg}
}

// RegisterInput carries the registration payload.
type RegisterInput struct {
	Email     string
	Username  string
	Password  string
	FirstName *string
	LastName  *string
}

// Register creates an account and returns the user plus a fresh bearer token.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)

	if !emailPattern.MatchString(in.Email) {
		return nil, "", apperror.Validation("invalid email format")
	}
	if in.Username == "" {
		return nil, "", apperror.Validation("username is required")
	}
	if in.Password == "" {
		return nil, "", apperror.Validation("password is required")
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}

	now := time.Now().UTC()
	u := &entity.User{
		ID:           utilities.NewKSUID(),
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Insert(ctx, u); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, "", apperror.Conflict("user with this email or username already exists")
		}
		return nil, "", apperror.Internal(err)
	}

	token, err := auth.GenerateToken(u.ID, s.authCfg.Secret, s.authCfg.TokenTTL)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}
	return u, token, nil
}

// Login verifies credentials and mints a token. Unknown users and wrong
// passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*entity.User, string, error) {
	u, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", apperror.Authentication("authentication failed, please verify your credentials")
		}
		return nil, "", apperror.Internal(err)
	}

	if !s.hasher.Verify(u.PasswordHash, password) {
		return nil, "", apperror.Authentication("authentication failed, please verify your credentials")
	}

	token, err := auth.GenerateToken(u.ID, s.authCfg.Secret, s.authCfg.TokenTTL)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}
	return u, token, nil
}
