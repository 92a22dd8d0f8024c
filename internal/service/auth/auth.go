package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/icyeza/bkvc/internal/apperrors"
	"github.com/icyeza/bkvc/internal/models"
	"github.com/icyeza/bkvc/internal/repository"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Secret key to sign user access token payload
	SecretKey string

	// Hasher to use during registration or login. Bcrypt if nil
	Hasher PasswordHasher

	// Access and refresh token lifetimes
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

type RegisterParams struct {
	Username   string
	Password   string
	Name       string
	Email      string
	Phone      string
	NationalID string
	Gender     string
}

// Auth service: registration, login and token handling
type AuthService struct {
	token   TokenManager
	hasher  PasswordHasher
	storage repository.Storage
}

func NewService(cfg Config, storage repository.Storage) (*AuthService, error) {
	if storage == nil {
		return nil, errors.New("storage must not be nil")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	accessTTL := cfg.AccessTokenTTL
	if accessTTL == 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL == 0 {
		refreshTTL = defaultRefreshTTL
	}

	return &AuthService{
		token: TokenManager{
			key:         cfg.SecretKey,
			alg:         "HS256",
			accessTTL:   accessTTL,
			refreshTTL:  refreshTTL,
			refreshRepo: storage.Refresh(),
		},
		hasher:  hasher,
		storage: storage,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, arg RegisterParams) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return models.User{}, pair, fmt.Errorf("can't use this as password. Err: %w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Username:       arg.Username,
		HashedPassword: hash,
		Name:           arg.Name,
		Email:          arg.Email,
		Phone:          arg.Phone,
		NationalID:     arg.NationalID,
		Gender:         arg.Gender,
	})
	if err != nil {
		return user, pair, err
	}

	pair, err = s.token.GeneratePair(ctx, user)
	if err != nil {
		return user, pair, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return user, pair, nil
}

func (s *AuthService) Login(ctx context.Context, username string, password string) (models.User, models.TokenPair, error) {
	var pair models.TokenPair

	user, err := s.storage.User().GetUserByUsername(ctx, username)
	if err != nil {
		// Compare against self to keep timing comparable to the found-user path
		_ = s.hasher.Compare("$2a$10$000000000000000000000000000000000000000000000000000000", password)
		return user, pair, apperrors.ErrUserNotFound
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return user, pair, apperrors.ErrUserNotFound
	}

	pair, err = s.token.GeneratePair(ctx, user)
	if err != nil {
		return user, pair, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a fresh pair.
// The old token is marked used and can not be exchanged twice
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.TokenPair, error) {
	var pair models.TokenPair

	token, err := s.token.UseRefreshToken(ctx, refresh)
	if err != nil {
		return pair, err
	}

	user, err := s.storage.User().GetUserByID(ctx, token.UserID)
	if err != nil {
		return pair, fmt.Errorf("user for refresh token not found. Err: %w", err)
	}

	pair, err = s.token.GeneratePair(ctx, user)
	if err != nil {
		return pair, fmt.Errorf("token could not be generated. Err: %w", err)
	}

	return pair, nil
}

// Auth authenticates a request by its bearer access token
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")
	access, found := strings.CutPrefix(header, "Bearer ")
	if !found || access == "" {
		return models.User{}, errors.New("no bearer token in request")
	}

	userID, err := s.token.ParseAccess(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	return s.storage.User().GetUserByID(ctx, userID)
}
