package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfantasy/parts-portal/internal/config"
	"github.com/bitfantasy/parts-portal/internal/middleware"
	"github.com/bitfantasy/parts-portal/internal/model/entity"
	"github.com/bitfantasy/parts-portal/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials wrong email/password or deactivated account
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken registration or supplier creation with an existing email
var ErrEmailTaken = errors.New("email already registered")

// AuthService registration, login and token issuing
type AuthService struct {
	userRepo *repository.UserRepository
	cfg      *config.Config
}

// NewAuthService creates an auth service
func NewAuthService(userRepo *repository.UserRepository, cfg *config.Config) *AuthService {
	return &AuthService{userRepo: userRepo, cfg: cfg}
}

// RegisterRequest new account payload
type RegisterRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	Name        string `json:"name" binding:"required"`
	CompanyName string `json:"company_name"`
}

// LoginRequest credential payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResult successful login/registration response
type TokenResult struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *entity.User `json:"user"`
}

// Register creates a supplier account and signs it in
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*TokenResult, error) {
	_, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		ID:           generateID(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         entity.RoleSupplier,
		CompanyName:  req.CompanyName,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issueToken(user)
}

// Login verifies credentials and issues a bearer token
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*TokenResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	return s.issueToken(user)
}

// GetCurrentUser loads the account behind a validated token
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueToken(user *entity.User) (*TokenResult, error) {
	now := time.Now()
	claims := middleware.JWTClaims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.cfg.JWT.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWT.AccessTokenExpire)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &TokenResult{
		AccessToken: signed,
		TokenType:   "bearer",
		User:        user,
	}, nil
}
