package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/ignatzorin/spaces-backend/internal/models"
	"github.com/ignatzorin/spaces-backend/internal/pkg/apperror"
	"github.com/ignatzorin/spaces-backend/internal/repository"
)

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthService инкапсулирует регистрацию и аутентификацию.
type AuthService struct {
	repo         AuthRepository
	tokenManager *TokenManager
}

// RegisterInput содержит данные пользователя при регистрации.
type RegisterInput struct {
	Email    string
	Password string
	Username string
}

// AuthResult возвращает итог регистрации или авторизации.
type AuthResult struct {
	User      *models.User
	TokenPair *TokenPair
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, tokenManager *TokenManager) *AuthService {
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
	}
}

// Register создаёт нового пользователя. Роль всегда user: админов
// назначают напрямую в базе, самоназначения через API нет.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("auth service: некорректный email")
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("auth service: пароль должен быть не короче 8 символов")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("auth service: email уже зарегистрирован")
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	username := in.Username
	if username == "" {
		username = deriveUsername(email)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось захешировать пароль: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(passHash),
		Role:         models.RoleUser,
		Standing:     models.StandingActive,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	pair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось выпустить токены: %w", err)
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Login проверяет учётные данные и выдаёт пару токенов.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	pair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось выпустить токены: %w", err)
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Refresh обменивает refresh токен на новую пару.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokenManager.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}

	pair, err := s.tokenManager.GeneratePair(user)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось выпустить токены: %w", err)
	}
	return pair, nil
}

// deriveUsername строит username из локальной части email.
func deriveUsername(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}
