package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"taskQuest/internal/logger"
	"taskQuest/internal/models/progress"
	"taskQuest/internal/models/user"
	rep "taskQuest/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenIssuer выдаёт токен доступа для пользователя
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

type UserService struct {
	users  UserRepository
	tokens TokenIssuer
}

func NewUserService(users UserRepository, tokens TokenIssuer) *UserService {
	return &UserService{users: users, tokens: tokens}
}

type RegisterInput struct {
	Email  string
	Name   string
	Avatar string
}

type RegisterResult struct {
	User    *user.User
	Token   string
	Created bool
}

// Register создаёт пользователя вместе со стартовым прогрессом или обновляет имя и аватар
// существующего, и выдаёт токен
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, NewValidationError("email", "неверный адрес")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, NewValidationError("name", "не может быть пустым")
	}

	u, created, err := s.createOrUpdate(ctx, email, name, in.Avatar)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(u.UUID)
	if err != nil {
		return nil, fmt.Errorf("выдача токена: %w", err)
	}

	logger.Info("Service: Пользователь зарегистрирован",
		zap.String("user_id", u.UUID.String()),
		zap.Bool("created", created))
	return &RegisterResult{User: u, Token: token, Created: created}, nil
}

func (s *UserService) createOrUpdate(ctx context.Context, email, name, avatar string) (*user.User, bool, error) {
	existing, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return s.update(ctx, existing, name, avatar)
	case !errors.Is(err, rep.ErrNotFound):
		return nil, false, fmt.Errorf("поиск пользователя: %w", err)
	}

	now := time.Now()
	u := &user.User{
		UUID:      uuid.New(),
		Email:     email,
		Name:      name,
		Avatar:    avatar,
		CreatedAt: now,
	}
	err = s.users.CreateUser(ctx, u, progress.New(u.UUID, now))
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, rep.ErrAlreadyExists) {
		return nil, false, fmt.Errorf("создание пользователя: %w", err)
	}

	// параллельная регистрация с тем же email успела раньше
	existing, err = s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("поиск пользователя: %w", err)
	}
	return s.update(ctx, existing, name, avatar)
}

func (s *UserService) update(ctx context.Context, u *user.User, name, avatar string) (*user.User, bool, error) {
	u.Name = name
	u.Avatar = avatar
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, false, fmt.Errorf("обновление пользователя: %w", err)
	}
	return u, false, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("Пользователь", id.String())
		}
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}
	return u, nil
}
