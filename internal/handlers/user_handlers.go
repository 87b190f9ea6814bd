package handlers

import (
	"net/http"
	"time"

	"taskQuest/internal/handlers/dto"
	"taskQuest/internal/logger"
	"taskQuest/internal/service"

	"go.uber.org/zap"
)

type UserHandler struct {
	UserService UserService
}

func NewUserHandler(userService UserService) UserHandler {
	return UserHandler{UserService: userService}
}

// Register - вход по email: создаёт или обновляет пользователя и выдаёт токен
func (s *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.RegisterRequest
	if !decodeJSON(w, r, maxBodyBytes, &request) {
		return
	}

	result, err := s.UserService.Register(r.Context(), service.RegisterInput{
		Email:  request.Email,
		Name:   request.Name,
		Avatar: request.Avatar,
	})
	if err != nil {
		handleServiceError(w, r, err, "register")
		return
	}

	code := http.StatusOK
	if result.Created {
		code = http.StatusCreated
	}

	logger.Info("HTTP_OUT: Пользователь авторизован",
		zap.String("user_id", result.User.UUID.String()),
		zap.Bool("created", result.Created),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", code))

	responseWithBody(w, code, dto.RegisterResponse{
		User:    result.User,
		Token:   result.Token,
		Created: result.Created,
	})
}

func (s *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	u, err := s.UserService.GetUser(r.Context(), owner)
	if err != nil {
		handleServiceError(w, r, err, "get_user")
		return
	}
	responseWithBody(w, http.StatusOK, u)
}
