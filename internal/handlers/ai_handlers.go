package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"taskQuest/internal/ai"
	"taskQuest/internal/handlers/dto"
	"taskQuest/internal/logger"
	"taskQuest/internal/service"

	"go.uber.org/zap"
)

type AIHandler struct {
	AIService AIService
}

func NewAIHandler(aiService AIService) AIHandler {
	return AIHandler{AIService: aiService}
}

func aiUnavailable(w http.ResponseWriter) {
	handleBusinessError(w, service.NewBusinessError(service.CodeAIUnavailable, ai.ErrMissingAPIKey.Error()))
}

func (s *AIHandler) ProcessInput(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var request dto.ProcessInputRequest
	if !decodeJSON(w, r, maxBodyBytes, &request) {
		return
	}

	if strings.TrimSpace(request.Input) == "" {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "input"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "input не может быть пустым")
		return
	}

	if request.InputType != "" && request.InputType != service.InputTypeText && request.InputType != service.InputTypeVoice {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "input_type"),
			zap.String("error", "wrong_value"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "input_type должен быть text или voice")
		return
	}

	result, err := s.AIService.ProcessNaturalLanguageInput(r.Context(), owner, request.ToInput())
	if err != nil {
		if errors.Is(err, ai.ErrMissingAPIKey) {
			aiUnavailable(w)
			return
		}
		handleServiceError(w, r, err, "process_input")
		return
	}

	logger.Info("HTTP_OUT: Ввод обработан",
		zap.Bool("success", result.Success),
		zap.Int("tasks", len(result.Tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromProcessResult(result))
}

func (s *AIHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var request dto.TranscribeRequest
	if !decodeJSON(w, r, maxAudioBytes, &request) {
		return
	}

	if request.AudioData == "" {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "audio_data"),
			zap.String("error", "empty_field"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "audio_data не может быть пустым")
		return
	}

	result, err := s.AIService.TranscribeAudio(r.Context(), request.AudioData)
	if err != nil {
		if errors.Is(err, ai.ErrMissingAPIKey) {
			aiUnavailable(w)
			return
		}
		handleServiceError(w, r, err, "transcribe")
		return
	}

	logger.Info("HTTP_OUT: Запись распознана",
		zap.Bool("success", result.Success),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.TranscriptionResponse{
		Success: result.Success,
		Text:    result.Text,
		Error:   result.Error,
	})
}

func (s *AIHandler) Status(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP_IN:")

	status := s.AIService.TestConnection(r.Context())
	responseWithBody(w, http.StatusOK, dto.ConnectionResponse{
		Connected: status.Connected,
		Status:    status.Status,
		Error:     status.Error,
	})
}
