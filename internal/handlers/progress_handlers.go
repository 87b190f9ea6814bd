package handlers

import (
	"net/http"
	"time"

	"taskQuest/internal/logger"

	"go.uber.org/zap"
)

type ProgressHandler struct {
	ProgressService ProgressService
}

func NewProgressHandler(progressService ProgressService) ProgressHandler {
	return ProgressHandler{ProgressService: progressService}
}

func (s *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	p, err := s.ProgressService.GetUserProgress(r.Context(), owner)
	if err != nil {
		handleServiceError(w, r, err, "get_progress")
		return
	}

	logger.Info("HTTP_OUT: Прогресс получен",
		zap.Int("level", p.CurrentLevel),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, p)
}

func (s *ProgressHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	views, err := s.ProgressService.GetAchievements(r.Context(), owner)
	if err != nil {
		handleServiceError(w, r, err, "get_achievements")
		return
	}

	logger.Info("HTTP_OUT: Достижения получены",
		zap.Int("count", len(views)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, views)
}
