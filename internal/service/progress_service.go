package service

import (
	"context"
	"errors"
	"fmt"

	"taskQuest/internal/models/achievement"
	"taskQuest/internal/models/progress"
	rep "taskQuest/internal/repository"

	"github.com/google/uuid"
)

type ProgressService struct {
	progress     ProgressReader
	achievements AchievementReader
}

func NewProgressService(progress ProgressReader, achievements AchievementReader) *ProgressService {
	return &ProgressService{
		progress:     progress,
		achievements: achievements,
	}
}

// AchievementView - достижение каталога с отметкой, открыто ли оно у пользователя
type AchievementView struct {
	achievement.Achievement
	Unlocked bool `json:"unlocked"`
}

func (s *ProgressService) GetUserProgress(ctx context.Context, userID uuid.UUID) (*progress.Progress, error) {
	p, err := s.progress.GetProgress(ctx, userID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewBusinessError(CodeProgressNotFound, "Прогресс пользователя не найден",
				ToDetail("user_id", userID.String()))
		}
		return nil, fmt.Errorf("получение прогресса: %w", err)
	}
	return p, nil
}

func (s *ProgressService) GetAchievements(ctx context.Context, userID uuid.UUID) ([]AchievementView, error) {
	p, err := s.GetUserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	catalog, err := s.achievements.ListAchievements(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение достижений: %w", err)
	}

	views := make([]AchievementView, 0, len(catalog))
	for _, a := range catalog {
		views = append(views, AchievementView{Achievement: a, Unlocked: p.HasAchievement(a.ID)})
	}
	return views, nil
}
