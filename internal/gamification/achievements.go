package gamification

import (
	"context"
	_ "embed"
	"fmt"
	"slices"

	"taskQuest/internal/logger"
	"taskQuest/internal/models/achievement"
	"taskQuest/internal/models/progress"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var catalogYAML []byte

// AchievementStore - каталог достижений
type AchievementStore interface {
	ListAchievements(ctx context.Context) ([]achievement.Achievement, error)
	// SeedAchievements вставляет каталог только в пустое хранилище, возвращает число вставленных
	SeedAchievements(ctx context.Context, catalog []achievement.Achievement) (int, error)
}

// Stats - счётчики, с которыми сравниваются требования достижений
type Stats struct {
	TasksCompleted int
	TotalXP        int
	LongestStreak  int
	PerfectDays    int
}

func StatsOf(p *progress.Progress) Stats {
	return Stats{
		TasksCompleted: p.TasksCompleted,
		TotalXP:        p.TotalXP,
		LongestStreak:  p.LongestStreak,
		PerfectDays:    p.PerfectDays,
	}
}

func (s Stats) value(t achievement.RequirementType) (int, bool) {
	switch t {
	case achievement.RequirementTasksCompleted:
		return s.TasksCompleted, true
	case achievement.RequirementTotalXP:
		return s.TotalXP, true
	case achievement.RequirementStreakDays:
		return s.LongestStreak, true
	case achievement.RequirementPerfectDays:
		return s.PerfectDays, true
	default:
		return 0, false
	}
}

// Qualifying возвращает id достижений из каталога, которые ещё не открыты
// и требования которых выполнены. Порядок - как в каталоге.
func Qualifying(catalog []achievement.Achievement, unlocked []string, stats Stats) []string {
	res := []string{}
	for _, a := range catalog {
		if slices.Contains(unlocked, a.ID) || slices.Contains(res, a.ID) {
			continue
		}
		v, ok := stats.value(a.Requirement.Type)
		if !ok {
			continue
		}
		if v >= a.Requirement.Value {
			res = append(res, a.ID)
		}
	}
	return res
}

// DefaultCatalog - встроенный стартовый каталог из catalog.yml
func DefaultCatalog() ([]achievement.Achievement, error) {
	var doc struct {
		Achievements []achievement.Achievement `yaml:"achievements"`
	}
	if err := yaml.Unmarshal(catalogYAML, &doc); err != nil {
		return nil, fmt.Errorf("разбор каталога достижений: %w", err)
	}
	for _, a := range doc.Achievements {
		if a.ID == "" {
			return nil, fmt.Errorf("достижение без id: %q", a.Name)
		}
		if !a.Requirement.Type.IsValid() {
			return nil, fmt.Errorf("достижение %s: неизвестный тип требования %q", a.ID, a.Requirement.Type)
		}
	}
	return doc.Achievements, nil
}

type Evaluator struct {
	catalog  AchievementStore
	progress ProgressStore
}

func NewEvaluator(catalog AchievementStore, progress ProgressStore) *Evaluator {
	return &Evaluator{catalog: catalog, progress: progress}
}

// Evaluate открывает все заслуженные достижения одной записью в хранилище и
// добавляет их в p. Уже открытые никогда не удаляются.
func (e *Evaluator) Evaluate(ctx context.Context, p *progress.Progress) ([]string, error) {
	catalog, err := e.catalog.ListAchievements(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение каталога: %w", err)
	}

	ids := Qualifying(catalog, p.UnlockedAchievements, StatsOf(p))
	if len(ids) == 0 {
		return ids, nil
	}

	if err := e.progress.AppendAchievements(ctx, p.UserID, ids); err != nil {
		return nil, fmt.Errorf("сохранение достижений: %w", err)
	}
	p.Unlock(ids...)

	logger.Info("Achievements: Открыты достижения",
		zap.String("user_id", p.UserID.String()),
		zap.Strings("ids", ids))
	return ids, nil
}

// Seed заливает встроенный каталог, если хранилище пустое. Повторный вызов ничего не меняет.
func (e *Evaluator) Seed(ctx context.Context) (int, error) {
	catalog, err := DefaultCatalog()
	if err != nil {
		return 0, err
	}

	inserted, err := e.catalog.SeedAchievements(ctx, catalog)
	if err != nil {
		return 0, fmt.Errorf("заливка каталога: %w", err)
	}

	if inserted > 0 {
		logger.Info("Achievements: Каталог залит", zap.Int("count", inserted))
	} else {
		logger.Info("Achievements: Каталог уже заполнен")
	}
	return inserted, nil
}
