package gamification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskQuest/internal/logger"
	"taskQuest/internal/models/progress"
	repo "taskQuest/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrProgressNotFound - у пользователя нет записи прогресса. Прогресс создаётся
// вместе с пользователем, так что это нарушение инварианта, а не штатная ситуация.
var ErrProgressNotFound = errors.New("прогресс пользователя не найден")

// maxVersionRetries - сколько раз перечитываем прогресс при конфликте версий
// (другой экземпляр API успел записать раньше)
const maxVersionRetries = 3

// ProgressStore - хранилище прогресса, которое нужно леджеру и оценщику достижений
type ProgressStore interface {
	GetProgress(ctx context.Context, userID uuid.UUID) (*progress.Progress, error)
	// UpdateProgress пишет счётчики с проверкой Version, достижения не трогает
	UpdateProgress(ctx context.Context, p *progress.Progress) error
	// AppendAchievements объединяет ids с уже открытыми
	AppendAchievements(ctx context.Context, userID uuid.UUID, ids []string) error
}

type AwardKind int

const (
	// KindCompletion - задача перешла в completed, двигает стрик и счётчик задач
	KindCompletion AwardKind = iota
	// KindReversal - задача вышла из completed, меняется только XP
	KindReversal
	// KindBonus - бонус за принятую дату, меняется только XP
	KindBonus
)

func (k AwardKind) String() string {
	switch k {
	case KindCompletion:
		return "completion"
	case KindReversal:
		return "reversal"
	case KindBonus:
		return "bonus"
	default:
		return fmt.Sprintf("AwardKind(%d)", int(k))
	}
}

type XPResult struct {
	XPAwarded            int      `json:"xp_awarded"`
	NewTotalXP           int      `json:"new_total_xp"`
	NewLevel             int      `json:"new_level"`
	LevelUp              bool     `json:"level_up"`
	NewCharacterStage    int      `json:"new_character_stage"`
	StageUp              bool     `json:"stage_up"`
	NewStreak            int      `json:"new_streak"`
	UnlockedAchievements []string `json:"unlocked_achievements"`
}

type Ledger struct {
	store     ProgressStore
	evaluator *Evaluator
	locks     *userLocks
	loc       *time.Location
	now       func() time.Time
}

type LedgerOption func(*Ledger)

// WithLocation задаёт часовой пояс календарных дней стрика
func WithLocation(loc *time.Location) LedgerOption {
	if loc == nil {
		return nil
	}
	return func(l *Ledger) {
		l.loc = loc
	}
}

func WithClock(now func() time.Time) LedgerOption {
	if now == nil {
		return nil
	}
	return func(l *Ledger) {
		l.now = now
	}
}

func NewLedger(store ProgressStore, evaluator *Evaluator, options ...LedgerOption) *Ledger {
	l := &Ledger{
		store:     store,
		evaluator: evaluator,
		locks:     newUserLocks(),
		loc:       time.Local,
		now:       time.Now,
	}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// AwardXP применяет delta к прогрессу пользователя. Все изменения одного
// пользователя идут строго по очереди; между экземплярами сервиса защищает
// проверка версии с повтором.
func (l *Ledger) AwardXP(ctx context.Context, userID uuid.UUID, delta int, taskID uuid.UUID, kind AwardKind) (*XPResult, error) {
	start := time.Now()

	unlock := l.locks.Lock(userID)
	defer unlock()

	var (
		result  *XPResult
		updated *progress.Progress
	)
	for attempt := 0; ; attempt++ {
		current, err := l.store.GetProgress(ctx, userID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				logger.Error("Ledger: Нет прогресса у пользователя", ErrProgressNotFound,
					zap.String("user_id", userID.String()))
				return nil, ErrProgressNotFound
			}
			return nil, fmt.Errorf("получение прогресса: %w", err)
		}

		result, updated = l.apply(current, delta, kind)

		err = l.store.UpdateProgress(ctx, updated)
		if err == nil {
			break
		}
		if errors.Is(err, repo.ErrVersionConflict) && attempt < maxVersionRetries {
			logger.Warn("Ledger: Конфликт версий прогресса, повтор",
				zap.String("user_id", userID.String()),
				zap.Int("attempt", attempt+1))
			continue
		}
		return nil, fmt.Errorf("сохранение прогресса: %w", err)
	}

	// XP уже записан: ошибка оценки достижений не отменяет начисление
	if l.evaluator != nil {
		unlocked, err := l.evaluator.Evaluate(ctx, updated)
		if err != nil {
			logger.Error("Ledger: Не удалось проверить достижения", err,
				zap.String("user_id", userID.String()))
		} else {
			result.UnlockedAchievements = unlocked
		}
	}

	logger.Info("Ledger: Начислен XP",
		zap.String("user_id", userID.String()),
		zap.String("task_id", taskID.String()),
		zap.Stringer("kind", kind),
		zap.Int("delta", delta),
		zap.Int("total_xp", result.NewTotalXP),
		zap.Bool("level_up", result.LevelUp),
		zap.Duration("ms", time.Since(start)))

	return result, nil
}

// apply считает новое состояние на копии, исходный прогресс не меняется
func (l *Ledger) apply(current *progress.Progress, delta int, kind AwardKind) (*XPResult, *progress.Progress) {
	p := current.Clone()
	now := l.now()

	Recompute(p, current.TotalXP+delta)

	if kind == KindCompletion {
		p.CurrentStreak = nextStreak(p.CurrentStreak, p.LastTaskCompletedDate, now, l.loc)
		p.LongestStreak = max(p.LongestStreak, p.CurrentStreak)
		p.TasksCompleted++
		p.LastTaskCompletedDate = &now
	}
	p.UpdatedAt = &now

	return &XPResult{
		XPAwarded:            delta,
		NewTotalXP:           p.TotalXP,
		NewLevel:             p.CurrentLevel,
		LevelUp:              p.CurrentLevel > current.CurrentLevel,
		NewCharacterStage:    p.CharacterStage,
		StageUp:              p.CharacterStage > current.CharacterStage,
		NewStreak:            p.CurrentStreak,
		UnlockedAchievements: []string{},
	}, p
}

// nextStreak: тот же день - без изменений, вчера - +1, иначе стрик начинается заново
func nextStreak(streak int, last *time.Time, now time.Time, loc *time.Location) int {
	if last == nil {
		return 1
	}
	switch daysBetween(*last, now, loc) {
	case 0:
		return max(streak, 1)
	case 1:
		return streak + 1
	default:
		return 1
	}
}

// daysBetween - разница календарных дат в часовом поясе loc
func daysBetween(from, to time.Time, loc *time.Location) int {
	fy, fm, fd := from.In(loc).Date()
	ty, tm, td := to.In(loc).Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
