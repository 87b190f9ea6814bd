package service

import (
	"context"
	"time"

	"taskQuest/internal/ai"
	"taskQuest/internal/gamification"
	"taskQuest/internal/models/achievement"
	"taskQuest/internal/models/progress"
	"taskQuest/internal/models/task"
	"taskQuest/internal/models/user"

	"github.com/google/uuid"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(context.Context, uuid.UUID) (*task.Task, error)
	Delete(context.Context, uuid.UUID) error
	ListByOwner(context.Context, uuid.UUID) ([]*task.Task, error)
	ListByStatus(context.Context, uuid.UUID, task.Status) ([]*task.Task, error)
	ListSubtasks(context.Context, uuid.UUID) ([]*task.Task, error)
	CountSubtasks(context.Context, uuid.UUID) (int, error)
	ListScheduled(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*task.Task, error)
	Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*task.Task, error)
}

type UserRepository interface {
	CreateUser(context.Context, *user.User, *progress.Progress) error
	GetUserByID(context.Context, uuid.UUID) (*user.User, error)
	GetUserByEmail(context.Context, string) (*user.User, error)
	UpdateUser(context.Context, *user.User) error
}

type ProgressReader interface {
	GetProgress(context.Context, uuid.UUID) (*progress.Progress, error)
}

type AchievementReader interface {
	ListAchievements(context.Context) ([]achievement.Achievement, error)
}

// XPLedger - единственная точка изменения XP
type XPLedger interface {
	AwardXP(ctx context.Context, userID uuid.UUID, delta int, taskID uuid.UUID, kind gamification.AwardKind) (*gamification.XPResult, error)
}

// TaskDrafter - языковая модель и распознавание речи
type TaskDrafter interface {
	Configured() bool
	DraftTasks(ctx context.Context, input string, pc ai.PromptContext) ([]ai.TaskDraft, error)
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
	Ping(ctx context.Context) (int, error)
}
