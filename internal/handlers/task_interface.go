package handlers

import (
	"context"
	"time"

	"taskQuest/internal/models/progress"
	"taskQuest/internal/models/task"
	"taskQuest/internal/models/user"
	"taskQuest/internal/service"

	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(context.Context) error
	CreateTask(context.Context, service.CreateTaskInput) (*task.Task, error)
	GetTaskByID(ctx context.Context, ownerID, id uuid.UUID) (*task.Task, error)
	GetAllTasks(context.Context, uuid.UUID) ([]*task.Task, error)
	GetTasksByStatus(context.Context, uuid.UUID, task.Status) ([]*task.Task, error)
	GetScheduledTasks(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*task.Task, error)
	SearchTasks(ctx context.Context, ownerID uuid.UUID, term string) ([]*task.Task, error)
	GetSubtasks(ctx context.Context, ownerID, parentID uuid.UUID) ([]*task.Task, error)
	UpdateTask(ctx context.Context, ownerID, id uuid.UUID, options ...task.TaskOption) (*service.TaskResult, error)
	CompleteTask(ctx context.Context, ownerID, id uuid.UUID) (*service.TaskResult, error)
	DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error
	AcceptDateSuggestion(ctx context.Context, ownerID, id uuid.UUID) (*service.SuggestionResult, error)
}

type ProgressService interface {
	GetUserProgress(context.Context, uuid.UUID) (*progress.Progress, error)
	GetAchievements(context.Context, uuid.UUID) ([]service.AchievementView, error)
}

type AIService interface {
	ProcessNaturalLanguageInput(ctx context.Context, ownerID uuid.UUID, in service.ProcessInput) (*service.ProcessResult, error)
	TranscribeAudio(ctx context.Context, audioBase64 string) (*service.TranscriptionResult, error)
	TestConnection(context.Context) *service.ConnectionStatus
}

type UserService interface {
	Register(context.Context, service.RegisterInput) (*service.RegisterResult, error)
	GetUser(context.Context, uuid.UUID) (*user.User, error)
}
