package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"taskQuest/internal/gamification"
	"taskQuest/internal/logger"
	"taskQuest/internal/models/task"
	rep "taskQuest/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

type TaskService struct {
	repo   TaskRepository
	ledger XPLedger
}

func NewTaskService(repo TaskRepository, ledger XPLedger) *TaskService {
	return &TaskService{
		repo:   repo,
		ledger: ledger,
	}
}

type CreateTaskInput struct {
	OwnerID          uuid.UUID
	Title            string
	Description      string
	Priority         task.Priority
	DifficultyLevel  int
	ScheduledFor     *time.Time
	Duration         *int
	ParentTaskID     *uuid.UUID
	AIGenerated      bool
	AIContext        string
	SuggestedDate    *time.Time
	XPBoost          *int
	SuggestionReason string
}

// TaskResult - задача после изменения и начисление XP, если оно было
type TaskResult struct {
	Task     *task.Task
	XPResult *gamification.XPResult
}

type SuggestionResult struct {
	Task     *task.Task
	XPResult *gamification.XPResult
	Boost    int
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}

// normalizeTitle обрезает пробелы и проверяет заголовок одинаково при создании и обновлении
func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", NewValidationError("title", "не может быть пустым")
	}
	if utf8.RuneCountInString(title) > task.MaxTitleLen {
		return "", NewValidationError("title", fmt.Sprintf("длиннее %d символов", task.MaxTitleLen))
	}
	return title, nil
}

func (s *TaskService) validateCreate(in *CreateTaskInput) error {
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return err
	}
	in.Title = title
	if !in.Priority.IsValid() {
		return NewValidationError("priority", fmt.Sprintf("неизвестный приоритет %q", in.Priority))
	}
	if in.DifficultyLevel == 0 {
		in.DifficultyLevel = task.MinDifficulty
	}
	if in.DifficultyLevel < task.MinDifficulty || in.DifficultyLevel > task.MaxDifficulty {
		return NewValidationError("difficulty_level", "должна быть от 1 до 5")
	}
	if in.Duration != nil && *in.Duration <= 0 {
		return NewValidationError("duration", "должна быть больше нуля")
	}
	if in.XPBoost != nil && (*in.XPBoost < 10 || *in.XPBoost > 50) {
		return NewValidationError("xp_boost", "должен быть от 10 до 50")
	}
	return nil
}

// CreateTask создаёт задачу в статусе pending. XP кэшируется по приоритету и сложности без учёта подзадач.
func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (*task.Task, error) {
	if err := s.validateCreate(&in); err != nil {
		logger.Warn("Service: Неверные данные задачи", zap.Error(err))
		return nil, err
	}

	if in.ParentTaskID != nil {
		parent, err := s.getOwned(ctx, in.OwnerID, *in.ParentTaskID)
		if err != nil {
			return nil, err
		}
		if parent.IsSubtask() {
			return nil, NewValidationError("parent_task_id", "подзадача не может иметь своих подзадач")
		}
	}

	newTask := &task.Task{
		UUID:              uuid.New(),
		OwnerID:           in.OwnerID,
		Title:             in.Title,
		Description:       in.Description,
		Status:            task.StatusPending,
		Priority:          in.Priority,
		DifficultyLevel:   in.DifficultyLevel,
		XPValue:           gamification.ComputeXP(in.Priority, in.DifficultyLevel, 0),
		ScheduledFor:      in.ScheduledFor,
		Duration:          in.Duration,
		ParentTaskID:      in.ParentTaskID,
		AIGenerated:       in.AIGenerated,
		AIContext:         in.AIContext,
		SuggestedDate:     in.SuggestedDate,
		XPBoost:           in.XPBoost,
		SuggestionReason:  in.SuggestionReason,
		UsedSuggestedDate: false,
		CreatedAt:         time.Now(),
	}

	if err := s.repo.Create(ctx, newTask); err != nil {
		return nil, fmt.Errorf("создание задачи: %w", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", newTask.UUID.String()),
		zap.String("owner_id", in.OwnerID.String()),
		zap.Int("xp_value", newTask.XPValue))
	return newTask, nil
}

// getOwned - чужая задача неотличима от несуществующей
func (s *TaskService) getOwned(ctx context.Context, ownerID, id uuid.UUID) (*task.Task, error) {
	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id.String()))
			return nil, NewNotFound("Задача", id.String())
		}
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	if found.OwnerID != ownerID {
		logger.Warn("Service: Попытка доступа к чужой задаче",
			zap.String("target_id", id.String()),
			zap.String("owner_id", ownerID.String()))
		return nil, NewNotFound("Задача", id.String())
	}
	return found, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, ownerID, id uuid.UUID) (*task.Task, error) {
	return s.getOwned(ctx, ownerID, id)
}

// GetAllTasks: сначала запланированные по возрастанию даты, потом остальные; внутри - новые раньше
func (s *TaskService) GetAllTasks(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	tasks, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	SortTasks(tasks)
	return tasks, nil
}

func SortTasks(tasks []*task.Task) {
	slices.SortStableFunc(tasks, func(a, b *task.Task) int {
		switch {
		case a.ScheduledFor != nil && b.ScheduledFor != nil:
			if c := a.ScheduledFor.Compare(*b.ScheduledFor); c != 0 {
				return c
			}
		case a.ScheduledFor != nil:
			return -1
		case b.ScheduledFor != nil:
			return 1
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

func (s *TaskService) GetTasksByStatus(ctx context.Context, ownerID uuid.UUID, status task.Status) ([]*task.Task, error) {
	if !status.IsValid() {
		return nil, NewValidationError("status", fmt.Sprintf("неизвестный статус %q", status))
	}
	tasks, err := s.repo.ListByStatus(ctx, ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

// GetScheduledTasks - задачи с датой в [from, to], по возрастанию даты
func (s *TaskService) GetScheduledTasks(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*task.Task, error) {
	if to.Before(from) {
		return nil, NewValidationError("to", "раньше чем from")
	}
	tasks, err := s.repo.ListScheduled(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	slices.SortStableFunc(tasks, func(a, b *task.Task) int {
		return cmp.Compare(a.ScheduledFor.UnixMilli(), b.ScheduledFor.UnixMilli())
	})
	return tasks, nil
}

func (s *TaskService) SearchTasks(ctx context.Context, ownerID uuid.UUID, term string) ([]*task.Task, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []*task.Task{}, nil
	}
	tasks, err := s.repo.Search(ctx, ownerID, term)
	if err != nil {
		return nil, fmt.Errorf("поиск задач: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetSubtasks(ctx context.Context, ownerID, parentID uuid.UUID) ([]*task.Task, error) {
	if _, err := s.getOwned(ctx, ownerID, parentID); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListSubtasks(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("получение подзадач: %w", err)
	}
	return tasks, nil
}

// UpdateTask применяет пользовательские изменения. Приоритет и сложность через опции не меняются.
// Вход в completed начисляет XP, выход из completed списывает столько же.
func (s *TaskService) UpdateTask(ctx context.Context, ownerID, id uuid.UUID, options ...task.TaskOption) (*TaskResult, error) {
	current, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updated := current.Clone()
	updated.Apply(options...)

	if updated.Title, err = normalizeTitle(updated.Title); err != nil {
		return nil, err
	}
	if updated.Duration != nil && *updated.Duration <= 0 {
		return nil, NewValidationError("duration", "должна быть больше нуля")
	}
	if !updated.Status.IsValid() {
		return nil, NewValidationError("status", fmt.Sprintf("неизвестный статус %q", updated.Status))
	}

	return s.transition(ctx, current, updated)
}

// CompleteTask - однократное завершение, повтор отклоняется
func (s *TaskService) CompleteTask(ctx context.Context, ownerID, id uuid.UUID) (*TaskResult, error) {
	current, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if current.Status == task.StatusCompleted {
		return nil, NewBusinessError(CodeAlreadyCompleted, "Задача уже выполнена",
			ToDetail("id", id.String()))
	}

	updated := current.Clone()
	updated.Status = task.StatusCompleted
	return s.transition(ctx, current, updated)
}

// transition сохраняет задачу и проводит XP при входе в completed или выходе из него.
// Запись задачи идёт первой: проигравший гонку получает VERSION_CONFLICT до начисления.
func (s *TaskService) transition(ctx context.Context, current, updated *task.Task) (*TaskResult, error) {
	entering := current.Status != task.StatusCompleted && updated.Status == task.StatusCompleted
	leaving := current.Status == task.StatusCompleted && updated.Status != task.StatusCompleted

	var (
		delta int
		kind  gamification.AwardKind
	)
	if entering || leaving {
		subtasks, err := s.repo.CountSubtasks(ctx, current.UUID)
		if err != nil {
			return nil, fmt.Errorf("подсчёт подзадач: %w", err)
		}
		xp := gamification.ComputeXP(current.Priority, current.DifficultyLevel, subtasks)
		delta, kind = xp, gamification.KindCompletion
		if leaving {
			delta, kind = -xp, gamification.KindReversal
		}
	}

	if err := s.save(ctx, updated); err != nil {
		return nil, err
	}

	if !entering && !leaving {
		return &TaskResult{Task: updated}, nil
	}

	xpResult, err := s.ledger.AwardXP(ctx, current.OwnerID, delta, current.UUID, kind)
	if err != nil {
		s.compensate(ctx, current, updated)
		return nil, ledgerError(err)
	}

	logger.Info("Service: Статус задачи изменён",
		zap.String("task_id", current.UUID.String()),
		zap.String("from", string(current.Status)),
		zap.String("to", string(updated.Status)),
		zap.Int("xp", delta))
	return &TaskResult{Task: updated, XPResult: xpResult}, nil
}

func (s *TaskService) save(ctx context.Context, t *task.Task) error {
	if err := s.repo.Update(ctx, t); err != nil {
		switch {
		case errors.Is(err, rep.ErrVersionConflict):
			return NewVersionConflict("Задача", t.UUID.String())
		case errors.Is(err, rep.ErrNotFound):
			return NewNotFound("Задача", t.UUID.String())
		default:
			return fmt.Errorf("обновление задачи: %w", err)
		}
	}
	return nil
}

// compensate возвращает задачу в прежнее состояние, если XP не удалось провести
func (s *TaskService) compensate(ctx context.Context, previous, written *task.Task) {
	rollback := previous.Clone()
	rollback.Version = written.Version
	if err := s.repo.Update(ctx, rollback); err != nil {
		logger.Error("Service: Не удалось откатить задачу после ошибки начисления XP", err,
			zap.String("task_id", previous.UUID.String()))
		return
	}
	logger.Warn("Service: Задача откачена после ошибки начисления XP",
		zap.String("task_id", previous.UUID.String()))
}

func ledgerError(err error) error {
	if errors.Is(err, gamification.ErrProgressNotFound) {
		return &BusinessError{
			Code:    CodeProgressNotFound,
			Message: "Прогресс пользователя не найден",
			Details: map[string]any{},
			Err:     err,
		}
	}
	return fmt.Errorf("начисление XP: %w", err)
}

// DeleteTask удаляет задачу и её подзадачи. Начисленный XP не откатывается.
func (s *TaskService) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.getOwned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return NewNotFound("Задача", id.String())
		}
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id.String()))
	return nil
}

// AcceptDateSuggestion переносит задачу на предложенную дату и начисляет бонус. Работает один раз.
func (s *TaskService) AcceptDateSuggestion(ctx context.Context, ownerID, id uuid.UUID) (*SuggestionResult, error) {
	current, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !current.HasSuggestion() {
		return nil, NewBusinessError(CodeNoSuggestion, "У задачи нет предложенной даты",
			ToDetail("id", id.String()))
	}
	if current.UsedSuggestedDate {
		return nil, NewBusinessError(CodeSuggestionUsed, "Предложенная дата уже принята",
			ToDetail("id", id.String()))
	}

	updated := current.Clone()
	suggested := *current.SuggestedDate
	updated.ScheduledFor = &suggested
	updated.UsedSuggestedDate = true

	if err := s.save(ctx, updated); err != nil {
		return nil, err
	}

	boost := *current.XPBoost
	xpResult, err := s.ledger.AwardXP(ctx, ownerID, boost, id, gamification.KindBonus)
	if err != nil {
		s.compensate(ctx, current, updated)
		return nil, ledgerError(err)
	}

	logger.Info("Service: Принята предложенная дата",
		zap.String("task_id", id.String()),
		zap.Int("boost", boost))
	return &SuggestionResult{Task: updated, XPResult: xpResult, Boost: boost}, nil
}
