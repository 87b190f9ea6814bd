package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskQuest/internal/logger"
	"taskQuest/internal/models/task"
	repo "taskQuest/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

const taskColumns = `uuid, owner_id, title, description, status, priority,
	difficulty_level, xp_value, scheduled_for, duration, parent_task_id,
	ai_generated, ai_context, suggested_date, xp_boost, suggestion_reason,
	used_suggested_date, created_at, updated_at, version`

type Storage struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func warnIfSlow(op string, start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос",
			zap.String("op", op),
			zap.Duration("ms", time.Since(start)))
	}
}

func (s *Storage) Create(ctx context.Context, taskToCreate *task.Task) error {
	start := time.Now()
	defer warnIfSlow("task.create", start)

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}

	query := `INSERT INTO tasks
				(uuid, owner_id, title, description, status, priority,
				difficulty_level, xp_value, scheduled_for, duration, parent_task_id,
				ai_generated, ai_context, suggested_date, xp_boost, suggestion_reason,
				used_suggested_date, created_at, version)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, 1)
				RETURNING created_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToCreate.UUID,
		taskToCreate.OwnerID,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.Status,
		taskToCreate.Priority,
		taskToCreate.DifficultyLevel,
		taskToCreate.XPValue,
		taskToCreate.ScheduledFor,
		taskToCreate.Duration,
		taskToCreate.ParentTaskID,
		taskToCreate.AIGenerated,
		taskToCreate.AIContext,
		taskToCreate.SuggestedDate,
		taskToCreate.XPBoost,
		taskToCreate.SuggestionReason,
		taskToCreate.UsedSuggestedDate,
		taskToCreate.CreatedAt,
	).Scan(&taskToCreate.CreatedAt, &taskToCreate.Version)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	return nil
}

// Update пишет изменяемые поля, если версия в БД совпадает с версией задачи
func (s *Storage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	start := time.Now()
	defer warnIfSlow("task.update", start)

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				status = $3,
				scheduled_for = $4,
				duration = $5,
				used_suggested_date = $6,
				version = version + 1,
				updated_at = NOW()
			WHERE uuid = $7 AND version = $8
			RETURNING updated_at, version`

	err := s.pool.QueryRow(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.Status,
		taskToUpdate.ScheduledFor,
		taskToUpdate.Duration,
		taskToUpdate.UsedSuggestedDate,
		taskToUpdate.UUID,
		taskToUpdate.Version,
	).Scan(&taskToUpdate.UpdatedAt, &taskToUpdate.Version)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return s.missingOrConflict(ctx, taskToUpdate)
		}
		logger.Error("Repository: Не удалось обновить задачу", err)
		return fmt.Errorf("обновление задачи: %w", err)
	}
	return nil
}

// missingOrConflict различает удалённую задачу и устаревшую версию
func (s *Storage) missingOrConflict(ctx context.Context, t *task.Task) error {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE uuid = $1)`, t.UUID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("проверка существования задачи: %w", err)
	}
	if !exists {
		return repo.ErrNotFound
	}
	logger.Warn("Конфликт версий при обновлении задачи",
		zap.String("task_id", t.UUID.String()),
		zap.Int("expected_version", t.Version))
	return repo.ErrVersionConflict
}

func (s *Storage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("task.get", start)

	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE uuid = $1`, id)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	found, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, fmt.Errorf("получение задачи: %w", err)
	}
	return found, nil
}

// Delete удаляет задачу и её прямые подзадачи одним запросом
func (s *Storage) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow("task.delete", start)

	query := `DELETE FROM tasks
				WHERE uuid = $1 OR parent_task_id = $1`

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *Storage) list(ctx context.Context, op, where string, args ...any) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow(op, start)

	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks WHERE `+where+` ORDER BY created_at`, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.String("op", op))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		logger.Error("Repository: Ошибка сканирования задач", err, zap.String("op", op))
		return nil, fmt.Errorf("сканирование задач: %w", err)
	}
	return tasks, nil
}

func (s *Storage) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	return s.list(ctx, "task.list_owner", `owner_id = $1`, ownerID)
}

func (s *Storage) ListByStatus(ctx context.Context, ownerID uuid.UUID, status task.Status) ([]*task.Task, error) {
	return s.list(ctx, "task.list_status", `owner_id = $1 AND status = $2`, ownerID, status)
}

func (s *Storage) ListSubtasks(ctx context.Context, parentID uuid.UUID) ([]*task.Task, error) {
	return s.list(ctx, "task.list_subtasks", `parent_task_id = $1`, parentID)
}

func (s *Storage) ListScheduled(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*task.Task, error) {
	return s.list(ctx, "task.list_scheduled",
		`owner_id = $1 AND scheduled_for BETWEEN $2 AND $3`, ownerID, from, to)
}

// Search - поиск подстроки без учёта регистра; спецсимволы LIKE экранируются
func (s *Storage) Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*task.Task, error) {
	pattern := "%" + escapeLike(term) + "%"
	return s.list(ctx, "task.search",
		`owner_id = $1 AND (title ILIKE $2 OR description ILIKE $2)`, ownerID, pattern)
}

func (s *Storage) CountSubtasks(ctx context.Context, parentID uuid.UUID) (int, error) {
	start := time.Now()
	defer warnIfSlow("task.count_subtasks", start)

	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE parent_task_id = $1`, parentID).Scan(&count)
	if err != nil {
		logger.Error("Repository: Не удалось посчитать подзадачи", err)
		return 0, fmt.Errorf("подсчёт подзадач: %w", err)
	}
	return count, nil
}

func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
