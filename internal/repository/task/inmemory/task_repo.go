package inmemory

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskQuest/internal/logger"
	"taskQuest/internal/models/task"
	repo "taskQuest/internal/repository"

	"github.com/google/uuid"
)

// TaskStorage хранит копии задач: наружу никогда не уходят внутренние указатели
type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[taskToCreate.UUID]; ok {
		return repo.ErrAlreadyExists
	}

	if taskToCreate.CreatedAt.IsZero() {
		taskToCreate.CreatedAt = time.Now()
	}
	taskToCreate.Version = 1

	s.storage[taskToCreate.UUID] = taskToCreate.Clone()
	s.ids = append(s.ids, taskToCreate.UUID)
	return nil
}

// Update записывает задачу, если версия совпадает с сохранённой
func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	existed, ok := s.storage[taskToUpdate.UUID]
	if !ok {
		return repo.ErrNotFound
	}
	if existed.Version != taskToUpdate.Version {
		return repo.ErrVersionConflict
	}

	now := time.Now()
	taskToUpdate.UpdatedAt = &now
	taskToUpdate.Version++
	s.storage[taskToUpdate.UUID] = taskToUpdate.Clone()

	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return taskToGet.Clone(), nil
}

// Delete удаляет задачу вместе с её прямыми подзадачами
func (s *TaskStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	kept := s.ids[:0]
	for _, val := range s.ids {
		t := s.storage[val]
		if val == id || (t.ParentTaskID != nil && *t.ParentTaskID == id) {
			delete(s.storage, val)
			continue
		}
		kept = append(kept, val)
	}
	s.ids = kept
	return nil
}

func (s *TaskStorage) filter(match func(*task.Task) bool) []*task.Task {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, id := range s.ids {
		t := s.storage[id]
		if match(t) {
			res = append(res, t.Clone())
		}
	}
	return res
}

func (s *TaskStorage) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	return s.filter(func(t *task.Task) bool {
		return t.OwnerID == ownerID
	}), nil
}

func (s *TaskStorage) ListByStatus(ctx context.Context, ownerID uuid.UUID, status task.Status) ([]*task.Task, error) {
	return s.filter(func(t *task.Task) bool {
		return t.OwnerID == ownerID && t.Status == status
	}), nil
}

func (s *TaskStorage) ListSubtasks(ctx context.Context, parentID uuid.UUID) ([]*task.Task, error) {
	return s.filter(func(t *task.Task) bool {
		return t.ParentTaskID != nil && *t.ParentTaskID == parentID
	}), nil
}

func (s *TaskStorage) CountSubtasks(ctx context.Context, parentID uuid.UUID) (int, error) {
	subtasks, err := s.ListSubtasks(ctx, parentID)
	if err != nil {
		return 0, err
	}
	return len(subtasks), nil
}

// ListScheduled - задачи с scheduledFor в [from, to] включительно
func (s *TaskStorage) ListScheduled(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*task.Task, error) {
	return s.filter(func(t *task.Task) bool {
		return t.OwnerID == ownerID &&
			t.ScheduledFor != nil &&
			!t.ScheduledFor.Before(from) &&
			!t.ScheduledFor.After(to)
	}), nil
}

// Search ищет подстроку в названии и описании без учёта регистра
func (s *TaskStorage) Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*task.Task, error) {
	term = strings.ToLower(term)
	return s.filter(func(t *task.Task) bool {
		return t.OwnerID == ownerID &&
			(strings.Contains(strings.ToLower(t.Title), term) ||
				strings.Contains(strings.ToLower(t.Description), term))
	}), nil
}
