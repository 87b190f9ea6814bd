package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskQuest/internal/gamification"
	"taskQuest/internal/models/progress"
	"taskQuest/internal/models/task"
	"taskQuest/internal/models/user"
	progressmem "taskQuest/internal/repository/progress/inmemory"
	taskmem "taskQuest/internal/repository/task/inmemory"
	"taskQuest/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// env - сервисы поверх хранилищ в памяти и настоящего леджера
type env struct {
	tasks      *taskmem.TaskStorage
	store      *progressmem.Storage
	ledger     *gamification.Ledger
	service    *service.TaskService
	ownerID    uuid.UUID
	strangerID uuid.UUID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	store := progressmem.New()
	evaluator := gamification.NewEvaluator(store, store)
	_, err := evaluator.Seed(ctx)
	require.NoError(t, err)
	ledger := gamification.NewLedger(store, evaluator, gamification.WithLocation(time.UTC))

	tasks := taskmem.NewTaskStorage()
	e := &env{
		tasks:   tasks,
		store:   store,
		ledger:  ledger,
		service: service.NewTaskService(tasks, ledger),
	}
	e.ownerID = e.addUser(t, "owner@example.com")
	e.strangerID = e.addUser(t, "stranger@example.com")
	return e
}

func (e *env) addUser(t *testing.T, email string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, e.store.CreateUser(context.Background(),
		&user.User{UUID: id, Email: email, Name: "User"},
		progress.New(id, time.Now())))
	return id
}

func (e *env) progress(t *testing.T) *progress.Progress {
	t.Helper()
	p, err := e.store.GetProgress(context.Background(), e.ownerID)
	require.NoError(t, err)
	return p
}

func (e *env) create(t *testing.T, in service.CreateTaskInput) *task.Task {
	t.Helper()
	if in.OwnerID == uuid.Nil {
		in.OwnerID = e.ownerID
	}
	if in.Priority == "" {
		in.Priority = task.PriorityHigh
	}
	if in.DifficultyLevel == 0 {
		in.DifficultyLevel = 3
	}
	created, err := e.service.CreateTask(context.Background(), in)
	require.NoError(t, err)
	return created
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var businessErr *service.BusinessError
	require.True(t, errors.As(err, &businessErr), "ожидалась бизнес-ошибка, получено: %v", err)
	assert.Equal(t, code, businessErr.Code)
}

func ptr[T any](v T) *T {
	return &v
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) AwardXP(ctx context.Context, userID uuid.UUID, delta int, taskID uuid.UUID, kind gamification.AwardKind) (*gamification.XPResult, error) {
	args := m.Called(ctx, userID, delta, taskID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gamification.XPResult), args.Error(1)
}

var _ service.XPLedger = (*MockLedger)(nil)
