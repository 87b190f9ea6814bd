package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"taskQuest/internal/auth"
	"taskQuest/internal/gamification"
	"taskQuest/internal/handlers"
	"taskQuest/internal/handlers/dto"
	"taskQuest/internal/models/task"
	"taskQuest/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockTaskService - мок сервиса задач
type MockTaskService struct {
	mock.Mock
}

func (m *MockTaskService) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskService) CreateTask(ctx context.Context, in service.CreateTaskInput) (*task.Task, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) GetTaskByID(ctx context.Context, ownerID, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskService) GetAllTasks(ctx context.Context, ownerID uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) GetTasksByStatus(ctx context.Context, ownerID uuid.UUID, status task.Status) ([]*task.Task, error) {
	args := m.Called(ctx, ownerID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) GetScheduledTasks(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*task.Task, error) {
	args := m.Called(ctx, ownerID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) SearchTasks(ctx context.Context, ownerID uuid.UUID, term string) ([]*task.Task, error) {
	args := m.Called(ctx, ownerID, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) GetSubtasks(ctx context.Context, ownerID, parentID uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, ownerID, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskService) UpdateTask(ctx context.Context, ownerID, id uuid.UUID, options ...task.TaskOption) (*service.TaskResult, error) {
	args := m.Called(ctx, ownerID, id, options)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TaskResult), args.Error(1)
}

func (m *MockTaskService) CompleteTask(ctx context.Context, ownerID, id uuid.UUID) (*service.TaskResult, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TaskResult), args.Error(1)
}

func (m *MockTaskService) DeleteTask(ctx context.Context, ownerID, id uuid.UUID) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

func (m *MockTaskService) AcceptDateSuggestion(ctx context.Context, ownerID, id uuid.UUID) (*service.SuggestionResult, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SuggestionResult), args.Error(1)
}

var _ handlers.TaskService = (*MockTaskService)(nil)

// newRequest собирает запрос так, как его видит обработчик за роутером:
// с пользователем из токена и параметром id
func newRequest(method, target, body string, owner uuid.UUID, id string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	ctx := req.Context()
	if owner != uuid.Nil {
		ctx = auth.WithUserID(ctx, owner)
	}
	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func sampleTask(owner uuid.UUID) *task.Task {
	return &task.Task{
		UUID:            uuid.New(),
		OwnerID:         owner,
		Title:           "Test Task",
		Status:          task.StatusPending,
		Priority:        task.PriorityHigh,
		DifficultyLevel: 3,
		XPValue:         75,
		CreatedAt:       time.Now(),
		Version:         1,
	}
}

// TestTaskHandler_HealthCheck тестирует HealthCheck
func TestTaskHandler_HealthCheck(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success - healthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - unhealthy",
			setupMock: func(m *MockTaskService) {
				m.On("HealthCheck", mock.Anything).Return(errors.New("service unavailable"))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()

			handler.HealthCheck(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), "taskquest")

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_PostTask тестирует создание задачи
func TestTaskHandler_PostTask(t *testing.T) {
	owner := uuid.New()
	created := sampleTask(owner)

	tests := []struct {
		name           string
		requestBody    string
		contentType    string
		owner          uuid.UUID
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:        "success - create task",
			requestBody: `{"title":"Test Task","priority":"high","difficulty_level":3,"duration":30}`,
			contentType: "application/json",
			owner:       owner,
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.MatchedBy(func(in service.CreateTaskInput) bool {
					return in.OwnerID == owner && in.Title == "Test Task" && in.Priority == task.PriorityHigh &&
						in.DifficultyLevel == 3 && in.Duration != nil && *in.Duration == 30 && !in.AIGenerated
				})).Return(created, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "error - invalid content type",
			requestBody:    `{}`,
			contentType:    "text/plain",
			owner:          owner,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:           "error - invalid JSON",
			requestBody:    `{invalid json}`,
			contentType:    "application/json",
			owner:          owner,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - unknown field",
			requestBody:    `{"title":"Test Task","xp_value":1000}`,
			contentType:    "application/json",
			owner:          owner,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - no user",
			requestBody:    `{"title":"Test Task"}`,
			contentType:    "application/json",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:        "error - validation",
			requestBody: `{"title":"","priority":"high"}`,
			contentType: "application/json",
			owner:       owner,
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).
					Return(nil, service.NewValidationError("title", "не может быть пустым"))
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - service error",
			requestBody: `{"title":"Test Task","priority":"high"}`,
			contentType: "application/json",
			owner:       owner,
			setupMock: func(m *MockTaskService) {
				m.On("CreateTask", mock.Anything, mock.Anything).Return(nil, errors.New("service error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)

			req := newRequest(http.MethodPost, "/tasks", tt.requestBody, tt.owner, "")
			req.Header.Set("Content-Type", tt.contentType)
			w := httptest.NewRecorder()

			handler.PostTask(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedStatus == http.StatusCreated {
				response := decodeBody[dto.TaskResponse](t, w)
				assert.Equal(t, created.UUID, response.UUID)
				assert.Equal(t, "Test Task", response.Title)
				assert.Equal(t, 75, response.XPValue)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetTasks тестирует выбор фильтра по параметрам запроса
func TestTaskHandler_GetTasks(t *testing.T) {
	owner := uuid.New()
	list := []*task.Task{sampleTask(owner)}
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "all tasks",
			target: "/tasks",
			setupMock: func(m *MockTaskService) {
				m.On("GetAllTasks", mock.Anything, owner).Return(list, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "search wins over other filters",
			target: "/tasks?q=report&status=completed",
			setupMock: func(m *MockTaskService) {
				m.On("SearchTasks", mock.Anything, owner, "report").Return(list, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "scheduled range",
			target: "/tasks?from=2026-04-01T00:00:00Z&to=2026-04-08T00:00:00Z",
			setupMock: func(m *MockTaskService) {
				m.On("GetScheduledTasks", mock.Anything, owner,
					mock.MatchedBy(from.Equal), mock.MatchedBy(to.Equal)).Return(list, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "range without upper bound",
			target:         "/tasks?from=2026-04-01T00:00:00Z",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "by status",
			target: "/tasks?status=in_progress",
			setupMock: func(m *MockTaskService) {
				m.On("GetTasksByStatus", mock.Anything, owner, task.StatusInProgress).Return(list, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "unknown status",
			target:         "/tasks?status=archived",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "reversed range",
			target: "/tasks?from=2026-04-08T00:00:00Z&to=2026-04-01T00:00:00Z",
			setupMock: func(m *MockTaskService) {
				m.On("GetScheduledTasks", mock.Anything, owner, mock.Anything, mock.Anything).
					Return(nil, service.NewValidationError("to", "раньше чем from"))
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)
			w := httptest.NewRecorder()

			handler.GetTasks(w, newRequest(http.MethodGet, tt.target, "", owner, ""))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				response := decodeBody[[]dto.TaskResponse](t, w)
				assert.Len(t, response, 1)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_GetTaskByID тестирует получение задачи по ID
func TestTaskHandler_GetTaskByID(t *testing.T) {
	owner := uuid.New()
	found := sampleTask(owner)

	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success - get task",
			taskID: found.UUID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, owner, found.UUID).Return(found, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - invalid UUID",
			taskID:         "invalid-uuid",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - nil UUID",
			taskID:         uuid.Nil.String(),
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - task not found",
			taskID: found.UUID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("GetTaskByID", mock.Anything, owner, found.UUID).
					Return(nil, service.NewNotFound("Задача", found.UUID.String()))
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)
			w := httptest.NewRecorder()

			handler.GetTaskByID(w, newRequest(http.MethodGet, "/tasks/"+tt.taskID, "", owner, tt.taskID))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusNotFound {
				body := decodeBody[map[string]any](t, w)
				assert.Equal(t, service.CodeNotFound, body["error"])
			}

			mockService.AssertExpectations(t)
		})
	}
}

func TestTaskHandler_GetSubtasks(t *testing.T) {
	owner := uuid.New()
	parent := sampleTask(owner)
	sub := sampleTask(owner)
	sub.ParentTaskID = &parent.UUID

	mockService := new(MockTaskService)
	mockService.On("GetSubtasks", mock.Anything, owner, parent.UUID).Return([]*task.Task{sub}, nil)

	handler := handlers.NewTaskHandler(mockService)
	w := httptest.NewRecorder()
	handler.GetSubtasks(w, newRequest(http.MethodGet, "/tasks/x/subtasks", "", owner, parent.UUID.String()))

	require.Equal(t, http.StatusOK, w.Code)
	response := decodeBody[[]dto.TaskResponse](t, w)
	require.Len(t, response, 1)
	require.NotNil(t, response[0].ParentTaskID)
	assert.Equal(t, parent.UUID, *response[0].ParentTaskID)

	mockService.AssertExpectations(t)
}

// TestTaskHandler_UpdateTaskByID тестирует обновление задачи
func TestTaskHandler_UpdateTaskByID(t *testing.T) {
	owner := uuid.New()
	current := sampleTask(owner)
	completed := current.Clone()
	completed.Status = task.StatusCompleted

	tests := []struct {
		name           string
		requestBody    string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectXP       bool
	}{
		{
			name:        "success - completion through update",
			requestBody: `{"status":"completed"}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, owner, current.UUID, mock.MatchedBy(func(opts []task.TaskOption) bool {
					applied := current.Clone()
					applied.Apply(opts...)
					return applied.Status == task.StatusCompleted && applied.Title == current.Title
				})).Return(&service.TaskResult{
					Task:     completed,
					XPResult: &gamification.XPResult{XPAwarded: 75, NewTotalXP: 75, NewLevel: 1, NewStreak: 1},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectXP:       true,
		},
		{
			name:        "success - title only",
			requestBody: `{"title":"Renamed"}`,
			setupMock: func(m *MockTaskService) {
				renamed := current.Clone()
				renamed.Title = "Renamed"
				m.On("UpdateTask", mock.Anything, owner, current.UUID, mock.Anything).
					Return(&service.TaskResult{Task: renamed}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "error - priority is not editable",
			requestBody:    `{"priority":"low"}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - empty update",
			requestBody:    `{}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - empty title",
			requestBody:    `{"title":"  "}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - zero duration",
			requestBody:    `{"duration":0}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "error - empty status",
			requestBody:    `{"status":""}`,
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "error - version conflict",
			requestBody: `{"status":"in_progress"}`,
			setupMock: func(m *MockTaskService) {
				m.On("UpdateTask", mock.Anything, owner, current.UUID, mock.Anything).
					Return(nil, service.NewVersionConflict("Задача", current.UUID.String()))
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)
			w := httptest.NewRecorder()

			handler.UpdateTaskByID(w, newRequest(http.MethodPut, "/tasks/x", tt.requestBody, owner, current.UUID.String()))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				response := decodeBody[dto.TaskWithXPResponse](t, w)
				assert.Equal(t, current.UUID, response.Task.UUID)
				if tt.expectXP {
					require.NotNil(t, response.XPResult)
					assert.Equal(t, 75, response.XPResult.XPAwarded)
				} else {
					assert.Nil(t, response.XPResult)
				}
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_CompleteTask тестирует завершение задачи
func TestTaskHandler_CompleteTask(t *testing.T) {
	owner := uuid.New()
	current := sampleTask(owner)
	completed := current.Clone()
	completed.Status = task.StatusCompleted

	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "success",
			setupMock: func(m *MockTaskService) {
				m.On("CompleteTask", mock.Anything, owner, current.UUID).Return(&service.TaskResult{
					Task: completed,
					XPResult: &gamification.XPResult{
						XPAwarded: 75, NewTotalXP: 150, NewLevel: 2, LevelUp: true,
						NewCharacterStage: 2, StageUp: true, NewStreak: 3,
						UnlockedAchievements: []string{"streak_starter"},
					},
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - already completed",
			setupMock: func(m *MockTaskService) {
				m.On("CompleteTask", mock.Anything, owner, current.UUID).
					Return(nil, service.NewBusinessError(service.CodeAlreadyCompleted, "Задача уже выполнена"))
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   service.CodeAlreadyCompleted,
		},
		{
			name: "error - progress missing",
			setupMock: func(m *MockTaskService) {
				m.On("CompleteTask", mock.Anything, owner, current.UUID).
					Return(nil, service.NewBusinessError(service.CodeProgressNotFound, "Прогресс пользователя не найден"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   service.CodeProgressNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)
			w := httptest.NewRecorder()

			handler.CompleteTask(w, newRequest(http.MethodPost, "/tasks/x/complete", "", owner, current.UUID.String()))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				body := decodeBody[map[string]any](t, w)
				assert.Equal(t, tt.expectedCode, body["error"])
			} else {
				response := decodeBody[dto.TaskWithXPResponse](t, w)
				assert.Equal(t, "completed", response.Task.Status)
				require.NotNil(t, response.XPResult)
				assert.True(t, response.XPResult.LevelUp)
				assert.Equal(t, []string{"streak_starter"}, response.XPResult.UnlockedAchievements)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_AcceptDateSuggestion тестирует принятие предложенной даты
func TestTaskHandler_AcceptDateSuggestion(t *testing.T) {
	owner := uuid.New()
	current := sampleTask(owner)

	tests := []struct {
		name           string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name: "success",
			setupMock: func(m *MockTaskService) {
				accepted := current.Clone()
				accepted.UsedSuggestedDate = true
				m.On("AcceptDateSuggestion", mock.Anything, owner, current.UUID).Return(&service.SuggestionResult{
					Task:     accepted,
					XPResult: &gamification.XPResult{XPAwarded: 20, NewTotalXP: 20, NewLevel: 1},
					Boost:    20,
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "error - already used",
			setupMock: func(m *MockTaskService) {
				m.On("AcceptDateSuggestion", mock.Anything, owner, current.UUID).
					Return(nil, service.NewBusinessError(service.CodeSuggestionUsed, "Предложенная дата уже принята"))
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "error - no suggestion",
			setupMock: func(m *MockTaskService) {
				m.On("AcceptDateSuggestion", mock.Anything, owner, current.UUID).
					Return(nil, service.NewBusinessError(service.CodeNoSuggestion, "У задачи нет предложенной даты"))
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)
			w := httptest.NewRecorder()

			handler.AcceptDateSuggestion(w, newRequest(http.MethodPost, "/tasks/x/accept-suggestion", "", owner, current.UUID.String()))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				response := decodeBody[dto.SuggestionResponse](t, w)
				assert.Equal(t, 20, response.Boost)
				assert.True(t, response.Task.UsedSuggestedDate)
			}

			mockService.AssertExpectations(t)
		})
	}
}

// TestTaskHandler_DeleteTaskByID тестирует удаление задачи
func TestTaskHandler_DeleteTaskByID(t *testing.T) {
	owner := uuid.New()
	taskID := uuid.New()

	tests := []struct {
		name           string
		taskID         string
		setupMock      func(*MockTaskService)
		expectedStatus int
	}{
		{
			name:   "success - delete task",
			taskID: taskID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, owner, taskID).Return(nil)
			},
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "error - invalid UUID",
			taskID:         "invalid-uuid",
			setupMock:      func(m *MockTaskService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "error - not found",
			taskID: taskID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, owner, taskID).
					Return(service.NewNotFound("Задача", taskID.String()))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "error - service error",
			taskID: taskID.String(),
			setupMock: func(m *MockTaskService) {
				m.On("DeleteTask", mock.Anything, owner, taskID).Return(errors.New("database error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockTaskService)
			tt.setupMock(mockService)

			handler := handlers.NewTaskHandler(mockService)
			w := httptest.NewRecorder()

			handler.DeleteTaskByID(w, newRequest(http.MethodDelete, "/tasks/x", "", owner, tt.taskID))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusNoContent {
				assert.Empty(t, w.Body.String())
			}

			mockService.AssertExpectations(t)
		})
	}
}
