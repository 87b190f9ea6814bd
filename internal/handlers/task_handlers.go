package handlers

import (
	"net/http"
	"time"

	"taskQuest/internal/handlers/dto"
	"taskQuest/internal/logger"
	"taskQuest/internal/models/task"

	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

func (s *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: Health check")

	if err := s.TaskService.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: Хранилище недоступно", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unhealthy"),
			toPayload("service", "taskquest"),
			toPayload("error", err.Error()))
		return
	}

	responseWithJSON(w, http.StatusOK,
		toPayload("status", "healthy"),
		toPayload("service", "taskquest"),
		toPayload("time", time.Now().UTC()))
}

func (s *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	var request dto.CreateTaskRequest
	if !decodeJSON(w, r, maxBodyBytes, &request) {
		return
	}

	logger.Info("HTTP: Вызов сервиса создания задачи")
	created, err := s.TaskService.CreateTask(r.Context(), request.ToInput(owner))
	if err != nil {
		handleServiceError(w, r, err, "create_task")
		return
	}

	logger.Info("HTTP_OUT: Задача создана",
		zap.String("task_id", created.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	responseWithBody(w, http.StatusCreated, dto.FromTask(created))
}

// GetTasks отдаёт список задач владельца. Фильтры взаимоисключающие, по приоритету:
// q (поиск), from+to (расписание), status.
func (s *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	var (
		tasks []*task.Task
		err   error
	)

	switch {
	case query.Has("q"):
		tasks, err = s.TaskService.SearchTasks(r.Context(), owner, query.Get("q"))

	case query.Has("from") || query.Has("to"):
		from, fromErr := time.Parse(time.RFC3339, query.Get("from"))
		to, toErr := time.Parse(time.RFC3339, query.Get("to"))
		if fromErr != nil || toErr != nil {
			logger.Warn("HTTP: Ошибка валидации",
				zap.String("field", "from/to"),
				zap.String("error", "wrong_format"),
				zap.String("client_ip", r.RemoteAddr))

			responseWithError(w, http.StatusBadRequest, "from и to должны быть заданы в RFC3339")
			return
		}
		tasks, err = s.TaskService.GetScheduledTasks(r.Context(), owner, from, to)

	case query.Has("status"):
		status := task.Status(query.Get("status"))
		if !status.IsValid() {
			logger.Warn("HTTP: Ошибка валидации",
				zap.String("field", "status"),
				zap.String("error", "wrong_value"),
				zap.String("client_ip", r.RemoteAddr))

			responseWithError(w, http.StatusBadRequest, "неизвестный статус: "+string(status))
			return
		}
		tasks, err = s.TaskService.GetTasksByStatus(r.Context(), owner, status)

	default:
		tasks, err = s.TaskService.GetAllTasks(r.Context(), owner)
	}

	if err != nil {
		handleServiceError(w, r, err, "list_tasks")
		return
	}

	logger.Info("HTTP_OUT: Задачи получены",
		zap.Int("count", len(tasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (s *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	found, err := s.TaskService.GetTaskByID(r.Context(), owner, id)
	if err != nil {
		handleServiceError(w, r, err, "get_task")
		return
	}

	logger.Info("HTTP_OUT: Задача получена",
		zap.String("task_id", found.UUID.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTask(found))
}

func (s *TaskHandler) GetSubtasks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	subtasks, err := s.TaskService.GetSubtasks(r.Context(), owner, id)
	if err != nil {
		handleServiceError(w, r, err, "get_subtasks")
		return
	}

	logger.Info("HTTP_OUT: Подзадачи получены",
		zap.String("task_id", id.String()),
		zap.Int("count", len(subtasks)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTaskList(subtasks))
}

func (s *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if !decodeJSON(w, r, maxBodyBytes, &request) {
		return
	}

	if request.IsEmpty() {
		logger.Warn("HTTP: Ошибка валидации",
			zap.String("field", "body"),
			zap.String("error", "empty_update"),
			zap.String("client_ip", r.RemoteAddr))

		responseWithError(w, http.StatusBadRequest, "нет полей для обновления")
		return
	}
	if err := request.Validate(); err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP: запрос к сервису обновления задачи")
	result, err := s.TaskService.UpdateTask(r.Context(), owner, id, request.Options()...)
	if err != nil {
		handleServiceError(w, r, err, "update_task")
		return
	}

	logger.Info("HTTP_OUT: Задача обновлена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTaskResult(result))
}

func (s *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	result, err := s.TaskService.CompleteTask(r.Context(), owner, id)
	if err != nil {
		handleServiceError(w, r, err, "complete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача выполнена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromTaskResult(result))
}

func (s *TaskHandler) AcceptDateSuggestion(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	result, err := s.TaskService.AcceptDateSuggestion(r.Context(), owner, id)
	if err != nil {
		handleServiceError(w, r, err, "accept_suggestion")
		return
	}

	logger.Info("HTTP_OUT: Предложенная дата принята",
		zap.String("task_id", id.String()),
		zap.Int("boost", result.Boost),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithBody(w, http.StatusOK, dto.FromSuggestionResult(result))
}

func (s *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	owner, ok := ownerID(w, r)
	if !ok {
		return
	}
	id, ok := urlID(w, r, "id")
	if !ok {
		return
	}

	logger.Info("HTTP: Обращение к сервису для удаления задачи")
	if err := s.TaskService.DeleteTask(r.Context(), owner, id); err != nil {
		handleServiceError(w, r, err, "delete_task")
		return
	}

	logger.Info("HTTP_OUT: Задача удалена",
		zap.String("task_id", id.String()),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusNoContent))

	w.WriteHeader(http.StatusNoContent)
}
