package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskQuest/internal/ai"
	"taskQuest/internal/logger"
	"taskQuest/internal/models/task"
	rep "taskQuest/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	InputTypeText  = "text"
	InputTypeVoice = "voice"

	recordingFilename = "recording.webm"
)

// TaskCreator - создание задач, через которое проходят черновики модели
type TaskCreator interface {
	CreateTask(ctx context.Context, in CreateTaskInput) (*task.Task, error)
}

type AIService struct {
	drafter  TaskDrafter
	tasks    TaskCreator
	users    UserRepository
	progress ProgressReader
}

func NewAIService(drafter TaskDrafter, tasks TaskCreator, users UserRepository, progress ProgressReader) *AIService {
	return &AIService{
		drafter:  drafter,
		tasks:    tasks,
		users:    users,
		progress: progress,
	}
}

type InputContext struct {
	PreviousTasks []string
	UserTimezone  string
	CurrentTime   *time.Time
}

type ProcessInput struct {
	Input     string
	InputType string
	Context   *InputContext
}

type SuggestionData struct {
	SuggestedDate time.Time `json:"suggested_date"`
	XPBoost       int       `json:"xp_boost"`
	Reason        string    `json:"reason,omitempty"`
}

type CreatedTask struct {
	Task              *task.Task
	HasDateSuggestion bool
	SuggestionData    *SuggestionData
}

// ProcessResult - структурированный итог: ошибки модели и хранилища сюда, а не в error
type ProcessResult struct {
	Success bool
	Tasks   []CreatedTask
	Error   string
}

type TranscriptionResult struct {
	Success bool
	Text    string
	Error   string
}

type ConnectionStatus struct {
	Connected bool
	Status    int
	Error     string
}

func failed(err error) *ProcessResult {
	return &ProcessResult{Success: false, Error: err.Error()}
}

// ProcessNaturalLanguageInput превращает текст пользователя в задачи. error возвращается
// только при ошибке конфигурации (нет ключа API), всё остальное - в ProcessResult.
func (s *AIService) ProcessNaturalLanguageInput(ctx context.Context, ownerID uuid.UUID, in ProcessInput) (*ProcessResult, error) {
	start := time.Now()

	if !s.drafter.Configured() {
		logger.Error("AI: Ключ API не задан", ai.ErrMissingAPIKey)
		return nil, ai.ErrMissingAPIKey
	}

	pc, err := s.promptContext(ctx, ownerID, in.Context)
	if err != nil {
		logger.Error("AI: Ошибка обработки ввода", err, zap.String("owner_id", ownerID.String()))
		return failed(err), nil
	}

	drafts, err := s.drafter.DraftTasks(ctx, in.Input, pc)
	if err != nil {
		if errors.Is(err, ai.ErrMissingAPIKey) {
			return nil, err
		}
		logger.Error("AI: Ошибка обработки ввода", err, zap.String("owner_id", ownerID.String()))
		return failed(err), nil
	}

	created := make([]CreatedTask, 0, len(drafts))
	for _, draft := range drafts {
		item, err := s.createFromDraft(ctx, ownerID, in.Input, draft)
		if err != nil {
			logger.Error("AI: Не удалось сохранить задачу", err,
				zap.String("owner_id", ownerID.String()),
				zap.Int("created", len(created)))
			return failed(err), nil
		}
		created = append(created, item)
	}

	logger.Info("AI: Ввод обработан",
		zap.String("owner_id", ownerID.String()),
		zap.String("input_type", in.InputType),
		zap.Int("tasks", len(created)),
		zap.Duration("ms", time.Since(start)))
	return &ProcessResult{Success: true, Tasks: created}, nil
}

func (s *AIService) promptContext(ctx context.Context, ownerID uuid.UUID, in *InputContext) (ai.PromptContext, error) {
	if _, err := s.users.GetUserByID(ctx, ownerID); err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return ai.PromptContext{}, errors.New("User not found")
		}
		return ai.PromptContext{}, fmt.Errorf("получение пользователя: %w", err)
	}

	pc := ai.PromptContext{}
	if in != nil {
		pc.RecentTasks = in.PreviousTasks
		pc.UserTimezone = in.UserTimezone
		if in.CurrentTime != nil {
			pc.CurrentTime = *in.CurrentTime
		}
	}

	p, err := s.progress.GetProgress(ctx, ownerID)
	switch {
	case err == nil:
		pc.User = &ai.UserSnapshot{Level: p.CurrentLevel, Streak: p.CurrentStreak}
	case !errors.Is(err, rep.ErrNotFound):
		return ai.PromptContext{}, fmt.Errorf("получение прогресса: %w", err)
	}
	return pc, nil
}

// createFromDraft сохраняет родительскую задачу, затем её подзадачи
func (s *AIService) createFromDraft(ctx context.Context, ownerID uuid.UUID, input string, draft ai.TaskDraft) (CreatedTask, error) {
	parent, err := s.tasks.CreateTask(ctx, CreateTaskInput{
		OwnerID:          ownerID,
		Title:            draft.Title,
		Description:      draft.Description,
		Priority:         draft.Priority,
		DifficultyLevel:  draft.DifficultyLevel,
		ScheduledFor:     draft.ScheduledFor,
		Duration:         draft.Duration,
		AIGenerated:      true,
		AIContext:        input,
		SuggestedDate:    draft.SuggestedDate,
		XPBoost:          draft.XPBoost,
		SuggestionReason: draft.Reason,
	})
	if err != nil {
		return CreatedTask{}, err
	}

	item := CreatedTask{Task: parent, HasDateSuggestion: draft.HasSuggestion()}
	if item.HasDateSuggestion {
		item.SuggestionData = &SuggestionData{
			SuggestedDate: *draft.SuggestedDate,
			XPBoost:       *draft.XPBoost,
			Reason:        draft.Reason,
		}
	}

	for _, sub := range draft.Subtasks {
		_, err := s.tasks.CreateTask(ctx, CreateTaskInput{
			OwnerID:         ownerID,
			Title:           sub.Title,
			Description:     sub.Description,
			Priority:        sub.Priority,
			DifficultyLevel: sub.DifficultyLevel,
			ParentTaskID:    &parent.UUID,
			AIGenerated:     true,
			AIContext:       input,
		})
		if err != nil {
			return CreatedTask{}, err
		}
	}
	return item, nil
}

// TranscribeAudio распознаёт запись в base64. Как и разбор текста, ошибки возвращает в результате.
func (s *AIService) TranscribeAudio(ctx context.Context, audioBase64 string) (*TranscriptionResult, error) {
	if !s.drafter.Configured() {
		return nil, ai.ErrMissingAPIKey
	}

	audio, err := base64.StdEncoding.DecodeString(audioBase64)
	if err != nil {
		logger.Warn("AI: Неверные данные записи", zap.Error(err))
		return &TranscriptionResult{Success: false, Error: "Invalid audio data: " + err.Error()}, nil
	}
	if len(audio) == 0 {
		return &TranscriptionResult{Success: false, Error: ai.ErrNoSpeech.Error()}, nil
	}

	text, err := s.drafter.Transcribe(ctx, audio, recordingFilename)
	if err != nil {
		if errors.Is(err, ai.ErrMissingAPIKey) {
			return nil, err
		}
		if !errors.Is(err, ai.ErrNoSpeech) {
			logger.Error("AI: Ошибка распознавания записи", err)
		}
		return &TranscriptionResult{Success: false, Error: err.Error()}, nil
	}
	return &TranscriptionResult{Success: true, Text: text}, nil
}

// TestConnection проверяет ключ и доступность API запросом списка моделей
func (s *AIService) TestConnection(ctx context.Context) *ConnectionStatus {
	if !s.drafter.Configured() {
		return &ConnectionStatus{Connected: false, Error: "API key not configured"}
	}

	status, err := s.drafter.Ping(ctx)
	if err != nil {
		logger.Warn("AI: Проверка соединения не удалась", zap.Error(err))
		return &ConnectionStatus{Connected: false, Error: err.Error()}
	}

	ok := status >= http.StatusOK && status < http.StatusMultipleChoices
	res := &ConnectionStatus{Connected: ok, Status: status}
	if !ok {
		res.Error = fmt.Sprintf("HTTP %d", status)
	}
	return res
}
