package dto

import (
	"fmt"
	"strings"
	"time"

	"taskQuest/internal/gamification"
	"taskQuest/internal/models/task"
	"taskQuest/internal/models/user"
	"taskQuest/internal/service"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Priority         task.Priority `json:"priority"`
	DifficultyLevel  int           `json:"difficulty_level"`
	ScheduledFor     *time.Time    `json:"scheduled_for,omitempty"`
	Duration         *int          `json:"duration,omitempty"`
	ParentTaskID     *uuid.UUID    `json:"parent_task_id,omitempty"`
	SuggestedDate    *time.Time    `json:"suggested_date,omitempty"`
	XPBoost          *int          `json:"xp_boost,omitempty"`
	SuggestionReason string        `json:"suggestion_reason,omitempty"`
}

func (r CreateTaskRequest) ToInput(ownerID uuid.UUID) service.CreateTaskInput {
	return service.CreateTaskInput{
		OwnerID:          ownerID,
		Title:            r.Title,
		Description:      r.Description,
		Priority:         r.Priority,
		DifficultyLevel:  r.DifficultyLevel,
		ScheduledFor:     r.ScheduledFor,
		Duration:         r.Duration,
		ParentTaskID:     r.ParentTaskID,
		SuggestedDate:    r.SuggestedDate,
		XPBoost:          r.XPBoost,
		SuggestionReason: r.SuggestionReason,
	}
}

// UpdateTaskRequest - только поля, которые пользователь может менять.
// Приоритет и сложность сюда не входят, неизвестные поля отклоняются декодером.
type UpdateTaskRequest struct {
	Title        *string      `json:"title,omitempty"`
	Description  *string      `json:"description,omitempty"`
	Status       *task.Status `json:"status,omitempty"`
	ScheduledFor *time.Time   `json:"scheduled_for,omitempty"`
	Duration     *int         `json:"duration,omitempty"`
}

func (r UpdateTaskRequest) Options() []task.TaskOption {
	var options []task.TaskOption
	if r.Title != nil {
		options = append(options, task.WithTitle(*r.Title))
	}
	if r.Description != nil {
		options = append(options, task.WithDescription(*r.Description))
	}
	if r.Status != nil {
		options = append(options, task.WithStatus(*r.Status))
	}
	if r.ScheduledFor != nil {
		options = append(options, task.WithScheduledFor(*r.ScheduledFor))
	}
	if r.Duration != nil {
		options = append(options, task.WithDuration(*r.Duration))
	}
	return options
}

// Validate отклоняет явно переданные пустые значения, а не пропускает их молча
func (r UpdateTaskRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return service.NewValidationError("title", "не может быть пустым")
	}
	if r.Status != nil && !r.Status.IsValid() {
		return service.NewValidationError("status", fmt.Sprintf("неизвестный статус %q", *r.Status))
	}
	if r.Duration != nil && *r.Duration <= 0 {
		return service.NewValidationError("duration", "должна быть больше нуля")
	}
	return nil
}

func (r UpdateTaskRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil &&
		r.ScheduledFor == nil && r.Duration == nil
}

type TaskResponse struct {
	UUID              uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	DifficultyLevel   int        `json:"difficulty_level"`
	XPValue           int        `json:"xp_value"`
	ScheduledFor      *time.Time `json:"scheduled_for,omitempty"`
	Duration          *int       `json:"duration,omitempty"`
	ParentTaskID      *uuid.UUID `json:"parent_task_id,omitempty"`
	AIGenerated       bool       `json:"ai_generated"`
	SuggestedDate     *time.Time `json:"suggested_date,omitempty"`
	XPBoost           *int       `json:"xp_boost,omitempty"`
	SuggestionReason  string     `json:"suggestion_reason,omitempty"`
	UsedSuggestedDate bool       `json:"used_suggested_date"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
	Version           int        `json:"version"`
}

func FromTask(t *task.Task) TaskResponse {
	return TaskResponse{
		UUID:              t.UUID,
		Title:             t.Title,
		Description:       t.Description,
		Status:            string(t.Status),
		Priority:          string(t.Priority),
		DifficultyLevel:   t.DifficultyLevel,
		XPValue:           t.XPValue,
		ScheduledFor:      t.ScheduledFor,
		Duration:          t.Duration,
		ParentTaskID:      t.ParentTaskID,
		AIGenerated:       t.AIGenerated,
		SuggestedDate:     t.SuggestedDate,
		XPBoost:           t.XPBoost,
		SuggestionReason:  t.SuggestionReason,
		UsedSuggestedDate: t.UsedSuggestedDate,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		Version:           t.Version,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type TaskWithXPResponse struct {
	Task     TaskResponse            `json:"task"`
	XPResult *gamification.XPResult `json:"xp_result"`
}

func FromTaskResult(r *service.TaskResult) TaskWithXPResponse {
	return TaskWithXPResponse{Task: FromTask(r.Task), XPResult: r.XPResult}
}

type SuggestionResponse struct {
	Task     TaskResponse            `json:"task"`
	XPResult *gamification.XPResult `json:"xp_result"`
	Boost    int                     `json:"boost"`
}

func FromSuggestionResult(r *service.SuggestionResult) SuggestionResponse {
	return SuggestionResponse{Task: FromTask(r.Task), XPResult: r.XPResult, Boost: r.Boost}
}

type ProcessContext struct {
	PreviousTasks []string `json:"previous_tasks,omitempty"`
	UserTimezone  string   `json:"user_timezone,omitempty"`
	// миллисекунды Unix
	CurrentTime *int64 `json:"current_time,omitempty"`
}

type ProcessInputRequest struct {
	Input     string          `json:"input"`
	InputType string          `json:"input_type"`
	Context   *ProcessContext `json:"context,omitempty"`
}

func (r ProcessInputRequest) ToInput() service.ProcessInput {
	in := service.ProcessInput{Input: r.Input, InputType: r.InputType}
	if r.InputType == "" {
		in.InputType = service.InputTypeText
	}
	if r.Context != nil {
		in.Context = &service.InputContext{
			PreviousTasks: r.Context.PreviousTasks,
			UserTimezone:  r.Context.UserTimezone,
		}
		if r.Context.CurrentTime != nil {
			t := time.UnixMilli(*r.Context.CurrentTime)
			in.Context.CurrentTime = &t
		}
	}
	return in
}

type CreatedTaskResponse struct {
	TaskResponse
	HasDateSuggestion bool                    `json:"has_date_suggestion"`
	SuggestionData    *service.SuggestionData `json:"suggestion_data"`
}

type ProcessResultResponse struct {
	Success bool                  `json:"success"`
	Tasks   []CreatedTaskResponse `json:"tasks,omitempty"`
	Error   string                `json:"error,omitempty"`
}

func FromProcessResult(r *service.ProcessResult) ProcessResultResponse {
	resp := ProcessResultResponse{Success: r.Success, Error: r.Error}
	if r.Success {
		resp.Tasks = make([]CreatedTaskResponse, 0, len(r.Tasks))
		for _, t := range r.Tasks {
			resp.Tasks = append(resp.Tasks, CreatedTaskResponse{
				TaskResponse:      FromTask(t.Task),
				HasDateSuggestion: t.HasDateSuggestion,
				SuggestionData:    t.SuggestionData,
			})
		}
	}
	return resp
}

type TranscribeRequest struct {
	// base64 без префикса data:
	AudioData string `json:"audio_data"`
}

type TranscriptionResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

type ConnectionResponse struct {
	Connected bool   `json:"connected"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

type RegisterRequest struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

type RegisterResponse struct {
	User    *user.User `json:"user"`
	Token   string     `json:"token"`
	Created bool       `json:"created"`
}
