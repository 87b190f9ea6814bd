package task

import (
	"time"

	"github.com/google/uuid"
)

type Task struct {
	UUID        uuid.UUID  `json:"uuid" db:"uuid"`
	OwnerID     uuid.UUID  `json:"owner_id" db:"owner_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      Status     `json:"status" db:"status"`
	Priority    Priority   `json:"priority" db:"priority"`
	// сложность 1-5, выставляется ИИ и пользователем не меняется
	DifficultyLevel int `json:"difficulty_level" db:"difficulty_level"`
	// кэшируется при создании, при редактировании не пересчитывается
	XPValue int `json:"xp_value" db:"xp_value"`

	ScheduledFor *time.Time `json:"scheduled_for,omitempty" db:"scheduled_for"`
	Duration     *int       `json:"duration,omitempty" db:"duration"`
	ParentTaskID *uuid.UUID `json:"parent_task_id,omitempty" db:"parent_task_id"`

	AIGenerated bool   `json:"ai_generated" db:"ai_generated"`
	AIContext   string `json:"ai_context,omitempty" db:"ai_context"`

	SuggestedDate     *time.Time `json:"suggested_date,omitempty" db:"suggested_date"`
	XPBoost           *int       `json:"xp_boost,omitempty" db:"xp_boost"`
	SuggestionReason  string     `json:"suggestion_reason,omitempty" db:"suggestion_reason"`
	UsedSuggestedDate bool       `json:"used_suggested_date" db:"used_suggested_date"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	Version   int        `db:"version" json:"version"`
}

type Status string
type Priority string

const StatusPending Status = "pending"
const StatusInProgress Status = "in_progress"
const StatusCompleted Status = "completed"

const PriorityLow Priority = "low"
const PriorityMedium Priority = "medium"
const PriorityHigh Priority = "high"
const PriorityUrgent Priority = "urgent"

const MinDifficulty = 1
const MaxDifficulty = 5

// MaxTitleLen - длина колонки title в символах
const MaxTitleLen = 255

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// HasSuggestion сообщает, есть ли у задачи предложение даты с бонусом
func (t *Task) HasSuggestion() bool {
	return t.SuggestedDate != nil && t.XPBoost != nil && *t.XPBoost > 0
}

func (t *Task) IsSubtask() bool {
	return t.ParentTaskID != nil
}

// Clone возвращает глубокую копию, чтобы хранилища не отдавали наружу свои указатели
func (t *Task) Clone() *Task {
	c := *t
	if t.ScheduledFor != nil {
		v := *t.ScheduledFor
		c.ScheduledFor = &v
	}
	if t.Duration != nil {
		v := *t.Duration
		c.Duration = &v
	}
	if t.ParentTaskID != nil {
		v := *t.ParentTaskID
		c.ParentTaskID = &v
	}
	if t.SuggestedDate != nil {
		v := *t.SuggestedDate
		c.SuggestedDate = &v
	}
	if t.XPBoost != nil {
		v := *t.XPBoost
		c.XPBoost = &v
	}
	if t.UpdatedAt != nil {
		v := *t.UpdatedAt
		c.UpdatedAt = &v
	}
	return &c
}
