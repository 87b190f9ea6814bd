package task

import (
	"time"
)

// TaskOption применяет одно пользовательское изменение к задаче.
// Значения не проверяются здесь, это делает сервис. Приоритет и сложность сюда не входят.
type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithStatus(status Status) TaskOption {
	return func(task *Task) {
		task.Status = status
	}
}

func WithScheduledFor(scheduledFor time.Time) TaskOption {
	if scheduledFor.IsZero() {
		return nil
	}
	return func(task *Task) {
		task.ScheduledFor = &scheduledFor
	}
}

func WithDuration(minutes int) TaskOption {
	return func(task *Task) {
		task.Duration = &minutes
	}
}

// Apply применяет опции, пропуская nil
func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
}
