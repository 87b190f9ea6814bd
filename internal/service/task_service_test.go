package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"taskQuest/internal/gamification"
	"taskQuest/internal/models/task"
	rep "taskQuest/internal/repository"
	taskmem "taskQuest/internal/repository/task/inmemory"
	"taskQuest/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTaskService_HealthCheck(t *testing.T) {
	e := newEnv(t)
	assert.NoError(t, e.service.HealthCheck(context.Background()))
}

func TestTaskService_CreateTask(t *testing.T) {
	e := newEnv(t)

	created := e.create(t, service.CreateTaskInput{
		Title:           "  Write report  ",
		Description:     "Quarterly",
		Priority:        task.PriorityHigh,
		DifficultyLevel: 3,
		Duration:        ptr(45),
	})

	assert.Equal(t, "Write report", created.Title)
	assert.Equal(t, task.StatusPending, created.Status)
	assert.Equal(t, 75, created.XPValue)
	assert.Equal(t, 1, created.Version)
	assert.False(t, created.UsedSuggestedDate)
	assert.False(t, created.CreatedAt.IsZero())

	stored, err := e.service.GetTaskByID(context.Background(), e.ownerID, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, created.UUID, stored.UUID)
}

func TestTaskService_CreateTask_DefaultDifficulty(t *testing.T) {
	e := newEnv(t)

	created, err := e.service.CreateTask(context.Background(), service.CreateTaskInput{
		OwnerID:  e.ownerID,
		Title:    "Stretch",
		Priority: task.PriorityLow,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, created.DifficultyLevel)
	assert.Equal(t, 5, created.XPValue)
}

func TestTaskService_CreateTask_Validation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name  string
		input service.CreateTaskInput
		field string
	}{
		{"empty title", service.CreateTaskInput{Title: "   ", Priority: task.PriorityLow}, "title"},
		{"long title", service.CreateTaskInput{Title: strings.Repeat("a", 256), Priority: task.PriorityLow}, "title"},
		{"unknown priority", service.CreateTaskInput{Title: "A", Priority: "critical"}, "priority"},
		{"difficulty too high", service.CreateTaskInput{Title: "A", Priority: task.PriorityLow, DifficultyLevel: 6}, "difficulty_level"},
		{"negative difficulty", service.CreateTaskInput{Title: "A", Priority: task.PriorityLow, DifficultyLevel: -1}, "difficulty_level"},
		{"zero duration", service.CreateTaskInput{Title: "A", Priority: task.PriorityLow, Duration: ptr(0)}, "duration"},
		{"boost out of range", service.CreateTaskInput{Title: "A", Priority: task.PriorityLow, XPBoost: ptr(60)}, "xp_boost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.OwnerID = e.ownerID
			_, err := e.service.CreateTask(context.Background(), tt.input)

			var businessErr *service.BusinessError
			require.ErrorAs(t, err, &businessErr)
			assert.Equal(t, service.CodeValidation, businessErr.Code)
			assert.Equal(t, tt.field, businessErr.Details["field"])
		})
	}
}

func TestTaskService_CreateSubtask(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	parent := e.create(t, service.CreateTaskInput{Title: "Move"})

	sub := e.create(t, service.CreateTaskInput{Title: "Pack", ParentTaskID: &parent.UUID})
	require.NotNil(t, sub.ParentTaskID)
	assert.Equal(t, parent.UUID, *sub.ParentTaskID)

	t.Run("subtask of a subtask", func(t *testing.T) {
		_, err := e.service.CreateTask(ctx, service.CreateTaskInput{
			OwnerID: e.ownerID, Title: "Tape", Priority: task.PriorityLow, ParentTaskID: &sub.UUID,
		})
		requireCode(t, err, service.CodeValidation)
	})

	t.Run("parent of another user", func(t *testing.T) {
		_, err := e.service.CreateTask(ctx, service.CreateTaskInput{
			OwnerID: e.strangerID, Title: "Steal", Priority: task.PriorityLow, ParentTaskID: &parent.UUID,
		})
		requireCode(t, err, service.CodeNotFound)
	})

	t.Run("missing parent", func(t *testing.T) {
		missing := uuid.New()
		_, err := e.service.CreateTask(ctx, service.CreateTaskInput{
			OwnerID: e.ownerID, Title: "Orphan", Priority: task.PriorityLow, ParentTaskID: &missing,
		})
		requireCode(t, err, service.CodeNotFound)
	})

	subtasks, err := e.service.GetSubtasks(ctx, e.ownerID, parent.UUID)
	require.NoError(t, err)
	require.Len(t, subtasks, 1)
	assert.Equal(t, sub.UUID, subtasks[0].UUID)
}

func TestTaskService_Ownership(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	own := e.create(t, service.CreateTaskInput{Title: "Mine"})

	_, err := e.service.GetTaskByID(ctx, e.strangerID, own.UUID)
	requireCode(t, err, service.CodeNotFound)

	_, err = e.service.CompleteTask(ctx, e.strangerID, own.UUID)
	requireCode(t, err, service.CodeNotFound)

	err = e.service.DeleteTask(ctx, e.strangerID, own.UUID)
	requireCode(t, err, service.CodeNotFound)

	tasks, err := e.service.GetAllTasks(ctx, e.strangerID)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskService_CompleteTask(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	created := e.create(t, service.CreateTaskInput{Title: "Report", Priority: task.PriorityHigh, DifficultyLevel: 3})

	res, err := e.service.CompleteTask(ctx, e.ownerID, created.UUID)
	require.NoError(t, err)

	assert.Equal(t, task.StatusCompleted, res.Task.Status)
	require.NotNil(t, res.XPResult)
	assert.Equal(t, 75, res.XPResult.XPAwarded)
	assert.Equal(t, 75, res.XPResult.NewTotalXP)
	assert.Equal(t, 1, res.XPResult.NewLevel)
	assert.False(t, res.XPResult.LevelUp)
	assert.Equal(t, 1, res.XPResult.NewStreak)
	assert.Equal(t, []string{"first_steps"}, res.XPResult.UnlockedAchievements)

	_, err = e.service.CompleteTask(ctx, e.ownerID, created.UUID)
	requireCode(t, err, service.CodeAlreadyCompleted)
	assert.Equal(t, 75, e.progress(t).TotalXP)
}

func TestTaskService_CompleteTask_CountsSubtasksAtCompletion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	parent := e.create(t, service.CreateTaskInput{Title: "Move", Priority: task.PriorityHigh, DifficultyLevel: 3})
	assert.Equal(t, 75, parent.XPValue)

	e.create(t, service.CreateTaskInput{Title: "Pack", ParentTaskID: &parent.UUID})
	e.create(t, service.CreateTaskInput{Title: "Clean", ParentTaskID: &parent.UUID})

	res, err := e.service.CompleteTask(ctx, e.ownerID, parent.UUID)
	require.NoError(t, err)
	assert.Equal(t, 85, res.XPResult.XPAwarded)
}

func TestTaskService_CompletionRoundTrip(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	created := e.create(t, service.CreateTaskInput{Title: "Gym", Priority: task.PriorityMedium, DifficultyLevel: 2})

	_, err := e.service.CompleteTask(ctx, e.ownerID, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, 25, e.progress(t).TotalXP)

	res, err := e.service.UpdateTask(ctx, e.ownerID, created.UUID, task.WithStatus(task.StatusPending))
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, res.Task.Status)
	require.NotNil(t, res.XPResult)
	assert.Equal(t, -25, res.XPResult.XPAwarded)
	assert.Equal(t, 0, e.progress(t).TotalXP)

	res, err = e.service.UpdateTask(ctx, e.ownerID, created.UUID, task.WithStatus(task.StatusCompleted))
	require.NoError(t, err)
	assert.Equal(t, 25, res.XPResult.XPAwarded)

	p := e.progress(t)
	assert.Equal(t, 25, p.TotalXP)
	assert.Equal(t, 2, p.TasksCompleted)
	assert.Equal(t, 1, p.CurrentStreak)
}

func TestTaskService_UpdateTask_NoTransition(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	created := e.create(t, service.CreateTaskInput{Title: "Read"})
	when := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	res, err := e.service.UpdateTask(ctx, e.ownerID, created.UUID,
		task.WithTitle("Read a book"),
		task.WithDescription("fiction"),
		task.WithStatus(task.StatusInProgress),
		task.WithScheduledFor(when),
		task.WithDuration(30))
	require.NoError(t, err)

	assert.Nil(t, res.XPResult)
	assert.Equal(t, "Read a book", res.Task.Title)
	assert.Equal(t, "fiction", res.Task.Description)
	assert.Equal(t, task.StatusInProgress, res.Task.Status)
	assert.True(t, res.Task.ScheduledFor.Equal(when))
	assert.Equal(t, 30, *res.Task.Duration)
	assert.Equal(t, created.Priority, res.Task.Priority)
	assert.Equal(t, created.DifficultyLevel, res.Task.DifficultyLevel)
	assert.Equal(t, 0, e.progress(t).TotalXP)
}

func TestTaskService_UpdateTask_Validation(t *testing.T) {
	tests := []struct {
		name   string
		option task.TaskOption
		field  string
	}{
		{"unknown status", task.WithStatus("archived"), "status"},
		{"empty status", task.WithStatus(""), "status"},
		{"blank title", task.WithTitle("   "), "title"},
		{"empty title", task.WithTitle(""), "title"},
		{"title too long", task.WithTitle(strings.Repeat("я", task.MaxTitleLen+1)), "title"},
		{"zero duration", task.WithDuration(0), "duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			ctx := context.Background()
			created := e.create(t, service.CreateTaskInput{Title: "Read"})

			_, err := e.service.UpdateTask(ctx, e.ownerID, created.UUID, tt.option)
			requireCode(t, err, service.CodeValidation)
			var businessErr *service.BusinessError
			require.ErrorAs(t, err, &businessErr)
			assert.Equal(t, tt.field, businessErr.Details["field"])

			stored, err := e.service.GetTaskByID(ctx, e.ownerID, created.UUID)
			require.NoError(t, err)
			assert.Equal(t, "Read", stored.Title)
			assert.Equal(t, created.Version, stored.Version)
		})
	}
}

func TestTaskService_UpdateTask_TitleNormalized(t *testing.T) {
	e := newEnv(t)
	created := e.create(t, service.CreateTaskInput{Title: "Read"})
	longest := strings.Repeat("я", task.MaxTitleLen)

	res, err := e.service.UpdateTask(context.Background(), e.ownerID, created.UUID, task.WithTitle("  "+longest+"  "))
	require.NoError(t, err)
	assert.Equal(t, longest, res.Task.Title)
}

func TestTaskService_AcceptDateSuggestion(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	suggested := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	created := e.create(t, service.CreateTaskInput{
		Title:            "Plan week",
		SuggestedDate:    &suggested,
		XPBoost:          ptr(25),
		SuggestionReason: "quiet Sunday",
	})

	res, err := e.service.AcceptDateSuggestion(ctx, e.ownerID, created.UUID)
	require.NoError(t, err)
	assert.Equal(t, 25, res.Boost)
	assert.True(t, res.Task.UsedSuggestedDate)
	require.NotNil(t, res.Task.ScheduledFor)
	assert.True(t, res.Task.ScheduledFor.Equal(suggested))
	assert.Equal(t, 25, res.XPResult.NewTotalXP)
	assert.Equal(t, 0, res.XPResult.NewStreak)

	_, err = e.service.AcceptDateSuggestion(ctx, e.ownerID, created.UUID)
	requireCode(t, err, service.CodeSuggestionUsed)
	assert.Equal(t, 25, e.progress(t).TotalXP)
}

func TestTaskService_AcceptDateSuggestion_NoSuggestion(t *testing.T) {
	e := newEnv(t)
	suggested := time.Now().Add(48 * time.Hour)

	plain := e.create(t, service.CreateTaskInput{Title: "Plain"})
	dateOnly := e.create(t, service.CreateTaskInput{Title: "Date only", SuggestedDate: &suggested})

	for _, id := range []uuid.UUID{plain.UUID, dateOnly.UUID} {
		_, err := e.service.AcceptDateSuggestion(context.Background(), e.ownerID, id)
		requireCode(t, err, service.CodeNoSuggestion)
	}
}

func TestTaskService_DeleteTask(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	parent := e.create(t, service.CreateTaskInput{Title: "Trip"})
	sub := e.create(t, service.CreateTaskInput{Title: "Tickets", ParentTaskID: &parent.UUID})

	_, err := e.service.CompleteTask(ctx, e.ownerID, parent.UUID)
	require.NoError(t, err)
	xpBefore := e.progress(t).TotalXP

	require.NoError(t, e.service.DeleteTask(ctx, e.ownerID, parent.UUID))

	_, err = e.service.GetTaskByID(ctx, e.ownerID, parent.UUID)
	requireCode(t, err, service.CodeNotFound)
	_, err = e.service.GetTaskByID(ctx, e.ownerID, sub.UUID)
	requireCode(t, err, service.CodeNotFound)

	assert.Equal(t, xpBefore, e.progress(t).TotalXP)

	err = e.service.DeleteTask(ctx, e.ownerID, parent.UUID)
	requireCode(t, err, service.CodeNotFound)
}

func TestTaskService_GetAllTasks_Order(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	late := e.create(t, service.CreateTaskInput{Title: "late", ScheduledFor: ptr(base.Add(48 * time.Hour))})
	early := e.create(t, service.CreateTaskInput{Title: "early", ScheduledFor: ptr(base)})
	older := e.create(t, service.CreateTaskInput{Title: "older"})
	time.Sleep(2 * time.Millisecond)
	newer := e.create(t, service.CreateTaskInput{Title: "newer"})

	tasks, err := e.service.GetAllTasks(ctx, e.ownerID)
	require.NoError(t, err)

	ids := make([]uuid.UUID, 0, len(tasks))
	for _, tk := range tasks {
		ids = append(ids, tk.UUID)
	}
	assert.Equal(t, []uuid.UUID{early.UUID, late.UUID, newer.UUID, older.UUID}, ids)
}

func TestTaskService_GetScheduledTasks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	atEnd := e.create(t, service.CreateTaskInput{Title: "end", ScheduledFor: ptr(to)})
	atStart := e.create(t, service.CreateTaskInput{Title: "start", ScheduledFor: ptr(from)})
	e.create(t, service.CreateTaskInput{Title: "outside", ScheduledFor: ptr(to.Add(time.Minute))})
	e.create(t, service.CreateTaskInput{Title: "unscheduled"})

	tasks, err := e.service.GetScheduledTasks(ctx, e.ownerID, from, to)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, atStart.UUID, tasks[0].UUID)
	assert.Equal(t, atEnd.UUID, tasks[1].UUID)

	_, err = e.service.GetScheduledTasks(ctx, e.ownerID, to, from)
	requireCode(t, err, service.CodeValidation)
}

func TestTaskService_SearchAndStatus(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	report := e.create(t, service.CreateTaskInput{Title: "Quarterly REPORT"})
	e.create(t, service.CreateTaskInput{Title: "Gym", Description: "leg day"})

	found, err := e.service.SearchTasks(ctx, e.ownerID, "report")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, report.UUID, found[0].UUID)

	found, err = e.service.SearchTasks(ctx, e.ownerID, "LEG")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = e.service.SearchTasks(ctx, e.ownerID, "  ")
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = e.service.CompleteTask(ctx, e.ownerID, report.UUID)
	require.NoError(t, err)

	completed, err := e.service.GetTasksByStatus(ctx, e.ownerID, task.StatusCompleted)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, report.UUID, completed[0].UUID)

	_, err = e.service.GetTasksByStatus(ctx, e.ownerID, "done")
	requireCode(t, err, service.CodeValidation)
}

func TestTaskService_LedgerFailureRollsBackTask(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"missing progress", gamification.ErrProgressNotFound, service.CodeProgressNotFound},
		{"storage failure", errors.New("connection reset"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			repo := taskmem.NewTaskStorage()
			ledger := new(MockLedger)
			svc := service.NewTaskService(repo, ledger)
			owner := uuid.New()

			created, err := svc.CreateTask(ctx, service.CreateTaskInput{
				OwnerID: owner, Title: "Report", Priority: task.PriorityHigh, DifficultyLevel: 3,
			})
			require.NoError(t, err)

			ledger.On("AwardXP", mock.Anything, owner, 75, created.UUID, gamification.KindCompletion).
				Return(nil, tt.err)

			_, err = svc.CompleteTask(ctx, owner, created.UUID)
			require.Error(t, err)
			if tt.wantCode != "" {
				requireCode(t, err, tt.wantCode)
			} else {
				var businessErr *service.BusinessError
				assert.False(t, errors.As(err, &businessErr))
			}

			stored, err := svc.GetTaskByID(ctx, owner, created.UUID)
			require.NoError(t, err)
			assert.Equal(t, task.StatusPending, stored.Status)

			ledger.AssertExpectations(t)
		})
	}
}

// staleRepository отвечает конфликтом версий на любую запись
type staleRepository struct {
	*taskmem.TaskStorage
}

func (staleRepository) Update(context.Context, *task.Task) error {
	return rep.ErrVersionConflict
}

func TestTaskService_VersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := staleRepository{taskmem.NewTaskStorage()}
	ledger := new(MockLedger)
	svc := service.NewTaskService(repo, ledger)
	owner := uuid.New()

	created, err := svc.CreateTask(ctx, service.CreateTaskInput{OwnerID: owner, Title: "Race", Priority: task.PriorityLow})
	require.NoError(t, err)

	_, err = svc.CompleteTask(ctx, owner, created.UUID)
	requireCode(t, err, service.CodeVersionConflict)

	ledger.AssertNotCalled(t, "AwardXP", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
