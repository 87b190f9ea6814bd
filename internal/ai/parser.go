package ai

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"taskQuest/internal/logger"
	"taskQuest/internal/models/task"

	"go.uber.org/zap"
)

const (
	DefaultTitle        = "Untitled Task"
	DefaultSubtaskTitle = "Untitled Subtask"

	defaultDifficulty        = 3
	defaultSubtaskDifficulty = 1

	MinXPBoost = 10
	MaxXPBoost = 50

	fallbackTitleLen = 100
)

// TaskDraft - проверенная задача из ответа модели, ещё не сохранённая
type TaskDraft struct {
	Title           string
	Description     string
	Priority        task.Priority
	DifficultyLevel int
	Duration        *int
	ScheduledFor    *time.Time
	SuggestedDate   *time.Time
	XPBoost         *int
	Reason          string
	Subtasks        []SubtaskDraft
}

// HasSuggestion - у черновика есть и дата, и бонус
func (d TaskDraft) HasSuggestion() bool {
	return d.SuggestedDate != nil && d.XPBoost != nil
}

type SubtaskDraft struct {
	Title           string
	Description     string
	Priority        task.Priority
	DifficultyLevel int
}

// ParseTasks разбирает ответ модели. Ответ никогда не считается ошибкой:
// если JSON-массив не разобрать, возвращается одна задача из сырого текста.
func ParseTasks(raw string) []TaskDraft {
	items, ok := extractArray(raw)
	if !ok {
		logger.Warn("AI: Не удалось разобрать ответ модели, используется запасная задача",
			zap.Int("response_len", len(raw)))
		return []TaskDraft{fallbackDraft(raw)}
	}

	drafts := make([]TaskDraft, 0, len(items))
	for _, item := range items {
		drafts = append(drafts, draftFrom(asObject(item)))
	}
	return drafts
}

// extractArray берёт текст от первой '[' до последней ']' и разбирает его как JSON-массив
func extractArray(raw string) ([]any, bool) {
	clean := strings.TrimSpace(raw)
	if start, end := strings.Index(clean, "["), strings.LastIndex(clean, "]"); start >= 0 && end > start {
		clean = clean[start : end+1]
	}

	var parsed any
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, false
	}
	items, ok := parsed.([]any)
	if !ok {
		return nil, false
	}
	for _, item := range items {
		// null в массиве - битый ответ целиком
		if item == nil {
			return nil, false
		}
	}
	return items, true
}

// fallbackDraft строит задачу из сырого текста; заголовок всегда пригоден для сохранения
func fallbackDraft(raw string) TaskDraft {
	title := strings.TrimSpace(raw)
	if runes := []rune(title); len(runes) > fallbackTitleLen {
		title = strings.TrimSpace(string(runes[:fallbackTitleLen])) + "..."
	}
	if title == "" {
		title = DefaultTitle
	}
	return TaskDraft{
		Title:           title,
		Priority:        task.PriorityMedium,
		DifficultyLevel: defaultDifficulty,
	}
}

func draftFrom(obj map[string]any) TaskDraft {
	d := TaskDraft{
		Title:           titleOr(obj["title"], DefaultTitle),
		Description:     stringOr(obj["description"], ""),
		Priority:        priorityOf(obj["priority"]),
		DifficultyLevel: difficultyOf(obj["difficultyLevel"], defaultDifficulty),
		Reason:          stringOr(obj["reason"], ""),
	}

	// длительность меньше 0.5 минуты округляется в ноль и отбрасывается
	if v, ok := positive(obj["duration"]); ok {
		if minutes := int(math.Round(v)); minutes > 0 {
			d.Duration = &minutes
		}
	}
	if v, ok := positive(obj["scheduledFor"]); ok {
		t := time.UnixMilli(int64(v))
		d.ScheduledFor = &t
	}
	if v, ok := positive(obj["suggestedDate"]); ok {
		t := time.UnixMilli(int64(v))
		d.SuggestedDate = &t
	}
	if v, ok := positive(obj["xpBoost"]); ok {
		boost := clamp(int(math.Round(v)), MinXPBoost, MaxXPBoost)
		d.XPBoost = &boost
	}

	if subtasks, ok := obj["subtasks"].([]any); ok {
		d.Subtasks = make([]SubtaskDraft, 0, len(subtasks))
		for _, s := range subtasks {
			sub := asObject(s)
			d.Subtasks = append(d.Subtasks, SubtaskDraft{
				Title:           titleOr(sub["title"], DefaultSubtaskTitle),
				Description:     stringOr(sub["description"], ""),
				Priority:        priorityOf(sub["priority"]),
				DifficultyLevel: difficultyOf(sub["difficultyLevel"], defaultSubtaskDifficulty),
			})
		}
	}
	return d
}

func asObject(v any) map[string]any {
	if obj, ok := v.(map[string]any); ok {
		return obj
	}
	return map[string]any{}
}

func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

// titleOr обрезает пробелы и длину до колонки title; пустой заголовок заменяется на def
func titleOr(v any, def string) string {
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if runes := []rune(s); len(runes) > task.MaxTitleLen {
		s = strings.TrimSpace(string(runes[:task.MaxTitleLen]))
	}
	if s == "" {
		return def
	}
	return s
}

func priorityOf(v any) task.Priority {
	if s, ok := v.(string); ok && task.Priority(s).IsValid() {
		return task.Priority(s)
	}
	return task.PriorityMedium
}

// difficultyOf: отсутствие или 0 - значение по умолчанию, иначе округление и ограничение 1..5
func difficultyOf(v any, def int) int {
	n, ok := v.(float64)
	if !ok || n == 0 {
		return def
	}
	return clamp(int(math.Round(n)), task.MinDifficulty, task.MaxDifficulty)
}

func positive(v any) (float64, bool) {
	n, ok := v.(float64)
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
