package progress

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Progress - агрегат геймификации, ровно один на пользователя
type Progress struct {
	UserID                uuid.UUID     `json:"user_id" db:"user_id"`
	TotalXP               int           `json:"total_xp" db:"total_xp"`
	CurrentLevel          int           `json:"current_level" db:"current_level"`
	CurrentStreak         int           `json:"current_streak" db:"current_streak"`
	LongestStreak         int           `json:"longest_streak" db:"longest_streak"`
	LastTaskCompletedDate *time.Time    `json:"last_task_completed_date,omitempty" db:"last_task_completed_date"`
	CharacterType         string        `json:"character_type" db:"character_type"`
	CharacterStage        int           `json:"character_stage" db:"character_stage"`
	Customization         Customization `json:"character_customization"`
	UnlockedAchievements  []string      `json:"unlocked_achievements" db:"unlocked_achievements"`
	// счётчик за всё время, при откате задачи не уменьшается
	TasksCompleted int        `json:"tasks_completed" db:"tasks_completed"`
	PerfectDays    int        `json:"perfect_days" db:"perfect_days"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	Version        int        `json:"version" db:"version"`
}

type Customization struct {
	Color       string   `json:"color" db:"character_color"`
	Accessories []string `json:"accessories" db:"character_accessories"`
}

const DefaultCharacterType = "plant"
const DefaultCharacterColor = "#10b981"

// New возвращает стартовый прогресс нового пользователя
func New(userID uuid.UUID, now time.Time) *Progress {
	return &Progress{
		UserID:         userID,
		CurrentLevel:   1,
		CharacterType:  DefaultCharacterType,
		CharacterStage: 1,
		Customization: Customization{
			Color:       DefaultCharacterColor,
			Accessories: []string{},
		},
		UnlockedAchievements: []string{},
		CreatedAt:            now,
	}
}

func (p *Progress) HasAchievement(id string) bool {
	return slices.Contains(p.UnlockedAchievements, id)
}

// Unlock добавляет ещё не открытые id, сохраняя порядок; возвращает добавленные
func (p *Progress) Unlock(ids ...string) []string {
	added := []string{}
	for _, id := range ids {
		if p.HasAchievement(id) {
			continue
		}
		p.UnlockedAchievements = append(p.UnlockedAchievements, id)
		added = append(added, id)
	}
	return added
}

func (p *Progress) Clone() *Progress {
	c := *p
	if p.LastTaskCompletedDate != nil {
		v := *p.LastTaskCompletedDate
		c.LastTaskCompletedDate = &v
	}
	if p.UpdatedAt != nil {
		v := *p.UpdatedAt
		c.UpdatedAt = &v
	}
	c.UnlockedAchievements = slices.Clone(p.UnlockedAchievements)
	c.Customization.Accessories = slices.Clone(p.Customization.Accessories)
	return &c
}
