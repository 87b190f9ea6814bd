package gamification

import (
	"math"

	"taskQuest/internal/models/progress"
	"taskQuest/internal/models/task"
)

const (
	// DifficultyMultiplier - множитель XP на единицу сложности
	DifficultyMultiplier = 0.5

	// SubtaskBonusXP начисляется за каждую подзадачу на момент завершения
	SubtaskBonusXP = 5

	// XPPerLevelUnit - знаменатель в формуле уровня floor(sqrt(xp/100)) + 1
	XPPerLevelUnit = 100.0
)

var baseXP = map[task.Priority]int{
	task.PriorityLow:    10,
	task.PriorityMedium: 25,
	task.PriorityHigh:   50,
	task.PriorityUrgent: 75,
}

// StageThresholds - пороги XP стадий персонажа, индекс+1 = стадия
var StageThresholds = []int{0, 100, 500, 2000, 10000}

// BaseXP - базовая награда за приоритет, неизвестный приоритет считается low
func BaseXP(p task.Priority) int {
	if v, ok := baseXP[p]; ok {
		return v
	}
	return baseXP[task.PriorityLow]
}

// ComputeXP - XP за выполнение задачи. Приоритет и сложность уже проверены
// разборщиком ответа модели или TaskService.
func ComputeXP(p task.Priority, difficultyLevel, subtaskCount int) int {
	xp := float64(BaseXP(p))*(float64(difficultyLevel)*DifficultyMultiplier) + float64(subtaskCount*SubtaskBonusXP)
	return int(math.Round(xp))
}

// ComputeLevel - floor(sqrt(totalXP/100)) + 1. Отрицательный XP (после откатов)
// считается нулём.
func ComputeLevel(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return int(math.Floor(math.Sqrt(float64(totalXP)/XPPerLevelUnit))) + 1
}

func ComputeCharacterStage(totalXP int) int {
	for i := len(StageThresholds) - 1; i >= 0; i-- {
		if totalXP >= StageThresholds[i] {
			return i + 1
		}
	}
	return 1
}

// Recompute единственное место, где меняется TotalXP: уровень и стадия
// пересчитываются вместе с ним
func Recompute(p *progress.Progress, newTotalXP int) {
	p.TotalXP = newTotalXP
	p.CurrentLevel = ComputeLevel(newTotalXP)
	p.CharacterStage = ComputeCharacterStage(newTotalXP)
}
