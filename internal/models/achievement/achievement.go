package achievement

import "time"

type Achievement struct {
	ID          string      `json:"id" yaml:"id" db:"id"`
	Name        string      `json:"name" yaml:"name" db:"name"`
	Description string      `json:"description" yaml:"description" db:"description"`
	Icon        string      `json:"icon" yaml:"icon" db:"icon"`
	Requirement Requirement `json:"requirement" yaml:"requirement"`
	// хранится, но к totalXp не начисляется
	XPReward  int       `json:"xp_reward" yaml:"xp_reward" db:"xp_reward"`
	CreatedAt time.Time `json:"created_at" yaml:"-" db:"created_at"`
}

type Requirement struct {
	Type  RequirementType `json:"type" yaml:"type" db:"requirement_type"`
	Value int             `json:"value" yaml:"value" db:"requirement_value"`
}

type RequirementType string

const RequirementTasksCompleted RequirementType = "tasks_completed"
const RequirementTotalXP RequirementType = "total_xp"
const RequirementStreakDays RequirementType = "streak_days"
const RequirementPerfectDays RequirementType = "perfect_days"

func (t RequirementType) IsValid() bool {
	switch t {
	case RequirementTasksCompleted, RequirementTotalXP, RequirementStreakDays, RequirementPerfectDays:
		return true
	default:
		return false
	}
}
