package domain

import "time"

// ─── Challenge Types ────────────────────────────────────────────────────────

// ChallengeType is the reset cadence of a challenge.
type ChallengeType string

const (
	ChallengeDaily  ChallengeType = "daily"
	ChallengeWeekly ChallengeType = "weekly"
	ChallengeCustom ChallengeType = "custom" // resets every ResetPeriodDays
)

// Unit determines which activity events feed a challenge's progress.
type Unit string

const (
	UnitMinutes Unit = "minutes"
	UnitTasks   Unit = "tasks"
	UnitSteps   Unit = "steps"
	UnitTimes   Unit = "times" // manual check-in only
	UnitCheckin Unit = "checkin"
)

// MatchMode selects which task completions count toward a tasks/steps
// challenge.
type MatchMode string

const (
	MatchAll      MatchMode = "all"
	MatchCategory MatchMode = "category"
	MatchSpecific MatchMode = "specific"
)

// Challenge is a user-defined recurring goal with its own progress and
// reset cadence, independent of the global usage streak.
type Challenge struct {
	ID          string        `json:"id"`
	Type        ChallengeType `json:"type"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Icon        string        `json:"icon"`
	Color       string        `json:"color"`
	Category    string        `json:"category"`

	Target  int  `json:"target"`
	Current int  `json:"current"` // 0..Target, clamped
	Unit    Unit `json:"unit"`

	// ResetPeriodDays is only meaningful for custom challenges.
	ResetPeriodDays int `json:"reset_period_days,omitempty"`

	CompletedToday bool   `json:"completed_today"`
	Streak         int    `json:"streak"` // consecutive completed periods
	LastReset      DayKey `json:"last_reset"`

	MatchMode        MatchMode `json:"match_mode"`
	MatchCategories  []string  `json:"match_categories,omitempty"`
	MatchTaskIDs     []string  `json:"match_task_ids,omitempty"`
	MatchTemplateIDs []string  `json:"match_template_ids,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"` // set on soft delete
}

// ProgressRatio returns completion of the current period (0.0-1.0).
func (c Challenge) ProgressRatio() float64 {
	if c.Target <= 0 {
		return 1.0
	}
	ratio := float64(c.Current) / float64(c.Target)
	if ratio > 1.0 {
		ratio = 1.0
	}
	return ratio
}

// ChallengeConfig is the creation payload. Display fields are optional;
// Target and Name are validated, ResetPeriodDays is required for custom
// challenges.
type ChallengeConfig struct {
	Type            ChallengeType `json:"type"`
	Name            string        `json:"name"`
	Description     string        `json:"description,omitempty"`
	Icon            string        `json:"icon,omitempty"`
	Color           string        `json:"color,omitempty"`
	Category        string        `json:"category,omitempty"`
	Target          int           `json:"target"`
	Unit            Unit          `json:"unit"`
	ResetPeriodDays int           `json:"reset_period_days,omitempty"`

	MatchMode        MatchMode `json:"match_mode,omitempty"`
	MatchCategories  []string  `json:"match_categories,omitempty"`
	MatchTaskIDs     []string  `json:"match_task_ids,omitempty"`
	MatchTemplateIDs []string  `json:"match_template_ids,omitempty"`
}

// ChallengeUpdate carries the externally settable fields of a challenge.
// Progress state (current, streak, completed_today, last_reset) is engine
// controlled and deliberately absent.
type ChallengeUpdate struct {
	Name             *string    `json:"name,omitempty"`
	Target           *int       `json:"target,omitempty"`
	Icon             *string    `json:"icon,omitempty"`
	Color            *string    `json:"color,omitempty"`
	Category         *string    `json:"category,omitempty"`
	MatchMode        *MatchMode `json:"match_mode,omitempty"`
	MatchCategories  *[]string  `json:"match_categories,omitempty"`
	MatchTaskIDs     *[]string  `json:"match_task_ids,omitempty"`
	MatchTemplateIDs *[]string  `json:"match_template_ids,omitempty"`
}

// TaskRef identifies a completed task for challenge matching.
type TaskRef struct {
	ID         string `json:"id"`
	TemplateID string `json:"template_id,omitempty"`
	Category   string `json:"category,omitempty"`
}

// ProgressResult reports the outcome of one progress update.
type ProgressResult struct {
	Success          bool       `json:"success"`
	AlreadyCompleted bool       `json:"already_completed,omitempty"`
	Completed        bool       `json:"completed,omitempty"` // target reached this call
	Challenge        *Challenge `json:"challenge,omitempty"`
}

// ChallengeDocument is the persisted challenge state: active challenges,
// soft-deleted history, and the lifetime creation counter.
type ChallengeDocument struct {
	Active       []*Challenge `json:"active"`
	Completed    []*Challenge `json:"completed"`
	TotalCreated int          `json:"total_created"`
}

// DefaultChallengeDocument returns the empty document for a fresh install.
func DefaultChallengeDocument() ChallengeDocument {
	return ChallengeDocument{
		Active:    []*Challenge{},
		Completed: []*Challenge{},
	}
}

// ChallengeStats is the aggregate read projection over all challenges.
type ChallengeStats struct {
	ActiveCount          int `json:"active_count"`
	CompletedToday       int `json:"completed_today"`
	TotalCreated         int `json:"total_created"`
	LongestStreak        int `json:"longest_streak"`
	AchievementsUnlocked int `json:"achievements_unlocked"`
}

// ChallengeProgress is one entry of the today-progress projection.
type ChallengeProgress struct {
	Challenge
	Progress    float64 `json:"progress"`
	IsCompleted bool    `json:"is_completed"`
	NeedsReset  bool    `json:"needs_reset"`
}
