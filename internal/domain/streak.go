package domain

// ─── Streak Types ───────────────────────────────────────────────────────────

// DailyActivity accumulates what the user did on one calendar day.
// Counters only ever grow; repeated activity on the same day adds up.
type DailyActivity struct {
	TasksCompleted    int `json:"tasks_completed"`
	StepsCompleted    int `json:"steps_completed"`
	TimeSpentSeconds  int `json:"time_spent_seconds"`
	CheckinsCompleted int `json:"checkins_completed"`
}

// IsZero reports whether the delta carries no activity at all.
func (a DailyActivity) IsZero() bool {
	return a.TasksCompleted == 0 && a.StepsCompleted == 0 &&
		a.TimeSpentSeconds == 0 && a.CheckinsCompleted == 0
}

// HasNegative reports whether any counter is below zero. Daily records only
// ever accumulate, so negative deltas are rejected at the boundary.
func (a DailyActivity) HasNegative() bool {
	return a.TasksCompleted < 0 || a.StepsCompleted < 0 ||
		a.TimeSpentSeconds < 0 || a.CheckinsCompleted < 0
}

// Add accumulates another delta into this record.
func (a *DailyActivity) Add(delta DailyActivity) {
	a.TasksCompleted += delta.TasksCompleted
	a.StepsCompleted += delta.StepsCompleted
	a.TimeSpentSeconds += delta.TimeSpentSeconds
	a.CheckinsCompleted += delta.CheckinsCompleted
}

// StreakState is the single per-installation streak document.
// The daily record is append-only and grows unbounded.
type StreakState struct {
	LastActiveDate  DayKey                    `json:"last_active_date"` // "" until first activity
	CurrentStreak   int                       `json:"current_streak"`
	LongestStreak   int                       `json:"longest_streak"`
	TotalActiveDays int                       `json:"total_active_days"`
	DailyRecord     map[DayKey]*DailyActivity `json:"daily_record"`
	FreezeTokens    int                       `json:"freeze_token_count"`
	FrozenPending   bool                      `json:"is_frozen_pending"`
	FreezeUsed      int                       `json:"freeze_tokens_used"` // lifetime count of consumed tokens
}

// DefaultStreakState returns the all-zero state for a fresh install.
func DefaultStreakState() StreakState {
	return StreakState{
		DailyRecord: make(map[DayKey]*DailyActivity),
	}
}

// TotalTasksCompleted sums tasks across the entire daily record.
func (s *StreakState) TotalTasksCompleted() int {
	total := 0
	for _, rec := range s.DailyRecord {
		total += rec.TasksCompleted
	}
	return total
}

// ActivityResult is the snapshot returned by every recorded activity.
type ActivityResult struct {
	IsNewDay      bool `json:"is_new_day"`
	CurrentStreak int  `json:"current_streak"`
	LongestStreak int  `json:"longest_streak"`
	FreezeGranted bool `json:"freeze_granted"` // streak crossed a multiple of 7
}

// FreezeResult reports the outcome of arming a freeze token.
type FreezeResult struct {
	Success   bool   `json:"success"`
	Remaining int    `json:"remaining,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// StreakSummary is the read projection for display surfaces.
type StreakSummary struct {
	Current      int  `json:"current"`
	Longest      int  `json:"longest"`
	TotalDays    int  `json:"total_days"`
	FreezeTokens int  `json:"freeze_tokens"`
	IsFrozen     bool `json:"is_frozen"`
	AtRisk       bool `json:"at_risk"`
}

// TodayStats is today's activity plus whether today already counts.
type TodayStats struct {
	DailyActivity
	IsActive bool `json:"is_active"`
}

// WeekStats aggregates the trailing seven days.
type WeekStats struct {
	TasksCompleted   int `json:"tasks_completed"`
	StepsCompleted   int `json:"steps_completed"`
	TimeSpentSeconds int `json:"time_spent_seconds"`
	ActiveDays       int `json:"active_days"`
}

// CalendarDay is one cell of the monthly heat-map projection.
type CalendarDay struct {
	Active         bool `json:"active"`
	TasksCompleted int  `json:"tasks_completed,omitempty"`
	StepsCompleted int  `json:"steps_completed,omitempty"`
}
