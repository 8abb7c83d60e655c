package domain

import "time"

// ─── Achievement Types ──────────────────────────────────────────────────────

// Rarity tiers achievements for display.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// AchievementCategory groups achievements by theme.
type AchievementCategory string

const (
	CatStreak     AchievementCategory = "streak"
	CatTasks      AchievementCategory = "tasks"
	CatChallenges AchievementCategory = "challenges"
	CatSpecial    AchievementCategory = "special"
)

// AchievementDef defines a single achievement: display metadata, a
// freeze-token reward (0 for none), and a stat-based predicate.
type AchievementDef struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Icon         string               `json:"icon"`
	Description  string               `json:"description"`
	Category     AchievementCategory  `json:"category"`
	Rarity       Rarity               `json:"rarity"`
	FreezeReward int                  `json:"freeze_reward"`
	Predicate    func(UserStats) bool `json:"-"`
}

// UnlockedAchievement records when an achievement was earned.
// Records are append-only; an id unlocks at most once.
type UnlockedAchievement struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlocked_at"`
	Notified   bool      `json:"notified"`
}

// AchievementWithStatus pairs a definition with its unlock state for
// display.
type AchievementWithStatus struct {
	AchievementDef
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// UserStats is the snapshot fed to achievement predicates after every
// engine mutation. Counters only ever grow, so threshold predicates fire
// at most once.
type UserStats struct {
	CurrentStreak       int `json:"current_streak"`
	LongestStreak       int `json:"longest_streak"`
	TotalTasksCompleted int `json:"total_tasks_completed"`
	BestChallengeStreak int `json:"best_challenge_streak"`
	ChallengesCreated   int `json:"challenges_created"`
	ActiveChallenges    int `json:"active_challenges"`
	FreezeTokensUsed    int `json:"freeze_tokens_used"`
}
