package engagement

import (
	"fmt"
	"log"
	"time"

	"github.com/plancoach/plancoach/internal/domain"
	"github.com/plancoach/plancoach/internal/infra/metrics"
	"github.com/plancoach/plancoach/internal/infra/sqlite"
)

// AchievementService evaluates the fixed achievement catalog against user
// stats and records unlocks. Unlocks are idempotent and permanent; the
// freeze-token reward on a definition is badge metadata shown with the
// unlock, not a credit to the token counter.
type AchievementService struct {
	db   *sqlite.DB
	defs []domain.AchievementDef
}

func NewAchievementService(db *sqlite.DB) *AchievementService {
	return &AchievementService{db: db, defs: catalog()}
}

func streakAt(n int) func(domain.UserStats) bool {
	return func(s domain.UserStats) bool { return s.CurrentStreak >= n }
}

func tasksAt(n int) func(domain.UserStats) bool {
	return func(s domain.UserStats) bool { return s.TotalTasksCompleted >= n }
}

func catalog() []domain.AchievementDef {
	return []domain.AchievementDef{
		// Streak milestones
		{ID: "streak_3", Name: "First Sprout", Icon: "🌱", Description: "Stay active 3 days in a row", Category: domain.CatStreak, Rarity: domain.RarityCommon, Predicate: streakAt(3)},
		{ID: "streak_7", Name: "Week Regular", Icon: "⭐", Description: "Stay active 7 days in a row", Category: domain.CatStreak, Rarity: domain.RarityCommon, FreezeReward: 1, Predicate: streakAt(7)},
		{ID: "streak_14", Name: "Fortnight Ace", Icon: "✨", Description: "Stay active 14 days in a row", Category: domain.CatStreak, Rarity: domain.RarityRare, FreezeReward: 1, Predicate: streakAt(14)},
		{ID: "streak_30", Name: "Monthly Master", Icon: "🏆", Description: "Stay active 30 days in a row", Category: domain.CatStreak, Rarity: domain.RarityEpic, FreezeReward: 2, Predicate: streakAt(30)},
		{ID: "streak_60", Name: "Two-Month Strong", Icon: "💪", Description: "Stay active 60 days in a row", Category: domain.CatStreak, Rarity: domain.RarityEpic, FreezeReward: 3, Predicate: streakAt(60)},
		{ID: "streak_100", Name: "Hundred-Day Club", Icon: "💎", Description: "Stay active 100 days in a row", Category: domain.CatStreak, Rarity: domain.RarityLegendary, FreezeReward: 5, Predicate: streakAt(100)},
		{ID: "streak_365", Name: "Year Legend", Icon: "👑", Description: "A full year of daily activity", Category: domain.CatStreak, Rarity: domain.RarityLegendary, FreezeReward: 10, Predicate: streakAt(365)},

		// Lifetime task counts
		{ID: "tasks_10", Name: "Task Novice", Icon: "📝", Description: "Complete 10 tasks", Category: domain.CatTasks, Rarity: domain.RarityCommon, Predicate: tasksAt(10)},
		{ID: "tasks_50", Name: "Task Adept", Icon: "📋", Description: "Complete 50 tasks", Category: domain.CatTasks, Rarity: domain.RarityRare, FreezeReward: 1, Predicate: tasksAt(50)},
		{ID: "tasks_100", Name: "Task Expert", Icon: "📚", Description: "Complete 100 tasks", Category: domain.CatTasks, Rarity: domain.RarityEpic, FreezeReward: 2, Predicate: tasksAt(100)},
		{ID: "tasks_500", Name: "Task Master", Icon: "🎓", Description: "Complete 500 tasks", Category: domain.CatTasks, Rarity: domain.RarityLegendary, FreezeReward: 5, Predicate: tasksAt(500)},

		// Challenge achievements
		{ID: "first_challenge", Name: "Challenger", Icon: "🎯", Description: "Create your first challenge", Category: domain.CatChallenges, Rarity: domain.RarityCommon,
			Predicate: func(s domain.UserStats) bool { return s.ChallengesCreated >= 1 }},
		{ID: "week_warrior", Name: "Week Warrior", Icon: "🔥", Description: "Keep a challenge streak for 7 periods", Category: domain.CatChallenges, Rarity: domain.RarityRare, FreezeReward: 2,
			Predicate: func(s domain.UserStats) bool { return s.BestChallengeStreak >= 7 }},
		{ID: "month_master", Name: "Month Champion", Icon: "🏅", Description: "Keep a challenge streak for 30 periods", Category: domain.CatChallenges, Rarity: domain.RarityEpic, FreezeReward: 3,
			Predicate: func(s domain.UserStats) bool { return s.BestChallengeStreak >= 30 }},
		{ID: "five_challenges", Name: "Juggler", Icon: "🎪", Description: "Run 5 challenges at once", Category: domain.CatChallenges, Rarity: domain.RarityRare, FreezeReward: 1,
			Predicate: func(s domain.UserStats) bool { return s.ActiveChallenges >= 5 }},

		// Special
		{ID: "freeze_saver", Name: "Guardian", Icon: "❄️", Description: "Use a freeze token to protect a streak", Category: domain.CatSpecial, Rarity: domain.RarityCommon,
			Predicate: func(s domain.UserStats) bool { return s.FreezeTokensUsed >= 1 }},
	}
}

// Definitions returns the full catalog.
func (a *AchievementService) Definitions() []domain.AchievementDef {
	return a.defs
}

// CheckAndUnlock evaluates every definition against stats and records any
// new unlocks, returning the definitions unlocked by this call.
func (a *AchievementService) CheckAndUnlock(stats domain.UserStats) ([]domain.AchievementDef, error) {
	var unlocked []domain.AchievementDef
	for _, def := range a.defs {
		if !def.Predicate(stats) {
			continue
		}
		isNew, err := a.db.UnlockAchievement(def.ID, time.Now())
		if err != nil {
			return unlocked, fmt.Errorf("unlock %s: %w", def.ID, err)
		}
		if !isNew {
			continue
		}
		log.Printf("[achievement] unlocked %s (%s)", def.ID, def.Name)
		metrics.AchievementsUnlocked.WithLabelValues(string(def.Category)).Inc()
		unlocked = append(unlocked, def)
	}
	return unlocked, nil
}

// ListUnlocked returns unlock records, newest first.
func (a *AchievementService) ListUnlocked() ([]domain.UnlockedAchievement, error) {
	return a.db.ListUnlockedAchievements()
}

// WithStatus joins the catalog with unlock state for display.
func (a *AchievementService) WithStatus() ([]domain.AchievementWithStatus, error) {
	unlocked, err := a.db.ListUnlockedAchievements()
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	byID := make(map[string]domain.UnlockedAchievement, len(unlocked))
	for _, u := range unlocked {
		byID[u.ID] = u
	}
	out := make([]domain.AchievementWithStatus, 0, len(a.defs))
	for _, def := range a.defs {
		st := domain.AchievementWithStatus{AchievementDef: def}
		if u, ok := byID[def.ID]; ok {
			st.Unlocked = true
			st.UnlockedAt = &u.UnlockedAt
		}
		out = append(out, st)
	}
	return out, nil
}

// UnlockedCount returns how many achievements have been unlocked.
func (a *AchievementService) UnlockedCount() (int, error) {
	return a.db.UnlockedAchievementCount()
}
