package engagement

import (
	"log"
	"sync"
	"time"

	"github.com/plancoach/plancoach/internal/domain"
	"github.com/plancoach/plancoach/internal/infra/metrics"
	"github.com/plancoach/plancoach/internal/infra/sqlite"
)

// Engine coordinates the streak tracker, challenge store, and achievement
// service behind a single mutex. Every mutation runs the achievement check
// afterwards, so unlocks happen the moment their threshold is crossed.
type Engine struct {
	mu           sync.Mutex
	streak       *StreakTracker
	challenges   *ChallengeStore
	achievements *AchievementService
	notifier     Notifier
	loc          *time.Location
	now          func() time.Time
}

func NewEngine(db *sqlite.DB, loc *time.Location, notifier Notifier) *Engine {
	if loc == nil {
		loc = time.Local
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Engine{
		streak:       NewStreakTracker(db, loc),
		challenges:   NewChallengeStore(db, loc),
		achievements: NewAchievementService(db),
		notifier:     notifier,
		loc:          loc,
		now:          time.Now,
	}
}

// SetClock overrides the engine clock. Tests only.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// ─── Activity ───────────────────────────────────────────────────────────────

// RecordActivity is the main entry point: it folds the activity into the
// streak, routes it to matching challenges, and checks achievements. task
// may be nil when the activity is not tied to a specific task.
func (e *Engine) RecordActivity(delta domain.DailyActivity, task *domain.TaskRef) domain.ActivityResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	res := e.streak.RecordActivityAt(now, delta)
	if res.FreezeGranted {
		e.notifier.FreezeTokenGranted(1)
	}

	ref := domain.TaskRef{}
	if task != nil {
		ref = *task
	}
	if delta.TasksCompleted > 0 {
		metrics.ActivitiesRecorded.WithLabelValues("tasks").Add(float64(delta.TasksCompleted))
		e.route(now, ref, domain.UnitTasks, delta.TasksCompleted)
	}
	if delta.StepsCompleted > 0 {
		metrics.ActivitiesRecorded.WithLabelValues("steps").Add(float64(delta.StepsCompleted))
		e.route(now, ref, domain.UnitSteps, delta.StepsCompleted)
	}
	if mins := delta.TimeSpentSeconds / 60; mins > 0 {
		metrics.ActivitiesRecorded.WithLabelValues("minutes").Add(float64(mins))
		e.route(now, ref, domain.UnitMinutes, mins)
	}
	if delta.CheckinsCompleted > 0 {
		metrics.ActivitiesRecorded.WithLabelValues("checkins").Add(float64(delta.CheckinsCompleted))
		e.route(now, ref, domain.UnitCheckin, delta.CheckinsCompleted)
	}

	e.checkAchievements()
	return res
}

// route advances every matching challenge of the given unit.
func (e *Engine) route(now time.Time, task domain.TaskRef, unit domain.Unit, inc int) {
	for _, c := range e.challenges.Matching(now, task, unit) {
		res, err := e.challenges.UpdateProgressAt(now, c.ID, inc)
		if err != nil {
			log.Printf("[engine] progress %s: %v", c.ID, err)
			continue
		}
		if res.Completed {
			e.notifier.ChallengeCompleted(res.Challenge)
		}
	}
}

// ─── Streak operations ──────────────────────────────────────────────────────

// FreezeStreak spends a token to protect the streak over the next missed
// day.
func (e *Engine) FreezeStreak() domain.FreezeResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := e.streak.FreezeStreak()
	if res.Success {
		e.checkAchievements()
	}
	return res
}

// CheckStreakAtRisk is meant to be polled near end of day; it emits a
// warning notification when the streak would break at midnight.
func (e *Engine) CheckStreakAtRisk() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.streak.IsStreakAtRiskAt(e.now()) {
		return false
	}
	e.notifier.StreakAtRisk(e.streak.State().CurrentStreak)
	return true
}

func (e *Engine) StreakSummary() domain.StreakSummary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streak.SummaryAt(e.now())
}

func (e *Engine) TodayStats() domain.TodayStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streak.TodayStats(e.now())
}

func (e *Engine) WeekStats() domain.WeekStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streak.WeekStats(e.now())
}

func (e *Engine) CalendarData(year int, month time.Month) map[int]domain.CalendarDay {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streak.CalendarData(year, month)
}

// ─── Challenge operations ───────────────────────────────────────────────────

func (e *Engine) CreateChallenge(cfg domain.ChallengeConfig) (*domain.Challenge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.challenges.CreateChallengeAt(e.now(), cfg)
	if err != nil {
		return nil, err
	}
	e.checkAchievements()
	return c, nil
}

func (e *Engine) UpdateChallenge(id string, upd domain.ChallengeUpdate) (*domain.Challenge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.challenges.UpdateChallengeAt(e.now(), id, upd)
}

func (e *Engine) DeleteChallenge(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.challenges.DeleteChallengeAt(e.now(), id)
}

// UpdateProgress manually advances a challenge, for times-unit challenges
// and UI-driven adjustments.
func (e *Engine) UpdateProgress(id string, inc int) (domain.ProgressResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.challenges.UpdateProgressAt(e.now(), id, inc)
	if err != nil {
		return res, err
	}
	if res.Completed {
		e.notifier.ChallengeCompleted(res.Challenge)
		e.checkAchievements()
	}
	return res, nil
}

// Checkin records one manual completion unit.
func (e *Engine) Checkin(id string) (domain.ProgressResult, error) {
	return e.UpdateProgress(id, 1)
}

func (e *Engine) ActiveChallenges() []*domain.Challenge {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.challenges.Active(e.now())
}

func (e *Engine) ChallengeHistory() []*domain.Challenge {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.challenges.History()
}

func (e *Engine) TodayProgress() []domain.ChallengeProgress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.challenges.TodayProgress(e.now())
}

func (e *Engine) ChallengeStats() domain.ChallengeStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := e.challenges.Stats(e.now())
	n, err := e.achievements.UnlockedCount()
	if err != nil {
		log.Printf("[engine] unlocked count: %v", err)
	}
	st.AchievementsUnlocked = n
	return st
}

func (e *Engine) QuickTemplates() []domain.ChallengeConfig {
	return e.challenges.QuickTemplates()
}

// ─── Achievements ───────────────────────────────────────────────────────────

func (e *Engine) Achievements() ([]domain.AchievementWithStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.achievements.WithStatus()
}

// Notifications exposes the notification queue when the notifier is the
// in-app service, nil otherwise.
func (e *Engine) Notifications() *NotificationService {
	if svc, ok := e.notifier.(*NotificationService); ok {
		return svc
	}
	return nil
}

// stats builds the snapshot achievement predicates run against.
func (e *Engine) stats() domain.UserStats {
	st := e.streak.State()
	return domain.UserStats{
		CurrentStreak:       st.CurrentStreak,
		LongestStreak:       st.LongestStreak,
		TotalTasksCompleted: st.TotalTasksCompleted(),
		BestChallengeStreak: e.challenges.BestStreak(),
		ChallengesCreated:   e.challenges.TotalCreated(),
		ActiveChallenges:    len(e.challenges.doc.Active),
		FreezeTokensUsed:    st.FreezeUsed,
	}
}

// checkAchievements runs the catalog against current stats and notifies on
// new unlocks. FreezeReward rides along in the unlock payload as display
// metadata; the token counter only grows through streak continuation grants.
// Caller holds the mutex.
func (e *Engine) checkAchievements() {
	unlocked, err := e.achievements.CheckAndUnlock(e.stats())
	if err != nil {
		log.Printf("[engine] achievement check: %v", err)
	}
	for _, def := range unlocked {
		e.notifier.AchievementUnlocked(def)
	}
}
