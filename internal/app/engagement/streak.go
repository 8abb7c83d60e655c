package engagement

import (
	"encoding/json"
	"log"
	"time"

	"github.com/plancoach/plancoach/internal/domain"
	"github.com/plancoach/plancoach/internal/infra/metrics"
	"github.com/plancoach/plancoach/internal/infra/sqlite"
)

// StreakTracker maintains the user's daily activity streak: consecutive active
// days, freeze tokens, and the per-day activity record. State lives in memory
// and is persisted as a single JSON document after every mutation.
type StreakTracker struct {
	db    *sqlite.DB
	loc   *time.Location
	state domain.StreakState
}

// NewStreakTracker loads the persisted streak document. A missing or corrupt
// document falls back to a fresh default state.
func NewStreakTracker(db *sqlite.DB, loc *time.Location) *StreakTracker {
	if loc == nil {
		loc = time.Local
	}
	t := &StreakTracker{db: db, loc: loc, state: domain.DefaultStreakState()}
	raw, err := db.GetDocument(sqlite.DocStreak)
	if err != nil {
		log.Printf("[streak] load document: %v", err)
		return t
	}
	if raw == nil {
		return t
	}
	var st domain.StreakState
	if err := json.Unmarshal(raw, &st); err != nil {
		log.Printf("[streak] corrupt document, starting fresh: %v", err)
		return t
	}
	if st.DailyRecord == nil {
		st.DailyRecord = make(map[domain.DayKey]*domain.DailyActivity)
	}
	t.state = st
	t.publishGauges()
	return t
}

// RecordActivity folds a batch of activity into today's record and advances
// the streak when this is the first activity of the day.
func (t *StreakTracker) RecordActivity(delta domain.DailyActivity) domain.ActivityResult {
	return t.RecordActivityAt(time.Now(), delta)
}

// RecordActivityAt is RecordActivity with an explicit clock.
func (t *StreakTracker) RecordActivityAt(now time.Time, delta domain.DailyActivity) domain.ActivityResult {
	today := domain.MakeDayKey(now, t.loc)
	rec, ok := t.state.DailyRecord[today]
	if !ok {
		rec = &domain.DailyActivity{}
		t.state.DailyRecord[today] = rec
	}
	rec.Add(delta)

	res := domain.ActivityResult{
		CurrentStreak: t.state.CurrentStreak,
		LongestStreak: t.state.LongestStreak,
	}
	if t.state.LastActiveDate == today {
		// Second or later activity today: accumulate only.
		t.save()
		return res
	}

	res.IsNewDay = true
	t.state.TotalActiveDays++
	yesterday := today.AddDays(-1)

	switch {
	case t.state.FrozenPending:
		// An armed freeze bridges exactly one missed period.
		t.state.CurrentStreak++
		t.state.FrozenPending = false
	case t.state.LastActiveDate == yesterday:
		t.state.CurrentStreak++
		if t.state.CurrentStreak > 0 && t.state.CurrentStreak%7 == 0 {
			t.state.FreezeTokens++
			res.FreezeGranted = true
			log.Printf("[streak] freeze token earned at %d days (now %d)", t.state.CurrentStreak, t.state.FreezeTokens)
		}
	case t.state.LastActiveDate == "":
		t.state.CurrentStreak = 1
	default:
		log.Printf("[streak] gap after %s, streak reset", t.state.LastActiveDate)
		t.state.CurrentStreak = 1
	}

	t.state.LastActiveDate = today
	if t.state.CurrentStreak > t.state.LongestStreak {
		t.state.LongestStreak = t.state.CurrentStreak
	}

	res.CurrentStreak = t.state.CurrentStreak
	res.LongestStreak = t.state.LongestStreak
	t.save()
	return res
}

// FreezeStreak spends one token to arm a freeze for the next missed day.
func (t *StreakTracker) FreezeStreak() domain.FreezeResult {
	if t.state.FrozenPending {
		return domain.FreezeResult{Remaining: t.state.FreezeTokens, Reason: "already frozen"}
	}
	if t.state.FreezeTokens <= 0 {
		return domain.FreezeResult{Reason: "no tokens"}
	}
	t.state.FreezeTokens--
	t.state.FreezeUsed++
	t.state.FrozenPending = true
	metrics.FreezesArmed.Inc()
	t.save()
	return domain.FreezeResult{Success: true, Remaining: t.state.FreezeTokens}
}

// GrantTokens adds freeze tokens directly to the counter.
func (t *StreakTracker) GrantTokens(n int) {
	if n <= 0 {
		return
	}
	t.state.FreezeTokens += n
	t.save()
}

// IsStreakAtRisk reports whether an active streak will break at midnight
// unless activity is recorded (or a freeze is armed) today.
func (t *StreakTracker) IsStreakAtRisk() bool {
	return t.IsStreakAtRiskAt(time.Now())
}

func (t *StreakTracker) IsStreakAtRiskAt(now time.Time) bool {
	if t.state.CurrentStreak == 0 || t.state.FrozenPending {
		return false
	}
	return t.state.LastActiveDate != domain.MakeDayKey(now, t.loc)
}

// Summary returns the headline streak numbers.
func (t *StreakTracker) Summary() domain.StreakSummary {
	return t.SummaryAt(time.Now())
}

func (t *StreakTracker) SummaryAt(now time.Time) domain.StreakSummary {
	return domain.StreakSummary{
		Current:      t.state.CurrentStreak,
		Longest:      t.state.LongestStreak,
		TotalDays:    t.state.TotalActiveDays,
		FreezeTokens: t.state.FreezeTokens,
		IsFrozen:     t.state.FrozenPending,
		AtRisk:       t.IsStreakAtRiskAt(now),
	}
}

// TodayStats returns today's accumulated activity.
func (t *StreakTracker) TodayStats(now time.Time) domain.TodayStats {
	today := domain.MakeDayKey(now, t.loc)
	st := domain.TodayStats{IsActive: t.state.LastActiveDate == today}
	if rec, ok := t.state.DailyRecord[today]; ok {
		st.DailyActivity = *rec
	}
	return st
}

// WeekStats aggregates the trailing week, today included.
func (t *StreakTracker) WeekStats(now time.Time) domain.WeekStats {
	today := domain.MakeDayKey(now, t.loc)
	var ws domain.WeekStats
	for i := 7; i >= 0; i-- {
		rec, ok := t.state.DailyRecord[today.AddDays(-i)]
		if !ok || rec.IsZero() {
			continue
		}
		ws.ActiveDays++
		ws.TasksCompleted += rec.TasksCompleted
		ws.StepsCompleted += rec.StepsCompleted
		ws.TimeSpentSeconds += rec.TimeSpentSeconds
	}
	return ws
}

// CalendarData returns one entry per day of the given month (1-12) keyed by
// day number, marking which days had activity.
func (t *StreakTracker) CalendarData(year int, month time.Month) map[int]domain.CalendarDay {
	days := domain.DaysInMonth(year, int(month))
	out := make(map[int]domain.CalendarDay, days)
	for d := 1; d <= days; d++ {
		key := domain.MonthDayKey(year, int(month), d)
		var cd domain.CalendarDay
		if rec, ok := t.state.DailyRecord[key]; ok && !rec.IsZero() {
			cd.Active = true
			cd.TasksCompleted = rec.TasksCompleted
			cd.StepsCompleted = rec.StepsCompleted
		}
		out[d] = cd
	}
	return out
}

// State returns a copy of the underlying state for stats snapshots.
func (t *StreakTracker) State() domain.StreakState {
	return t.state
}

func (t *StreakTracker) save() {
	t.publishGauges()
	raw, err := json.Marshal(t.state)
	if err != nil {
		log.Printf("[streak] marshal state: %v", err)
		metrics.PersistenceErrors.WithLabelValues(sqlite.DocStreak).Inc()
		return
	}
	if err := t.db.SetDocument(sqlite.DocStreak, raw); err != nil {
		log.Printf("[streak] save state: %v", err)
		metrics.PersistenceErrors.WithLabelValues(sqlite.DocStreak).Inc()
	}
}

func (t *StreakTracker) publishGauges() {
	metrics.CurrentStreak.Set(float64(t.state.CurrentStreak))
	metrics.LongestStreak.Set(float64(t.state.LongestStreak))
	metrics.FreezeTokens.Set(float64(t.state.FreezeTokens))
}
