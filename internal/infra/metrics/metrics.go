// Package metrics provides Prometheus metrics for the engagement engine —
// counters, gauges, and histograms for activity, streaks, challenges,
// achievements, notifications, and persistence.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Activity ───────────────────────────────────────────────────────────────

// ActivitiesRecorded tracks recorded activity events by kind.
var ActivitiesRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "plancoach",
	Name:      "activities_recorded_total",
	Help:      "Total activity events recorded, by kind.",
}, []string{"kind"})

// ─── Streak ─────────────────────────────────────────────────────────────────

// CurrentStreak tracks the current consecutive-day streak.
var CurrentStreak = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "plancoach",
	Name:      "streak_current_days",
	Help:      "Current consecutive active days.",
})

// LongestStreak tracks the historical maximum streak.
var LongestStreak = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "plancoach",
	Name:      "streak_longest_days",
	Help:      "Longest consecutive-day streak ever reached.",
})

// FreezeTokens tracks the unused freeze-token inventory.
var FreezeTokens = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "plancoach",
	Name:      "streak_freeze_tokens",
	Help:      "Unused freeze tokens held.",
})

// FreezesArmed tracks consumed freeze tokens.
var FreezesArmed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "plancoach",
	Name:      "streak_freezes_armed_total",
	Help:      "Total freeze tokens consumed to protect the streak.",
})

// ─── Challenges ─────────────────────────────────────────────────────────────

// ChallengesActive tracks the number of active challenges.
var ChallengesActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "plancoach",
	Name:      "challenges_active",
	Help:      "Number of active challenges.",
})

// ChallengesCompleted tracks period completions by challenge type.
var ChallengesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "plancoach",
	Name:      "challenges_completed_total",
	Help:      "Total challenge period completions.",
}, []string{"type"})

// ChallengeResets tracks period-reset sweeps, by whether the challenge's
// streak survived the boundary.
var ChallengeResets = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "plancoach",
	Name:      "challenge_resets_total",
	Help:      "Total challenge period resets.",
}, []string{"outcome"})

// ─── Achievements ───────────────────────────────────────────────────────────

// AchievementsUnlocked tracks unlocks by category.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "plancoach",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievements unlocked.",
}, []string{"category"})

// ─── Notifications ──────────────────────────────────────────────────────────

// NotificationsQueued tracks queued notifications by type.
var NotificationsQueued = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "plancoach",
	Name:      "notifications_queued_total",
	Help:      "Total notifications queued for display.",
}, []string{"type"})

// NotificationsSuppressed tracks notifications dropped by policy.
var NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "plancoach",
	Name:      "notifications_suppressed_total",
	Help:      "Total notifications suppressed (quiet hours, daily cap).",
}, []string{"reason"})

// ─── Persistence ────────────────────────────────────────────────────────────

// PersistenceErrors tracks failed document writes. The engine keeps going
// with in-memory state when a write fails, so this counter is the trace.
var PersistenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "plancoach",
	Name:      "persistence_errors_total",
	Help:      "Total failed document writes.",
}, []string{"document"})
