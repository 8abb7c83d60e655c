package domain

import "time"

// ─── Notification Types ─────────────────────────────────────────────────────

// NotificationType categorizes notifications.
type NotificationType string

const (
	NotifyAchievement       NotificationType = "achievement"
	NotifyFreezeReward      NotificationType = "freeze_reward"
	NotifyChallengeComplete NotificationType = "challenge_complete"
	NotifyStreakWarning     NotificationType = "streak_warning"
)

// Notification is a user-facing message queued for display.
type Notification struct {
	ID        int64            `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// NotificationPolicy governs how many notifications are queued and when.
// Celebratory events (achievements, challenge completions) always matter,
// but not at 3 AM and not twenty times a day.
type NotificationPolicy struct {
	MaxPerDay  int    `json:"max_per_day"`
	QuietStart string `json:"quiet_start"` // "22:00"
	QuietEnd   string `json:"quiet_end"`   // "08:00"
}

// DefaultNotificationPolicy returns the default delivery policy.
func DefaultNotificationPolicy() NotificationPolicy {
	return NotificationPolicy{
		MaxPerDay:  10,
		QuietStart: "22:00",
		QuietEnd:   "08:00",
	}
}
