package engagement

import (
	"fmt"
	"log"
	"time"

	"github.com/plancoach/plancoach/internal/domain"
	"github.com/plancoach/plancoach/internal/infra/metrics"
	"github.com/plancoach/plancoach/internal/infra/sqlite"
)

// Notifier receives engagement events. Implementations decide how to surface
// them; the engine calls these synchronously, so they must not block.
type Notifier interface {
	AchievementUnlocked(def domain.AchievementDef)
	FreezeTokenGranted(count int)
	ChallengeCompleted(c *domain.Challenge)
	StreakAtRisk(currentStreak int)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) AchievementUnlocked(domain.AchievementDef) {}
func (NopNotifier) FreezeTokenGranted(int)                    {}
func (NopNotifier) ChallengeCompleted(*domain.Challenge)      {}
func (NopNotifier) StreakAtRisk(int)                          {}

// NotificationService queues in-app notifications, subject to a delivery
// policy: a daily cap and quiet hours. Suppressed events are still logged.
type NotificationService struct {
	db     *sqlite.DB
	policy domain.NotificationPolicy
	loc    *time.Location
}

func NewNotificationService(db *sqlite.DB, policy domain.NotificationPolicy, loc *time.Location) *NotificationService {
	if loc == nil {
		loc = time.Local
	}
	return &NotificationService{db: db, policy: policy, loc: loc}
}

// Create queues a notification if the policy allows it. Returns the row id,
// or 0 when suppressed.
func (n *NotificationService) Create(notif domain.Notification) (int64, error) {
	if notif.CreatedAt.IsZero() {
		notif.CreatedAt = time.Now()
	}
	local := notif.CreatedAt.In(n.loc)

	if isQuietHour(local, n.policy.QuietStart, n.policy.QuietEnd) {
		metrics.NotificationsSuppressed.WithLabelValues("quiet_hours").Inc()
		return 0, nil
	}
	if n.policy.MaxPerDay > 0 {
		startOfDay := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, n.loc)
		count, err := n.db.NotificationCountSince(startOfDay)
		if err != nil {
			return 0, fmt.Errorf("count notifications: %w", err)
		}
		if count >= n.policy.MaxPerDay {
			metrics.NotificationsSuppressed.WithLabelValues("daily_cap").Inc()
			return 0, nil
		}
	}

	id, err := n.db.InsertNotification(notif)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	metrics.NotificationsQueued.WithLabelValues(string(notif.Type)).Inc()
	return id, nil
}

// Pending returns queued notifications that have not been shown yet.
func (n *NotificationService) Pending(limit int) ([]domain.Notification, error) {
	return n.db.ListPendingNotifications(limit)
}

// MarkShown marks a notification as displayed.
func (n *NotificationService) MarkShown(id int64) error {
	return n.db.MarkNotificationShown(id)
}

// ─── Notifier implementation ────────────────────────────────────────────────

func (n *NotificationService) AchievementUnlocked(def domain.AchievementDef) {
	n.queue(domain.Notification{
		Type:  domain.NotifyAchievement,
		Title: "Achievement unlocked!",
		Body:  fmt.Sprintf("%s %s: %s", def.Icon, def.Name, def.Description),
	})
}

func (n *NotificationService) FreezeTokenGranted(count int) {
	n.queue(domain.Notification{
		Type:  domain.NotifyFreezeReward,
		Title: "Freeze token earned",
		Body:  fmt.Sprintf("❄️ You earned %d freeze token(s). Use one to protect your streak on a busy day.", count),
	})
}

func (n *NotificationService) ChallengeCompleted(c *domain.Challenge) {
	n.queue(domain.Notification{
		Type:  domain.NotifyChallengeComplete,
		Title: "Challenge complete!",
		Body:  fmt.Sprintf("%s %s done — streak is now %d", c.Icon, c.Name, c.Streak),
	})
}

func (n *NotificationService) StreakAtRisk(currentStreak int) {
	n.queue(domain.Notification{
		Type:  domain.NotifyStreakWarning,
		Title: "Your streak is at risk",
		Body:  fmt.Sprintf("🔥 %d-day streak ends at midnight. One small task keeps it alive.", currentStreak),
	})
}

func (n *NotificationService) queue(notif domain.Notification) {
	if _, err := n.Create(notif); err != nil {
		log.Printf("[notify] queue %s: %v", notif.Type, err)
	}
}

// isQuietHour checks whether t falls inside the quiet window. A window like
// 22:00-08:00 wraps midnight.
func isQuietHour(t time.Time, start, end string) bool {
	sh, sm, ok1 := parseHHMM(start)
	eh, em, ok2 := parseHHMM(end)
	if !ok1 || !ok2 {
		return false
	}
	cur := t.Hour()*60 + t.Minute()
	s := sh*60 + sm
	e := eh*60 + em
	if s == e {
		return false
	}
	if s < e {
		return cur >= s && cur < e
	}
	return cur >= s || cur < e
}

func parseHHMM(s string) (h, m int, ok bool) {
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, 0, false
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
