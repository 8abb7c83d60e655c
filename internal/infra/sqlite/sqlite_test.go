package sqlite

import (
	"testing"
	"time"

	"github.com/plancoach/plancoach/internal/domain"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDocuments_RoundTrip(t *testing.T) {
	db := testDB(t)

	if err := db.SetDocument(DocStreak, []byte(`{"current_streak":3}`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := db.GetDocument(DocStreak)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"current_streak":3}` {
		t.Errorf("got %s", got)
	}
}

func TestDocuments_Overwrite(t *testing.T) {
	db := testDB(t)

	_ = db.SetDocument(DocChallenges, []byte(`{"total_created":1}`))
	_ = db.SetDocument(DocChallenges, []byte(`{"total_created":2}`))

	got, err := db.GetDocument(DocChallenges)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `{"total_created":2}` {
		t.Errorf("expected latest write, got %s", got)
	}
}

func TestDocuments_MissingKey(t *testing.T) {
	db := testDB(t)

	got, err := db.GetDocument("never_written")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing key, got %s", got)
	}
}

func TestAchievements_UnlockIdempotent(t *testing.T) {
	db := testDB(t)

	first, err := db.UnlockAchievement("streak_7", time.Now())
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if !first {
		t.Error("first unlock should report new")
	}

	second, err := db.UnlockAchievement("streak_7", time.Now())
	if err != nil {
		t.Fatalf("second unlock: %v", err)
	}
	if second {
		t.Error("second unlock should be a no-op")
	}

	count, _ := db.UnlockedAchievementCount()
	if count != 1 {
		t.Errorf("expected 1 record, got %d", count)
	}
}

func TestAchievements_IsUnlocked(t *testing.T) {
	db := testDB(t)

	unlocked, _ := db.IsAchievementUnlocked("first_challenge")
	if unlocked {
		t.Error("fresh db should have nothing unlocked")
	}

	_, _ = db.UnlockAchievement("first_challenge", time.Now())
	unlocked, _ = db.IsAchievementUnlocked("first_challenge")
	if !unlocked {
		t.Error("expected unlocked after insert")
	}
}

func TestAchievements_List(t *testing.T) {
	db := testDB(t)

	_, _ = db.UnlockAchievement("streak_3", time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC))
	_, _ = db.UnlockAchievement("streak_7", time.Date(2024, 1, 7, 9, 0, 0, 0, time.UTC))

	list, err := db.ListUnlockedAchievements()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 unlocks, got %d", len(list))
	}
	// Ordered newest first
	if list[0].ID != "streak_7" {
		t.Errorf("expected streak_7 first, got %s", list[0].ID)
	}
}

func TestNotifications_QueueAndShow(t *testing.T) {
	db := testDB(t)

	id, err := db.InsertNotification(domain.Notification{
		Type:      domain.NotifyAchievement,
		Title:     "Achievement unlocked",
		Body:      "Week Warrior",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id == 0 {
		t.Fatal("expected non-zero id")
	}

	pending, err := db.ListPendingNotifications(10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(pending))
	}

	if err := db.MarkNotificationShown(id); err != nil {
		t.Fatalf("mark shown: %v", err)
	}
	pending, _ = db.ListPendingNotifications(10)
	if len(pending) != 0 {
		t.Error("expected 0 pending after marking shown")
	}
}

func TestNotifications_CountSince(t *testing.T) {
	db := testDB(t)

	now := time.Now()
	_, _ = db.InsertNotification(domain.Notification{
		Type: domain.NotifyFreezeReward, Title: "a", Body: "b", CreatedAt: now,
	})

	count, err := db.NotificationCountSince(now.Add(-time.Minute))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1, got %d", count)
	}

	count, _ = db.NotificationCountSince(now.Add(time.Minute))
	if count != 0 {
		t.Errorf("expected 0 after cutoff, got %d", count)
	}
}
