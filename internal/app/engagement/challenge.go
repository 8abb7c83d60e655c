package engagement

import (
	"encoding/json"
	"log"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/plancoach/plancoach/internal/domain"
	"github.com/plancoach/plancoach/internal/infra/metrics"
	"github.com/plancoach/plancoach/internal/infra/sqlite"
)

// ChallengeStore owns the challenge document: active challenges, the
// soft-deleted history, and the lifetime creation counter. Period resets are
// lazy: every public entry point sweeps stale challenges before acting, so a
// process that was asleep over a period boundary settles the moment it is
// next asked anything.
type ChallengeStore struct {
	db  *sqlite.DB
	loc *time.Location
	doc domain.ChallengeDocument
}

// NewChallengeStore loads the persisted challenge document, starting empty
// when the document is missing or corrupt.
func NewChallengeStore(db *sqlite.DB, loc *time.Location) *ChallengeStore {
	if loc == nil {
		loc = time.Local
	}
	s := &ChallengeStore{db: db, loc: loc, doc: domain.DefaultChallengeDocument()}
	raw, err := db.GetDocument(sqlite.DocChallenges)
	if err != nil {
		log.Printf("[challenge] load document: %v", err)
		return s
	}
	if raw == nil {
		return s
	}
	var doc domain.ChallengeDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Printf("[challenge] corrupt document, starting fresh: %v", err)
		return s
	}
	if doc.Active == nil {
		doc.Active = []*domain.Challenge{}
	}
	if doc.Completed == nil {
		doc.Completed = []*domain.Challenge{}
	}
	s.doc = doc
	return s
}

// ─── Period Reset ───────────────────────────────────────────────────────────

// needsReset reports whether the challenge's period has rolled over since
// its last reset. Weekly challenges step at most one period per sweep: a
// multi-week gap settles on the next Monday the sweep runs, not retroactively.
func needsReset(c *domain.Challenge, today domain.DayKey) bool {
	switch c.Type {
	case domain.ChallengeDaily:
		return c.LastReset != today
	case domain.ChallengeWeekly:
		return c.LastReset != today && today.IsMonday()
	case domain.ChallengeCustom:
		if c.ResetPeriodDays <= 0 {
			return false
		}
		return domain.DaysBetween(c.LastReset, today) >= c.ResetPeriodDays
	default:
		return false
	}
}

// sweepAt applies pending period resets. A challenge that was not completed
// in its elapsed period loses its streak.
func (s *ChallengeStore) sweepAt(now time.Time) {
	today := domain.MakeDayKey(now, s.loc)
	dirty := false
	for _, c := range s.doc.Active {
		if !needsReset(c, today) {
			continue
		}
		if c.CompletedToday {
			metrics.ChallengeResets.WithLabelValues("kept").Inc()
		} else {
			if c.Streak > 0 {
				log.Printf("[challenge] %q missed its period, streak %d broken", c.Name, c.Streak)
			}
			c.Streak = 0
			metrics.ChallengeResets.WithLabelValues("broken").Inc()
		}
		c.Current = 0
		c.CompletedToday = false
		c.LastReset = today
		dirty = true
	}
	if dirty {
		s.save()
	}
}

// ─── Lifecycle ──────────────────────────────────────────────────────────────

// CreateChallenge validates the config and adds a new active challenge.
func (s *ChallengeStore) CreateChallenge(cfg domain.ChallengeConfig) (*domain.Challenge, error) {
	return s.CreateChallengeAt(time.Now(), cfg)
}

func (s *ChallengeStore) CreateChallengeAt(now time.Time, cfg domain.ChallengeConfig) (*domain.Challenge, error) {
	s.sweepAt(now)

	if cfg.Name == "" {
		return nil, domain.ErrEmptyName
	}
	if cfg.Target <= 0 {
		return nil, domain.ErrNonPositiveTarget
	}
	typ := cfg.Type
	if typ == "" {
		typ = domain.ChallengeDaily
	}
	if typ == domain.ChallengeCustom && cfg.ResetPeriodDays <= 0 {
		return nil, domain.ErrMissingResetDays
	}

	c := &domain.Challenge{
		ID:               uuid.NewString(),
		Type:             typ,
		Name:             cfg.Name,
		Description:      cfg.Description,
		Icon:             cfg.Icon,
		Color:            cfg.Color,
		Category:         cfg.Category,
		Target:           cfg.Target,
		Unit:             cfg.Unit,
		MatchMode:        cfg.MatchMode,
		MatchCategories:  cfg.MatchCategories,
		MatchTaskIDs:     cfg.MatchTaskIDs,
		MatchTemplateIDs: cfg.MatchTemplateIDs,
		CreatedAt:        now,
		LastReset:        domain.MakeDayKey(now, s.loc),
	}
	if typ == domain.ChallengeCustom {
		c.ResetPeriodDays = cfg.ResetPeriodDays
	}
	if c.Icon == "" {
		c.Icon = "🎯"
	}
	if c.Color == "" {
		c.Color = "#7c5cff"
	}
	if c.Category == "" {
		c.Category = "general"
	}
	if c.Unit == "" {
		c.Unit = domain.UnitTimes
	}
	if c.MatchMode == "" {
		c.MatchMode = domain.MatchAll
	}

	s.doc.Active = append(s.doc.Active, c)
	s.doc.TotalCreated++
	s.save()
	metrics.ChallengesActive.Set(float64(len(s.doc.Active)))
	return c, nil
}

// UpdateChallenge applies the settable fields of upd to an active challenge.
// Progress state is never touched here.
func (s *ChallengeStore) UpdateChallenge(id string, upd domain.ChallengeUpdate) (*domain.Challenge, error) {
	return s.UpdateChallengeAt(time.Now(), id, upd)
}

func (s *ChallengeStore) UpdateChallengeAt(now time.Time, id string, upd domain.ChallengeUpdate) (*domain.Challenge, error) {
	s.sweepAt(now)
	c := s.find(id)
	if c == nil {
		return nil, domain.ErrChallengeNotFound
	}
	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, domain.ErrEmptyName
		}
		c.Name = *upd.Name
	}
	if upd.Target != nil {
		if *upd.Target <= 0 {
			return nil, domain.ErrNonPositiveTarget
		}
		c.Target = *upd.Target
	}
	if upd.Icon != nil {
		c.Icon = *upd.Icon
	}
	if upd.Color != nil {
		c.Color = *upd.Color
	}
	if upd.Category != nil {
		c.Category = *upd.Category
	}
	if upd.MatchMode != nil {
		c.MatchMode = *upd.MatchMode
	}
	if upd.MatchCategories != nil {
		c.MatchCategories = *upd.MatchCategories
	}
	if upd.MatchTaskIDs != nil {
		c.MatchTaskIDs = *upd.MatchTaskIDs
	}
	if upd.MatchTemplateIDs != nil {
		c.MatchTemplateIDs = *upd.MatchTemplateIDs
	}
	c.UpdatedAt = now
	s.save()
	return c, nil
}

// DeleteChallenge soft-deletes: the challenge moves to history with its
// streak and stats intact.
func (s *ChallengeStore) DeleteChallenge(id string) error {
	return s.DeleteChallengeAt(time.Now(), id)
}

func (s *ChallengeStore) DeleteChallengeAt(now time.Time, id string) error {
	s.sweepAt(now)
	for i, c := range s.doc.Active {
		if c.ID != id {
			continue
		}
		deleted := now
		c.DeletedAt = &deleted
		s.doc.Active = slices.Delete(s.doc.Active, i, i+1)
		s.doc.Completed = append(s.doc.Completed, c)
		s.save()
		metrics.ChallengesActive.Set(float64(len(s.doc.Active)))
		return nil
	}
	return domain.ErrChallengeNotFound
}

// ─── Progress ───────────────────────────────────────────────────────────────

// MatchesTask reports whether a completed task counts toward the challenge.
// Only tasks and steps challenges match automatically; when a match list is
// empty its filter is permissive.
func MatchesTask(c *domain.Challenge, task domain.TaskRef) bool {
	if c.Unit != domain.UnitTasks && c.Unit != domain.UnitSteps {
		return false
	}
	switch c.MatchMode {
	case domain.MatchCategory:
		return len(c.MatchCategories) == 0 || slices.Contains(c.MatchCategories, task.Category)
	case domain.MatchSpecific:
		if len(c.MatchTaskIDs) == 0 && len(c.MatchTemplateIDs) == 0 {
			return true
		}
		return slices.Contains(c.MatchTaskIDs, task.ID) ||
			(task.TemplateID != "" && slices.Contains(c.MatchTemplateIDs, task.TemplateID))
	default: // MatchAll
		return true
	}
}

// Matching returns the active challenges of the given unit that the task
// qualifies for, after sweeping.
func (s *ChallengeStore) Matching(now time.Time, task domain.TaskRef, unit domain.Unit) []*domain.Challenge {
	s.sweepAt(now)
	var out []*domain.Challenge
	for _, c := range s.doc.Active {
		if c.Unit != unit {
			continue
		}
		if unit == domain.UnitTasks || unit == domain.UnitSteps {
			if !MatchesTask(c, task) {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// UpdateProgress advances a challenge by inc units, clamped to the target.
// Once a period is completed further progress is frozen until the next
// reset.
func (s *ChallengeStore) UpdateProgress(id string, inc int) (domain.ProgressResult, error) {
	return s.UpdateProgressAt(time.Now(), id, inc)
}

func (s *ChallengeStore) UpdateProgressAt(now time.Time, id string, inc int) (domain.ProgressResult, error) {
	s.sweepAt(now)
	c := s.find(id)
	if c == nil {
		return domain.ProgressResult{}, domain.ErrChallengeNotFound
	}
	if c.CompletedToday {
		return domain.ProgressResult{Success: true, AlreadyCompleted: true, Challenge: c}, nil
	}
	c.Current += inc
	if c.Current > c.Target {
		c.Current = c.Target
	}
	if c.Current < 0 {
		c.Current = 0
	}
	res := domain.ProgressResult{Success: true, Challenge: c}
	if c.Current >= c.Target {
		c.CompletedToday = true
		c.Streak++
		res.Completed = true
		metrics.ChallengesCompleted.WithLabelValues(string(c.Type)).Inc()
		log.Printf("[challenge] %q completed, streak %d", c.Name, c.Streak)
	}
	s.save()
	return res, nil
}

// Checkin records one manual completion unit for times/checkin challenges.
func (s *ChallengeStore) Checkin(id string) (domain.ProgressResult, error) {
	return s.UpdateProgress(id, 1)
}

// ─── Read Projections ───────────────────────────────────────────────────────

// Active returns the active challenges after sweeping.
func (s *ChallengeStore) Active(now time.Time) []*domain.Challenge {
	s.sweepAt(now)
	return s.doc.Active
}

// History returns soft-deleted challenges, most recently deleted last.
func (s *ChallengeStore) History() []*domain.Challenge {
	return s.doc.Completed
}

// TodayProgress returns a per-challenge progress view for the current period.
func (s *ChallengeStore) TodayProgress(now time.Time) []domain.ChallengeProgress {
	s.sweepAt(now)
	today := domain.MakeDayKey(now, s.loc)
	out := make([]domain.ChallengeProgress, 0, len(s.doc.Active))
	for _, c := range s.doc.Active {
		out = append(out, domain.ChallengeProgress{
			Challenge:   *c,
			Progress:    c.ProgressRatio(),
			IsCompleted: c.CompletedToday,
			NeedsReset:  needsReset(c, today),
		})
	}
	return out
}

// Stats aggregates over active and historical challenges.
func (s *ChallengeStore) Stats(now time.Time) domain.ChallengeStats {
	s.sweepAt(now)
	st := domain.ChallengeStats{
		ActiveCount:  len(s.doc.Active),
		TotalCreated: s.doc.TotalCreated,
	}
	for _, c := range s.doc.Active {
		if c.CompletedToday {
			st.CompletedToday++
		}
		if c.Streak > st.LongestStreak {
			st.LongestStreak = c.Streak
		}
	}
	for _, c := range s.doc.Completed {
		if c.Streak > st.LongestStreak {
			st.LongestStreak = c.Streak
		}
	}
	return st
}

// BestStreak returns the highest streak across all challenges, history
// included.
func (s *ChallengeStore) BestStreak() int {
	best := 0
	for _, c := range s.doc.Active {
		if c.Streak > best {
			best = c.Streak
		}
	}
	for _, c := range s.doc.Completed {
		if c.Streak > best {
			best = c.Streak
		}
	}
	return best
}

// TotalCreated returns the lifetime creation counter.
func (s *ChallengeStore) TotalCreated() int {
	return s.doc.TotalCreated
}

// QuickTemplates returns ready-made configs for one-tap challenge creation.
func (s *ChallengeStore) QuickTemplates() []domain.ChallengeConfig {
	return []domain.ChallengeConfig{
		{Type: domain.ChallengeDaily, Name: "Daily Focus", Description: "Spend 25 focused minutes", Icon: "⏱️", Target: 25, Unit: domain.UnitMinutes},
		{Type: domain.ChallengeDaily, Name: "Task Trio", Description: "Finish 3 tasks today", Icon: "✅", Target: 3, Unit: domain.UnitTasks},
		{Type: domain.ChallengeDaily, Name: "Step by Step", Description: "Complete 10 steps today", Icon: "👣", Target: 10, Unit: domain.UnitSteps},
		{Type: domain.ChallengeDaily, Name: "Daily Check-in", Description: "Show up once a day", Icon: "📅", Target: 1, Unit: domain.UnitCheckin},
		{Type: domain.ChallengeWeekly, Name: "Weekly Twenty", Description: "Finish 20 tasks this week", Icon: "🗓️", Target: 20, Unit: domain.UnitTasks},
		{Type: domain.ChallengeWeekly, Name: "Deep Work Week", Description: "180 minutes of focus this week", Icon: "🧠", Target: 180, Unit: domain.UnitMinutes},
	}
}

func (s *ChallengeStore) find(id string) *domain.Challenge {
	for _, c := range s.doc.Active {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *ChallengeStore) save() {
	raw, err := json.Marshal(s.doc)
	if err != nil {
		log.Printf("[challenge] marshal document: %v", err)
		metrics.PersistenceErrors.WithLabelValues(sqlite.DocChallenges).Inc()
		return
	}
	if err := s.db.SetDocument(sqlite.DocChallenges, raw); err != nil {
		log.Printf("[challenge] save document: %v", err)
		metrics.PersistenceErrors.WithLabelValues(sqlite.DocChallenges).Inc()
	}
}
