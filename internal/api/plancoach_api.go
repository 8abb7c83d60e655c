package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/plancoach/plancoach/internal/domain"
)

// ─── Health ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status := "ok"
	code := http.StatusOK
	if !s.checker.IsHealthy() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": s.checker.Statuses(),
	})
}

// ─── Activity & Streak ──────────────────────────────────────────────────────

type activityRequest struct {
	TasksCompleted    int             `json:"tasks_completed"`
	StepsCompleted    int             `json:"steps_completed"`
	TimeSpentSeconds  int             `json:"time_spent_seconds"`
	CheckinsCompleted int             `json:"checkins_completed"`
	Task              *domain.TaskRef `json:"task,omitempty"`
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	delta := domain.DailyActivity{
		TasksCompleted:    req.TasksCompleted,
		StepsCompleted:    req.StepsCompleted,
		TimeSpentSeconds:  req.TimeSpentSeconds,
		CheckinsCompleted: req.CheckinsCompleted,
	}
	if delta.IsZero() {
		writeError(w, http.StatusBadRequest, "activity must not be empty")
		return
	}
	if delta.HasNegative() {
		writeError(w, http.StatusBadRequest, "activity counters must not be negative")
		return
	}
	writeJSON(w, http.StatusOK, s.engine.RecordActivity(delta, req.Task))
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.StreakSummary())
}

func (s *Server) handleFreeze(w http.ResponseWriter, r *http.Request) {
	res := s.engine.FreezeStreak()
	if !res.Success {
		writeJSON(w, http.StatusConflict, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTodayStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.TodayStats())
}

func (s *Server) handleWeekStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.WeekStats())
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year := now.Year()
	month := now.Month()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid year")
			return
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "invalid month")
			return
		}
		month = time.Month(m)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":  year,
		"month": int(month),
		"days":  s.engine.CalendarData(year, month),
	})
}

// ─── Challenges ─────────────────────────────────────────────────────────────

func (s *Server) handleListChallenges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.ActiveChallenges())
}

func (s *Server) handleCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var cfg domain.ChallengeConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.engine.CreateChallenge(cfg)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidChallenge) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateChallenge(w http.ResponseWriter, r *http.Request) {
	var upd domain.ChallengeUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c, err := s.engine.UpdateChallenge(chi.URLParam(r, "id"), upd)
	if err != nil {
		writeChallengeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteChallenge(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.DeleteChallenge(chi.URLParam(r, "id")); err != nil {
		writeChallengeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type progressRequest struct {
	Increment int `json:"increment"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	req := progressRequest{Increment: 1}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	res, err := s.engine.UpdateProgress(chi.URLParam(r, "id"), req.Increment)
	if err != nil {
		writeChallengeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCheckin(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.Checkin(chi.URLParam(r, "id"))
	if err != nil {
		writeChallengeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.QuickTemplates())
}

func (s *Server) handleChallengeHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.ChallengeHistory())
}

func (s *Server) handleChallengeStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.ChallengeStats())
}

func (s *Server) handleTodayProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.TodayProgress())
}

func writeChallengeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrChallengeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidChallenge):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// ─── Achievements & Notifications ───────────────────────────────────────────

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	all, err := s.engine.Achievements()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	svc := s.engine.Notifications()
	if svc == nil {
		writeJSON(w, http.StatusOK, []domain.Notification{})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	pending, err := svc.Pending(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	svc := s.engine.Notifications()
	if svc == nil {
		writeError(w, http.StatusNotFound, "notifications disabled")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := svc.MarkShown(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"shown": true})
}
