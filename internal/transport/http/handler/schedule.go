package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/classsync/internal/application/auth"
	"github.com/classsync/internal/application/leaderboard"
	"github.com/classsync/internal/application/schedule"
	"github.com/classsync/internal/application/schedulesync"
	"github.com/classsync/internal/domain"
	"github.com/classsync/internal/transport/http/middleware"
)

// maxWeekOffset bounds ?week= so a request cannot walk the calendar arbitrarily far.
const maxWeekOffset = 104

// ScheduleHandler serves the per-student JSON API.
type ScheduleHandler struct {
	schedule    schedule.Service
	leaderboard leaderboard.Service
	sync        schedulesync.Service
	auth        auth.Service
}

func NewScheduleHandler(s schedule.Service, lb leaderboard.Service, sync schedulesync.Service, a auth.Service) *ScheduleHandler {
	return &ScheduleHandler{schedule: s, leaderboard: lb, sync: sync, auth: a}
}

func (h *ScheduleHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httpError(w, domain.ErrUnauthorized)
		return
	}
	out := MeEnvelope{Identity: identity, Email: h.auth.Email(identity)}
	st, err := h.schedule.Student(r.Context(), identity)
	switch {
	case err == nil:
		out.Name = st.Name
	case !errors.Is(err, domain.ErrNotFound):
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ScheduleHandler) Week(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httpError(w, domain.ErrUnauthorized)
		return
	}
	offset, err := weekOffset(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	week, err := h.schedule.Week(r.Context(), identity, offset)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

func (h *ScheduleHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.leaderboard.Leaderboard(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

// Sync pushes the caller's own schedule. The identity comes from the session only.
func (h *ScheduleHandler) Sync(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		httpError(w, domain.ErrUnauthorized)
		return
	}
	res, err := h.sync.Sync(r.Context(), identity)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func weekOffset(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("week")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < -maxWeekOffset || n > maxWeekOffset {
		return 0, errors.New("week must be an integer offset")
	}
	return n, nil
}
