package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/classsync/internal/application/auth"
	"github.com/classsync/internal/application/leaderboard"
	"github.com/classsync/internal/application/schedule"
	"github.com/classsync/internal/domain"
	"github.com/classsync/internal/transport/http/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// periods are the rows of the weekly grid.
var periods = []int{1, 2, 3, 4, 5, 6, 7, 8}

// PageHandler renders the server-side HTML pages.
type PageHandler struct {
	schedule      schedule.Service
	leaderboard   leaderboard.Service
	auth          auth.Service
	allowedDomain string
}

func NewPageHandler(s schedule.Service, lb leaderboard.Service, a auth.Service, allowedDomain string) *PageHandler {
	return &PageHandler{schedule: s, leaderboard: lb, auth: a, allowedDomain: allowedDomain}
}

type loginPage struct {
	Domain string
}

type dashboardPage struct {
	Identity string
	Email    string
	Name     string
	Week     *domain.Week
	Periods  []int
	Prev     int
	Next     int
	Notice   string
}

type leaderboardPage struct {
	Identity string
	Board    *domain.Leaderboard
}

func (h *PageHandler) Login(w http.ResponseWriter, _ *http.Request) {
	render(w, "login.html", loginPage{Domain: h.allowedDomain})
}

func (h *PageHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/dashboard", http.StatusFound)
}

func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
		return
	}
	offset, err := weekOffset(r)
	if err != nil {
		offset = 0
	}
	data := dashboardPage{
		Identity: identity,
		Email:    h.auth.Email(identity),
		Periods:  periods,
		Prev:     offset - 1,
		Next:     offset + 1,
	}
	week, err := h.schedule.Week(r.Context(), identity, offset)
	switch {
	case err == nil:
		data.Week = week
	case errors.Is(err, domain.ErrNotFound):
		data.Notice = "No schedule found for this account."
	default:
		slog.Error("dashboard", "identity", identity, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if st, err := h.schedule.Student(r.Context(), identity); err == nil {
		data.Name = st.Name
	}
	render(w, "dashboard.html", data)
}

func (h *PageHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	identity, _ := middleware.IdentityFromContext(r.Context())
	lb, err := h.leaderboard.Leaderboard(r.Context())
	if err != nil {
		slog.Error("leaderboard page", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	render(w, "leaderboard.html", leaderboardPage{Identity: identity, Board: lb})
}

// render executes into a buffer first so a template error never leaves a half-written page.
func render(w http.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("render template", "name", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
