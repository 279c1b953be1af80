// Package schedulesync pushes a student's catalogue schedule to ClassSync week by week.
package schedulesync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/classsync/internal/domain"
	"github.com/classsync/internal/infrastructure/classsync"
	"github.com/classsync/internal/infrastructure/sns"
	"github.com/classsync/internal/pkg/calendar"
	"github.com/classsync/internal/pkg/id"
)

// DefaultAddress is used for bases missing from Addresses.
const DefaultAddress = "臺北市中山區吉林路110號"

// Addresses maps a teaching base to its street address.
var Addresses = map[string]string{
	"吉林基地": "臺北市中山區吉林路110號",
	"弘道基地": "臺北市中正區公園路21號",
	"線上基地": "臺北市信義區信義路7號101樓",
}

type CatalogSource interface {
	Catalog(ctx context.Context) (*domain.Catalog, error)
}

// Remote is the subset of the ClassSync admin API used by a sync run.
type Remote interface {
	Configured() bool
	LookupUser(ctx context.Context, email string) (string, error)
	SetSchedule(ctx context.Context, userID, weekStart string, data classsync.WeekData) error
}

type Service interface {
	Sync(ctx context.Context, identity string) (*domain.SyncResult, error)
}

type ServiceDeps struct {
	Catalog CatalogSource
	Remote  Remote
	// Publisher is optional; when nil no summary is published.
	Publisher     sns.Publisher
	AllowedDomain string
}

type service struct {
	catalog       CatalogSource
	remote        Remote
	publisher     sns.Publisher
	allowedDomain string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		catalog:       deps.Catalog,
		remote:        deps.Remote,
		publisher:     deps.Publisher,
		allowedDomain: deps.AllowedDomain,
	}
}

// Sync resolves the ClassSync user for identity and replaces every week that holds
// one of the student's sessions. A failed week is reported in the result and does not
// stop the remaining weeks.
func (s *service) Sync(ctx context.Context, identity string) (*domain.SyncResult, error) {
	if !s.remote.Configured() {
		return nil, fmt.Errorf("classsync not configured: %w", domain.ErrUnavailable)
	}
	cat, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	st, ok := cat.StudentByIdentity(identity)
	if !ok {
		return nil, fmt.Errorf("student %s: %w", identity, domain.ErrNotFound)
	}

	userID, err := s.remote.LookupUser(ctx, identity+"@"+s.allowedDomain)
	if err != nil {
		return nil, fmt.Errorf("lookup classsync user: %w", err)
	}

	weeks := BuildWeeks(cat.SessionsFor(st))
	starts := make([]string, 0, len(weeks))
	for w := range weeks {
		starts = append(starts, w)
	}
	sort.Strings(starts)

	res := &domain.SyncResult{
		RunID:    id.New(),
		Identity: identity,
		Details:  make([]domain.SyncWeekResult, 0, len(starts)),
	}
	for _, w := range starts {
		err := s.remote.SetSchedule(ctx, userID, w, weeks[w])
		if err != nil {
			slog.Warn("classsync week rejected", "run_id", res.RunID, "week", w, "err", err)
		}
		res.Details = append(res.Details, domain.SyncWeekResult{Week: w, Success: err == nil})
	}
	res.SyncedWeeks = len(res.Details)

	s.publish(ctx, res)
	return res, nil
}

func (s *service) publish(ctx context.Context, res *domain.SyncResult) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(res)
	if err != nil {
		slog.Error("encode sync summary", "run_id", res.RunID, "err", err)
		return
	}
	if err := s.publisher.Publish(ctx, "schedule sync "+res.Identity, string(body)); err != nil {
		slog.Warn("publish sync summary", "run_id", res.RunID, "err", err)
	}
}

// BuildWeeks groups sessions by the Monday of their week. Each week carries all seven
// weekdays, empty where the student has nothing. Sessions with unparseable dates are skipped.
func BuildWeeks(sessions map[string][]domain.ClassSession) map[string]classsync.WeekData {
	weeks := map[string]classsync.WeekData{}
	for course, list := range sessions {
		for _, cs := range list {
			day, err := calendar.ParseDate(cs.Time)
			if err != nil {
				slog.Warn("skipping session with bad date", "course", course, "time", cs.Time)
				continue
			}
			monday := calendar.FormatDate(calendar.MondayOf(day))
			week, ok := weeks[monday]
			if !ok {
				week = make(classsync.WeekData, 7)
				for d := 1; d <= 7; d++ {
					week[strconv.Itoa(d)] = map[string]classsync.Slot{}
				}
				weeks[monday] = week
			}
			base, room := cs.BaseRoom()
			slot := classsync.Slot{
				CourseName:  course,
				IsTemporary: true,
				Base:        base,
				Room:        room,
				Address:     address(base),
				IsSynced:    false,
			}
			row := week[strconv.Itoa(calendar.Weekday(day))]
			for _, p := range calendar.ParseSections(cs.Section) {
				row[strconv.Itoa(p)] = slot
			}
		}
	}
	return weeks
}

func address(base string) string {
	if a, ok := Addresses[base]; ok {
		return a
	}
	return DefaultAddress
}
