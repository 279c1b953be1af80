package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/classsync/internal/domain"
	"github.com/classsync/internal/pkg/calendar"
)

// CatalogSource yields the current course catalogue.
type CatalogSource interface {
	Catalog(ctx context.Context) (*domain.Catalog, error)
}

type Service interface {
	Student(ctx context.Context, identity string) (domain.Student, error)
	Week(ctx context.Context, identity string, offset int) (*domain.Week, error)
}

type service struct {
	catalog CatalogSource
	now     func() time.Time
}

// NewService returns a schedule service. now defaults to time.Now.
func NewService(catalog CatalogSource, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{catalog: catalog, now: now}
}

func (s *service) Student(ctx context.Context, identity string) (domain.Student, error) {
	cat, err := s.catalog.Catalog(ctx)
	if err != nil {
		return domain.Student{}, err
	}
	st, ok := cat.StudentByIdentity(identity)
	if !ok {
		return domain.Student{}, fmt.Errorf("student %s: %w", identity, domain.ErrNotFound)
	}
	return st, nil
}

// Week builds the Monday-to-Friday grid offset weeks from the current one.
func (s *service) Week(ctx context.Context, identity string, offset int) (*domain.Week, error) {
	cat, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	st, ok := cat.StudentByIdentity(identity)
	if !ok {
		return nil, fmt.Errorf("student %s: %w", identity, domain.ErrNotFound)
	}

	days := calendar.WeekDays(s.now(), offset)
	grid := make(map[string]map[int]domain.ScheduleEntry, len(days))
	for _, d := range days {
		grid[d] = map[int]domain.ScheduleEntry{}
	}

	for course, sessions := range cat.SessionsFor(st) {
		for _, cs := range sessions {
			day, err := calendar.ParseDate(cs.Time)
			if err != nil {
				continue
			}
			row, ok := grid[calendar.FormatDate(day)]
			if !ok {
				continue
			}
			base, room := cs.BaseRoom()
			for _, p := range calendar.ParseSections(cs.Section) {
				row[p] = domain.ScheduleEntry{CourseName: course, Base: base, Room: room}
			}
		}
	}
	return &domain.Week{Offset: offset, Days: days, Grid: grid}, nil
}
