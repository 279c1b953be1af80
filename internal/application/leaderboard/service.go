// Package leaderboard ranks students by course load across every date in the catalogue.
package leaderboard

import (
	"context"
	"sort"

	"github.com/classsync/internal/domain"
	"github.com/classsync/internal/pkg/calendar"
)

// TopN is the length of every ranking.
const TopN = 30

type CatalogSource interface {
	Catalog(ctx context.Context) (*domain.Catalog, error)
}

type Service interface {
	Leaderboard(ctx context.Context) (*domain.Leaderboard, error)
}

type service struct {
	catalog CatalogSource
}

func NewService(catalog CatalogSource) Service {
	return &service{catalog: catalog}
}

func (s *service) Leaderboard(ctx context.Context) (*domain.Leaderboard, error) {
	cat, err := s.catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return Build(cat), nil
}

// Build computes the three rankings. Ties keep roster order, which is sorted by
// identity so the output is deterministic.
func Build(cat *domain.Catalog) *domain.Leaderboard {
	// course -> date -> periods
	periods := make(map[string]map[string][]int, len(cat.Classes))
	dateSet := map[string]struct{}{}
	for course, sessions := range cat.Classes {
		byDate := map[string][]int{}
		for _, cs := range sessions {
			d := dateKey(cs.Time)
			dateSet[d] = struct{}{}
			byDate[d] = append(byDate[d], calendar.ParseSections(cs.Section)...)
		}
		periods[course] = byDate
	}

	ids := make([]string, 0, len(cat.Students))
	for id := range cat.Students {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stats := make([]domain.LoadStats, 0, len(ids))
	for _, id := range ids {
		st := cat.Students[id]
		ls := domain.LoadStats{Name: st.Name}
		for d := range dateSet {
			var morning, afternoon bool
			for _, course := range st.Classes {
				for _, p := range periods[course][d] {
					ls.TotalPeriods++
					switch {
					case p >= 1 && p <= 4:
						morning = true
					case p >= 5 && p <= 8:
						afternoon = true
					}
				}
			}
			if !morning {
				ls.MorningOffCount++
			}
			if !afternoon {
				ls.AfternoonOffCount++
			}
		}
		stats = append(stats, ls)
	}

	return &domain.Leaderboard{
		MostBusy:       top(stats, func(s domain.LoadStats) int { return s.TotalPeriods }),
		MorningKings:   top(stats, func(s domain.LoadStats) int { return s.MorningOffCount }),
		AfternoonKings: top(stats, func(s domain.LoadStats) int { return s.AfternoonOffCount }),
	}
}

func top(stats []domain.LoadStats, key func(domain.LoadStats) int) []domain.LoadStats {
	out := make([]domain.LoadStats, len(stats))
	copy(out, stats)
	sort.SliceStable(out, func(i, j int) bool { return key(out[i]) > key(out[j]) })
	if len(out) > TopN {
		out = out[:TopN]
	}
	return out
}

// dateKey normalises "YYYY-MM-DD" and "YYYY-MM-DD hh:mm:ss" to the same day.
func dateKey(raw string) string {
	t, err := calendar.ParseDate(raw)
	if err != nil {
		return raw
	}
	return calendar.FormatDate(t)
}
