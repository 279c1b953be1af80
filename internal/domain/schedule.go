package domain

// ScheduleEntry is a single occupied period in a weekly grid.
type ScheduleEntry struct {
	CourseName string `json:"courseName"`
	Base       string `json:"base"`
	Room       string `json:"room"`
}

// Week is a Monday-to-Friday view of one student's schedule.
// Grid is keyed by date (YYYY-MM-DD) and then by period number.
type Week struct {
	Offset int                              `json:"offset"`
	Days   []string                         `json:"days"`
	Grid   map[string]map[int]ScheduleEntry `json:"grid"`
}

// LoadStats is one student's course-load statistics across every catalogue date.
type LoadStats struct {
	Name              string `json:"name"`
	TotalPeriods      int    `json:"totalPeriods"`
	MorningOffCount   int    `json:"morningOffCount"`
	AfternoonOffCount int    `json:"afternoonOffCount"`
}

// Leaderboard holds the three rankings shown on the leaderboard page.
type Leaderboard struct {
	MostBusy       []LoadStats `json:"mostBusy"`
	MorningKings   []LoadStats `json:"morningKings"`
	AfternoonKings []LoadStats `json:"afternoonKings"`
}

// SyncWeekResult reports whether one week was accepted by ClassSync.
type SyncWeekResult struct {
	Week    string `json:"week"`
	Success bool   `json:"success"`
}

// SyncResult summarises one push of a student's schedule to ClassSync.
type SyncResult struct {
	RunID       string           `json:"runId"`
	Identity    string           `json:"identity"`
	SyncedWeeks int              `json:"syncedWeeks"`
	Details     []SyncWeekResult `json:"details"`
}
