package domain

import "strings"

// ClassSession is one dated meeting of a course as listed in class.json.
// Section packs the period numbers as digits (5678 means periods 5 to 8).
// Location is "<base>_<room>".
type ClassSession struct {
	Time     string `json:"Time"`
	Section  int    `json:"Section"`
	Location string `json:"Location"`
}

// Student is one roster entry of student.json, keyed by identity.
type Student struct {
	Name    string   `json:"name"`
	Classes []string `json:"class"`
}

// Catalog is the read-only course catalogue plus the student roster.
type Catalog struct {
	Classes  map[string][]ClassSession `json:"classes"`
	Students map[string]Student        `json:"students"`
}

// StudentByIdentity looks up a roster entry.
func (c *Catalog) StudentByIdentity(identity string) (Student, bool) {
	s, ok := c.Students[identity]
	return s, ok
}

// SessionsFor returns the sessions of every course the student attends.
func (c *Catalog) SessionsFor(s Student) map[string][]ClassSession {
	out := make(map[string][]ClassSession, len(s.Classes))
	for _, name := range s.Classes {
		out[name] = c.Classes[name]
	}
	return out
}

// BaseRoom splits Location into its base and room parts. Room is empty when
// Location has no separator.
func (s ClassSession) BaseRoom() (base, room string) {
	base, room, _ = strings.Cut(s.Location, "_")
	return base, room
}
