package grouping

import (
	"slices"
	"strings"
	"sync"
	"time"
)

// ExpansionState records which dates and patient buckets are open. Keys are
// a date ("2026-10-19") or a patient key ("2026-10-19-42"). It is safe for
// concurrent use; the zero value is ready to use.
type ExpansionState struct {
	mu       sync.Mutex
	dates    map[string]struct{}
	patients map[string]struct{}
}

// NewExpansionState returns an empty state.
func NewExpansionState() *ExpansionState {
	return &ExpansionState{
		dates:    map[string]struct{}{},
		patients: map[string]struct{}{},
	}
}

func (s *ExpansionState) ensure() {
	if s.dates == nil {
		s.dates = map[string]struct{}{}
	}
	if s.patients == nil {
		s.patients = map[string]struct{}{}
	}
}

// Empty reports whether nothing is expanded.
func (s *ExpansionState) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dates) == 0 && len(s.patients) == 0
}

// seed expands the given date and patient only when nothing is expanded yet.
func (s *ExpansionState) seed(date, patientKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	if len(s.dates) > 0 || len(s.patients) > 0 {
		return
	}
	s.dates[date] = struct{}{}
	if patientKey != "" {
		s.patients[patientKey] = struct{}{}
	}
}

// DateExpanded reports whether date is open.
func (s *ExpansionState) DateExpanded(date string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dates[date]
	return ok
}

// PatientExpanded reports whether the patient bucket is open.
func (s *ExpansionState) PatientExpanded(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.patients[key]
	return ok
}

// ExpandDate opens a date.
func (s *ExpansionState) ExpandDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	s.dates[date] = struct{}{}
}

// CollapseDate closes a date and every patient bucket under it.
func (s *ExpansionState) CollapseDate(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collapseDate(date)
}

func (s *ExpansionState) collapseDate(date string) {
	delete(s.dates, date)
	prefix := date + "-"
	for key := range s.patients {
		if strings.HasPrefix(key, prefix) {
			delete(s.patients, key)
		}
	}
}

// ExpandPatient opens a patient bucket.
func (s *ExpansionState) ExpandPatient(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	s.patients[key] = struct{}{}
}

// CollapsePatient closes a patient bucket.
func (s *ExpansionState) CollapsePatient(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.patients, key)
}

// Toggle flips a date or patient key and reports whether it is now open.
func (s *ExpansionState) Toggle(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure()
	if IsDateKey(key) {
		if _, open := s.dates[key]; open {
			s.collapseDate(key)
			return false
		}
		s.dates[key] = struct{}{}
		return true
	}
	if _, open := s.patients[key]; open {
		delete(s.patients, key)
		return false
	}
	s.patients[key] = struct{}{}
	return true
}

// Dates returns the expanded dates, most recent first.
func (s *ExpansionState) Dates() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.dates))
	for d := range s.dates {
		out = append(out, d)
	}
	slices.Sort(out)
	slices.Reverse(out)
	return out
}

// Patients returns the expanded patient keys in sorted order.
func (s *ExpansionState) Patients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.patients))
	for k := range s.patients {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Reset forgets every toggle so the next rebuild auto-expands again.
func (s *ExpansionState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.dates)
	clear(s.patients)
}

// IsDateKey reports whether key is a bare date rather than a patient key.
func IsDateKey(key string) bool {
	if len(key) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, key)
	return err == nil
}
