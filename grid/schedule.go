package grid

import (
	"context"
	"sort"
	"sync"
)

// =============================================================================
// SCHEDULE STORE - Published production plus sparse draft overlay
// =============================================================================

// Schedule holds the schedule of one department for one year.
//
// A key present in the draft always wins over production, even when its
// value is "" or equal to the production value ("touched"). Only publish
// moves draft values into production.
//
// All in-memory operations are synchronous and never fail. Only Load,
// SaveDraft, Publish and Discard talk to the persistence collaborator,
// and a failure there leaves the in-memory state exactly as it was.
type Schedule struct {
	store Persistence // nil keeps everything in memory
	dept  string
	year  int

	mu         sync.Mutex
	production Entries
	draft      Entries
	rev        uint64 // bumped by every draft mutation
	savedRev   uint64
	publishing bool
}

// NewSchedule creates an empty schedule bound to (dept, year) documents.
func NewSchedule(store Persistence, dept string, year int) *Schedule {
	return &Schedule{
		store:      store,
		dept:       dept,
		year:       year,
		production: make(Entries),
		draft:      make(Entries),
	}
}

func (s *Schedule) Department() string { return s.dept }
func (s *Schedule) Year() int          { return s.year }

// Load replaces in-memory state with the persisted production and draft
// documents. Missing documents load as empty maps.
func (s *Schedule) Load(ctx context.Context) error {
	prod, draft := make(Entries), make(Entries)
	if s.store != nil {
		if _, err := getJSON(ctx, s.store, ScheduleKey(s.dept, s.year), &prod); err != nil {
			return err
		}
		if _, err := getJSON(ctx, s.store, DraftKey(s.dept, s.year), &draft); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.publishing {
		return ErrPublishInFlight
	}
	s.production = prod
	s.draft = draft
	s.rev++
	s.savedRev = s.rev
	return nil
}

// =============================================================================
// READS
// =============================================================================

// Status returns the draft value if the key is touched, else production,
// else "".
func (s *Schedule) Status(emp EmployeeID, date string) Code {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effectiveLocked(MakeKey(emp, date))
}

func (s *Schedule) effectiveLocked(k Key) Code {
	if v, ok := s.draft[k]; ok {
		return v
	}
	return s.production[k]
}

// Draft returns a deep copy of the draft overlay.
func (s *Schedule) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Production returns a deep copy of the published schedule.
func (s *Schedule) Production() Entries {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.production.Clone()
}

// Entries returns the effective schedule: production overlaid by draft.
func (s *Schedule) Entries() Entries {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.production.Clone()
	for k, v := range s.draft {
		out[k] = v
	}
	return out
}

// HasUnsavedChanges reports whether the draft changed since the last
// load, save, publish or discard.
func (s *Schedule) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rev != s.savedRev
}

// HasDraft reports whether any key is touched.
func (s *Schedule) HasDraft() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.draft) > 0
}

// ChangedCount returns how many draft keys differ from production.
// This is the count Publish would report right now.
func (s *Schedule) ChangedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, v := range s.draft {
		if s.production[k] != v {
			n++
		}
	}
	return n
}

// Publishing reports whether a publish call is in flight.
func (s *Schedule) Publishing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.publishing
}

// =============================================================================
// DRAFT MUTATIONS
// =============================================================================

// SetDraftCell upserts one draft key and returns the effective change.
func (s *Schedule) SetDraftCell(emp EmployeeID, date string, code Code) Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := MakeKey(emp, date)
	c := Change{Key: k, Old: s.effectiveLocked(k), New: code}
	s.draft[k] = code
	s.rev++
	return c
}

// BatchSetDraftCells upserts every update in one step. Changes come back
// in key order.
func (s *Schedule) BatchSetDraftCells(updates Entries) []Change {
	if len(updates) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	changes := make([]Change, 0, len(updates))
	for _, k := range updates.Keys() {
		changes = append(changes, Change{Key: k, Old: s.effectiveLocked(k), New: updates[k]})
		s.draft[k] = updates[k]
	}
	s.rev++
	return changes
}

// ReplaceDraft swaps the whole draft for d (not merged) and marks the
// schedule dirty. Returns every effective change, which undo uses to keep
// hour totals in step.
func (s *Schedule) ReplaceDraft(d Draft) []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := d.Clone()

	touched := make(map[Key]struct{}, len(next)+len(s.draft))
	for k := range s.draft {
		touched[k] = struct{}{}
	}
	for k := range next {
		touched[k] = struct{}{}
	}

	var changes []Change
	for k := range touched {
		old := s.effectiveLocked(k)
		nv, ok := next[k]
		if !ok {
			nv = s.production[k]
		}
		if old != nv {
			changes = append(changes, Change{Key: k, Old: old, New: nv})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Key < changes[j].Key })

	s.draft = next
	s.rev++
	return changes
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// SaveDraft persists the draft overlay without publishing it. It fails
// with ErrPublishInFlight while a publish is running.
func (s *Schedule) SaveDraft(ctx context.Context) error {
	s.mu.Lock()
	if s.publishing {
		s.mu.Unlock()
		return ErrPublishInFlight
	}
	snapshot := s.draft.Clone()
	rev := s.rev
	s.mu.Unlock()

	if s.store != nil {
		if err := putJSON(ctx, s.store, DraftKey(s.dept, s.year), snapshot); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rev == rev {
		s.savedRev = rev
	}
	return nil
}

// Publish copies every draft value that differs from production into
// production and clears the published draft keys. It returns how many
// entries actually changed; touched-but-equal keys do not count.
//
// The draft is copied at call start. Edits made while the persistence call
// is in flight are not part of this publish and stay pending. A second
// Publish during that window fails with ErrPublishInFlight.
func (s *Schedule) Publish(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.publishing {
		s.mu.Unlock()
		return 0, ErrPublishInFlight
	}
	snapshot := s.draft.Clone()
	next := s.production.Clone()
	changed := 0
	for k, v := range snapshot {
		if next[k] == v {
			continue
		}
		changed++
		if v == "" {
			delete(next, k)
		} else {
			next[k] = v
		}
	}
	rev := s.rev
	s.publishing = true
	s.mu.Unlock()

	var err error
	if s.store != nil {
		err = withTx(ctx, s.store, func(p Persistence) error {
			if err := putJSON(ctx, p, ScheduleKey(s.dept, s.year), next); err != nil {
				return err
			}
			return remove(ctx, p, DraftKey(s.dept, s.year))
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishing = false
	if err != nil {
		return 0, err
	}

	s.production = next
	for k, v := range snapshot {
		if cur, ok := s.draft[k]; ok && cur == v {
			delete(s.draft, k)
		}
	}
	if s.rev == rev {
		s.savedRev = s.rev
	}
	return changed, nil
}

// Discard drops the draft entirely. Production is never touched.
func (s *Schedule) Discard(ctx context.Context) error {
	s.mu.Lock()
	busy := s.publishing
	s.mu.Unlock()
	if busy {
		return ErrPublishInFlight
	}

	if s.store != nil {
		if err := remove(ctx, s.store, DraftKey(s.dept, s.year)); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = make(Entries)
	s.rev++
	s.savedRev = s.rev
	return nil
}
