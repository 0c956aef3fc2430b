// Package store holds the in-memory expense records and budget limits for
// one session.
package store

import (
	"sync"

	"expensetracker/internal/core"
)

type Store struct {
	mu      sync.Mutex
	items   []core.Expense
	budgets map[core.Category]core.Money
	// highest id ever issued; ids are not reused after deletion
	lastID   int64
	revision uint64
}

func New() *Store {
	return &Store{budgets: make(map[core.Category]core.Money)}
}

// Add validates the input and appends a new record with the next id.
func (s *Store) Add(in core.ExpenseInput) (core.Expense, error) {
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// max(existing)+1, raised past the highest id ever issued so a deleted
	// maximum is never reissued.
	id := s.maxIDLocked() + 1
	if id <= s.lastID {
		id = s.lastID + 1
	}
	e := core.Expense{ID: id, Tags: []string{}}
	in.Apply(&e)
	s.items = append(s.items, e)
	s.lastID = id
	s.revision++
	return e.Clone(), nil
}

// Update replaces every field of the record except its id.
func (s *Store) Update(id int64, in core.ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return core.Expense{}, &core.NotFoundError{ID: id}
	}
	if err := in.Validate(); err != nil {
		return core.Expense{}, err
	}
	in.Apply(&s.items[idx])
	s.revision++
	return s.items[idx].Clone(), nil
}

// Remove deletes the record with the given id. Unknown ids are a no-op.
func (s *Store) Remove(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.revision++
	return true
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return core.Expense{}, &core.NotFoundError{ID: id}
	}
	return s.items[idx].Clone(), nil
}

// List returns all records in insertion order.
func (s *Store) List() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Expense, len(s.items))
	for i, e := range s.items {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the number of stored expenses.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// SetBudget sets or overwrites the monthly limit for a category.
func (s *Store) SetBudget(c core.Category, limit core.Money) error {
	if !c.Valid() {
		return &core.ValidationError{Field: "category", Err: core.ErrInvalidCategory}
	}
	if limit.Cents <= 0 {
		return &core.ValidationError{Field: "limit", Err: core.ErrInvalidLimit}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[c] = limit
	s.revision++
	return nil
}

// Budget returns the limit for a category, if one is set.
func (s *Store) Budget(c core.Category) (core.Money, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	limit, ok := s.budgets[c]
	return limit, ok
}

// Budgets returns a copy of every limit.
func (s *Store) Budgets() map[core.Category]core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[core.Category]core.Money, len(s.budgets))
	for c, l := range s.budgets {
		out[c] = l
	}
	return out
}

// Revision changes after every successful mutation.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

func (s *Store) indexLocked(id int64) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) maxIDLocked() int64 {
	var highest int64
	for _, e := range s.items {
		if e.ID > highest {
			highest = e.ID
		}
	}
	return highest
}
