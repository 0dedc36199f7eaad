package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jaekwang-park/todo-lite/internal/model"
)

// TodoStore keeps todos in memory in creation order. Ids start at 1 and are
// never reused, even after a delete. All methods are safe for concurrent use.
type TodoStore struct {
	mu     sync.RWMutex
	items  []model.Todo
	nextID int
	now    func() time.Time
}

type Option func(*TodoStore)

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *TodoStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewTodoStore(opts ...Option) *TodoStore {
	s := &TodoStore{
		items:  []model.Todo{},
		nextID: 1,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TodoStore) List(ctx context.Context) ([]model.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := make([]model.Todo, len(s.items))
	copy(todos, s.items)
	return todos, nil
}

func (s *TodoStore) GetByID(ctx context.Context, id int) (model.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Todo{}, fmt.Errorf("get todo %d: %w", id, ErrNotFound)
	}
	return s.items[i], nil
}

func (s *TodoStore) Create(ctx context.Context, title, description string) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo := model.Todo{
		ID:          s.nextID,
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   s.now().UTC(),
	}
	s.items = append(s.items, todo)
	s.nextID++

	return todo, nil
}

func (s *TodoStore) Update(ctx context.Context, id int, patch model.TodoPatch) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.Todo{}, fmt.Errorf("update todo %d: %w", id, ErrNotFound)
	}
	patch.Apply(&s.items[i])
	return s.items[i], nil
}

func (s *TodoStore) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]model.Todo, 0, len(s.items))
	for _, t := range s.items {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	removed := len(kept) != len(s.items)
	s.items = kept

	return removed, nil
}

// Len returns the number of stored todos.
func (s *TodoStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// NextID returns the id the next Create will assign.
func (s *TodoStore) NextID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nextID
}

// indexOf does a linear scan; callers must hold mu.
func (s *TodoStore) indexOf(id int) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// ensure compile-time interface compliance
var _ TodoRepository = (*TodoStore)(nil)
