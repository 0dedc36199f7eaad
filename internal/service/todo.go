package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jaekwang-park/todo-lite/internal/model"
	"github.com/jaekwang-park/todo-lite/internal/repository"
)

// CreateTodoInput carries the decoded create payload. A nil Title means the
// payload had no title key.
type CreateTodoInput struct {
	Title       *string
	Description *string
}

// CreatedRecorder is notified after every successful create.
type CreatedRecorder interface {
	TodoCreated()
}

type TodoService struct {
	repo    repository.TodoRepository
	created CreatedRecorder
}

type Option func(*TodoService)

func WithCreatedRecorder(r CreatedRecorder) Option {
	return func(s *TodoService) {
		s.created = r
	}
}

func NewTodoService(repo repository.TodoRepository, opts ...Option) *TodoService {
	s := &TodoService{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TodoService) List(ctx context.Context) ([]model.Todo, error) {
	todos, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	return todos, nil
}

func (s *TodoService) GetByID(ctx context.Context, id int) (model.Todo, error) {
	todo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Todo{}, ErrNotFound
		}
		return model.Todo{}, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

// Create requires the title key to be present; an empty title is accepted.
func (s *TodoService) Create(ctx context.Context, input CreateTodoInput) (model.Todo, error) {
	if input.Title == nil {
		return model.Todo{}, fmt.Errorf("%w: missing title", ErrInvalidInput)
	}

	var description string
	if input.Description != nil {
		description = *input.Description
	}

	created, err := s.repo.Create(ctx, *input.Title, description)
	if err != nil {
		return model.Todo{}, fmt.Errorf("failed to create todo: %w", err)
	}

	if s.created != nil {
		s.created.TodoCreated()
	}
	return created, nil
}

// Update looks the todo up before inspecting the payload, so an unknown id
// reports ErrNotFound even when patch is nil. A nil patch means no payload.
func (s *TodoService) Update(ctx context.Context, id int, patch *model.TodoPatch) (model.Todo, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return model.Todo{}, err
	}

	if patch == nil {
		return model.Todo{}, fmt.Errorf("%w: invalid data", ErrInvalidInput)
	}

	updated, err := s.repo.Update(ctx, id, *patch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Todo{}, ErrNotFound
		}
		return model.Todo{}, fmt.Errorf("failed to update todo: %w", err)
	}
	return updated, nil
}

// Delete succeeds whether or not the id existed. The returned bool tells
// the caller if anything was removed.
func (s *TodoService) Delete(ctx context.Context, id int) (bool, error) {
	removed, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete todo: %w", err)
	}
	return removed, nil
}
