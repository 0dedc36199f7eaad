package repository

import (
	"context"
	"errors"

	"github.com/jaekwang-park/todo-lite/internal/model"
)

// ErrNotFound is returned when no todo has the requested id.
var ErrNotFound = errors.New("todo not found")

type TodoRepository interface {
	List(ctx context.Context) ([]model.Todo, error)
	GetByID(ctx context.Context, id int) (model.Todo, error)
	Create(ctx context.Context, title, description string) (model.Todo, error)
	Update(ctx context.Context, id int, patch model.TodoPatch) (model.Todo, error)
	// Delete reports whether a todo was removed. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id int) (bool, error)
}
