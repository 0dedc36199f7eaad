package http

import (
	"log/slog"
	"net/http"

	"github.com/jaekwang-park/todo-lite/internal/http/handler"
	"github.com/jaekwang-park/todo-lite/internal/service"
)

// NewRouter registers the todo, health and (when metricsHandler is non-nil)
// metrics routes.
func NewRouter(todoSvc *service.TodoService, logger *slog.Logger, metricsHandler http.Handler) http.Handler {
	mux := http.NewServeMux()

	health := handler.NewHealthHandler()
	mux.Handle("/health", health)

	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	// Todo CRUD API
	todoHandler := handler.NewTodoHandler(todoSvc, logger)
	mux.Handle("/todos", todoHandler)
	mux.Handle("/todos/", todoHandler)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, http.StatusNotFound, "Not found")
	})

	return mux
}
