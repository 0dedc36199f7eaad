package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jaekwang-park/todo-lite/internal/middleware"
	"github.com/jaekwang-park/todo-lite/internal/model"
	"github.com/jaekwang-park/todo-lite/internal/service"
)

const (
	msgTodoNotFound     = "Todo not found"
	msgMissingTitle     = "Missing title"
	msgInvalidData      = "Invalid data"
	msgNotFound         = "Not found"
	msgMethodNotAllowed = "Method not allowed"
	msgInternal         = "Internal server error"
	msgTodoDeleted      = "Todo deleted"

	maxBodyBytes = 1 << 20
)

type TodoHandler struct {
	svc    *service.TodoService
	logger *slog.Logger
}

func NewTodoHandler(svc *service.TodoService, logger *slog.Logger) *TodoHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TodoHandler{svc: svc, logger: logger}
}

// ServeHTTP routes /todos and /todos/{id}
func (h *TodoHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// /todos
	if r.URL.Path == "/todos" {
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r)
		case http.MethodPost:
			h.handleCreate(w, r)
		default:
			w.Header().Set("Allow", "GET, POST")
			WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		}
		return
	}

	// /todos/{id}; anything that is not a plain integer does not match the route
	id, ok := parseTodoID(strings.TrimPrefix(r.URL.Path, "/todos/"))
	if !ok {
		WriteError(w, http.StatusNotFound, msgNotFound)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGetByID(w, r, id)
	case http.MethodPut:
		h.handleUpdate(w, r, id)
	case http.MethodDelete:
		h.handleDelete(w, r, id)
	default:
		w.Header().Set("Allow", "GET, PUT, DELETE")
		WriteError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
	}
}

func (h *TodoHandler) handleList(w http.ResponseWriter, r *http.Request) {
	todos, err := h.svc.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "")
		return
	}

	WriteJSON(w, http.StatusOK, todos)
}

func (h *TodoHandler) handleGetByID(w http.ResponseWriter, r *http.Request, id int) {
	todo, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err, "", "todo_id", id)
		return
	}

	WriteJSON(w, http.StatusOK, todo)
}

// handleCreate requires a "title" key. A null title counts as absent, so
// {"title":null} is rejected like a body without the key.
func (h *TodoHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input service.CreateTodoInput

	if fields, ok := decodeObject(w, r); ok {
		title, err := decodeField[string](fields["title"])
		if err != nil {
			h.handleServiceError(w, r, service.ErrInvalidInput, msgMissingTitle, "field", "title", "decode_error", err)
			return
		}
		description, err := decodeField[string](fields["description"])
		if err != nil {
			h.handleServiceError(w, r, service.ErrInvalidInput, msgInvalidData, "field", "description", "decode_error", err)
			return
		}
		input = service.CreateTodoInput{Title: title, Description: description}
	}

	todo, err := h.svc.Create(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err, msgMissingTitle)
		return
	}

	h.log(r).Info("todo created", "todo_id", todo.ID)
	WriteJSON(w, http.StatusCreated, todo)
}

func (h *TodoHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id int) {
	// A nil patch tells the service there was no usable payload. The
	// service still reports an unknown id before rejecting the payload.
	var patch *model.TodoPatch
	if fields, ok := decodeObject(w, r); ok {
		patch = decodePatch(fields)
	}

	todo, err := h.svc.Update(r.Context(), id, patch)
	if err != nil {
		h.handleServiceError(w, r, err, msgInvalidData, "todo_id", id)
		return
	}

	h.log(r).Info("todo updated", "todo_id", todo.ID, "noop", patch.IsEmpty())
	WriteJSON(w, http.StatusOK, todo)
}

func (h *TodoHandler) handleDelete(w http.ResponseWriter, r *http.Request, id int) {
	removed, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err, "", "todo_id", id)
		return
	}

	h.log(r).Info("todo deleted", "todo_id", id, "removed", removed)
	WriteJSON(w, http.StatusOK, MessageResponse{Message: msgTodoDeleted})
}

func (h *TodoHandler) log(r *http.Request) *slog.Logger {
	return middleware.LoggerFrom(r.Context(), h.logger)
}

// handleServiceError renders err with the fixed message for its kind.
// invalidMsg is the operation-specific text for ErrInvalidInput.
func (h *TodoHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, invalidMsg string, attrs ...any) {
	log := h.log(r).With(attrs...)

	switch {
	case errors.Is(err, service.ErrNotFound):
		log.Warn("request failed", "error", err)
		WriteError(w, http.StatusNotFound, msgTodoNotFound)
	case errors.Is(err, service.ErrInvalidInput):
		log.Warn("request failed", "error", err)
		WriteError(w, http.StatusBadRequest, invalidMsg)
	default:
		log.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, msgInternal)
	}
}

// parseTodoID accepts only unsigned decimal digits.
func parseTodoID(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return id, true
}

// decodeObject reads the request body as a JSON object. It reports false
// when the body is missing, malformed, not an object, null or empty; all of
// those count as "no payload".
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]json.RawMessage, bool) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, false
	}

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&fields); err != nil {
		return nil, false
	}
	if len(fields) == 0 {
		return nil, false
	}
	return fields, true
}

// decodeField returns nil for an absent or null value.
func decodeField[T any](raw json.RawMessage) (*T, error) {
	if len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// decodePatch returns nil if any known field has the wrong type. Unknown
// keys are ignored.
func decodePatch(fields map[string]json.RawMessage) *model.TodoPatch {
	title, err := decodeField[string](fields["title"])
	if err != nil {
		return nil
	}
	description, err := decodeField[string](fields["description"])
	if err != nil {
		return nil
	}
	completed, err := decodeField[bool](fields["completed"])
	if err != nil {
		return nil
	}
	return &model.TodoPatch{Title: title, Description: description, Completed: completed}
}
