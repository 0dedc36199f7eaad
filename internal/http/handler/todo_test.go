package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jaekwang-park/todo-lite/internal/http/handler"
	"github.com/jaekwang-park/todo-lite/internal/middleware"
	"github.com/jaekwang-park/todo-lite/internal/model"
	"github.com/jaekwang-park/todo-lite/internal/repository"
	"github.com/jaekwang-park/todo-lite/internal/service"
)

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// brokenRepo fails every call with a non-domain error.
type brokenRepo struct{}

func (brokenRepo) List(ctx context.Context) ([]model.Todo, error) {
	return nil, fmt.Errorf("boom")
}
func (brokenRepo) GetByID(ctx context.Context, id int) (model.Todo, error) {
	return model.Todo{}, fmt.Errorf("boom")
}
func (brokenRepo) Create(ctx context.Context, title, description string) (model.Todo, error) {
	return model.Todo{}, fmt.Errorf("boom")
}
func (brokenRepo) Update(ctx context.Context, id int, patch model.TodoPatch) (model.Todo, error) {
	return model.Todo{}, fmt.Errorf("boom")
}
func (brokenRepo) Delete(ctx context.Context, id int) (bool, error) {
	return false, fmt.Errorf("boom")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTodoHandler(t *testing.T) *handler.TodoHandler {
	t.Helper()
	store := repository.NewTodoStore(repository.WithClock(func() time.Time { return now }))
	return handler.NewTodoHandler(service.NewTodoService(store), discardLogger())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeTodo(t *testing.T, w *httptest.ResponseRecorder) model.Todo {
	t.Helper()
	var todo model.Todo
	if err := json.NewDecoder(w.Body).Decode(&todo); err != nil {
		t.Fatalf("failed to decode todo: %v (body: %s)", err, w.Body.String())
	}
	return todo
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	return m
}

func TestTodoHandler_Scenario(t *testing.T) {
	h := newTodoHandler(t)

	w := do(t, h, http.MethodPost, "/todos", `{"title":"Buy milk"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("POST: expected 201, got %d (body: %s)", w.Code, w.Body.String())
	}
	created := decodeTodo(t, w)
	want := model.Todo{ID: 1, Title: "Buy milk", Description: "", Completed: false, CreatedAt: now}
	if diff := cmp.Diff(want, created); diff != "" {
		t.Fatalf("POST body mismatch (-want +got):\n%s", diff)
	}

	w = do(t, h, http.MethodGet, "/todos/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET: expected 200, got %d", w.Code)
	}
	if diff := cmp.Diff(created, decodeTodo(t, w)); diff != "" {
		t.Fatalf("GET body mismatch (-want +got):\n%s", diff)
	}

	w = do(t, h, http.MethodPut, "/todos/1", `{"completed":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT: expected 200, got %d (body: %s)", w.Code, w.Body.String())
	}
	want.Completed = true
	if diff := cmp.Diff(want, decodeTodo(t, w)); diff != "" {
		t.Fatalf("PUT body mismatch (-want +got):\n%s", diff)
	}

	w = do(t, h, http.MethodDelete, "/todos/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("DELETE: expected 200, got %d", w.Code)
	}
	if got := decodeMap(t, w); got["message"] != "Todo deleted" {
		t.Fatalf("DELETE: expected message=Todo deleted, got %v", got)
	}

	w = do(t, h, http.MethodGet, "/todos/1", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET after delete: expected 404, got %d", w.Code)
	}
	if got := decodeMap(t, w); got["error"] != "Todo not found" {
		t.Fatalf("expected error=Todo not found, got %v", got)
	}
}

func TestTodoHandler_CreateJSONShape(t *testing.T) {
	h := newTodoHandler(t)

	w := do(t, h, http.MethodPost, "/todos", `{"title":"A","description":"B"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	got := decodeMap(t, w)
	for _, key := range []string{"id", "title", "description", "completed", "created_at"} {
		if _, ok := got[key]; !ok {
			t.Errorf("expected key %q in %v", key, got)
		}
	}
	if len(got) != 5 {
		t.Errorf("expected exactly 5 keys, got %v", got)
	}
	if got["created_at"] != "2025-01-01T00:00:00Z" {
		t.Errorf("expected UTC ISO-8601 created_at, got %v", got["created_at"])
	}
	if got["id"] != float64(1) {
		t.Errorf("expected numeric id 1, got %v", got["id"])
	}
}

func TestTodoHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantTitle  string
		wantDesc   string
		wantError  string
	}{
		{name: "title only", body: `{"title":"Buy milk"}`, wantStatus: http.StatusCreated, wantTitle: "Buy milk"},
		{name: "title and description", body: `{"title":"A","description":"B"}`, wantStatus: http.StatusCreated, wantTitle: "A", wantDesc: "B"},
		{name: "empty title accepted", body: `{"title":""}`, wantStatus: http.StatusCreated, wantTitle: ""},
		{name: "unknown keys ignored", body: `{"title":"A","completed":true,"id":99}`, wantStatus: http.StatusCreated, wantTitle: "A"},
		{name: "no body", body: "", wantStatus: http.StatusBadRequest, wantError: "Missing title"},
		{name: "empty object", body: `{}`, wantStatus: http.StatusBadRequest, wantError: "Missing title"},
		{name: "null", body: `null`, wantStatus: http.StatusBadRequest, wantError: "Missing title"},
		{name: "missing title key", body: `{"description":"B"}`, wantStatus: http.StatusBadRequest, wantError: "Missing title"},
		{name: "null title", body: `{"title":null}`, wantStatus: http.StatusBadRequest, wantError: "Missing title"},
		{name: "non-string title", body: `{"title":5}`, wantStatus: http.StatusBadRequest, wantError: "Missing title"},
		{name: "array payload", body: `["title"]`, wantStatus: http.StatusBadRequest, wantError: "Missing title"},
		{name: "invalid json", body: `{invalid`, wantStatus: http.StatusBadRequest, wantError: "Missing title"},
		{name: "non-string description", body: `{"title":"A","description":1}`, wantStatus: http.StatusBadRequest, wantError: "Invalid data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTodoHandler(t)

			w := do(t, h, http.MethodPost, "/todos", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (body: %s)", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.wantError != "" {
				if got := decodeMap(t, w); got["error"] != tt.wantError {
					t.Errorf("expected error=%q, got %v", tt.wantError, got)
				}
				// a rejected create must not consume an id
				w = do(t, h, http.MethodPost, "/todos", `{"title":"next"}`)
				if id := decodeTodo(t, w).ID; id != 1 {
					t.Errorf("expected next id 1 after failed create, got %d", id)
				}
				return
			}

			todo := decodeTodo(t, w)
			if todo.Title != tt.wantTitle || todo.Description != tt.wantDesc || todo.Completed {
				t.Errorf("unexpected todo %+v", todo)
			}
			if todo.ID != 1 {
				t.Errorf("expected id 1, got %d", todo.ID)
			}
		})
	}
}

func TestTodoHandler_CreateSequentialIDs(t *testing.T) {
	h := newTodoHandler(t)

	for want := 1; want <= 3; want++ {
		w := do(t, h, http.MethodPost, "/todos", `{"title":"t"}`)
		if got := decodeTodo(t, w).ID; got != want {
			t.Errorf("expected id %d, got %d", want, got)
		}
	}

	do(t, h, http.MethodDelete, "/todos/3", "")
	w := do(t, h, http.MethodPost, "/todos", `{"title":"t"}`)
	if got := decodeTodo(t, w).ID; got != 4 {
		t.Errorf("expected id 4 after deleting 3, got %d", got)
	}
}

func TestTodoHandler_List(t *testing.T) {
	h := newTodoHandler(t)

	w := do(t, h, http.MethodGet, "/todos", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Fatalf("expected empty JSON array, got %s", body)
	}

	for _, title := range []string{"a", "b", "c"} {
		do(t, h, http.MethodPost, "/todos", fmt.Sprintf(`{"title":%q}`, title))
	}
	do(t, h, http.MethodPut, "/todos/1", `{"title":"a2"}`)
	do(t, h, http.MethodDelete, "/todos/2", "")

	w = do(t, h, http.MethodGet, "/todos", "")
	var todos []model.Todo
	if err := json.NewDecoder(w.Body).Decode(&todos); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	want := []model.Todo{
		{ID: 1, Title: "a2", CreatedAt: now},
		{ID: 3, Title: "c", CreatedAt: now},
	}
	if diff := cmp.Diff(want, todos); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}
}

func TestTodoHandler_GetByID(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantError  string
	}{
		{"existing", "/todos/1", http.StatusOK, ""},
		{"leading zero", "/todos/01", http.StatusOK, ""},
		{"unknown id", "/todos/2", http.StatusNotFound, "Todo not found"},
		{"zero", "/todos/0", http.StatusNotFound, "Todo not found"},
		{"non-integer", "/todos/abc", http.StatusNotFound, "Not found"},
		{"negative", "/todos/-1", http.StatusNotFound, "Not found"},
		{"trailing slash", "/todos/", http.StatusNotFound, "Not found"},
		{"nested", "/todos/1/extra", http.StatusNotFound, "Not found"},
		{"overflow", "/todos/99999999999999999999999", http.StatusNotFound, "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTodoHandler(t)
			do(t, h, http.MethodPost, "/todos", `{"title":"A"}`)

			w := do(t, h, http.MethodGet, tt.path, "")

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantError != "" {
				if got := decodeMap(t, w); got["error"] != tt.wantError {
					t.Errorf("expected error=%q, got %v", tt.wantError, got)
				}
			}
		})
	}
}

func TestTodoHandler_Update(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		want       model.Todo
		wantError  string
	}{
		{
			name:       "completed only",
			path:       "/todos/1",
			body:       `{"completed":true}`,
			wantStatus: http.StatusOK,
			want:       model.Todo{ID: 1, Title: "A", Description: "B", Completed: true, CreatedAt: now},
		},
		{
			name:       "title and description",
			path:       "/todos/1",
			body:       `{"title":"C","description":"D"}`,
			wantStatus: http.StatusOK,
			want:       model.Todo{ID: 1, Title: "C", Description: "D", CreatedAt: now},
		},
		{
			name:       "explicit empty description",
			path:       "/todos/1",
			body:       `{"description":""}`,
			wantStatus: http.StatusOK,
			want:       model.Todo{ID: 1, Title: "A", Description: "", CreatedAt: now},
		},
		{
			name:       "id and created_at are immutable",
			path:       "/todos/1",
			body:       `{"id":5,"created_at":"2030-01-01T00:00:00Z"}`,
			wantStatus: http.StatusOK,
			want:       model.Todo{ID: 1, Title: "A", Description: "B", CreatedAt: now},
		},
		{
			name:       "no payload",
			path:       "/todos/1",
			body:       "",
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid data",
		},
		{
			name:       "empty object",
			path:       "/todos/1",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid data",
		},
		{
			name:       "invalid json",
			path:       "/todos/1",
			body:       `{bad`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid data",
		},
		{
			name:       "wrong type",
			path:       "/todos/1",
			body:       `{"completed":"yes"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid data",
		},
		{
			name:       "not found",
			path:       "/todos/9",
			body:       `{"title":"X"}`,
			wantStatus: http.StatusNotFound,
			wantError:  "Todo not found",
		},
		{
			name:       "not found without payload",
			path:       "/todos/9",
			body:       "",
			wantStatus: http.StatusNotFound,
			wantError:  "Todo not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTodoHandler(t)
			original := decodeTodo(t, do(t, h, http.MethodPost, "/todos", `{"title":"A","description":"B"}`))

			w := do(t, h, http.MethodPut, tt.path, tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d (body: %s)", tt.wantStatus, w.Code, w.Body.String())
			}

			if tt.wantError != "" {
				if got := decodeMap(t, w); got["error"] != tt.wantError {
					t.Errorf("expected error=%q, got %v", tt.wantError, got)
				}
				stored := decodeTodo(t, do(t, h, http.MethodGet, "/todos/1", ""))
				if diff := cmp.Diff(original, stored); diff != "" {
					t.Errorf("failed update mutated the todo (-want +got):\n%s", diff)
				}
				return
			}

			if diff := cmp.Diff(tt.want, decodeTodo(t, w)); diff != "" {
				t.Errorf("update mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTodoHandler_DeleteUnknownIDSucceeds(t *testing.T) {
	h := newTodoHandler(t)

	w := do(t, h, http.MethodDelete, "/todos/42", "")

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got := decodeMap(t, w); got["message"] != "Todo deleted" {
		t.Errorf("expected message=Todo deleted, got %v", got)
	}
}

func TestTodoHandler_MethodNotAllowed(t *testing.T) {
	tests := []struct {
		method string
		path   string
		allow  string
	}{
		{http.MethodPatch, "/todos", "GET, POST"},
		{http.MethodDelete, "/todos", "GET, POST"},
		{http.MethodPost, "/todos/1", "GET, PUT, DELETE"},
		{http.MethodPatch, "/todos/1", "GET, PUT, DELETE"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			h := newTodoHandler(t)

			w := do(t, h, tt.method, tt.path, "")

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected status 405, got %d", w.Code)
			}
			if got := w.Header().Get("Allow"); got != tt.allow {
				t.Errorf("expected Allow %q, got %q", tt.allow, got)
			}
		})
	}
}

func TestTodoHandler_InternalError(t *testing.T) {
	h := handler.NewTodoHandler(service.NewTodoService(brokenRepo{}), discardLogger())

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/todos", ""},
		{http.MethodGet, "/todos/1", ""},
		{http.MethodPost, "/todos", `{"title":"A"}`},
		{http.MethodPut, "/todos/1", `{"title":"A"}`},
		{http.MethodDelete, "/todos/1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)

			if w.Code != http.StatusInternalServerError {
				t.Fatalf("expected status 500, got %d", w.Code)
			}
			if got := decodeMap(t, w); got["error"] != "Internal server error" {
				t.Errorf("expected error=Internal server error, got %v", got)
			}
		})
	}
}

func TestTodoHandler_LogsLifecycleEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	store := repository.NewTodoStore()
	h := middleware.RequestID(logger)(handler.NewTodoHandler(service.NewTodoService(store), logger))

	do(t, h, http.MethodPost, "/todos", `{"title":"A"}`)
	do(t, h, http.MethodPut, "/todos/1", `{"completed":true}`)
	do(t, h, http.MethodPut, "/todos/1", `{"unknown":1}`)
	do(t, h, http.MethodDelete, "/todos/1", "")
	do(t, h, http.MethodGet, "/todos/1", "")

	var events []map[string]any
	dec := json.NewDecoder(&buf)
	for dec.More() {
		var e map[string]any
		if err := dec.Decode(&e); err != nil {
			t.Fatalf("failed to decode log line: %v", err)
		}
		events = append(events, e)
	}

	tests := []struct {
		msg    string
		method string
		path   string
		extra  map[string]any
	}{
		{"todo created", "POST", "/todos", map[string]any{"todo_id": float64(1)}},
		{"todo updated", "PUT", "/todos/1", map[string]any{"todo_id": float64(1), "noop": false}},
		{"todo updated", "PUT", "/todos/1", map[string]any{"todo_id": float64(1), "noop": true}},
		{"todo deleted", "DELETE", "/todos/1", map[string]any{"todo_id": float64(1), "removed": true}},
		{"request failed", "GET", "/todos/1", map[string]any{"todo_id": float64(1), "level": "WARN"}},
	}

	if len(events) != len(tests) {
		t.Fatalf("expected %d events, got %d:\n%s", len(tests), len(events), buf.String())
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%d %s", i, tt.msg), func(t *testing.T) {
			e := events[i]
			if e["msg"] != tt.msg {
				t.Errorf("expected msg %q, got %v", tt.msg, e["msg"])
			}
			if id, _ := e["request_id"].(string); id == "" {
				t.Error("expected request_id")
			}
			if e["method"] != tt.method || e["path"] != tt.path {
				t.Errorf("expected method=%s path=%s, got method=%v path=%v", tt.method, tt.path, e["method"], e["path"])
			}
			for k, want := range tt.extra {
				if e[k] != want {
					t.Errorf("expected %s=%v, got %v", k, want, e[k])
				}
			}
		})
	}
}
