// Package episodes folds todo events into snapshots and segments a session
// into episodes bounded by todo completions.
package episodes

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/jasperwreed/deja/internal/capture"
	"github.com/jasperwreed/deja/internal/models"
)

const (
	contentDescriptionLimit = 100
	storedDescriptionLimit  = 200
)

// Op is one change to the todo list. Replace, Create and Update are the
// only implementations.
type Op interface {
	apply(prev []models.Todo, havePrev bool) ([]models.Todo, bool)
}

// Replace swaps in a whole new todo list.
type Replace struct {
	Todos []models.Todo
}

// Create appends a single task to the current list.
type Create struct {
	Todo models.Todo
}

// Update changes the status of the task with a matching id.
type Update struct {
	ID     string
	Status string
}

func (r Replace) apply(_ []models.Todo, _ bool) ([]models.Todo, bool) {
	todos := make([]models.Todo, len(r.Todos))
	copy(todos, r.Todos)
	return todos, true
}

func (c Create) apply(prev []models.Todo, _ bool) ([]models.Todo, bool) {
	todos := make([]models.Todo, 0, len(prev)+1)
	todos = append(todos, prev...)
	task := c.Todo
	if task.ID == "" {
		task.ID = strconv.Itoa(len(prev) + 1)
	}
	return append(todos, task), true
}

func (u Update) apply(prev []models.Todo, havePrev bool) ([]models.Todo, bool) {
	if !havePrev || u.ID == "" || u.Status == "" {
		return nil, false
	}
	matched := false
	todos := make([]models.Todo, len(prev))
	for i, t := range prev {
		if t.ID == u.ID {
			t.Status = u.Status
			matched = true
		}
		todos[i] = t
	}
	if !matched {
		return nil, false
	}
	return todos, true
}

// Tracker folds todo operations into an ordered sequence of snapshots. Each
// snapshot holds the complete todo list at that point.
type Tracker struct {
	snapshots []models.TodoSnapshot
}

// Apply folds op into the sequence. It reports whether a snapshot was
// emitted; a no-op update emits nothing.
func (t *Tracker) Apply(op Op, messageIndex int, timestamp string) bool {
	var prev []models.Todo
	havePrev := len(t.snapshots) > 0
	if havePrev {
		prev = t.snapshots[len(t.snapshots)-1].Todos
	}

	todos, ok := op.apply(prev, havePrev)
	if !ok {
		return false
	}

	t.snapshots = append(t.snapshots, models.TodoSnapshot{
		MessageIndex: messageIndex,
		Timestamp:    timestamp,
		Todos:        todos,
	})
	return true
}

// Snapshots returns the folded snapshot sequence.
func (t *Tracker) Snapshots() []models.TodoSnapshot {
	return t.snapshots
}

type wireTask struct {
	ID          json.RawMessage `json:"id"`
	Content     *string         `json:"content"`
	Status      string          `json:"status"`
	ActiveForm  string          `json:"activeForm"`
	Subject     string          `json:"subject"`
	Description string          `json:"description"`
	Owner       string          `json:"owner"`
}

// Normalize converts a TodoWrite item or a TaskCreate payload into a Todo.
// Tasks without a content field get content synthesized from the subject and
// a truncated description.
func Normalize(raw json.RawMessage) (models.Todo, bool) {
	var w wireTask
	if err := json.Unmarshal(raw, &w); err != nil {
		return models.Todo{}, false
	}

	todo := models.Todo{
		ID:         idString(w.ID),
		Status:     w.Status,
		ActiveForm: w.ActiveForm,
		Owner:      w.Owner,
	}
	if todo.Status == "" {
		todo.Status = models.StatusPending
	}

	if w.Content != nil {
		todo.Content = *w.Content
		todo.Description = w.Description
		return todo, true
	}

	todo.Subject = w.Subject
	todo.Content = w.Subject
	if w.Description != "" {
		desc := capture.Truncate(w.Description, contentDescriptionLimit)
		if desc != w.Description {
			desc += "..."
		}
		todo.Content = w.Subject + ": " + desc
		todo.Description = capture.Truncate(w.Description, storedDescriptionLimit)
	}
	return todo, true
}

// OpFromToolUse maps a todo-related tool use to an Op.
func OpFromToolUse(use capture.ToolUse) (Op, bool) {
	switch use.Name {
	case "TodoWrite":
		var in struct {
			Todos []json.RawMessage `json:"todos"`
		}
		if len(use.Input) > 0 {
			if err := json.Unmarshal(use.Input, &in); err != nil {
				return nil, false
			}
		}
		return Replace{Todos: normalizeAll(in.Todos)}, true

	case "TaskCreate":
		todo, ok := Normalize(use.Input)
		if !ok {
			return nil, false
		}
		return Create{Todo: todo}, true

	case "TaskUpdate":
		var in struct {
			TaskID json.RawMessage `json:"taskId"`
			Status string          `json:"status"`
		}
		if err := json.Unmarshal(use.Input, &in); err != nil {
			return nil, false
		}
		return Update{ID: idString(in.TaskID), Status: in.Status}, true
	}
	return nil, false
}

// OpFromEntryTodos maps a non-empty todos array attached to a user entry to a
// Replace.
func OpFromEntryTodos(raw json.RawMessage) (Op, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	return Replace{Todos: normalizeAll(items)}, true
}

func normalizeAll(items []json.RawMessage) []models.Todo {
	todos := make([]models.Todo, 0, len(items))
	for _, item := range items {
		if todo, ok := Normalize(item); ok {
			todos = append(todos, todo)
		}
	}
	return todos
}

func idString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
