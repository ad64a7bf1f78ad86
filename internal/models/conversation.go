package models

// Todo statuses recognized when grouping final todos.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusDeleted    = "deleted"
)

// Todo is the canonical task shape both todo wire schemas normalize to.
type Todo struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Status      string `json:"status"`
	ActiveForm  string `json:"activeForm,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Description string `json:"description,omitempty"`
	Owner       string `json:"owner,omitempty"`
}

// TodoSnapshot is the complete todo list at one point of the conversation.
type TodoSnapshot struct {
	MessageIndex int    `json:"message_index"`
	Timestamp    string `json:"timestamp"`
	Todos        []Todo `json:"todos"`
}

// Episode is a span of messages ending where a todo was completed.
// MessageRange is half-open: [start, end).
type Episode struct {
	Title        string `json:"title"`
	MessageRange [2]int `json:"message_range"`
	CompletedAt  int    `json:"completed_at"`
	MessageCount int    `json:"message_count"`
}

// FinalTodos groups the latest snapshot's todo contents by status.
type FinalTodos struct {
	Completed  []string `json:"completed"`
	InProgress []string `json:"in_progress"`
	Pending    []string `json:"pending"`
}

// All returns every content string across the three categories.
func (f FinalTodos) All() []string {
	all := make([]string, 0, len(f.Completed)+len(f.InProgress)+len(f.Pending))
	all = append(all, f.Completed...)
	all = append(all, f.InProgress...)
	return append(all, f.Pending...)
}

// ConversationRecord is the indexed form of one session log. Records are
// immutable once built; a changed log produces a whole new record.
type ConversationRecord struct {
	SchemaVersion    int            `json:"schema_version"`
	SessionID        string         `json:"session_id"`
	Project          string         `json:"project"`
	FirstMessage     string         `json:"first_message"`
	UserMessageArc   []string       `json:"user_message_arc"`
	UserMessageCount int            `json:"user_message_count"`
	Timestamp        string         `json:"timestamp"`
	FinalTodos       FinalTodos     `json:"final_todos"`
	WorkItems        []string       `json:"work_items"`
	Episodes         []Episode      `json:"episodes"`
	MessageCount     int            `json:"message_count"`
	FilesTouched     []string       `json:"files_touched"`
	CommandsRun      []string       `json:"commands_run"`
	URLsFetched      []string       `json:"urls_fetched"`
	TermCounts       map[string]int `json:"term_counts"`
	Mtime            float64        `json:"mtime"`
	FilePath         string         `json:"file_path"`
}

// Message is one user or assistant message rendered for navigation.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Index     int    `json:"index"`
	UserTurn  int    `json:"userTurn"`
	Truncated bool   `json:"truncated,omitempty"`
}
