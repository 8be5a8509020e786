package database

import "time"

// Task statuses. A status doubles as the id of the column that holds it.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// PlaceholderAvatar is the built-in avatar substituted when a user has none
// stored. The display layer renders it as a generic glyph.
const PlaceholderAvatar = "data:image/svg+xml;base64,PHN2ZyB3aWR0aD0iNDAiIGhlaWdodD0iNDAiIHZpZXdCb3g9IjAgMCA0MCA0MCIgZmlsbD0ibm9uZSIgeG1sbnM9Imh0dHA6Ly93d3cudzMub3JnLzIwMDAvc3ZnIj4KPGNpcmNsZSBjeD0iMjAiIGN5PSIyMCIgcj0iMjAiIGZpbGw9IiM2MzY2RjEiLz4KPHBhdGggZD0iTTIwIDIwQzIyLjc2MTQgMjAgMjUgMTcuNzYxNCAyNSAxNUMyNSAxMi4yMzg2IDIyLjc2MTQgMTAgMjAgMTBDMTcuMjM4NiAxMCAxNSAxMi4yMzg2IDE1IDE1QzE1IDE3Ljc2MTQgMTcuNzYxNCAyMCAyMFoiIGZpbGw9IndoaXRlIi8+Cjwvc3ZnPgo="

// User is a locally registered account.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Task is a single card on the board. ColumnID is the authoritative grouping
// field; Status mirrors it whenever the task moves.
type Task struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	Assignee    *User     `json:"assignee,omitempty"`
	ColumnID    string    `json:"columnId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Column is a derived grouping of tasks by status. Columns are never
// persisted; they are rebuilt from the task list after every mutation.
type Column struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Tasks []Task `json:"tasks"`
}

// Activity is one entry of the capped, newest-first mutation log.
type Activity struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	TaskTitle string    `json:"taskTitle"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// DashboardMetrics are counts derived from the task list on read.
type DashboardMetrics struct {
	TotalTasks      int `json:"totalTasks"`
	CompletedTasks  int `json:"completedTasks"`
	InProgressTasks int `json:"inProgressTasks"`
	TodoTasks       int `json:"todoTasks"`
}

// ValidStatus reports whether s is one of the three board statuses.
func ValidStatus(s string) bool {
	return s == StatusTodo || s == StatusInProgress || s == StatusDone
}

// DisplayStatus renders a status for humans: "In Progress" for the
// in-progress state, otherwise the status with its first letter capitalized.
func DisplayStatus(status string) string {
	if status == StatusInProgress {
		return "In Progress"
	}
	if status == "" {
		return ""
	}
	return string(status[0]-'a'+'A') + status[1:]
}

// ColumnTitle returns the fixed display title for a column id.
func ColumnTitle(columnID string) string {
	switch columnID {
	case StatusTodo:
		return "To Do"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return columnID
}
