package services

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/7858072571/task-manager/database"
)

// maxActivities bounds the retained history.
const maxActivities = 10

var priorityWeight = map[string]int{
	database.PriorityHigh:   3,
	database.PriorityMedium: 2,
	database.PriorityLow:    1,
}

// TaskUpdate holds the editable fields of a task. Nil fields are left
// unchanged.
type TaskUpdate struct {
	Title       *string        `json:"title"`
	Description *string        `json:"description"`
	Priority    *string        `json:"priority"`
	Assignee    *database.User `json:"assignee"`
}

// TaskStore owns the canonical task list and activity history for one
// user's board. Columns and metrics are projections derived from the task
// list; every mutation persists both lists through the board service.
//
// The owning identity is fixed at construction. Lookups by unknown task id
// are no-ops, never errors.
type TaskStore struct {
	mu         sync.Mutex
	email      string
	boards     *database.BoardService
	tasks      []database.Task
	activities []database.Activity
}

// NewTaskStore loads the board persisted for email. A storage read failure
// is surfaced; a user with no saved board starts empty.
func NewTaskStore(email string, boards *database.BoardService) (*TaskStore, error) {
	tasks, err := boards.Tasks(email)
	if err != nil {
		return nil, err
	}
	activities, err := boards.Activities(email)
	if err != nil {
		return nil, err
	}
	return &TaskStore{
		email:      email,
		boards:     boards,
		tasks:      tasks,
		activities: activities,
	}, nil
}

// AddTask creates a task in the given column with placeholder content and
// returns its id so the caller can enter edit mode immediately.
func (ts *TaskStore) AddTask(columnID string) string {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	now := time.Now()
	task := database.Task{
		ID:          database.NewID(),
		Title:       "New Task",
		Description: "",
		Status:      columnID,
		Priority:    database.PriorityMedium,
		ColumnID:    columnID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	ts.tasks = append(ts.tasks, task)
	ts.recordActivity(task.ID, task.Title, "created")
	ts.persist()
	return task.ID
}

// UpdateTask merges the update into the matching task and refreshes its
// updatedAt timestamp. Unknown ids are a no-op.
func (ts *TaskStore) UpdateTask(taskID string, update TaskUpdate) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for i := range ts.tasks {
		if ts.tasks[i].ID != taskID {
			continue
		}
		if update.Title != nil {
			ts.tasks[i].Title = *update.Title
		}
		if update.Description != nil {
			ts.tasks[i].Description = *update.Description
		}
		if update.Priority != nil {
			ts.tasks[i].Priority = *update.Priority
		}
		if update.Assignee != nil {
			ts.tasks[i].Assignee = update.Assignee
		}
		ts.tasks[i].UpdatedAt = time.Now()
		ts.persist()
		return
	}
}

// MoveTask moves a task to another column. Status follows columnId 1:1. An
// activity entry is recorded even when the target column equals the current
// one. Unknown ids are a no-op.
func (ts *TaskStore) MoveTask(taskID, newColumnID string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for i := range ts.tasks {
		if ts.tasks[i].ID != taskID {
			continue
		}
		ts.tasks[i].ColumnID = newColumnID
		ts.tasks[i].Status = newColumnID
		ts.tasks[i].UpdatedAt = time.Now()
		ts.recordActivity(taskID, ts.tasks[i].Title, "moved to "+database.DisplayStatus(newColumnID))
		ts.persist()
		return
	}
}

// DeleteTask removes a task. Unknown ids are a no-op.
func (ts *TaskStore) DeleteTask(taskID string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for i := range ts.tasks {
		if ts.tasks[i].ID != taskID {
			continue
		}
		title := ts.tasks[i].Title
		ts.tasks = append(ts.tasks[:i], ts.tasks[i+1:]...)
		ts.recordActivity(taskID, title, "deleted")
		ts.persist()
		return
	}
}

// Tasks returns a copy of the canonical task list.
func (ts *TaskStore) Tasks() []database.Task {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	out := make([]database.Task, len(ts.tasks))
	copy(out, ts.tasks)
	return out
}

// Columns rebuilds the three board columns from the task list: tasks
// grouped by columnId, sorted by priority weight descending, stable among
// equals.
func (ts *TaskStore) Columns() []database.Column {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ids := []string{database.StatusTodo, database.StatusInProgress, database.StatusDone}
	columns := make([]database.Column, 0, len(ids))
	for _, id := range ids {
		col := database.Column{
			ID:    id,
			Title: database.ColumnTitle(id),
			Tasks: []database.Task{},
		}
		for _, t := range ts.tasks {
			if t.ColumnID == id {
				col.Tasks = append(col.Tasks, t)
			}
		}
		sort.SliceStable(col.Tasks, func(a, b int) bool {
			return priorityWeight[col.Tasks[a].Priority] > priorityWeight[col.Tasks[b].Priority]
		})
		columns = append(columns, col)
	}
	return columns
}

// Activities returns the retained history, newest first.
func (ts *TaskStore) Activities() []database.Activity {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	out := make([]database.Activity, len(ts.activities))
	copy(out, ts.activities)
	return out
}

// Metrics derives the dashboard counts from the task list.
func (ts *TaskStore) Metrics() database.DashboardMetrics {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	m := database.DashboardMetrics{TotalTasks: len(ts.tasks)}
	for _, t := range ts.tasks {
		switch t.Status {
		case database.StatusDone:
			m.CompletedTasks++
		case database.StatusInProgress:
			m.InProgressTasks++
		case database.StatusTodo:
			m.TodoTasks++
		}
	}
	return m
}

// recordActivity prepends an entry and truncates the history to the most
// recent entries. Callers hold the lock.
func (ts *TaskStore) recordActivity(taskID, taskTitle, action string) {
	entry := database.Activity{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		TaskTitle: taskTitle,
		Action:    action,
		Timestamp: time.Now(),
	}
	ts.activities = append([]database.Activity{entry}, ts.activities...)
	if len(ts.activities) > maxActivities {
		ts.activities = ts.activities[:maxActivities]
	}
}

// persist writes both lists through the board service. A write failure is
// logged and abandoned: in-memory state stays correct for the session, it
// just isn't durable. Callers hold the lock.
func (ts *TaskStore) persist() {
	if err := ts.boards.SaveTasks(ts.email, ts.tasks); err != nil {
		log.Printf("Error saving tasks for %s: %v", ts.email, err)
	}
	if err := ts.boards.SaveActivities(ts.email, ts.activities); err != nil {
		log.Printf("Error saving activities for %s: %v", ts.email, err)
	}
}

// StoreManager hands out one TaskStore per user email. The HTTP layer is
// concurrent even though each board has a single logical writer.
type StoreManager struct {
	mu     sync.Mutex
	boards *database.BoardService
	stores map[string]*TaskStore
}

func NewStoreManager(boards *database.BoardService) *StoreManager {
	return &StoreManager{
		boards: boards,
		stores: make(map[string]*TaskStore),
	}
}

// Store returns the task store for email, loading it on first use.
func (m *StoreManager) Store(email string) (*TaskStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ts, ok := m.stores[email]; ok {
		return ts, nil
	}
	ts, err := NewTaskStore(email, m.boards)
	if err != nil {
		return nil, err
	}
	m.stores[email] = ts
	return ts, nil
}
