package database

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardTasksRoundTrip(t *testing.T) {
	svc := NewBoardService(setupStore(t))

	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	updated := time.Date(2024, 3, 2, 14, 0, 0, 0, time.UTC)
	tasks := []Task{
		{
			ID:          "1",
			Title:       "Write docs",
			Description: "user guide",
			Status:      StatusTodo,
			Priority:    PriorityHigh,
			ColumnID:    StatusTodo,
			CreatedAt:   created,
			UpdatedAt:   updated,
		},
		{
			ID:        "2",
			Title:     "Ship it",
			Status:    StatusDone,
			Priority:  PriorityLow,
			ColumnID:  StatusDone,
			CreatedAt: created,
			UpdatedAt: created,
		},
	}

	require.NoError(t, svc.SaveTasks("ada@example.com", tasks))

	loaded, err := svc.Tasks("ada@example.com")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Date fields travel as strings but come back as timestamps
	assert.True(t, loaded[0].CreatedAt.Equal(created))
	assert.True(t, loaded[0].UpdatedAt.Equal(updated))
	assert.Equal(t, tasks[0].Title, loaded[0].Title)
	assert.Equal(t, tasks[1].Status, loaded[1].Status)
}

func TestBoardTasksStoredAsISO(t *testing.T) {
	store := setupStore(t)
	svc := NewBoardService(store)

	created := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	task := Task{ID: "1", Title: "x", Status: StatusTodo, Priority: PriorityMedium,
		ColumnID: StatusTodo, CreatedAt: created, UpdatedAt: created}
	require.NoError(t, svc.SaveTasks("ada@example.com", []Task{task}))

	raw, err := store.Get("tasks_ada@example.com")
	require.NoError(t, err)
	assert.True(t, strings.Contains(raw, "2024-03-01T09:30:00Z"))
}

func TestBoardEmptyForNewUser(t *testing.T) {
	svc := NewBoardService(setupStore(t))

	tasks, err := svc.Tasks("nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, tasks)

	activities, err := svc.Activities("nobody@example.com")
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestBoardActivitiesRoundTrip(t *testing.T) {
	svc := NewBoardService(setupStore(t))

	when := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	activities := []Activity{
		{ID: "a1", TaskID: "1", TaskTitle: "Write docs", Action: "created", Timestamp: when},
	}
	require.NoError(t, svc.SaveActivities("ada@example.com", activities))

	loaded, err := svc.Activities("ada@example.com")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "created", loaded[0].Action)
	assert.True(t, loaded[0].Timestamp.Equal(when))
}

func TestBoardCorruptPayload(t *testing.T) {
	store := setupStore(t)
	svc := NewBoardService(store)

	require.NoError(t, store.Put("tasks_ada@example.com", "[broken"))

	_, err := svc.Tasks("ada@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
