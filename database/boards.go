package database

import (
	"encoding/json"
	"errors"
	"fmt"
)

// BoardService persists each user's task list and activity history as JSON
// arrays keyed by email. Date fields travel as RFC 3339 strings and come
// back as timestamps.
type BoardService struct {
	store *Store
}

func NewBoardService(store *Store) *BoardService {
	return &BoardService{store: store}
}

func tasksKey(email string) string {
	return "tasks_" + email
}

func activitiesKey(email string) string {
	return "activities_" + email
}

// Tasks loads a user's task list. A user with no saved board gets an empty
// list, not an error.
func (s *BoardService) Tasks(email string) ([]Task, error) {
	raw, err := s.store.Get(tasksKey(email))
	if errors.Is(err, ErrNotFound) {
		return []Task{}, nil
	}
	if err != nil {
		return nil, err
	}

	var tasks []Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, fmt.Errorf("parsing tasks for %s: %w", email, err)
	}
	return tasks, nil
}

// SaveTasks persists a user's task list.
func (s *BoardService) SaveTasks(email string, tasks []Task) error {
	payload, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encoding tasks for %s: %w", email, err)
	}
	return s.store.Put(tasksKey(email), string(payload))
}

// Activities loads a user's activity history, newest first.
func (s *BoardService) Activities(email string) ([]Activity, error) {
	raw, err := s.store.Get(activitiesKey(email))
	if errors.Is(err, ErrNotFound) {
		return []Activity{}, nil
	}
	if err != nil {
		return nil, err
	}

	var activities []Activity
	if err := json.Unmarshal([]byte(raw), &activities); err != nil {
		return nil, fmt.Errorf("parsing activities for %s: %w", email, err)
	}
	return activities, nil
}

// SaveActivities persists a user's activity history.
func (s *BoardService) SaveActivities(email string, activities []Activity) error {
	payload, err := json.Marshal(activities)
	if err != nil {
		return fmt.Errorf("encoding activities for %s: %w", email, err)
	}
	return s.store.Put(activitiesKey(email), string(payload))
}
