package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayStatus(t *testing.T) {
	assert.Equal(t, "To Do", ColumnTitle(StatusTodo))
	assert.Equal(t, "In Progress", DisplayStatus(StatusInProgress))
	assert.Equal(t, "Done", DisplayStatus(StatusDone))
	assert.Equal(t, "Todo", DisplayStatus(StatusTodo))
	assert.Equal(t, "", DisplayStatus(""))
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusTodo))
	assert.True(t, ValidStatus(StatusInProgress))
	assert.True(t, ValidStatus(StatusDone))
	assert.False(t, ValidStatus("archived"))
	assert.False(t, ValidStatus(""))
}
