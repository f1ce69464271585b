package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTaskID(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	taskID := NewTaskID("b2f5cb6e-9a3d-4e6f-8a13-57d2f9518c44", now)
	assert.Equal(t, fmt.Sprintf("post-task-b2f5cb6e-9a3d-4e6f-8a13-57d2f9518c44-%d", now.Unix()), taskID)

	// Same message scheduled at a different second gets a different id
	later := NewTaskID("b2f5cb6e-9a3d-4e6f-8a13-57d2f9518c44", now.Add(time.Second))
	assert.NotEqual(t, taskID, later)
}
