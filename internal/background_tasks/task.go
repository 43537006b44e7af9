package background_tasks

import (
	"context"
	"time"
)

// RetryPolicy defines the policy for retrying tasks on failure.
type RetryPolicy struct {
	MaxRetries int           // Maximum number of retries.
	Delay      time.Duration // Delay between retries.
}

// Execution records the execution details of a task.
type Execution struct {
	StartedAt time.Time
	EndedAt   time.Time
	Status    string // SUCCESS or FAILED
	Error     string
	Attempts  int
}

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Task represents a schedulable task.
type Task struct {
	ID            int
	Name          string
	Description   string
	Triggers      []Trigger
	Function      func(ctx context.Context) error
	RetryPolicy   RetryPolicy
	Enabled       bool
	Priority      int // higher runs first when several tasks are ready
	ExecutionHist []Execution
}
