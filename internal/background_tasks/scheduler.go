package background_tasks

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.com/lfmsh/bank/internal/logger"
)

var zlog *logger.Logger

func init() {
	zlog = logger.New("background_tasks")
}

// Scheduler orchestrates the execution of tasks based on their triggers and priority.
type Scheduler struct {
	tasks           map[int]*Task  // Map of tasks by their ID.
	runningTasks    map[int]bool   // Map to keep track of running tasks.
	tick            time.Duration  // Interval between checks of task triggers.
	maxRunningTasks int            // Maximum number of tasks that can run concurrently.
	lastTaskID      int            // Counter for assigning unique IDs to tasks.
	mu              sync.Mutex     // Mutex to protect access to task maps.
	wg              sync.WaitGroup // Tracks tasks still running when the scheduler stops.
}

// NewScheduler creates a new Scheduler with a specified limit on running tasks.
func NewScheduler(maxRunningTasks int) *Scheduler {
	return &Scheduler{
		tasks:           make(map[int]*Task),
		runningTasks:    make(map[int]bool),
		tick:            time.Second,
		maxRunningTasks: maxRunningTasks,
	}
}

// AddTask adds a new task to the scheduler and initializes its state.
func (s *Scheduler) AddTask(task *Task) *Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = s.lastTaskID
	task.Enabled = true

	for _, trigger := range task.Triggers {
		trigger.Reset()
	}

	s.tasks[task.ID] = task
	s.lastTaskID++

	return task
}

// RemoveTask removes a task from the scheduler.
func (s *Scheduler) RemoveTask(taskID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, taskID)
}

// History returns the executions recorded for a task.
func (s *Scheduler) History(taskID int) []Execution {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[taskID]
	if !ok {
		return nil
	}
	return append([]Execution(nil), task.ExecutionHist...)
}

// Run checks triggers every tick until ctx is done, then waits for running
// tasks to return.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return
		case <-ticker.C:
			s.runTasks(ctx)
		}
	}
}

// runTasks checks and runs tasks based on their triggers and priority.
func (s *Scheduler) runTasks(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sortedTasks := make([]*Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		sortedTasks = append(sortedTasks, task)
	}
	sort.Slice(sortedTasks, func(i, j int) bool {
		if sortedTasks[i].Priority == sortedTasks[j].Priority {
			return sortedTasks[i].ID < sortedTasks[j].ID
		}
		return sortedTasks[i].Priority > sortedTasks[j].Priority
	})

	running := 0
	for _, isRunning := range s.runningTasks {
		if isRunning {
			running++
		}
	}

	for _, task := range sortedTasks {
		if !task.Enabled || s.runningTasks[task.ID] {
			continue
		}
		if len(task.Triggers) == 0 {
			delete(s.tasks, task.ID)
			continue
		}

		for _, trigger := range task.Triggers {
			if running < s.maxRunningTasks && trigger.IsReady() {
				s.runningTasks[task.ID] = true
				running++
				trigger.Reset()
				s.wg.Add(1)
				go s.runTask(ctx, task)
				break
			}
		}
	}
}

// runTask executes a task and manages its lifecycle and retry policy.
func (s *Scheduler) runTask(ctx context.Context, task *Task) {
	defer s.wg.Done()

	execution := Execution{StartedAt: time.Now(), Status: StatusFailed}
	for execution.Attempts < task.RetryPolicy.MaxRetries+1 {
		execution.Attempts++
		err := task.Function(ctx)
		if err == nil {
			execution.Status, execution.Error = StatusSuccess, ""
			break
		}
		execution.Error = err.Error()
		zlog.Warn("task failed",
			zap.String("task", task.Name),
			zap.Int("attempt", execution.Attempts),
			zap.Error(err))

		if !sleep(ctx, task.RetryPolicy.Delay) {
			break
		}
	}
	execution.EndedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	task.ExecutionHist = append(task.ExecutionHist, execution)
	s.runningTasks[task.ID] = false
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
