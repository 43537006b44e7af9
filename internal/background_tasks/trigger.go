package background_tasks

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Trigger interface defines a method to check if a trigger condition is met.
type Trigger interface {
	IsReady() bool // Returns true if the trigger condition is met.
	Reset()        // Resets the trigger state.
}

// PeriodicTrigger fires on a cron expression or, without one, every Interval.
type PeriodicTrigger struct {
	Interval time.Duration
	CronExpr string // standard five field syntax or descriptors such as @daily

	mu            sync.Mutex
	schedule      cron.Schedule
	parsedExpr    string
	lastTriggered time.Time
	now           func() time.Time
}

func (t *PeriodicTrigger) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

// Validate parses CronExpr so a bad expression is reported when the task is added.
func (t *PeriodicTrigger) Validate() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.parse()
	return err
}

func (t *PeriodicTrigger) parse() (cron.Schedule, error) {
	if t.schedule != nil && t.parsedExpr == t.CronExpr {
		return t.schedule, nil
	}
	schedule, err := cron.ParseStandard(t.CronExpr)
	if err != nil {
		return nil, err
	}
	t.schedule, t.parsedExpr = schedule, t.CronExpr
	return schedule, nil
}

// IsReady reports whether the next firing time after the last one has passed.
func (t *PeriodicTrigger) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock()
	if t.CronExpr == "" {
		return t.Interval > 0 && !t.lastTriggered.Add(t.Interval).After(now)
	}

	schedule, err := t.parse()
	if err != nil {
		zlog.Sugar().Errorf("Error parsing CronExpr %q: %v", t.CronExpr, err)
		return false
	}
	return !schedule.Next(t.lastTriggered).After(now)
}

// Reset updates the last triggered time to the current time.
func (t *PeriodicTrigger) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastTriggered = t.clock()
}

// EventTrigger fires when something is sent on its channel.
type EventTrigger struct {
	Trigger chan bool
}

// IsReady checks if there is a signal in the trigger channel.
func (t *EventTrigger) IsReady() bool {
	select {
	case <-t.Trigger:
		return true
	default:
		return false
	}
}

// Reset for EventTrigger does nothing as its state is managed externally.
func (t *EventTrigger) Reset() {}

// OneTimeTrigger fires once, Delay after the task was added.
type OneTimeTrigger struct {
	Delay        time.Duration
	registeredAt time.Time
	fired        bool
}

// Reset registers the trigger on the first call and marks it fired afterwards.
func (t *OneTimeTrigger) Reset() {
	if t.registeredAt.IsZero() {
		t.registeredAt = time.Now()
		return
	}
	t.fired = true
}

// IsReady checks if the current time has passed the delay period.
func (t *OneTimeTrigger) IsReady() bool {
	return !t.fired && !t.registeredAt.Add(t.Delay).After(time.Now())
}
