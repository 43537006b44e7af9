package background_tasks

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/lfmsh/bank/models"
)

// TaxCharger charges the daily tax without an acting user.
type TaxCharger interface {
	ScheduledDailyTax(ctx context.Context) (models.TaxResult, error)
}

// NewDailyTaxTask charges the daily tax whenever cronExpr fires.
func NewDailyTaxTask(cronExpr string, charger TaxCharger) (*Task, error) {
	trigger := &PeriodicTrigger{CronExpr: cronExpr}
	if err := trigger.Validate(); err != nil {
		return nil, fmt.Errorf("invalid daily tax schedule %q: %w", cronExpr, err)
	}
	return &Task{
		Name:        "daily-tax",
		Description: "Charge the daily tax from every active pioneer",
		Triggers:    []Trigger{trigger},
		Function: func(ctx context.Context) error {
			result, err := charger.ScheduledDailyTax(ctx)
			if err != nil {
				return err
			}
			zlog.Sugar().Infof("scheduled tax: %s", result.Message)
			return nil
		},
		RetryPolicy: RetryPolicy{MaxRetries: 2, Delay: time.Minute},
	}, nil
}
