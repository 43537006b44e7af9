package ledger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gitlab.com/lfmsh/bank/internal/repositories"
	"gitlab.com/lfmsh/bank/models"
)

// ChargeDailyTax takes DailyTaxAmount from every active pioneer. Superusers only.
func (s *Service) ChargeDailyTax(ctx context.Context, actor models.User) (models.TaxResult, error) {
	return s.chargePioneers(ctx, actor, models.TypeTax, "Daily tax", "Ежедневный налог", func(models.User) float64 {
		return DailyTaxAmount
	})
}

// ChargeEquatorFine fines pioneers behind the mid-session study plan.
func (s *Service) ChargeEquatorFine(ctx context.Context, actor models.User) (models.TaxResult, error) {
	return s.chargePioneers(ctx, actor, models.TypeFine, "Equator fine", "Экваториальный образовательный штраф", EquatorPenalty)
}

// ChargeFinalFine fines pioneers for the study plan left undone at the end of the session.
func (s *Service) ChargeFinalFine(ctx context.Context, actor models.User) (models.TaxResult, error) {
	return s.chargePioneers(ctx, actor, models.TypeFine, "Final fine", "Финальный образовательный штраф", ExpectedPenalty)
}

// ScheduledDailyTax charges the daily tax on behalf of the first superuser.
func (s *Service) ScheduledDailyTax(ctx context.Context) (models.TaxResult, error) {
	query := s.store.Users().GetQuery()
	query.Conditions = append(query.Conditions,
		repositories.EQ("Superuser", true),
		repositories.EQ("IsActive", true))
	query.SortBy = "id"
	manager, err := s.store.Users().Find(ctx, query)
	if err != nil {
		return models.TaxResult{}, notFound(err, "superuser", "for the daily tax")
	}
	return s.ChargeDailyTax(ctx, manager)
}

func (s *Service) chargePioneers(
	ctx context.Context,
	actor models.User,
	kind models.TransactionType,
	label, description string,
	amount func(models.User) float64,
) (models.TaxResult, error) {
	if !actor.Superuser {
		return models.TaxResult{}, ErrForbidden
	}

	var (
		result models.TaxResult
		total  float64
	)
	err := s.store.Atomic(ctx, func(store repositories.Store) error {
		pioneers, err := activePioneers(ctx, store.Users())
		if err != nil {
			return err
		}
		var rows []models.Recipient
		for _, p := range pioneers {
			if charge := amount(p); charge > 0 {
				rows = append(rows, models.Recipient{UserID: p.ID, Bucks: -charge})
				total += charge
			}
		}
		if len(rows) == 0 {
			result.Message = fmt.Sprintf("No active users found to apply %s", strings.ToLower(label))
			return nil
		}

		t, err := store.Transactions().Create(ctx, models.LedgerTransaction{
			CreatorID:   actor.ID,
			Type:        kind,
			Description: description,
			State:       models.StateCreated,
			Recipients:  rows,
		})
		if err != nil {
			return err
		}
		if err := s.process(ctx, store, actor, t.ID); err != nil {
			return err
		}
		result = models.TaxResult{
			Message:       fmt.Sprintf("%s applied to %d users, %s in total", label, len(rows), models.FormatBucks(total)),
			TransactionID: t.ID,
		}
		return nil
	})
	if err != nil {
		return models.TaxResult{}, err
	}
	zlog.Info(result.Message, zap.Uint("transaction", result.TransactionID), zap.String("by", actor.Username))
	return result, nil
}
