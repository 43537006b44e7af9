package ledger

import (
	"context"
	"fmt"
	"sort"

	"gitlab.com/lfmsh/bank/internal/repositories"
	"gitlab.com/lfmsh/bank/models"
)

// balances accumulates changes to accounts touched by one operation and
// writes each of them once.
type balances struct {
	store repositories.Store
	users map[uint]*models.User
}

func newBalances(store repositories.Store) *balances {
	return &balances{store: store, users: make(map[uint]*models.User)}
}

func (b *balances) user(ctx context.Context, id uint) (*models.User, error) {
	if u, ok := b.users[id]; ok {
		return u, nil
	}
	u, err := b.store.Users().Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	b.users[id] = &u
	return &u, nil
}

// apply adds (sign 1) or removes (sign -1) a recipient row and flips its counted mark.
func (b *balances) apply(ctx context.Context, r *models.Recipient, sign int) error {
	if r.Counted == (sign > 0) {
		return fmt.Errorf("%w: recipient row %d is already in that state", ErrInvalidTransition, r.ID)
	}
	u, err := b.user(ctx, r.UserID)
	if err != nil {
		return err
	}
	f := float64(sign)
	u.Balance += f * r.Bucks
	u.Certificates += f * r.Certs
	u.LabCount += sign * r.Lab
	u.LecCount += sign * r.Lec
	u.SemCount += sign * r.Sem
	u.FacCount += sign * r.Fac
	u.SeminarsRead += sign * r.Read
	u.LecMissed += sign * r.LecMiss

	r.Counted = sign > 0
	_, err = b.store.Recipients().Save(ctx, *r)
	return err
}

// revert moves t to a terminal state, undoing it first when it was applied.
func (b *balances) revert(ctx context.Context, t models.LedgerTransaction, to models.TransactionState) error {
	if !CanTransition(t.State, to) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.State, to)
	}
	if t.State == models.StateProcessed {
		if t.Type == models.TypeP2P {
			creator, err := b.user(ctx, t.CreatorID)
			if err != nil {
				return err
			}
			creator.Balance += bucksTotal(t)
		}
		for i := range t.Recipients {
			if err := b.apply(ctx, &t.Recipients[i], -1); err != nil {
				return err
			}
		}
	}
	t.State = to
	_, err := b.store.Transactions().Save(ctx, t)
	return err
}

func (b *balances) flush(ctx context.Context) error {
	ids := make([]int, 0, len(b.users))
	for id := range b.users {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		if _, err := b.store.Users().Save(ctx, *b.users[uint(id)]); err != nil {
			return err
		}
	}
	return nil
}
