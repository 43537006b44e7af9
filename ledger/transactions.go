package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"gitlab.com/lfmsh/bank/internal/repositories"
	"gitlab.com/lfmsh/bank/models"
)

// TransactionFilter narrows a listing. Zero fields match everything.
type TransactionFilter struct {
	Status models.TransactionState
	Type   models.TransactionType
}

var transactionPreloads = []string{"Creator", "Recipients.User"}

// CreateTransaction books a new transaction in the created state. Pioneers
// may only transfer their own bucks to other users.
func (s *Service) CreateTransaction(ctx context.Context, actor models.User, in models.TransactionCreate) (models.Transaction, error) {
	if !in.Type.Valid() {
		return models.Transaction{}, invalid("unknown transaction type %q", in.Type)
	}
	if !actor.Privileged() && in.Type != models.TypeP2P {
		return models.Transaction{}, fmt.Errorf("%w: pioneers may only create %s transactions", ErrForbidden, models.TypeP2P)
	}
	if len(in.Recipients) == 0 {
		return models.Transaction{}, invalid("at least one recipient is required")
	}

	var id uint
	err := s.store.Atomic(ctx, func(store repositories.Store) error {
		rows, err := s.recipientRows(ctx, store, actor, in)
		if err != nil {
			return err
		}
		if in.UpdateOf != nil {
			if err := checkUpdateOf(ctx, store, actor, in); err != nil {
				return err
			}
		}

		t, err := store.Transactions().Create(ctx, models.LedgerTransaction{
			CreatorID:   actor.ID,
			Type:        in.Type,
			Description: in.Description,
			State:       models.StateCreated,
			UpdateOfID:  in.UpdateOf,
			Recipients:  rows,
		})
		id = t.ID
		return err
	})
	if err != nil {
		return models.Transaction{}, err
	}

	zlog.Info("transaction created",
		zap.Uint("id", id),
		zap.String("type", string(in.Type)),
		zap.String("creator", actor.Username))
	return s.Transaction(ctx, actor, id)
}

func (s *Service) recipientRows(ctx context.Context, store repositories.Store, actor models.User, in models.TransactionCreate) ([]models.Recipient, error) {
	seen := make(map[uint]bool, len(in.Recipients))
	rows := make([]models.Recipient, 0, len(in.Recipients))
	for _, r := range in.Recipients {
		if seen[r.ID] {
			return nil, invalid("user %d is listed twice", r.ID)
		}
		seen[r.ID] = true

		if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
			return nil, invalid("amount for user %d is not a number", r.ID)
		}
		if in.Type == models.TypeP2P {
			if r.ID == actor.ID {
				return nil, invalid("cannot transfer to yourself")
			}
			if r.Amount <= 0 {
				return nil, invalid("transfer amount must be positive")
			}
		}
		user, err := store.Users().Get(ctx, r.ID)
		if err != nil {
			return nil, notFound(err, "user", r.ID)
		}
		if in.Type == models.TypeLecMiss {
			rows = append(rows, models.Recipient{
				UserID:  r.ID,
				Bucks:   -NextMissedLecturePenalty(user),
				LecMiss: 1,
			})
			continue
		}
		rows = append(rows, recipientRow(in.Type, r.ID, r.Amount))
	}
	return rows, nil
}

// recipientRow fills bucks, or the matching counter for attendance types.
func recipientRow(t models.TransactionType, userID uint, amount float64) models.Recipient {
	row := models.Recipient{UserID: userID}
	switch t {
	case models.TypeFacAttend:
		row.Fac = 1
	case models.TypeLecAttend:
		row.Lec = 1
	case models.TypeSemAttend:
		row.Sem = 1
	case models.TypeLabPass:
		row.Lab = 1
	default:
		row.Bucks = amount
	}
	return row
}

func checkUpdateOf(ctx context.Context, store repositories.Store, actor models.User, in models.TransactionCreate) error {
	old, err := store.Transactions().Get(ctx, *in.UpdateOf)
	if err != nil {
		if errors.Is(err, repositories.NotFoundError) {
			return invalid("transaction to update %d not found", *in.UpdateOf)
		}
		return err
	}
	if old.CreatorID != actor.ID || old.Type != in.Type {
		return invalid("an update must keep the creator and the type of transaction %d", old.ID)
	}
	if old.State == models.StateDeclined || old.State == models.StateSubstituted {
		return invalid("transaction %d is %s and cannot be updated", old.ID, old.State)
	}
	return nil
}

// ProcessTransaction applies a created transaction. The creator or staff may do it.
func (s *Service) ProcessTransaction(ctx context.Context, actor models.User, id uint) (models.Transaction, error) {
	err := s.store.Atomic(ctx, func(store repositories.Store) error {
		return s.process(ctx, store, actor, id)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	zlog.Info("transaction processed", zap.Uint("id", id), zap.String("by", actor.Username))
	return s.Transaction(ctx, actor, id)
}

func (s *Service) process(ctx context.Context, store repositories.Store, actor models.User, id uint) error {
	t, err := loadTransaction(ctx, store, id)
	if err != nil {
		return err
	}
	if t.CreatorID != actor.ID && !actor.Privileged() {
		return ErrForbidden
	}
	if !CanTransition(t.State, models.StateProcessed) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, t.State, models.StateProcessed)
	}

	var replaced *models.LedgerTransaction
	if t.UpdateOfID != nil {
		old, err := loadTransaction(ctx, store, *t.UpdateOfID)
		if err != nil {
			return err
		}
		// another update of the same transaction was applied first
		if old.State == models.StateDeclined || old.State == models.StateSubstituted {
			return fmt.Errorf("%w: transaction %d is %s, update %d is stale",
				ErrInvalidTransition, old.ID, old.State, t.ID)
		}
		if old.State == models.StateProcessed {
			replaced = &old
		}
	}

	b := newBalances(store)
	if t.Type == models.TypeP2P {
		creator, err := b.user(ctx, t.CreatorID)
		if err != nil {
			return err
		}
		total := bucksTotal(t)
		if creator.Balance < total {
			return fmt.Errorf("%w: required %s, available %s",
				ErrInsufficientFunds, models.FormatBucks(total), models.FormatBucks(creator.Balance))
		}
		creator.Balance -= total
	}
	for i := range t.Recipients {
		r := &t.Recipients[i]
		if t.Type == models.TypeLecMiss {
			// priced against misses applied since the transaction was created
			u, err := b.user(ctx, r.UserID)
			if err != nil {
				return err
			}
			r.Bucks = -NextMissedLecturePenalty(*u)
		}
		if err := b.apply(ctx, r, 1); err != nil {
			return err
		}
	}
	t.State = models.StateProcessed
	if _, err := store.Transactions().Save(ctx, t); err != nil {
		return err
	}

	if replaced != nil {
		if err := b.revert(ctx, *replaced, models.StateSubstituted); err != nil {
			return err
		}
		zlog.Info("transaction substituted", zap.Uint("id", replaced.ID), zap.Uint("by", t.ID))
	}
	return b.flush(ctx)
}

// DeclineTransaction cancels a created transaction. Staff only.
func (s *Service) DeclineTransaction(ctx context.Context, actor models.User, id uint) (models.Transaction, error) {
	if !actor.Privileged() {
		return models.Transaction{}, ErrForbidden
	}
	err := s.store.Atomic(ctx, func(store repositories.Store) error {
		t, err := loadTransaction(ctx, store, id)
		if err != nil {
			return err
		}
		b := newBalances(store)
		if err := b.revert(ctx, t, models.StateDeclined); err != nil {
			return err
		}
		return b.flush(ctx)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	zlog.Info("transaction declined", zap.Uint("id", id), zap.String("by", actor.Username))
	return s.Transaction(ctx, actor, id)
}

// Transactions lists what viewer may see, newest first.
func (s *Service) Transactions(ctx context.Context, viewer models.User, filter TransactionFilter) ([]models.Transaction, error) {
	query := s.store.Transactions().GetQuery()
	query.Preloads = transactionPreloads
	query.SortBy = "created_at desc, id desc"
	if filter.Status != "" {
		if _, ok := transitions[filter.Status]; !ok {
			return nil, invalid("unknown status %q", filter.Status)
		}
		query.Conditions = append(query.Conditions, repositories.EQ("State", filter.Status))
	}
	if filter.Type != "" {
		if !filter.Type.Valid() {
			return nil, invalid("unknown transaction type %q", filter.Type)
		}
		query.Conditions = append(query.Conditions, repositories.EQ("Type", filter.Type))
	}

	var (
		txs []models.LedgerTransaction
		err error
	)
	if viewer.Privileged() {
		txs, err = s.store.Transactions().FindAll(ctx, query)
	} else {
		txs, err = s.store.Transactions().FindVisible(ctx, viewer.ID, query)
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.Transaction, 0, len(txs))
	for _, t := range txs {
		out = append(out, render(t))
	}
	return out, nil
}

// Transaction returns one transaction if viewer created it, receives from it or is staff.
func (s *Service) Transaction(ctx context.Context, viewer models.User, id uint) (models.Transaction, error) {
	t, err := loadTransaction(ctx, s.store, id)
	if err != nil {
		return models.Transaction{}, err
	}
	if !viewer.Privileged() && t.CreatorID != viewer.ID && !receives(t, viewer.ID) {
		return models.Transaction{}, ErrForbidden
	}
	return render(t), nil
}

func receives(t models.LedgerTransaction, userID uint) bool {
	for _, r := range t.Recipients {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

func loadTransaction(ctx context.Context, store repositories.Store, id uint) (models.LedgerTransaction, error) {
	query := store.Transactions().GetQuery()
	query.Conditions = append(query.Conditions, repositories.EQ("ID", id))
	query.Preloads = transactionPreloads
	t, err := store.Transactions().Find(ctx, query)
	if err != nil {
		return t, notFound(err, "transaction", id)
	}
	return t, nil
}

func bucksTotal(t models.LedgerTransaction) float64 {
	var total float64
	for _, r := range t.Recipients {
		total += r.Bucks
	}
	return total
}

func render(t models.LedgerTransaction) models.Transaction {
	author := t.Creator.LongName()
	if author == "" {
		author = t.Creator.Username
	}
	out := models.Transaction{
		ID:          t.ID,
		Author:      author,
		Description: t.Description,
		Type:        t.Type,
		Status:      t.State,
		DateCreated: t.CreatedAt,
		UpdateOf:    t.UpdateOfID,
		Receivers:   make([]models.Receiver, 0, len(t.Recipients)),
	}
	for _, r := range t.Recipients {
		out.Receivers = append(out.Receivers, models.Receiver{
			Username: r.User.Username,
			Bucks:    r.Bucks,
			Certs:    r.Certs,
			Lab:      r.Lab,
			Lec:      r.Lec,
			Sem:      r.Sem,
			Fac:      r.Fac,
			LecMiss:  r.LecMiss,
		})
	}
	return out
}
