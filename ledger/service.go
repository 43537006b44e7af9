// Package ledger holds the bank rules: who may issue which transaction, how a
// transaction moves between states and what it does to balances and counters.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"gitlab.com/lfmsh/bank/internal/logger"
	"gitlab.com/lfmsh/bank/internal/repositories"
	"gitlab.com/lfmsh/bank/storage"
)

var zlog *logger.Logger

func init() {
	zlog = logger.New("ledger")
}

type Service struct {
	store           repositories.Store
	avatars         storage.AvatarStorage
	badgeImages     storage.AvatarStorage
	defaultPassword string
	now             func() time.Time
}

// NewService builds the ledger over store. Imported accounts get defaultPassword.
func NewService(store repositories.Store, avatars, badgeImages storage.AvatarStorage, defaultPassword string) *Service {
	return &Service{
		store:           store,
		avatars:         avatars,
		badgeImages:     badgeImages,
		defaultPassword: defaultPassword,
		now:             time.Now,
	}
}

// notFound turns a repository miss into ErrNotFound naming what was looked up.
func notFound(err error, what string, key interface{}) error {
	if errors.Is(err, repositories.NotFoundError) {
		return fmt.Errorf("%w: %s %v", ErrNotFound, what, key)
	}
	return err
}
