package repositories

import (
	"context"

	"gitlab.com/lfmsh/bank/models"
)

// UserRepository represents a repository for CRUD operations on User entities.
type UserRepository interface {
	GenericRepository[models.User]
	// FindByUsername retrieves a user by its unique login.
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// TransactionRepository represents a repository for CRUD operations on LedgerTransaction entities.
type TransactionRepository interface {
	GenericRepository[models.LedgerTransaction]
	// FindVisible lists transactions created by userID or having it among the recipients.
	FindVisible(ctx context.Context, userID uint, query Query[models.LedgerTransaction]) ([]models.LedgerTransaction, error)
}

// RecipientRepository represents a repository for CRUD operations on Recipient entities.
type RecipientRepository interface {
	GenericRepository[models.Recipient]
}

// SeminarRepository represents a repository for CRUD operations on SeminarRecord entities.
type SeminarRepository interface {
	GenericRepository[models.SeminarRecord]
}

// BadgeRepository represents a repository for CRUD operations on Badge entities.
type BadgeRepository interface {
	GenericRepository[models.Badge]
	// FindByName retrieves a badge by its unique name.
	FindByName(ctx context.Context, name string) (models.Badge, error)
	// Unassign clears badgeID from every user wearing it.
	Unassign(ctx context.Context, badgeID uint) error
}

// Store groups the ledger repositories over one database handle.
type Store interface {
	Users() UserRepository
	Transactions() TransactionRepository
	Recipients() RecipientRepository
	Seminars() SeminarRepository
	Badges() BadgeRepository
	// Atomic runs fn with repositories bound to a single database transaction.
	// Returning an error from fn rolls every change back.
	Atomic(ctx context.Context, fn func(Store) error) error
}
