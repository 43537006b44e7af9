package repositories_gorm

import (
	"context"

	"gorm.io/gorm"

	"gitlab.com/lfmsh/bank/internal/repositories"
	"gitlab.com/lfmsh/bank/models"
)

// UserRepositoryGORM is a GORM implementation of the UserRepository interface.
type UserRepositoryGORM struct {
	repositories.GenericRepository[models.User]
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepositoryGORM.
func NewUserRepository(db *gorm.DB) repositories.UserRepository {
	return &UserRepositoryGORM{NewGenericRepository[models.User](db), db}
}

func (repo *UserRepositoryGORM) FindByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	err := repo.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	return user, handleDBError(err)
}

// TransactionRepositoryGORM is a GORM implementation of the TransactionRepository interface.
type TransactionRepositoryGORM struct {
	repositories.GenericRepository[models.LedgerTransaction]
	db *gorm.DB
}

// NewTransactionRepository creates a new instance of TransactionRepositoryGORM.
func NewTransactionRepository(db *gorm.DB) repositories.TransactionRepository {
	return &TransactionRepositoryGORM{NewGenericRepository[models.LedgerTransaction](db), db}
}

func (repo *TransactionRepositoryGORM) FindVisible(
	ctx context.Context,
	userID uint,
	query repositories.Query[models.LedgerTransaction],
) ([]models.LedgerTransaction, error) {
	var results []models.LedgerTransaction
	received := repo.db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Recipient{}).
		Select("transaction_id").
		Where("user_id = ?", userID)

	db := repo.db.WithContext(ctx).Model(&models.LedgerTransaction{})
	db = applyConditions(db, query)
	err := db.Where("(creator_id = ? OR id IN (?))", userID, received).Find(&results).Error
	return results, handleDBError(err)
}

// RecipientRepositoryGORM is a GORM implementation of the RecipientRepository interface.
type RecipientRepositoryGORM struct {
	repositories.GenericRepository[models.Recipient]
}

// NewRecipientRepository creates a new instance of RecipientRepositoryGORM.
func NewRecipientRepository(db *gorm.DB) repositories.RecipientRepository {
	return &RecipientRepositoryGORM{NewGenericRepository[models.Recipient](db)}
}

// SeminarRepositoryGORM is a GORM implementation of the SeminarRepository interface.
type SeminarRepositoryGORM struct {
	repositories.GenericRepository[models.SeminarRecord]
}

// NewSeminarRepository creates a new instance of SeminarRepositoryGORM.
func NewSeminarRepository(db *gorm.DB) repositories.SeminarRepository {
	return &SeminarRepositoryGORM{NewGenericRepository[models.SeminarRecord](db)}
}

// BadgeRepositoryGORM is a GORM implementation of the BadgeRepository interface.
type BadgeRepositoryGORM struct {
	repositories.GenericRepository[models.Badge]
	db *gorm.DB
}

// NewBadgeRepository creates a new instance of BadgeRepositoryGORM.
func NewBadgeRepository(db *gorm.DB) repositories.BadgeRepository {
	return &BadgeRepositoryGORM{NewGenericRepository[models.Badge](db), db}
}

func (repo *BadgeRepositoryGORM) FindByName(ctx context.Context, name string) (models.Badge, error) {
	var badge models.Badge
	err := repo.db.WithContext(ctx).Where("name = ?", name).First(&badge).Error
	return badge, handleDBError(err)
}

// Delete removes the badge for good so its name can be reused.
func (repo *BadgeRepositoryGORM) Delete(ctx context.Context, id uint) error {
	err := repo.db.WithContext(ctx).Unscoped().Delete(&models.Badge{}, id).Error
	return handleDBError(err)
}

func (repo *BadgeRepositoryGORM) Unassign(ctx context.Context, badgeID uint) error {
	err := repo.db.WithContext(ctx).
		Model(&models.User{}).
		Where("badge_id = ?", badgeID).
		Update("badge_id", nil).Error
	return handleDBError(err)
}

type storeGORM struct {
	db *gorm.DB
}

// NewStore returns the ledger repositories backed by db.
func NewStore(db *gorm.DB) repositories.Store {
	return &storeGORM{db: db}
}

func (s *storeGORM) Users() repositories.UserRepository { return NewUserRepository(s.db) }

func (s *storeGORM) Transactions() repositories.TransactionRepository {
	return NewTransactionRepository(s.db)
}

func (s *storeGORM) Recipients() repositories.RecipientRepository {
	return NewRecipientRepository(s.db)
}

func (s *storeGORM) Seminars() repositories.SeminarRepository { return NewSeminarRepository(s.db) }

func (s *storeGORM) Badges() repositories.BadgeRepository { return NewBadgeRepository(s.db) }

func (s *storeGORM) Atomic(ctx context.Context, fn func(repositories.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&storeGORM{db: tx})
	})
}
