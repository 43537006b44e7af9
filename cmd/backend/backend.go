package backend

import (
	"context"
	"io"
	"os"

	"gitlab.com/lfmsh/bank/client"
	"gitlab.com/lfmsh/bank/models"
)

// BankClient abstracts the authenticated API client so commands can be tested with fakes.
type BankClient interface {
	Login(ctx context.Context, username, password string) (client.Credentials, error)
	Logout() error
	LoggedIn() bool
	Verify(ctx context.Context) (bool, error)
	BaseURL() string

	Me(ctx context.Context) (models.UserData, error)
	Users(ctx context.Context) ([]models.UserListItem, error)
	User(ctx context.Context, username string) (models.UserData, error)
	CreateUser(ctx context.Context, user models.UserCreate) (models.UserData, error)
	UpdateUser(ctx context.Context, id uint, update models.UserUpdate) (models.UserData, error)
	Statistics(ctx context.Context) (models.Statistics, error)
	Health(ctx context.Context) (models.HealthStatus, error)

	Transactions(ctx context.Context, filter client.TransactionFilter) ([]models.Transaction, error)
	Transaction(ctx context.Context, id uint) (models.Transaction, error)
	CreateTransaction(ctx context.Context, create models.TransactionCreate) (models.Transaction, error)
	ProcessTransaction(ctx context.Context, id uint) (models.Transaction, error)
	DeclineTransaction(ctx context.Context, id uint) (models.Transaction, error)

	CreateSeminar(ctx context.Context, seminar models.SeminarCreate) (models.SeminarCreated, error)
	Seminars(ctx context.Context) ([]models.Seminar, error)
	Seminar(ctx context.Context, id uint) (models.Seminar, error)

	ChargeTax(ctx context.Context) (models.TaxResult, error)
	ChargeEquatorFine(ctx context.Context) (models.TaxResult, error)
	ChargeFinalFine(ctx context.Context) (models.TaxResult, error)

	Badges(ctx context.Context, all bool) ([]models.BadgeData, error)
	Badge(ctx context.Context, id uint) (models.BadgeData, error)
	CreateBadge(ctx context.Context, badge models.BadgeCreate) (models.BadgeData, error)
	UpdateBadge(ctx context.Context, id uint, update models.BadgeUpdate) (models.BadgeData, error)
	DeleteBadge(ctx context.Context, id uint) error
	AssignBadge(ctx context.Context, badgeID, userID uint) (models.BadgeResult, error)
	UnassignBadge(ctx context.Context, userID uint) (models.BadgeResult, error)
	UploadBadgeImage(ctx context.Context, id uint, name string, r io.Reader) (models.BadgeResult, error)
	DeleteBadgeImage(ctx context.Context, id uint) (models.BadgeResult, error)
	BadgeImageURL(id uint, size string) string

	AvatarURL(username, size string) string
	UploadAvatar(ctx context.Context, username, name string, r io.Reader) (models.UserData, error)
	AdminSetAvatar(ctx context.Context, username, name string, r io.Reader) (models.UserData, error)
	DeleteAvatar(ctx context.Context, username string) (models.UserData, error)
	ImportUsersFromImages(ctx context.Context, files []client.File) (models.ImportResult, error)
	ImportUsersCSV(ctx context.Context, name string, r io.Reader) (models.ImportResult, error)
}

// FileSystem abstracts Afero/os calls
type FileSystem interface {
	Open(name string) (FileHandler, error)
	ReadFile(filename string) ([]byte, error)
	Stat(name string) (os.FileInfo, error)
}

// FileHandler abstracts file interfaces shared between "os" and "afero" so that both can be used interchangeably
type FileHandler interface {
	io.Closer
	io.Reader
	Stat() (os.FileInfo, error)
}

// PasswordReader reads a secret without echoing it.
type PasswordReader interface {
	ReadPassword(prompt string) (string, error)
}
