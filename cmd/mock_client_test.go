package cmd

import (
	"context"
	"fmt"
	"io"

	"gitlab.com/lfmsh/bank/client"
	"gitlab.com/lfmsh/bank/cmd/backend"
	"gitlab.com/lfmsh/bank/models"
)

// MockBankClient records calls and returns canned data.
type MockBankClient struct {
	loggedIn bool
	me       models.UserData
	users    []models.UserListItem
	txs      []models.Transaction
	seminars []models.Seminar
	stats    models.Statistics
	tax      models.TaxResult
	imported models.ImportResult
	badges   []models.BadgeData
	err      error

	loginUser, loginPassword string
	loggedOut                bool
	filter                   client.TransactionFilter
	created                  models.TransactionCreate
	processed, declined      []uint
	seminar                  models.SeminarCreate
	userCreated              models.UserCreate
	charged                  []string
	uploaded                 map[string]string
	importedFiles            []string
	userUpdated              map[uint]models.UserUpdate
	badgeCreated             models.BadgeCreate
	badgeUpdated             map[uint]models.BadgeUpdate
	badgeCalls               []string
}

func newMockClient() *MockBankClient {
	return &MockBankClient{
		loggedIn:     true,
		uploaded:     map[string]string{},
		userUpdated:  map[uint]models.UserUpdate{},
		badgeUpdated: map[uint]models.BadgeUpdate{},
	}
}

func (m *MockBankClient) factory() ClientFactory {
	return func() (backend.BankClient, error) { return m, nil }
}

func (m *MockBankClient) Login(ctx context.Context, username, password string) (client.Credentials, error) {
	m.loginUser, m.loginPassword = username, password
	if m.err != nil {
		return client.Credentials{}, m.err
	}
	m.loggedIn = true
	return client.Credentials{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *MockBankClient) Logout() error {
	m.loggedOut = true
	m.loggedIn = false
	return nil
}

func (m *MockBankClient) LoggedIn() bool { return m.loggedIn }

func (m *MockBankClient) Verify(ctx context.Context) (bool, error) { return m.loggedIn, m.err }

func (m *MockBankClient) BaseURL() string { return "http://bank.test/api/v1/" }

func (m *MockBankClient) Me(ctx context.Context) (models.UserData, error) { return m.me, m.err }

func (m *MockBankClient) Users(ctx context.Context) ([]models.UserListItem, error) {
	return m.users, m.err
}

func (m *MockBankClient) User(ctx context.Context, username string) (models.UserData, error) {
	u := m.me
	u.Username = username
	return u, m.err
}

func (m *MockBankClient) CreateUser(ctx context.Context, user models.UserCreate) (models.UserData, error) {
	m.userCreated = user
	return models.UserData{Username: user.Username}, m.err
}

func (m *MockBankClient) UpdateUser(ctx context.Context, id uint, update models.UserUpdate) (models.UserData, error) {
	m.userUpdated[id] = update
	return models.UserData{ID: id, Username: update.Username}, m.err
}

func (m *MockBankClient) Statistics(ctx context.Context) (models.Statistics, error) {
	return m.stats, m.err
}

func (m *MockBankClient) Health(ctx context.Context) (models.HealthStatus, error) {
	return models.HealthStatus{Status: "healthy"}, m.err
}

func (m *MockBankClient) Transactions(ctx context.Context, filter client.TransactionFilter) ([]models.Transaction, error) {
	m.filter = filter
	return m.txs, m.err
}

func (m *MockBankClient) Transaction(ctx context.Context, id uint) (models.Transaction, error) {
	for _, tx := range m.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return models.Transaction{}, &client.APIError{StatusCode: 404, Detail: "not found"}
}

func (m *MockBankClient) CreateTransaction(ctx context.Context, create models.TransactionCreate) (models.Transaction, error) {
	m.created = create
	return models.Transaction{ID: 7, Type: create.Type, Status: models.StateCreated}, m.err
}

func (m *MockBankClient) ProcessTransaction(ctx context.Context, id uint) (models.Transaction, error) {
	m.processed = append(m.processed, id)
	return models.Transaction{ID: id, Status: models.StateProcessed}, m.err
}

func (m *MockBankClient) DeclineTransaction(ctx context.Context, id uint) (models.Transaction, error) {
	m.declined = append(m.declined, id)
	return models.Transaction{ID: id, Status: models.StateDeclined}, m.err
}

func (m *MockBankClient) CreateSeminar(ctx context.Context, seminar models.SeminarCreate) (models.SeminarCreated, error) {
	m.seminar = seminar
	return models.SeminarCreated{
		Message:       "Seminar recorded",
		Seminar:       models.Seminar{ID: 3, Speaker: seminar.Speaker},
		TransactionID: 11,
	}, m.err
}

func (m *MockBankClient) Seminars(ctx context.Context) ([]models.Seminar, error) {
	return m.seminars, m.err
}

func (m *MockBankClient) Seminar(ctx context.Context, id uint) (models.Seminar, error) {
	for _, s := range m.seminars {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Seminar{}, &client.APIError{StatusCode: 404, Detail: "not found"}
}

func (m *MockBankClient) ChargeTax(ctx context.Context) (models.TaxResult, error) {
	m.charged = append(m.charged, "tax")
	return m.tax, m.err
}

func (m *MockBankClient) ChargeEquatorFine(ctx context.Context) (models.TaxResult, error) {
	m.charged = append(m.charged, "equator")
	return m.tax, m.err
}

func (m *MockBankClient) ChargeFinalFine(ctx context.Context) (models.TaxResult, error) {
	m.charged = append(m.charged, "final")
	return m.tax, m.err
}

func (m *MockBankClient) Badges(ctx context.Context, all bool) ([]models.BadgeData, error) {
	m.badgeCalls = append(m.badgeCalls, fmt.Sprintf("list all=%t", all))
	return m.badges, m.err
}

func (m *MockBankClient) Badge(ctx context.Context, id uint) (models.BadgeData, error) {
	for _, b := range m.badges {
		if b.ID == id {
			return b, nil
		}
	}
	return models.BadgeData{}, &client.APIError{StatusCode: 404, Detail: "not found"}
}

func (m *MockBankClient) CreateBadge(ctx context.Context, badge models.BadgeCreate) (models.BadgeData, error) {
	m.badgeCreated = badge
	return models.BadgeData{ID: 5, Name: badge.Name, Description: badge.Description, IsActive: true}, m.err
}

func (m *MockBankClient) UpdateBadge(ctx context.Context, id uint, update models.BadgeUpdate) (models.BadgeData, error) {
	m.badgeUpdated[id] = update
	return models.BadgeData{ID: id}, m.err
}

func (m *MockBankClient) DeleteBadge(ctx context.Context, id uint) error {
	m.badgeCalls = append(m.badgeCalls, fmt.Sprintf("delete %d", id))
	return m.err
}

func (m *MockBankClient) AssignBadge(ctx context.Context, badgeID, userID uint) (models.BadgeResult, error) {
	m.badgeCalls = append(m.badgeCalls, fmt.Sprintf("assign %d to %d", badgeID, userID))
	return models.BadgeResult{Message: "assigned", BadgeID: badgeID, UserID: userID}, m.err
}

func (m *MockBankClient) UnassignBadge(ctx context.Context, userID uint) (models.BadgeResult, error) {
	m.badgeCalls = append(m.badgeCalls, fmt.Sprintf("unassign %d", userID))
	return models.BadgeResult{Message: "removed", UserID: userID}, m.err
}

func (m *MockBankClient) UploadBadgeImage(ctx context.Context, id uint, name string, r io.Reader) (models.BadgeResult, error) {
	data, _ := io.ReadAll(r)
	m.badgeCalls = append(m.badgeCalls, fmt.Sprintf("image %d %s:%s", id, name, data))
	return models.BadgeResult{Message: "uploaded", BadgeID: id, Filename: name}, m.err
}

func (m *MockBankClient) DeleteBadgeImage(ctx context.Context, id uint) (models.BadgeResult, error) {
	m.badgeCalls = append(m.badgeCalls, fmt.Sprintf("delete image %d", id))
	return models.BadgeResult{Message: "deleted", BadgeID: id}, m.err
}

func (m *MockBankClient) BadgeImageURL(id uint, size string) string {
	return fmt.Sprintf("http://bank.test/media/badges/%d_%s.png", id, size)
}

func (m *MockBankClient) AvatarURL(username, size string) string {
	return "http://bank.test/media/avatars/" + username + "_" + size + ".png"
}

func (m *MockBankClient) UploadAvatar(ctx context.Context, username, name string, r io.Reader) (models.UserData, error) {
	data, _ := io.ReadAll(r)
	m.uploaded[username] = name + ":" + string(data)
	return models.UserData{Username: username, Avatar: "/media/avatars/" + username + ".png"}, m.err
}

func (m *MockBankClient) AdminSetAvatar(ctx context.Context, username, name string, r io.Reader) (models.UserData, error) {
	return m.UploadAvatar(ctx, username, name, r)
}

func (m *MockBankClient) DeleteAvatar(ctx context.Context, username string) (models.UserData, error) {
	delete(m.uploaded, username)
	return models.UserData{Username: username}, m.err
}

func (m *MockBankClient) ImportUsersFromImages(ctx context.Context, files []client.File) (models.ImportResult, error) {
	for _, f := range files {
		m.importedFiles = append(m.importedFiles, f.Name)
	}
	return m.imported, m.err
}

func (m *MockBankClient) ImportUsersCSV(ctx context.Context, name string, r io.Reader) (models.ImportResult, error) {
	data, _ := io.ReadAll(r)
	m.importedFiles = append(m.importedFiles, name+":"+string(data))
	return m.imported, m.err
}

// MockPasswordReader returns a fixed password.
type MockPasswordReader struct {
	password string
	prompted bool
}

func (m *MockPasswordReader) ReadPassword(prompt string) (string, error) {
	m.prompted = true
	return m.password, nil
}
