package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"gitlab.com/lfmsh/bank/internal/auth"
	"gitlab.com/lfmsh/bank/internal/repositories"
	"gitlab.com/lfmsh/bank/models"
	"gitlab.com/lfmsh/bank/storage"
)

// Authenticate checks a login attempt.
func (s *Service) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.store.Users().FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repositories.NotFoundError) {
			return models.User{}, ErrBadCredentials
		}
		return models.User{}, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return models.User{}, ErrBadCredentials
	}
	if !user.IsActive {
		return models.User{}, ErrInactiveUser
	}
	return user, nil
}

// ActiveUser loads the account a token was issued for.
func (s *Service) ActiveUser(ctx context.Context, id uint) (models.User, error) {
	user, err := s.store.Users().Get(ctx, id)
	if err != nil {
		return models.User{}, notFound(err, "user", id)
	}
	if !user.IsActive {
		return models.User{}, ErrInactiveUser
	}
	return user, nil
}

// Users lists accounts visible to viewer: everyone for staff, pioneers otherwise.
func (s *Service) Users(ctx context.Context, viewer models.User) ([]models.UserListItem, error) {
	query := s.store.Users().GetQuery()
	query.SortBy = "last_name, first_name, username"
	if !viewer.Privileged() {
		query.Conditions = append(query.Conditions,
			repositories.EQ("Staff", false),
			repositories.EQ("Superuser", false))
	}
	users, err := s.store.Users().FindAll(ctx, query)
	if err != nil {
		return nil, err
	}

	items := make([]models.UserListItem, 0, len(users))
	for _, u := range users {
		items = append(items, models.UserListItem{
			ID:       u.ID,
			Username: u.Username,
			Name:     u.LongName(),
			Party:    u.Party,
			Staff:    u.Staff,
			Balance:  u.Balance,
		})
	}
	return items, nil
}

// Profile returns the full data of username. Pioneers may only look at pioneers.
func (s *Service) Profile(ctx context.Context, viewer models.User, username string) (models.UserData, error) {
	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return models.UserData{}, notFound(err, "user", username)
	}
	if user.ID != viewer.ID && !viewer.Privileged() && user.Privileged() {
		return models.UserData{}, ErrForbidden
	}
	return s.userData(ctx, user), nil
}

func (s *Service) userData(ctx context.Context, u models.User) models.UserData {
	return models.UserData{
		ID:              u.ID,
		Username:        u.Username,
		Name:            u.LongName(),
		Staff:           u.Staff,
		Superuser:       u.Superuser,
		Balance:         u.Balance,
		Certificates:    u.Certificates,
		ExpectedPenalty: ExpectedPenalty(u),
		Counters:        Counters(u),
		Party:           u.Party,
		Grade:           u.Grade,
		IsActive:        u.IsActive,
		Avatar:          u.Avatar,

		NextLecturePenalty: NextMissedLecturePenalty(u),
		Badge:              s.userBadge(ctx, u),
	}
}

// UserData renders a stored account.
func (s *Service) UserData(ctx context.Context, u models.User) models.UserData {
	return s.userData(ctx, u)
}

// CreateUser adds an account. Superusers only.
func (s *Service) CreateUser(ctx context.Context, actor models.User, in models.UserCreate) (models.UserData, error) {
	if !actor.Superuser {
		return models.UserData{}, ErrForbidden
	}
	user, err := s.createUser(ctx, s.store, in)
	if err != nil {
		return models.UserData{}, err
	}
	zlog.Info("user created", zap.String("username", user.Username), zap.String("by", actor.Username))
	return s.userData(ctx, user), nil
}

// UpdateUser changes the given fields of an account. Superusers only.
func (s *Service) UpdateUser(ctx context.Context, actor models.User, id uint, in models.UserUpdate) (models.UserData, error) {
	if !actor.Superuser {
		return models.UserData{}, ErrForbidden
	}
	user, err := s.store.Users().Get(ctx, id)
	if err != nil {
		return models.UserData{}, notFound(err, "user", id)
	}

	if username := strings.TrimSpace(in.Username); username != "" {
		user.Username = username
	}
	if in.Password != "" {
		if user.PasswordHash, err = auth.HashPassword(in.Password); err != nil {
			return models.UserData{}, err
		}
	}
	if v := strings.TrimSpace(in.FirstName); v != "" {
		user.FirstName = v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		user.LastName = v
	}
	if v := strings.TrimSpace(in.MiddleName); v != "" {
		user.MiddleName = v
	}
	if in.Party != nil {
		user.Party = *in.Party
	}
	if in.Grade != nil {
		user.Grade = *in.Grade
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.Staff != nil {
		user.Staff = *in.Staff
	}
	if in.Superuser != nil {
		user.Superuser = *in.Superuser
	}

	user, err = s.store.Users().Save(ctx, user)
	if errors.Is(err, repositories.ConflictError) {
		return models.UserData{}, fmt.Errorf("%w: %s", ErrUsernameTaken, in.Username)
	}
	if err != nil {
		return models.UserData{}, err
	}
	zlog.Info("user updated", zap.String("username", user.Username), zap.String("by", actor.Username))
	return s.userData(ctx, user), nil
}

func (s *Service) createUser(ctx context.Context, store repositories.Store, in models.UserCreate) (models.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.MiddleName = strings.TrimSpace(in.MiddleName)
	if in.LastName == "" || in.FirstName == "" {
		return models.User{}, invalid("first and last name are required")
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		generated, err := GenerateUsername(ctx, store.Users(), in.LastName, in.FirstName, in.MiddleName)
		if err != nil {
			return models.User{}, err
		}
		username = generated
	}

	password := in.Password
	if password == "" {
		password = s.defaultPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user, err := store.Users().Create(ctx, models.User{
		Username:     username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		MiddleName:   in.MiddleName,
		Party:        in.Party,
		Grade:        in.Grade,
		Staff:        in.Staff,
		Superuser:    in.Superuser,
		IsActive:     true,
	})
	if errors.Is(err, repositories.ConflictError) {
		return models.User{}, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	}
	return user, err
}

// SetAvatar stores a new avatar for username. Users may change their own
// avatar, staff may change anyone's.
func (s *Service) SetAvatar(ctx context.Context, actor models.User, username string, image []byte) (models.UserData, error) {
	user, err := s.avatarTarget(ctx, actor, username)
	if err != nil {
		return models.UserData{}, err
	}
	url, err := s.avatars.Save(user.Username, bytes.NewReader(image))
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) || errors.Is(err, storage.ErrImageTooLarge) {
			return models.UserData{}, invalid("%v", err)
		}
		return models.UserData{}, err
	}
	user.Avatar = url
	if user, err = s.store.Users().Save(ctx, user); err != nil {
		return models.UserData{}, err
	}
	return s.userData(ctx, user), nil
}

// DeleteAvatar removes the avatar of username.
func (s *Service) DeleteAvatar(ctx context.Context, actor models.User, username string) (models.UserData, error) {
	user, err := s.avatarTarget(ctx, actor, username)
	if err != nil {
		return models.UserData{}, err
	}
	if err := s.avatars.Delete(user.Username); err != nil {
		return models.UserData{}, err
	}
	user.Avatar = ""
	if user, err = s.store.Users().Save(ctx, user); err != nil {
		return models.UserData{}, err
	}
	return s.userData(ctx, user), nil
}

func (s *Service) avatarTarget(ctx context.Context, actor models.User, username string) (models.User, error) {
	user, err := s.store.Users().FindByUsername(ctx, username)
	if err != nil {
		return models.User{}, notFound(err, "user", username)
	}
	if user.ID != actor.ID && !actor.Privileged() {
		return models.User{}, ErrForbidden
	}
	return user, nil
}

// TestUsers are seeded when the server runs in test mode.
var TestUsers = []models.UserCreate{
	{Username: "girik", FirstName: "Гирик", LastName: "Пионеров", Party: 1, Grade: 7},
	{Username: "girix", FirstName: "Гирих", LastName: "Педагогов", Staff: true},
	{Username: "bank_manager", FirstName: "Банк", LastName: "Менеджер", Staff: true, Superuser: true},
}

// SeedTestUsers creates the test accounts that do not exist yet.
func (s *Service) SeedTestUsers(ctx context.Context) error {
	for _, u := range TestUsers {
		_, err := s.store.Users().FindByUsername(ctx, u.Username)
		if err == nil {
			continue
		}
		if !errors.Is(err, repositories.NotFoundError) {
			return err
		}
		if _, err := s.createUser(ctx, s.store, u); err != nil {
			return fmt.Errorf("unable to seed %s: %w", u.Username, err)
		}
		zlog.Sugar().Infof("seeded test user %s", u.Username)
	}
	return nil
}
