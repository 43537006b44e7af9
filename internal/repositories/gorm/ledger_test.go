package repositories_gorm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/lfmsh/bank/internal/repositories"
	"gitlab.com/lfmsh/bank/models"
)

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setup(t))

	created, err := repo.Create(ctx, models.User{Username: "girik", LastName: "Гирик", Party: 1, IsActive: true})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := repo.FindByUsername(ctx, "girik")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, repositories.NotFoundError)

	_, err = repo.Create(ctx, models.User{Username: "girik"})
	assert.ErrorIs(t, err, repositories.ConflictError)

	// Save writes zero values, Update skips them
	found.Balance = 10
	_, err = repo.Save(ctx, found)
	require.NoError(t, err)
	found.Balance = 0
	_, err = repo.Save(ctx, found)
	require.NoError(t, err)
	reloaded, err := repo.Get(ctx, found.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.Balance)

	updated, err := repo.Update(ctx, found.ID, models.User{Grade: 7})
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Grade)
	assert.Equal(t, 1, updated.Party)

	require.NoError(t, repo.Delete(ctx, found.ID))
	_, err = repo.Get(ctx, found.ID)
	assert.ErrorIs(t, err, repositories.NotFoundError)
}

func TestQueryConditions(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(setup(t))

	for i, name := range []string{"a", "b", "c", "d"} {
		_, err := repo.Create(ctx, models.User{Username: name, Party: i % 2, Staff: name == "d"})
		require.NoError(t, err)
	}

	query := repo.GetQuery()
	query.Conditions = append(query.Conditions, repositories.EQ("Party", 1))
	users, err := repo.FindAll(ctx, query)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	query = repo.GetQuery()
	query.Instance = models.User{Staff: true}
	staff, err := repo.Find(ctx, query)
	require.NoError(t, err)
	assert.Equal(t, "d", staff.Username)

	query = repo.GetQuery()
	query.Conditions = append(query.Conditions, repositories.IN("Username", []string{"a", "c", "x"}))
	count, err := repo.Count(ctx, query)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	query = repo.GetQuery()
	query.SortBy = "username"
	query.Limit = 2
	query.Offset = 1
	page, err := repo.FindAll(ctx, query)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].Username)
	assert.Equal(t, "c", page[1].Username)
}

func TestTransactionVisibility(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setup(t))

	alice, err := store.Users().Create(ctx, models.User{Username: "alice"})
	require.NoError(t, err)
	bob, err := store.Users().Create(ctx, models.User{Username: "bob"})
	require.NoError(t, err)
	carol, err := store.Users().Create(ctx, models.User{Username: "carol"})
	require.NoError(t, err)

	_, err = store.Transactions().Create(ctx, models.LedgerTransaction{
		CreatorID:  alice.ID,
		Type:       models.TypeP2P,
		State:      models.StateCreated,
		Recipients: []models.Recipient{{UserID: bob.ID, Bucks: 5}},
	})
	require.NoError(t, err)
	_, err = store.Transactions().Create(ctx, models.LedgerTransaction{
		CreatorID:  carol.ID,
		Type:       models.TypeP2P,
		State:      models.StateCreated,
		Recipients: []models.Recipient{{UserID: carol.ID, Bucks: 1}},
	})
	require.NoError(t, err)

	query := store.Transactions().GetQuery()
	query.Preloads = []string{"Creator", "Recipients.User"}

	forBob, err := store.Transactions().FindVisible(ctx, bob.ID, query)
	require.NoError(t, err)
	require.Len(t, forBob, 1)
	assert.Equal(t, "alice", forBob[0].Creator.Username)
	require.Len(t, forBob[0].Recipients, 1)
	assert.Equal(t, "bob", forBob[0].Recipients[0].User.Username)

	forAlice, err := store.Transactions().FindVisible(ctx, alice.ID, query)
	require.NoError(t, err)
	assert.Len(t, forAlice, 1)

	query.Conditions = append(query.Conditions, repositories.EQ("State", models.StateProcessed))
	none, err := store.Transactions().FindVisible(ctx, carol.ID, query)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAtomicRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setup(t))

	boom := errors.New("boom")
	err := store.Atomic(ctx, func(tx repositories.Store) error {
		if _, err := tx.Users().Create(ctx, models.User{Username: "ghost"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Users().FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, repositories.NotFoundError)

	err = store.Atomic(ctx, func(tx repositories.Store) error {
		_, err := tx.Users().Create(ctx, models.User{Username: "kept"})
		return err
	})
	require.NoError(t, err)
	_, err = store.Users().FindByUsername(ctx, "kept")
	assert.NoError(t, err)
}

func TestBadgeRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setup(t))

	badge, err := store.Badges().Create(ctx, models.Badge{Name: "Знаток", IsActive: true})
	require.NoError(t, err)
	_, err = store.Badges().Create(ctx, models.Badge{Name: "Знаток"})
	assert.ErrorIs(t, err, repositories.ConflictError)

	found, err := store.Badges().FindByName(ctx, "Знаток")
	require.NoError(t, err)
	assert.Equal(t, badge.ID, found.ID)

	wearer, err := store.Users().Create(ctx, models.User{Username: "girik", BadgeID: &badge.ID})
	require.NoError(t, err)
	other, err := store.Users().Create(ctx, models.User{Username: "petya"})
	require.NoError(t, err)

	require.NoError(t, store.Badges().Unassign(ctx, badge.ID))
	reloaded, err := store.Users().Get(ctx, wearer.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.BadgeID)
	reloaded, err = store.Users().Get(ctx, other.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.BadgeID)

	require.NoError(t, store.Badges().Delete(ctx, badge.ID))
	_, err = store.Badges().Get(ctx, badge.ID)
	assert.ErrorIs(t, err, repositories.NotFoundError)
	_, err = store.Badges().Create(ctx, models.Badge{Name: "Знаток"})
	assert.NoError(t, err, "a deleted badge frees its name")
}
