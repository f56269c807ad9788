package sqlite

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"contentgpt/internal/domain"
)

func TestUserRepo_GetUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	now := time.Now()
	until := now.Add(10 * 24 * time.Hour)
	rows := sqlmock.NewRows([]string{
		"user_id", "username", "first_name", "tier", "subscription_until",
		"bonus_points", "is_admin", "style", "created_at", "updated_at",
	}).AddRow(123, "tester", "Test", "basic", until, 50, false, "короткие посты", now, now)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(int64(123)).
		WillReturnRows(rows)

	user, err := repo.GetUser(123)

	assert.NoError(t, err)
	assert.Equal(t, int64(123), user.UserID)
	assert.Equal(t, domain.TierBasic, user.Tier)
	assert.NotNil(t, user.SubscriptionUntil)
	assert.Equal(t, 50, user.BonusPoints)
	assert.Equal(t, "короткие посты", user.Style)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetUser_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	_, err = repo.GetUser(999)

	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetUser_NullFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"user_id", "username", "first_name", "tier", "subscription_until",
		"bonus_points", "is_admin", "style", "created_at", "updated_at",
	}).AddRow(123, "tester", "Test", "free", nil, 0, false, nil, now, now)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(int64(123)).
		WillReturnRows(rows)

	user, err := repo.GetUser(123)

	assert.NoError(t, err)
	assert.Nil(t, user.SubscriptionUntil)
	assert.Empty(t, user.Style)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_EnsureUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").
		WithArgs(int64(123), "tester", "Test").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.EnsureUser(123, "tester", "Test")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_ApplySubscription(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)
	until := time.Now().Add(30 * 24 * time.Hour)

	mock.ExpectExec("UPDATE users").
		WithArgs("premium", until, int64(123)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.ApplySubscription(123, domain.TierPremium, until)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_AddBonusPoints(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewUserRepo(db)

	mock.ExpectExec("UPDATE users").
		WithArgs(50, int64(123)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.AddBonusPoints(123, 50)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
