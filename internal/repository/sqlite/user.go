package sqlite

import (
	"database/sql"
	"time"

	"contentgpt/internal/domain"
)

// UserRepo implements repository.UserRepository
type UserRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// GetUser returns the user or domain.ErrUserNotFound
func (r *UserRepo) GetUser(userID int64) (*domain.User, error) {
	var (
		u     domain.User
		tier  string
		until sql.NullTime
		style sql.NullString
	)
	query := `
		SELECT user_id, username, first_name, tier, subscription_until,
		       bonus_points, is_admin, style, created_at, updated_at
		FROM users WHERE user_id = ?
	`
	err := r.db.QueryRow(query, userID).Scan(
		&u.UserID, &u.Username, &u.FirstName, &tier, &until,
		&u.BonusPoints, &u.IsAdmin, &style, &u.CreatedAt, &u.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	u.Tier = domain.ParseTier(tier)
	if until.Valid {
		u.SubscriptionUntil = &until.Time
	}
	if style.Valid {
		u.Style = style.String
	}

	return &u, nil
}

// EnsureUser creates the user record if it doesn't exist.
// Concurrent first-contact races resolve to a no-op via ON CONFLICT.
func (r *UserRepo) EnsureUser(userID int64, username, firstName string) error {
	query := `
		INSERT INTO users (user_id, username, first_name, tier)
		VALUES (?, ?, ?, 'free')
		ON CONFLICT (user_id) DO NOTHING
	`
	_, err := r.db.Exec(query, userID, username, firstName)
	return err
}

// ApplySubscription unconditionally overwrites the user's tier and expiry
func (r *UserRepo) ApplySubscription(userID int64, tier domain.Tier, until time.Time) error {
	query := `
		UPDATE users
		SET tier = ?, subscription_until = ?, updated_at = datetime('now')
		WHERE user_id = ?
	`
	_, err := r.db.Exec(query, string(tier), until, userID)
	return err
}

// AddBonusPoints increments the user's bonus balance
func (r *UserRepo) AddBonusPoints(userID int64, points int) error {
	query := `
		UPDATE users
		SET bonus_points = bonus_points + ?, updated_at = datetime('now')
		WHERE user_id = ?
	`
	_, err := r.db.Exec(query, points, userID)
	return err
}

// SaveStyle stores the analyzed author style
func (r *UserRepo) SaveStyle(userID int64, style string) error {
	query := `
		UPDATE users
		SET style = ?, updated_at = datetime('now')
		WHERE user_id = ?
	`
	_, err := r.db.Exec(query, style, userID)
	return err
}
