package sqlite

import (
	"database/sql"
)

// QuotaRepo implements repository.QuotaRepository over the usage_counters
// table. The day key is the server-local calendar date (domain.Today).
type QuotaRepo struct {
	db *sql.DB
}

// NewQuotaRepo creates a new quota repository
func NewQuotaRepo(db *sql.DB) *QuotaRepo {
	return &QuotaRepo{db: db}
}

// TryConsume performs the atomic check-and-increment. The whole decision
// lives in one conditional upsert: a fresh day inserts count=1, a conflicting
// day increments only while count < limit. When the guard fails the statement
// returns no row and nothing is mutated, so concurrent callers can never
// over-admit or lose an update.
func (r *QuotaRepo) TryConsume(userID int64, day string, limit int) (int, bool, error) {
	if limit <= 0 {
		used, err := r.UsedOn(userID, day)
		return used, false, err
	}

	query := `
		INSERT INTO usage_counters (user_id, day, count)
		VALUES (?, ?, 1)
		ON CONFLICT (user_id, day) DO UPDATE SET count = count + 1
		WHERE usage_counters.count < ?
		RETURNING count
	`

	var count int
	err := r.db.QueryRow(query, userID, day, limit).Scan(&count)
	if err == sql.ErrNoRows {
		// Guard rejected the increment: the allowance is spent.
		used, rerr := r.UsedOn(userID, day)
		if rerr != nil {
			return 0, false, rerr
		}
		return used, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return count, true, nil
}

// UsedOn returns the counter for the day, zero when no row exists yet
func (r *QuotaRepo) UsedOn(userID int64, day string) (int, error) {
	var count int
	query := `SELECT count FROM usage_counters WHERE user_id = ? AND day = ?`
	err := r.db.QueryRow(query, userID, day).Scan(&count)

	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return count, nil
}
