package sqlite

import (
	"database/sql"
	"time"

	"contentgpt/internal/domain"
)

// PaymentRepo implements repository.PaymentRepository
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo creates a new payment repository
func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

// Create inserts a new payment row
func (r *PaymentRepo) Create(p *domain.Payment) error {
	query := `
		INSERT INTO payments (user_id, provider, external_id, order_id, tier, amount, currency, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.Exec(query,
		p.UserID, string(p.Provider), p.ExternalID, p.OrderID,
		string(p.Tier), p.Amount, p.Currency, string(p.Status),
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		p.ID = id
	}
	return nil
}

// CreateIfAbsent inserts a payment unless one with the same
// (provider, external_id) already exists. The uniqueness constraint makes
// duplicate push deliveries a structural no-op rather than an advisory check.
func (r *PaymentRepo) CreateIfAbsent(p *domain.Payment) (bool, error) {
	query := `
		INSERT INTO payments (user_id, provider, external_id, order_id, tier, amount, currency, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, external_id) DO NOTHING
	`
	res, err := r.db.Exec(query,
		p.UserID, string(p.Provider), p.ExternalID, p.OrderID,
		string(p.Tier), p.Amount, p.Currency, string(p.Status),
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetByExternal returns the payment for a provider reference
func (r *PaymentRepo) GetByExternal(provider domain.PaymentProvider, externalID string) (*domain.Payment, error) {
	var (
		p       domain.Payment
		prov    string
		tier    string
		status  string
		orderID sql.NullString
	)
	query := `
		SELECT id, user_id, provider, external_id, order_id, tier, amount, currency, status, created_at, updated_at
		FROM payments
		WHERE provider = ? AND external_id = ?
	`
	err := r.db.QueryRow(query, string(provider), externalID).Scan(
		&p.ID, &p.UserID, &prov, &p.ExternalID, &orderID,
		&tier, &p.Amount, &p.Currency, &status, &p.CreatedAt, &p.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Provider = domain.PaymentProvider(prov)
	p.Tier = domain.ParseTier(tier)
	p.Status = domain.PaymentStatus(status)
	if orderID.Valid {
		p.OrderID = orderID.String
	}

	return &p, nil
}

// MarkTerminal transitions the payment to a terminal status only if it is
// currently non-terminal. A compare-and-set on the status column: the first
// caller to land wins, everyone after sees zero rows affected.
func (r *PaymentRepo) MarkTerminal(provider domain.PaymentProvider, externalID string, status domain.PaymentStatus) (bool, error) {
	query := `
		UPDATE payments
		SET status = ?, updated_at = datetime('now')
		WHERE provider = ? AND external_id = ? AND status IN ('created', 'pending')
	`
	res, err := r.db.Exec(query, string(status), string(provider), externalID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ExpirePendingBefore marks payments still pending past the cutoff as
// expired. created_at is written by datetime('now') in UTC, so the cutoff
// is normalized to UTC before it is compared.
func (r *PaymentRepo) ExpirePendingBefore(cutoff time.Time) (int64, error) {
	query := `
		UPDATE payments
		SET status = 'expired', updated_at = datetime('now')
		WHERE status IN ('created', 'pending') AND created_at < ?
	`
	res, err := r.db.Exec(query, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
