package sqlite

import (
	"database/sql"
	"time"

	"contentgpt/internal/domain"
)

// ContentRepo implements repository.ContentRepository
type ContentRepo struct {
	db *sql.DB
}

// NewContentRepo creates a new content repository
func NewContentRepo(db *sql.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

// SaveGeneration appends to the generation history
func (r *ContentRepo) SaveGeneration(userID int64, kind domain.ContentKind, prompt, content string) error {
	query := `
		INSERT INTO generation_history (user_id, kind, prompt, content)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, userID, string(kind), prompt, content)
	return err
}

// SaveContent stores an artifact the user explicitly kept
func (r *ContentRepo) SaveContent(userID int64, kind domain.ContentKind, prompt, content string) error {
	query := `
		INSERT INTO saved_content (user_id, kind, prompt, content)
		VALUES (?, ?, ?, ?)
	`
	_, err := r.db.Exec(query, userID, string(kind), prompt, content)
	return err
}

// RecentSaved returns the newest saved items first
func (r *ContentRepo) RecentSaved(userID int64, limit int) ([]domain.SavedContent, error) {
	query := `
		SELECT id, user_id, kind, prompt, content, created_at
		FROM saved_content
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.SavedContent
	for rows.Next() {
		var (
			s    domain.SavedContent
			kind string
		)
		if err := rows.Scan(&s.ID, &s.UserID, &kind, &s.Prompt, &s.Content, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Kind = domain.ContentKind(kind)
		items = append(items, s)
	}

	return items, rows.Err()
}

// DeleteHistoryBefore removes generation history older than the cutoff.
// created_at is written by datetime('now') in UTC, so the cutoff is
// normalized to UTC before it is compared.
func (r *ContentRepo) DeleteHistoryBefore(cutoff time.Time) error {
	query := `DELETE FROM generation_history WHERE created_at < ?`
	_, err := r.db.Exec(query, cutoff.UTC())
	return err
}

// Stats returns aggregate counters for the admin panel
func (r *ContentRepo) Stats() (*domain.Stats, error) {
	var st domain.Stats

	queries := []struct {
		query string
		dest  any
	}{
		{`SELECT COUNT(*) FROM users`, &st.TotalUsers},
		{`SELECT COUNT(*) FROM users WHERE tier != 'free'`, &st.PaidUsers},
		{`SELECT COUNT(*) FROM generation_history`, &st.Generations},
		{`SELECT COUNT(*) FROM payments WHERE status = 'succeeded'`, &st.SucceededPayments},
		{`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'succeeded'`, &st.Revenue},
	}

	for _, q := range queries {
		if err := r.db.QueryRow(q.query).Scan(q.dest); err != nil && err != sql.ErrNoRows {
			return nil, err
		}
	}

	return &st, nil
}
