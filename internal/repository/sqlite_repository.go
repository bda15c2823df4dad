package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dudgeon/chat-frontier-family/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository wraps an opened sqlite database.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) CreateSession(ctx context.Context, s *model.ChatSession) error {
	query := `INSERT INTO chat_sessions (id, user_id, name, session_summary, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.UserID, s.Name, s.SessionSummary, s.LastUpdated, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not insert session: %w", err)
	}
	return nil
}

func (r *sqliteRepository) GetSession(ctx context.Context, sessionID string) (*model.ChatSession, error) {
	query := `SELECT id, user_id, name, session_summary, last_updated, created_at
		FROM chat_sessions WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, sessionID)
	s, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *sqliteRepository) ListSessions(ctx context.Context, userID string) ([]*model.ChatSession, error) {
	query := `SELECT id, user_id, name, session_summary, last_updated, created_at
		FROM chat_sessions WHERE user_id = ? ORDER BY last_updated DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]*model.ChatSession, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *sqliteRepository) UpdateSessionMeta(ctx context.Context, s *model.ChatSession) error {
	query := `UPDATE chat_sessions SET name = ?, session_summary = ?, last_updated = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, s.Name, s.SessionSummary, s.LastUpdated, s.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *sqliteRepository) DeleteSession(ctx context.Context, sessionID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM chat_sessions WHERE id = ?", sessionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMessage inserts the message and bumps the session's last_updated in one
// transaction so a crash can't leave the two out of step.
func (r *sqliteRepository) AddMessage(ctx context.Context, sessionID string, m *model.Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := `INSERT INTO chat_messages (id, session_id, content, is_user, timestamp, image_url, truncated)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insert, m.ID, sessionID, m.Content, m.IsUser, m.Timestamp, m.ImageURL, m.Truncated); err != nil {
		return fmt.Errorf("could not insert message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE chat_sessions SET last_updated = ? WHERE id = ?", m.Timestamp, sessionID); err != nil {
		return fmt.Errorf("could not touch session: %w", err)
	}
	return tx.Commit()
}

func (r *sqliteRepository) GetMessages(ctx context.Context, sessionID string) ([]model.Message, error) {
	query := `SELECT id, content, is_user, timestamp, image_url, truncated
		FROM chat_messages WHERE session_id = ? ORDER BY timestamp ASC, rowid ASC`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]model.Message, 0)
	for rows.Next() {
		var m model.Message
		var imageURL sql.NullString
		if err := rows.Scan(&m.ID, &m.Content, &m.IsUser, &m.Timestamp, &imageURL, &m.Truncated); err != nil {
			return nil, err
		}
		if imageURL.Valid {
			m.ImageURL = &imageURL.String
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *sqliteRepository) CountAssistantMessages(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM chat_messages WHERE session_id = ? AND is_user = 0", sessionID).Scan(&n)
	return n, err
}

func (r *sqliteRepository) GetProfile(ctx context.Context, userID string) (*model.Profile, error) {
	query := "SELECT user_id, display_name, created_at, updated_at FROM profiles WHERE user_id = ?"
	var p model.Profile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&p.UserID, &p.DisplayName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *sqliteRepository) UpsertProfile(ctx context.Context, p *model.Profile) error {
	query := `INSERT INTO profiles (user_id, display_name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET display_name = excluded.display_name, updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query, p.UserID, p.DisplayName, p.CreatedAt, p.UpdatedAt)
	return err
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*model.ChatSession, error) {
	var s model.ChatSession
	var name, summary sql.NullString
	var lastUpdated sql.NullInt64
	if err := row.Scan(&s.ID, &s.UserID, &name, &summary, &lastUpdated, &s.CreatedAt); err != nil {
		return nil, err
	}
	if name.Valid {
		s.Name = &name.String
	}
	if summary.Valid {
		s.SessionSummary = &summary.String
	}
	if lastUpdated.Valid {
		s.LastUpdated = &lastUpdated.Int64
	}
	return &s, nil
}
