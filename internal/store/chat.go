package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const chatColumns = `id, user_id, sender_id, sender_role, body, image_url, is_final, read, created_at`

func scanChatMessage(row pgx.Row) (*ChatMessage, error) {
	var m ChatMessage
	err := row.Scan(&m.ID, &m.UserID, &m.SenderID, &m.SenderRole, &m.Body,
		&m.ImageURL, &m.IsFinal, &m.Read, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// InsertChatMessage appends one message to a user's support conversation.
// userID identifies the conversation owner, senderID who wrote it (nil for
// SYSTEM messages).
func (s *Store) InsertChatMessage(ctx context.Context, userID string, senderID *string, senderRole, body string, imageURL *string, isFinal bool) (*ChatMessage, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (id, user_id, sender_id, sender_role, body, image_url, is_final)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+chatColumns,
		uuid.New().String(), userID, senderID, senderRole, body, imageURL, isFinal)
	return scanChatMessage(row)
}

func (s *Store) ListChatMessages(ctx context.Context, userID string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+chatColumns+` FROM chat_messages
		WHERE user_id = $1
		ORDER BY created_at
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatMessage
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// IsChatClosed reports whether the conversation's newest message is a final
// marker. A user message posted afterwards reopens the conversation simply by
// becoming the newest row.
func (s *Store) IsChatClosed(ctx context.Context, userID string) (bool, *ChatMessage, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+chatColumns+` FROM chat_messages
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1`, userID)
	m, err := scanChatMessage(row)
	if errors.Is(err, ErrNotFound) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	if m.IsFinal {
		return true, m, nil
	}
	return false, nil, nil
}

func (s *Store) MarkChatRead(ctx context.Context, userID, readerRole string) error {
	// A reader marks the other side's messages as read.
	_, err := s.pool.Exec(ctx, `
		UPDATE chat_messages SET read = TRUE
		WHERE user_id = $1 AND sender_role <> $2 AND NOT read`,
		userID, readerRole)
	return err
}

// ChatConversation summarizes one user's support thread for the admin list.
type ChatConversation struct {
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	UserEmail   string `json:"userEmail"`
	Unread      int64  `json:"unread"`
	LastMessage string `json:"lastMessage"`
}

func (s *Store) ListChatConversations(ctx context.Context) ([]ChatConversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT u.id, u.name, u.email,
		       count(*) FILTER (WHERE m.sender_role = 'USER' AND NOT m.read),
		       (SELECT body FROM chat_messages WHERE user_id = u.id ORDER BY created_at DESC LIMIT 1)
		FROM chat_messages m
		JOIN users u ON u.id = m.user_id
		GROUP BY u.id, u.name, u.email
		ORDER BY max(m.created_at) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ChatConversation
	for rows.Next() {
		var c ChatConversation
		if err := rows.Scan(&c.UserID, &c.UserName, &c.UserEmail, &c.Unread, &c.LastMessage); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
