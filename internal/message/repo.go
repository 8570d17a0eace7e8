package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/notepid/club_companion/internal/db"
	"github.com/notepid/club_companion/internal/domain"
)

// Repo handles database operations for direct messages.
type Repo struct {
	db    *db.DB
	names Directory
}

// NewRepo creates a new message repository.
func NewRepo(d *db.DB, names Directory) *Repo {
	return &Repo{db: d, names: names}
}

const recordColumns = `id, content, sender_id, sender_type, recipient_id, recipient_type, created_at, read`

func (r *Repo) queryRecords(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var m Record
		var senderType, recipientType string
		if err := rows.Scan(&m.ID, &m.Content, &m.SenderID, &senderType, &m.RecipientID,
			&recipientType, &m.CreatedAt, &m.Read); err != nil {
			return nil, err
		}
		m.SenderType = domain.Role(senderType)
		m.RecipientType = domain.Role(recipientType)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repo) name(ctx context.Context, a domain.Actor) domain.Counterpart {
	c, err := r.names.Counterpart(ctx, a.Role, a.ID)
	if err != nil {
		c = domain.Counterpart{ID: a.ID, Type: a.Role, Name: "Unknown"}
	}
	return c
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Send stores a message from sender to the recipient named in req.
func (r *Repo) Send(ctx context.Context, sender domain.Actor, req domain.SendRequest) (*domain.SentMessage, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("send message: %w: empty content", domain.ErrInvalidInput)
	}
	if _, err := r.names.Counterpart(ctx, req.RecipientType, req.RecipientID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s not found: %w", capitalize(string(req.RecipientType)), domain.ErrNotFound)
		}
		return nil, err
	}
	from, err := r.names.Counterpart(ctx, sender.Role, sender.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s not found: %w", capitalize(string(sender.Role)), domain.ErrNotFound)
		}
		return nil, err
	}

	now := time.Now().UTC()
	var id int64
	err = r.db.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO messages (content, sender_id, sender_type, recipient_id, recipient_type, created_at, read)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id
	`), req.Content, sender.ID, string(sender.Role), req.RecipientID, string(req.RecipientType), now, false).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("send message to %s %d: %w", req.RecipientType, req.RecipientID, err)
	}

	return &domain.SentMessage{
		ID:            id,
		Content:       req.Content,
		SenderID:      sender.ID,
		SenderType:    sender.Role,
		SenderName:    from.Name,
		SenderAvatar:  from.Avatar,
		RecipientID:   req.RecipientID,
		RecipientType: req.RecipientType,
		CreatedAt:     now,
		Read:          false,
	}, nil
}

// List returns every message the actor sent or received, newest first.
// With unreadOnly, only unread incoming messages are returned.
func (r *Repo) List(ctx context.Context, actor domain.Actor, unreadOnly bool) ([]domain.SentMessage, error) {
	var records []Record
	var err error
	if unreadOnly {
		records, err = r.queryRecords(ctx, `
			SELECT `+recordColumns+` FROM messages
			WHERE recipient_id = ? AND recipient_type = ? AND read = ?
			ORDER BY created_at DESC, id DESC
		`, actor.ID, string(actor.Role), false)
	} else {
		records, err = r.queryRecords(ctx, `
			SELECT `+recordColumns+` FROM messages
			WHERE (recipient_id = ? AND recipient_type = ?) OR (sender_id = ? AND sender_type = ?)
			ORDER BY created_at DESC, id DESC
		`, actor.ID, string(actor.Role), actor.ID, string(actor.Role))
	}
	if err != nil {
		return nil, fmt.Errorf("list messages for %s %d: %w", actor.Role, actor.ID, err)
	}

	out := make([]domain.SentMessage, 0, len(records))
	for _, m := range records {
		from := r.name(ctx, domain.Actor{ID: m.SenderID, Role: m.SenderType})
		out = append(out, domain.SentMessage{
			ID:            m.ID,
			Content:       m.Content,
			SenderID:      m.SenderID,
			SenderType:    m.SenderType,
			SenderName:    from.Name,
			SenderAvatar:  from.Avatar,
			RecipientID:   m.RecipientID,
			RecipientType: m.RecipientType,
			CreatedAt:     m.CreatedAt,
			Read:          m.Read,
		})
	}
	return out, nil
}

// MarkRead marks one incoming message read. Only the recipient may do so.
func (r *Repo) MarkRead(ctx context.Context, actor domain.Actor, messageID int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE messages SET read = ?
		WHERE id = ? AND recipient_id = ? AND recipient_type = ?
	`), true, messageID, actor.ID, string(actor.Role))
	if err != nil {
		return fmt.Errorf("mark message %d read: %w", messageID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("message %d: %w", messageID, domain.ErrNotFound)
	}
	return nil
}

// Threads returns one summary per counterpart, most recent activity first.
func (r *Repo) Threads(ctx context.Context, actor domain.Actor) ([]domain.Thread, error) {
	records, err := r.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM messages
		WHERE (recipient_id = ? AND recipient_type = ?) OR (sender_id = ? AND sender_type = ?)
		ORDER BY created_at DESC, id DESC
	`, actor.ID, string(actor.Role), actor.ID, string(actor.Role))
	if err != nil {
		return nil, fmt.Errorf("list threads for %s %d: %w", actor.Role, actor.ID, err)
	}

	threads := []domain.Thread{}
	index := make(map[domain.Actor]int)
	for _, m := range records {
		other := m.counterpart(actor)
		i, seen := index[other]
		if !seen {
			// records are newest first, so the first hit is the latest message.
			c := r.name(ctx, other)
			threads = append(threads, domain.Thread{
				CounterpartID:     other.ID,
				CounterpartType:   other.Role,
				CounterpartName:   c.Name,
				CounterpartAvatar: c.Avatar,
				LatestMessage: domain.LatestMessage{
					ID:        m.ID,
					Content:   m.Content,
					SentByMe:  m.sentBy(actor),
					CreatedAt: m.CreatedAt,
					Read:      m.Read,
				},
			})
			i = len(threads) - 1
			index[other] = i
		}
		if !m.sentBy(actor) && !m.Read {
			threads[i].UnreadCount++
		}
	}
	return threads, nil
}

// Conversation returns the full history between actor and other, oldest
// first, and marks the incoming messages read.
func (r *Repo) Conversation(ctx context.Context, actor, other domain.Actor) (*domain.Conversation, error) {
	records, err := r.queryRecords(ctx, `
		SELECT `+recordColumns+` FROM messages
		WHERE (sender_id = ? AND sender_type = ? AND recipient_id = ? AND recipient_type = ?)
		   OR (sender_id = ? AND sender_type = ? AND recipient_id = ? AND recipient_type = ?)
		ORDER BY created_at ASC, id ASC
	`, actor.ID, string(actor.Role), other.ID, string(other.Role),
		other.ID, string(other.Role), actor.ID, string(actor.Role))
	if err != nil {
		return nil, fmt.Errorf("get conversation with %s %d: %w", other.Role, other.ID, err)
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE messages SET read = ?
		WHERE sender_id = ? AND sender_type = ? AND recipient_id = ? AND recipient_type = ? AND read = ?
	`), true, other.ID, string(other.Role), actor.ID, string(actor.Role), false)
	if err != nil {
		return nil, fmt.Errorf("mark conversation read: %w", err)
	}

	me := r.name(ctx, actor)
	them := r.name(ctx, other)
	conv := &domain.Conversation{Counterpart: them, Messages: make([]domain.Message, 0, len(records))}
	for _, m := range records {
		msg := domain.Message{
			ID:        m.ID,
			Content:   m.Content,
			SentByMe:  m.sentBy(actor),
			CreatedAt: m.CreatedAt,
			Read:      m.Read,
		}
		if msg.SentByMe {
			msg.SenderName = me.Name
		} else {
			msg.SenderName = them.Name
			msg.Read = true
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return conv, nil
}
