package message

import (
	"context"
	"time"

	"github.com/notepid/club_companion/internal/domain"
)

// Record is a stored direct message.
type Record struct {
	ID            int64
	Content       string
	SenderID      int64
	SenderType    domain.Role
	RecipientID   int64
	RecipientType domain.Role
	CreatedAt     time.Time
	Read          bool
}

// sentBy reports whether actor wrote the message.
func (m Record) sentBy(actor domain.Actor) bool {
	return m.SenderID == actor.ID && m.SenderType == actor.Role
}

// counterpart returns the other side of the message as seen by actor.
func (m Record) counterpart(actor domain.Actor) domain.Actor {
	if m.sentBy(actor) {
		return domain.Actor{ID: m.RecipientID, Role: m.RecipientType}
	}
	return domain.Actor{ID: m.SenderID, Role: m.SenderType}
}

// Directory resolves display names for students and clubs.
type Directory interface {
	Counterpart(ctx context.Context, role domain.Role, id int64) (domain.Counterpart, error)
}
