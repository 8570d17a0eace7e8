package message

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/notepid/club_companion/internal/account"
	"github.com/notepid/club_companion/internal/db"
	"github.com/notepid/club_companion/internal/domain"
)

type fixture struct {
	repo  *Repo
	alice domain.Actor
	bob   domain.Actor
	chess domain.Actor
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	d, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "message.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	accounts := account.NewRepo(d, account.NewHasher(bcrypt.MinCost))
	register := func(role domain.Role, email, name string) domain.Actor {
		id, err := accounts.Register(ctx, role, domain.Registration{Email: email, Password: "password123", Name: name})
		require.NoError(t, err)
		return domain.Actor{ID: id, Role: role}
	}

	return fixture{
		repo:  NewRepo(d, accounts),
		alice: register(domain.RoleStudent, "alice@ufl.edu", "Alice"),
		bob:   register(domain.RoleStudent, "bob@ufl.edu", "Bob"),
		chess: register(domain.RoleClub, "chess@club.com", "Chess Club"),
	}
}

func (f fixture) send(t *testing.T, from, to domain.Actor, content string) *domain.SentMessage {
	t.Helper()
	m, err := f.repo.Send(context.Background(), from, domain.SendRequest{
		Content: content, RecipientID: to.ID, RecipientType: to.Role,
	})
	require.NoError(t, err)
	return m
}

func TestSendUnknownRecipient(t *testing.T) {
	f := newFixture(t)
	_, err := f.repo.Send(context.Background(), f.alice, domain.SendRequest{
		Content: "hi", RecipientID: 999, RecipientType: domain.RoleClub,
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "Club not found")
}

func TestThreadsGroupByCounterpart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.send(t, f.alice, f.chess, "Hi, when do you meet?")
	f.send(t, f.chess, f.alice, "Tuesdays at 6")
	f.send(t, f.chess, f.alice, "Room 204")
	f.send(t, f.bob, f.chess, "Can I join?")

	threads, err := f.repo.Threads(ctx, f.chess)
	require.NoError(t, err)
	require.Len(t, threads, 2)

	// Bob wrote last, so his thread comes first.
	assert.Equal(t, f.bob.ID, threads[0].CounterpartID)
	assert.Equal(t, "Bob", threads[0].CounterpartName)
	assert.Equal(t, 1, threads[0].UnreadCount)
	assert.False(t, threads[0].LatestMessage.SentByMe)

	assert.Equal(t, f.alice.ID, threads[1].CounterpartID)
	assert.Equal(t, 1, threads[1].UnreadCount)
	assert.Equal(t, "Room 204", threads[1].LatestMessage.Content)
	assert.True(t, threads[1].LatestMessage.SentByMe)

	aliceThreads, err := f.repo.Threads(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, aliceThreads, 1)
	assert.Equal(t, 2, aliceThreads[0].UnreadCount)
	assert.Equal(t, domain.RoleClub, aliceThreads[0].CounterpartType)
}

func TestConversationMarksIncomingRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.send(t, f.alice, f.chess, "Hello")
	f.send(t, f.chess, f.alice, "Welcome!")

	conv, err := f.repo.Conversation(ctx, f.alice, f.chess)
	require.NoError(t, err)
	assert.Equal(t, "Chess Club", conv.Counterpart.Name)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "Hello", conv.Messages[0].Content)
	assert.True(t, conv.Messages[0].SentByMe)
	assert.Equal(t, "Alice", conv.Messages[0].SenderName)
	assert.False(t, conv.Messages[1].SentByMe)

	threads, err := f.repo.Threads(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Zero(t, threads[0].UnreadCount)

	// The club's own message to Alice now reads as read from its side.
	conv, err = f.repo.Conversation(ctx, f.chess, f.alice)
	require.NoError(t, err)
	assert.True(t, conv.Messages[1].Read)
}

func TestListAndMarkRead(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	m := f.send(t, f.chess, f.alice, "Reminder: meeting tonight")
	f.send(t, f.alice, f.chess, "Thanks")

	unread, err := f.repo.List(ctx, f.alice, true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Chess Club", unread[0].SenderName)

	all, err := f.repo.List(ctx, f.alice, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Only the recipient can mark a message read.
	assert.ErrorIs(t, f.repo.MarkRead(ctx, f.bob, m.ID), domain.ErrNotFound)
	require.NoError(t, f.repo.MarkRead(ctx, f.alice, m.ID))

	unread, err = f.repo.List(ctx, f.alice, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
