// Package testenv starts the reference API over a temporary SQLite database
// for integration tests.
package testenv

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/notepid/club_companion/internal/account"
	"github.com/notepid/club_companion/internal/avatar"
	"github.com/notepid/club_companion/internal/club"
	"github.com/notepid/club_companion/internal/db"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/httpserver"
	"github.com/notepid/club_companion/internal/message"
	"github.com/notepid/club_companion/internal/security"
)

// Env is a running reference API.
type Env struct {
	URL      string
	Server   *httptest.Server
	DB       *db.DB
	Accounts *account.Repo
	Clubs    *club.Repo
	Messages *message.Repo
	Tokens   *security.TokenService
}

// New starts a server seeded with the sample clubs. It is closed when the
// test ends.
func New(t testing.TB) *Env {
	t.Helper()
	dir := t.TempDir()

	d, err := db.Open(db.DriverSQLite, filepath.Join(dir, "test.db"), zerolog.Nop())
	require.NoError(t, err)

	accounts := account.NewRepo(d, account.NewHasher(bcrypt.MinCost))
	clubs := club.NewRepo(d)
	messages := message.NewRepo(d, accounts)
	avatars, err := avatar.NewStore(filepath.Join(dir, "uploads"), zerolog.Nop())
	require.NoError(t, err)
	tokens := security.NewTokenService("test-secret", time.Hour)

	_, err = club.Seed(context.Background(), accounts)
	require.NoError(t, err)

	srv := httpserver.New(httpserver.Options{
		Accounts:    accounts,
		Clubs:       clubs,
		Messages:    messages,
		Avatars:     avatars,
		Tokens:      tokens,
		Log:         zerolog.Nop(),
		CORSOrigins: []string{"*"},
	})
	ts := httptest.NewServer(srv.Router())

	t.Cleanup(func() {
		ts.Close()
		d.Close()
	})

	return &Env{
		URL:      ts.URL,
		Server:   ts,
		DB:       d,
		Accounts: accounts,
		Clubs:    clubs,
		Messages: messages,
		Tokens:   tokens,
	}
}

// Register creates an account directly in the database and returns the
// actor with a valid token.
func (e *Env) Register(t testing.TB, role domain.Role, email, name string, interests ...string) (domain.Actor, string) {
	t.Helper()
	id, err := e.Accounts.Register(context.Background(), role, domain.Registration{
		Email:     email,
		Password:  "password123",
		Name:      name,
		Interests: interests,
	})
	require.NoError(t, err)
	actor := domain.Actor{ID: id, Role: role}
	token, err := e.Tokens.Issue(actor)
	require.NoError(t, err)
	return actor, token
}

// ClubByName returns a seeded club.
func (e *Env) ClubByName(t testing.TB, name string) domain.Club {
	t.Helper()
	clubs, err := e.Clubs.List(context.Background())
	require.NoError(t, err)
	for _, c := range clubs {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("club %q not seeded", name)
	return domain.Club{}
}

// ClubActor returns the actor and token of a seeded club.
func (e *Env) ClubActor(t testing.TB, name string) (domain.Actor, string) {
	t.Helper()
	actor := domain.Actor{ID: e.ClubByName(t, name).ID, Role: domain.RoleClub}
	token, err := e.Tokens.Issue(actor)
	require.NoError(t, err)
	return actor, token
}
