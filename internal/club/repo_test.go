package club

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
	clubs    *Repo
	accounts *account.Repo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	d, err := db.Open(db.DriverSQLite, filepath.Join(t.TempDir(), "club.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return fixture{clubs: NewRepo(d), accounts: account.NewRepo(d, account.NewHasher(bcrypt.MinCost))}
}

func (f fixture) student(t *testing.T, email string) int64 {
	t.Helper()
	id, err := f.accounts.Register(context.Background(), domain.RoleStudent, domain.Registration{
		Email: email, Password: "password123", Name: email, Interests: []string{"Music"},
	})
	require.NoError(t, err)
	return id
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	n, err := Seed(ctx, f.accounts)
	require.NoError(t, err)
	assert.Equal(t, len(SeedClubs), n)

	n, err = Seed(ctx, f.accounts)
	require.NoError(t, err)
	assert.Zero(t, n)

	clubs, err := f.clubs.List(ctx)
	require.NoError(t, err)
	require.Len(t, clubs, 5)
	assert.Equal(t, "Art Society", clubs[0].Name)
	assert.Equal(t, "art@club.com", clubs[0].ContactEmail)
	assert.Equal(t, []string{"Arts", "Cultural"}, clubs[0].Interests)
}

func TestSaveUnsaveAndMemberCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := Seed(ctx, f.accounts)
	require.NoError(t, err)
	clubs, err := f.clubs.List(ctx)
	require.NoError(t, err)
	clubID := clubs[0].ID

	alice := f.student(t, "alice@ufl.edu")
	bob := f.student(t, "bob@ufl.edu")

	res, err := f.clubs.Save(ctx, alice, clubID)
	require.NoError(t, err)
	assert.True(t, res.Saved)
	assert.Equal(t, "Club saved successfully", res.Message)

	res, err = f.clubs.Save(ctx, alice, clubID)
	require.NoError(t, err)
	assert.Equal(t, "Club already saved", res.Message)

	_, err = f.clubs.Save(ctx, bob, clubID)
	require.NoError(t, err)

	c, err := f.clubs.Get(ctx, clubID)
	require.NoError(t, err)
	assert.Equal(t, 2, c.MemberCount)

	members, err := f.clubs.Members(ctx, clubID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	saved, err := f.clubs.Saved(ctx, alice)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, clubID, saved[0].ID)

	res, err = f.clubs.Unsave(ctx, alice, clubID)
	require.NoError(t, err)
	assert.True(t, res.Removed)

	res, err = f.clubs.Unsave(ctx, alice, clubID)
	require.NoError(t, err)
	assert.False(t, res.Removed)

	ok, err := f.clubs.IsSaved(ctx, alice, clubID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveUnknownClub(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.student(t, "alice@ufl.edu")

	_, err := f.clubs.Save(ctx, alice, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.clubs.Get(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSocialLinks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := Seed(ctx, f.accounts)
	require.NoError(t, err)
	clubs, err := f.clubs.List(ctx)
	require.NoError(t, err)
	clubID := clubs[0].ID

	link, err := f.clubs.AddSocialLink(ctx, domain.SocialLinkInput{ClubID: clubID, Platform: "instagram", URL: "https://instagram.com/art"})
	require.NoError(t, err)
	assert.Equal(t, "instagram", link.Platform)

	link, err = f.clubs.UpdateSocialLink(ctx, link.ID, domain.SocialLinkInput{ClubID: clubID, Platform: "website", URL: "https://art.example.org"})
	require.NoError(t, err)
	assert.Equal(t, "https://art.example.org", link.URL)

	links, err := f.clubs.SocialLinks(ctx, clubID)
	require.NoError(t, err)
	assert.Len(t, links, 1)

	require.NoError(t, f.clubs.DeleteSocialLink(ctx, link.ID))
	assert.ErrorIs(t, f.clubs.DeleteSocialLink(ctx, link.ID), domain.ErrNotFound)
}
