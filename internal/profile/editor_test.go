package profile

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notepid/club_companion/internal/api"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/notice"
	"github.com/notepid/club_companion/internal/session"
	"github.com/notepid/club_companion/internal/view/viewtest"
)

type fakeBackend struct {
	mu        sync.Mutex
	profile   domain.Profile
	loads     int
	updates   []domain.ProfileUpdate
	updateErr error
}

func (f *fakeBackend) Profile(ctx context.Context, actor domain.Actor) (*domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	p := f.profile
	p.Interests = append([]string(nil), f.profile.Interests...)
	return &p, nil
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, actor domain.Actor, upd domain.ProfileUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, upd)
	if f.updateErr != nil {
		return f.updateErr
	}
	if upd.Name != nil {
		f.profile.Name = *upd.Name
	}
	if upd.Interests != nil {
		f.profile.Interests = upd.Interests
	}
	if upd.Description != nil {
		f.profile.Description = *upd.Description
	}
	return nil
}

func newStudentBackend() *fakeBackend {
	return &fakeBackend{profile: domain.Profile{
		ID:        1,
		Name:      "Alex",
		Email:     "alex@ufl.edu",
		Interests: []string{"Music"},
	}}
}

func TestNewEditorRequiresSession(t *testing.T) {
	env, _ := viewtest.New(domain.Actor{})
	_, err := NewEditor(env, newStudentBackend())
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestToggleInterestTwiceRestoresDraft(t *testing.T) {
	env, _ := viewtest.New(domain.Actor{ID: 1, Role: domain.RoleStudent})
	e, err := NewEditor(env, newStudentBackend())
	require.NoError(t, err)
	require.NoError(t, e.Load(context.Background()))

	before := e.State().Draft.Interests
	for _, tag := range []string{"Music", "Sports"} {
		e.ToggleInterest(tag)
		e.ToggleInterest(tag)
		assert.ElementsMatch(t, before, e.State().Draft.Interests, tag)
	}
	assert.False(t, e.State().Dirty)
}

func TestSaveSuccess(t *testing.T) {
	backend := newStudentBackend()
	env, clock := viewtest.New(domain.Actor{ID: 1, Role: domain.RoleStudent})
	e, err := NewEditor(env, backend)
	require.NoError(t, err)
	require.NoError(t, e.Load(context.Background()))

	e.SetName("Alex Gator")
	e.ToggleInterest("Sports")
	require.True(t, e.State().Dirty)

	require.NoError(t, e.Save(context.Background()))
	st := e.State()
	assert.False(t, st.Dirty)
	assert.Equal(t, "Alex Gator", st.Baseline.Name)

	require.Len(t, backend.updates, 1)
	upd := backend.updates[0]
	require.NotNil(t, upd.Name)
	assert.Equal(t, "Alex Gator", *upd.Name)
	assert.Equal(t, []string{"Music", "Sports"}, upd.Interests)
	assert.Nil(t, upd.Description, "students have no description")
	assert.Nil(t, upd.Avatar)

	n, ok := env.Banner.Current()
	require.True(t, ok)
	assert.Equal(t, notice.Success, n.Kind)
	assert.Equal(t, "Profile updated successfully!", n.Text)

	clock.Advance(time.Second)
	assert.Equal(t, 2, backend.loads, "refetch after refetch delay")

	clock.Advance(2 * time.Second)
	_, ok = env.Banner.Current()
	assert.False(t, ok, "banner dismissed after ttl")
}

func TestSaveFailureLeavesStateUnchanged(t *testing.T) {
	backend := newStudentBackend()
	backend.updateErr = &api.Error{Status: 400, Detail: "Name too long"}
	env, clock := viewtest.New(domain.Actor{ID: 1, Role: domain.RoleStudent})
	e, err := NewEditor(env, backend)
	require.NoError(t, err)
	require.NoError(t, e.Load(context.Background()))

	e.SetName("Changed")
	before := e.State()

	err = e.Save(context.Background())
	require.Error(t, err)
	after := e.State()
	assert.Equal(t, before.Draft, after.Draft)
	assert.Equal(t, before.Baseline, after.Baseline)
	assert.True(t, after.Dirty)

	n, ok := env.Banner.Current()
	require.True(t, ok)
	assert.Equal(t, notice.Error, n.Kind)
	assert.Contains(t, n.Text, "Name too long")

	clock.Advance(time.Minute)
	assert.Equal(t, 1, backend.loads, "no refetch after a failed save")
}

func TestClubDescription(t *testing.T) {
	backend := &fakeBackend{profile: domain.Profile{ID: 3, Name: "Chess Club", Description: "old", Interests: []string{}}}
	env, _ := viewtest.New(domain.Actor{ID: 3, Role: domain.RoleClub})
	e, err := NewEditor(env, backend)
	require.NoError(t, err)
	require.NoError(t, e.Load(context.Background()))

	assert.ErrorIs(t, e.SetDescription(strings.Repeat("é", MaxDescription+1)), ErrDescriptionTooLong)
	require.NoError(t, e.SetDescription(strings.Repeat("é", MaxDescription)))
	require.NoError(t, e.SetDescription("We play chess."))
	require.NoError(t, e.Save(context.Background()))

	require.Len(t, backend.updates, 1)
	require.NotNil(t, backend.updates[0].Description)
	assert.Equal(t, "We play chess.", *backend.updates[0].Description)
	assert.NotNil(t, backend.updates[0].Interests)
}

func TestAvatarMustBeImage(t *testing.T) {
	env, _ := viewtest.New(domain.Actor{ID: 1, Role: domain.RoleStudent})
	backend := newStudentBackend()
	e, err := NewEditor(env, backend)
	require.NoError(t, err)
	require.NoError(t, e.Load(context.Background()))

	require.Error(t, e.SetAvatarBytes([]byte("%PDF-1.4 not an image")))
	assert.False(t, e.State().Dirty)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	require.NoError(t, e.SetAvatarBytes(buf.Bytes()))
	st := e.State()
	assert.True(t, st.Dirty)
	assert.True(t, strings.HasPrefix(st.Draft.Avatar, "data:image/png;base64,"))

	require.NoError(t, e.Save(context.Background()))
	require.NotNil(t, backend.updates[0].Avatar)
	assert.Equal(t, st.Draft.Avatar, *backend.updates[0].Avatar)
	assert.False(t, e.State().Dirty)
}

func TestChangePasswordIsLocalOnly(t *testing.T) {
	backend := newStudentBackend()
	env, _ := viewtest.New(domain.Actor{ID: 1, Role: domain.RoleStudent})
	e, err := NewEditor(env, backend)
	require.NoError(t, err)

	assert.ErrorIs(t, e.ChangePassword("", "newpassword", "newpassword"), ErrCurrentPasswordMiss)
	assert.ErrorIs(t, e.ChangePassword("old", "short", "short"), ErrPasswordTooShort)
	assert.ErrorIs(t, e.ChangePassword("old", "newpassword", "otherpassword"), ErrPasswordMismatch)

	require.NoError(t, e.ChangePassword("old", "newpassword", "newpassword"))
	n, ok := env.Banner.Current()
	require.True(t, ok)
	assert.Equal(t, PasswordNotice, n.Text)
	assert.Empty(t, backend.updates)
}

type failingBackend struct{ fakeBackend }

func (f *failingBackend) Profile(ctx context.Context, actor domain.Actor) (*domain.Profile, error) {
	return nil, api.ErrConnection
}

func TestLoadFailureShowsRetryBanner(t *testing.T) {
	env, _ := viewtest.New(domain.Actor{ID: 1, Role: domain.RoleStudent})
	e, err := NewEditor(env, &failingBackend{})
	require.NoError(t, err)

	err = e.Load(context.Background())
	require.True(t, errors.Is(err, api.ErrConnection))
	n, ok := env.Banner.Current()
	require.True(t, ok)
	assert.True(t, n.Retry)
	assert.Contains(t, n.Text, api.ConnectionMessage)
	assert.False(t, e.State().Loaded)
}
