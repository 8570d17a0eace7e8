package authform_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notepid/club_companion/internal/api"
	"github.com/notepid/club_companion/internal/authform"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/session"
	"github.com/notepid/club_companion/internal/testenv"
)

func newForms(t *testing.T) (*authform.Forms, *session.Store) {
	env := testenv.New(t)
	store := session.NewStore()
	client := api.NewClient(env.URL, 0, store)
	return authform.New(client, store, zerolog.Nop()), store
}

func TestParseInterests(t *testing.T) {
	assert.Equal(t, []string{"Sports", "Music"}, authform.ParseInterests(" Sports, ,Music,"))
	assert.Equal(t, []string{}, authform.ParseInterests(""))
}

func TestRegisterValidation(t *testing.T) {
	base := authform.RegisterInput{
		Role:     domain.RoleStudent,
		Name:     "Alex",
		Email:    "alex@gmail.com",
		Password: "password123",
		Confirm:  "password123",
	}
	assert.ErrorIs(t, base.Validate(), authform.ErrStudentEmail)

	club := base
	club.Role = domain.RoleClub
	assert.NoError(t, club.Validate(), "clubs may use any address")

	mismatch := base
	mismatch.Email = "alex@ufl.edu"
	mismatch.Confirm = "password124"
	assert.ErrorIs(t, mismatch.Validate(), authform.ErrPasswordsMismatch)

	missing := base
	missing.Name = " "
	assert.ErrorIs(t, missing.Validate(), authform.ErrMissingFields)
}

func TestValidationMessages(t *testing.T) {
	for _, err := range []error{authform.ErrMissingFields, authform.ErrStudentEmail, authform.ErrPasswordsMismatch} {
		assert.Regexp(t, `^[a-z]`, err.Error())
	}

	msg, ok := authform.Message(fmt.Errorf("register: %w", authform.ErrStudentEmail))
	require.True(t, ok)
	assert.Equal(t, "Please use a valid UF email address (@ufl.edu)", msg)

	msg, ok = authform.Message(authform.ErrMissingFields)
	require.True(t, ok)
	assert.Equal(t, "Please fill in all required fields", msg)

	_, ok = authform.Message(errors.New("boom"))
	assert.False(t, ok)
}

func TestRegistrationDropsStudentDescription(t *testing.T) {
	in := authform.RegisterInput{Role: domain.RoleStudent, Description: "ignored", Interests: "Arts"}
	assert.Empty(t, in.Registration().Description)
	in.Role = domain.RoleClub
	assert.Equal(t, "ignored", in.Registration().Description)
}

func TestRegisterThenLogin(t *testing.T) {
	forms, store := newForms(t)
	ctx := context.Background()

	res, err := forms.Register(ctx, authform.RegisterInput{
		Role:      domain.RoleStudent,
		Name:      "Alex Gator",
		Email:     "alex@ufl.edu",
		Password:  "password123",
		Confirm:   "password123",
		Interests: "Sports, Music",
	})
	require.NoError(t, err)
	assert.Equal(t, "Student registered successfully", res.Message)
	_, ok := store.Current()
	assert.False(t, ok, "registration does not log in")

	_, err = forms.Register(ctx, authform.RegisterInput{
		Role: domain.RoleStudent, Name: "Again", Email: "alex@ufl.edu",
		Password: "password123", Confirm: "password123",
	})
	require.Error(t, err)
	assert.Equal(t, "Email already registered", api.Message(err))

	_, err = forms.Login(ctx, domain.RoleStudent, "alex@ufl.edu", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", api.Message(err))

	sess, err := forms.Login(ctx, domain.RoleStudent, "alex@ufl.edu", "password123")
	require.NoError(t, err)
	assert.Equal(t, res.ID, sess.Actor.ID)
	assert.NotEmpty(t, sess.Token)

	current, err := store.Require()
	require.NoError(t, err)
	assert.Equal(t, sess, current)

	forms.Logout()
	_, err = store.Require()
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}

func TestLoginRequiresFields(t *testing.T) {
	forms, _ := newForms(t)
	_, err := forms.Login(context.Background(), domain.RoleClub, "", "x")
	assert.ErrorIs(t, err, authform.ErrMissingFields)
}
