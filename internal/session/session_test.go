package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notepid/club_companion/internal/domain"
)

func TestRequireGate(t *testing.T) {
	s := NewStore()

	_, err := s.Require()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Empty(t, s.Token())

	s.Set(Session{Actor: domain.Actor{ID: 3, Role: domain.RoleClub}, Email: "art@club.com", Token: "tok"})
	sess, err := s.Require()
	require.NoError(t, err)
	assert.Equal(t, int64(3), sess.Actor.ID)
	assert.Equal(t, "tok", s.Token())

	s.Clear()
	_, ok := s.Current()
	assert.False(t, ok)
}
