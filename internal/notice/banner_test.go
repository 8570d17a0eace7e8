package notice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notepid/club_companion/internal/schedule"
)

func TestBannerAutoDismiss(t *testing.T) {
	clock := schedule.NewManual()
	b := NewBanner(clock)
	cleared := 0
	b.OnChange(func() { cleared++ })

	b.Show(Success, "Profile updated successfully!", 3*time.Second)
	n, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, Success, n.Kind)

	clock.Advance(2 * time.Second)
	_, ok = b.Current()
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = b.Current()
	assert.False(t, ok)
	assert.Equal(t, 1, cleared)
}

func TestNewerBannerSurvivesOlderTimer(t *testing.T) {
	clock := schedule.NewManual()
	b := NewBanner(clock)

	b.Show(Success, "first", 3*time.Second)
	clock.Advance(2 * time.Second)
	b.Show(Error, "second", 3*time.Second)
	clock.Advance(1500 * time.Millisecond)

	n, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "second", n.Text)
}

func TestPersistentBanner(t *testing.T) {
	clock := schedule.NewManual()
	b := NewBanner(clock)

	b.ShowRetry("Failed to connect to the server. Please try again.")
	clock.Advance(time.Hour)
	n, ok := b.Current()
	require.True(t, ok)
	assert.True(t, n.Retry)

	b.Clear()
	_, ok = b.Current()
	assert.False(t, ok)
}
