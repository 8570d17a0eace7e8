// Package viewtest builds view environments driven by a manual clock.
package viewtest

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/config"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/event"
	"github.com/notepid/club_companion/internal/notice"
	"github.com/notepid/club_companion/internal/schedule"
	"github.com/notepid/club_companion/internal/session"
	"github.com/notepid/club_companion/internal/view"
)

// New returns an Env logged in as actor plus the clock that drives it.
func New(actor domain.Actor) (view.Env, *schedule.Manual) {
	clock := schedule.NewManual()
	store := session.NewStore()
	if actor.ID != 0 {
		store.Set(session.Session{Actor: actor, Token: "test-token"})
	}
	return view.Env{
		Session:   store,
		Banner:    notice.NewBanner(clock),
		Scheduler: clock,
		Bus:       event.NewBus(zerolog.Nop()),
		UI: config.UIConfig{
			BannerTTL:      3 * time.Second,
			RefetchDelay:   time.Second,
			TabSwitchDelay: 2 * time.Second,
			PollInterval:   10 * time.Second,
		},
		Log: zerolog.Nop(),
	}, clock
}
