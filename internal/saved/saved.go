// Package saved is the "Saved Clubs" tab of the student dashboard.
package saved

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/api"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/event"
	"github.com/notepid/club_companion/internal/lifecycle"
	"github.com/notepid/club_companion/internal/notice"
	"github.com/notepid/club_companion/internal/view"
)

// Backend is the part of the API the saved list uses.
type Backend interface {
	SavedClubs(ctx context.Context, studentID int64) ([]domain.Club, error)
	UnsaveClub(ctx context.Context, studentID, clubID int64) (*domain.SaveResult, error)
}

// State is a snapshot for rendering.
type State struct {
	Loading  bool
	Loaded   bool
	Clubs    []domain.Club
	Expanded int64
}

// List shows the clubs a student saved.
type List struct {
	mu       sync.Mutex
	backend  Backend
	env      view.Env
	actor    domain.Actor
	guard    *lifecycle.Guard
	log      zerolog.Logger
	sub      *event.Subscriber
	loading  bool
	loaded   bool
	clubs    []domain.Club
	expanded int64
}

// New returns the saved list of the logged-in student.
func New(env view.Env, backend Backend) (*List, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	sess, err := env.Actor()
	if err != nil {
		return nil, err
	}
	if sess.Actor.Role != domain.RoleStudent {
		return nil, domain.ErrForbidden
	}
	return &List{
		backend: backend,
		env:     env,
		actor:   sess.Actor,
		guard:   lifecycle.NewGuard(context.Background()),
		log:     env.Log.With().Str("component", "saved").Logger(),
	}, nil
}

// Load fetches the saved clubs.
func (l *List) Load(ctx context.Context) error {
	ctx, token := l.guard.Begin(ctx)
	l.mu.Lock()
	l.loading = true
	l.mu.Unlock()

	clubs, err := l.backend.SavedClubs(ctx, l.actor.ID)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.guard.Current(token) {
		return nil
	}
	l.loading = false
	if err != nil {
		l.log.Warn().Err(err).Msg("load saved clubs")
		l.env.Banner.ShowRetry("Failed to load saved clubs: " + api.Message(err))
		return err
	}
	l.clubs = clubs
	l.loaded = true
	if l.expanded != 0 && !slices.ContainsFunc(clubs, func(c domain.Club) bool { return c.ID == l.expanded }) {
		l.expanded = 0
	}
	return nil
}

// Remove unsaves clubID and drops it from the list once confirmed.
func (l *List) Remove(ctx context.Context, clubID int64) error {
	ctx, cancel := l.guard.Attach(ctx)
	defer cancel()

	_, err := l.backend.UnsaveClub(ctx, l.actor.ID, clubID)
	if l.guard.Closed() {
		return nil
	}
	if err != nil {
		l.log.Warn().Err(err).Int64("club_id", clubID).Msg("remove saved club")
		l.env.Banner.Show(notice.Error, "Failed to remove club: "+api.Message(err), l.env.UI.BannerTTL)
		return err
	}

	l.mu.Lock()
	l.clubs = slices.DeleteFunc(l.clubs, func(c domain.Club) bool { return c.ID == clubID })
	if l.expanded == clubID {
		l.expanded = 0
	}
	l.mu.Unlock()

	l.env.Banner.Show(notice.Success, "Club removed from saved clubs", l.env.UI.BannerTTL)
	l.env.Bus.Publish(event.SavedClubsChanged{})
	return nil
}

// Expand shows the details of clubID and collapses any other club.
// Expanding the open club collapses it.
func (l *List) Expand(clubID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.expanded == clubID {
		l.expanded = 0
		return
	}
	l.expanded = clubID
}

// Watch re-fetches the list whenever saved clubs change elsewhere, until
// Unmount. onReload runs after each re-fetch.
func (l *List) Watch(onReload func(error)) {
	l.mu.Lock()
	if l.sub != nil || l.guard.Closed() {
		l.mu.Unlock()
		return
	}
	l.sub = l.env.Bus.Subscribe()
	sub := l.sub
	l.mu.Unlock()

	done := l.guard.Context().Done()
	go func() {
		for {
			select {
			case <-done:
				return
			case e := <-sub.Ch:
				if _, ok := e.(event.SavedClubsChanged); !ok {
					continue
				}
				err := l.Load(l.guard.Context())
				if errors.Is(err, context.Canceled) {
					return
				}
				if onReload != nil {
					onReload(err)
				}
			}
		}
	}()
}

// State returns a snapshot for rendering.
func (l *List) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return State{
		Loading:  l.loading,
		Loaded:   l.loaded,
		Clubs:    slices.Clone(l.clubs),
		Expanded: l.expanded,
	}
}

// Unmount stops watching and cancels outstanding requests.
func (l *List) Unmount() {
	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	l.mu.Unlock()
	if sub != nil {
		l.env.Bus.Unsubscribe(sub)
	}
	l.guard.Close()
}
