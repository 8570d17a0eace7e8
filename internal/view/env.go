// Package view holds what every dashboard view-model is constructed with.
package view

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/config"
	"github.com/notepid/club_companion/internal/event"
	"github.com/notepid/club_companion/internal/notice"
	"github.com/notepid/club_companion/internal/schedule"
	"github.com/notepid/club_companion/internal/session"
)

// Env is shared by the view-models of one dashboard.
type Env struct {
	Session   *session.Store
	Banner    *notice.Banner
	Scheduler schedule.Scheduler
	Bus       *event.Bus
	UI        config.UIConfig
	Log       zerolog.Logger
}

// Actor returns the logged-in session or session.ErrNotAuthenticated.
func (e Env) Actor() (session.Session, error) {
	if e.Session == nil {
		return session.Session{}, session.ErrNotAuthenticated
	}
	return e.Session.Require()
}

// Validate checks that the required collaborators are set.
func (e Env) Validate() error {
	switch {
	case e.Banner == nil:
		return errors.New("view env: banner is required")
	case e.Scheduler == nil:
		return errors.New("view env: scheduler is required")
	case e.Bus == nil:
		return errors.New("view env: event bus is required")
	}
	return nil
}
