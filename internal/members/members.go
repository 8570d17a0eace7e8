// Package members is the "Members" tab of the club dashboard: students who
// saved the club.
package members

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/api"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/lifecycle"
	"github.com/notepid/club_companion/internal/notice"
	"github.com/notepid/club_companion/internal/view"
)

// ErrEmptyMessage is returned by Message for blank text.
var ErrEmptyMessage = errors.New("message cannot be empty")

// Backend is the part of the API the member list uses.
type Backend interface {
	Members(ctx context.Context, clubID int64) ([]domain.Member, error)
	Send(ctx context.Context, actor domain.Actor, req domain.SendRequest) (*domain.SentMessage, error)
}

// State is a snapshot for rendering.
type State struct {
	Loading bool
	Members []domain.Member
}

// View lists a club's members.
type View struct {
	mu      sync.Mutex
	backend Backend
	env     view.Env
	actor   domain.Actor
	guard   *lifecycle.Guard
	log     zerolog.Logger
	loading bool
	members []domain.Member
}

// New returns the member list of the logged-in club.
func New(env view.Env, backend Backend) (*View, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	sess, err := env.Actor()
	if err != nil {
		return nil, err
	}
	if sess.Actor.Role != domain.RoleClub {
		return nil, domain.ErrForbidden
	}
	return &View{
		backend: backend,
		env:     env,
		actor:   sess.Actor,
		guard:   lifecycle.NewGuard(context.Background()),
		log:     env.Log.With().Str("component", "members").Logger(),
	}, nil
}

// Load fetches the members, most recent first.
func (v *View) Load(ctx context.Context) error {
	ctx, token := v.guard.Begin(ctx)
	v.mu.Lock()
	v.loading = true
	v.mu.Unlock()

	members, err := v.backend.Members(ctx, v.actor.ID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.guard.Current(token) {
		return nil
	}
	v.loading = false
	if err != nil {
		v.log.Warn().Err(err).Msg("load members")
		v.env.Banner.ShowRetry("Failed to load members: " + api.Message(err))
		return err
	}
	v.members = members
	return nil
}

// Message sends text to a member.
func (v *View) Message(ctx context.Context, studentID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	ctx, cancel := v.guard.Attach(ctx)
	defer cancel()

	_, err := v.backend.Send(ctx, v.actor, domain.SendRequest{
		Content:       text,
		RecipientID:   studentID,
		RecipientType: domain.RoleStudent,
	})
	if v.guard.Closed() {
		return nil
	}
	if err != nil {
		v.log.Warn().Err(err).Int64("student_id", studentID).Msg("message member")
		v.env.Banner.Show(notice.Error, "Failed to send message: "+api.Message(err), v.env.UI.BannerTTL)
		return err
	}
	v.env.Banner.Show(notice.Success, "Message sent successfully!", v.env.UI.BannerTTL)
	return nil
}

// State returns a snapshot for rendering.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{Loading: v.loading, Members: slices.Clone(v.members)}
}

// Unmount cancels outstanding requests.
func (v *View) Unmount() {
	v.guard.Close()
}
