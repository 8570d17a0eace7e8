package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/api"
	"github.com/notepid/club_companion/internal/avatar"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/lifecycle"
	"github.com/notepid/club_companion/internal/notice"
	"github.com/notepid/club_companion/internal/view"
)

// MaxDescription is the longest club description accepted by the editor.
const MaxDescription = 500

// MinPasswordLength is enforced by ChangePassword.
const MinPasswordLength = 8

var (
	ErrNotLoaded           = errors.New("profile not loaded")
	ErrDescriptionTooLong  = fmt.Errorf("description must be at most %d characters", MaxDescription)
	ErrPasswordTooShort    = fmt.Errorf("new password must be at least %d characters", MinPasswordLength)
	ErrPasswordMismatch    = errors.New("new passwords do not match")
	ErrCurrentPasswordMiss = errors.New("current password is required")
)

// PasswordNotice is shown after a locally valid password change. The
// backend has no password endpoint, so nothing is sent.
const PasswordNotice = "Password change validated, but not saved: password changes are not sent to the server yet."

// Backend is the part of the API the editor uses.
type Backend interface {
	Profile(ctx context.Context, actor domain.Actor) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, upd domain.ProfileUpdate) error
}

// Draft is an editable copy of a profile.
type Draft struct {
	Name        string
	Email       string
	Description string
	Interests   []string
	// Avatar is a URL path when read from the server and a data URI after
	// a new image was picked.
	Avatar        string
	AvatarChanged bool
}

func draftFrom(p *domain.Profile) Draft {
	return Draft{
		Name:        p.Name,
		Email:       p.Email,
		Description: p.Description,
		Interests:   slices.Clone(p.Interests),
		Avatar:      p.Avatar,
	}
}

func (d Draft) clone() Draft {
	d.Interests = slices.Clone(d.Interests)
	return d
}

// HasInterest reports whether tag is selected.
func (d Draft) HasInterest(tag string) bool {
	return slices.Contains(d.Interests, tag)
}

// State is a snapshot for rendering.
type State struct {
	Loaded   bool
	Loading  bool
	Saving   bool
	Role     domain.Role
	Draft    Draft
	Baseline Draft
	Dirty    bool
}

// Editor is the profile tab of both dashboards.
type Editor struct {
	mu       sync.Mutex
	backend  Backend
	env      view.Env
	actor    domain.Actor
	guard    *lifecycle.Guard
	log      zerolog.Logger
	loaded   bool
	loading  bool
	saving   bool
	baseline Draft
	draft    Draft
}

// NewEditor returns an editor for the logged-in actor.
func NewEditor(env view.Env, backend Backend) (*Editor, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	sess, err := env.Actor()
	if err != nil {
		return nil, err
	}
	return &Editor{
		backend: backend,
		env:     env,
		actor:   sess.Actor,
		guard:   lifecycle.NewGuard(context.Background()),
		log:     env.Log.With().Str("component", "profile").Logger(),
	}, nil
}

// Load fetches the profile and resets the draft. On failure a persistent
// retryable banner is shown and the previous state is kept.
func (e *Editor) Load(ctx context.Context) error {
	ctx, token := e.guard.Begin(ctx)
	e.mu.Lock()
	e.loading = true
	e.mu.Unlock()

	p, err := e.backend.Profile(ctx, e.actor)

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.guard.Current(token) {
		return nil
	}
	e.loading = false
	if err != nil {
		e.log.Warn().Err(err).Msg("load profile")
		e.env.Banner.ShowRetry("Failed to load profile: " + api.Message(err))
		return err
	}
	e.baseline = draftFrom(p)
	e.draft = e.baseline.clone()
	e.loaded = true
	return nil
}

// ToggleInterest adds tag to the draft if absent and removes it otherwise.
func (e *Editor) ToggleInterest(tag string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := slices.Index(e.draft.Interests, tag); i >= 0 {
		e.draft.Interests = slices.Delete(e.draft.Interests, i, i+1)
		return
	}
	e.draft.Interests = append(e.draft.Interests, tag)
}

// SetName edits the draft name.
func (e *Editor) SetName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Name = name
}

// SetDescription edits the draft description. Only clubs have one.
func (e *Editor) SetDescription(desc string) error {
	if utf8.RuneCountInString(desc) > MaxDescription {
		return ErrDescriptionTooLong
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Description = desc
	return nil
}

// SetAvatarBytes stores a picked image in the draft as a data URI.
func (e *Editor) SetAvatarBytes(data []byte) error {
	uri, err := avatar.Encode(data)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft.Avatar = uri
	e.draft.AvatarChanged = true
	return nil
}

// SetAvatarFromFile reads an image from disk into the draft.
func (e *Editor) SetAvatarFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read avatar %s: %w", path, err)
	}
	return e.SetAvatarBytes(data)
}

// Reset discards unsaved edits.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.draft = e.baseline.clone()
}

// Save posts the whole draft. On success the draft becomes the baseline, a
// success banner is shown and a re-fetch is scheduled. On failure nothing
// changes except the banner.
func (e *Editor) Save(ctx context.Context) error {
	e.mu.Lock()
	if !e.loaded {
		e.mu.Unlock()
		return ErrNotLoaded
	}
	if e.saving {
		e.mu.Unlock()
		return nil
	}
	e.saving = true
	draft := e.draft.clone()
	e.mu.Unlock()

	upd := domain.ProfileUpdate{
		Name:      &draft.Name,
		Interests: draft.Interests,
	}
	if upd.Interests == nil {
		upd.Interests = []string{}
	}
	if e.actor.Role == domain.RoleClub {
		upd.Description = &draft.Description
	}
	if draft.AvatarChanged {
		upd.Avatar = &draft.Avatar
	}

	ctx, cancel := e.guard.Attach(ctx)
	defer cancel()
	err := e.backend.UpdateProfile(ctx, e.actor, upd)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	if e.guard.Closed() {
		return nil
	}
	if err != nil {
		e.log.Warn().Err(err).Msg("save profile")
		e.env.Banner.Show(notice.Error, "Failed to update profile: "+api.Message(err), e.env.UI.BannerTTL)
		return err
	}

	draft.AvatarChanged = false
	e.baseline = draft
	if e.draft.Avatar == draft.Avatar {
		e.draft.AvatarChanged = false
	}
	e.env.Banner.Show(notice.Success, "Profile updated successfully!", e.env.UI.BannerTTL)
	e.env.Scheduler.AfterFunc(e.env.UI.RefetchDelay, func() {
		if err := e.Load(e.guard.Context()); err != nil && !errors.Is(err, context.Canceled) {
			e.log.Debug().Err(err).Msg("refetch after save")
		}
	})
	return nil
}

// ChangePassword validates a password change locally. No request is made;
// the banner says so.
func (e *Editor) ChangePassword(current, next, confirm string) error {
	var err error
	switch {
	case current == "":
		err = ErrCurrentPasswordMiss
	case utf8.RuneCountInString(next) < MinPasswordLength:
		err = ErrPasswordTooShort
	case next != confirm:
		err = ErrPasswordMismatch
	}
	if err != nil {
		e.env.Banner.Show(notice.Error, capitalize(err.Error()), e.env.UI.BannerTTL)
		return err
	}
	e.env.Banner.Show(notice.Info, PasswordNotice, e.env.UI.BannerTTL)
	return nil
}

// State returns a snapshot for rendering.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Loaded:   e.loaded,
		Loading:  e.loading,
		Saving:   e.saving,
		Role:     e.actor.Role,
		Draft:    e.draft.clone(),
		Baseline: e.baseline.clone(),
		Dirty:    e.dirtyLocked(),
	}
}

func (e *Editor) dirtyLocked() bool {
	return e.draft.Name != e.baseline.Name ||
		e.draft.Description != e.baseline.Description ||
		e.draft.AvatarChanged ||
		!slices.Equal(e.draft.Interests, e.baseline.Interests)
}

// Unmount cancels outstanding requests; late responses are dropped.
func (e *Editor) Unmount() {
	e.guard.Close()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}
