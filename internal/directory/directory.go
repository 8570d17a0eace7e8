// Package directory is the club search tab of the student dashboard.
package directory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/api"
	"github.com/notepid/club_companion/internal/domain"
	"github.com/notepid/club_companion/internal/event"
	"github.com/notepid/club_companion/internal/lifecycle"
	"github.com/notepid/club_companion/internal/notice"
	"github.com/notepid/club_companion/internal/view"
)

// ErrEmptyMessage is returned by Contact for blank text.
var ErrEmptyMessage = errors.New("message cannot be empty")

// DegradedNotice is shown while the sample list is displayed.
const DegradedNotice = "Could not load clubs from the server. Showing sample clubs."

// Backend is the part of the API the directory uses.
type Backend interface {
	Clubs(ctx context.Context) ([]domain.Club, error)
	Club(ctx context.Context, id int64) (*domain.Club, error)
	SocialLinks(ctx context.Context, clubID int64) ([]domain.SocialLink, error)
	SavedClubs(ctx context.Context, studentID int64) ([]domain.Club, error)
	SaveClub(ctx context.Context, studentID, clubID int64) (*domain.SaveResult, error)
	UnsaveClub(ctx context.Context, studentID, clubID int64) (*domain.SaveResult, error)
	Send(ctx context.Context, actor domain.Actor, req domain.SendRequest) (*domain.SentMessage, error)
}

// Detail is the expanded view of one club.
type Detail struct {
	Club  domain.Club
	Links []domain.SocialLink
}

// State is a snapshot for rendering.
type State struct {
	Loading  bool
	Degraded bool
	Clubs    []domain.Club
	Visible  []domain.Club
	Filter   Filter
	Saved    map[int64]bool
	Pending  map[int64]bool
	// ContactClub is the club whose contact modal is open, or 0.
	ContactClub int64
	Compose     string
}

// Directory lists clubs, filters them and lets students save and contact them.
type Directory struct {
	mu      sync.Mutex
	backend Backend
	env     view.Env
	actor   domain.Actor
	guard   *lifecycle.Guard
	log     zerolog.Logger

	loading     bool
	degraded    bool
	clubs       []domain.Club
	filter      Filter
	saved       map[int64]bool
	pending     map[int64]bool
	contactClub int64
	compose     string
}

// New returns a directory for the logged-in actor.
func New(env view.Env, backend Backend) (*Directory, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	sess, err := env.Actor()
	if err != nil {
		return nil, err
	}
	return &Directory{
		backend: backend,
		env:     env,
		actor:   sess.Actor,
		guard:   lifecycle.NewGuard(context.Background()),
		log:     env.Log.With().Str("component", "directory").Logger(),
		saved:   make(map[int64]bool),
		pending: make(map[int64]bool),
	}, nil
}

// Load fetches the club list, falling back to SampleClubs on failure. For
// students the saved set is loaded right after.
func (d *Directory) Load(ctx context.Context) error {
	ctx, token := d.guard.Begin(ctx)
	d.mu.Lock()
	d.loading = true
	d.mu.Unlock()

	clubs, err := d.backend.Clubs(ctx)

	d.mu.Lock()
	if !d.guard.Current(token) {
		d.mu.Unlock()
		return nil
	}
	d.loading = false
	if err != nil {
		d.log.Warn().Err(err).Msg("load clubs; using samples")
		d.clubs = slices.Clone(SampleClubs)
		d.degraded = true
		d.mu.Unlock()
		d.env.Banner.ShowRetry(DegradedNotice)
		return err
	}
	d.clubs = clubs
	d.degraded = false
	d.mu.Unlock()

	if d.actor.Role != domain.RoleStudent {
		return nil
	}
	return d.loadSaved(ctx, token)
}

func (d *Directory) loadSaved(ctx context.Context, token uint64) error {
	saved, err := d.backend.SavedClubs(ctx, d.actor.ID)

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.guard.Current(token) {
		return nil
	}
	if err != nil {
		d.log.Warn().Err(err).Msg("load saved clubs")
		return fmt.Errorf("load saved clubs: %w", err)
	}
	d.saved = make(map[int64]bool, len(saved))
	for _, c := range saved {
		d.saved[c.ID] = true
	}
	return nil
}

// SetFilter replaces the active filter.
func (d *Directory) SetFilter(f Filter) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f.Interests = slices.Clone(f.Interests)
	d.filter = f
}

// ToggleFilterInterest adds or removes one interest from the filter.
func (d *Directory) ToggleFilterInterest(tag string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i := slices.Index(d.filter.Interests, tag); i >= 0 {
		d.filter.Interests = slices.Delete(d.filter.Interests, i, i+1)
		return
	}
	d.filter.Interests = append(d.filter.Interests, tag)
}

// IsSaved reports whether the student has saved clubID.
func (d *Directory) IsSaved(clubID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.saved[clubID]
}

// ToggleSave saves clubID if it is not saved and unsaves it otherwise. The
// saved set only changes once the server confirms.
func (d *Directory) ToggleSave(ctx context.Context, clubID int64) error {
	if d.actor.Role != domain.RoleStudent {
		return domain.ErrForbidden
	}
	d.mu.Lock()
	if d.pending[clubID] {
		d.mu.Unlock()
		return nil
	}
	d.pending[clubID] = true
	wasSaved := d.saved[clubID]
	d.mu.Unlock()

	ctx, cancel := d.guard.Attach(ctx)
	defer cancel()

	var res *domain.SaveResult
	var err error
	if wasSaved {
		res, err = d.backend.UnsaveClub(ctx, d.actor.ID, clubID)
	} else {
		res, err = d.backend.SaveClub(ctx, d.actor.ID, clubID)
	}

	d.mu.Lock()
	delete(d.pending, clubID)
	if d.guard.Closed() {
		d.mu.Unlock()
		return nil
	}
	if err != nil {
		d.mu.Unlock()
		verb := "save"
		if wasSaved {
			verb = "remove"
		}
		d.log.Warn().Err(err).Int64("club_id", clubID).Msg(verb + " club")
		d.env.Banner.Show(notice.Error, "Failed to "+verb+" club: "+api.Message(err), d.env.UI.BannerTTL)
		return err
	}
	if wasSaved {
		delete(d.saved, clubID)
	} else {
		d.saved[clubID] = true
	}
	d.mu.Unlock()

	msg := "Club saved"
	if wasSaved {
		msg = "Club removed from saved clubs"
	}
	if res != nil && res.Message != "" {
		msg = res.Message
	}
	d.env.Banner.Show(notice.Success, msg, d.env.UI.BannerTTL)
	d.env.Bus.Publish(event.SavedClubsChanged{})
	return nil
}

// OpenContact opens the contact modal for clubID with an empty compose box.
func (d *Directory) OpenContact(clubID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contactClub = clubID
	d.compose = ""
}

// CloseContact closes the contact modal.
func (d *Directory) CloseContact() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contactClub = 0
	d.compose = ""
}

// SetCompose edits the contact message.
func (d *Directory) SetCompose(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.compose = text
}

// Contact sends text to clubID. On success the modal closes and, after the
// tab switch delay, the dashboard is asked to show the inbox.
func (d *Directory) Contact(ctx context.Context, clubID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		d.env.Banner.Show(notice.Error, "Please enter a message", d.env.UI.BannerTTL)
		return ErrEmptyMessage
	}

	ctx, cancel := d.guard.Attach(ctx)
	defer cancel()
	_, err := d.backend.Send(ctx, d.actor, domain.SendRequest{
		Content:       text,
		RecipientID:   clubID,
		RecipientType: domain.RoleClub,
	})
	if d.guard.Closed() {
		return nil
	}
	if err != nil {
		d.log.Warn().Err(err).Int64("club_id", clubID).Msg("contact club")
		d.env.Banner.Show(notice.Error, "Failed to send message: "+api.Message(err), d.env.UI.BannerTTL)
		return err
	}

	d.mu.Lock()
	d.compose = ""
	if d.contactClub == clubID {
		d.contactClub = 0
	}
	d.mu.Unlock()

	d.env.Banner.Show(notice.Success, "Message sent successfully!", d.env.UI.BannerTTL)
	d.env.Scheduler.AfterFunc(d.env.UI.TabSwitchDelay, func() {
		if d.guard.Closed() {
			return
		}
		d.env.Bus.Publish(event.SwitchTab{Tab: event.TabMessages})
	})
	return nil
}

// Detail fetches a club together with its social links. Missing links are
// not an error.
func (d *Directory) Detail(ctx context.Context, clubID int64) (*Detail, error) {
	ctx, cancel := d.guard.Attach(ctx)
	defer cancel()

	c, err := d.backend.Club(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("get club %d: %w", clubID, err)
	}
	links, err := d.backend.SocialLinks(ctx, clubID)
	if err != nil {
		d.log.Debug().Err(err).Int64("club_id", clubID).Msg("load social links")
		links = nil
	}
	return &Detail{Club: *c, Links: links}, nil
}

// State returns a snapshot for rendering.
func (d *Directory) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := d.filter
	f.Interests = slices.Clone(f.Interests)
	return State{
		Loading:     d.loading,
		Degraded:    d.degraded,
		Clubs:       slices.Clone(d.clubs),
		Visible:     Apply(d.clubs, f),
		Filter:      f,
		Saved:       maps.Clone(d.saved),
		Pending:     maps.Clone(d.pending),
		ContactClub: d.contactClub,
		Compose:     d.compose,
	}
}

// Unmount cancels outstanding requests.
func (d *Directory) Unmount() {
	d.guard.Close()
}
