package profile

import (
	"context"
	"fmt"
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

// LinksBackend is the part of the API the social link editor uses.
type LinksBackend interface {
	SocialLinks(ctx context.Context, clubID int64) ([]domain.SocialLink, error)
	AddSocialLink(ctx context.Context, in domain.SocialLinkInput) (*domain.SocialLink, error)
	DeleteSocialLink(ctx context.Context, id int64) error
}

// Links edits the social links of the logged-in club.
type Links struct {
	mu      sync.Mutex
	backend LinksBackend
	env     view.Env
	clubID  int64
	guard   *lifecycle.Guard
	log     zerolog.Logger
	links   []domain.SocialLink
}

// NewLinks returns the link editor. Only clubs have links.
func NewLinks(env view.Env, backend LinksBackend) (*Links, error) {
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
	return &Links{
		backend: backend,
		env:     env,
		clubID:  sess.Actor.ID,
		guard:   lifecycle.NewGuard(context.Background()),
		log:     env.Log.With().Str("component", "social-links").Logger(),
	}, nil
}

// Load fetches the club's links.
func (l *Links) Load(ctx context.Context) error {
	ctx, token := l.guard.Begin(ctx)
	links, err := l.backend.SocialLinks(ctx, l.clubID)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.guard.Current(token) {
		return nil
	}
	if err != nil {
		l.log.Warn().Err(err).Msg("load social links")
		return err
	}
	l.links = links
	return nil
}

// Add creates a link and re-fetches the list.
func (l *Links) Add(ctx context.Context, platform, url string) error {
	platform = strings.ToLower(strings.TrimSpace(platform))
	if !slices.Contains(domain.SocialPlatforms, platform) {
		return fmt.Errorf("unknown platform %q: %w", platform, domain.ErrInvalidInput)
	}
	actx, cancel := l.guard.Attach(ctx)
	_, err := l.backend.AddSocialLink(actx, domain.SocialLinkInput{
		ClubID:   l.clubID,
		Platform: platform,
		URL:      strings.TrimSpace(url),
	})
	cancel()
	if err != nil {
		l.env.Banner.Show(notice.Error, "Failed to add social media link: "+api.Message(err), l.env.UI.BannerTTL)
		return err
	}
	return l.Load(ctx)
}

// Delete removes a link and re-fetches the list.
func (l *Links) Delete(ctx context.Context, id int64) error {
	actx, cancel := l.guard.Attach(ctx)
	err := l.backend.DeleteSocialLink(actx, id)
	cancel()
	if err != nil {
		l.env.Banner.Show(notice.Error, "Failed to delete social media link: "+api.Message(err), l.env.UI.BannerTTL)
		return err
	}
	return l.Load(ctx)
}

// List returns the loaded links.
func (l *Links) List() []domain.SocialLink {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.links)
}

// Unmount cancels outstanding requests.
func (l *Links) Unmount() {
	l.guard.Close()
}
