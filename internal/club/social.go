package club

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/notepid/club_companion/internal/domain"
)

// SocialLinks returns a club's social media links.
func (r *Repo) SocialLinks(ctx context.Context, clubID int64) ([]domain.SocialLink, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT id, club_id, platform, url, created_at, updated_at
		FROM social_media WHERE club_id = ? ORDER BY id
	`), clubID)
	if err != nil {
		return nil, fmt.Errorf("list social links for club %d: %w", clubID, err)
	}
	defer rows.Close()

	links := []domain.SocialLink{}
	for rows.Next() {
		var l domain.SocialLink
		if err := rows.Scan(&l.ID, &l.ClubID, &l.Platform, &l.URL, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// SocialLink returns a single link.
func (r *Repo) SocialLink(ctx context.Context, id int64) (*domain.SocialLink, error) {
	var l domain.SocialLink
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, club_id, platform, url, created_at, updated_at
		FROM social_media WHERE id = ?
	`), id).Scan(&l.ID, &l.ClubID, &l.Platform, &l.URL, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("social link %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get social link %d: %w", id, err)
	}
	return &l, nil
}

// AddSocialLink creates a link for the club named in in.
func (r *Repo) AddSocialLink(ctx context.Context, in domain.SocialLinkInput) (*domain.SocialLink, error) {
	if ok, err := r.exists(ctx, "clubs", in.ClubID); err != nil {
		return nil, fmt.Errorf("add social link: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("club %d: %w", in.ClubID, domain.ErrNotFound)
	}

	now := time.Now().UTC()
	var id int64
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO social_media (club_id, platform, url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id
	`), in.ClubID, in.Platform, in.URL, now, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("add social link for club %d: %w", in.ClubID, err)
	}
	return r.SocialLink(ctx, id)
}

// UpdateSocialLink replaces the platform and URL of a link.
func (r *Repo) UpdateSocialLink(ctx context.Context, id int64, in domain.SocialLinkInput) (*domain.SocialLink, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE social_media SET platform = ?, url = ?, updated_at = ? WHERE id = ?
	`), in.Platform, in.URL, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update social link %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("social link %d: %w", id, domain.ErrNotFound)
	}
	return r.SocialLink(ctx, id)
}

// DeleteSocialLink removes a link.
func (r *Repo) DeleteSocialLink(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM social_media WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete social link %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("social link %d: %w", id, domain.ErrNotFound)
	}
	return nil
}
