package club

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/notepid/club_companion/internal/account"
	"github.com/notepid/club_companion/internal/db"
	"github.com/notepid/club_companion/internal/domain"
)

// Repo handles the club directory, the saved relation and social links.
type Repo struct {
	db *db.DB
}

// NewRepo creates a new club repository.
func NewRepo(d *db.DB) *Repo {
	return &Repo{db: d}
}

const clubColumns = `
	c.id, c.name, c.description, c.interests, c.profile_picture,
	(SELECT COUNT(*) FROM saved_clubs WHERE club_id = c.id) AS members,
	a.email`

type scanner interface {
	Scan(dest ...any) error
}

func scanClub(s scanner) (domain.Club, error) {
	var c domain.Club
	var interests string
	if err := s.Scan(&c.ID, &c.Name, &c.Description, &interests, &c.Avatar, &c.MemberCount, &c.ContactEmail); err != nil {
		return c, err
	}
	c.Interests = account.DecodeInterests(interests)
	return c, nil
}

func (r *Repo) queryClubs(ctx context.Context, query string, args ...any) ([]domain.Club, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clubs := []domain.Club{}
	for rows.Next() {
		c, err := scanClub(rows)
		if err != nil {
			return nil, err
		}
		clubs = append(clubs, c)
	}
	return clubs, rows.Err()
}

// List returns every club ordered by name.
func (r *Repo) List(ctx context.Context) ([]domain.Club, error) {
	clubs, err := r.queryClubs(ctx, `
		SELECT `+clubColumns+`
		FROM clubs c JOIN auth_credentials a ON a.id = c.auth_id
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	return clubs, nil
}

// Get returns a single club.
func (r *Repo) Get(ctx context.Context, id int64) (*domain.Club, error) {
	c, err := scanClub(r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT `+clubColumns+`
		FROM clubs c JOIN auth_credentials a ON a.id = c.auth_id
		WHERE c.id = ?
	`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get club %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get club %d: %w", id, err)
	}
	return &c, nil
}

func (r *Repo) exists(ctx context.Context, tableName string, id int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT COUNT(*) FROM "+tableName+" WHERE id = ?"), id).Scan(&count)
	return count > 0, err
}

// Save adds a club to a student's saved list. Saving twice is not an error.
func (r *Repo) Save(ctx context.Context, studentID, clubID int64) (domain.SaveResult, error) {
	if ok, err := r.exists(ctx, "students", studentID); err != nil {
		return domain.SaveResult{}, fmt.Errorf("save club: %w", err)
	} else if !ok {
		return domain.SaveResult{}, fmt.Errorf("student %d: %w", studentID, domain.ErrNotFound)
	}
	if ok, err := r.exists(ctx, "clubs", clubID); err != nil {
		return domain.SaveResult{}, fmt.Errorf("save club: %w", err)
	} else if !ok {
		return domain.SaveResult{}, fmt.Errorf("club %d: %w", clubID, domain.ErrNotFound)
	}

	saved, err := r.IsSaved(ctx, studentID, clubID)
	if err != nil {
		return domain.SaveResult{}, err
	}
	if saved {
		return domain.SaveResult{Message: "Club already saved", Saved: true}, nil
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO saved_clubs (student_id, club_id, saved_at) VALUES (?, ?, ?)
	`), studentID, clubID, time.Now().UTC())
	if err != nil {
		return domain.SaveResult{}, fmt.Errorf("save club %d for student %d: %w", clubID, studentID, err)
	}
	return domain.SaveResult{Message: "Club saved successfully", Saved: true}, nil
}

// Unsave removes a club from a student's saved list.
func (r *Repo) Unsave(ctx context.Context, studentID, clubID int64) (domain.SaveResult, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM saved_clubs WHERE student_id = ? AND club_id = ?
	`), studentID, clubID)
	if err != nil {
		return domain.SaveResult{}, fmt.Errorf("unsave club %d for student %d: %w", clubID, studentID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.SaveResult{Message: "Club was not saved"}, nil
	}
	return domain.SaveResult{Message: "Club removed from saved clubs", Removed: true}, nil
}

// IsSaved reports whether the student saved the club.
func (r *Repo) IsSaved(ctx context.Context, studentID, clubID int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT COUNT(*) FROM saved_clubs WHERE student_id = ? AND club_id = ?
	`), studentID, clubID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check saved club: %w", err)
	}
	return count > 0, nil
}

// Saved returns the clubs a student saved, most recent first.
func (r *Repo) Saved(ctx context.Context, studentID int64) ([]domain.Club, error) {
	if ok, err := r.exists(ctx, "students", studentID); err != nil {
		return nil, fmt.Errorf("list saved clubs: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("student %d: %w", studentID, domain.ErrNotFound)
	}
	clubs, err := r.queryClubs(ctx, `
		SELECT `+clubColumns+`
		FROM saved_clubs sc
		JOIN clubs c ON c.id = sc.club_id
		JOIN auth_credentials a ON a.id = c.auth_id
		WHERE sc.student_id = ?
		ORDER BY sc.saved_at DESC, sc.id DESC
	`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list saved clubs for student %d: %w", studentID, err)
	}
	return clubs, nil
}

// Members returns the students who saved a club, most recent first.
func (r *Repo) Members(ctx context.Context, clubID int64) ([]domain.Member, error) {
	if ok, err := r.exists(ctx, "clubs", clubID); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("club %d: %w", clubID, domain.ErrNotFound)
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT s.id, s.name, s.interests, s.profile_picture, sc.saved_at
		FROM saved_clubs sc JOIN students s ON s.id = sc.student_id
		WHERE sc.club_id = ?
		ORDER BY sc.saved_at DESC, sc.id DESC
	`), clubID)
	if err != nil {
		return nil, fmt.Errorf("list members of club %d: %w", clubID, err)
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		var m domain.Member
		var interests string
		if err := rows.Scan(&m.ID, &m.Name, &interests, &m.Avatar, &m.SavedAt); err != nil {
			return nil, err
		}
		m.Interests = account.DecodeInterests(interests)
		members = append(members, m)
	}
	return members, rows.Err()
}
