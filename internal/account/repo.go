package account

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/notepid/club_companion/internal/db"
	"github.com/notepid/club_companion/internal/domain"
)

// Repo handles credentials and profiles for students and clubs.
type Repo struct {
	db     *db.DB
	hasher Hasher
}

// NewRepo creates a new account repository.
func NewRepo(d *db.DB, hasher Hasher) *Repo {
	return &Repo{db: d, hasher: hasher}
}

func table(role domain.Role) string {
	if role == domain.RoleClub {
		return "clubs"
	}
	return "students"
}

// NormalizeEmail lower-cases and trims an address so lookups are
// case-insensitive on every driver.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EncodeInterests stores an interest list as JSON text.
func EncodeInterests(interests []string) string {
	if interests == nil {
		interests = []string{}
	}
	b, _ := json.Marshal(interests)
	return string(b)
}

// DecodeInterests parses interests stored as JSON text. Malformed values
// decode to an empty list.
func DecodeInterests(raw string) []string {
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// EmailTaken reports whether an address is already registered for any role.
func (r *Repo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT COUNT(*) FROM auth_credentials WHERE email = ?"),
		NormalizeEmail(email),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

// Register creates credentials plus the student or club row and returns the
// id of the latter.
func (r *Repo) Register(ctx context.Context, role domain.Role, reg domain.Registration) (int64, error) {
	email := NormalizeEmail(reg.Email)
	taken, err := r.EmailTaken(ctx, email)
	if err != nil {
		return 0, err
	}
	if taken {
		return 0, fmt.Errorf("register %s: %w", email, domain.ErrConflict)
	}

	hash, err := r.hasher.Hash(reg.Password)
	if err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin register: %w", err)
	}
	defer tx.Rollback()

	var authID int64
	err = tx.QueryRowContext(ctx, r.db.Rebind(`
		INSERT INTO auth_credentials (email, password_hash, user_type)
		VALUES (?, ?, ?) RETURNING id
	`), email, hash, string(role)).Scan(&authID)
	if err != nil {
		return 0, fmt.Errorf("create credentials %s: %w", email, err)
	}

	var id int64
	switch role {
	case domain.RoleClub:
		err = tx.QueryRowContext(ctx, r.db.Rebind(`
			INSERT INTO clubs (auth_id, name, description, interests)
			VALUES (?, ?, ?, ?) RETURNING id
		`), authID, reg.Name, reg.Description, EncodeInterests(reg.Interests)).Scan(&id)
	default:
		err = tx.QueryRowContext(ctx, r.db.Rebind(`
			INSERT INTO students (auth_id, name, interests)
			VALUES (?, ?, ?) RETURNING id
		`), authID, reg.Name, EncodeInterests(reg.Interests)).Scan(&id)
	}
	if err != nil {
		return 0, fmt.Errorf("create %s %s: %w", role, email, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit register: %w", err)
	}
	return id, nil
}

// Authenticate checks email/password for the given role and returns the
// student or club id.
func (r *Repo) Authenticate(ctx context.Context, role domain.Role, email, password string) (int64, error) {
	var id int64
	var hash string
	err := r.db.QueryRowContext(ctx, r.db.Rebind(`
		SELECT t.id, c.password_hash
		FROM auth_credentials c
		JOIN `+table(role)+` t ON t.auth_id = c.id
		WHERE c.email = ? AND c.user_type = ?
	`), NormalizeEmail(email), string(role)).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, domain.ErrInvalidCredentials
	}
	if err != nil {
		return 0, fmt.Errorf("authenticate %s: %w", email, err)
	}
	if !r.hasher.Check(password, hash) {
		return 0, domain.ErrInvalidCredentials
	}
	return id, nil
}

// Profile returns an actor's profile.
func (r *Repo) Profile(ctx context.Context, actor domain.Actor) (*domain.Profile, error) {
	p := &domain.Profile{ID: actor.ID}
	var interests string
	var err error
	if actor.Role == domain.RoleClub {
		err = r.db.QueryRowContext(ctx, r.db.Rebind(`
			SELECT t.name, c.email, t.description, t.interests, t.profile_picture
			FROM clubs t JOIN auth_credentials c ON c.id = t.auth_id
			WHERE t.id = ?
		`), actor.ID).Scan(&p.Name, &p.Email, &p.Description, &interests, &p.Avatar)
	} else {
		err = r.db.QueryRowContext(ctx, r.db.Rebind(`
			SELECT t.name, c.email, t.interests, t.profile_picture
			FROM students t JOIN auth_credentials c ON c.id = t.auth_id
			WHERE t.id = ?
		`), actor.ID).Scan(&p.Name, &p.Email, &interests, &p.Avatar)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s %d: %w", actor.Role, actor.ID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %d: %w", actor.Role, actor.ID, err)
	}
	p.Interests = DecodeInterests(interests)
	return p, nil
}

// UpdateProfile applies the non-nil fields of upd. avatarPath replaces the
// stored picture when non-empty.
func (r *Repo) UpdateProfile(ctx context.Context, actor domain.Actor, upd domain.ProfileUpdate, avatarPath string) (*domain.Profile, error) {
	current, err := r.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}

	name := current.Name
	if upd.Name != nil {
		name = *upd.Name
	}
	interests := current.Interests
	if upd.Interests != nil {
		interests = upd.Interests
	}
	description := current.Description
	if upd.Description != nil {
		description = *upd.Description
	}
	avatar := current.Avatar
	if avatarPath != "" {
		avatar = avatarPath
	}

	if actor.Role == domain.RoleClub {
		_, err = r.db.ExecContext(ctx, r.db.Rebind(`
			UPDATE clubs SET name = ?, description = ?, interests = ?, profile_picture = ?
			WHERE id = ?
		`), name, description, EncodeInterests(interests), avatar, actor.ID)
	} else {
		_, err = r.db.ExecContext(ctx, r.db.Rebind(`
			UPDATE students SET name = ?, interests = ?, profile_picture = ?
			WHERE id = ?
		`), name, EncodeInterests(interests), avatar, actor.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s %d: %w", actor.Role, actor.ID, err)
	}
	return r.Profile(ctx, actor)
}

// Counterpart returns the display header for a student or club.
func (r *Repo) Counterpart(ctx context.Context, role domain.Role, id int64) (domain.Counterpart, error) {
	c := domain.Counterpart{ID: id, Type: role}
	err := r.db.QueryRowContext(ctx,
		r.db.Rebind("SELECT name, profile_picture FROM "+table(role)+" WHERE id = ?"), id,
	).Scan(&c.Name, &c.Avatar)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("get %s %d: %w", role, id, domain.ErrNotFound)
	}
	if err != nil {
		return c, fmt.Errorf("get %s %d: %w", role, id, err)
	}
	return c, nil
}
