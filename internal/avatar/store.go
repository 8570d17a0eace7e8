package avatar

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/domain"
)

// URLPrefix is where the HTTP server exposes the upload directory.
const URLPrefix = "/uploads"

// Store writes avatar uploads to the local filesystem.
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore creates the upload directory if needed.
func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Store{dir: dir, log: log.With().Str("component", "avatar-store").Logger()}, nil
}

// Dir returns the upload root.
func (s *Store) Dir() string { return s.dir }

// Save decodes a data URI and stores it as
// {role}_profile_pictures/{id}_{uuid}.{ext}. It returns the public URL path.
func (s *Store) Save(ctx context.Context, owner domain.Actor, dataURI string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, ext, err := Decode(dataURI)
	if err != nil {
		return "", err
	}

	folder := string(owner.Role) + "_profile_pictures"
	name := fmt.Sprintf("%d_%s.%s", owner.ID, uuid.NewString(), ext)
	full := filepath.Join(s.dir, folder, name)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create avatar directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}

	s.log.Debug().Str("file", full).Int("bytes", len(data)).Msg("avatar stored")
	return path.Join(URLPrefix, folder, name), nil
}
