// Package app wires the terminal client together.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/api"
	"github.com/notepid/club_companion/internal/authform"
	"github.com/notepid/club_companion/internal/config"
	"github.com/notepid/club_companion/internal/event"
	"github.com/notepid/club_companion/internal/logging"
	"github.com/notepid/club_companion/internal/notice"
	"github.com/notepid/club_companion/internal/schedule"
	"github.com/notepid/club_companion/internal/session"
	"github.com/notepid/club_companion/internal/view"
)

// App holds what lives for the whole client process.
type App struct {
	ConfigPath string
	Config     *config.Config
	Log        zerolog.Logger

	API     *api.Client
	Session *session.Store
	Forms   *authform.Forms
	Clock   schedule.Scheduler
}

// DefaultLogFile is used when the config names no log file; the terminal
// owns stdout.
const DefaultLogFile = "clubcompanion.log"

// New loads the config and builds the client. The returned func releases
// the log file.
func New(configPath string) (*App, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Log.File == "" {
		if err := os.MkdirAll(cfg.Paths.Data, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data directory: %w", err)
		}
		cfg.Log.File = filepath.Join(cfg.Paths.Data, DefaultLogFile)
	}
	log, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	sessions := session.NewStore()
	client := api.NewClient(cfg.Client.APIURL, cfg.Client.Timeout, sessions)

	a := &App{
		ConfigPath: configPath,
		Config:     cfg,
		Log:        log,
		API:        client,
		Session:    sessions,
		Forms:      authform.New(client, sessions, log),
		Clock:      schedule.Real{},
	}
	log.Info().Str("api_url", client.BaseURL()).Msg("client started")

	return a, closeLog, nil
}

// DashboardEnv returns a fresh environment for one dashboard: its own
// banner and event bus, the shared session.
func (a *App) DashboardEnv() view.Env {
	return view.Env{
		Session:   a.Session,
		Banner:    notice.NewBanner(a.Clock),
		Scheduler: a.Clock,
		Bus:       event.NewBus(a.Log),
		UI:        a.Config.UI,
		Log:       a.Log,
	}
}

// AvatarURL resolves a stored avatar path against the API root.
func (a *App) AvatarURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http") || strings.HasPrefix(path, "data:") {
		return path
	}
	return a.API.BaseURL() + path
}
