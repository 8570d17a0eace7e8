package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/notepid/club_companion/internal/app"
	"github.com/notepid/club_companion/internal/ui"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	a, cleanup, err := app.New(*configPath)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer cleanup()

	p := tea.NewProgram(ui.NewRootModel(a), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		a.Log.Error().Err(err).Msg("ui stopped")
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
