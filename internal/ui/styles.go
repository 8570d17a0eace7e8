package ui

import (
	"context"
	"errors"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/notepid/club_companion/internal/api"
	"github.com/notepid/club_companion/internal/authform"
	"github.com/notepid/club_companion/internal/notice"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	helpStyle    = dimStyle
	badgeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")).Padding(0, 1)
	tabStyle     = lipgloss.NewStyle().Padding(0, 2)
	activeTab    = tabStyle.Bold(true).Underline(true).Foreground(lipgloss.Color("13"))
	mineStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	theirsStyle  = lipgloss.NewStyle()
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerHeight = 3
)

func bannerView(n notice.Notice) string {
	switch n.Kind {
	case notice.Success:
		return okStyle.Render(n.Text)
	case notice.Error:
		s := errStyle.Render(n.Text)
		if n.Retry {
			s += dimStyle.Render("  (ctrl+r to retry)")
		}
		return s
	default:
		return infoStyle.Render(n.Text)
	}
}

// item is a generic list entry.
type item struct {
	id    int64
	title string
	desc  string
	kind  string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

func newList(items []list.Item, w, h int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), w, h)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(true)
	l.KeyMap.Quit.SetEnabled(false)
	return l
}

// setItems replaces the list content while keeping the cursor in range.
func setItems(l *list.Model, items []list.Item) {
	idx := l.Index()
	l.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		l.Select(idx)
	}
}

// errText is banner text for err.
func errText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) || errors.Is(err, api.ErrConnection) || errors.Is(err, context.DeadlineExceeded) {
		return api.Message(err)
	}
	if msg, ok := authform.Message(err); ok {
		return msg
	}
	return capitalize(err.Error())
}

func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
