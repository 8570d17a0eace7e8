package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/notepid/club_companion/internal/app"
	"github.com/notepid/club_companion/internal/domain"
)

type screen int

const (
	screenHome screen = iota
	screenAuth
	screenDashboard
)

type rootModel struct {
	app *app.App

	width  int
	height int

	active screen

	homeList list.Model
	err      error

	auth      *authModel
	dashboard *dashboardModel
}

type authChoice struct {
	role     domain.Role
	register bool
	quit     bool
}

func NewRootModel(a *app.App) tea.Model {
	items := []list.Item{
		item{title: "Student login", desc: "Find clubs, save them and message them", kind: "login-student"},
		item{title: "Club login", desc: "Manage your club profile, members and messages", kind: "login-club"},
		item{title: "Register as a student", desc: "Requires a @ufl.edu address", kind: "register-student"},
		item{title: "Register a club", desc: "Create a club account", kind: "register-club"},
		item{title: "Quit", desc: "Exit", kind: "quit"},
	}

	l := newList(items, 0, 0)
	l.Title = "Club Companion"

	return &rootModel{
		app:      a,
		active:   screenHome,
		homeList: l,
	}
}

func choiceFor(kind string) authChoice {
	switch kind {
	case "login-student":
		return authChoice{role: domain.RoleStudent}
	case "login-club":
		return authChoice{role: domain.RoleClub}
	case "register-student":
		return authChoice{role: domain.RoleStudent, register: true}
	case "register-club":
		return authChoice{role: domain.RoleClub, register: true}
	default:
		return authChoice{quit: true}
	}
}

func (m *rootModel) Init() tea.Cmd {
	return nil
}

func (m *rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.homeList.SetSize(msg.Width, msg.Height-2)
		if m.auth != nil {
			m.auth.SetSize(msg.Width, msg.Height)
		}
		if m.dashboard != nil {
			m.dashboard.SetSize(msg.Width, msg.Height)
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.dashboard != nil {
				m.dashboard.Unmount()
			}
			return m, tea.Quit
		}
	}

	switch m.active {
	case screenHome:
		return m.updateHome(msg)
	case screenAuth:
		if m.auth == nil {
			m.active = screenHome
			return m, nil
		}
		cmd := m.auth.Update(msg)
		switch {
		case m.auth.LoggedIn:
			m.auth = nil
			return m, m.openDashboard()
		case m.auth.Done:
			m.auth = nil
			m.active = screenHome
		}
		return m, cmd
	case screenDashboard:
		if m.dashboard == nil {
			m.active = screenHome
			return m, nil
		}
		cmd := m.dashboard.Update(msg)
		if m.dashboard.Done {
			m.dashboard.Unmount()
			m.dashboard = nil
			m.app.Forms.Logout()
			m.active = screenHome
			return m, nil
		}
		return m, cmd
	default:
		return m, nil
	}
}

func (m *rootModel) updateHome(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.homeList, cmd = m.homeList.Update(msg)

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "enter":
			it, ok := m.homeList.SelectedItem().(item)
			if !ok {
				return m, cmd
			}
			choice := choiceFor(it.kind)
			if choice.quit {
				return m, tea.Quit
			}
			m.err = nil
			m.auth = newAuthModel(m.app, choice.role, choice.register)
			m.auth.SetSize(m.width, m.height)
			m.active = screenAuth
			return m, m.auth.Init()
		}
	}
	return m, cmd
}

func (m *rootModel) openDashboard() tea.Cmd {
	d, err := newDashboardModel(m.app)
	if err != nil {
		m.err = err
		m.active = screenHome
		return nil
	}
	m.dashboard = d
	m.dashboard.SetSize(m.width, m.height)
	m.active = screenDashboard
	return m.dashboard.Init()
}

func (m *rootModel) View() string {
	switch m.active {
	case screenHome:
		v := m.homeList.View()
		if m.err != nil {
			v = errStyle.Render("Error: ") + m.err.Error() + "\n" + v
		}
		return v
	case screenAuth:
		if m.auth == nil {
			return "Loading..."
		}
		return m.auth.View()
	case screenDashboard:
		if m.dashboard == nil {
			return "Loading dashboard..."
		}
		return m.dashboard.View()
	default:
		return titleStyle.Render("Unknown screen") + "\n" + fmt.Sprint(m.active)
	}
}
