package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/notepid/club_companion/internal/app"
	"github.com/notepid/club_companion/internal/authform"
	"github.com/notepid/club_companion/internal/domain"
)

type authModel struct {
	app *app.App

	width  int
	height int

	Done     bool
	LoggedIn bool

	role     domain.Role
	register bool
	form     *huh.Form
	busy     bool
	err      error
	info     string

	email       string
	password    string
	confirm     string
	name        string
	description string
	interests   string
}

type authResultMsg struct {
	register bool
	result   string
	err      error
}

func newAuthModel(a *app.App, role domain.Role, register bool) *authModel {
	m := &authModel{app: a, role: role, register: register}
	m.buildForm()
	return m
}

func (m *authModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m *authModel) SetSize(w, h int) {
	m.width, m.height = w, h
	if m.form != nil {
		m.form.WithWidth(min(w, 80))
	}
}

func (m *authModel) title() string {
	who := "Student"
	if m.role == domain.RoleClub {
		who = "Club"
	}
	if m.register {
		return who + " registration"
	}
	return who + " login"
}

func (m *authModel) buildForm() {
	m.password, m.confirm = "", ""
	if !m.register {
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().Title("Email").Value(&m.email).Validate(nonEmpty("email")),
				huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&m.password).Validate(nonEmpty("password")),
			).Title(m.title()),
		)
		return
	}

	fields := []huh.Field{
		huh.NewInput().Title("Name").Value(&m.name).Validate(nonEmpty("name")),
		huh.NewInput().Title("Email").Value(&m.email).Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("email is required")
			}
			if m.role == domain.RoleStudent && !strings.HasSuffix(strings.TrimSpace(s), authform.StudentEmailDomain) {
				return formError(authform.ErrStudentEmail)
			}
			return nil
		}),
		huh.NewInput().Title("Password").EchoMode(huh.EchoModePassword).Value(&m.password).Validate(nonEmpty("password")),
		huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&m.confirm).Validate(func(s string) error {
			if s != m.password {
				return formError(authform.ErrPasswordsMismatch)
			}
			return nil
		}),
	}
	if m.role == domain.RoleClub {
		fields = append(fields, huh.NewText().Title("Description").CharLimit(500).Value(&m.description))
	}
	fields = append(fields,
		huh.NewInput().Title("Interests").Description("Comma separated, e.g. Sports, Music").Value(&m.interests),
	)
	m.form = huh.NewForm(huh.NewGroup(fields...).Title(m.title()))
}

// formError carries the user-facing text of a validation error into huh,
// which renders err.Error() as is.
func formError(err error) error {
	if msg, ok := authform.Message(err); ok {
		return errors.New(msg)
	}
	return err
}

func nonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func (m *authModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case authResultMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return nil
		}
		if !msg.register {
			m.LoggedIn = true
			return nil
		}
		m.info = msg.result + ". Please log in."
		m.register = false
		m.buildForm()
		return m.form.Init()
	case tea.KeyMsg:
		if m.err != nil {
			if msg.String() == "esc" || msg.String() == "enter" {
				m.err = nil
				m.buildForm()
				return m.form.Init()
			}
			return nil
		}
		if msg.String() == "esc" && !m.busy {
			m.Done = true
			return nil
		}
	}
	if m.busy || m.err != nil {
		return nil
	}

	updated, cmd := m.form.Update(msg)
	f, ok := updated.(*huh.Form)
	if !ok {
		m.err = fmt.Errorf("internal error: unexpected form model type")
		return nil
	}
	m.form = f
	if m.form.State == huh.StateCompleted {
		m.busy = true
		return m.submit()
	}
	return cmd
}

func (m *authModel) submit() tea.Cmd {
	forms := m.app.Forms
	timeout := m.app.Config.Client.Timeout
	role, register := m.role, m.register
	email, password := m.email, m.password
	in := authform.RegisterInput{
		Role:        role,
		Name:        m.name,
		Email:       email,
		Password:    password,
		Confirm:     m.confirm,
		Description: m.description,
		Interests:   m.interests,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if register {
			res, err := forms.Register(ctx, in)
			if err != nil {
				return authResultMsg{register: true, err: err}
			}
			return authResultMsg{register: true, result: res.Message}
		}
		_, err := forms.Login(ctx, role, email, password)
		return authResultMsg{err: err}
	}
}

func (m *authModel) View() string {
	var b strings.Builder
	if m.info != "" {
		b.WriteString(okStyle.Render(m.info) + "\n\n")
	}
	if m.err != nil {
		fmt.Fprintf(&b, "%s error: %s\n\nPress Enter/Esc to try again.", m.title(), errText(m.err))
		return b.String()
	}
	if m.busy {
		b.WriteString("Contacting server...")
		return b.String()
	}
	b.WriteString(m.form.View())
	b.WriteString(helpStyle.Render("\n\n(esc to go back)"))
	return b.String()
}
